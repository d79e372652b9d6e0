package engine

import (
	"net/http"
	"time"
)

// Provider names accepted in Config.LLMProvider.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Config holds all engine configuration, built once in main and passed to constructors.
//
// Two keys exist on purpose: APIKey comes from the process environment, GeminiAPIKey
// from the secret store. Model calls use ModelKey, which prefers the secret store.
type Config struct {
	APIKey             string   // API_KEY from the environment (.env allowed)
	GeminiAPIKey       string   // gemini_api_key from the secret store
	LLMProvider        string   // "gemini" (native generateContent) or "openai" (OpenAI-compatible endpoint)
	LLMAPIBase         string   // base URL for the selected provider
	LLMModel           string
	LLMAPIKeyFallbacks []string // OpenAI-compatible provider only
	TranscriptLangs    []string // preferred caption languages, in order
	TranscriptAnyLang  bool     // fall back to English, then any track, when no preferred language matches
	RequestTimeout     time.Duration
	HTTPClient         *http.Client
}

// ModelKey returns the key used for model calls.
func (c Config) ModelKey() string {
	if c.GeminiAPIKey != "" {
		return c.GeminiAPIKey
	}
	return c.APIKey
}

// httpClient returns the configured client or a default with a sane timeout.
func (c Config) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 60 * time.Second}
}
