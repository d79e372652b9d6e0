package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/anatolykoptev/go-kit/llm"
)

// GeminiBaseURL is the native Gemini REST root.
const GeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// NewGenerator builds the Generator selected by cfg.LLMProvider.
func NewGenerator(cfg Config) (Generator, error) {
	key := cfg.ModelKey()
	if key == "" {
		return nil, errors.New("no model API key: set gemini_api_key in the secret store or API_KEY")
	}
	model := cfg.LLMModel
	if model == "" {
		model = DefaultModel
	}

	switch strings.ToLower(cfg.LLMProvider) {
	case "", ProviderGemini:
		base := cfg.LLMAPIBase
		if base == "" {
			base = GeminiBaseURL
		}
		return NewGeminiGenerator(base, key, model, cfg.httpClient()), nil
	case ProviderOpenAI:
		if cfg.LLMAPIBase == "" {
			return nil, errors.New("LLM_API_BASE is required for the openai provider")
		}
		return NewCompletionGenerator(cfg.LLMAPIBase, key, model, cfg.LLMAPIKeyFallbacks, cfg.httpClient()), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.LLMProvider)
	}
}

// --- Native Gemini generateContent ---

// GeminiGenerator calls models/{model}:generateContent with SummaryGeneration.
type GeminiGenerator struct {
	baseURL string
	apiKey  string
	model   string
	gen     GenerationConfig
	client  *http.Client
}

// NewGeminiGenerator creates a generator for the given REST root and model.
func NewGeminiGenerator(baseURL, apiKey, model string, client *http.Client) *GeminiGenerator {
	return &GeminiGenerator{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		gen:     SummaryGeneration,
		client:  client,
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents         []geminiContent  `json:"contents"`
	GenerationConfig GenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

type geminiErrorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Generate sends prompt as a single user turn and returns the text of the first candidate.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	metrics.LLMCalls.Add(1)
	text, err := g.generate(ctx, prompt)
	if err != nil {
		metrics.LLMErrors.Add(1)
		return "", err
	}
	return text, nil
}

func (g *GeminiGenerator) generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(geminiRequest{
		Contents:         []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: g.gen,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", UserAgentBot)
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4*1024*1024))
	if err != nil {
		return "", fmt.Errorf("gemini: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini: %w", geminiStatusError(resp.StatusCode, data))
	}

	var gr geminiResponse
	if err := json.Unmarshal(data, &gr); err != nil {
		return "", fmt.Errorf("gemini: decode response: %w", err)
	}
	return gr.text()
}

// text concatenates the parts of the first candidate.
func (gr *geminiResponse) text() (string, error) {
	if len(gr.Candidates) == 0 {
		if gr.PromptFeedback != nil && gr.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("gemini: prompt blocked: %s", gr.PromptFeedback.BlockReason)
		}
		return "", errors.New("gemini: empty response")
	}
	c := gr.Candidates[0]
	var sb strings.Builder
	for _, p := range c.Content.Parts {
		sb.WriteString(p.Text)
	}
	if sb.Len() == 0 {
		if c.FinishReason != "" {
			return "", fmt.Errorf("gemini: no text returned (finish reason %s)", c.FinishReason)
		}
		return "", errors.New("gemini: no text returned")
	}
	return sb.String(), nil
}

// geminiStatusError prefers the API's own error message over the raw body.
func geminiStatusError(code int, body []byte) error {
	var eb geminiErrorBody
	if json.Unmarshal(body, &eb) == nil && eb.Error.Message != "" {
		return &StatusError{StatusCode: code, Body: eb.Error.Message}
	}
	return &StatusError{StatusCode: code, Body: TruncateRunes(strings.TrimSpace(string(body)), 300, "...")}
}

// Ping checks that the model exists and the key is accepted.
func (g *GeminiGenerator) Ping(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s/models/%s", g.baseURL, g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", UserAgentBot)
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return geminiStatusError(resp.StatusCode, data)
	}
	return nil
}

// --- OpenAI-compatible endpoint via go-kit/llm ---

// CompletionGenerator sends the prompt through an OpenAI-compatible chat endpoint.
// topP, topK and the MIME type have no equivalent there; temperature and max tokens carry over.
type CompletionGenerator struct {
	complete func(ctx context.Context, prompt string) (string, error)
}

// NewCompletionGenerator wraps a go-kit llm client configured with SummaryGeneration.
func NewCompletionGenerator(base, apiKey, model string, fallbackKeys []string, client *http.Client) *CompletionGenerator {
	c := llm.NewClient(base, apiKey, model,
		llm.WithFallbackKeys(fallbackKeys),
		llm.WithMaxTokens(SummaryGeneration.MaxOutputTokens),
		llm.WithTemperature(SummaryGeneration.Temperature),
		llm.WithHTTPClient(client),
	)
	return &CompletionGenerator{
		complete: func(ctx context.Context, prompt string) (string, error) {
			return c.Complete(ctx, "", prompt)
		},
	}
}

// Generate sends prompt as the user message with no system prompt.
func (g *CompletionGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	metrics.LLMCalls.Add(1)
	text, err := g.complete(ctx, prompt)
	if err != nil {
		metrics.LLMErrors.Add(1)
		return "", fmt.Errorf("llm: %w", err)
	}
	if text == "" {
		metrics.LLMErrors.Add(1)
		return "", errors.New("llm: empty response")
	}
	return text, nil
}
