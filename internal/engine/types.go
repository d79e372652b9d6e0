package engine

import "context"

// --- Transcript types ---

// Segment is one caption cue. Timing is kept but not used by the summary prompt.
type Segment struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// Transcript is the ordered caption track of one video.
type Transcript struct {
	VideoID      string    `json:"video_id"`
	Title        string    `json:"title,omitempty"`
	LanguageCode string    `json:"language_code,omitempty"`
	Segments     []Segment `json:"segments"`
}

// Text flattens the transcript into one string.
func (t *Transcript) Text() string {
	return JoinTranscript(t.Segments)
}

// Summary is the result of one pipeline run.
type Summary struct {
	VideoID  string `json:"video_id"`
	Title    string `json:"title,omitempty"`
	Raw      string `json:"raw"`      // model output as returned
	Markdown string `json:"markdown"` // blockquote-formatted for display
}

// --- Generation settings ---

// GenerationConfig mirrors the model's generationConfig object.
type GenerationConfig struct {
	Temperature      float64 `json:"temperature"`
	TopP             float64 `json:"topP"`
	TopK             int     `json:"topK"`
	MaxOutputTokens  int     `json:"maxOutputTokens"`
	ResponseMIMEType string  `json:"responseMimeType"`
}

// SummaryGeneration is the fixed configuration for every summary request.
var SummaryGeneration = GenerationConfig{
	Temperature:      1.0,
	TopP:             0.95,
	TopK:             40,
	MaxOutputTokens:  8192,
	ResponseMIMEType: "text/plain",
}

// DefaultModel is the model used when LLM_MODEL is not set.
const DefaultModel = "gemini-1.5-flash"

// --- Collaborators ---

// TranscriptProvider fetches the caption track of a video.
type TranscriptProvider interface {
	FetchTranscript(ctx context.Context, videoID string) (*Transcript, error)
}

// Generator sends one prompt to a hosted model and returns the generated text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// --- MCP tool types ---

type SummarizeInput struct {
	URL string `json:"url" jsonschema:"YouTube watch-page (youtube.com/watch?v=...) or short-link (youtu.be/...) URL"`
}

type SummarizeOutput struct {
	VideoID  string `json:"video_id"`
	Title    string `json:"title,omitempty"`
	Summary  string `json:"summary"`  // model output as returned
	Markdown string `json:"markdown"` // blockquote-formatted summary
}

type TranscriptInput struct {
	URL string `json:"url" jsonschema:"YouTube watch-page or short-link URL"`
}

type TranscriptOutput struct {
	VideoID  string `json:"video_id"`
	Title    string `json:"title,omitempty"`
	Language string `json:"language,omitempty"`
	Segments int    `json:"segments"`
	Text     string `json:"text"`
}
