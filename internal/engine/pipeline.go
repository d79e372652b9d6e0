package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Stage names one step of a summary run.
type Stage string

const (
	StageTranscript Stage = "transcript"
	StageSummarize  Stage = "summarize"
)

// User-facing messages.
const (
	InvalidURLMessage  = "Invalid YouTube URL. Please provide a valid URL."
	errorMessagePrefix = "An error occurred: "
)

// ErrInvalidURL is returned when no video identifier can be taken from the URL.
var ErrInvalidURL = errors.New("invalid YouTube URL")

// ProcessingError wraps any failure after the identifier was extracted.
type ProcessingError struct {
	Stage Stage
	Err   error
}

// Error returns the underlying error text unchanged; it ends up in the user message.
func (e *ProcessingError) Error() string { return e.Err.Error() }

func (e *ProcessingError) Unwrap() error { return e.Err }

// ErrorMessage maps a pipeline error to the text shown to the user.
func ErrorMessage(err error) string {
	if errors.Is(err, ErrInvalidURL) {
		return InvalidURLMessage
	}
	return errorMessagePrefix + err.Error()
}

// Pipeline runs URL → identifier → transcript → summary → formatted markdown.
// Each call is sequential; one Pipeline is safe for concurrent use.
type Pipeline struct {
	transcripts TranscriptProvider
	generator   Generator
	timeout     time.Duration
}

// NewPipeline wires the collaborators built in main.
func NewPipeline(cfg Config, tp TranscriptProvider, g Generator) *Pipeline {
	return &Pipeline{transcripts: tp, generator: g, timeout: cfg.RequestTimeout}
}

// Run summarizes the video behind rawURL.
func (p *Pipeline) Run(ctx context.Context, rawURL string) (out *Summary, err error) {
	metrics.SummarizeRequests.Add(1)
	err = TrackOperation(ctx, "summarize", func(ctx context.Context) error {
		var runErr error
		out, runErr = p.run(ctx, rawURL)
		return runErr
	})
	return out, err
}

func (p *Pipeline) run(ctx context.Context, rawURL string) (*Summary, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	tr, err := p.transcript(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	text := tr.Text()
	slog.Debug("pipeline: transcript ready",
		slog.String("video_id", tr.VideoID),
		slog.Int("segments", len(tr.Segments)),
		slog.Int("chars", len(text)))

	raw, err := p.generator.Generate(ctx, BuildSummaryPrompt(text))
	if err != nil {
		slog.Warn("pipeline: summarize failed", slog.String("video_id", tr.VideoID), slog.Any("error", err))
		return nil, &ProcessingError{Stage: StageSummarize, Err: err}
	}

	md := FormatSummary(raw)
	metrics.SummariesRendered.Add(1)
	slog.Info("pipeline: summary ready",
		slog.String("video_id", tr.VideoID),
		slog.String("preview", Preview(raw)))

	return &Summary{VideoID: tr.VideoID, Title: tr.Title, Raw: raw, Markdown: md}, nil
}

// Transcript runs the extraction and fetch steps only.
func (p *Pipeline) Transcript(ctx context.Context, rawURL string) (*Transcript, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	return p.transcript(ctx, rawURL)
}

func (p *Pipeline) transcript(ctx context.Context, rawURL string) (*Transcript, error) {
	id, ok := ExtractVideoID(rawURL)
	// A marker with nothing after it counts as invalid here.
	if !ok || id == "" {
		metrics.InvalidURLs.Add(1)
		slog.Debug("pipeline: no video id", slog.String("url", rawURL))
		return nil, ErrInvalidURL
	}

	tr, err := p.transcripts.FetchTranscript(ctx, id)
	if err != nil {
		metrics.TranscriptErrors.Add(1)
		slog.Warn("pipeline: transcript failed", slog.String("video_id", id), slog.Any("error", err))
		return nil, &ProcessingError{Stage: StageTranscript, Err: err}
	}
	if tr.VideoID == "" {
		tr.VideoID = id
	}
	return tr, nil
}

func (p *Pipeline) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.timeout > 0 {
		return context.WithTimeout(ctx, p.timeout)
	}
	return context.WithCancel(ctx)
}
