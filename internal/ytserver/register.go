// Package ytserver exposes the summarizer as MCP tools.
package ytserver

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_ytsum/internal/engine"
	"github.com/anatolykoptev/go_ytsum/internal/toolutil"
)

// Pipeline is the part of engine.Pipeline the tools call.
type Pipeline interface {
	Run(ctx context.Context, rawURL string) (*engine.Summary, error)
	Transcript(ctx context.Context, rawURL string) (*engine.Transcript, error)
}

// RegisterTools registers youtube_summarize and youtube_transcript on server.
// maxTranscriptChars caps the transcript tool's text (0 = no cap).
func RegisterTools(server *mcp.Server, p Pipeline, maxTranscriptChars int) {
	registerSummarize(server, p)
	registerTranscript(server, p, maxTranscriptChars)
}

func registerSummarize(server *mcp.Server, p Pipeline) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "youtube_summarize",
		Description: "Summarize a YouTube video from its transcript. Accepts a watch-page (youtube.com/watch?v=...) or short-link (youtu.be/...) URL. Returns the model summary and a blockquote-formatted markdown version.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input engine.SummarizeInput) (*mcp.CallToolResult, engine.SummarizeOutput, error) {
		engine.IncrToolCalls()
		u, err := toolutil.NormURL(input.URL)
		if err != nil {
			return nil, engine.SummarizeOutput{}, err
		}

		sum, err := p.Run(ctx, u)
		if err != nil {
			slog.Info("tool: youtube_summarize failed", slog.String("url", u), slog.Any("error", err))
			return nil, engine.SummarizeOutput{}, toolutil.ToolError(err)
		}
		return nil, engine.SummarizeOutput{
			VideoID:  sum.VideoID,
			Title:    sum.Title,
			Summary:  sum.Raw,
			Markdown: sum.Markdown,
		}, nil
	})
}

func registerTranscript(server *mcp.Server, p Pipeline, maxChars int) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "youtube_transcript",
		Description: "Fetch the caption transcript of a YouTube video as one space-joined text. Accepts a watch-page or short-link URL.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input engine.TranscriptInput) (*mcp.CallToolResult, engine.TranscriptOutput, error) {
		engine.IncrToolCalls()
		u, err := toolutil.NormURL(input.URL)
		if err != nil {
			return nil, engine.TranscriptOutput{}, err
		}

		tr, err := p.Transcript(ctx, u)
		if err != nil {
			slog.Info("tool: youtube_transcript failed", slog.String("url", u), slog.Any("error", err))
			return nil, engine.TranscriptOutput{}, toolutil.ToolError(err)
		}
		return nil, engine.TranscriptOutput{
			VideoID:  tr.VideoID,
			Title:    tr.Title,
			Language: tr.LanguageCode,
			Segments: len(tr.Segments),
			Text:     toolutil.TruncateText(tr.Text(), maxChars),
		}, nil
	})
}
