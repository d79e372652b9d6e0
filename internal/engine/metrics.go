package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	SummarizeRequests  atomic.Int64
	SummariesRendered  atomic.Int64
	InvalidURLs        atomic.Int64
	TranscriptRequests atomic.Int64
	TranscriptErrors   atomic.Int64
	LLMCalls           atomic.Int64
	LLMErrors          atomic.Int64
	UIRequests         atomic.Int64
	UIThrottled        atomic.Int64
	ToolCalls          atomic.Int64
}

// metricKeys fixes the output order of FormatMetrics.
var metricKeys = []string{
	"summarize_requests", "summaries_rendered", "invalid_urls",
	"transcript_requests", "transcript_errors",
	"llm_calls", "llm_errors",
	"ui_requests", "ui_throttled", "tool_calls",
}

// GetMetrics returns a snapshot of all metrics.
func GetMetrics() map[string]int64 {
	return map[string]int64{
		"summarize_requests":  metrics.SummarizeRequests.Load(),
		"summaries_rendered":  metrics.SummariesRendered.Load(),
		"invalid_urls":        metrics.InvalidURLs.Load(),
		"transcript_requests": metrics.TranscriptRequests.Load(),
		"transcript_errors":   metrics.TranscriptErrors.Load(),
		"llm_calls":           metrics.LLMCalls.Load(),
		"llm_errors":          metrics.LLMErrors.Load(),
		"ui_requests":         metrics.UIRequests.Load(),
		"ui_throttled":        metrics.UIThrottled.Load(),
		"tool_calls":          metrics.ToolCalls.Load(),
	}
}

// FormatMetrics returns metrics as a simple text format for HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	for _, k := range metricKeys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// Incrementors for the web UI and MCP tool layers.
func IncrUIRequests()  { metrics.UIRequests.Add(1) }
func IncrUIThrottled() { metrics.UIThrottled.Add(1) }
func IncrToolCalls()   { metrics.ToolCalls.Add(1) }

// IncrTranscriptRequests is called by transcript providers once per fetch.
func IncrTranscriptRequests() { metrics.TranscriptRequests.Add(1) }

// TrackOperation logs a warning if an operation takes longer than threshold.
func TrackOperation(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	if elapsed > 20*time.Second {
		slog.Warn("slow operation", slog.String("op", name), slog.Duration("elapsed", elapsed))
	}
	return err
}
