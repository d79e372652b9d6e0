// Package webui serves the single-page summarizer UI.
package webui

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"golang.org/x/time/rate"

	"github.com/anatolykoptev/go_ytsum/internal/engine"
)

// Summarizer runs the full pipeline for one URL.
type Summarizer interface {
	Run(ctx context.Context, rawURL string) (*engine.Summary, error)
}

// Options tunes the UI server.
type Options struct {
	RateLimit float64 // summaries per second across all clients, 0 = unlimited
	Burst     int
}

// Server renders the page and runs submissions through the pipeline.
type Server struct {
	pipeline Summarizer
	md       goldmark.Markdown
	limiter  *rate.Limiter
}

// New creates a UI server for p.
func New(p Summarizer, opts Options) *Server {
	s := &Server{
		pipeline: p,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
		),
	}
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return s
}

// Handler returns the UI routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /metrics", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(engine.FormatMetrics()))
	})
	return mux
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	engine.IncrUIRequests()
	data := pageData{Title: pageTitle}

	// Only an empty field is not a submission; whitespace goes through and is rejected as invalid.
	data.URL = r.URL.Query().Get("url")
	if data.URL == "" {
		s.render(w, http.StatusOK, data)
		return
	}

	if s.limiter != nil && !s.limiter.Allow() {
		engine.IncrUIThrottled()
		data.Error = "Too many requests. Please try again in a moment."
		s.render(w, http.StatusTooManyRequests, data)
		return
	}

	start := time.Now()
	sum, err := s.pipeline.Run(r.Context(), data.URL)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, engine.ErrInvalidURL) {
			status = http.StatusBadRequest
		}
		slog.Info("ui: summarize failed",
			slog.String("url", data.URL),
			slog.Duration("elapsed", time.Since(start)),
			slog.Any("error", err))
		data.Error = engine.ErrorMessage(err)
		s.render(w, status, data)
		return
	}

	html, err := s.renderMarkdown(sum.Markdown)
	if err != nil {
		slog.Error("ui: markdown render failed", slog.Any("error", err))
		data.Error = engine.ErrorMessage(err)
		s.render(w, http.StatusInternalServerError, data)
		return
	}
	slog.Info("ui: summary served",
		slog.String("video_id", sum.VideoID),
		slog.Duration("elapsed", time.Since(start)))

	data.Heading = sum.Title
	data.Summary = html
	s.render(w, http.StatusOK, data)
}

// renderMarkdown converts the blockquote markdown to HTML. Raw HTML in the
// model output is dropped by goldmark's default renderer.
func (s *Server) renderMarkdown(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil //nolint:gosec // goldmark output, unsafe HTML disabled
}

func (s *Server) render(w http.ResponseWriter, status int, data pageData) {
	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, data); err != nil {
		slog.Error("ui: template failed", slog.Any("error", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
