// go_ytsum is a YouTube transcript summarizer.
//
// Serves a one-page web UI (paste a video URL, get a blockquote summary) and
// the same pipeline as two MCP tools: youtube_summarize, youtube_transcript.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go-mcpserver"
	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_ytsum/internal/engine"
	"github.com/anatolykoptev/go_ytsum/internal/engine/sources"
	"github.com/anatolykoptev/go_ytsum/internal/secrets"
	"github.com/anatolykoptev/go_ytsum/internal/webui"
	"github.com/anatolykoptev/go_ytsum/internal/ytserver"
)

var version = "dev"

func main() {
	// .env is optional; real environment variables win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env", slog.Any("error", err))
	}
	slog.SetDefault(newLogger(env.Str("LOG_LEVEL", "info")))

	pipeline, err := initEngine()
	if err != nil {
		slog.Error("engine init failed", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	uiPort := env.Str("UI_PORT", "8501")
	ui := webui.New(pipeline, webui.Options{
		RateLimit: env.Float("UI_RATE_LIMIT", 0),
		Burst:     env.Int("UI_RATE_BURST", 3),
	})
	uiServer := &http.Server{
		Addr:              ":" + uiPort,
		Handler:           ui.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      env.Duration("REQUEST_TIMEOUT", 120*time.Second) + 10*time.Second,
	}
	slog.Info("web ui listening", slog.String("port", uiPort))

	var mcpRun func() error
	if mcpPort := env.Str("MCP_PORT", "8892"); mcpPort != "" && mcpPort != "off" {
		mcpRun = func() error { return runMCP(pipeline, mcpPort) }
	}

	if err := serve(ctx, uiServer, mcpRun); err != nil {
		slog.Error("server failed", slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("stopped")
}

// serve runs the web UI and, when mcpRun is set, the MCP server until ctx is done
// or either of them fails. A failure of one stops the process; the web UI is
// always shut down before returning.
func serve(ctx context.Context, ui *http.Server, mcpRun func() error) error {
	errc := make(chan error, 2)
	go func() {
		if err := ui.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- fmt.Errorf("web ui: %w", err)
		}
	}()
	if mcpRun != nil {
		go func() {
			if err := mcpRun(); err != nil {
				errc <- fmt.Errorf("mcp: %w", err)
				return
			}
			errc <- nil
		}()
	}

	var err error
	select {
	case <-ctx.Done():
	case err = <-errc:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if serr := ui.Shutdown(shutdownCtx); serr != nil {
		slog.Warn("web ui shutdown", slog.Any("error", serr))
	}
	return err
}

func runMCP(p *engine.Pipeline, port string) error {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "go_ytsum",
		Version: version,
	}, nil)

	ytserver.RegisterTools(server, p, env.Int("MCP_TRANSCRIPT_MAX_CHARS", 100000))
	slog.Info("tools registered", slog.Int("count", 2), slog.String("port", port))

	return mcpserver.Run(server, mcpserver.Config{
		Name:         "go_ytsum",
		Version:      version,
		Port:         port,
		WriteTimeout: 600 * time.Second,
		Metrics:      engine.FormatMetrics,
	})
}

func initEngine() (*engine.Pipeline, error) {
	store, err := secrets.Load(env.Str("SECRETS_FILE", ".secrets.yaml"))
	if err != nil {
		return nil, err
	}

	c := engine.Config{
		APIKey:             env.Str("API_KEY", ""),
		GeminiAPIKey:       store.Get(secrets.GeminiAPIKey),
		LLMProvider:        env.Str("LLM_PROVIDER", engine.ProviderGemini),
		LLMAPIBase:         env.Str("LLM_API_BASE", ""),
		LLMModel:           env.Str("LLM_MODEL", engine.DefaultModel),
		LLMAPIKeyFallbacks: env.List("LLM_API_KEY_FALLBACKS", ""),
		TranscriptLangs:    env.List("TRANSCRIPT_LANGS", "en"),
		TranscriptAnyLang:  env.Int("TRANSCRIPT_ANY_LANG", 0) != 0,
		RequestTimeout:     env.Duration("REQUEST_TIMEOUT", 120*time.Second),
		HTTPClient: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     60 * time.Second,
			},
		},
	}
	keySource := "env"
	if c.GeminiAPIKey != "" {
		keySource = "secrets"
	}

	gen, err := engine.NewGenerator(c)
	if err != nil {
		return nil, err
	}
	slog.Info("generator ready",
		slog.String("provider", c.LLMProvider),
		slog.String("model", c.LLMModel),
		slog.String("key_source", keySource))

	if env.Int("MODEL_PREFLIGHT", 0) != 0 {
		preflight(gen)
	}

	yt := sources.NewYouTube(c.HTTPClient, c.TranscriptLangs, sources.WithAnyLanguage(c.TranscriptAnyLang))
	return engine.NewPipeline(c, yt, gen), nil
}

// preflight pings the model once at startup. Failure is logged, not fatal.
func preflight(gen engine.Generator) {
	p, ok := gen.(interface{ Ping(context.Context) error })
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_, err := engine.Retry(ctx, "model preflight", engine.PreflightRetry, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, p.Ping(ctx)
	})
	if err != nil {
		slog.Warn("model preflight failed", slog.Any("error", err))
		return
	}
	slog.Info("model preflight ok")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
