package engine

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newGeminiTestServer(t *testing.T, status int, body string, inspect func(r *http.Request, payload []byte)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload, _ := io.ReadAll(r.Body)
		if inspect != nil {
			inspect(r, payload)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGeminiGenerateRequest(t *testing.T) {
	var gotPath, gotKey string
	var gotReq geminiRequest
	srv := newGeminiTestServer(t, http.StatusOK,
		`{"candidates":[{"content":{"role":"model","parts":[{"text":"Main "},{"text":"points"}]},"finishReason":"STOP"}]}`,
		func(r *http.Request, payload []byte) {
			gotPath = r.URL.Path
			gotKey = r.Header.Get("x-goog-api-key")
			if err := json.Unmarshal(payload, &gotReq); err != nil {
				t.Errorf("bad request body: %v", err)
			}
		})

	g := NewGeminiGenerator(srv.URL+"/", "k-123", "gemini-1.5-flash", srv.Client())
	text, err := g.Generate(context.Background(), "summarize this")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "Main points" {
		t.Errorf("text = %q, want %q", text, "Main points")
	}
	if gotPath != "/models/gemini-1.5-flash:generateContent" {
		t.Errorf("path = %q", gotPath)
	}
	if gotKey != "k-123" {
		t.Errorf("api key header = %q", gotKey)
	}
	if len(gotReq.Contents) != 1 || gotReq.Contents[0].Role != "user" ||
		len(gotReq.Contents[0].Parts) != 1 || gotReq.Contents[0].Parts[0].Text != "summarize this" {
		t.Errorf("contents = %+v", gotReq.Contents)
	}
	if gotReq.GenerationConfig != SummaryGeneration {
		t.Errorf("generationConfig = %+v, want %+v", gotReq.GenerationConfig, SummaryGeneration)
	}
}

func TestGeminiGenerationConfigWireNames(t *testing.T) {
	data, err := json.Marshal(SummaryGeneration)
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	for _, want := range []string{`"temperature":1`, `"topP":0.95`, `"topK":40`, `"maxOutputTokens":8192`, `"responseMimeType":"text/plain"`} {
		if !strings.Contains(s, want) {
			t.Errorf("generationConfig %s missing %s", s, want)
		}
	}
}

func TestGeminiGenerateErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantSub  string
		wantCode int
	}{
		{"blocked prompt", 200, `{"promptFeedback":{"blockReason":"SAFETY"}}`, "prompt blocked: SAFETY", 0},
		{"no candidates", 200, `{}`, "empty response", 0},
		{"empty parts", 200, `{"candidates":[{"content":{"parts":[]},"finishReason":"MAX_TOKENS"}]}`, "MAX_TOKENS", 0},
		{"api error", 400, `{"error":{"code":400,"message":"API key not valid.","status":"INVALID_ARGUMENT"}}`, "API key not valid.", 400},
		{"plain error body", 503, `overloaded`, "overloaded", 503},
		{"malformed json", 200, `{not json`, "decode response", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newGeminiTestServer(t, tt.status, tt.body, nil)
			g := NewGeminiGenerator(srv.URL, "k", "m", srv.Client())

			_, err := g.Generate(context.Background(), "p")
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q does not contain %q", err, tt.wantSub)
			}
			if tt.wantCode != 0 {
				var se *StatusError
				if !errors.As(err, &se) || se.StatusCode != tt.wantCode {
					t.Errorf("expected StatusError %d, got %v", tt.wantCode, err)
				}
			}
		})
	}
}

func TestGeminiGenerateCountsCalls(t *testing.T) {
	srv := newGeminiTestServer(t, 500, `boom`, nil)
	g := NewGeminiGenerator(srv.URL, "k", "m", srv.Client())

	calls, errs := metrics.LLMCalls.Load(), metrics.LLMErrors.Load()
	_, _ = g.Generate(context.Background(), "p")
	if got := metrics.LLMCalls.Load() - calls; got != 1 {
		t.Errorf("llm_calls delta = %d, want 1", got)
	}
	if got := metrics.LLMErrors.Load() - errs; got != 1 {
		t.Errorf("llm_errors delta = %d, want 1", got)
	}
}

func TestGeminiPing(t *testing.T) {
	srv := newGeminiTestServer(t, 200, `{"name":"models/m"}`, func(r *http.Request, _ []byte) {
		if r.Method != http.MethodGet || r.URL.Path != "/models/m" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
	})
	if err := NewGeminiGenerator(srv.URL, "k", "m", srv.Client()).Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}

	bad := newGeminiTestServer(t, 404, `{"error":{"message":"model not found"}}`, nil)
	err := NewGeminiGenerator(bad.URL, "k", "m", bad.Client()).Ping(context.Background())
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != 404 {
		t.Errorf("expected 404 StatusError, got %v", err)
	}
}

func TestNewGenerator(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
		gemini  bool
	}{
		{"no key", Config{}, true, false},
		{"env key defaults to gemini", Config{APIKey: "a"}, false, true},
		{"secret key", Config{GeminiAPIKey: "s", LLMProvider: "Gemini"}, false, true},
		{"openai without base", Config{APIKey: "a", LLMProvider: "openai"}, true, false},
		{"openai", Config{APIKey: "a", LLMProvider: "openai", LLMAPIBase: "http://localhost:1/v1"}, false, false},
		{"unknown provider", Config{APIKey: "a", LLMProvider: "claude"}, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewGenerator(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			_, isGemini := g.(*GeminiGenerator)
			if isGemini != tt.gemini {
				t.Errorf("got %T", g)
			}
		})
	}
}

func TestNewGeneratorPrefersSecretKey(t *testing.T) {
	g, err := NewGenerator(Config{APIKey: "env", GeminiAPIKey: "secret", LLMModel: "x"})
	if err != nil {
		t.Fatal(err)
	}
	gg := g.(*GeminiGenerator)
	if gg.apiKey != "secret" || gg.model != "x" || gg.baseURL != GeminiBaseURL {
		t.Errorf("got key=%q model=%q base=%q", gg.apiKey, gg.model, gg.baseURL)
	}
}

func TestCompletionGenerator(t *testing.T) {
	g := &CompletionGenerator{complete: func(_ context.Context, prompt string) (string, error) {
		if prompt == "empty" {
			return "", nil
		}
		if prompt == "fail" {
			return "", errors.New("upstream")
		}
		return "ok:" + prompt, nil
	}}
	if got, err := g.Generate(context.Background(), "x"); err != nil || got != "ok:x" {
		t.Errorf("got %q, %v", got, err)
	}
	if _, err := g.Generate(context.Background(), "empty"); err == nil {
		t.Error("expected error on empty completion")
	}
	if _, err := g.Generate(context.Background(), "fail"); err == nil || !strings.Contains(err.Error(), "upstream") {
		t.Errorf("expected wrapped upstream error, got %v", err)
	}
}
