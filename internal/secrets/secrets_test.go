package secrets

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSecrets(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "secrets.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeSecrets(t, `
gemini_api_key: " AIza-test "
retries: 3
empty:
`)
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := s.Get(GeminiAPIKey); got != "AIza-test" {
		t.Errorf("Get(%q) = %q, want %q", GeminiAPIKey, got, "AIza-test")
	}
	if got := s.Get("retries"); got != "3" {
		t.Errorf("Get(retries) = %q, want %q", got, "3")
	}
	if got := s.Get("empty"); got != "" {
		t.Errorf("Get(empty) = %q, want empty", got)
	}
	if got := s.Get("missing"); got != "" {
		t.Errorf("Get(missing) = %q, want empty", got)
	}
	if len(s.values) != 2 {
		t.Errorf("loaded %d secrets, want 2", len(s.values))
	}
}

func TestLoadMissingFile(t *testing.T) {
	for _, path := range []string{"", filepath.Join(t.TempDir(), "nope.yaml")} {
		s, err := Load(path)
		if err != nil {
			t.Fatalf("Load(%q) failed: %v", path, err)
		}
		if len(s.values) != 0 || s.Get(GeminiAPIKey) != "" {
			t.Errorf("Load(%q) should give an empty store", path)
		}
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "gemini_api_key: [unclosed"},
		{"nested", "gemini:\n  api_key: x\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeSecrets(t, tt.content)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestNilStore(t *testing.T) {
	var s *Store
	if s.Get("x") != "" {
		t.Error("nil store should be empty")
	}
}
