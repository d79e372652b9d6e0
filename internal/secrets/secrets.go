// Package secrets reads the deployment secret store, a flat YAML file kept
// apart from the environment configuration.
package secrets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// GeminiAPIKey is the secret holding the model API key.
const GeminiAPIKey = "gemini_api_key"

// Store is a read-only set of named secrets.
type Store struct {
	values map[string]string
}

// Load reads path. A missing file yields an empty store.
func Load(path string) (*Store, error) {
	s := &Store{values: map[string]string{}}
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read secrets file: %w", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse secrets yaml: %w", err)
	}
	for k, v := range raw {
		switch v := v.(type) {
		case nil:
		case map[string]any, []any:
			return nil, fmt.Errorf("secret %q: nested values are not supported", k)
		default:
			s.values[k] = strings.TrimSpace(fmt.Sprint(v))
		}
	}
	return s, nil
}

// Get returns the secret or "" when absent.
func (s *Store) Get(key string) string {
	if s == nil {
		return ""
	}
	return s.values[key]
}

