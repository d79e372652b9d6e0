// Package toolutil provides shared helper functions for the MCP tools.
package toolutil

import (
	"errors"
	"strings"

	"github.com/anatolykoptev/go_ytsum/internal/engine"
)

// NormURL trims the URL field and rejects an empty one.
func NormURL(raw string) (string, error) {
	u := strings.TrimSpace(raw)
	if u == "" {
		return "", errors.New("url is required")
	}
	return u, nil
}

// ToolError converts a pipeline error into the message a tool caller sees,
// the same text the web UI shows.
func ToolError(err error) error {
	if err == nil {
		return nil
	}
	return errors.New(engine.ErrorMessage(err))
}

// TruncateText caps long tool text output, marking the cut. limit <= 0 disables it.
func TruncateText(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	return engine.TruncateRunes(s, limit, "\n[truncated]")
}
