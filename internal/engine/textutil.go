package engine

import (
	"html"
	"regexp"
	"strings"

	"github.com/anatolykoptev/go-kit/strutil"
)

// UserAgentBot identifies API calls; page fetches use stealth user agents.
const UserAgentBot = "GoYtsum/1.0"

var htmlTagRe = regexp.MustCompile(`<[^>]+>`)

// CleanHTML strips HTML tags and trims whitespace.
func CleanHTML(s string) string {
	return strings.TrimSpace(htmlTagRe.ReplaceAllString(s, ""))
}

// CleanCaption turns a caption cue into display text. Tags go first, then the
// entities YouTube leaves escaped after XML decoding ("&#39;", "&quot;").
func CleanCaption(s string) string {
	return html.UnescapeString(CleanHTML(s))
}

// TruncateRunes caps s at limit runes, appending suffix if truncated.
// Safe for UTF-8.
func TruncateRunes(s string, limit int, suffix string) string {
	return strutil.TruncateWith(s, limit, suffix)
}

// Preview shortens s for log lines.
func Preview(s string) string {
	return strutil.TruncateAtWord(s, 120)
}
