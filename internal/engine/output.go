package engine

import (
	"strings"
	"unicode/utf8"
)

// bulletArtifact is "•" (U+2022) after its UTF-8 bytes were decoded as Windows-1252.
const bulletArtifact = "â€¢"

const quotePrefix = "> "

// JoinTranscript flattens segments into one string, one space between segments.
func JoinTranscript(segments []Segment) string {
	texts := make([]string, len(segments))
	for i, s := range segments {
		texts[i] = s.Text
	}
	return strings.Join(texts, " ")
}

// FormatSummary prepares model output for markdown display: every bullet artifact
// becomes " *" and every line, empty ones included, is quoted with "> ".
// Line endings are preserved; a trailing line break does not start a new quoted line.
func FormatSummary(text string) string {
	text = strings.ReplaceAll(text, bulletArtifact, " *")

	var sb strings.Builder
	sb.Grow(len(text) + len(text)/20 + len(quotePrefix))
	for len(text) > 0 {
		end := lineEnd(text)
		sb.WriteString(quotePrefix)
		sb.WriteString(text[:end])
		text = text[end:]
	}
	return sb.String()
}

// lineEnd returns the length of the first line of s including its terminator.
// Terminators are the line boundaries Python's str.splitlines knows: \n, \r\n, \r,
// \v, \f, \x1c-\x1e, U+0085, U+2028 and U+2029.
func lineEnd(s string) int {
	for i, r := range s {
		switch r {
		case '\n', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
			return i + utf8.RuneLen(r)
		case '\r':
			if i+1 < len(s) && s[i+1] == '\n' {
				return i + 2
			}
			return i + 1
		}
	}
	return len(s)
}
