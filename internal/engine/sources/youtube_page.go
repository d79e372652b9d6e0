package sources

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/anatolykoptev/go_ytsum/internal/engine"
)

// ytInitialPlayerResponseMarker marks the start of the player response JSON in watch page HTML.
const ytInitialPlayerResponseMarker = "ytInitialPlayerResponse = "

// extractJSON returns the balanced JSON object at the start of b, or nil.
func extractJSON(b []byte) []byte {
	if len(b) == 0 || b[0] != '{' {
		return nil
	}
	depth := 0
	inStr := false
	escaped := false
	for i, c := range b {
		if inStr {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return b[:i+1]
			}
		}
	}
	return nil
}

// parsePlayerResponse pulls ytInitialPlayerResponse out of a watch page.
func parsePlayerResponse(page []byte) (*playerResponse, error) {
	idx := bytes.Index(page, []byte(ytInitialPlayerResponseMarker))
	if idx < 0 {
		if bytes.Contains(page, []byte(`class="g-recaptcha"`)) {
			return nil, ErrTooManyRequests
		}
		return nil, errors.New("ytInitialPlayerResponse not found in watch page")
	}
	data := extractJSON(page[idx+len(ytInitialPlayerResponseMarker):])
	if data == nil {
		return nil, errors.New("failed to extract ytInitialPlayerResponse JSON")
	}
	var pr playerResponse
	if err := json.Unmarshal(data, &pr); err != nil {
		return nil, fmt.Errorf("decode ytInitialPlayerResponse: %w", err)
	}
	return &pr, nil
}

// pageTitle reads the video title from the watch page head.
func pageTitle(page []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return ""
	}
	if title, ok := doc.Find("meta[property='og:title']").Attr("content"); ok && strings.TrimSpace(title) != "" {
		return strings.TrimSpace(title)
	}
	title := strings.TrimSpace(doc.Find("title").First().Text())
	return strings.TrimSpace(strings.TrimSuffix(title, "- YouTube"))
}

// consentValue returns the value of the consent form's "v" field,
// or "" when the page is not a consent interstitial.
func consentValue(page []byte) string {
	if !bytes.Contains(page, []byte("consent.youtube.com")) {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return ""
	}
	v, _ := doc.Find(`form[action^="https://consent.youtube.com/s"] input[name="v"]`).First().Attr("value")
	return v
}

// parseTimedText converts caption XML into ordered, cleaned segments.
// Cues that are empty after cleaning are dropped.
func parseTimedText(data []byte) ([]engine.Segment, error) {
	var tt timedText
	if err := xml.Unmarshal(data, &tt); err != nil {
		return nil, fmt.Errorf("parse timedtext XML: %w", err)
	}

	segs := make([]engine.Segment, 0, len(tt.Texts)+len(tt.Paras))
	for _, line := range tt.Texts {
		text := engine.CleanCaption(line.Text)
		if text == "" {
			continue
		}
		segs = append(segs, engine.Segment{
			Text:     text,
			Start:    parseFloat(line.Start),
			Duration: parseFloat(line.Dur),
		})
	}
	for _, p := range tt.Paras {
		raw := p.Text
		if len(p.Runs) > 0 {
			var sb strings.Builder
			for _, r := range p.Runs {
				sb.WriteString(r.Text)
			}
			raw = sb.String()
		}
		text := engine.CleanCaption(raw)
		if text == "" {
			continue
		}
		segs = append(segs, engine.Segment{
			Text:     text,
			Start:    parseFloat(p.T) / 1000,
			Duration: parseFloat(p.D) / 1000,
		})
	}
	return segs, nil
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}
