package engine

import "strings"

// URL markers recognised by ExtractVideoID, checked in this order.
const (
	watchMarker = "v="
	shortMarker = "youtu.be/"
)

// ExtractVideoID derives the video identifier from a watch-page or short-link URL.
//
// The marker check is a plain substring test, not URL parsing:
//   - "...v=<id>&..."       → <id>, cut at the first "&"
//   - "...youtu.be/<id>?..." → <id>, cut at the first "?"
//
// The text considered is the piece between the first and second occurrence of the marker.
// ok is false only when neither marker is present. A marker followed by nothing
// yields ("", true); callers decide what an empty identifier means.
func ExtractVideoID(rawURL string) (id string, ok bool) {
	switch {
	case strings.Contains(rawURL, watchMarker):
		return cutAfter(rawURL, watchMarker, "&"), true
	case strings.Contains(rawURL, shortMarker):
		return cutAfter(rawURL, shortMarker, "?"), true
	default:
		return "", false
	}
}

// cutAfter returns the text between the first and second marker, up to stop.
func cutAfter(s, marker, stop string) string {
	_, rest, _ := strings.Cut(s, marker)
	rest, _, _ = strings.Cut(rest, marker)
	rest, _, _ = strings.Cut(rest, stop)
	return rest
}
