package sources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/anatolykoptev/go_ytsum/internal/engine"
)

// YouTube transcript fetching.
// Primary:  watch page ytInitialPlayerResponse → caption XML
// Fallback: ANDROID Innertube /player → captionTracks → caption XML
// Each request is attempted once.

var (
	ErrTranscriptsDisabled = errors.New("transcripts are disabled for this video")
	ErrVideoUnavailable    = errors.New("video unavailable")
	ErrTooManyRequests     = errors.New("YouTube is blocking requests from this IP (captcha)")
	ErrPoTokenRequired     = errors.New("all caption tracks require a PoToken")
	ErrEmptyTranscript     = errors.New("transcript is empty")
	ErrNoTranscriptFound   = errors.New("no transcript found for the requested languages")
)

// YouTube implements engine.TranscriptProvider.
type YouTube struct {
	client    *http.Client
	langs     []string
	watchURL  string // video ID is appended
	playerURL string
	anyLang   bool
}

// Option configures a YouTube provider.
type Option func(*YouTube)

// WithAnyLanguage lets the provider fall back to an English track, then to any
// usable track, when no track matches the preferred languages.
func WithAnyLanguage(enabled bool) Option {
	return func(y *YouTube) {
		y.anyLang = enabled
	}
}

// NewYouTube returns a provider preferring the given caption languages in order.
func NewYouTube(client *http.Client, langs []string, opts ...Option) *YouTube {
	if len(langs) == 0 {
		langs = []string{"en"}
	}
	y := &YouTube{client: client, langs: langs, watchURL: ytWatchURL, playerURL: ytPlayerURL}
	for _, opt := range opts {
		opt(y)
	}
	return y
}

// FetchTranscript returns the best available caption track for videoID.
func (y *YouTube) FetchTranscript(ctx context.Context, videoID string) (*engine.Transcript, error) {
	engine.IncrTranscriptRequests()

	tr, err := y.viaWatchPage(ctx, videoID)
	if err == nil {
		return tr, nil
	}
	// Nothing to gain from the player when YouTube itself says no.
	if errors.Is(err, ErrVideoUnavailable) || errors.Is(err, ErrNoTranscriptFound) || ctx.Err() != nil {
		return nil, err
	}
	slog.Warn("youtube: watch page failed, trying player",
		slog.String("id", videoID), slog.Any("error", err))

	fallback, perr := y.viaPlayer(ctx, videoID)
	if perr != nil {
		return nil, perr
	}
	if fallback.Title == "" && tr != nil {
		fallback.Title = tr.Title
	}
	return fallback, nil
}

// viaWatchPage may return a partial transcript (title only) alongside an error.
func (y *YouTube) viaWatchPage(ctx context.Context, videoID string) (*engine.Transcript, error) {
	page, err := y.fetchWatchPage(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("watch page: %w", err)
	}
	partial := &engine.Transcript{VideoID: videoID, Title: pageTitle(page)}

	pr, err := parsePlayerResponse(page)
	if err != nil {
		return partial, err
	}
	if partial.Title == "" {
		partial.Title = pr.title()
	}
	tracks, err := pr.tracks()
	if err != nil {
		return partial, err
	}
	return y.fromTracks(ctx, partial, tracks)
}

func (y *YouTube) viaPlayer(ctx context.Context, videoID string) (*engine.Transcript, error) {
	pr, err := y.postPlayer(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("android innertube: %w", err)
	}
	tracks, err := pr.tracks()
	if err != nil {
		return nil, err
	}
	return y.fromTracks(ctx, &engine.Transcript{VideoID: videoID, Title: pr.title()}, tracks)
}

func (y *YouTube) fromTracks(ctx context.Context, tr *engine.Transcript, tracks []captionTrack) (*engine.Transcript, error) {
	track, err := pickBestTrack(tracks, y.langs, y.anyLang)
	if err != nil {
		return tr, err
	}
	segs, err := y.fetchTimedText(ctx, track.BaseURL)
	if err != nil {
		return tr, err
	}
	if len(segs) == 0 {
		return tr, ErrEmptyTranscript
	}
	tr.LanguageCode = track.LanguageCode
	tr.Segments = segs
	slog.Debug("youtube: transcript fetched",
		slog.String("id", tr.VideoID),
		slog.String("lang", track.LanguageCode),
		slog.Int("segments", len(segs)))
	return tr, nil
}

// fetchWatchPage GETs the watch page, passing the EU consent interstitial when shown.
func (y *YouTube) fetchWatchPage(ctx context.Context, videoID string) ([]byte, error) {
	u := y.watchURL + videoID
	page, err := y.get(ctx, u, "", 6*1024*1024)
	if err != nil {
		return nil, err
	}
	if v := consentValue(page); v != "" {
		slog.Debug("youtube: consent page, retrying with cookie", slog.String("id", videoID))
		return y.get(ctx, u, "CONSENT=YES+"+v, 6*1024*1024)
	}
	return page, nil
}

// fetchTimedText fetches and parses a caption track URL.
func (y *YouTube) fetchTimedText(ctx context.Context, baseURL string) ([]engine.Segment, error) {
	body, err := y.get(ctx, baseURL, "", 2*1024*1024)
	if err != nil {
		return nil, fmt.Errorf("fetch timedtext: %w", err)
	}
	return parseTimedText(body)
}

func (y *YouTube) get(ctx context.Context, u, cookie string, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range engine.ChromeHeaders() {
		// net/http only decompresses transparently when it set the header itself.
		if strings.EqualFold(k, "Accept-Encoding") {
			continue
		}
		req.Header.Set(k, v)
	}
	req.Header.Set("User-Agent", engine.RandomUserAgent())
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}

	resp, err := y.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrTooManyRequests
	}
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, &engine.StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}
	return io.ReadAll(io.LimitReader(resp.Body, limit))
}

// needsPoToken reports whether a caption track URL requires a PoToken (browser-only).
// Tracks with &exp=xpe cannot be fetched server-side.
func needsPoToken(baseURL string) bool {
	return strings.Contains(baseURL, "&exp=xpe")
}

// pickBestTrack selects the best usable caption track for the given language preferences.
// Order: manual track in a preferred language, then auto-generated track in a preferred
// language. With anyLang set, any English track and then the first usable track follow.
func pickBestTrack(tracks []captionTrack, langs []string, anyLang bool) (captionTrack, error) {
	usable := make([]captionTrack, 0, len(tracks))
	for _, t := range tracks {
		if !needsPoToken(t.BaseURL) {
			usable = append(usable, t)
		}
	}
	if len(usable) == 0 {
		return captionTrack{}, ErrPoTokenRequired
	}
	for _, lang := range langs {
		for _, t := range usable {
			if t.LanguageCode == lang && t.Kind != "asr" {
				return t, nil
			}
		}
	}
	for _, lang := range langs {
		for _, t := range usable {
			if t.LanguageCode == lang {
				return t, nil
			}
		}
	}
	if !anyLang {
		return captionTrack{}, fmt.Errorf("%w (wanted %s)", ErrNoTranscriptFound, strings.Join(langs, ", "))
	}
	for _, t := range usable {
		if strings.HasPrefix(t.LanguageCode, "en") {
			return t, nil
		}
	}
	return usable[0], nil
}
