package captions

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"github.com/kkdai/youtube/v2"

	"askdocs/internal/rag"
)

var (
	ErrCaptionService = errors.New("caption service error")
	ErrNoCaptions     = errors.New("no captions available")
)

// videoAPI is the part of youtube.Client the caption source uses.
type videoAPI interface {
	GetVideoContext(ctx context.Context, url string) (*youtube.Video, error)
	GetTranscriptCtx(ctx context.Context, video *youtube.Video, lang string) (youtube.VideoTranscript, error)
}

// YouTubeClient reads caption tracks through the YouTube player API.
type YouTubeClient struct {
	api videoAPI
}

func NewYouTubeClient(timeout time.Duration) *YouTubeClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &YouTubeClient{api: &youtube.Client{HTTPClient: &http.Client{Timeout: timeout}}}
}

func (c *YouTubeClient) video(ctx context.Context, videoURL string) (*youtube.Video, error) {
	id, err := ExtractVideoID(videoURL)
	if err != nil {
		return nil, err
	}
	v, err := c.api.GetVideoContext(ctx, id)
	if err != nil {
		return nil, rag.ServiceError(ErrCaptionService, "load video "+id, err)
	}
	return v, nil
}

// ListLanguages returns one entry per caption language in track order.
func (c *YouTubeClient) ListLanguages(ctx context.Context, videoURL string) ([]Language, error) {
	v, err := c.video(ctx, videoURL)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(v.CaptionTracks))
	langs := make([]Language, 0, len(v.CaptionTracks))
	for _, t := range v.CaptionTracks {
		if t.LanguageCode == "" || seen[t.LanguageCode] {
			continue
		}
		seen[t.LanguageCode] = true
		name := strings.TrimSpace(t.Name.SimpleText)
		if name == "" {
			name = t.LanguageCode
		}
		langs = append(langs, Language{Code: t.LanguageCode, Name: name})
	}
	if len(langs) == 0 {
		return nil, ErrNoCaptions
	}
	return langs, nil
}

// Fetch returns the caption snippets of one track joined with spaces.
func (c *YouTubeClient) Fetch(ctx context.Context, videoURL, languageCode string) (string, error) {
	if strings.TrimSpace(languageCode) == "" {
		return "", fmt.Errorf("language code is empty: %w", rag.ErrInvalidInput)
	}
	v, err := c.video(ctx, videoURL)
	if err != nil {
		return "", err
	}
	if !hasTrack(v, languageCode) {
		return "", fmt.Errorf("language %q: %w", languageCode, ErrNoCaptions)
	}
	transcript, err := c.api.GetTranscriptCtx(ctx, v, languageCode)
	if errors.Is(err, youtube.ErrTranscriptDisabled) {
		return "", fmt.Errorf("language %q: %w: %w", languageCode, ErrNoCaptions, err)
	}
	if err != nil {
		return "", rag.ServiceError(ErrCaptionService, "load transcript "+v.ID, err)
	}
	parts := make([]string, 0, len(transcript))
	for _, seg := range transcript {
		t := strings.TrimSpace(strings.ReplaceAll(html.UnescapeString(seg.Text), "\n", " "))
		if t != "" {
			parts = append(parts, t)
		}
	}
	if len(parts) == 0 {
		return "", ErrNoCaptions
	}
	return strings.Join(parts, " "), nil
}

func hasTrack(v *youtube.Video, code string) bool {
	for _, t := range v.CaptionTracks {
		if t.LanguageCode == code {
			return true
		}
	}
	return false
}
