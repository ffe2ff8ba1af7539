package captions

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"askdocs/internal/rag"
)

// MaxTranscriptChars bounds the transcript handed to the tutor prompts.
const MaxTranscriptChars = 24000

// Language is one caption track offered for a video.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Source lists and fetches caption tracks for a video URL.
type Source interface {
	ListLanguages(ctx context.Context, videoURL string) ([]Language, error)
	Fetch(ctx context.Context, videoURL, languageCode string) (string, error)
}

// ExtractVideoID accepts youtu.be/<id> and youtube.com/watch?v=<id> links.
func ExtractVideoID(videoURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(videoURL))
	if err != nil {
		return "", fmt.Errorf("parse video url: %w: %w", rag.ErrInvalidInput, err)
	}
	var id string
	switch u.Hostname() {
	case "youtu.be", "www.youtu.be":
		id = strings.Trim(u.Path, "/")
	case "youtube.com", "www.youtube.com", "m.youtube.com":
		id = u.Query().Get("v")
	default:
		return "", fmt.Errorf("not a youtube url %q: %w", videoURL, rag.ErrInvalidInput)
	}
	if id == "" || strings.Contains(id, "/") {
		return "", fmt.Errorf("no video id in %q: %w", videoURL, rag.ErrInvalidInput)
	}
	return id, nil
}

var sentenceMarkers = []string{". ", "。", "? ", "! "}

// Trim shortens text to at most maxChars runes, preferring to end on a
// sentence marker found in the last 30% of the window. It returns the
// trimmed text with its word count and the original word count.
func Trim(text string, maxChars int) (trimmed string, words, originalWords int) {
	if maxChars <= 0 {
		maxChars = MaxTranscriptChars
	}
	originalWords = len(strings.Fields(text))
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text, originalWords, originalWords
	}

	chunk := runes[:maxChars]
	threshold := int(float64(maxChars) * 0.7)
	for _, marker := range sentenceMarkers {
		idx := lastIndexRunes(chunk, []rune(marker))
		if idx > threshold {
			chunk = chunk[:idx+1]
			break
		}
	}
	trimmed = string(chunk)
	return trimmed, len(strings.Fields(trimmed)), originalWords
}

func lastIndexRunes(s, sub []rune) int {
	for i := len(s) - len(sub); i >= 0; i-- {
		match := true
		for j := range sub {
			if s[i+j] != sub[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
