package ai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"askdocs/internal/rag"
)

var ErrSpeechService = errors.New("speech service error")

// Transcriber turns recorded speech into text.
type Transcriber interface {
	Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error)
}

// SpeechSynthesizer renders text as speech in the voice of a reference clip.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string, referenceVoice []byte, language string) ([]byte, error)
}

// XTTSClient calls an XTTS API server (POST /tts_to_audio).
type XTTSClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewXTTSClient(baseURL string, timeout time.Duration) (*XTTSClient, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("tts base url is not set: %w", rag.ErrConfiguration)
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &XTTSClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

func (c *XTTSClient) Synthesize(ctx context.Context, text string, referenceVoice []byte, language string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("speech text is empty: %w", rag.ErrInvalidInput)
	}
	if len(referenceVoice) == 0 {
		return nil, fmt.Errorf("reference voice is empty: %w", rag.ErrInvalidInput)
	}
	if language == "" {
		language = "en"
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if err := w.WriteField("text", text); err != nil {
		return nil, fmt.Errorf("write tts form failed: %w", err)
	}
	if err := w.WriteField("language", language); err != nil {
		return nil, fmt.Errorf("write tts form failed: %w", err)
	}
	part, err := w.CreateFormFile("speaker_wav", "reference.wav")
	if err != nil {
		return nil, fmt.Errorf("write tts form failed: %w", err)
	}
	if _, err := part.Write(referenceVoice); err != nil {
		return nil, fmt.Errorf("write tts form failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("write tts form failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tts_to_audio", &body)
	if err != nil {
		return nil, fmt.Errorf("build tts request failed: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, rag.ServiceError(ErrSpeechService, "tts request", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, rag.ServiceError(ErrSpeechService, "read tts response", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("tts response status %d: %s: %w", resp.StatusCode, string(raw), ErrSpeechService)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("tts returned no audio: %w", rag.ErrMalformedResponse)
	}
	return raw, nil
}
