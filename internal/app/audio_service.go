package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"askdocs/internal/ai"
	"askdocs/internal/model"
	"askdocs/internal/rag"
)

// AudioService turns a recording into a question-answering session whose
// replies can be spoken back in the recorded voice.
type AudioService struct {
	transcriber ai.Transcriber
	speech      ai.SpeechSynthesizer
	documents   *DocumentService
	sessions    *SessionStore
	chunking    rag.ChunkerConfig
}

func NewAudioService(
	transcriber ai.Transcriber,
	speech ai.SpeechSynthesizer,
	documents *DocumentService,
	sessions *SessionStore,
	chunking rag.ChunkerConfig,
) *AudioService {
	return &AudioService{
		transcriber: transcriber,
		speech:      speech,
		documents:   documents,
		sessions:    sessions,
		chunking:    chunking,
	}
}

type AudioIngestResult struct {
	IngestResult
	Transcript string `json:"transcript"`
}

// Ingest transcribes audio and indexes the transcript. The recording is kept
// as the reference voice for Speak.
func (s *AudioService) Ingest(ctx context.Context, filename string, audio io.Reader) (*AudioIngestResult, error) {
	if s.transcriber == nil {
		return nil, fmt.Errorf("no transcription service: %w", rag.ErrConfiguration)
	}
	raw, err := io.ReadAll(audio)
	if err != nil {
		return nil, fmt.Errorf("read audio failed: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("audio file is empty: %w", rag.ErrInvalidInput)
	}

	transcript, err := s.transcriber.Transcribe(ctx, filename, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	res, err := s.documents.Ingest(ctx, IngestInput{
		Name:     filename,
		Source:   model.SourceAudio,
		Text:     transcript,
		Chunking: s.chunking,
		Voice:    raw,
	})
	if err != nil {
		return nil, err
	}
	return &AudioIngestResult{IngestResult: *res, Transcript: transcript}, nil
}

// Speak renders text in the session's reference voice.
func (s *AudioService) Speak(ctx context.Context, sessionID, text, language string) ([]byte, error) {
	if s.speech == nil {
		return nil, fmt.Errorf("no speech service: %w", rag.ErrConfiguration)
	}
	text = strings.TrimSpace(rag.StripReasoning(text))
	if text == "" {
		return nil, fmt.Errorf("text is empty: %w", rag.ErrInvalidInput)
	}
	if language == "" {
		language = "en"
	}
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if len(sess.Voice) == 0 {
		return nil, ErrNoReferenceVoice
	}
	return s.speech.Synthesize(ctx, text, sess.Voice, language)
}
