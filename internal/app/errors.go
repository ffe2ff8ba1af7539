package app

import (
	"errors"

	"askdocs/internal/ai"
	"askdocs/internal/captions"
	"askdocs/internal/notify"
	"askdocs/internal/rag"
	"askdocs/internal/tutor"
)

var (
	ErrSessionNotFound  = errors.New("session not found or expired")
	ErrWrongSessionKind = errors.New("session does not support this operation")
	ErrNoReferenceVoice = errors.New("session has no reference voice")
)

// UserMessage turns a service failure into a short message fit for end users.
// Timeouts are checked first because they also match their service kind.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, rag.ErrServiceTimeout):
		return "The service took too long to respond. Please try again."
	case errors.Is(err, rag.ErrInvalidInput):
		return "The request is missing required input: " + err.Error()
	case errors.Is(err, ErrSessionNotFound):
		return "This session has expired. Please upload the document again."
	case errors.Is(err, ErrWrongSessionKind):
		return "This session cannot be used for that operation."
	case errors.Is(err, ErrNoReferenceVoice):
		return "Speech is only available for sessions created from an audio upload."
	case errors.Is(err, rag.ErrEmptyIndex):
		return "Nothing has been indexed yet. Please upload a document first."
	case errors.Is(err, rag.ErrEmbeddingService):
		return "The embedding service is unavailable. Please try again later."
	case errors.Is(err, rag.ErrLLMService):
		return "The language model is unavailable. Please try again later."
	case errors.Is(err, ai.ErrSpeechService):
		return "The speech service is unavailable. Please try again later."
	case errors.Is(err, captions.ErrNoCaptions):
		return "No captions are available for this video."
	case errors.Is(err, captions.ErrCaptionService):
		return "Captions could not be fetched. Please try again later."
	case errors.Is(err, rag.ErrMalformedResponse):
		return "The model returned an answer that could not be understood."
	case errors.Is(err, notify.ErrNotifyFailed):
		return "The notification could not be delivered."
	case errors.Is(err, tutor.ErrRecordExists):
		return "A record for this session already exists."
	case errors.Is(err, rag.ErrConfiguration):
		return "The server is not configured for this operation."
	default:
		return "Internal error."
	}
}
