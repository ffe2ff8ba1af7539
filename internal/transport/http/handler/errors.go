package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"askdocs/internal/ai"
	"askdocs/internal/app"
	"askdocs/internal/captions"
	"askdocs/internal/notify"
	"askdocs/internal/pkg/pdfextract"
	"askdocs/internal/rag"
	"askdocs/internal/transport/http/middleware"
	"askdocs/internal/transport/http/response"
	"askdocs/internal/tutor"
)

// writeError maps a service failure onto the response envelope.
func writeError(c *gin.Context, op string, err error) {
	msg := app.UserMessage(err)
	switch {
	case errors.Is(err, rag.ErrServiceTimeout):
		response.Error(c, http.StatusGatewayTimeout, response.CodeTimeout, msg)
	case errors.Is(err, rag.ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, msg)
	case errors.Is(err, pdfextract.ErrNoText):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "The PDF contains no extractable text.")
	case errors.Is(err, app.ErrSessionNotFound):
		response.Error(c, http.StatusNotFound, response.CodeSessionNotFound, msg)
	case errors.Is(err, captions.ErrNoCaptions):
		response.Error(c, http.StatusNotFound, response.CodeNoCaptions, msg)
	case errors.Is(err, app.ErrWrongSessionKind), errors.Is(err, app.ErrNoReferenceVoice), errors.Is(err, tutor.ErrRecordExists):
		response.Error(c, http.StatusConflict, response.CodeConflict, msg)
	case errors.Is(err, rag.ErrEmptyIndex):
		response.Error(c, http.StatusConflict, response.CodeEmptyIndex, msg)
	case errors.Is(err, rag.ErrMalformedResponse):
		response.Error(c, http.StatusUnprocessableEntity, response.CodeUnprocessable, msg)
	case errors.Is(err, rag.ErrEmbeddingService), errors.Is(err, rag.ErrLLMService), errors.Is(err, ai.ErrSpeechService),
		errors.Is(err, captions.ErrCaptionService), errors.Is(err, notify.ErrNotifyFailed):
		response.Error(c, http.StatusBadGateway, response.CodeUpstream, msg)
	case errors.Is(err, rag.ErrConfiguration):
		log.Printf("%s failed: %v", op, err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, msg)
	default:
		log.Printf("%s failed: %v", op, err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, op+" failed")
	}
}

func getSessionIDFromContext(c *gin.Context) (string, bool) {
	idAny, exists := c.Get(middleware.ContextSessionIDKey)
	if !exists {
		return "", false
	}
	id, ok := idAny.(string)
	return id, ok && id != ""
}
