package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"askdocs/internal/app"
	"askdocs/internal/captions"
	"askdocs/internal/notify"
	"askdocs/internal/rag"
	"askdocs/internal/transport/http/response"
	"askdocs/internal/tutor"
)

func TestWriteError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		name   string
		err    error
		status int
		code   int
	}{
		{"invalid input", fmt.Errorf("question is empty: %w", rag.ErrInvalidInput), http.StatusBadRequest, response.CodeBadRequest},
		{"timeout beats service kind", rag.ServiceError(rag.ErrLLMService, "generate", rag.ErrServiceTimeout), http.StatusGatewayTimeout, response.CodeTimeout},
		{"llm down", rag.ServiceError(rag.ErrLLMService, "generate", errors.New("502")), http.StatusBadGateway, response.CodeUpstream},
		{"embedding down", rag.ServiceError(rag.ErrEmbeddingService, "embed", errors.New("x")), http.StatusBadGateway, response.CodeUpstream},
		{"malformed", rag.ErrMalformedResponse, http.StatusUnprocessableEntity, response.CodeUnprocessable},
		{"empty index", rag.ErrEmptyIndex, http.StatusConflict, response.CodeEmptyIndex},
		{"session", app.ErrSessionNotFound, http.StatusNotFound, response.CodeSessionNotFound},
		{"no captions", captions.ErrNoCaptions, http.StatusNotFound, response.CodeNoCaptions},
		{"record exists", tutor.ErrRecordExists, http.StatusConflict, response.CodeConflict},
		{"notify", notify.ErrNotifyFailed, http.StatusBadGateway, response.CodeUpstream},
		{"configuration", rag.ErrConfiguration, http.StatusInternalServerError, response.CodeInternalServer},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, response.CodeInternalServer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			writeError(c, "op", tt.err)

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			var body response.APIResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body.Code != tt.code || body.Message == "" {
				t.Fatalf("body = %+v, want code %d", body, tt.code)
			}
		})
	}
}
