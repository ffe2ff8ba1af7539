package handler

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"askdocs/internal/app"
	"askdocs/internal/model"
	"askdocs/internal/pkg/pdfextract"
	"askdocs/internal/transport/http/response"
)

type DocumentHandler struct {
	documents *app.DocumentService
	audio     *app.AudioService
	maxUpload int64
}

type CreateDocumentRequest struct {
	Name    string `json:"name" binding:"max=256"`
	Content string `json:"content" binding:"required"`
}

type AskRequest struct {
	Question string `json:"question" binding:"required"`
	TopK     int    `json:"top_k" binding:"gte=0,lte=50"`
}

type SpeakRequest struct {
	Text     string `json:"text" binding:"required"`
	Language string `json:"language"`
}

func NewDocumentHandler(documents *app.DocumentService, audio *app.AudioService, maxUpload int64) *DocumentHandler {
	return &DocumentHandler{documents: documents, audio: audio, maxUpload: maxUpload}
}

func (h *DocumentHandler) CreateDocument(c *gin.Context) {
	var req CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	res, err := h.documents.Ingest(c.Request.Context(), app.IngestInput{
		Name:   req.Name,
		Source: model.SourceText,
		Text:   req.Content,
	})
	if err != nil {
		writeError(c, "ingest document", err)
		return
	}
	response.OK(c, res)
}

func (h *DocumentHandler) UploadPDF(c *gin.Context) {
	name, text, ok := readPDFUpload(c, h.maxUpload)
	if !ok {
		return
	}
	res, err := h.documents.Ingest(c.Request.Context(), app.IngestInput{
		Name:   name,
		Source: model.SourcePDF,
		Text:   text,
	})
	if err != nil {
		writeError(c, "ingest pdf", err)
		return
	}
	response.OK(c, res)
}

func (h *DocumentHandler) UploadAudio(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing file")
		return
	}
	if h.maxUpload > 0 && file.Size > h.maxUpload {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "file too large")
		return
	}
	f, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "cannot read file")
		return
	}
	defer f.Close()

	res, err := h.audio.Ingest(c.Request.Context(), filepath.Base(file.Filename), f)
	if err != nil {
		writeError(c, "ingest audio", err)
		return
	}
	response.OK(c, res)
}

func (h *DocumentHandler) Ask(c *gin.Context) {
	sessionID, ok := getSessionIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	answer, err := h.documents.Ask(c.Request.Context(), sessionID, req.Question, req.TopK)
	if err != nil {
		writeError(c, "ask", err)
		return
	}
	response.OK(c, answer)
}

func (h *DocumentHandler) Speak(c *gin.Context) {
	sessionID, ok := getSessionIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	var req SpeakRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	audio, err := h.audio.Speak(c.Request.Context(), sessionID, req.Text, req.Language)
	if err != nil {
		writeError(c, "speak", err)
		return
	}
	c.Data(http.StatusOK, "audio/wav", audio)
}

// readPDFUpload writes the error response itself and reports false on failure.
func readPDFUpload(c *gin.Context, maxUpload int64) (string, string, bool) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing file")
		return "", "", false
	}
	if !strings.EqualFold(filepath.Ext(file.Filename), ".pdf") {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "only PDF files are supported")
		return "", "", false
	}
	if maxUpload > 0 && file.Size > maxUpload {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "file too large")
		return "", "", false
	}
	f, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "cannot read file")
		return "", "", false
	}
	defer f.Close()

	text, err := pdfextract.ExtractText(f)
	if err != nil {
		writeError(c, "extract pdf", err)
		return "", "", false
	}
	return filepath.Base(file.Filename), text, true
}
