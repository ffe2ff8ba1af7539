package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"askdocs/internal/app"
	"askdocs/internal/transport/http/response"
)

type TutorHandler struct {
	tutor *app.TutorService
}

type StartTutorRequest struct {
	VideoURL    string `json:"video_url" binding:"required"`
	Language    string `json:"language" binding:"required,max=64"`
	CaptionCode string `json:"caption_code" binding:"max=16"`
}

type TutorMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

func NewTutorHandler(tutor *app.TutorService) *TutorHandler {
	return &TutorHandler{tutor: tutor}
}

func (h *TutorHandler) Captions(c *gin.Context) {
	videoURL := c.Query("video_url")
	if videoURL == "" {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "video_url is required")
		return
	}
	langs, err := h.tutor.Languages(c.Request.Context(), videoURL)
	if err != nil {
		writeError(c, "list captions", err)
		return
	}
	response.OK(c, langs)
}

func (h *TutorHandler) StartSession(c *gin.Context) {
	var req StartTutorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	res, err := h.tutor.Start(c.Request.Context(), app.StartTutorInput{
		VideoURL:    req.VideoURL,
		Language:    req.Language,
		CaptionCode: req.CaptionCode,
	})
	if err != nil {
		writeError(c, "start tutor session", err)
		return
	}
	response.OK(c, res)
}

func (h *TutorHandler) SendMessage(c *gin.Context) {
	sessionID, ok := getSessionIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	var req TutorMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	reply, err := h.tutor.Send(c.Request.Context(), sessionID, req.Content)
	if err != nil {
		writeError(c, "send tutor message", err)
		return
	}
	response.OK(c, gin.H{"reply": reply})
}

func (h *TutorHandler) Finish(c *gin.Context) {
	sessionID, ok := getSessionIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	path, err := h.tutor.Finish(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, "finish tutor session", err)
		return
	}
	response.OK(c, gin.H{"record_path": path})
}
