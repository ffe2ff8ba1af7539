package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"askdocs/internal/transport/http/response"
)

type Notifier interface {
	Notify(ctx context.Context) error
}

type NotifyHandler struct {
	notifier Notifier
}

func NewNotifyHandler(notifier Notifier) *NotifyHandler {
	return &NotifyHandler{notifier: notifier}
}

func (h *NotifyHandler) Send(c *gin.Context) {
	if err := h.notifier.Notify(c.Request.Context()); err != nil {
		writeError(c, "notify", err)
		return
	}
	response.OK(c, gin.H{"delivered": true})
}
