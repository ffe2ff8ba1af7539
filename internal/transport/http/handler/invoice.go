package handler

import (
	"github.com/gin-gonic/gin"

	"askdocs/internal/app"
	"askdocs/internal/transport/http/response"
)

type InvoiceHandler struct {
	invoices  *app.InvoiceService
	maxUpload int64
}

func NewInvoiceHandler(invoices *app.InvoiceService, maxUpload int64) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices, maxUpload: maxUpload}
}

func (h *InvoiceHandler) Upload(c *gin.Context) {
	name, text, ok := readPDFUpload(c, h.maxUpload)
	if !ok {
		return
	}
	res, err := h.invoices.Process(c.Request.Context(), name, text)
	if err != nil {
		writeError(c, "process invoice", err)
		return
	}
	response.OK(c, res)
}
