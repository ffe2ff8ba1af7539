package http

import (
	"github.com/gin-gonic/gin"

	"askdocs/internal/bootstrap"
	"askdocs/internal/transport/http/handler"
	"askdocs/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	maxUpload := int64(app.Config.App.MaxUploadMB) << 20
	router.MaxMultipartMemory = maxUpload

	healthHandler := handler.NewHealthHandler(app)
	documentHandler := handler.NewDocumentHandler(app.Documents, app.Audio, maxUpload)
	invoiceHandler := handler.NewInvoiceHandler(app.Invoices, maxUpload)
	tutorHandler := handler.NewTutorHandler(app.Tutor)
	notifyHandler := handler.NewNotifyHandler(app.Notifier)

	router.GET("/healthz", healthHandler.Check)

	v1 := router.Group("/api/v1")
	v1.POST("/documents", documentHandler.CreateDocument)
	v1.POST("/documents/pdf", documentHandler.UploadPDF)
	v1.POST("/documents/audio", documentHandler.UploadAudio)
	v1.POST("/invoices", invoiceHandler.Upload)
	v1.GET("/tutor/captions", tutorHandler.Captions)
	v1.POST("/tutor/sessions", tutorHandler.StartSession)
	v1.POST("/notify", notifyHandler.Send)

	sessionGroup := v1.Group("")
	sessionGroup.Use(middleware.SessionToken(app.Config.Session.TokenSecret))
	sessionGroup.POST("/ask", documentHandler.Ask)
	sessionGroup.POST("/speak", documentHandler.Speak)
	sessionGroup.POST("/tutor/messages", tutorHandler.SendMessage)
	sessionGroup.POST("/tutor/finish", tutorHandler.Finish)

	return router
}
