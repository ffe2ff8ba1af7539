package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"askdocs/internal/bootstrap"
	httptransport "askdocs/internal/transport/http"
)

const shutdownGrace = 10 * time.Second

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx)
	if err != nil {
		log.Fatalf("bootstrap failed: %v", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("close resources failed: %v", err)
		}
	}()

	// Ask and upload requests wait on the model, so the write deadline follows
	// the model timeout instead of a fixed value.
	server := &http.Server{
		Addr:              app.Config.HTTPAddr(),
		Handler:           httptransport.NewRouter(app),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      app.Config.LLMTimeout() + 30*time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("askdocs listening on %s (provider=%s)", server.Addr, app.Config.LLM.Provider)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			log.Printf("server failed: %v", err)
		}
	case <-ctx.Done():
		log.Printf("shutting down, %d live sessions dropped", app.Sessions.Len())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown failed: %v", err)
	}
}
