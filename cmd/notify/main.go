package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"askdocs/internal/config"
	"askdocs/internal/notify"
	"askdocs/internal/rag"
)

const (
	exitFailure = 1
	exitConfig  = 2
)

var timeout = flag.Duration("timeout", notify.DefaultTimeout, "request timeout")

// notify posts once to TEAMS_WORKFLOW_URL and exits non-zero on failure.
func main() {
	flag.Parse()
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(exitConfig)
	}

	hook := notify.NewWebhook(cfg.Notify.WebhookURL)
	ctx, cancel := context.WithTimeout(context.Background(), *timeout+time.Second)
	defer cancel()
	hook.Client.Timeout = *timeout

	if err := hook.Notify(ctx); err != nil {
		color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "notification failed: %v\n", err)
		os.Exit(exitCode(err))
	}
	color.New(color.FgGreen).Println("notification sent")
}

// exitCode separates a missing or invalid webhook setting from a failed call.
func exitCode(err error) int {
	if errors.Is(err, rag.ErrConfiguration) {
		return exitConfig
	}
	return exitFailure
}
