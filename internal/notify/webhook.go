package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"askdocs/internal/rag"
)

const DefaultTimeout = 10 * time.Second

var ErrNotifyFailed = errors.New("notification failed")

// Webhook posts a bodyless notification to a workflow URL.
type Webhook struct {
	URL    string
	Client *http.Client
}

func NewWebhook(url string) *Webhook {
	return &Webhook{URL: url, Client: &http.Client{Timeout: DefaultTimeout}}
}

// Notify sends one POST. A missing URL fails with ErrConfiguration before any
// network call; timeouts match ErrServiceTimeout, other failures ErrNotifyFailed.
func (w *Webhook) Notify(ctx context.Context) error {
	url := strings.TrimSpace(w.URL)
	if url == "" {
		err := fmt.Errorf("webhook url is not set: %w", rag.ErrConfiguration)
		log.Printf("notify: %v", err)
		return err
	}

	client := w.Client
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return fmt.Errorf("build webhook request: %w: %w", ErrNotifyFailed, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		if rag.IsTimeout(err) {
			log.Printf("notify: request timeout: %v", err)
			return fmt.Errorf("webhook request: %w: %w", rag.ErrServiceTimeout, err)
		}
		log.Printf("notify: connection error: %v", err)
		return fmt.Errorf("webhook request: %w: %w", ErrNotifyFailed, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("notify: http error: status %d", resp.StatusCode)
		return fmt.Errorf("webhook status %d: %w", resp.StatusCode, ErrNotifyFailed)
	}
	log.Printf("notify: notification sent")
	return nil
}
