package notify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"askdocs/internal/rag"
)

func TestNotifyWithoutURLMakesNoRequest(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	wh := &Webhook{URL: "", Client: srv.Client()}
	err := wh.Notify(context.Background())
	if !errors.Is(err, rag.ErrConfiguration) {
		t.Fatalf("err = %v, want ErrConfiguration", err)
	}
	if n := atomic.LoadInt32(&hits); n != 0 {
		t.Fatalf("server received %d requests", n)
	}
}

func TestNotify(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		delay   time.Duration
		timeout time.Duration
		want    error
	}{
		{name: "ok", status: http.StatusAccepted},
		{name: "http error", status: http.StatusBadRequest, want: ErrNotifyFailed},
		{name: "timeout", status: http.StatusOK, delay: 200 * time.Millisecond, timeout: 20 * time.Millisecond, want: rag.ErrServiceTimeout},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("method = %s", r.Method)
				}
				time.Sleep(tc.delay)
				w.WriteHeader(tc.status)
			}))
			defer srv.Close()

			client := srv.Client()
			if tc.timeout > 0 {
				client.Timeout = tc.timeout
			}
			err := (&Webhook{URL: srv.URL, Client: client}).Notify(context.Background())
			if tc.want == nil {
				if err != nil {
					t.Fatalf("err = %v", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestNotifyConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	err := NewWebhook(url).Notify(context.Background())
	if !errors.Is(err, ErrNotifyFailed) {
		t.Fatalf("err = %v, want ErrNotifyFailed", err)
	}
}
