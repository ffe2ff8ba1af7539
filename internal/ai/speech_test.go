package ai

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"askdocs/internal/rag"
)

func TestXTTSSynthesize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tts_to_audio" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if r.FormValue("text") != "hello" || r.FormValue("language") != "sv" {
			t.Errorf("form = %v", r.MultipartForm.Value)
		}
		f, _, err := r.FormFile("speaker_wav")
		if err != nil {
			t.Fatalf("speaker_wav: %v", err)
		}
		ref, _ := io.ReadAll(f)
		if string(ref) != "voice" {
			t.Errorf("reference = %q", ref)
		}
		w.Header().Set("Content-Type", "audio/wav")
		_, _ = w.Write([]byte("RIFF"))
	}))
	defer srv.Close()

	c, err := NewXTTSClient(srv.URL, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	audio, err := c.Synthesize(context.Background(), "hello", []byte("voice"), "sv")
	if err != nil {
		t.Fatal(err)
	}
	if string(audio) != "RIFF" {
		t.Fatalf("audio = %q", audio)
	}
}

func TestXTTSErrors(t *testing.T) {
	if _, err := NewXTTSClient("", 0); !errors.Is(err, rag.ErrConfiguration) {
		t.Fatalf("err = %v, want ErrConfiguration", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	c, _ := NewXTTSClient(srv.URL, time.Second)

	if _, err := c.Synthesize(context.Background(), "", []byte("v"), "en"); !errors.Is(err, rag.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
	if _, err := c.Synthesize(context.Background(), "hi", []byte("v"), "en"); !errors.Is(err, ErrSpeechService) {
		t.Fatalf("err = %v, want ErrSpeechService", err)
	}
}
