package app

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"askdocs/internal/captions"
	"askdocs/internal/model"
	"askdocs/internal/rag"
)

// letterEmbedder counts letters a-z; enough to make retrieval deterministic.
type letterEmbedder struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (e *letterEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	vec := make([]float32, 27)
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' {
			vec[r-'a']++
		}
	}
	vec[26] = 1
	return vec, nil
}

func (e *letterEmbedder) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// promptGenerator replies according to which prompt it receives.
type promptGenerator struct {
	mu      sync.Mutex
	calls   int
	err     error
	prompts []string
}

func (g *promptGenerator) Generate(_ context.Context, system string, conversation []rag.Turn) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	last := conversation[len(conversation)-1].Text
	g.prompts = append(g.prompts, last)
	if g.err != nil {
		return "", g.err
	}
	switch {
	case strings.Contains(last, "===QUESTIONS==="):
		return "===QUESTIONS===\n1. ¿Qué es?\n===VOCABULARY===\n**hola**\nMeaning: hello", nil
	case strings.Contains(last, "Write answers"):
		return "1. Es un video.", nil
	case strings.HasPrefix(last, "Greet in"):
		return "<think>greeting</think>¡Hola! ¿Tienes preguntas?", nil
	case strings.HasPrefix(last, "Summarise chat"):
		return "The student practised greetings.", nil
	case strings.Contains(last, "categorize transactions"):
		return "```json\n{\"transactions\":[{\"date\":\"2024-03-01\",\"description\":\"ICA Maxi\",\"category\":\"Groceries\",\"amount\":250.5}," +
			"{\"date\":\"2024-03-02\",\"description\":\"SF Bio\",\"category\":\"Entertainment\",\"amount\":140}]}\n```", nil
	case strings.Contains(last, "Question: "):
		return "<think>look at context</think>From the context.", nil
	default:
		return "echo: " + last, nil
	}
}

func (g *promptGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type fakeTranscriber struct {
	text string
	err  error
	got  []byte
}

func (f *fakeTranscriber) Transcribe(_ context.Context, _ string, audio io.Reader) (string, error) {
	b, _ := io.ReadAll(audio)
	f.got = b
	return f.text, f.err
}

type fakeSpeech struct {
	voice []byte
	text  string
	lang  string
}

func (f *fakeSpeech) Synthesize(_ context.Context, text string, voice []byte, lang string) ([]byte, error) {
	f.text, f.voice, f.lang = text, voice, lang
	return []byte("RIFF"), nil
}

type fakeCaptions struct {
	langs      []captions.Language
	transcript string
	err        error
	fetched    string
}

func (f *fakeCaptions) ListLanguages(context.Context, string) ([]captions.Language, error) {
	return f.langs, f.err
}

func (f *fakeCaptions) Fetch(_ context.Context, _, code string) (string, error) {
	f.fetched = code
	return f.transcript, f.err
}

type fakePublisher struct {
	mu    sync.Mutex
	turns []model.TutorTurn
}

func (p *fakePublisher) Publish(_ context.Context, turn model.TutorTurn) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.turns = append(p.turns, turn)
	return nil
}

type fakeRecords struct {
	records []model.SessionRecord
}

func (f *fakeRecords) Create(r *model.SessionRecord) error {
	f.records = append(f.records, *r)
	return nil
}

// memoryRecorder keeps saved sessions in a map.
type memoryRecorder struct {
	sessions map[string]model.Session
	snaps    map[string]rag.Snapshot
	failSave bool
}

func newMemoryRecorder() *memoryRecorder {
	return &memoryRecorder{sessions: map[string]model.Session{}, snaps: map[string]rag.Snapshot{}}
}

func (r *memoryRecorder) SaveSession(s *model.Session, _ *model.Document, snap rag.Snapshot) error {
	if r.failSave {
		return errors.New("db down")
	}
	r.sessions[s.ID] = *s
	r.snaps[s.ID] = snap
	return nil
}

func (r *memoryRecorder) LoadSession(id string, now time.Time) (*model.Session, *rag.Snapshot, error) {
	s, ok := r.sessions[id]
	if !ok || !now.Before(s.ExpiresAt) {
		return nil, nil, nil
	}
	snap := r.snaps[id]
	return &s, &snap, nil
}

// trackingStore is an in-process store that counts resets.
type trackingStore struct {
	*rag.MemoryStore
	mu     sync.Mutex
	resets int
}

func newTrackingStore() *trackingStore {
	return &trackingStore{MemoryStore: rag.NewMemoryStore()}
}

func (s *trackingStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	s.resets++
	s.mu.Unlock()
	return s.MemoryStore.Reset(ctx)
}

func (s *trackingStore) Resets() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resets
}
