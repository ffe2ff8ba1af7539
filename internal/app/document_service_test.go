package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"askdocs/internal/cache"
	"askdocs/internal/rag"
)

var testChunking = rag.ChunkerConfig{MaxLength: 40, Overlap: 0, BoundaryFraction: 1}

const museumText = "The library opens at nine. The museum ticket costs twelve euros. The park closes at sunset."

func newDocumentService(emb rag.Embedder, gen rag.Generator, opts ...DocumentOption) (*DocumentService, *SessionStore) {
	sessions := NewSessionStore(time.Hour, "secret", time.Hour)
	return NewDocumentService(emb, gen, sessions, testChunking, 2, opts...), sessions
}

func TestDocumentServiceIngestAndAsk(t *testing.T) {
	svc, _ := newDocumentService(&letterEmbedder{}, &promptGenerator{})
	ctx := context.Background()

	res, err := svc.Ingest(ctx, IngestInput{Name: "museum.txt", Text: museumText})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if res.SegmentCount != 3 || res.SessionToken == "" {
		t.Fatalf("unexpected result %+v", res)
	}

	answer, err := svc.Ask(ctx, res.SessionID, "How much is a ticket?", 0)
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if answer.Text != "From the context." {
		t.Fatalf("answer = %q", answer.Text)
	}
	if len(answer.Sources) != 2 {
		t.Fatalf("got %d sources, want 2", len(answer.Sources))
	}
}

func TestDocumentServiceErrors(t *testing.T) {
	ctx := context.Background()

	svc, sessions := newDocumentService(&letterEmbedder{}, &promptGenerator{})
	if _, err := svc.Ingest(ctx, IngestInput{Text: "   "}); !errors.Is(err, rag.ErrInvalidInput) {
		t.Fatalf("Ingest(empty) error = %v", err)
	}
	if _, err := svc.Ask(ctx, "missing", "question", 0); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("Ask(missing) error = %v", err)
	}

	failing, sessions := newDocumentService(&letterEmbedder{err: errors.New("boom")}, &promptGenerator{})
	if _, err := failing.Ingest(ctx, IngestInput{Text: museumText}); !errors.Is(err, rag.ErrEmbeddingService) {
		t.Fatalf("Ingest(embed failure) error = %v", err)
	}
	if sessions.Len() != 0 {
		t.Fatalf("failed ingest left %d sessions", sessions.Len())
	}
}

func TestDocumentServiceFailedQuestionKeepsIndex(t *testing.T) {
	gen := &promptGenerator{}
	svc, _ := newDocumentService(&letterEmbedder{}, gen)
	ctx := context.Background()
	res, err := svc.Ingest(ctx, IngestInput{Text: museumText})
	if err != nil {
		t.Fatal(err)
	}

	gen.err = errors.New("model offline")
	if _, err := svc.Ask(ctx, res.SessionID, "When does it open?", 0); !errors.Is(err, rag.ErrLLMService) {
		t.Fatalf("Ask() error = %v, want ErrLLMService", err)
	}
	gen.err = nil
	if _, err := svc.Ask(ctx, res.SessionID, "When does it open?", 0); err != nil {
		t.Fatalf("Ask() after failure error = %v", err)
	}
}

func TestDocumentServiceIndexMemo(t *testing.T) {
	emb := &letterEmbedder{}
	memo := cache.NewLocalMemo(time.Hour)
	svc, _ := newDocumentService(emb, &promptGenerator{}, WithIndexMemo(memo, "letters"))
	ctx := context.Background()

	if _, err := svc.Ingest(ctx, IngestInput{Text: museumText}); err != nil {
		t.Fatal(err)
	}
	first := emb.Calls()
	if _, err := svc.Ingest(ctx, IngestInput{Text: museumText}); err != nil {
		t.Fatal(err)
	}
	if emb.Calls() != first {
		t.Fatalf("second ingest embedded again: %d calls, want %d", emb.Calls(), first)
	}
}

func TestDocumentServiceRestoresFromRecorder(t *testing.T) {
	emb := &letterEmbedder{}
	recorder := newMemoryRecorder()
	svc, sessions := newDocumentService(emb, &promptGenerator{}, WithRecorder(recorder))
	ctx := context.Background()

	res, err := svc.Ingest(ctx, IngestInput{Text: museumText})
	if err != nil {
		t.Fatal(err)
	}
	before, err := svc.Ask(ctx, res.SessionID, "When does the park close?", 1)
	if err != nil {
		t.Fatal(err)
	}
	sessions.Delete(res.SessionID)
	built := emb.Calls()

	after, err := svc.Ask(ctx, res.SessionID, "When does the park close?", 1)
	if err != nil {
		t.Fatalf("Ask() after restart error = %v", err)
	}
	if after.Sources[0].Segment.Text != before.Sources[0].Segment.Text {
		t.Fatalf("restored top source = %q, want %q", after.Sources[0].Segment.Text, before.Sources[0].Segment.Text)
	}
	// only the question is embedded
	if emb.Calls() != built+1 {
		t.Fatalf("restore re-embedded segments: %d calls", emb.Calls()-built)
	}
	if _, err := sessions.Get(res.SessionID); err != nil {
		t.Fatalf("restored session not cached: %v", err)
	}
}

func TestSnapshotSegmentRoundTrip(t *testing.T) {
	snap := rag.Snapshot{
		Segments: []rag.Segment{{Ordinal: 0, Text: "a", Metadata: map[string]string{"k": "v"}}, {Ordinal: 1, Text: "b", Offset: 1}},
		Vectors:  [][]float32{{1, 0}, {0, 1}},
	}
	got := SnapshotFromSegments(SegmentsFromSnapshot(snap))
	if got.Segments[1].Offset != 1 || got.Segments[0].Metadata["k"] != "v" || got.Vectors[1][1] != 1 {
		t.Fatalf("round trip = %+v", got)
	}
}

func TestDocumentServiceReleasesStoreWhenSessionEnds(t *testing.T) {
	ctx := context.Background()
	stores := map[string]*trackingStore{}
	factory := WithStoreFactory(func(sessionID string) rag.VectorStore {
		st := newTrackingStore()
		stores[sessionID] = st
		return st
	})
	svc, sessions := newDocumentService(&letterEmbedder{}, &promptGenerator{}, factory)
	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	sessions.now = func() time.Time { return now }

	expiring, err := svc.Ingest(ctx, IngestInput{Text: museumText})
	if err != nil {
		t.Fatal(err)
	}
	deleted, err := svc.Ingest(ctx, IngestInput{Text: museumText})
	if err != nil {
		t.Fatal(err)
	}
	if got := stores[expiring.SessionID].Len(); got != 3 {
		t.Fatalf("store holds %d segments after ingest, want 3", got)
	}
	built := stores[expiring.SessionID].Resets()

	sessions.Delete(deleted.SessionID)
	if st := stores[deleted.SessionID]; st.Len() != 0 || st.Resets() != built+1 {
		t.Fatalf("deleted session store: len=%d resets=%d", st.Len(), st.Resets())
	}

	now = now.Add(2 * time.Hour)
	if removed := sessions.Sweep(); removed != 1 {
		t.Fatalf("Sweep() = %d, want 1", removed)
	}
	if st := stores[expiring.SessionID]; st.Len() != 0 || st.Resets() != built+1 {
		t.Fatalf("expired session store: len=%d resets=%d", st.Len(), st.Resets())
	}
}
