package rag

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
)

var sampleSegments = []Segment{
	{Text: "Go is a statically typed compiled language."},
	{Text: "Bananas are rich in potassium and fibre."},
	{Text: "The Eiffel Tower is located in Paris."},
	{Text: "Rabbits eat carrots and leafy greens."},
	{Text: "Goroutines are lightweight threads managed by the Go runtime."},
}

func buildSample(t *testing.T, emb Embedder) *Index {
	t.Helper()
	idx := NewIndex(emb, nil)
	if err := idx.Build(context.Background(), sampleSegments); err != nil {
		t.Fatalf("Build: %v", err)
	}
	return idx
}

func TestRetrieveIsDeterministic(t *testing.T) {
	idx := buildSample(t, &wordEmbedder{})
	ctx := context.Background()
	first, err := idx.Retrieve(ctx, "what language is Go", 3)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, err := idx.Retrieve(ctx, "what language is Go", 3)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("call %d returned %+v, want %+v", i, again, first)
		}
	}
}

func TestRetrieveKLargerThanIndexReturnsAll(t *testing.T) {
	idx := buildSample(t, &wordEmbedder{})
	got, err := idx.Retrieve(context.Background(), "anything at all", 50)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(sampleSegments) {
		t.Fatalf("got %d results, want %d", len(got), len(sampleSegments))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Score > got[i-1].Score {
			t.Fatalf("results not sorted by score: %+v", got)
		}
	}
}

func TestRetrieveDefaultK(t *testing.T) {
	segs := make([]Segment, 8)
	for i := range segs {
		segs[i] = Segment{Text: fmt.Sprintf("segment number %d", i)}
	}
	idx := NewIndex(&wordEmbedder{}, nil)
	if err := idx.Build(context.Background(), segs); err != nil {
		t.Fatal(err)
	}
	got, err := idx.Retrieve(context.Background(), "segment", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != DefaultTopK {
		t.Fatalf("got %d results, want %d", len(got), DefaultTopK)
	}
}

func TestRetrieveExactTextRoundTrip(t *testing.T) {
	idx := buildSample(t, &wordEmbedder{})
	for _, seg := range sampleSegments {
		got, err := idx.Retrieve(context.Background(), seg.Text, 2)
		if err != nil {
			t.Fatal(err)
		}
		found := false
		for _, r := range got {
			if r.Segment.Text == seg.Text {
				found = true
			}
		}
		if !found {
			t.Fatalf("query %q not among top results %+v", seg.Text, got)
		}
	}
}

func TestRetrieveTiesFollowIngestionOrder(t *testing.T) {
	idx := buildSample(t, constEmbedder{})
	got, err := idx.Retrieve(context.Background(), "tie", 5)
	if err != nil {
		t.Fatal(err)
	}
	for i, r := range got {
		if r.Segment.Ordinal != i {
			t.Fatalf("position %d has ordinal %d", i, r.Segment.Ordinal)
		}
	}
}

func TestRetrieveBeforeBuild(t *testing.T) {
	idx := NewIndex(&wordEmbedder{}, nil)
	_, err := idx.Retrieve(context.Background(), "question", 3)
	if !errors.Is(err, ErrEmptyIndex) {
		t.Fatalf("err = %v, want ErrEmptyIndex", err)
	}
}

func TestRetrieveEmptyQuery(t *testing.T) {
	idx := buildSample(t, &wordEmbedder{})
	if _, err := idx.Retrieve(context.Background(), "  ", 3); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestBuildFailureLeavesEmptyIndex(t *testing.T) {
	ctx := context.Background()
	emb := &wordEmbedder{}
	idx := NewIndex(emb, nil)
	if err := idx.Build(ctx, sampleSegments); err != nil {
		t.Fatal(err)
	}

	emb.calls, emb.failAt = 0, 3
	err := idx.Build(ctx, sampleSegments)
	if !errors.Is(err, ErrEmbeddingService) {
		t.Fatalf("err = %v, want ErrEmbeddingService", err)
	}
	if idx.Len() != 0 {
		t.Fatalf("index has %d segments after failed build", idx.Len())
	}
	if _, ok := idx.Snapshot(); ok {
		t.Fatal("snapshot reported after failed build")
	}

	emb.failAt = 0
	if _, err := idx.Retrieve(ctx, "Paris", 1); !errors.Is(err, ErrEmptyIndex) {
		t.Fatalf("Retrieve err = %v, want ErrEmptyIndex", err)
	}
}

func TestBuildTimeoutIsServiceTimeout(t *testing.T) {
	idx := NewIndex(&wordEmbedder{failAt: 1, err: context.DeadlineExceeded}, nil)
	err := idx.Build(context.Background(), sampleSegments)
	if !errors.Is(err, ErrServiceTimeout) || !errors.Is(err, ErrEmbeddingService) {
		t.Fatalf("err = %v, want timeout wrapped as embedding failure", err)
	}
}

func TestBuildUsesBatches(t *testing.T) {
	segs := make([]Segment, 23)
	for i := range segs {
		segs[i] = Segment{Text: fmt.Sprintf("text %d", i)}
	}
	emb := &batchEmbedder{}
	idx := NewIndex(emb, nil)
	if err := idx.Build(context.Background(), segs); err != nil {
		t.Fatal(err)
	}
	if want := []int{10, 10, 3}; !reflect.DeepEqual(emb.batches, want) {
		t.Fatalf("batches = %v, want %v", emb.batches, want)
	}
}

func TestFailedQueryKeepsIndex(t *testing.T) {
	ctx := context.Background()
	emb := &wordEmbedder{}
	idx := buildSample(t, emb)

	emb.failAt = emb.calls + 1
	if _, err := idx.Retrieve(ctx, "Paris", 1); !errors.Is(err, ErrEmbeddingService) {
		t.Fatalf("err = %v, want ErrEmbeddingService", err)
	}
	emb.failAt = 0
	if idx.Len() != len(sampleSegments) {
		t.Fatalf("index lost segments after failed query")
	}
	if _, err := idx.Retrieve(ctx, "Paris", 1); err != nil {
		t.Fatalf("Retrieve after failure: %v", err)
	}
}

func TestRestoreSnapshot(t *testing.T) {
	ctx := context.Background()
	src := buildSample(t, &wordEmbedder{})
	snap, ok := src.Snapshot()
	if !ok {
		t.Fatal("no snapshot")
	}
	emb := &wordEmbedder{}
	dst := NewIndex(emb, nil)
	if err := dst.Restore(ctx, snap); err != nil {
		t.Fatal(err)
	}
	if emb.calls != 0 {
		t.Fatalf("restore called the embedder %d times", emb.calls)
	}
	got, err := dst.Retrieve(ctx, "Eiffel Tower Paris", 1)
	if err != nil {
		t.Fatal(err)
	}
	if got[0].Segment.Ordinal != 2 {
		t.Fatalf("top result = %+v", got[0])
	}
}

func TestCosineSimilarity(t *testing.T) {
	cases := []struct {
		a, b []float32
		want float32
	}{
		{[]float32{1, 0}, []float32{1, 0}, 1},
		{[]float32{1, 0}, []float32{0, 1}, 0},
		{[]float32{1, 0}, []float32{-1, 0}, -1},
		{[]float32{0, 0}, []float32{1, 0}, 0},
		{[]float32{1}, []float32{1, 0}, 0},
	}
	for _, tc := range cases {
		if got := CosineSimilarity(tc.a, tc.b); got != tc.want {
			t.Errorf("CosineSimilarity(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestBuildIgnoresBlankSegments(t *testing.T) {
	ctx := context.Background()
	text := "Alpha beta gamma." + strings.Repeat(" ", 60) + "Delta epsilon."
	segs, err := Chunk(text, ChunkerConfig{MaxLength: 20, Overlap: 2})
	if err != nil {
		t.Fatal(err)
	}
	segs = append(segs, Segment{Text: " \n\t "})

	idx := NewIndex(&strictEmbedder{}, nil)
	if err := idx.Build(ctx, segs); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if idx.Len() != len(segs)-1 {
		t.Fatalf("Len = %d, want %d", idx.Len(), len(segs)-1)
	}
	got, err := idx.Retrieve(ctx, "Delta epsilon", 1)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got[0].Segment.Text, "Delta") {
		t.Fatalf("top segment = %q", got[0].Segment.Text)
	}

	if err := idx.Build(ctx, []Segment{{Text: "   "}}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("blank-only build err = %v, want ErrInvalidInput", err)
	}
}
