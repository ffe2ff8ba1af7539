package rag

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

const embeddingBatchSize = 10 // most OpenAI-compatible providers cap batch input

// Snapshot is the committed content of an Index, used for memoization.
type Snapshot struct {
	Segments []Segment   `json:"segments"`
	Vectors  [][]float32 `json:"vectors"`
}

// Index pairs every segment with its embedding and answers top-k queries.
// It is built once and only read afterwards.
type Index struct {
	embedder Embedder
	store    VectorStore

	mu       sync.RWMutex
	snapshot Snapshot
	dim      int
}

// NewIndex uses an in-memory store when store is nil.
func NewIndex(embedder Embedder, store VectorStore) *Index {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Index{embedder: embedder, store: store}
}

// Build embeds all non-blank segments and commits them in one step. On any
// failure the index is left empty.
func (x *Index) Build(ctx context.Context, segments []Segment) error {
	ordered := make([]Segment, 0, len(segments))
	for _, seg := range segments {
		if strings.TrimSpace(seg.Text) == "" {
			continue
		}
		seg.Ordinal = len(ordered)
		ordered = append(ordered, seg)
	}
	if len(ordered) == 0 {
		return fmt.Errorf("no segments to index: %w", ErrInvalidInput)
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	vectors, err := x.embedSegments(ctx, ordered)
	if err != nil {
		x.clearLocked(ctx)
		return err
	}
	return x.commitLocked(ctx, Snapshot{Segments: ordered, Vectors: vectors})
}

// Restore commits a previously built snapshot without calling the embedder.
func (x *Index) Restore(ctx context.Context, snap Snapshot) error {
	if len(snap.Segments) == 0 || len(snap.Segments) != len(snap.Vectors) {
		return fmt.Errorf("snapshot is incomplete: %w", ErrInvalidInput)
	}
	if _, err := vectorDimension(snap.Vectors); err != nil {
		return err
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.commitLocked(ctx, snap)
}

// Snapshot returns the committed pairs; ok is false while the index is empty.
func (x *Index) Snapshot() (Snapshot, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.snapshot, len(x.snapshot.Segments) > 0
}

// Retrieve returns the k segments closest to query. k <= 0 means DefaultTopK;
// a k larger than the index returns every segment.
func (x *Index) Retrieve(ctx context.Context, query string, k int) ([]Retrieved, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query is empty: %w", ErrInvalidInput)
	}
	if k <= 0 {
		k = DefaultTopK
	}

	x.mu.RLock()
	defer x.mu.RUnlock()
	if len(x.snapshot.Segments) == 0 {
		return nil, ErrEmptyIndex
	}

	vec, err := x.embedder.Embed(ctx, query)
	if err != nil {
		return nil, ServiceError(ErrEmbeddingService, "embed query", err)
	}
	if len(vec) != x.dim {
		return nil, fmt.Errorf("query embedding has dimension %d, index has %d: %w", len(vec), x.dim, ErrEmbeddingService)
	}
	results, err := x.store.Search(ctx, vec, k)
	if err != nil {
		return nil, fmt.Errorf("search vector store failed: %w", err)
	}
	return results, nil
}

func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.snapshot.Segments)
}

func (x *Index) embedSegments(ctx context.Context, segments []Segment) ([][]float32, error) {
	texts := make([]string, len(segments))
	for i := range segments {
		texts[i] = segments[i].Text
	}

	var vectors [][]float32
	if batcher, ok := x.embedder.(BatchEmbedder); ok {
		for i := 0; i < len(texts); i += embeddingBatchSize {
			end := i + embeddingBatchSize
			if end > len(texts) {
				end = len(texts)
			}
			batch, err := batcher.EmbedBatch(ctx, texts[i:end])
			if err != nil {
				return nil, ServiceError(ErrEmbeddingService, "embed segments", err)
			}
			vectors = append(vectors, batch...)
		}
	} else {
		vectors = make([][]float32, 0, len(texts))
		for i, text := range texts {
			vec, err := x.embedder.Embed(ctx, text)
			if err != nil {
				return nil, ServiceError(ErrEmbeddingService, fmt.Sprintf("embed segment %d", i), err)
			}
			vectors = append(vectors, vec)
		}
	}

	if len(vectors) != len(segments) {
		return nil, fmt.Errorf("got %d embeddings for %d segments: %w", len(vectors), len(segments), ErrEmbeddingService)
	}
	if _, err := vectorDimension(vectors); err != nil {
		return nil, err
	}
	return vectors, nil
}

func (x *Index) commitLocked(ctx context.Context, snap Snapshot) error {
	dim, err := vectorDimension(snap.Vectors)
	if err != nil {
		x.clearLocked(ctx)
		return err
	}
	if err := x.store.Reset(ctx); err != nil {
		x.snapshot, x.dim = Snapshot{}, 0
		return fmt.Errorf("reset vector store failed: %w", err)
	}
	if err := x.store.Add(ctx, snap.Segments, snap.Vectors); err != nil {
		x.clearLocked(ctx)
		return fmt.Errorf("add to vector store failed: %w", err)
	}
	x.snapshot, x.dim = snap, dim
	return nil
}

func (x *Index) clearLocked(ctx context.Context) {
	x.snapshot, x.dim = Snapshot{}, 0
	_ = x.store.Reset(ctx)
}

func vectorDimension(vectors [][]float32) (int, error) {
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return 0, fmt.Errorf("empty embedding: %w", ErrEmbeddingService)
	}
	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dim {
			return 0, fmt.Errorf("embedding %d has dimension %d, want %d: %w", i, len(v), dim, ErrEmbeddingService)
		}
	}
	return dim, nil
}
