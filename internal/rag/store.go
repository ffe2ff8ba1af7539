package rag

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"
)

// VectorStore holds (segment, vector) pairs and answers similarity queries.
// Search results are ordered by descending score, ties by segment ordinal.
type VectorStore interface {
	Reset(ctx context.Context) error
	Add(ctx context.Context, segments []Segment, vectors [][]float32) error
	Search(ctx context.Context, vector []float32, k int) ([]Retrieved, error)
	Len() int
}

// MemoryStore is a brute-force cosine store kept in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	segments []Segment
	vectors  [][]float32
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) Reset(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.segments = nil
	s.vectors = nil
	return nil
}

func (s *MemoryStore) Add(_ context.Context, segments []Segment, vectors [][]float32) error {
	if len(segments) != len(vectors) {
		return errors.New("segments and vectors length mismatch")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.segments = append(s.segments, segments...)
	s.vectors = append(s.vectors, vectors...)
	return nil
}

func (s *MemoryStore) Search(_ context.Context, vector []float32, k int) ([]Retrieved, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	scored := make([]Retrieved, len(s.segments))
	for i := range s.segments {
		scored[i] = Retrieved{Segment: s.segments[i], Score: CosineSimilarity(vector, s.vectors[i])}
	}
	SortRetrieved(scored)
	if k > 0 && k < len(scored) {
		scored = scored[:k]
	}
	return scored, nil
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.segments)
}

// SortRetrieved orders by descending score, then ascending ordinal.
func SortRetrieved(items []Retrieved) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].Segment.Ordinal < items[j].Segment.Ordinal
	})
}

// CosineSimilarity returns 0 for vectors of different length or zero norm.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
