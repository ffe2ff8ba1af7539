package qdrant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	qdrantclient "github.com/qdrant/go-client/qdrant"

	"askdocs/internal/rag"
)

const (
	upsertBatchSize = 100
	metadataPrefix  = "meta."
)

// Store keeps one index in its own Qdrant collection.
type Store struct {
	collections qdrantclient.CollectionsClient
	points      qdrantclient.PointsClient
	collection  string

	mu    sync.RWMutex
	count int
}

func New(collections qdrantclient.CollectionsClient, points qdrantclient.PointsClient, collection string) *Store {
	return &Store{collections: collections, points: points, collection: collection}
}

func (s *Store) Collection() string { return s.collection }

// Reset drops the collection if it exists.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err := s.exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		if _, err := s.collections.Delete(ctx, &qdrantclient.DeleteCollection{CollectionName: s.collection}); err != nil {
			return fmt.Errorf("delete collection %s failed: %w", s.collection, err)
		}
	}
	s.count = 0
	return nil
}

// Add creates the collection on first use and upserts the pairs in batches.
func (s *Store) Add(ctx context.Context, segments []rag.Segment, vectors [][]float32) error {
	if len(segments) != len(vectors) {
		return errors.New("segments and vectors length mismatch")
	}
	if len(segments) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err := s.exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		_, err := s.collections.Create(ctx, &qdrantclient.CreateCollection{
			CollectionName: s.collection,
			VectorsConfig: &qdrantclient.VectorsConfig{
				Config: &qdrantclient.VectorsConfig_Params{
					Params: &qdrantclient.VectorParams{
						Size:     uint64(len(vectors[0])),
						Distance: qdrantclient.Distance_Cosine,
					},
				},
			},
		})
		if err != nil {
			return fmt.Errorf("create collection %s failed: %w", s.collection, err)
		}
	}

	wait := true
	batch := make([]*qdrantclient.PointStruct, 0, upsertBatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		_, err := s.points.Upsert(ctx, &qdrantclient.UpsertPoints{
			CollectionName: s.collection,
			Wait:           &wait,
			Points:         batch,
		})
		if err != nil {
			return fmt.Errorf("upsert points failed: %w", err)
		}
		batch = batch[:0]
		return nil
	}

	for i, seg := range segments {
		batch = append(batch, toPoint(seg, vectors[i]))
		if len(batch) >= upsertBatchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}
	s.count += len(segments)
	return nil
}

// Search asks Qdrant for one point more than k and widens the request while
// the score at position k ties with the last point returned, so equal scores
// at the cut are ordered by ordinal rather than by Qdrant.
func (s *Store) Search(ctx context.Context, vector []float32, k int) ([]rag.Retrieved, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.count == 0 {
		return nil, nil
	}
	if k <= 0 || k > s.count {
		k = s.count
	}

	limit := min(k+1, s.count)
	for {
		results, err := s.search(ctx, vector, limit)
		if err != nil {
			return nil, err
		}
		if len(results) <= k || limit >= s.count || results[len(results)-1].Score != results[k-1].Score {
			rag.SortRetrieved(results)
			if len(results) > k {
				results = results[:k]
			}
			return results, nil
		}
		limit = min(limit*2, s.count)
	}
}

func (s *Store) search(ctx context.Context, vector []float32, limit int) ([]rag.Retrieved, error) {
	resp, err := s.points.Search(ctx, &qdrantclient.SearchPoints{
		CollectionName: s.collection,
		Vector:         vector,
		Limit:          uint64(limit),
		WithPayload: &qdrantclient.WithPayloadSelector{
			SelectorOptions: &qdrantclient.WithPayloadSelector_Enable{Enable: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("search in qdrant failed: %w", err)
	}
	results := make([]rag.Retrieved, 0, len(resp.GetResult()))
	for _, point := range resp.GetResult() {
		results = append(results, rag.Retrieved{Segment: fromPayload(point.GetPayload()), Score: point.GetScore()})
	}
	return results, nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}

func (s *Store) exists(ctx context.Context) (bool, error) {
	resp, err := s.collections.List(ctx, &qdrantclient.ListCollectionsRequest{})
	if err != nil {
		return false, fmt.Errorf("list collections failed: %w", err)
	}
	for _, c := range resp.GetCollections() {
		if c.GetName() == s.collection {
			return true, nil
		}
	}
	return false, nil
}

func toPoint(seg rag.Segment, vector []float32) *qdrantclient.PointStruct {
	payload := map[string]*qdrantclient.Value{
		"text":    {Kind: &qdrantclient.Value_StringValue{StringValue: seg.Text}},
		"ordinal": {Kind: &qdrantclient.Value_IntegerValue{IntegerValue: int64(seg.Ordinal)}},
		"offset":  {Kind: &qdrantclient.Value_IntegerValue{IntegerValue: int64(seg.Offset)}},
	}
	for k, v := range seg.Metadata {
		payload[metadataPrefix+k] = &qdrantclient.Value{Kind: &qdrantclient.Value_StringValue{StringValue: v}}
	}
	// the ordinal is unique within a collection and keeps upserts idempotent
	return &qdrantclient.PointStruct{
		Id: &qdrantclient.PointId{
			PointIdOptions: &qdrantclient.PointId_Num{Num: uint64(seg.Ordinal)},
		},
		Vectors: &qdrantclient.Vectors{
			VectorsOptions: &qdrantclient.Vectors_Vector{
				Vector: &qdrantclient.Vector{Data: vector},
			},
		},
		Payload: payload,
	}
}

func fromPayload(payload map[string]*qdrantclient.Value) rag.Segment {
	seg := rag.Segment{
		Text:    payload["text"].GetStringValue(),
		Ordinal: int(payload["ordinal"].GetIntegerValue()),
		Offset:  int(payload["offset"].GetIntegerValue()),
	}
	for k, v := range payload {
		if name, ok := strings.CutPrefix(k, metadataPrefix); ok {
			if seg.Metadata == nil {
				seg.Metadata = make(map[string]string)
			}
			seg.Metadata[name] = v.GetStringValue()
		}
	}
	return seg
}
