package model

import (
	"reflect"
	"testing"
)

func TestDocumentSegmentEncoding(t *testing.T) {
	var s DocumentSegment
	s.SetEmbedding([]float32{0.25, -1, 3})
	s.SetMetadata(map[string]string{"category": "Groceries"})

	if got := s.EmbeddingVector(); !reflect.DeepEqual(got, []float32{0.25, -1, 3}) {
		t.Fatalf("embedding = %v", got)
	}
	if got := s.MetadataMap(); got["category"] != "Groceries" {
		t.Fatalf("metadata = %v", got)
	}

	s.SetEmbedding(nil)
	s.SetMetadata(nil)
	if len(s.EmbeddingVector()) != 0 || s.MetadataMap() != nil {
		t.Fatal("empty values not cleared")
	}

	s.Embedding = "not json"
	if s.EmbeddingVector() != nil {
		t.Fatal("invalid embedding parsed")
	}
}
