package model

import (
	"encoding/json"
	"time"
)

// DocumentSegment stores one indexed segment with its embedding so a session
// index can be restored without re-embedding. Embedding is a JSON array of float32.
type DocumentSegment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	DocumentID uint      `gorm:"not null;index" json:"document_id"`
	Ordinal    int       `gorm:"not null" json:"ordinal"`
	Offset     int       `gorm:"not null" json:"offset"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	Metadata   string    `gorm:"type:text" json:"-"`
	Embedding  string    `gorm:"type:mediumtext" json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

// EmbeddingVector returns the parsed embedding slice; empty on parse error.
func (s *DocumentSegment) EmbeddingVector() []float32 {
	if s.Embedding == "" {
		return nil
	}
	var v []float32
	_ = json.Unmarshal([]byte(s.Embedding), &v)
	return v
}

func (s *DocumentSegment) SetEmbedding(vec []float32) {
	if len(vec) == 0 {
		s.Embedding = "[]"
		return
	}
	b, _ := json.Marshal(vec)
	s.Embedding = string(b)
}

func (s *DocumentSegment) MetadataMap() map[string]string {
	if s.Metadata == "" {
		return nil
	}
	var m map[string]string
	_ = json.Unmarshal([]byte(s.Metadata), &m)
	return m
}

func (s *DocumentSegment) SetMetadata(m map[string]string) {
	if len(m) == 0 {
		s.Metadata = ""
		return
	}
	b, _ := json.Marshal(m)
	s.Metadata = string(b)
}
