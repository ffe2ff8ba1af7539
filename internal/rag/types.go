package rag

import "context"

const DefaultTopK = 5

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn is one entry of a conversation sent to a Generator.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Segment is a contiguous span of source text. Offset is measured in runes.
type Segment struct {
	Ordinal  int               `json:"ordinal"`
	Text     string            `json:"text"`
	Offset   int               `json:"offset"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Retrieved is a segment returned by a similarity query.
type Retrieved struct {
	Segment Segment `json:"segment"`
	Score   float32 `json:"score"`
}

// Embedder turns text into a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// BatchEmbedder is implemented by embedders able to embed several texts per call.
type BatchEmbedder interface {
	Embedder
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator is a stateless language-model call; history must be resupplied each time.
type Generator interface {
	Generate(ctx context.Context, system string, conversation []Turn) (string, error)
}

// StreamGenerator additionally delivers the reply as it is produced.
type StreamGenerator interface {
	Generator
	GenerateStream(ctx context.Context, system string, conversation []Turn, onChunk func(chunk string) error) (string, error)
}
