package ai

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"askdocs/internal/rag"
)

type OllamaConfig struct {
	Host           string
	ChatModel      string
	EmbeddingModel string
	Temperature    float32
	Timeout        time.Duration
}

// OllamaClient talks to a local Ollama server.
type OllamaClient struct {
	client *api.Client
	cfg    OllamaConfig
}

func NewOllamaClient(cfg OllamaConfig) (*OllamaClient, error) {
	if cfg.Host == "" {
		cfg.Host = "http://localhost:11434"
	}
	if cfg.ChatModel == "" {
		return nil, fmt.Errorf("ollama chat model is not set: %w", rag.ErrConfiguration)
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = cfg.ChatModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}
	base, err := url.Parse(cfg.Host)
	if err != nil {
		return nil, fmt.Errorf("parse ollama host %q: %w: %w", cfg.Host, rag.ErrConfiguration, err)
	}
	return &OllamaClient{
		client: api.NewClient(base, &http.Client{Timeout: cfg.Timeout}),
		cfg:    cfg,
	}, nil
}

func (c *OllamaClient) Generate(ctx context.Context, system string, conversation []rag.Turn) (string, error) {
	messages := make([]api.Message, 0, len(conversation)+1)
	if system != "" {
		messages = append(messages, api.Message{Role: "system", Content: system})
	}
	for _, turn := range conversation {
		role := "user"
		if turn.Role == rag.RoleModel {
			role = "assistant"
		}
		messages = append(messages, api.Message{Role: role, Content: turn.Text})
	}

	stream := false
	req := &api.ChatRequest{
		Model:    c.cfg.ChatModel,
		Messages: messages,
		Stream:   &stream,
		Options:  map[string]interface{}{"temperature": c.cfg.Temperature},
	}

	var full strings.Builder
	err := c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		full.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat failed: %w", err)
	}
	return full.String(), nil
}

func (c *OllamaClient) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.client.Embeddings(ctx, &api.EmbeddingRequest{
		Model:  c.cfg.EmbeddingModel,
		Prompt: text,
	})
	if err != nil {
		return nil, fmt.Errorf("ollama embedding failed: %w", err)
	}
	vec := make([]float32, len(resp.Embedding))
	for i, v := range resp.Embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}

func (c *OllamaClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := c.client.Embed(ctx, &api.EmbedRequest{
		Model: c.cfg.EmbeddingModel,
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("ollama batch embedding failed: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("got %d embeddings for %d inputs", len(resp.Embeddings), len(texts))
	}
	return resp.Embeddings, nil
}
