package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Embed returns the embedding vector for the given text.
func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch returns one embedding per text, in input order.
func (c *OpenAIClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	input := make([]string, len(texts))
	for i, t := range texts {
		input[i] = strings.TrimSpace(t)
		if input[i] == "" {
			return nil, fmt.Errorf("embedding input %d is empty", i)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(c.cfg.EmbeddingModel),
		Input: input,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("got %d embeddings for %d inputs", len(resp.Data), len(texts))
	}

	result := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(result) {
			return nil, fmt.Errorf("embedding index %d out of range", d.Index)
		}
		result[d.Index] = d.Embedding
	}
	for i := range result {
		if len(result[i]) == 0 {
			return nil, errors.New("empty embedding in response")
		}
	}
	return result, nil
}
