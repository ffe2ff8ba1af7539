package invoice

import (
	"context"
	"fmt"
	"strconv"

	"askdocs/internal/rag"
)

const qaSystemPrompt = "Use the following transaction records to answer the question. " +
	"If you don't know the answer, just say you don't know, don't try to make up an answer."

// Documents renders one segment per transaction, in input order.
func Documents(transactions []Transaction) []rag.Segment {
	segments := make([]rag.Segment, len(transactions))
	for i, t := range transactions {
		amount := strconv.FormatFloat(t.Amount, 'f', -1, 64)
		segments[i] = rag.Segment{
			Ordinal: i,
			Text: fmt.Sprintf("Date: %s, Description: %s, Category: %s, Amount: %s SEK",
				t.Date, t.Description, t.Category, amount),
			Metadata: map[string]string{
				"date":        t.Date,
				"description": t.Description,
				"category":    string(t.Category),
				"amount":      amount,
				"index":       strconv.Itoa(i),
			},
		}
	}
	return segments
}

// NewQA indexes the transactions without chunking and returns a pipeline
// answering questions over them.
func NewQA(ctx context.Context, embedder rag.Embedder, gen rag.Generator, transactions []Transaction) (*rag.Pipeline, error) {
	if len(transactions) == 0 {
		return nil, fmt.Errorf("no transactions to index: %w", rag.ErrInvalidInput)
	}
	index := rag.NewIndex(embedder, nil)
	if err := index.Build(ctx, Documents(transactions)); err != nil {
		return nil, err
	}
	return rag.NewPipeline(index, rag.NewSynthesizer(gen, rag.WithSystemPrompt(qaSystemPrompt)), rag.DefaultTopK), nil
}
