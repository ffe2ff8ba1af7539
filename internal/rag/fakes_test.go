package rag

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"unicode"
)

const fakeDim = 256

// wordEmbedder hashes lower-cased words into a fixed-size count vector.
type wordEmbedder struct {
	calls  int
	failAt int // 1-based call number that fails; 0 never fails
	err    error
}

func (e *wordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.calls++
	if e.failAt > 0 && e.calls >= e.failAt {
		if e.err != nil {
			return nil, e.err
		}
		return nil, errors.New("embedding backend unavailable")
	}
	vec := make([]float32, fakeDim)
	for _, w := range words(text) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		vec[h.Sum32()%fakeDim]++
	}
	return vec, nil
}

// constEmbedder maps every text to the same vector.
type constEmbedder struct{}

func (constEmbedder) Embed(context.Context, string) ([]float32, error) {
	return []float32{1, 1, 1}, nil
}

type batchEmbedder struct {
	wordEmbedder
	batches []int
}

func (b *batchEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	b.batches = append(b.batches, len(texts))
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		v, err := b.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// contextGenerator answers with the context block sharing most words with
// the question, behind a reasoning preamble.
type contextGenerator struct {
	lastSystem string
	lastTurns  []Turn
}

func (g *contextGenerator) Generate(_ context.Context, system string, conversation []Turn) (string, error) {
	g.lastSystem = system
	g.lastTurns = append([]Turn(nil), conversation...)
	prompt := conversation[len(conversation)-1].Text

	qi := strings.Index(prompt, "\n\nQuestion: ")
	if qi < 0 {
		return "I don't know.", nil
	}
	question := strings.TrimSuffix(prompt[qi+len("\n\nQuestion: "):], "\n\nAnswer:")
	qwords := map[string]bool{}
	for _, w := range words(question) {
		qwords[w] = true
	}

	best, bestScore := "", 0
	for _, block := range strings.Split(prompt[:qi], "\n---\n") {
		block = strings.TrimSuffix(strings.TrimPrefix(block, "Context:"), "\n---")
		score := 0
		for _, w := range words(block) {
			if qwords[w] && len(w) > 3 {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = strings.TrimSpace(block), score
		}
	}
	if best == "" {
		return "<think>nothing relevant</think>I don't know.", nil
	}
	return "<think>\nthe question matches one block\n</think>\nAccording to the document: " + best, nil
}

type scriptedGenerator struct {
	replies []string
	errs    []error
	calls   int
	seen    [][]Turn
}

func (g *scriptedGenerator) Generate(_ context.Context, _ string, conversation []Turn) (string, error) {
	i := g.calls
	g.calls++
	g.seen = append(g.seen, append([]Turn(nil), conversation...))
	if i < len(g.errs) && g.errs[i] != nil {
		return "", g.errs[i]
	}
	if i < len(g.replies) {
		return g.replies[i], nil
	}
	return "ok", nil
}

func words(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// streamingGenerator emits its reply word by word.
type streamingGenerator struct {
	scriptedGenerator
	streamed int
}

func (g *streamingGenerator) GenerateStream(ctx context.Context, system string, conversation []Turn, onChunk func(string) error) (string, error) {
	g.streamed++
	raw, err := g.Generate(ctx, system, conversation)
	if err != nil {
		return "", err
	}
	for _, part := range strings.SplitAfter(raw, " ") {
		if err := onChunk(part); err != nil {
			return "", err
		}
	}
	return raw, nil
}

// strictEmbedder refuses blank input the way hosted embedding APIs do.
type strictEmbedder struct {
	wordEmbedder
}

func (e *strictEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("embedding input is empty")
	}
	return e.wordEmbedder.Embed(ctx, text)
}
