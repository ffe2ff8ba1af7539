package rag

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const (
	DefaultSystemPrompt = "You are a helpful and accurate question-answering assistant. " +
		"Answer the user's question based only on the context provided. " +
		"If the context does not contain sufficient information to answer the question, " +
		"say that you don't know. Do not make up an answer. Keep your answer concise."

	noContextBlock = "No context is available for this question."
)

var reasoningPattern = regexp.MustCompile(`(?s)<think>.*?</think>`)

// StripReasoning removes every <think>...</think> block and trims the result.
func StripReasoning(text string) string {
	return strings.TrimSpace(reasoningPattern.ReplaceAllString(text, ""))
}

type Synthesizer struct {
	gen    Generator
	system string
}

type SynthesizerOption func(*Synthesizer)

// WithSystemPrompt replaces the default instruction. The prompt should still
// tell the model to admit when the context is insufficient.
func WithSystemPrompt(prompt string) SynthesizerOption {
	return func(s *Synthesizer) {
		if strings.TrimSpace(prompt) != "" {
			s.system = prompt
		}
	}
}

func NewSynthesizer(gen Generator, opts ...SynthesizerOption) *Synthesizer {
	s := &Synthesizer{gen: gen, system: DefaultSystemPrompt}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BuildPrompt renders the fixed template for question over the retrieved segments.
func (s *Synthesizer) BuildPrompt(retrieved []Retrieved, question string) (system, user string) {
	var b strings.Builder
	b.WriteString("Context:")
	if len(retrieved) == 0 {
		b.WriteString("\n")
		b.WriteString(noContextBlock)
	} else {
		for _, r := range retrieved {
			b.WriteString("\n---\n")
			b.WriteString(r.Segment.Text)
		}
		b.WriteString("\n---")
	}
	b.WriteString("\n\nQuestion: ")
	b.WriteString(strings.TrimSpace(question))
	b.WriteString("\n\nAnswer:")
	return s.system, b.String()
}

// Answer returns the model's reply with reasoning markup removed.
func (s *Synthesizer) Answer(ctx context.Context, retrieved []Retrieved, question string) (string, error) {
	raw, err := s.generate(ctx, retrieved, question)
	if err != nil {
		return "", err
	}
	return StripReasoning(raw), nil
}

// AnswerJSON asks for structured output, validates it against schema and
// decodes it into out. Unparseable or invalid payloads are ErrMalformedResponse.
func (s *Synthesizer) AnswerJSON(ctx context.Context, retrieved []Retrieved, question string, schema *jsonschema.Schema, out any) error {
	raw, err := s.generate(ctx, retrieved, question)
	if err != nil {
		return err
	}
	return DecodeStructured(StripReasoning(raw), schema, out)
}

func (s *Synthesizer) generate(ctx context.Context, retrieved []Retrieved, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", fmt.Errorf("question is empty: %w", ErrInvalidInput)
	}
	system, user := s.BuildPrompt(retrieved, question)
	raw, err := s.gen.Generate(ctx, system, []Turn{{Role: RoleUser, Text: user}})
	if err != nil {
		return "", ServiceError(ErrLLMService, "generate answer", err)
	}
	return raw, nil
}
