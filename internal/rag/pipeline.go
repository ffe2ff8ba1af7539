package rag

import (
	"context"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Answer is a synthesized reply together with the context it was grounded on.
type Answer struct {
	Text    string      `json:"answer"`
	Sources []Retrieved `json:"sources"`
}

// Pipeline runs retrieval followed by synthesis over one built index.
type Pipeline struct {
	Index       *Index
	Synthesizer *Synthesizer
	TopK        int
}

func NewPipeline(index *Index, synth *Synthesizer, topK int) *Pipeline {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Pipeline{Index: index, Synthesizer: synth, TopK: topK}
}

// Ask retrieves context for question and answers it. k <= 0 uses the
// pipeline default.
func (p *Pipeline) Ask(ctx context.Context, question string, k int) (*Answer, error) {
	if k <= 0 {
		k = p.TopK
	}
	retrieved, err := p.Index.Retrieve(ctx, question, k)
	if err != nil {
		return nil, err
	}
	text, err := p.Synthesizer.Answer(ctx, retrieved, question)
	if err != nil {
		return nil, err
	}
	return &Answer{Text: text, Sources: retrieved}, nil
}

// AskJSON is Ask with structured output decoded into out.
func (p *Pipeline) AskJSON(ctx context.Context, question string, schema *jsonschema.Schema, out any) ([]Retrieved, error) {
	retrieved, err := p.Index.Retrieve(ctx, question, p.TopK)
	if err != nil {
		return nil, err
	}
	if err := p.Synthesizer.AnswerJSON(ctx, retrieved, question, schema, out); err != nil {
		return retrieved, err
	}
	return retrieved, nil
}
