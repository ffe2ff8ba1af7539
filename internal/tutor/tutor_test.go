package tutor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"askdocs/internal/rag"
)

type recordingGenerator struct {
	reply   string
	err     error
	systems []string
	prompts []string
}

func (g *recordingGenerator) Generate(_ context.Context, system string, conversation []rag.Turn) (string, error) {
	g.systems = append(g.systems, system)
	g.prompts = append(g.prompts, conversation[len(conversation)-1].Text)
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

func TestSplitSections(t *testing.T) {
	cases := []struct {
		name, in, questions, vocab string
	}{
		{"both markers", "===QUESTIONS===\n1. ¿Qué?\n===VOCABULARY===\n**hola**", "1. ¿Qué?", "**hola**"},
		{"missing vocabulary", "===QUESTIONS===\n1. ¿Qué?", "===QUESTIONS===\n1. ¿Qué?", ""},
		{"no markers", "just text", "just text", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q, v := SplitSections(tc.in)
			if q != tc.questions || v != tc.vocab {
				t.Fatalf("got (%q, %q), want (%q, %q)", q, v, tc.questions, tc.vocab)
			}
		})
	}
}

func TestQuestionsAndVocabulary(t *testing.T) {
	gen := &recordingGenerator{reply: "<think>plan</think>===QUESTIONS===\nQ1\n===VOCABULARY===\nV1"}
	q, v, err := NewService(gen).QuestionsAndVocabulary(context.Background(), "transcript body", "Spanish")
	if err != nil {
		t.Fatal(err)
	}
	if q != "Q1" || v != "V1" {
		t.Fatalf("got (%q, %q)", q, v)
	}
	if gen.systems[0] != "Transcript:\ntranscript body" {
		t.Fatalf("system = %q", gen.systems[0])
	}
	if !strings.Contains(gen.prompts[0], "Write 2 questions in Spanish only") {
		t.Fatalf("prompt = %q", gen.prompts[0])
	}
}

func TestAnswersUsesExcerpt(t *testing.T) {
	gen := &recordingGenerator{reply: "1. Sí"}
	transcript := strings.Repeat("palabra ", 400)
	if _, err := NewService(gen).Answers(context.Background(), "1. ?", "Spanish", transcript); err != nil {
		t.Fatal(err)
	}
	excerpt := strings.TrimPrefix(gen.systems[0], "Transcript:\n")
	if len([]rune(excerpt)) > answerExcerptChars || strings.HasSuffix(excerpt, " ") || strings.HasSuffix(excerpt, "pal") {
		t.Fatalf("excerpt not cut at a word boundary: %d runes, tail %q", len([]rune(excerpt)), excerpt[len(excerpt)-10:])
	}
}

func TestPrepareTranscript(t *testing.T) {
	gen := &recordingGenerator{reply: "short summary"}
	svc := NewService(gen)
	ctx := context.Background()

	short := strings.Repeat("w ", SummariseThreshold)
	got, summarised, err := svc.PrepareTranscript(ctx, short)
	if err != nil || summarised || got != short {
		t.Fatalf("short transcript changed: summarised=%v err=%v", summarised, err)
	}

	long := strings.Repeat("w ", SummariseThreshold+1)
	got, summarised, err = svc.PrepareTranscript(ctx, long)
	if err != nil || !summarised || got != "short summary" {
		t.Fatalf("long transcript: got %q summarised=%v err=%v", got, summarised, err)
	}
}

func TestSummariseChat(t *testing.T) {
	gen := &recordingGenerator{reply: "summary"}
	svc := NewService(gen)
	got, err := svc.SummariseChat(context.Background(), "French", nil)
	if err != nil || got != "" || len(gen.prompts) != 0 {
		t.Fatalf("empty chat: %q %v calls=%d", got, err, len(gen.prompts))
	}

	got, err = svc.SummariseChat(context.Background(), "French", []rag.Exchange{{Question: "bonjour?", Reply: "Bonjour!"}})
	if err != nil || got != "summary" {
		t.Fatalf("got %q, %v", got, err)
	}
	if !strings.Contains(gen.prompts[0], "Student: bonjour?\nTutor: Bonjour!") {
		t.Fatalf("prompt = %q", gen.prompts[0])
	}
}

func TestServiceWrapsLLMFailure(t *testing.T) {
	gen := &recordingGenerator{err: errors.New("quota")}
	_, err := NewService(gen).SummariseTranscript(context.Background(), "x")
	if !errors.Is(err, rag.ErrLLMService) {
		t.Fatalf("err = %v, want ErrLLMService", err)
	}
}

func TestNewChatCarriesTranscript(t *testing.T) {
	gen := &recordingGenerator{reply: "¡Hola!"}
	chat := NewService(gen).NewChat("el video", "Spanish", nil)
	if _, err := chat.Send(context.Background(), Greeting("Spanish")); err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(gen.systems[0], "Transcript:\nel video") {
		t.Fatalf("system = %q", gen.systems[0])
	}
}

func TestExcerpt(t *testing.T) {
	if got := Excerpt("short", 10); got != "short" {
		t.Fatalf("got %q", got)
	}
	if got := Excerpt("alpha beta gamma", 12); got != "alpha beta" {
		t.Fatalf("got %q", got)
	}
}
