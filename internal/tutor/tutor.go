package tutor

import (
	"context"
	"fmt"
	"strings"

	"askdocs/internal/rag"
)

const (
	// SummariseThreshold is the word count above which a transcript is condensed first.
	SummariseThreshold = 3000
	answerExcerptChars = 1500

	questionsMarker  = "===QUESTIONS==="
	vocabularyMarker = "===VOCABULARY==="
)

// Materials are the study aids generated from one transcript.
type Materials struct {
	Questions  string `json:"questions"`
	Vocabulary string `json:"vocabulary"`
	Answers    string `json:"answers"`
}

// Service builds tutor prompts on top of a stateless generator.
type Service struct {
	gen rag.Generator
}

func NewService(gen rag.Generator) *Service {
	return &Service{gen: gen}
}

func (s *Service) call(ctx context.Context, op, system, user string) (string, error) {
	raw, err := s.gen.Generate(ctx, system, []rag.Turn{{Role: rag.RoleUser, Text: user}})
	if err != nil {
		return "", rag.ServiceError(rag.ErrLLMService, op, err)
	}
	return rag.StripReasoning(raw), nil
}

func (s *Service) SummariseTranscript(ctx context.Context, transcript string) (string, error) {
	return s.call(ctx, "summarise transcript",
		"Transcript:\n"+transcript,
		"Summarise in ~400 words. Preserve key facts. Plain prose.")
}

// PrepareTranscript condenses transcripts longer than SummariseThreshold words.
func (s *Service) PrepareTranscript(ctx context.Context, transcript string) (string, bool, error) {
	if len(strings.Fields(transcript)) <= SummariseThreshold {
		return transcript, false, nil
	}
	summary, err := s.SummariseTranscript(ctx, transcript)
	if err != nil {
		return "", false, err
	}
	return summary, true, nil
}

// QuestionsAndVocabulary asks for two comprehension questions and a short
// glossary. Without both section markers the whole reply is the questions.
func (s *Service) QuestionsAndVocabulary(ctx context.Context, transcript, language string) (questions, vocabulary string, err error) {
	if strings.TrimSpace(language) == "" {
		return "", "", fmt.Errorf("language is empty: %w", rag.ErrInvalidInput)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Language: %s\n\n", language)
	fmt.Fprintf(&b, "TASK 1: Write 2 questions in %s only. Number 1-2. Add hints in %s.\n\n", language, language)
	b.WriteString("TASK 2: List 4-5 key words/phrases for answering questions.\n")
	b.WriteString("For each word, format like this:\n\n")
	fmt.Fprintf(&b, "**[%s word]**\n", language)
	b.WriteString("Meaning: [English definition]\n")
	fmt.Fprintf(&b, "Example: [%s sentence] → [English translation]\n", language)
	b.WriteString("Note: Only add 'Pronunciation:' line if the language uses non-Latin script (Arabic, Chinese, Japanese, Korean, etc.)\n\n")
	b.WriteString(questionsMarker + "\n[questions]\n" + vocabularyMarker + "\n[vocabulary]")

	text, err := s.call(ctx, "generate questions", "Transcript:\n"+transcript, b.String())
	if err != nil {
		return "", "", err
	}
	questions, vocabulary = SplitSections(text)
	return questions, vocabulary, nil
}

// SplitSections separates a questions/vocabulary reply on its markers.
func SplitSections(text string) (questions, vocabulary string) {
	if !strings.Contains(text, questionsMarker) || !strings.Contains(text, vocabularyMarker) {
		return text, ""
	}
	head, tail, _ := strings.Cut(text, vocabularyMarker)
	return strings.TrimSpace(strings.ReplaceAll(head, questionsMarker, "")), strings.TrimSpace(tail)
}

func (s *Service) Answers(ctx context.Context, questions, language, transcript string) (string, error) {
	return s.call(ctx, "generate answers",
		"Transcript:\n"+Excerpt(transcript, answerExcerptChars),
		fmt.Sprintf("Questions:\n%s\n\nWrite answers in %s only. Number to match. Be concise.", questions, language))
}

// Materials runs question, vocabulary and answer generation in order.
func (s *Service) Materials(ctx context.Context, transcript, language string) (*Materials, error) {
	questions, vocabulary, err := s.QuestionsAndVocabulary(ctx, transcript, language)
	if err != nil {
		return nil, err
	}
	answers, err := s.Answers(ctx, questions, language, transcript)
	if err != nil {
		return nil, err
	}
	return &Materials{Questions: questions, Vocabulary: vocabulary, Answers: answers}, nil
}

// SummariseChat returns "" without calling the model when nothing was said.
func (s *Service) SummariseChat(ctx context.Context, language string, exchanges []rag.Exchange) (string, error) {
	if len(exchanges) == 0 {
		return "", nil
	}
	lines := make([]string, 0, len(exchanges))
	for _, ex := range exchanges {
		lines = append(lines, fmt.Sprintf("Student: %s\nTutor: %s", ex.Question, ex.Reply))
	}
	return s.call(ctx, "summarise chat",
		fmt.Sprintf("You are a %s tutor.", language),
		fmt.Sprintf("Summarise chat in %s only. 3-5 sentences. Focus on language points.\n\n%s", language, strings.Join(lines, "\n")))
}

// NewChat opens a tutor conversation grounded on the transcript.
func (s *Service) NewChat(transcript, language string, observer rag.TurnObserver) *rag.ChatSession {
	system := fmt.Sprintf("You are a %s tutor. Answer questions about video, vocabulary, grammar. "+
		"Reply in the same language the student uses.\n\nTranscript:\n%s", language, transcript)
	return rag.NewChatSession(s.gen, system, observer)
}

// Greeting is the opening message sent on behalf of the student.
func Greeting(language string) string {
	return fmt.Sprintf("Greet in %s, ask if questions. 2 sentences.", language)
}

// Excerpt returns at most n runes of text, dropping a trailing partial word.
func Excerpt(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	cut := string(runes[:n])
	if i := strings.LastIndex(cut, " "); i > 0 {
		return cut[:i]
	}
	return cut
}
