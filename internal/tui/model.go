package tui

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"askdocs/internal/rag"
)

// Asker is the TUI-facing subset of rag.Pipeline.
type Asker interface {
	Ask(ctx context.Context, question string, k int) (*rag.Answer, error)
}

type answerMsg struct {
	question string
	answer   *rag.Answer
	err      error
}

// Model is the Bubble Tea model for document question answering.
type Model struct {
	asker    Asker
	topK     int
	timeout  time.Duration
	input    textinput.Model
	viewport viewport.Model
	summary  string
	status   string
	answer   *rag.Answer
	question string
	cursor   int
	busy     bool
	ready    bool
}

func New(asker Asker, summary string, topK int, timeout time.Duration) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return Model{
		asker:    asker,
		topK:     topK,
		timeout:  timeout,
		input:    ti,
		viewport: viewport.New(0, 0),
		summary:  summary,
		status:   "Indexed. Ask away.",
	}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header, summary, status, spacer
		m.viewport.Width = maxInt(20, msg.Width)
		m.viewport.Height = maxInt(3, msg.Height-reserved-rh)
		m.viewport.SetContent(m.renderAnswer())
		return m, nil
	case answerMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			m.answer = nil
		} else {
			m.status = fmt.Sprintf("Answer to %q (%d sources, up/down to browse)", msg.question, len(msg.answer.Sources))
			m.answer = msg.answer
			m.question = msg.question
			m.cursor = 0
		}
		m.viewport.SetContent(m.renderAnswer())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.busy {
				return m, nil
			}
			m.busy = true
			m.status = "Thinking..."
			m.input.SetValue("")
			return m, m.ask(q)
		case "down":
			if n := m.sourceCount(); n > 0 {
				m.cursor = (m.cursor + 1) % n
				m.viewport.SetContent(m.renderAnswer())
				return m, nil
			}
		case "up":
			if n := m.sourceCount(); n > 0 {
				m.cursor = (m.cursor - 1 + n) % n
				m.viewport.SetContent(m.renderAnswer())
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("askdocs")
	summary := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.summary)
	results := resultBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	return header + "\n" + summary + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) ask(question string) tea.Cmd {
	asker, k, timeout := m.asker, m.topK, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		answer, err := asker.Ask(ctx, question, k)
		return answerMsg{question: question, answer: answer, err: err}
	}
}

func (m Model) sourceCount() int {
	if m.answer == nil {
		return 0
	}
	return len(m.answer.Sources)
}

func (m Model) renderAnswer() string {
	if m.answer == nil {
		return "No answer yet."
	}
	var b strings.Builder
	b.WriteString(answerStyle.Render(m.answer.Text))
	if n := len(m.answer.Sources); n > 0 {
		src := m.answer.Sources[m.cursor]
		fmt.Fprintf(&b, "\n\nSource %d/%d  segment=%d  score=%.3f\n\n", m.cursor+1, n, src.Segment.Ordinal, src.Score)
		b.WriteString(highlightBestSentence(src.Segment.Text, m.question))
	}
	return b.String()
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	answerStyle    = lipgloss.NewStyle().Bold(true)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	unicodeWordRe  = regexp.MustCompile(`\p{L}+`)
	sentenceRe     = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)
)

// highlightBestSentence marks the sentence sharing most words with query.
func highlightBestSentence(text, query string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	sentences := sentenceRe.FindAllString(text, -1)
	if len(sentences) == 0 {
		sentences = []string{strings.TrimSpace(text)}
	}
	qTokens := tokenSet(query)
	if len(qTokens) == 0 {
		return strings.Join(sentences, " ")
	}
	bestIdx, bestScore := 0, -1
	for i, s := range sentences {
		score := 0
		for t := range tokenSet(s) {
			if _, ok := qTokens[t]; ok {
				score++
			}
		}
		if score > bestScore {
			bestIdx, bestScore = i, score
		}
	}
	for i := range sentences {
		sent := strings.TrimSpace(sentences[i])
		if i == bestIdx {
			sent = highlightStyle.Render(sent)
		}
		sentences[i] = sent
	}
	return strings.Join(sentences, " ")
}

func tokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	out := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		out[t] = struct{}{}
	}
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
