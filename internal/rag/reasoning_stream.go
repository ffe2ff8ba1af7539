package rag

import "strings"

const (
	thinkOpen  = "<think>"
	thinkClose = "</think>"
)

// reasoningFilter applies StripReasoning to a reply that arrives in chunks.
// Text from an open <think> tag, or from what may become one, is held back
// until a later chunk settles it.
type reasoningFilter struct {
	emit    func(string) error
	pending string
	started bool
}

func newReasoningFilter(emit func(string) error) *reasoningFilter {
	return &reasoningFilter{emit: emit}
}

func (f *reasoningFilter) write(chunk string) error {
	f.pending += chunk
	for {
		i := strings.Index(f.pending, thinkOpen)
		if i < 0 {
			keep := partialSuffix(f.pending, thinkOpen)
			visible := f.pending[:len(f.pending)-keep]
			f.pending = f.pending[len(f.pending)-keep:]
			return f.out(visible)
		}
		if err := f.out(f.pending[:i]); err != nil {
			return err
		}
		f.pending = f.pending[i:]
		j := strings.Index(f.pending, thinkClose)
		if j < 0 {
			return nil
		}
		f.pending = f.pending[j+len(thinkClose):]
	}
}

// flush emits what is still held back; an unclosed block stays visible, as it
// does in StripReasoning.
func (f *reasoningFilter) flush() error {
	rest := f.pending
	f.pending = ""
	return f.out(rest)
}

func (f *reasoningFilter) out(text string) error {
	if !f.started {
		text = strings.TrimLeft(text, " \t\r\n")
	}
	if text == "" {
		return nil
	}
	f.started = true
	return f.emit(text)
}

// partialSuffix is the length of the longest suffix of s that is a proper
// prefix of tag.
func partialSuffix(s, tag string) int {
	for n := min(len(s), len(tag)-1); n > 0; n-- {
		if strings.HasSuffix(s, tag[:n]) {
			return n
		}
	}
	return 0
}
