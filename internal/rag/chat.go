package rag

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

type ChatState int

const (
	ChatIdle ChatState = iota
	ChatAwaitingResponse
)

func (s ChatState) String() string {
	if s == ChatAwaitingResponse {
		return "awaiting_response"
	}
	return "idle"
}

// Exchange is one committed user message with the model's reply.
type Exchange struct {
	Question string `json:"question"`
	Reply    string `json:"reply"`
}

// TurnObserver is called after an exchange has been appended to history.
type TurnObserver func(ctx context.Context, ex Exchange)

// ChatSession keeps an append-only conversation under a fixed system
// instruction. Each Send resupplies the whole history to the generator.
type ChatSession struct {
	gen      Generator
	system   string
	observer TurnObserver

	mu      sync.Mutex
	state   ChatState
	history []Turn
}

func NewChatSession(gen Generator, system string, observer TurnObserver) *ChatSession {
	return &ChatSession{gen: gen, system: system, observer: observer}
}

// Send answers message with the prior conversation as context. A failed call
// leaves history untouched.
func (c *ChatSession) Send(ctx context.Context, message string) (string, error) {
	return c.send(ctx, message, nil)
}

// SendStream is Send with reply chunks passed to onChunk as they arrive, with
// reasoning blocks left out. Generators without streaming deliver the whole
// reply as one chunk.
func (c *ChatSession) SendStream(ctx context.Context, message string, onChunk func(chunk string) error) (string, error) {
	return c.send(ctx, message, onChunk)
}

func (c *ChatSession) send(ctx context.Context, message string, onChunk func(string) error) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", fmt.Errorf("message is empty: %w", ErrInvalidInput)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = ChatAwaitingResponse
	defer func() { c.state = ChatIdle }()

	conversation := make([]Turn, len(c.history), len(c.history)+1)
	copy(conversation, c.history)
	conversation = append(conversation, Turn{Role: RoleUser, Text: message})

	var filter *reasoningFilter
	if onChunk != nil {
		filter = newReasoningFilter(onChunk)
		onChunk = filter.write
	}
	raw, err := c.generate(ctx, conversation, onChunk)
	if err == nil && filter != nil {
		err = filter.flush()
	}
	if err != nil {
		return "", ServiceError(ErrLLMService, "generate chat reply", err)
	}
	reply := StripReasoning(raw)

	c.history = append(conversation, Turn{Role: RoleModel, Text: reply})
	if c.observer != nil {
		c.observer(ctx, Exchange{Question: message, Reply: reply})
	}
	return reply, nil
}

func (c *ChatSession) generate(ctx context.Context, conversation []Turn, onChunk func(string) error) (string, error) {
	if onChunk == nil {
		return c.gen.Generate(ctx, c.system, conversation)
	}
	if sg, ok := c.gen.(StreamGenerator); ok {
		return sg.GenerateStream(ctx, c.system, conversation, onChunk)
	}
	raw, err := c.gen.Generate(ctx, c.system, conversation)
	if err != nil {
		return "", err
	}
	if err := onChunk(raw); err != nil {
		return "", err
	}
	return raw, nil
}

func (c *ChatSession) System() string { return c.system }

// State is ChatAwaitingResponse only while a Send is in flight.
func (c *ChatSession) State() ChatState {
	if c.mu.TryLock() {
		defer c.mu.Unlock()
		return c.state
	}
	return ChatAwaitingResponse
}

// History returns a copy of all turns.
func (c *ChatSession) History() []Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Turn, len(c.history))
	copy(out, c.history)
	return out
}

// Exchanges pairs each user turn with the reply that followed it.
func (c *ChatSession) Exchanges() []Exchange {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Exchange, 0, len(c.history)/2)
	for i := 0; i+1 < len(c.history); i += 2 {
		out = append(out, Exchange{Question: c.history[i].Text, Reply: c.history[i+1].Text})
	}
	return out
}
