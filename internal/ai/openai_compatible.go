package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"askdocs/internal/rag"
)

// OpenAIConfig holds API settings for any OpenAI-compatible endpoint.
type OpenAIConfig struct {
	BaseURL            string
	APIKey             string
	ChatModel          string
	EmbeddingModel     string
	TranscriptionModel string
	Temperature        float32
	Timeout            time.Duration
}

// OpenAIClient implements rag.Generator, rag.BatchEmbedder and Transcriber.
type OpenAIClient struct {
	client *openai.Client
	cfg    OpenAIConfig
}

func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("openai api key is not set: %w", rag.ErrConfiguration)
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = openai.GPT4oMini
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = string(openai.SmallEmbedding3)
	}
	if cfg.TranscriptionModel == "" {
		cfg.TranscriptionModel = openai.Whisper1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	return &OpenAIClient{client: openai.NewClientWithConfig(clientCfg), cfg: cfg}, nil
}

func (c *OpenAIClient) Generate(ctx context.Context, system string, conversation []rag.Turn) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, c.chatRequest(system, conversation))
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty llm choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// GenerateStream calls onChunk for every content delta and returns the full reply.
func (c *OpenAIClient) GenerateStream(
	ctx context.Context,
	system string,
	conversation []rag.Turn,
	onChunk func(chunk string) error,
) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req := c.chatRequest(system, conversation)
	req.Stream = true
	stream, err := c.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion stream failed: %w", err)
	}
	defer stream.Close()

	var full strings.Builder
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read chat stream failed: %w", err)
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		text := chunk.Choices[0].Delta.Content
		if text == "" {
			continue
		}
		full.WriteString(text)
		if err := onChunk(text); err != nil {
			return "", err
		}
	}
	return full.String(), nil
}

func (c *OpenAIClient) chatRequest(system string, conversation []rag.Turn) openai.ChatCompletionRequest {
	messages := make([]openai.ChatCompletionMessage, 0, len(conversation)+1)
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	for _, turn := range conversation {
		role := openai.ChatMessageRoleUser
		if turn.Role == rag.RoleModel {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: turn.Text})
	}
	return openai.ChatCompletionRequest{
		Model:       c.cfg.ChatModel,
		Messages:    messages,
		Temperature: c.cfg.Temperature,
	}
}

// Transcribe sends audio to the transcription endpoint. filename is used for
// format detection by the server.
func (c *OpenAIClient) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*c.cfg.Timeout)
	defer cancel()

	resp, err := c.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    c.cfg.TranscriptionModel,
		FilePath: filename,
		Reader:   audio,
	})
	if err != nil {
		return "", rag.ServiceError(ErrSpeechService, "transcription", err)
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", fmt.Errorf("transcription is empty: %w", rag.ErrMalformedResponse)
	}
	return text, nil
}
