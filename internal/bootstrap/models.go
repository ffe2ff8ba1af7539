package bootstrap

import (
	"fmt"
	"log"
	"time"

	"askdocs/internal/ai"
	"askdocs/internal/config"
	"askdocs/internal/rag"
)

// Models are the model-service clients selected by llm.provider.
type Models struct {
	Embedder    rag.Embedder
	Generator   rag.Generator
	Transcriber ai.Transcriber
	Speech      ai.SpeechSynthesizer
	// Tag identifies the provider and models in memo keys.
	Tag string
}

func NewModels(cfg *config.Config) (*Models, error) {
	m := &Models{}
	switch cfg.LLM.Provider {
	case config.ProviderOllama:
		client, err := ai.NewOllamaClient(ai.OllamaConfig{
			Host:           cfg.Ollama.Host,
			ChatModel:      cfg.Ollama.Model,
			EmbeddingModel: cfg.Ollama.EmbeddingModel,
			Temperature:    float32(cfg.LLM.Temperature),
			Timeout:        cfg.LLMTimeout(),
		})
		if err != nil {
			return nil, err
		}
		m.Embedder, m.Generator = client, client
		m.Tag = config.ProviderOllama + "/" + cfg.Ollama.EmbeddingModel + "/" + cfg.Ollama.Model
	default:
		client, err := ai.NewOpenAIClient(ai.OpenAIConfig{
			BaseURL:            cfg.LLM.BaseURL,
			APIKey:             cfg.LLM.APIKey,
			ChatModel:          cfg.LLM.Model,
			EmbeddingModel:     cfg.LLM.EmbeddingModel,
			TranscriptionModel: cfg.LLM.TranscriptionModel,
			Temperature:        float32(cfg.LLM.Temperature),
			Timeout:            cfg.LLMTimeout(),
		})
		if err != nil {
			return nil, err
		}
		m.Embedder, m.Generator, m.Transcriber = client, client, client
		m.Tag = config.ProviderOpenAI + "/" + cfg.LLM.EmbeddingModel + "/" + cfg.LLM.Model
	}

	if cfg.TTS.BaseURL != "" {
		speech, err := ai.NewXTTSClient(cfg.TTS.BaseURL, time.Duration(cfg.TTS.TimeoutSeconds)*time.Second)
		if err != nil {
			return nil, fmt.Errorf("create tts client failed: %w", err)
		}
		m.Speech = speech
	} else {
		log.Printf("tts.base_url not set, speech output disabled")
	}
	return m, nil
}
