// Package llm provides the generative-model backends used for extraction.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonesrussell/north-cloud/enrichment/internal/config"
)

// ErrEmptyResponse is returned when a provider answers with no text.
var ErrEmptyResponse = errors.New("model returned an empty response")

// ErrMissingAPIKey is returned when a provider is built without credentials.
var ErrMissingAPIKey = errors.New("API key is required")

// Model sends one prompt and returns the model's text answer.
type Model interface {
	Generate(ctx context.Context, prompt string) (string, error)
	// Name identifies the provider and model, e.g. "gemini/gemini-2.5-flash".
	Name() string
}

// New builds the Model selected by cfg.Provider.
func New(cfg config.LLMConfig) (Model, error) {
	switch cfg.Provider {
	case config.ProviderGemini, "":
		return newOpenAICompatModel(cfg, config.ProviderGemini, DefaultGeminiBaseURL, DefaultGeminiModel)
	case config.ProviderOpenAI:
		return newOpenAICompatModel(cfg, config.ProviderOpenAI, DefaultOpenAIBaseURL, DefaultOpenAIModel)
	case config.ProviderAnthropic:
		m, err := NewAnthropic(AnthropicConfig{
			APIKey:    cfg.APIKey,
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Model,
			MaxTokens: cfg.MaxTokens,
		})
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

func newOpenAICompatModel(cfg config.LLMConfig, provider, defaultURL, defaultModel string) (Model, error) {
	m, err := NewOpenAICompat(OpenAICompatConfig{
		ProviderName: provider,
		APIKey:       cfg.APIKey,
		BaseURL:      cfg.BaseURL,
		Model:        cfg.Model,
		MaxTokens:    cfg.MaxTokens,
		DefaultURL:   defaultURL,
		DefaultModel: defaultModel,
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}
