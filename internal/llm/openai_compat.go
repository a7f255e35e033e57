package llm

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Provider defaults.
const (
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"
	DefaultGeminiModel   = "gemini-2.5-flash"
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	DefaultOpenAIModel   = "gpt-4o-mini"

	defaultMaxTokens = 2048
)

// OpenAICompatConfig configures a provider that speaks the OpenAI chat
// completions API. Gemini is reached through its OpenAI-compatible endpoint.
type OpenAICompatConfig struct {
	ProviderName string
	APIKey       string
	BaseURL      string
	Model        string
	MaxTokens    int
	DefaultURL   string
	DefaultModel string
}

// OpenAICompat implements Model over the chat completions API.
type OpenAICompat struct {
	client    *openai.Client
	provider  string
	model     string
	maxTokens int
}

// NewOpenAICompat creates an OpenAI-compatible model.
func NewOpenAICompat(cfg OpenAICompatConfig) (*OpenAICompat, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s: %w", cfg.ProviderName, ErrMissingAPIKey)
	}
	if cfg.Model == "" {
		cfg.Model = cfg.DefaultModel
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = cfg.DefaultURL
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = strings.TrimRight(baseURL, "/")

	return &OpenAICompat{
		client:    openai.NewClientWithConfig(clientCfg),
		provider:  cfg.ProviderName,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}, nil
}

// Name implements Model.
func (p *OpenAICompat) Name() string { return p.provider + "/" + p.model }

// Generate implements Model.
func (p *OpenAICompat) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     p.model,
		MaxTokens: p.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
