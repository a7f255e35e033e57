package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// DefaultAnthropicModel is used when no model is configured.
const DefaultAnthropicModel = "claude-haiku-4-5"

// AnthropicConfig configures the Anthropic provider.
type AnthropicConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	// MaxRetries overrides the retry count when non-nil. The model call is a
	// single attempt unless this is set.
	MaxRetries *int
}

// Anthropic implements Model over the Anthropic Messages API.
type Anthropic struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropic creates an Anthropic model.
func NewAnthropic(cfg AnthropicConfig) (*Anthropic, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: %w", ErrMissingAPIKey)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultAnthropicModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}

	retries := 0
	if cfg.MaxRetries != nil {
		retries = *cfg.MaxRetries
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(retries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Anthropic{
		client:    anthropic.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: int64(cfg.MaxTokens),
	}, nil
}

// Name implements Model.
func (p *Anthropic) Name() string { return "anthropic/" + p.model }

// Generate implements Model.
func (p *Anthropic) Generate(ctx context.Context, prompt string) (string, error) {
	msg, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: p.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("messages: %w", err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}

	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
