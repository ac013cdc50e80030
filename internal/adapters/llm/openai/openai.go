// Package openai adapts any OpenAI-compatible chat completion API to
// feedback.Generator.
package openai

import (
	"context"
	"net/http"

	"github.com/okian/assessly/pkg/logger"

	"github.com/sashabaranov/go-openai"
)

// ProviderName labels metrics for this adapter.
const ProviderName = "openai"

// DefaultModel is used when Config.Model is empty.
const DefaultModel = "gpt-4o-mini"

// Config holds explicit credentials; nothing is read from the environment.
type Config struct {
	APIKey string
	Model  string
	// BaseURL points at an OpenAI-compatible endpoint. Empty keeps the
	// library default.
	BaseURL    string
	HTTPClient *http.Client
}

// Generator sends the prompt as a single user message.
type Generator struct {
	client *openai.Client
	apiKey string
	model  string
	logger logger.Logger
}

// New creates a Generator.
func New(cfg Config) *Generator {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	if cfg.HTTPClient != nil {
		config.HTTPClient = cfg.HTTPClient
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &Generator{
		client: openai.NewClientWithConfig(config),
		apiKey: cfg.APIKey,
		model:  model,
		logger: logger.Get().Named("openai"),
	}
}

// Name implements feedback.Generator.
func (g *Generator) Name() string { return ProviderName }

// Model returns the configured model id.
func (g *Generator) Model() string { return g.model }

// Generate implements feedback.Generator.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.apiKey == "" {
		return "", ErrEmptyAPIKey
	}
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	g.logger.Debug(ctx, "chat completion",
		logger.String("model", g.model),
		logger.Int("total_tokens", resp.Usage.TotalTokens),
	)
	return resp.Choices[0].Message.Content, nil
}
