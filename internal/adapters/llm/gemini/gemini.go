// Package gemini adapts Google's Gemini API to feedback.Generator.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/assessly/pkg/logger"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// ProviderName labels metrics for this adapter.
const ProviderName = "gemini"

// DefaultModel is used when Config.Model is empty.
const DefaultModel = "gemini-2.0-flash-exp"

// Config holds explicit credentials; nothing is read from the environment.
type Config struct {
	APIKey string
	Model  string
	// ClientOptions are appended after the API key, e.g. a custom endpoint.
	ClientOptions []option.ClientOption
}

// Generator calls GenerateContent with a single text prompt.
type Generator struct {
	client *genai.Client
	model  string
	logger logger.Logger
}

// New creates a Generator. An empty API key yields a Generator whose calls
// fail with ErrEmptyAPIKey so the service can still start without it.
func New(ctx context.Context, cfg Config) (*Generator, error) {
	g := &Generator{
		model:  cfg.Model,
		logger: logger.Get().Named("gemini"),
	}
	if g.model == "" {
		g.model = DefaultModel
	}
	if cfg.APIKey == "" {
		g.logger.Warn(ctx, "no Gemini API key configured; general feedback will fail")
		return g, nil
	}
	opts := append([]option.ClientOption{option.WithAPIKey(cfg.APIKey)}, cfg.ClientOptions...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrClient, err)
	}
	g.client = client
	return g, nil
}

// Name implements feedback.Generator.
func (g *Generator) Name() string { return ProviderName }

// Model returns the configured model id.
func (g *Generator) Model() string { return g.model }

// Generate implements feedback.Generator.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.client == nil {
		return "", ErrEmptyAPIKey
	}
	resp, err := g.client.GenerativeModel(g.model).GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	text := responseText(resp)
	g.logger.Debug(ctx, "gemini response",
		logger.String("model", g.model),
		logger.Int("chars", len(text)),
	)
	return text, nil
}

// Close releases the underlying client.
func (g *Generator) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

// responseText joins the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	c := resp.Candidates[0]
	if c == nil || c.Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range c.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String()
}
