// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load layers files and environment on top of the defaults.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"context"
	"runtime"
	"time"
)

// Provider names accepted by LLMProvider.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":5000".
	Addr string `koanf:"addr"`

	// MaxBodyBytes caps the size of a POST /evaluate_assignment body.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`

	// WorkerCount sets the number of evaluation workers.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the in-memory evaluation queue.
	QueueSize int `koanf:"queue_size"`

	// LLMProvider selects the feedback generator: gemini or openai.
	LLMProvider string `koanf:"llm_provider"`

	// GoogleAPIKey and TextModel configure the Gemini generator.
	GoogleAPIKey string `koanf:"google_api_key"`
	TextModel    string `koanf:"text_model"`

	// OpenAI-compatible generator settings.
	OpenAIAPIKey  string `koanf:"openai_api_key"`
	OpenAIBaseURL string `koanf:"openai_base_url"`
	OpenAIModel   string `koanf:"openai_model"`

	// FeedbackTimeoutMS bounds a single text generation call.
	FeedbackTimeoutMS int `koanf:"feedback_timeout_ms"`

	// CodeTimeoutMS and CodeMaxSteps bound one code execution.
	CodeTimeoutMS int    `koanf:"code_timeout_ms"`
	CodeMaxSteps  uint64 `koanf:"code_max_steps"`

	// MathMaxExponent caps integer powers accepted by the math parser.
	MathMaxExponent int `koanf:"math_max_exponent"`

	// MetricsNamespace and MetricsSubsystem qualify every exported metric.
	MetricsNamespace string `koanf:"metrics_namespace"`
	MetricsSubsystem string `koanf:"metrics_subsystem"`

	// MetricsPrefix is prepended to metric names inside the subsystem.
	MetricsPrefix string `koanf:"metrics_prefix"`

	// MetricsLabels are constant labels attached to every collector, e.g.
	// the deployment environment. Set them from the YAML file.
	MetricsLabels map[string]string `koanf:"metrics_labels"`
}

// New creates a Config populated with defaults. Context is accepted first
// to follow the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":5000",
		MaxBodyBytes:      1 << 20,
		WorkerCount:       runtime.NumCPU() * 4,
		QueueSize:         1024,
		LLMProvider:       ProviderGemini,
		TextModel:         "gemini-2.0-flash-exp",
		OpenAIModel:       "gpt-4o-mini",
		FeedbackTimeoutMS: 30_000,
		CodeTimeoutMS:     2_000,
		CodeMaxSteps:      1_000_000,
		MathMaxExponent:   64,
		MetricsNamespace:  "assessly",
		MetricsSubsystem:  "evaluator",
	}
}

// FeedbackTimeout returns FeedbackTimeoutMS as a duration.
func (c *Config) FeedbackTimeout() time.Duration {
	return time.Duration(c.FeedbackTimeoutMS) * time.Millisecond
}

// CodeTimeout returns CodeTimeoutMS as a duration.
func (c *Config) CodeTimeout() time.Duration {
	return time.Duration(c.CodeTimeoutMS) * time.Millisecond
}
