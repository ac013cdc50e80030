// Package feedback produces free-form assignment feedback through an
// external text generation service.
package feedback

import (
	"context"
	"strings"
	"time"

	"github.com/okian/assessly/internal/domain/model"
	"github.com/okian/assessly/pkg/logger"
	"github.com/okian/assessly/pkg/metrics"
)

// DefaultTimeout bounds one generator call unless overridden.
const DefaultTimeout = 30 * time.Second

// Placeholder is returned when the generator answers without text.
const Placeholder = "No feedback generated."

// Generator turns a prompt into text. Implementations live in
// internal/adapters/llm.
type Generator interface {
	// Name labels metrics and logs, e.g. "gemini".
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// Evaluator wraps a Generator with the instructional prompt.
type Evaluator struct {
	gen     Generator
	timeout time.Duration
	logger  logger.Logger
}

// New creates an Evaluator around gen.
func New(gen Generator, opts ...Option) *Evaluator {
	e := &Evaluator{
		gen:     gen,
		timeout: DefaultTimeout,
		logger:  logger.Get().Named("feedback"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate asks the generator for feedback on req.
func (e *Evaluator) Evaluate(ctx context.Context, req model.Request) (model.Result, error) {
	if e.gen == nil {
		return model.Result{}, model.Servicef(ErrNoGenerator, "AI response error: %v", ErrNoGenerator)
	}
	text, err := RenderPrompt(PromptData{
		AssignmentType:   req.AssignmentType,
		ProficiencyLevel: req.ProficiencyLevel,
		Response:         req.Response,
	})
	if err != nil {
		return model.Result{}, err
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	provider := e.gen.Name()
	start := time.Now()
	out, err := e.gen.Generate(callCtx, text)
	metrics.RecordFeedbackLatency(provider, float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordFeedbackCall(provider, "error")
		e.logger.Warn(ctx, "text generation failed",
			logger.String("provider", provider),
			logger.Error(err),
		)
		return model.Result{}, model.Servicef(err, "AI response error: %v", err)
	}
	if strings.TrimSpace(out) == "" {
		metrics.RecordFeedbackCall(provider, "empty")
		return model.Result{Feedback: Placeholder}, nil
	}
	metrics.RecordFeedbackCall(provider, "ok")
	return model.Result{Feedback: out}, nil
}
