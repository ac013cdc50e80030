package codeexec

import (
	"time"

	"github.com/okian/assessly/pkg/logger"
)

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithMaxSteps bounds the interpreter steps of one program.
func WithMaxSteps(steps uint64) Option {
	return func(e *Evaluator) {
		if steps > 0 {
			e.maxSteps = steps
		}
	}
}

// WithTimeout bounds the wall-clock time of one program.
func WithTimeout(d time.Duration) Option {
	return func(e *Evaluator) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Evaluator) {
		if l != nil {
			e.logger = l
		}
	}
}
