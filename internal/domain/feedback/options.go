package feedback

import (
	"time"

	"github.com/okian/assessly/pkg/logger"
)

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithTimeout bounds a single generator call.
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
