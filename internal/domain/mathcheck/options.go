package mathcheck

import (
	"github.com/okian/assessly/internal/domain/symbolic"
	"github.com/okian/assessly/pkg/logger"
)

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithMaxExponent bounds literal exponents accepted from students.
func WithMaxExponent(n int) Option {
	return func(e *Evaluator) {
		if n > 0 {
			e.parseOpts = append(e.parseOpts, symbolic.WithMaxExponent(n))
		}
	}
}

// WithMaxDegree bounds the degree of intermediate results.
func WithMaxDegree(n int) Option {
	return func(e *Evaluator) {
		if n > 0 {
			e.parseOpts = append(e.parseOpts, symbolic.WithMaxDegree(n))
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
