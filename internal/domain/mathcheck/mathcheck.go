// Package mathcheck evaluates math assignments: it extracts a polynomial
// expression from free text, then checks an equation, differentiates,
// integrates or simplifies it exactly.
package mathcheck

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/assessly/internal/domain/model"
	"github.com/okian/assessly/internal/domain/symbolic"
	"github.com/okian/assessly/pkg/logger"
	"github.com/okian/assessly/pkg/metrics"
)

// Feedback messages.
const (
	msgEquationCorrect = "Your equation is correct! Well done. 🎉"

	msgEquationWrong = "Your equation simplifies to: %[1]s = %[2]s.\n" +
		"The equation is incorrect. Here's why:\n" +
		"- The left-hand side (LHS) simplifies to: %[1]s\n" +
		"- The right-hand side (RHS) simplifies to: %[2]s\n" +
		"- The difference between LHS and RHS is: %[3]s\n" +
		"Check your calculations and ensure both sides are balanced."

	msgDerivative = "The derivative of your expression is: %s.\n" +
		"Ensure you applied the differentiation rules correctly."

	msgIntegral = "The integral of your expression is: %s.\n" +
		"Double-check your integration steps."

	msgSimplify = "Your answer simplifies to: %s.\n" +
		"Ensure your calculations follow correct algebraic steps."
)

// Evaluator checks math answers. It is stateless and safe for concurrent use.
type Evaluator struct {
	parseOpts []symbolic.Option
	logger    logger.Logger
}

// New creates an Evaluator.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{logger: logger.Get().Named("mathcheck")}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate runs the math pipeline on text. operation may name the task
// explicitly; otherwise it is inferred from keywords. An "=" in the
// expression always selects the equation check.
func (e *Evaluator) Evaluate(ctx context.Context, text, operation string) (model.Result, error) {
	if err := ctx.Err(); err != nil {
		return model.Result{}, err
	}
	explicit, err := ParseOperation(operation)
	if err != nil {
		return model.Result{}, err
	}
	raw, ok := Extract(text)
	if !ok {
		return model.Result{}, model.ErrNoExpression
	}
	expr := Normalize(raw)

	op := explicit
	switch {
	case strings.Contains(expr, "="):
		op = OpEquation
	case op == "":
		op = DetectOperation(text)
	}
	metrics.RecordMathOperation(string(op))
	e.logger.Debug(ctx, "math expression extracted",
		logger.String("expression", expr),
		logger.String("operation", string(op)),
	)

	var feedback string
	switch op {
	case OpEquation:
		feedback, err = e.equation(expr)
	case OpDerivative:
		feedback, err = e.apply(expr, msgDerivative, func(p symbolic.Poly) fmt.Stringer { return p.Diff() })
	case OpIntegral:
		feedback, err = e.apply(expr, msgIntegral, func(p symbolic.Poly) fmt.Stringer { return p.Integrate() })
	default:
		feedback, err = e.apply(expr, msgSimplify, func(p symbolic.Poly) fmt.Stringer { return p })
	}
	if err != nil {
		return model.Result{}, model.Parsef(err, "Invalid math expression: %v", err)
	}
	return model.Result{Feedback: feedback}, nil
}

func (e *Evaluator) equation(expr string) (string, error) {
	sides := strings.Split(expr, "=")
	if len(sides) != 2 {
		return "", fmt.Errorf("expected exactly one \"=\" but found %d", len(sides)-1)
	}
	lhs, err := symbolic.Parse(sides[0], e.parseOpts...)
	if err != nil {
		return "", fmt.Errorf("left-hand side: %w", err)
	}
	rhs, err := symbolic.Parse(sides[1], e.parseOpts...)
	if err != nil {
		return "", fmt.Errorf("right-hand side: %w", err)
	}
	diff := lhs.Sub(rhs)
	if diff.IsZero() {
		return msgEquationCorrect, nil
	}
	return fmt.Sprintf(msgEquationWrong, lhs, rhs, diff), nil
}

func (e *Evaluator) apply(expr, msg string, fn func(symbolic.Poly) fmt.Stringer) (string, error) {
	p, err := symbolic.Parse(expr, e.parseOpts...)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(msg, fn(p)), nil
}
