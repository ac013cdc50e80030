package mathcheck

import (
	"strings"

	"github.com/okian/assessly/internal/domain/model"
)

// Operation is the math task performed on an extracted expression.
type Operation string

// Supported operations.
const (
	OpEquation   Operation = "equation"
	OpDerivative Operation = "derivative"
	OpIntegral   Operation = "integral"
	OpSimplify   Operation = "simplify"
)

// ParseOperation validates an explicit operation name. Empty means infer.
func ParseOperation(name string) (Operation, error) {
	switch op := Operation(strings.ToLower(strings.TrimSpace(name))); op {
	case "":
		return "", nil
	case OpDerivative, OpIntegral, OpSimplify:
		return op, nil
	default:
		return "", model.Validation("Unknown math operation: " + name)
	}
}

// DetectOperation infers the operation from keywords in the original text.
// Matching is a plain substring test, so "print" counts as "int".
func DetectOperation(text string) Operation {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "derivative") || strings.Contains(lower, "diff"):
		return OpDerivative
	case strings.Contains(lower, "integral") || strings.Contains(lower, "int"):
		return OpIntegral
	default:
		return OpSimplify
	}
}
