package symbolic

import (
	"errors"
	"fmt"
)

// Sentinel errors for evaluation failures.
var (
	ErrDivisionByZero  = errors.New("division by zero")
	ErrNegativePower   = errors.New("negative power of a multi-term expression is not supported")
	ErrInexactDivision = errors.New("division by a multi-term expression that is not a factor is not supported")
	ErrExponent        = errors.New("exponent must be an integer constant")
	ErrExponentRange   = errors.New("exponent out of range")
	ErrDegreeRange     = errors.New("expression degree out of range")
	ErrSyntax          = errors.New("syntax error")
)

// SyntaxError reports where parsing failed. It matches ErrSyntax.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s at position %d", e.Msg, e.Pos)
}

// Is makes errors.Is(err, ErrSyntax) true.
func (e *SyntaxError) Is(target error) bool { return target == ErrSyntax }
