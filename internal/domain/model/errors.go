package model

import (
	"errors"
	"fmt"
)

// Kind classifies evaluation errors for status mapping.
type Kind int

// Error kinds.
const (
	KindValidation Kind = iota + 1
	KindParse
	KindService
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindParse:
		return "parse"
	case KindService:
		return "service"
	default:
		return "unknown"
	}
}

// Error is a domain failure whose Message is shown to the client verbatim.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by kind and message so sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && t.Message == e.Message
}

// Validation builds a KindValidation error.
func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

// Parsef builds a KindParse error wrapping cause, if any.
func Parsef(cause error, format string, args ...any) *Error {
	return &Error{Kind: KindParse, Message: fmt.Sprintf(format, args...), Err: cause}
}

// Servicef builds a KindService error wrapping cause, if any.
func Servicef(cause error, format string, args ...any) *Error {
	return &Error{Kind: KindService, Message: fmt.Sprintf(format, args...), Err: cause}
}

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// Client-facing sentinel errors.
var (
	ErrResponseRequired = Validation("Student response is required")
	ErrNoExpression     = Validation("No valid mathematical expression found in the input.")
	ErrUnsafeCode       = Parsef(nil, "Unsafe code detected")
)
