package smoke

import "errors"

// Sentinel kinds for smoke run errors.
var (
	ErrUnhealthy = errors.New("service is not healthy")
	ErrMismatch  = errors.New("responses did not match expectations")
)
