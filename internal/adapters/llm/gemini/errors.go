package gemini

import "errors"

// Sentinel kinds for adapter errors.
var (
	ErrEmptyAPIKey = errors.New("gemini api key is empty")
	ErrClient      = errors.New("create gemini client")
)
