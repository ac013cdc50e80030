package openai

import "errors"

// Sentinel kinds for adapter errors.
var (
	ErrEmptyAPIKey = errors.New("openai api key is empty")
)
