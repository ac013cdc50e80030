package feedback

import "errors"

// Sentinel kinds for feedback errors.
var (
	ErrPrompt      = errors.New("render prompt")
	ErrNoGenerator = errors.New("no text generator configured")
)
