package gemini

import "errors"

// Error definitions for the gemini package.
var (
	// ErrEmptyTopic is returned when no topic is given.
	ErrEmptyTopic = errors.New("topic cannot be empty")
)
