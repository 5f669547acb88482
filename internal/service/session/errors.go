package session

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSession is returned by actions when no engine is active.
	ErrNoSession = errors.New("no session is active")

	// ErrWrongEngine is returned when an action targets an engine other than
	// the active one.
	ErrWrongEngine = errors.New("action does not apply to the active session")

	// ErrContentNotFound is returned when the requested content does not exist.
	ErrContentNotFound = errors.New("content not found")
)

// ControllerError wraps unexpected failures of a controller operation.
type ControllerError struct {
	Operation string
	Err       error
}

// Error implements the error interface for ControllerError.
func (e *ControllerError) Error() string {
	return fmt.Sprintf("session %s failed: %v", e.Operation, e.Err)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ControllerError) Unwrap() error {
	return e.Err
}
