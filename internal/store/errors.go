package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored. Check the wrapped error for specific validation details.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrTransactionFailed is returned when a database transaction fails
	// to commit or when an operation within a transaction fails.
	ErrTransactionFailed = errors.New("transaction failed")

	// Entity-specific "not found" errors

	// ErrQuizNotFound indicates that the requested quiz does not exist in the store.
	ErrQuizNotFound = fmt.Errorf("%w: quiz", ErrNotFound)

	// ErrWorkoutNotFound indicates that the requested workout does not exist in the store.
	ErrWorkoutNotFound = fmt.Errorf("%w: workout", ErrNotFound)

	// ErrListeningSetNotFound indicates that the requested listening set does not exist in the store.
	ErrListeningSetNotFound = fmt.Errorf("%w: listening set", ErrNotFound)

	// ErrResumeNotFound indicates that no current-session record is stored.
	ErrResumeNotFound = fmt.Errorf("%w: resume state", ErrNotFound)

	// ErrGenerationNotFound indicates that the requested generation request does not exist.
	ErrGenerationNotFound = fmt.Errorf("%w: generation request", ErrNotFound)

	// ErrContentIDConflict indicates that a document ID is already used by
	// content of another type.
	ErrContentIDConflict = fmt.Errorf("%w: content id used by another content type", ErrDuplicate)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
// Entity-specific errors wrap ErrNotFound, so a single check covers them all.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError checks if the error is any kind of "duplicate" error.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// StoreError is a custom error type for store-specific errors with additional context.
type StoreError struct {
	Entity    string // The entity type (e.g., "quiz", "session_result")
	Operation string // The operation that failed (e.g., "save", "get")
	Message   string // Error message
	Err       error  // Original error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf(
			"%s operation on %s failed: %s: %v",
			e.Operation,
			e.Entity,
			e.Message,
			e.Err,
		)
	}
	return fmt.Sprintf("%s operation on %s failed: %s", e.Operation, e.Entity, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError with the given entity, operation, message, and wrapped error.
func NewStoreError(entity, operation, message string, err error) *StoreError {
	return &StoreError{
		Entity:    entity,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// NotFoundFor returns the entity-specific "not found" error for a content type.
func NotFoundFor(contentType string) error {
	switch contentType {
	case "quiz":
		return ErrQuizNotFound
	case "workout":
		return ErrWorkoutNotFound
	case "listening":
		return ErrListeningSetNotFound
	default:
		return ErrNotFound
	}
}
