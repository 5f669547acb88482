package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/scry-activities/internal/store"
)

// Common service errors - sentinel errors used across service implementations.
// These errors represent common conditions that callers may want to check for with errors.Is().
//
// Error handling principles:
// 1. Service methods return sentinel errors for expected error conditions
// 2. Unexpected errors are wrapped in ServiceError
// 3. Callers use errors.Is/errors.As to check for specific error conditions
// 4. The API layer maps service errors to appropriate HTTP status codes
var (
	// ErrContentNotFound indicates that the requested document does not exist.
	// API layer should map this to HTTP 404 Not Found.
	ErrContentNotFound = errors.New("content not found")

	// ErrContentConflict indicates that a document ID is already used by content
	// of another type. API layer should map this to HTTP 409 Conflict.
	ErrContentConflict = errors.New("content id used by another content type")

	// ErrInvalidContent indicates that a document failed validation.
	// API layer should map this to HTTP 400 Bad Request.
	ErrInvalidContent = errors.New("invalid content")

	// ErrGenerationNotFound indicates that the requested generation request does not exist.
	ErrGenerationNotFound = errors.New("generation request not found")

	// ErrGenerationDisabled is returned when no quiz generator is configured.
	// API layer should map this to HTTP 503 Service Unavailable.
	ErrGenerationDisabled = errors.New("quiz generation is not configured")
)

// ServiceError wraps unexpected errors from a service with context.
type ServiceError struct {
	// Service names the failing service (e.g., "content", "generation")
	Service string
	// Operation is the operation that failed (e.g., "save_quiz", "request_generation")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s service %s failed: %s: %v", e.Service, e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s service %s failed: %s", e.Service, e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
// Store-level conditions with a service sentinel are returned as that sentinel,
// wrapping the original error so its detail survives for logging.
func NewServiceError(service, operation, message string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, store.ErrGenerationNotFound):
		return fmt.Errorf("%w: %w", ErrGenerationNotFound, err)
	case store.IsNotFoundError(err):
		return fmt.Errorf("%w: %w", ErrContentNotFound, err)
	case errors.Is(err, store.ErrContentIDConflict):
		return fmt.Errorf("%w: %w", ErrContentConflict, err)
	case errors.Is(err, store.ErrInvalidEntity):
		return fmt.Errorf("%w: %w", ErrInvalidContent, err)
	}

	return &ServiceError{
		Service:   service,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
