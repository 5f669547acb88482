package engine

import (
	"errors"
	"fmt"

	"github.com/phrazzld/scry-activities/internal/domain"
)

// Lifecycle errors. These indicate integration bugs rather than data problems
// and are returned immediately.
var (
	// ErrNotInitialized is returned by every lifecycle call made before Init.
	ErrNotInitialized = errors.New("engine not initialized")

	// ErrAbstractEngine is returned when a Base is constructed without a
	// concrete engine behind it.
	ErrAbstractEngine = errors.New("engine has no concrete implementation")

	// ErrNoSession is returned by session actions when nothing has been started.
	ErrNoSession = errors.New("no session in progress")

	// ErrNilPayload is returned when a session is started without content.
	ErrNilPayload = errors.New("session payload cannot be nil")
)

// LifecycleError adds the engine kind and the lifecycle operation to an error.
type LifecycleError struct {
	Engine    domain.ContentType
	Operation string
	Err       error
}

// Error implements the error interface for LifecycleError.
func (e *LifecycleError) Error() string {
	return fmt.Sprintf("%s engine: %s: %v", e.Engine, e.Operation, e.Err)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *LifecycleError) Unwrap() error {
	return e.Err
}

func lifecycleError(kind domain.ContentType, op string, err error) error {
	return &LifecycleError{Engine: kind, Operation: op, Err: err}
}
