package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/phrazzld/scry-activities/internal/domain"
)

// Base implements the lifecycle bookkeeping shared by every engine.
type Base[P, O any] struct {
	mu          sync.Mutex
	kind        domain.ContentType
	hooks       Hooks[P, O]
	logger      *slog.Logger
	initialized bool
	session     *Session[P, O]
}

// NewBase creates the bookkeeping for a concrete engine.
// It fails with ErrAbstractEngine when hooks is nil.
func NewBase[P, O any](kind domain.ContentType, hooks Hooks[P, O], logger *slog.Logger) (*Base[P, O], error) {
	if hooks == nil {
		return nil, lifecycleError(kind, "construct", ErrAbstractEngine)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Base[P, O]{
		kind:   kind,
		hooks:  hooks,
		logger: logger.With("component", "engine", "engine", string(kind)),
	}, nil
}

// Kind returns the content type this engine presents.
func (b *Base[P, O]) Kind() domain.ContentType {
	return b.kind
}

// Logger returns the engine's logger.
func (b *Base[P, O]) Logger() *slog.Logger {
	return b.logger
}

// Init performs one-time setup. Calling it again has no effect.
func (b *Base[P, O]) Init(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.initialized {
		b.logger.DebugContext(ctx, "engine already initialized")
		return nil
	}
	b.initialized = true
	b.logger.DebugContext(ctx, "engine initialized")
	return nil
}

// Start resets any previous session, marks the new one active and hands it to
// the engine's Prepare hook.
func (b *Base[P, O]) Start(ctx context.Context, payload P, id uuid.UUID, opts O) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		return lifecycleError(b.kind, "start", ErrNotInitialized)
	}

	return b.startLocked(ctx, &Session[P, O]{Payload: payload, ID: id, Options: opts})
}

func (b *Base[P, O]) startLocked(ctx context.Context, s *Session[P, O]) error {
	if b.session != nil {
		b.hooks.Teardown()
		b.session = nil
	}

	s.Active = true
	s.ctx = context.WithoutCancel(ctx)
	b.session = s

	if err := b.hooks.Prepare(ctx, s); err != nil {
		b.hooks.Teardown()
		b.session = nil
		return lifecycleError(b.kind, "start", err)
	}

	b.logger.InfoContext(ctx, "session started",
		"content_id", s.ID,
		"restart", s.Restart)
	return nil
}

// Pause delegates to the engine's Pauser hook. Engines without one log a
// warning and do nothing.
func (b *Base[P, O]) Pause() error {
	return b.pauseOrResume("pause", func(p Pauser) { p.Pause() })
}

// Resume delegates to the engine's Pauser hook. Engines without one log a
// warning and do nothing.
func (b *Base[P, O]) Resume() error {
	return b.pauseOrResume("resume", func(p Pauser) { p.Resume() })
}

func (b *Base[P, O]) pauseOrResume(op string, fn func(Pauser)) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		return lifecycleError(b.kind, op, ErrNotInitialized)
	}

	p, ok := b.hooks.(Pauser)
	if !ok {
		b.logger.Warn("engine does not support "+op, "operation", op)
		return nil
	}
	if b.session == nil {
		b.logger.Warn(op+" ignored without a session", "operation", op)
		return nil
	}

	fn(p)
	return nil
}

// Stop tears down all pending work and clears the session unconditionally.
func (b *Base[P, O]) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		return lifecycleError(b.kind, "stop", ErrNotInitialized)
	}

	b.hooks.Teardown()
	if b.session != nil {
		b.logger.Info("session stopped", "content_id", b.session.ID)
	}
	b.session = nil
	return nil
}

// Restart stops the current session and starts it again with the same payload,
// id and options. Without a session it logs a warning and does nothing.
func (b *Base[P, O]) Restart(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		return lifecycleError(b.kind, "restart", ErrNotInitialized)
	}
	if b.session == nil {
		b.logger.WarnContext(ctx, "restart ignored without a session")
		return nil
	}

	prev := b.session
	b.hooks.Teardown()
	b.session = nil

	return b.startLocked(ctx, &Session[P, O]{
		Payload: prev.Payload,
		ID:      prev.ID,
		Options: prev.Options,
		Restart: true,
	})
}

// Reopen replaces the current session with a fresh one over the same payload
// and id. mutate runs under the lock before the old session is torn down and
// may adjust the options of the new session.
func (b *Base[P, O]) Reopen(ctx context.Context, mutate func(s *Session[P, O], opts *O)) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		return lifecycleError(b.kind, "reopen", ErrNotInitialized)
	}
	if b.session == nil {
		return lifecycleError(b.kind, "reopen", ErrNoSession)
	}

	prev := b.session
	opts := prev.Options
	if mutate != nil {
		mutate(prev, &opts)
	}

	b.hooks.Teardown()
	b.session = nil

	return b.startLocked(ctx, &Session[P, O]{
		Payload: prev.Payload,
		ID:      prev.ID,
		Options: opts,
	})
}

// Progress returns the engine's progress, or a zero Progress without a session.
func (b *Base[P, O]) Progress() (Progress, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		return Progress{}, lifecycleError(b.kind, "progress", ErrNotInitialized)
	}
	if b.session == nil {
		return Progress{}, nil
	}
	return b.hooks.Progress(b.session), nil
}

// Active reports whether a session exists and has not completed.
func (b *Base[P, O]) Active() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.session != nil && b.session.Active
}

// Do runs fn with the current session under the engine lock.
// Engine actions and deferred callbacks use it to touch engine state.
func (b *Base[P, O]) Do(op string, fn func(s *Session[P, O]) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		return lifecycleError(b.kind, op, ErrNotInitialized)
	}
	if b.session == nil {
		return lifecycleError(b.kind, op, ErrNoSession)
	}
	return fn(b.session)
}

// With runs fn under the engine lock whether or not a session exists.
// s is nil when nothing has been started.
func (b *Base[P, O]) With(op string, fn func(s *Session[P, O]) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		return lifecycleError(b.kind, op, ErrNotInitialized)
	}
	return fn(b.session)
}

// String implements fmt.Stringer for log output.
func (b *Base[P, O]) String() string {
	return fmt.Sprintf("%s engine", b.kind)
}
