package engine

import (
	"context"
	"math"

	"github.com/google/uuid"

	"github.com/phrazzld/scry-activities/internal/domain"
)

// Engine is the lifecycle surface a controller drives. Starting a session is
// typed per engine: Start(ctx, payload, id, options).
type Engine interface {
	Kind() domain.ContentType
	Init(ctx context.Context) error
	Pause() error
	Resume() error
	Stop() error
	Restart(ctx context.Context) error
	Progress() (Progress, error)
	Active() bool
}

// Progress reports how far a session has advanced.
// Phase and PhaseCount are only set by engines that group steps into phases.
type Progress struct {
	Current    int     `json:"current"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
	Phase      int     `json:"phase,omitempty"`
	PhaseCount int     `json:"phase_count,omitempty"`
}

// NewProgress builds a Progress, computing the percentage rounded to two decimals.
// An empty session reports zero percent.
func NewProgress(current, total int) Progress {
	p := Progress{Current: current, Total: total}
	if total > 0 {
		p.Percentage = math.Round(float64(current)*10000/float64(total)) / 100
	}
	return p
}

// Session is the per-start state shared by all engines.
type Session[P, O any] struct {
	Payload P
	ID      uuid.UUID
	Options O

	// Active is cleared when the session completes on its own.
	Active bool

	// Restart is set when the session was created by Restart rather than Start.
	Restart bool

	ctx context.Context
}

// Context returns a context that carries the values of the context the session
// was started with but is never canceled. Deferred callbacks use it for logging
// and event emission.
func (s *Session[P, O]) Context() context.Context {
	if s.ctx == nil {
		return context.Background()
	}
	return s.ctx
}

// Hooks is implemented by each concrete engine. Base calls every hook with its
// mutex held, so hooks must not call back into Base.
type Hooks[P, O any] interface {
	// Prepare builds engine state for a freshly created session.
	Prepare(ctx context.Context, s *Session[P, O]) error

	// Teardown cancels all timers and pending work and drops engine state.
	Teardown()

	// Progress reports the engine's own notion of current and total.
	Progress(s *Session[P, O]) Progress
}

// Pauser is implemented by hooks that support pausing.
type Pauser interface {
	Pause()
	Resume()
}

// ResumeReader reads the durable "current session" record. Engines consult it
// once at start when resuming is requested.
type ResumeReader interface {
	Get(ctx context.Context) (*domain.ResumeState, error)
}

// LoadResume returns the stored resume state for the given content, or nil when
// there is none, it belongs to other content, or it cannot be read.
func LoadResume(ctx context.Context, r ResumeReader, kind domain.ContentType, id uuid.UUID) *domain.ResumeState {
	if r == nil {
		return nil
	}
	state, err := r.Get(ctx)
	if err != nil || !state.Matches(kind, id) {
		return nil
	}
	return state
}
