package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/phrazzld/scry-activities/internal/domain"
	"github.com/phrazzld/scry-activities/internal/engine"
	"github.com/phrazzld/scry-activities/internal/engine/listening"
	"github.com/phrazzld/scry-activities/internal/engine/quiz"
	"github.com/phrazzld/scry-activities/internal/engine/workout"
	"github.com/phrazzld/scry-activities/internal/events"
	"github.com/phrazzld/scry-activities/internal/platform/logger"
	"github.com/phrazzld/scry-activities/internal/render"
	"github.com/phrazzld/scry-activities/internal/store"
)

// Visibility receives page visibility signals; the wake-lock manager implements it.
type Visibility interface {
	VisibilityChanged(ctx context.Context, visible bool) error
}

// Config holds the collaborators of a Controller. The engines and stores are
// required. Board, Resume, Visibility and Events are optional.
type Config struct {
	Quizzes   store.QuizStore
	Workouts  store.WorkoutStore
	Listening store.ListeningStore
	Resume    store.ResumeStore

	QuizEngine      *quiz.Engine
	WorkoutEngine   *workout.Engine
	ListeningEngine *listening.Engine

	// Board is the render target shared by the engines. View reads it.
	Board      *render.Board
	Visibility Visibility
	Events     events.EventEmitter
	Logger     *slog.Logger
}

// Controller drives the engines on behalf of one screen.
type Controller struct {
	quizzes      store.QuizStore
	workouts     store.WorkoutStore
	listeningSet store.ListeningStore
	resume       store.ResumeStore

	quiz      *quiz.Engine
	workout   *workout.Engine
	listening *listening.Engine

	registry   *engine.Registry
	board      *render.Board
	visibility Visibility
	events     events.EventEmitter
	logger     *slog.Logger

	// mu serializes session starts and stops and guards current.
	mu      sync.Mutex
	current Current
}

// Current identifies the content of the active engine.
type Current struct {
	ContentType domain.ContentType `json:"content_type,omitempty"`
	ContentID   uuid.UUID          `json:"content_id,omitempty"`
}

// NewController creates a Controller. Init must be called before use.
func NewController(cfg Config) (*Controller, error) {
	switch {
	case cfg.Quizzes == nil, cfg.Workouts == nil, cfg.Listening == nil:
		return nil, errors.New("content stores cannot be nil")
	case cfg.QuizEngine == nil, cfg.WorkoutEngine == nil, cfg.ListeningEngine == nil:
		return nil, errors.New("engines cannot be nil")
	}
	if cfg.Events == nil {
		cfg.Events = events.NopEmitter{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	log := cfg.Logger.With("component", "session_controller")

	return &Controller{
		quizzes:      cfg.Quizzes,
		workouts:     cfg.Workouts,
		listeningSet: cfg.Listening,
		resume:       cfg.Resume,
		quiz:         cfg.QuizEngine,
		workout:      cfg.WorkoutEngine,
		listening:    cfg.ListeningEngine,
		registry:     engine.NewRegistry(cfg.Logger),
		board:        cfg.Board,
		visibility:   cfg.Visibility,
		events:       cfg.Events,
		logger:       log,
	}, nil
}

// Init initializes every engine.
func (c *Controller) Init(ctx context.Context) error {
	for _, e := range []engine.Engine{c.quiz, c.workout, c.listening} {
		if err := e.Init(ctx); err != nil {
			return &ControllerError{Operation: "init", Err: err}
		}
	}
	return nil
}

// load fetches a document and maps a missing one to ErrContentNotFound.
func load[T store.Document](ctx context.Context, s store.ContentStore[T], id uuid.UUID) (T, error) {
	doc, err := s.GetByID(ctx, id)
	if err != nil {
		var zero T
		if store.IsNotFoundError(err) {
			return zero, fmt.Errorf("%w: %w", ErrContentNotFound, err)
		}
		return zero, &ControllerError{Operation: "load", Err: err}
	}
	return doc, nil
}

// activate makes e the active engine for the given content. A session still
// running is reported as stopped. The caller holds c.mu.
func (c *Controller) activate(ctx context.Context, e engine.Engine, id uuid.UUID) {
	prev := c.registry.Active()
	if prev != nil && prev.Active() && c.current.ContentID != uuid.Nil {
		c.emitStopped(ctx, c.current)
	}
	c.registry.Activate(e)
	if prev != e && c.board != nil {
		c.board.Reset()
	}
	c.current = Current{ContentType: e.Kind(), ContentID: id}
}

// OfferQuiz loads a quiz and waits for the options chosen by BeginQuiz.
func (c *Controller) OfferQuiz(ctx context.Context, id uuid.UUID) error {
	q, err := load(ctx, c.quizzes, id)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.activate(ctx, c.quiz, id)
	if err := c.quiz.Offer(q, id); err != nil {
		return &ControllerError{Operation: "offer_quiz", Err: err}
	}
	logger.FromContextOrDefault(ctx, c.logger).Info("quiz offered", "quiz_id", id)
	return nil
}

// BeginQuiz starts the offered quiz.
func (c *Controller) BeginQuiz(ctx context.Context, opts quiz.Options) error {
	if err := c.require(c.quiz); err != nil {
		return err
	}
	return c.quiz.Begin(ctx, opts)
}

// StartQuiz offers a quiz and begins it with opts in one step.
func (c *Controller) StartQuiz(ctx context.Context, id uuid.UUID, opts quiz.Options) error {
	if err := c.OfferQuiz(ctx, id); err != nil {
		return err
	}
	return c.BeginQuiz(ctx, opts)
}

// StartWorkout loads a workout and starts it.
func (c *Controller) StartWorkout(ctx context.Context, id uuid.UUID, opts workout.Options) error {
	w, err := load(ctx, c.workouts, id)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.activate(ctx, c.workout, id)
	if err := c.workout.Start(ctx, w, id, opts); err != nil {
		return &ControllerError{Operation: "start_workout", Err: err}
	}
	return nil
}

// StartListening loads a listening set and starts it.
func (c *Controller) StartListening(ctx context.Context, id uuid.UUID, opts listening.Options) error {
	set, err := load(ctx, c.listeningSet, id)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.activate(ctx, c.listening, id)
	if err := c.listening.Start(ctx, set, id, opts); err != nil {
		return &ControllerError{Operation: "start_listening", Err: err}
	}
	return nil
}

// require checks that e is the active engine.
func (c *Controller) require(e engine.Engine) error {
	active := c.registry.Active()
	switch {
	case active == nil:
		return ErrNoSession
	case active != e:
		return fmt.Errorf("%w: %s session is active", ErrWrongEngine, active.Kind())
	}
	return nil
}

func (c *Controller) active() (engine.Engine, error) {
	active := c.registry.Active()
	if active == nil {
		return nil, ErrNoSession
	}
	return active, nil
}

// Pause pauses the active engine.
func (c *Controller) Pause() error {
	active, err := c.active()
	if err != nil {
		return err
	}
	return active.Pause()
}

// Resume resumes the active engine.
func (c *Controller) Resume() error {
	active, err := c.active()
	if err != nil {
		return err
	}
	return active.Resume()
}

// Restart restarts the active session from the beginning.
func (c *Controller) Restart(ctx context.Context) error {
	active, err := c.active()
	if err != nil {
		return err
	}
	return active.Restart(ctx)
}

// Stop stops the active session and forgets it. Stopping a session that has
// not completed emits session_stopped; the resume record is kept.
func (c *Controller) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	active := c.registry.Active()
	if active == nil {
		return nil
	}

	running := active.Active()
	cur := c.current
	if err := c.registry.Deactivate(); err != nil {
		return &ControllerError{Operation: "stop", Err: err}
	}
	c.current = Current{}
	if c.board != nil {
		c.board.Reset()
	}

	if running {
		c.emitStopped(ctx, cur)
	}
	logger.FromContextOrDefault(ctx, c.logger).Info("session stopped",
		"content_type", cur.ContentType,
		"content_id", cur.ContentID,
		"completed", !running)
	return nil
}

func (c *Controller) emitStopped(ctx context.Context, cur Current) {
	engine.Emit(ctx, c.events, c.logger, events.SessionStopped, cur.ContentType, cur.ContentID, nil)
}

// Progress reports the progress of the active session.
func (c *Controller) Progress() (engine.Progress, error) {
	active, err := c.active()
	if err != nil {
		return engine.Progress{}, err
	}
	return active.Progress()
}

// VisibilityChanged forwards a page visibility signal to the wake lock.
func (c *Controller) VisibilityChanged(ctx context.Context, visible bool) error {
	if c.visibility == nil {
		return nil
	}
	return c.visibility.VisibilityChanged(ctx, visible)
}

// View returns a snapshot of the render board, or nil without one.
func (c *Controller) View() map[render.Region]render.View {
	if c.board == nil {
		return nil
	}
	return c.board.Snapshot()
}

// PendingResume returns the stored resume record, or nil when there is none.
func (c *Controller) PendingResume(ctx context.Context) (*domain.ResumeState, error) {
	if c.resume == nil {
		return nil, nil
	}
	state, err := c.resume.Get(ctx)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, nil
		}
		return nil, &ControllerError{Operation: "pending_resume", Err: err}
	}
	return state, nil
}
