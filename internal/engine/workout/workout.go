// Package workout implements the timed exercise engine: set expansion, a
// countdown timer per step, and a wake lock held for the whole session.
package workout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/scry-activities/internal/domain"
	"github.com/phrazzld/scry-activities/internal/engine"
	"github.com/phrazzld/scry-activities/internal/events"
	"github.com/phrazzld/scry-activities/internal/platform/clock"
	"github.com/phrazzld/scry-activities/internal/render"
)

// Session action errors
var (
	ErrFinished   = errors.New("workout already finished")
	ErrNotTimed   = errors.New("current step has no timer")
	ErrTimedStep  = errors.New("timed steps finish on their own or by skipping")
	ErrNoSteps    = errors.New("workout has no steps")
	errNoWakeLock = errors.New("wake lock manager is required")
)

// Defaults for Timings fields left at zero
const (
	DefaultTickInterval     = time.Second
	DefaultFallbackDuration = 30
)

// Options configure one workout session.
type Options struct {
	// Resume continues from the stored resume state if it belongs to this workout.
	Resume bool `json:"resume"`
}

// Timings tune the countdown. Durations in domain documents are whole seconds;
// the timer subtracts one second per TickInterval.
type Timings struct {
	TickInterval     time.Duration
	DefaultRest      int
	FallbackDuration int
}

// Cue is played once when a countdown reaches zero. Play runs with the engine
// locked and must not block.
type Cue interface {
	Play(ctx context.Context)
}

// CueFunc adapts a function to Cue.
type CueFunc func(ctx context.Context)

// Play calls f(ctx).
func (f CueFunc) Play(ctx context.Context) { f(ctx) }

// WakeLock is the shared reference-counted wake lock.
type WakeLock interface {
	AddReference(ctx context.Context, sourceID string) error
	RemoveReference(ctx context.Context, sourceID string) error
}

// Config holds the collaborators of an Engine. WakeLock is required.
type Config struct {
	Target   render.Target
	Events   events.EventEmitter
	Resume   engine.ResumeReader
	WakeLock WakeLock
	Clock    clock.Clock
	Cue      Cue
	Timings  Timings
	Logger   *slog.Logger
}

// Step is one entry of the expanded workout.
type Step struct {
	Phase     int    `json:"phase"`
	PhaseName string `json:"phase_name,omitempty"`
	Name      string `json:"name"`
	Detail    string `json:"detail,omitempty"`
	Reps      int    `json:"reps,omitempty"`
	Duration  int    `json:"duration,omitempty"`
	Timed     bool   `json:"timed"`
	Rest      bool   `json:"rest,omitempty"`
}

// Engine is the timed exercise engine.
type Engine struct {
	*engine.Base[*domain.Workout, Options]

	target   render.Target
	events   events.EventEmitter
	resume   engine.ResumeReader
	wakeLock WakeLock
	clock    clock.Clock
	cue      Cue
	timings  Timings
	logger   *slog.Logger

	sess       *session
	steps      []Step
	index      int
	timeLeft   int
	running    bool
	paused     bool
	timer      clock.Timer
	gen        uint64
	completed  int
	finished   bool
	lockSource string
}

type session = engine.Session[*domain.Workout, Options]

// New creates a workout engine. Init must be called before use.
func New(cfg Config) (*Engine, error) {
	if cfg.WakeLock == nil {
		return nil, errNoWakeLock
	}
	if cfg.Target == nil {
		cfg.Target = render.Discard{}
	}
	if cfg.Events == nil {
		cfg.Events = events.NopEmitter{}
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real{}
	}
	if cfg.Cue == nil {
		cfg.Cue = CueFunc(func(context.Context) {})
	}
	if cfg.Timings.TickInterval <= 0 {
		cfg.Timings.TickInterval = DefaultTickInterval
	}
	if cfg.Timings.DefaultRest <= 0 {
		cfg.Timings.DefaultRest = DefaultRestSeconds
	}
	if cfg.Timings.FallbackDuration <= 0 {
		cfg.Timings.FallbackDuration = DefaultFallbackDuration
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	e := &Engine{
		target:   cfg.Target,
		events:   cfg.Events,
		resume:   cfg.Resume,
		wakeLock: cfg.WakeLock,
		clock:    cfg.Clock,
		cue:      cfg.Cue,
		timings:  cfg.Timings,
	}

	base, err := engine.NewBase[*domain.Workout, Options](domain.ContentTypeWorkout, lifecycle{e}, cfg.Logger)
	if err != nil {
		return nil, err
	}
	e.Base = base
	e.logger = base.Logger()
	return e, nil
}

type lifecycle struct{ e *Engine }

func (l lifecycle) Prepare(ctx context.Context, s *session) error { return l.e.prepare(ctx, s) }
func (l lifecycle) Teardown()                                     { l.e.teardown() }
func (l lifecycle) Progress(s *session) engine.Progress           { return l.e.progress(s) }
func (l lifecycle) Pause()                                        { l.e.pause() }
func (l lifecycle) Resume()                                       { l.e.resumeTimer() }

// BuildSteps expands every phase of w. Unsupported exercises are logged and
// left out; invalid durations are replaced with fallback seconds.
func BuildSteps(ctx context.Context, w *domain.Workout, defaultRest, fallback int, logger *slog.Logger) []Step {
	var steps []Step
	for p, phase := range w.Phases {
		for _, ex := range Expand(phase.Exercises, defaultRest) {
			switch v := ex.(type) {
			case domain.RepetitionExercise:
				steps = append(steps, Step{
					Phase:     p,
					PhaseName: phase.Name,
					Name:      v.Name,
					Detail:    v.Detail,
					Reps:      v.Reps,
				})
			case domain.DurationExercise:
				d := v.Duration
				if d <= 0 {
					logger.WarnContext(ctx, "invalid exercise duration, using fallback",
						"exercise", v.Name,
						"duration", v.Duration,
						"fallback", fallback)
					d = fallback
				}
				steps = append(steps, Step{
					Phase:     p,
					PhaseName: phase.Name,
					Name:      v.Name,
					Detail:    v.Detail,
					Duration:  d,
					Timed:     true,
					Rest:      v.Rest,
				})
			default:
				logger.ErrorContext(ctx, "unsupported exercise variant",
					"exercise", ex.Common().Name,
					"exercise_type", ex.Type())
			}
		}
	}
	return steps
}

func (e *Engine) prepare(ctx context.Context, s *session) error {
	if s.Payload == nil {
		return engine.ErrNilPayload
	}

	e.sess = s
	e.steps = BuildSteps(ctx, s.Payload, e.timings.DefaultRest, e.timings.FallbackDuration, e.logger)
	e.index, e.completed = 0, 0
	e.finished, e.paused = false, false

	e.lockSource = "workout:" + s.ID.String()
	if err := e.wakeLock.AddReference(ctx, e.lockSource); err != nil {
		e.logger.WarnContext(ctx, "could not acquire wake lock", "error", err)
	}

	start := 0
	if s.Options.Resume && !s.Restart && len(e.steps) > 0 {
		if state := engine.LoadResume(ctx, e.resume, domain.ContentTypeWorkout, s.ID); state != nil {
			start = min(max(state.Index, 0), len(e.steps)-1)
			e.completed = start
			e.logger.InfoContext(ctx, "resuming workout", "workout_id", s.ID, "index", start)
		}
	}

	e.logger.InfoContext(ctx, "workout prepared",
		"workout_id", s.ID,
		"steps", len(e.steps),
		"phases", len(s.Payload.Phases))
	engine.Emit(ctx, e.events, e.logger, events.SessionStarted, domain.ContentTypeWorkout, s.ID, nil)

	e.target.SetText(render.RegionTitle, s.Payload.Title)
	if len(e.steps) == 0 {
		e.finish(s)
		return nil
	}
	e.enterStep(s, start)
	return nil
}

func (e *Engine) teardown() {
	e.stopTimer()
	e.releaseLock(context.Background())
	e.sess = nil
	e.steps = nil
	e.index, e.timeLeft, e.completed = 0, 0, 0
	e.paused, e.finished = false, false
}

func (e *Engine) progress(s *session) engine.Progress {
	p := engine.NewProgress(e.completed, len(e.steps))
	p.PhaseCount = len(s.Payload.Phases)
	if len(e.steps) > 0 {
		p.Phase = e.steps[e.index].Phase + 1
	}
	return p
}

func (e *Engine) enterStep(s *session, i int) {
	e.stopTimer()
	e.index = i
	e.paused = false
	st := e.steps[i]
	e.timeLeft = st.Duration

	e.render(s)
	if st.Timed && st.Rest {
		e.startTimer(s)
	}
}

func (e *Engine) startTimer(s *session) {
	if e.running {
		return
	}
	e.running = true
	e.schedule(s)
	e.target.SetText(render.RegionStatus, "running")
}

func (e *Engine) schedule(s *session) {
	gen := e.gen
	e.timer = e.clock.AfterFunc(e.timings.TickInterval, func() {
		_ = e.Do("tick", func(cur *session) error {
			if cur != s || gen != e.gen {
				return nil
			}
			e.tick(cur)
			return nil
		})
	})
}

// stopTimer cancels the pending tick. Bumping gen invalidates a tick that
// already fired and is waiting for the lock.
func (e *Engine) stopTimer() {
	e.gen++
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.running = false
}

func (e *Engine) tick(s *session) {
	e.timeLeft--
	if e.timeLeft > 0 {
		e.target.SetText(render.RegionTimer, formatSeconds(e.timeLeft))
		e.schedule(s)
		return
	}

	e.timeLeft = 0
	e.target.SetText(render.RegionTimer, formatSeconds(0))
	e.cue.Play(s.Context())
	e.advance(s)
}

func (e *Engine) advance(s *session) {
	e.stopTimer()
	e.completed++
	engine.Emit(s.Context(), e.events, e.logger, events.StepCompleted, domain.ContentTypeWorkout, s.ID,
		events.StepPayload{Index: e.index + 1, Score: e.completed})

	if e.index+1 < len(e.steps) {
		e.enterStep(s, e.index+1)
		return
	}
	e.finish(s)
}

func (e *Engine) finish(s *session) {
	e.stopTimer()
	e.finished = true
	s.Active = false
	e.releaseLock(s.Context())

	e.target.SetText(render.RegionStatus, "complete")
	e.target.Clear(render.RegionTimer)
	e.target.SetText(render.RegionProgress, fmt.Sprintf("%d/%d", e.completed, len(e.steps)))
	e.logger.Info("workout finished", "workout_id", s.ID, "steps", len(e.steps))

	if len(e.steps) == 0 {
		return
	}
	engine.Emit(s.Context(), e.events, e.logger, events.SessionCompleted, domain.ContentTypeWorkout, s.ID,
		events.CompletedPayload{Score: e.completed, Total: len(e.steps)})
}

func (e *Engine) releaseLock(ctx context.Context) {
	if e.lockSource == "" {
		return
	}
	if err := e.wakeLock.RemoveReference(ctx, e.lockSource); err != nil {
		e.logger.WarnContext(ctx, "could not release wake lock", "error", err)
	}
	e.lockSource = ""
}

func (e *Engine) pause() {
	if e.finished || !e.running {
		return
	}
	e.stopTimer()
	e.paused = true
	e.target.SetText(render.RegionStatus, "paused")
}

func (e *Engine) resumeTimer() {
	if !e.paused || e.sess == nil {
		return
	}
	e.paused = false
	e.startTimer(e.sess)
}

// StartTimer starts the countdown of the current timed step.
func (e *Engine) StartTimer() error {
	return e.Do("start_timer", func(s *session) error {
		if e.finished {
			return ErrFinished
		}
		if !e.steps[e.index].Timed {
			return ErrNotTimed
		}
		e.paused = false
		e.startTimer(s)
		return nil
	})
}

// Complete finishes the current repetition step.
func (e *Engine) Complete() error {
	return e.Do("complete", func(s *session) error {
		if e.finished {
			return ErrFinished
		}
		if e.steps[e.index].Timed {
			return ErrTimedStep
		}
		e.advance(s)
		return nil
	})
}

// Skip advances immediately without playing the end-of-timer cue.
func (e *Engine) Skip() error {
	return e.Do("skip", func(s *session) error {
		if e.finished {
			return ErrFinished
		}
		e.advance(s)
		return nil
	})
}

// TimeLeft returns the remaining seconds of the current step.
func (e *Engine) TimeLeft() int {
	var left int
	_ = e.With("time_left", func(*session) error {
		left = e.timeLeft
		return nil
	})
	return left
}

// Running reports whether the countdown is ticking.
func (e *Engine) Running() bool {
	var running bool
	_ = e.With("running", func(*session) error {
		running = e.running
		return nil
	})
	return running
}

// CurrentStep returns the current step.
func (e *Engine) CurrentStep() (Step, error) {
	var st Step
	err := e.Do("current_step", func(*session) error {
		if len(e.steps) == 0 {
			return ErrNoSteps
		}
		st = e.steps[e.index]
		return nil
	})
	return st, err
}

// Steps returns a copy of the expanded steps.
func (e *Engine) Steps() []Step {
	var steps []Step
	_ = e.With("steps", func(*session) error {
		steps = append(steps, e.steps...)
		return nil
	})
	return steps
}

func (e *Engine) render(s *session) {
	st := e.steps[e.index]
	e.target.SetText(render.RegionTitle, s.Payload.Title)
	if st.PhaseName != "" {
		e.target.SetText(render.RegionPhase, st.PhaseName)
	} else {
		e.target.Clear(render.RegionPhase)
	}
	e.target.SetText(render.RegionExercise, st.Name)
	if st.Detail != "" {
		e.target.SetText(render.RegionDetail, st.Detail)
	} else {
		e.target.Clear(render.RegionDetail)
	}
	if st.Timed {
		e.target.SetText(render.RegionTimer, formatSeconds(e.timeLeft))
	} else {
		e.target.Clear(render.RegionTimer)
	}
	e.target.SetText(render.RegionProgress, fmt.Sprintf("%d/%d", e.completed, len(e.steps)))
	e.target.SetText(render.RegionStatus, "ready")
}

func formatSeconds(s int) string {
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}
