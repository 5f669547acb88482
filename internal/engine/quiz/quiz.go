// Package quiz implements the assessment engine: a sequence of heterogeneous
// questions with scoring, mistake tracking and a retry-mistakes sub-session.
package quiz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/scry-activities/internal/domain"
	"github.com/phrazzld/scry-activities/internal/engine"
	"github.com/phrazzld/scry-activities/internal/events"
	"github.com/phrazzld/scry-activities/internal/render"
	"github.com/phrazzld/scry-activities/internal/speech"
)

// Session action errors
var (
	ErrNotInProgress   = errors.New("no question is awaiting an answer")
	ErrAlreadyAnswered = errors.New("question already answered")
	ErrNotAnswered     = errors.New("question has not been answered")
	ErrNothingOffered  = errors.New("no quiz is awaiting options")
	ErrNoAudio         = errors.New("current question has no audio")
)

// State is the position of the engine in the assessment flow.
type State string

// Assessment states
const (
	StateIdle            State = "idle"
	StateAwaitingOptions State = "awaiting_options"
	StateInProgress      State = "in_progress"
	StateSummary         State = "summary"
)

// Options configure one assessment session.
type Options struct {
	// MistakesOnly marks a retry-mistakes sub-session. It is set by
	// RetryMistakes; passing it to Start replays the last mistake list.
	MistakesOnly bool `json:"mistakes_only"`

	// Randomize shuffles the question order.
	Randomize bool `json:"randomize"`

	// SkipListening leaves out listening prompts. It is ignored for
	// mistakes-only sessions so every missed question comes back.
	SkipListening bool `json:"skip_listening"`

	// Resume continues from the stored resume state if it belongs to this quiz.
	Resume bool `json:"resume"`
}

// Summary reports the outcome of the last finished session.
type Summary struct {
	Score        int  `json:"score"`
	Total        int  `json:"total"`
	Mistakes     int  `json:"mistakes"`
	MistakesOnly bool `json:"mistakes_only"`
}

// Config holds the collaborators of an Engine. Only Target is required.
type Config struct {
	Target render.Target
	Events events.EventEmitter
	Resume engine.ResumeReader

	// Synth speaks listening prompts. Without it prompts are shown but not played.
	Synth        speech.Synthesizer
	HostedVoices []speech.Voice

	// Rand drives shuffling. Defaults to a time-seeded source.
	Rand   *rand.Rand
	Logger *slog.Logger
}

// Engine is the assessment engine.
type Engine struct {
	*engine.Base[*domain.Quiz, Options]

	target render.Target
	events events.EventEmitter
	resume engine.ResumeReader
	synth  speech.Synthesizer
	hosted []speech.Voice
	rng    *rand.Rand
	logger *slog.Logger

	state     State
	pending   *domain.Quiz
	pendingID uuid.UUID

	questions     []domain.Question
	order         []int
	original      []domain.Question
	originalOrder []int
	retry         []domain.Question
	mistakes      *MistakeSet

	index    int
	answered bool
	score    int
	summary  Summary
	audio    func()
}

// New creates an assessment engine. Init must be called before use.
func New(cfg Config) (*Engine, error) {
	if cfg.Target == nil {
		cfg.Target = render.Discard{}
	}
	if cfg.Events == nil {
		cfg.Events = events.NopEmitter{}
	}
	if cfg.Rand == nil {
		seed := uint64(time.Now().UnixNano())
		cfg.Rand = rand.New(rand.NewPCG(seed, seed>>1))
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	e := &Engine{
		target:   cfg.Target,
		events:   cfg.Events,
		resume:   cfg.Resume,
		synth:    cfg.Synth,
		hosted:   cfg.HostedVoices,
		rng:      cfg.Rand,
		state:    StateIdle,
		mistakes: NewMistakeSet(),
	}

	base, err := engine.NewBase[*domain.Quiz, Options](domain.ContentTypeQuiz, lifecycle{e}, cfg.Logger)
	if err != nil {
		return nil, err
	}
	e.Base = base
	e.logger = base.Logger()
	return e, nil
}

type session = engine.Session[*domain.Quiz, Options]

// lifecycle adapts the engine to engine.Hooks without exporting the hooks.
type lifecycle struct{ e *Engine }

func (l lifecycle) Prepare(ctx context.Context, s *session) error {
	return l.e.prepare(ctx, s)
}

func (l lifecycle) Teardown() {
	l.e.teardown()
}

func (l lifecycle) Progress(*session) engine.Progress {
	return l.e.progress()
}

func (e *Engine) prepare(ctx context.Context, s *session) error {
	if s.Payload == nil {
		return engine.ErrNilPayload
	}

	e.index, e.answered, e.score = 0, false, 0
	e.summary = Summary{}
	e.pending = nil

	switch {
	case s.Options.MistakesOnly:
		// Every missed question comes back: no listening filter, no shuffle.
		e.questions = append([]domain.Question(nil), e.retry...)
		e.order = nil
		e.mistakes.Reset()
	case s.Restart && e.original != nil:
		e.questions, e.order = e.original, e.originalOrder
		e.original, e.originalOrder = nil, nil
		e.mistakes.Reset()
	default:
		e.original, e.originalOrder = nil, nil
		e.mistakes.Reset()
		e.order = e.buildOrder(s.Payload, s.Options)
		if s.Options.Resume && !s.Restart {
			e.applyResume(ctx, s)
		}
		e.questions = pick(s.Payload.Questions, e.order)
	}

	e.state = StateInProgress
	e.logger.InfoContext(ctx, "assessment prepared",
		"quiz_id", s.ID,
		"questions", len(e.questions),
		"mistakes_only", s.Options.MistakesOnly,
		"start_index", e.index)
	engine.Emit(ctx, e.events, e.logger, events.SessionStarted, domain.ContentTypeQuiz, s.ID, nil)

	if len(e.questions) == 0 {
		e.finish(s)
		return nil
	}
	e.renderQuestion(s)
	return nil
}

// buildOrder returns payload indexes of the active questions.
func (e *Engine) buildOrder(quiz *domain.Quiz, opts Options) []int {
	order := make([]int, 0, len(quiz.Questions))
	for i, q := range quiz.Questions {
		if opts.SkipListening && q.Type() == domain.QuestionListening {
			continue
		}
		order = append(order, i)
	}

	if opts.Randomize {
		for i := len(order) - 1; i > 0; i-- {
			j := e.rng.IntN(i + 1)
			order[i], order[j] = order[j], order[i]
		}
	}
	return order
}

func (e *Engine) applyResume(ctx context.Context, s *session) {
	state := engine.LoadResume(ctx, e.resume, domain.ContentTypeQuiz, s.ID)
	if state == nil {
		return
	}

	if len(state.Order) > 0 {
		if !validOrder(state.Order, len(s.Payload.Questions)) {
			e.logger.WarnContext(ctx, "ignoring resume state with invalid order", "quiz_id", s.ID)
			return
		}
		e.order = append([]int(nil), state.Order...)
	}

	if len(e.order) == 0 {
		return
	}
	e.index = min(max(state.Index, 0), len(e.order)-1)
	e.score = min(max(state.Score, 0), e.index)
	e.logger.InfoContext(ctx, "resuming assessment", "quiz_id", s.ID, "index", e.index, "score", e.score)
}

func validOrder(order []int, n int) bool {
	seen := make(map[int]struct{}, len(order))
	for _, i := range order {
		if i < 0 || i >= n {
			return false
		}
		if _, dup := seen[i]; dup {
			return false
		}
		seen[i] = struct{}{}
	}
	return true
}

func pick(questions []domain.Question, order []int) []domain.Question {
	out := make([]domain.Question, 0, len(order))
	for _, i := range order {
		out = append(out, questions[i])
	}
	return out
}

func (e *Engine) teardown() {
	e.stopAudio()
	e.state = StateIdle
	e.questions, e.order = nil, nil
	e.index, e.answered, e.score = 0, false, 0
}

func (e *Engine) progress() engine.Progress {
	switch {
	case e.state == StateSummary:
		return engine.NewProgress(e.summary.Total, e.summary.Total)
	case len(e.questions) == 0:
		return engine.NewProgress(0, 0)
	default:
		return engine.NewProgress(e.index+1, len(e.questions))
	}
}

// Offer loads a quiz and waits for the user's options. Any running session is stopped.
func (e *Engine) Offer(quiz *domain.Quiz, id uuid.UUID) error {
	if quiz == nil {
		return engine.ErrNilPayload
	}
	if err := e.Stop(); err != nil {
		return err
	}

	return e.With("offer", func(*session) error {
		e.pending, e.pendingID = quiz, id
		e.state = StateAwaitingOptions
		e.target.SetText(render.RegionTitle, quiz.Title)
		e.target.SetItems(render.RegionOptions, []string{"randomize", "skip_listening", "resume"})
		e.target.Clear(render.RegionQuestion)
		e.target.Clear(render.RegionFeedback)
		e.target.Clear(render.RegionSummary)
		return nil
	})
}

// Begin starts the offered quiz with the chosen options.
func (e *Engine) Begin(ctx context.Context, opts Options) error {
	var quiz *domain.Quiz
	var id uuid.UUID
	err := e.With("begin", func(*session) error {
		if e.state != StateAwaitingOptions || e.pending == nil {
			return ErrNothingOffered
		}
		quiz, id = e.pending, e.pendingID
		return nil
	})
	if err != nil {
		return err
	}
	return e.Start(ctx, quiz, id, opts)
}

// Answer evaluates the answer to the current question.
func (e *Engine) Answer(answer Answer) (Evaluation, error) {
	var result Evaluation
	err := e.Do("answer", func(s *session) error {
		if e.state != StateInProgress {
			return ErrNotInProgress
		}
		if e.answered {
			return ErrAlreadyAnswered
		}

		q := e.questions[e.index]
		ev, err := Evaluate(q, answer)
		if err != nil {
			if errors.Is(err, ErrUnknownQuestion) {
				e.logger.Error("cannot answer unsupported question",
					"quiz_id", s.ID,
					"index", e.index,
					"question_type", q.Type())
			}
			return err
		}

		e.answered = true
		if ev.Correct {
			e.score++
		} else if e.mistakes.Add(q) {
			e.logger.Debug("mistake recorded", "quiz_id", s.ID, "mistakes", e.mistakes.Len())
		}
		e.renderFeedback(ev)

		if !s.Options.MistakesOnly {
			engine.Emit(s.Context(), e.events, e.logger, events.StepCompleted, domain.ContentTypeQuiz, s.ID,
				events.StepPayload{Index: e.index + 1, Score: e.score, Order: e.order})
		}

		result = ev
		return nil
	})
	return result, err
}

// Next moves past the current question. Unsupported questions may be skipped
// without an answer.
func (e *Engine) Next() error {
	return e.Do("next", func(s *session) error {
		if e.state != StateInProgress {
			return ErrNotInProgress
		}
		if !e.answered && !unsupported(e.questions[e.index]) {
			return ErrNotAnswered
		}

		e.stopAudio()
		if e.index+1 >= len(e.questions) {
			e.finish(s)
			return nil
		}
		e.index++
		e.answered = false
		e.renderQuestion(s)
		return nil
	})
}

// Retry returns to option selection for the same quiz.
func (e *Engine) Retry() error {
	var quiz *domain.Quiz
	var id uuid.UUID
	err := e.Do("retry", func(s *session) error {
		quiz, id = s.Payload, s.ID
		return nil
	})
	if err != nil {
		return err
	}
	return e.Offer(quiz, id)
}

// RetryMistakes starts a sub-session over the questions answered wrongly so
// far. With no mistakes the sub-session is empty and finishes immediately.
func (e *Engine) RetryMistakes(ctx context.Context) error {
	return e.Reopen(ctx, func(s *session, opts *Options) {
		if !s.Options.MistakesOnly || e.original == nil {
			e.original = append([]domain.Question(nil), e.questions...)
			e.originalOrder = append([]int(nil), e.order...)
		}
		e.retry = e.mistakes.Questions()
		e.mistakes.Reset()
		opts.MistakesOnly = true
		opts.Resume = false
	})
}

// PlayAudio replays the audio of the current listening prompt.
func (e *Engine) PlayAudio() error {
	return e.Do("play_audio", func(s *session) error {
		if e.state != StateInProgress {
			return ErrNotInProgress
		}
		prompt, ok := e.questions[e.index].(domain.ListeningPrompt)
		if !ok {
			return ErrNoAudio
		}
		e.speak(s, prompt)
		return nil
	})
}

// State returns the current state.
func (e *Engine) State() State {
	var st State
	_ = e.With("state", func(*session) error {
		st = e.state
		return nil
	})
	return st
}

// Summary returns the outcome of the finished session.
func (e *Engine) Summary() (Summary, error) {
	var sum Summary
	err := e.Do("summary", func(*session) error {
		if e.state != StateSummary {
			return ErrNotInProgress
		}
		sum = e.summary
		return nil
	})
	return sum, err
}

// Questions returns a copy of the active question list.
func (e *Engine) Questions() []domain.Question {
	var qs []domain.Question
	_ = e.With("questions", func(*session) error {
		qs = append(qs, e.questions...)
		return nil
	})
	return qs
}

// Mistakes returns the questions answered wrongly in the current tracking period.
func (e *Engine) Mistakes() []domain.Question {
	var qs []domain.Question
	_ = e.With("mistakes", func(*session) error {
		qs = e.mistakes.Questions()
		return nil
	})
	return qs
}

func (e *Engine) finish(s *session) {
	e.stopAudio()
	e.state = StateSummary
	s.Active = false
	e.summary = Summary{
		Score:        e.score,
		Total:        len(e.questions),
		Mistakes:     e.mistakes.Len(),
		MistakesOnly: s.Options.MistakesOnly,
	}
	if len(e.questions) > 0 {
		e.index = len(e.questions) - 1
	}

	if s.Options.MistakesOnly && e.original != nil {
		// The base list comes back once the sub-session is over.
		e.questions, e.order = e.original, e.originalOrder
		s.Options.MistakesOnly = false
	}

	e.target.Clear(render.RegionQuestion)
	e.target.Clear(render.RegionOptions)
	e.target.SetText(render.RegionSummary, fmt.Sprintf("Score: %d/%d", e.summary.Score, e.summary.Total))
	mistakes := make([]string, 0, e.mistakes.Len())
	for _, q := range e.mistakes.Questions() {
		mistakes = append(mistakes, q.Common().Text)
	}
	e.target.SetItems(render.RegionFeedback, mistakes)
	e.target.SetText(render.RegionProgress, fmt.Sprintf("%d/%d", e.summary.Total, e.summary.Total))

	e.logger.Info("assessment finished",
		"quiz_id", s.ID,
		"score", e.summary.Score,
		"total", e.summary.Total,
		"mistakes", e.summary.Mistakes)

	if e.summary.Total == 0 {
		return
	}
	engine.Emit(s.Context(), e.events, e.logger, events.SessionCompleted, domain.ContentTypeQuiz, s.ID,
		events.CompletedPayload{Score: e.summary.Score, Total: e.summary.Total, MistakesOnly: e.summary.MistakesOnly})
}

func (e *Engine) renderQuestion(s *session) {
	q := e.questions[e.index]
	e.target.SetText(render.RegionTitle, s.Payload.Title)
	e.target.SetText(render.RegionProgress, fmt.Sprintf("%d/%d", e.index+1, len(e.questions)))
	e.target.Clear(render.RegionFeedback)
	e.target.Clear(render.RegionSummary)

	switch v := q.(type) {
	case domain.SingleChoice:
		e.target.SetText(render.RegionQuestion, v.Text)
		e.target.SetItems(render.RegionOptions, v.Options)
	case domain.MultipleChoice:
		e.target.SetText(render.RegionQuestion, v.Text)
		e.target.SetItems(render.RegionOptions, v.Options)
	case domain.TrueFalse:
		e.target.SetText(render.RegionQuestion, v.Text)
		e.target.SetItems(render.RegionOptions, []string{"true", "false"})
	case domain.FillBlank:
		e.target.SetText(render.RegionQuestion, v.Text)
		e.target.Clear(render.RegionOptions)
	case domain.Matching:
		rights := make([]string, 0, len(v.Pairs))
		lefts := make([]string, 0, len(v.Pairs))
		for _, p := range v.Pairs {
			lefts = append(lefts, p.Left)
			rights = append(rights, p.Right)
		}
		e.rng.Shuffle(len(rights), func(i, j int) { rights[i], rights[j] = rights[j], rights[i] })
		e.target.SetText(render.RegionQuestion, v.Text+"\n"+strings.Join(lefts, "\n"))
		e.target.SetItems(render.RegionOptions, rights)
	case domain.ListeningPrompt:
		e.target.SetText(render.RegionQuestion, v.Text)
		e.target.Clear(render.RegionOptions)
		e.speak(s, v)
	default:
		e.logger.Error("unsupported question variant",
			"quiz_id", s.ID,
			"index", e.index,
			"question_type", q.Type())
		e.target.Clear(render.RegionQuestion)
		e.target.Clear(render.RegionOptions)
	}
}

func (e *Engine) renderFeedback(ev Evaluation) {
	var b strings.Builder
	if ev.Correct {
		b.WriteString("Correct!")
	} else {
		b.WriteString("Incorrect.")
		if ev.Total > 0 {
			fmt.Fprintf(&b, " %d/%d matched.", ev.Matched, ev.Total)
		} else if ev.Expected != "" {
			fmt.Fprintf(&b, " Answer: %s.", ev.Expected)
		}
	}
	if ev.Explanation != "" {
		b.WriteString(" ")
		b.WriteString(ev.Explanation)
	}
	e.target.SetText(render.RegionFeedback, b.String())
}

func (e *Engine) speak(s *session, prompt domain.ListeningPrompt) {
	e.stopAudio()
	if e.synth == nil {
		return
	}

	u := speech.Utterance{Text: prompt.Audio, Locale: prompt.Lang}
	if voice, ok := speech.SelectVoice(e.synth.Voices(), e.hosted, prompt.Lang); ok {
		u.Voice = &voice
	}

	id := s.ID
	e.audio = e.synth.Speak(u, func(err error) {
		if err != nil {
			e.logger.Warn("listening prompt playback failed", "error", err, "quiz_id", id)
		}
	})
}

func (e *Engine) stopAudio() {
	if e.audio != nil {
		e.audio()
		e.audio = nil
	}
}

func unsupported(q domain.Question) bool {
	_, ok := q.(domain.UnknownQuestion)
	return ok
}
