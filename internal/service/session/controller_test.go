package session

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/scry-activities/internal/domain"
	"github.com/phrazzld/scry-activities/internal/engine/listening"
	"github.com/phrazzld/scry-activities/internal/engine/quiz"
	"github.com/phrazzld/scry-activities/internal/engine/workout"
	"github.com/phrazzld/scry-activities/internal/events"
	"github.com/phrazzld/scry-activities/internal/mocks"
	"github.com/phrazzld/scry-activities/internal/platform/clock"
	"github.com/phrazzld/scry-activities/internal/render"
	"github.com/phrazzld/scry-activities/internal/speech"
	"github.com/phrazzld/scry-activities/internal/wakelock"
)

type eventLog struct {
	mu     sync.Mutex
	events []*events.Event
}

func (l *eventLog) HandleEvent(_ context.Context, e *events.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
	return nil
}

func (l *eventLog) types() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.events))
	for _, e := range l.events {
		out = append(out, e.Type)
	}
	return out
}

func (l *eventLog) count(eventType string) int {
	n := 0
	for _, t := range l.types() {
		if t == eventType {
			n++
		}
	}
	return n
}

type fixture struct {
	ctrl      *Controller
	quizzes   *mocks.MockContentStore[*domain.Quiz]
	workouts  *mocks.MockContentStore[*domain.Workout]
	listening *mocks.MockContentStore[*domain.ListeningSet]
	results   *mocks.MockResultStore
	resume    *mocks.MockResumeStore
	lock      *wakelock.Manager
	sentinel  *wakelock.StateSentinel
	board     *render.Board
	log       *eventLog
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := clock.NewManual(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	f := &fixture{
		quizzes:   mocks.NewMockQuizStore(),
		workouts:  mocks.NewMockWorkoutStore(),
		listening: mocks.NewMockListeningStore(),
		results:   &mocks.MockResultStore{},
		resume:    &mocks.MockResumeStore{},
		sentinel:  &wakelock.StateSentinel{},
		board:     render.NewBoard(),
		log:       &eventLog{},
	}
	f.lock = wakelock.NewManager(f.sentinel, logger)

	emitter := events.NewInMemoryEventEmitter(logger)
	emitter.RegisterHandler(f.log)
	rec := NewRecorder(f.results, f.resume, logger)
	emitter.RegisterHandler(rec, rec.EventTypes()...)

	q, err := quiz.New(quiz.Config{Target: f.board, Events: emitter, Resume: f.resume, Logger: logger})
	require.NoError(t, err)
	w, err := workout.New(workout.Config{
		Target:   f.board,
		Events:   emitter,
		Resume:   f.resume,
		WakeLock: f.lock,
		Clock:    c,
		Logger:   logger,
	})
	require.NoError(t, err)
	l, err := listening.New(listening.Config{
		Synth:  speech.NewPacedSynthesizer(c, 150, nil, logger),
		Clock:  c,
		Target: f.board,
		Events: emitter,
		Resume: f.resume,
		Logger: logger,
	})
	require.NoError(t, err)

	ctrl, err := NewController(Config{
		Quizzes:         f.quizzes,
		Workouts:        f.workouts,
		Listening:       f.listening,
		Resume:          f.resume,
		QuizEngine:      q,
		WorkoutEngine:   w,
		ListeningEngine: l,
		Board:           f.board,
		Visibility:      f.lock,
		Events:          emitter,
		Logger:          logger,
	})
	require.NoError(t, err)
	require.NoError(t, ctrl.Init(context.Background()))
	f.ctrl = ctrl
	return f
}

func (f *fixture) addQuiz(t *testing.T) *domain.Quiz {
	t.Helper()
	q, err := domain.NewQuiz("Facts", []domain.Question{
		domain.TrueFalse{QuestionBase: domain.QuestionBase{Text: "q1"}, Correct: true},
		domain.TrueFalse{QuestionBase: domain.QuestionBase{Text: "q2"}, Correct: true},
		domain.TrueFalse{QuestionBase: domain.QuestionBase{Text: "q3"}, Correct: true},
	})
	require.NoError(t, err)
	f.quizzes.Put(q)
	return q
}

func (f *fixture) addWorkout(t *testing.T) *domain.Workout {
	t.Helper()
	w, err := domain.NewWorkout("Morning", []domain.WorkoutPhase{{
		Name: "Main",
		Exercises: []domain.Exercise{
			domain.RepetitionExercise{ExerciseBase: domain.ExerciseBase{Name: "Squats"}, Reps: 10},
			domain.RepetitionExercise{ExerciseBase: domain.ExerciseBase{Name: "Push-ups"}, Reps: 5},
		},
	}})
	require.NoError(t, err)
	f.workouts.Put(w)
	return w
}

func (f *fixture) addListeningSet(t *testing.T) *domain.ListeningSet {
	t.Helper()
	set, err := domain.NewListeningSet("Greetings", []string{"en", "de"}, []domain.Pair{
		domain.NewPair("en", "Hello", "de", "Hallo"),
		domain.NewPair("en", "Thanks", "de", "Danke"),
	})
	require.NoError(t, err)
	f.listening.Put(set)
	return set
}

func answer(t *testing.T, c *Controller, values ...bool) {
	t.Helper()
	for _, v := range values {
		_, err := c.Answer(quiz.BoolAnswer{Value: v})
		require.NoError(t, err)
		require.NoError(t, c.NextQuestion())
	}
}

func TestQuizSessionRecordsResult(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	q := f.addQuiz(t)

	require.NoError(t, f.ctrl.OfferQuiz(ctx, q.ID))
	st := f.ctrl.Status()
	assert.Equal(t, domain.ContentTypeQuiz, st.ContentType)
	assert.Equal(t, q.ID, st.ContentID)
	require.NotNil(t, st.Quiz)
	assert.Equal(t, quiz.StateAwaitingOptions, st.Quiz.State)

	require.NoError(t, f.ctrl.BeginQuiz(ctx, quiz.Options{}))
	answer(t, f.ctrl, true, false)
	saved, err := f.resume.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, saved.Index)
	assert.Equal(t, 1, saved.Score)

	answer(t, f.ctrl, true)

	sum, err := f.ctrl.QuizSummary()
	require.NoError(t, err)
	assert.Equal(t, quiz.Summary{Score: 2, Total: 3, Mistakes: 1}, sum)

	results := f.results.Results()
	require.Len(t, results, 1)
	assert.Equal(t, q.ID, results[0].ContentID)
	assert.Equal(t, 2, results[0].Score)
	assert.Equal(t, 3, results[0].Total)

	pending, err := f.ctrl.PendingResume(ctx)
	require.NoError(t, err)
	assert.Nil(t, pending, "completion clears the resume record")

	st = f.ctrl.Status()
	assert.False(t, st.Active)
	require.NotNil(t, st.Quiz.Summary)
	assert.Equal(t, 2, st.Quiz.Summary.Score)

	require.NoError(t, f.ctrl.Stop(ctx))
	assert.Zero(t, f.log.count(events.SessionStopped), "a finished session is not reported as stopped")
}

func TestRetryMistakesRecordsSubSession(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	q := f.addQuiz(t)

	require.NoError(t, f.ctrl.StartQuiz(ctx, q.ID, quiz.Options{}))
	answer(t, f.ctrl, false, true, false)

	require.NoError(t, f.ctrl.RetryMistakes(ctx))
	answer(t, f.ctrl, true, true)

	results := f.results.Results()
	require.Len(t, results, 2)
	assert.False(t, results[0].MistakesOnly)
	assert.True(t, results[1].MistakesOnly)
	assert.Equal(t, 2, results[1].Total)
}

func TestStopKeepsResumeAndResumeContinues(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	q := f.addQuiz(t)

	require.NoError(t, f.ctrl.StartQuiz(ctx, q.ID, quiz.Options{}))
	answer(t, f.ctrl, true, true)
	require.NoError(t, f.ctrl.Stop(ctx))

	assert.Equal(t, 1, f.log.count(events.SessionStopped))
	assert.Empty(t, f.ctrl.View(), "stop clears the board")
	assert.Equal(t, Status{}, f.ctrl.Status())

	pending, err := f.ctrl.PendingResume(ctx)
	require.NoError(t, err)
	require.NotNil(t, pending)
	assert.True(t, pending.Matches(domain.ContentTypeQuiz, q.ID))

	require.NoError(t, f.ctrl.StartQuiz(ctx, q.ID, quiz.Options{Resume: true}))
	p, err := f.ctrl.Progress()
	require.NoError(t, err)
	assert.Equal(t, 3, p.Current)
	assert.Equal(t, 3, p.Total)

	answer(t, f.ctrl, true)
	results := f.results.Results()
	require.Len(t, results, 1)
	assert.Equal(t, 3, results[0].Score)
}

func TestSwitchingEnginesReleasesWakeLock(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	w := f.addWorkout(t)
	set := f.addListeningSet(t)

	require.NoError(t, f.ctrl.StartWorkout(ctx, w.ID, workout.Options{}))
	assert.True(t, f.sentinel.Held())
	assert.Equal(t, 1, f.lock.References())

	st := f.ctrl.Status()
	require.NotNil(t, st.Workout)
	require.NotNil(t, st.Workout.Step)
	assert.Equal(t, "Squats", st.Workout.Step.Name)

	require.NoError(t, f.ctrl.CompleteStep())
	require.NoError(t, f.ctrl.StartListening(ctx, set.ID, listening.Options{}))

	assert.False(t, f.sentinel.Held())
	assert.Zero(t, f.lock.References())
	assert.Equal(t, 1, f.log.count(events.SessionStopped))

	st = f.ctrl.Status()
	assert.Equal(t, domain.ContentTypeListening, st.ContentType)
	require.NotNil(t, st.Listening)
	require.NotNil(t, st.Listening.Pair)
	text, ok := st.Listening.Pair.Text("de")
	assert.True(t, ok)
	assert.Equal(t, "Hallo", text)

	require.NoError(t, f.ctrl.NextPair())
	assert.Equal(t, 1, f.ctrl.Status().Listening.Index)
	require.NoError(t, f.ctrl.PreviousPair())
	assert.Equal(t, 0, f.ctrl.Status().Listening.Index)
}

func TestWorkoutCompletion(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	w := f.addWorkout(t)

	require.NoError(t, f.ctrl.StartWorkout(ctx, w.ID, workout.Options{}))
	assert.ErrorIs(t, f.ctrl.StartTimer(), workout.ErrNotTimed)
	require.NoError(t, f.ctrl.CompleteStep())
	require.NoError(t, f.ctrl.SkipStep())

	assert.False(t, f.sentinel.Held())
	results := f.results.Results()
	require.Len(t, results, 1)
	assert.Equal(t, domain.ContentTypeWorkout, results[0].ContentType)
	assert.Equal(t, 2, results[0].Total)
	assert.ErrorIs(t, f.ctrl.SkipStep(), workout.ErrFinished)
}

func TestActionErrors(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.ctrl.NextQuestion(), ErrNoSession)
	assert.ErrorIs(t, f.ctrl.Pause(), ErrNoSession)
	_, err := f.ctrl.Progress()
	assert.ErrorIs(t, err, ErrNoSession)
	assert.NoError(t, f.ctrl.Stop(ctx), "stopping nothing is a no-op")

	assert.ErrorIs(t, f.ctrl.StartQuiz(ctx, uuid.New(), quiz.Options{}), ErrContentNotFound)
	assert.ErrorIs(t, f.ctrl.StartWorkout(ctx, uuid.New(), workout.Options{}), ErrContentNotFound)
	assert.ErrorIs(t, f.ctrl.StartListening(ctx, uuid.New(), listening.Options{}), ErrContentNotFound)

	set := f.addListeningSet(t)
	require.NoError(t, f.ctrl.StartListening(ctx, set.ID, listening.Options{}))
	assert.ErrorIs(t, f.ctrl.SkipStep(), ErrWrongEngine)
	_, err = f.ctrl.Answer(quiz.BoolAnswer{Value: true})
	assert.ErrorIs(t, err, ErrWrongEngine)
	assert.ErrorIs(t, f.ctrl.BeginQuiz(ctx, quiz.Options{}), ErrWrongEngine)
}

func TestVisibilityDropsAndReacquiresLock(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	w := f.addWorkout(t)

	require.NoError(t, f.ctrl.StartWorkout(ctx, w.ID, workout.Options{}))
	require.NoError(t, f.ctrl.VisibilityChanged(ctx, false))
	assert.False(t, f.lock.Held())

	require.NoError(t, f.ctrl.VisibilityChanged(ctx, true))
	assert.True(t, f.lock.Held())
	acquires, _ := f.sentinel.Counts()
	assert.Equal(t, 2, acquires)
}

func TestNewControllerRequiresEngines(t *testing.T) {
	t.Parallel()

	_, err := NewController(Config{})
	assert.Error(t, err)
	_, err = NewController(Config{
		Quizzes:   mocks.NewMockQuizStore(),
		Workouts:  mocks.NewMockWorkoutStore(),
		Listening: mocks.NewMockListeningStore(),
	})
	assert.Error(t, err)
}
