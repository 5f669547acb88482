package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/scry-activities/internal/content"
	"github.com/phrazzld/scry-activities/internal/domain"
	"github.com/phrazzld/scry-activities/internal/mocks"
	"github.com/phrazzld/scry-activities/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type contentFixture struct {
	quizzes   *mocks.MockContentStore[*domain.Quiz]
	workouts  *mocks.MockContentStore[*domain.Workout]
	listening *mocks.MockContentStore[*domain.ListeningSet]
	results   *mocks.MockResultStore
	svc       *ContentService
}

func newContentFixture(t *testing.T) *contentFixture {
	t.Helper()

	f := &contentFixture{
		quizzes:   mocks.NewMockQuizStore(),
		workouts:  mocks.NewMockWorkoutStore(),
		listening: mocks.NewMockListeningStore(),
		results:   &mocks.MockResultStore{},
	}
	svc, err := NewContentService(ContentServiceConfig{
		Quizzes:   f.quizzes,
		Workouts:  f.workouts,
		Listening: f.listening,
		Results:   f.results,
		Logger:    discardLogger(),
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func sampleQuiz(t *testing.T, title string) *domain.Quiz {
	t.Helper()
	quiz, err := domain.NewQuiz(title, []domain.Question{
		domain.TrueFalse{QuestionBase: domain.QuestionBase{Text: "The sky is blue"}, Correct: true},
	})
	require.NoError(t, err)
	return quiz
}

func TestNewContentService_RequiresStores(t *testing.T) {
	t.Parallel()

	_, err := NewContentService(ContentServiceConfig{})
	var serr *ServiceError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "create_service", serr.Operation)
}

func TestCatalog_SaveGetDelete(t *testing.T) {
	t.Parallel()

	f := newContentFixture(t)
	ctx := context.Background()
	quiz := sampleQuiz(t, "Sky")

	require.NoError(t, f.svc.Quizzes.Save(ctx, quiz))

	got, err := f.svc.Quizzes.Get(ctx, quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, quiz, got)

	items, err := f.svc.List(ctx, domain.ContentTypeQuiz, 10, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Sky", items[0].Title)

	require.NoError(t, f.svc.Delete(ctx, domain.ContentTypeQuiz, quiz.ID))
	_, err = f.svc.Quizzes.Get(ctx, quiz.ID)
	assert.ErrorIs(t, err, ErrContentNotFound)
	assert.ErrorIs(t, err, store.ErrQuizNotFound)

	assert.ErrorIs(t, f.svc.Delete(ctx, domain.ContentTypeQuiz, quiz.ID), ErrContentNotFound)
}

func TestCatalog_SaveErrors(t *testing.T) {
	t.Parallel()

	t.Run("invalid document is rejected before the store", func(t *testing.T) {
		t.Parallel()
		f := newContentFixture(t)

		err := f.svc.Quizzes.Save(context.Background(), &domain.Quiz{ID: uuid.New()})
		assert.ErrorIs(t, err, ErrInvalidContent)
		assert.ErrorIs(t, err, domain.ErrQuizTitleEmpty)
		assert.Zero(t, f.quizzes.SaveCalls)
	})

	t.Run("id conflict", func(t *testing.T) {
		t.Parallel()
		f := newContentFixture(t)
		f.quizzes.SaveFn = func(context.Context, *domain.Quiz) error {
			return store.NewStoreError("quiz", "save", "id in use", store.ErrContentIDConflict)
		}

		err := f.svc.Quizzes.Save(context.Background(), sampleQuiz(t, "Clash"))
		assert.ErrorIs(t, err, ErrContentConflict)
	})

	t.Run("unexpected store failure", func(t *testing.T) {
		t.Parallel()
		f := newContentFixture(t)
		boom := errors.New("connection reset")
		f.quizzes.SaveFn = func(context.Context, *domain.Quiz) error { return boom }

		err := f.svc.Quizzes.Save(context.Background(), sampleQuiz(t, "Boom"))
		var serr *ServiceError
		require.ErrorAs(t, err, &serr)
		assert.Equal(t, "save_quiz", serr.Operation)
		assert.ErrorIs(t, err, boom)
	})
}

func TestContentService_InvalidType(t *testing.T) {
	t.Parallel()

	f := newContentFixture(t)
	ctx := context.Background()

	_, err := f.svc.List(ctx, domain.ContentType("flashcards"), 10, 0)
	assert.ErrorIs(t, err, ErrInvalidContent)

	assert.ErrorIs(t, f.svc.Delete(ctx, domain.ContentType("flashcards"), uuid.New()), ErrInvalidContent)

	_, err = f.svc.Results(ctx, domain.ContentType(""), uuid.New(), 0)
	assert.ErrorIs(t, err, domain.ErrInvalidContentType)
}

func TestContentService_Results(t *testing.T) {
	t.Parallel()

	f := newContentFixture(t)
	ctx := context.Background()
	id := uuid.New()

	for i := range DefaultResultLimit + 5 {
		r, err := domain.NewSessionResult(domain.ContentTypeWorkout, id, i, 30, false)
		require.NoError(t, err)
		r.CompletedAt = r.CompletedAt.Add(time.Duration(i) * time.Minute)
		require.NoError(t, f.results.Record(ctx, r))
	}

	results, err := f.svc.Results(ctx, domain.ContentTypeWorkout, id, 0)
	require.NoError(t, err)
	require.Len(t, results, DefaultResultLimit)
	assert.Equal(t, DefaultResultLimit+4, results[0].Score, "newest first")

	results, err = f.svc.Results(ctx, domain.ContentTypeQuiz, id, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestContentService_Import(t *testing.T) {
	t.Parallel()

	set, err := domain.NewListeningSet("Greetings", nil, []domain.Pair{domain.NewPair("en", "Hello", "de", "Hallo")})
	require.NoError(t, err)
	workout, err := domain.NewWorkout("Morning", []domain.WorkoutPhase{{
		Exercises: []domain.Exercise{domain.DurationExercise{ExerciseBase: domain.ExerciseBase{Name: "Plank"}, Duration: 30}},
	}})
	require.NoError(t, err)

	t.Run("saves every document", func(t *testing.T) {
		t.Parallel()
		f := newContentFixture(t)

		bundle := content.Bundle{
			Quizzes:       []*domain.Quiz{sampleQuiz(t, "One"), sampleQuiz(t, "Two")},
			Workouts:      []*domain.Workout{workout},
			ListeningSets: []*domain.ListeningSet{set},
		}
		report, err := f.svc.Import(context.Background(), bundle)
		require.NoError(t, err)

		assert.Equal(t, ImportReport{Quizzes: 2, Workouts: 1, ListeningSets: 1}, report)
		assert.Equal(t, 2, f.quizzes.Len())
		assert.Equal(t, 1, f.workouts.Len())
		assert.Equal(t, 1, f.listening.Len())
		assert.Zero(t, f.quizzes.TxCalls, "no database means no transaction")
	})

	t.Run("invalid bundle saves nothing", func(t *testing.T) {
		t.Parallel()
		f := newContentFixture(t)

		bundle := content.Bundle{
			Quizzes: []*domain.Quiz{sampleQuiz(t, "One"), {ID: uuid.New()}},
		}
		_, err := f.svc.Import(context.Background(), bundle)
		assert.ErrorIs(t, err, ErrInvalidContent)
		assert.ErrorIs(t, err, content.ErrInvalidDocument)
		assert.Zero(t, f.quizzes.SaveCalls)
	})

	t.Run("store failure names the document", func(t *testing.T) {
		t.Parallel()
		f := newContentFixture(t)
		f.listening.SaveFn = func(context.Context, *domain.ListeningSet) error {
			return errors.New("disk full")
		}

		_, err := f.svc.Import(context.Background(), content.Bundle{ListeningSets: []*domain.ListeningSet{set}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), `"Greetings"`)
	})
}
