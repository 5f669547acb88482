package postgres_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/scry-activities/internal/domain"
	"github.com/phrazzld/scry-activities/internal/platform/postgres"
	"github.com/phrazzld/scry-activities/internal/store"
	"github.com/phrazzld/scry-activities/internal/task"
	"github.com/phrazzld/scry-activities/internal/testdb"
)

func sampleQuiz(t *testing.T, title string) *domain.Quiz {
	t.Helper()
	quiz, err := domain.NewQuiz(title, []domain.Question{
		domain.SingleChoice{
			QuestionBase: domain.QuestionBase{Text: "Capital of France?"},
			Options:      []string{"Paris", "Lyon", "Nice"},
			CorrectIndex: 0,
		},
		domain.TrueFalse{QuestionBase: domain.QuestionBase{Text: "The sun is a star"}, Correct: true},
	})
	require.NoError(t, err)
	return quiz
}

func TestContentStore_Integration(t *testing.T) {
	t.Parallel()
	db := testdb.GetTestDBWithT(t)
	ctx := context.Background()

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		quizzes := postgres.NewQuizStore(tx, nil)
		workouts := postgres.NewWorkoutStore(tx, nil)

		quiz := sampleQuiz(t, "Geography")
		require.NoError(t, quizzes.Save(ctx, quiz))

		got, err := quizzes.GetByID(ctx, quiz.ID)
		require.NoError(t, err)
		assert.Equal(t, quiz.Title, got.Title)
		require.Len(t, got.Questions, 2)
		assert.Equal(t, domain.QuestionSingleChoice, got.Questions[0].Type())

		// Saving again updates in place.
		quiz.Title = "World Geography"
		require.NoError(t, quizzes.Save(ctx, quiz))
		got, err = quizzes.GetByID(ctx, quiz.ID)
		require.NoError(t, err)
		assert.Equal(t, "World Geography", got.Title)

		summaries, err := quizzes.List(ctx, 10, 0)
		require.NoError(t, err)
		var found bool
		for _, s := range summaries {
			if s.ID == quiz.ID {
				found = true
				assert.Equal(t, domain.ContentTypeQuiz, s.Type)
				assert.Equal(t, 2, s.ItemCount)
			}
		}
		assert.True(t, found, "saved quiz should be listed")

		// A workout cannot reuse the quiz ID.
		workout, err := domain.NewWorkout("Morning", []domain.WorkoutPhase{{
			Name: "Main",
			Exercises: []domain.Exercise{domain.RepetitionExercise{
				ExerciseBase: domain.ExerciseBase{Name: "Squats"},
				Reps:         10,
			}},
		}})
		require.NoError(t, err)
		workout.ID = quiz.ID
		assert.ErrorIs(t, workouts.Save(ctx, workout), store.ErrContentIDConflict)

		_, err = workouts.GetByID(ctx, quiz.ID)
		assert.ErrorIs(t, err, store.ErrWorkoutNotFound)

		require.NoError(t, quizzes.Delete(ctx, quiz.ID))
		_, err = quizzes.GetByID(ctx, quiz.ID)
		assert.ErrorIs(t, err, store.ErrQuizNotFound)
		assert.ErrorIs(t, quizzes.Delete(ctx, quiz.ID), store.ErrNotFound)
	})
}

func TestResultStore_Integration(t *testing.T) {
	t.Parallel()
	db := testdb.GetTestDBWithT(t)
	ctx := context.Background()

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		quiz := sampleQuiz(t, "Results")
		require.NoError(t, postgres.NewQuizStore(tx, nil).Save(ctx, quiz))

		results := postgres.NewPostgresResultStore(tx, nil)
		for _, score := range []int{1, 2} {
			r, err := domain.NewSessionResult(domain.ContentTypeQuiz, quiz.ID, score, 2, false)
			require.NoError(t, err)
			require.NoError(t, results.Record(ctx, r))
		}

		list, err := results.ListByContent(ctx, domain.ContentTypeQuiz, quiz.ID, 10)
		require.NoError(t, err)
		assert.Len(t, list, 2)

		orphan, err := domain.NewSessionResult(domain.ContentTypeQuiz, uuid.New(), 0, 1, false)
		require.NoError(t, err)
		assert.Error(t, results.Record(ctx, orphan))
	})
}

func TestGenerationStore_Integration(t *testing.T) {
	t.Parallel()
	db := testdb.GetTestDBWithT(t)
	ctx := context.Background()

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		requests := postgres.NewPostgresGenerationStore(tx, nil)

		req, err := domain.NewGenerationRequest("volcanoes", 5)
		require.NoError(t, err)
		require.NoError(t, requests.Create(ctx, req))

		quiz := sampleQuiz(t, "Volcanoes")
		require.NoError(t, postgres.NewQuizStore(tx, nil).Save(ctx, quiz))

		require.NoError(t, req.UpdateStatus(domain.GenerationStatusCompleted))
		req.QuizID = quiz.ID
		require.NoError(t, requests.Update(ctx, req))

		got, err := requests.GetByID(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.GenerationStatusCompleted, got.Status)
		assert.Equal(t, quiz.ID, got.QuizID)

		_, err = requests.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, store.ErrGenerationNotFound)
	})
}

func TestTaskStore_Integration(t *testing.T) {
	t.Parallel()
	db := testdb.GetTestDBWithT(t)
	ctx := context.Background()

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		tasks := postgres.NewPostgresTaskStore(tx, nil)

		payload, err := json.Marshal(map[string]string{"request_id": uuid.NewString()})
		require.NoError(t, err)
		mt := task.NewMockTask(uuid.New(), task.TaskTypeQuizGeneration, payload)
		require.NoError(t, tasks.SaveTask(ctx, mt))

		pending, err := tasks.GetPendingTasks(ctx)
		require.NoError(t, err)
		rec := findRecord(pending, mt.ID())
		require.NotNil(t, rec, "saved task should be pending")
		assert.Equal(t, task.TaskTypeQuizGeneration, rec.Type)
		assert.JSONEq(t, string(payload), string(rec.Payload))

		require.NoError(t, tasks.UpdateTaskStatus(ctx, mt.ID(), task.TaskStatusProcessing, ""))

		processing, err := tasks.GetProcessingTasks(ctx, 0)
		require.NoError(t, err)
		assert.NotNil(t, findRecord(processing, mt.ID()))

		recent, err := tasks.GetProcessingTasks(ctx, time.Hour)
		require.NoError(t, err)
		assert.Nil(t, findRecord(recent, mt.ID()), "fresh task is not stuck")

		require.NoError(t, tasks.UpdateTaskStatus(ctx, mt.ID(), task.TaskStatusFailed, "boom"))
		var msg string
		require.NoError(t, tx.QueryRowContext(ctx,
			"SELECT error_message FROM tasks WHERE id = $1", mt.ID()).Scan(&msg))
		assert.Equal(t, "boom", msg)

		// Unknown IDs are ignored.
		assert.NoError(t, tasks.UpdateTaskStatus(ctx, uuid.New(), task.TaskStatusCompleted, ""))
	})
}

func findRecord(records []task.Record, id uuid.UUID) *task.Record {
	for i := range records {
		if records[i].ID == id {
			return &records[i]
		}
	}
	return nil
}
