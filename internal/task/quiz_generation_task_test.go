package task

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/scry-activities/internal/domain"
	"github.com/phrazzld/scry-activities/internal/generation"
)

type mockRequests struct {
	mock.Mock
}

func (m *mockRequests) GetByID(ctx context.Context, id uuid.UUID) (*domain.GenerationRequest, error) {
	args := m.Called(ctx, id)
	req, _ := args.Get(0).(*domain.GenerationRequest)
	return req, args.Error(1)
}

func (m *mockRequests) Update(ctx context.Context, req *domain.GenerationRequest) error {
	// Record a copy so the test can inspect each transition.
	snapshot := *req
	return m.Called(ctx, snapshot).Error(0)
}

type mockQuizzes struct {
	mock.Mock
}

func (m *mockQuizzes) Save(ctx context.Context, quiz *domain.Quiz) error {
	return m.Called(ctx, quiz).Error(0)
}

type stubGenerator struct {
	quiz  *domain.Quiz
	err   error
	topic string
	count int
}

func (g *stubGenerator) GenerateQuiz(ctx context.Context, topic string, count int) (*domain.Quiz, error) {
	g.topic, g.count = topic, count
	return g.quiz, g.err
}

func sampleQuiz(t *testing.T) *domain.Quiz {
	t.Helper()
	quiz, err := domain.NewQuiz("Water", []domain.Question{
		domain.TrueFalse{QuestionBase: domain.QuestionBase{Text: "Water boils at 100C at sea level"}, Correct: true},
	})
	require.NoError(t, err)
	return quiz
}

func withStatus(status domain.GenerationStatus) any {
	return mock.MatchedBy(func(req domain.GenerationRequest) bool { return req.Status == status })
}

func TestQuizGenerationTask_Execute(t *testing.T) {
	t.Parallel()

	t.Run("generates and saves the quiz", func(t *testing.T) {
		t.Parallel()

		req, err := domain.NewGenerationRequest("water cycle", 4)
		require.NoError(t, err)
		quiz := sampleQuiz(t)

		requests := &mockRequests{}
		requests.On("GetByID", mock.Anything, req.ID).Return(req, nil)
		requests.On("Update", mock.Anything, withStatus(domain.GenerationStatusProcessing)).Return(nil).Once()
		requests.On("Update", mock.Anything, mock.MatchedBy(func(r domain.GenerationRequest) bool {
			return r.Status == domain.GenerationStatusCompleted && r.QuizID == quiz.ID
		})).Return(nil).Once()

		quizzes := &mockQuizzes{}
		quizzes.On("Save", mock.Anything, quiz).Return(nil)

		gen := &stubGenerator{quiz: quiz}
		factory := NewQuizGenerationTaskFactory(requests, quizzes, gen, discardLogger())

		task, err := factory.CreateTask(req.ID)
		require.NoError(t, err)
		require.NoError(t, task.Execute(context.Background()))

		assert.Equal(t, TaskStatusCompleted, task.Status())
		assert.Equal(t, "water cycle", gen.topic)
		assert.Equal(t, 4, gen.count)
		requests.AssertExpectations(t)
		quizzes.AssertExpectations(t)
	})

	t.Run("skips completed requests", func(t *testing.T) {
		t.Parallel()

		req, err := domain.NewGenerationRequest("water cycle", 4)
		require.NoError(t, err)
		req.Status = domain.GenerationStatusCompleted
		req.QuizID = uuid.New()

		requests := &mockRequests{}
		requests.On("GetByID", mock.Anything, req.ID).Return(req, nil)
		quizzes := &mockQuizzes{}
		gen := &stubGenerator{err: errors.New("must not be called")}

		task, err := NewQuizGenerationTaskFactory(requests, quizzes, gen, discardLogger()).CreateTask(req.ID)
		require.NoError(t, err)
		require.NoError(t, task.Execute(context.Background()))

		assert.Empty(t, gen.topic)
		requests.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		quizzes.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("generator failure marks the request failed", func(t *testing.T) {
		t.Parallel()

		req, err := domain.NewGenerationRequest("water cycle", 4)
		require.NoError(t, err)

		requests := &mockRequests{}
		requests.On("GetByID", mock.Anything, req.ID).Return(req, nil)
		requests.On("Update", mock.Anything, withStatus(domain.GenerationStatusProcessing)).Return(nil).Once()
		requests.On("Update", mock.Anything, mock.MatchedBy(func(r domain.GenerationRequest) bool {
			return r.Status == domain.GenerationStatusFailed && r.Error != ""
		})).Return(nil).Once()

		gen := &stubGenerator{err: generation.ErrContentBlocked}
		task, err := NewQuizGenerationTaskFactory(requests, &mockQuizzes{}, gen, discardLogger()).CreateTask(req.ID)
		require.NoError(t, err)

		err = task.Execute(context.Background())
		assert.ErrorIs(t, err, generation.ErrContentBlocked)
		assert.Equal(t, TaskStatusFailed, task.Status())
		requests.AssertExpectations(t)
	})

	t.Run("save failure marks the request failed", func(t *testing.T) {
		t.Parallel()

		req, err := domain.NewGenerationRequest("water cycle", 4)
		require.NoError(t, err)
		quiz := sampleQuiz(t)
		saveErr := errors.New("disk full")

		requests := &mockRequests{}
		requests.On("GetByID", mock.Anything, req.ID).Return(req, nil)
		requests.On("Update", mock.Anything, withStatus(domain.GenerationStatusProcessing)).Return(nil).Once()
		requests.On("Update", mock.Anything, withStatus(domain.GenerationStatusFailed)).Return(nil).Once()
		quizzes := &mockQuizzes{}
		quizzes.On("Save", mock.Anything, quiz).Return(saveErr)

		task, err := NewQuizGenerationTaskFactory(requests, quizzes, &stubGenerator{quiz: quiz}, discardLogger()).
			CreateTask(req.ID)
		require.NoError(t, err)

		assert.ErrorIs(t, task.Execute(context.Background()), saveErr)
		requests.AssertExpectations(t)
	})

	t.Run("missing request", func(t *testing.T) {
		t.Parallel()

		id := uuid.New()
		notFound := errors.New("generation request not found")
		requests := &mockRequests{}
		requests.On("GetByID", mock.Anything, id).Return(nil, notFound)

		task, err := NewQuizGenerationTaskFactory(requests, &mockQuizzes{}, &stubGenerator{}, discardLogger()).
			CreateTask(id)
		require.NoError(t, err)

		assert.ErrorIs(t, task.Execute(context.Background()), notFound)
		assert.Equal(t, TaskStatusFailed, task.Status())
	})

	t.Run("cancelled context leaves the request processing", func(t *testing.T) {
		t.Parallel()

		req, err := domain.NewGenerationRequest("water cycle", 4)
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		requests := &mockRequests{}
		requests.On("GetByID", mock.Anything, req.ID).Return(req, nil)
		requests.On("Update", mock.Anything, withStatus(domain.GenerationStatusProcessing)).
			Run(func(mock.Arguments) { cancel() }).
			Return(nil).Once()

		gen := &stubGenerator{err: context.Canceled}
		task, err := NewQuizGenerationTaskFactory(requests, &mockQuizzes{}, gen, discardLogger()).CreateTask(req.ID)
		require.NoError(t, err)

		assert.ErrorIs(t, task.Execute(ctx), context.Canceled)
		requests.AssertExpectations(t)
		requests.AssertNumberOfCalls(t, "Update", 1)
	})
}

func TestQuizGenerationTaskFactory(t *testing.T) {
	t.Parallel()

	factory := NewQuizGenerationTaskFactory(&mockRequests{}, &mockQuizzes{}, &stubGenerator{}, discardLogger())

	t.Run("rejects empty request ID", func(t *testing.T) {
		_, err := factory.CreateTask(uuid.Nil)
		assert.ErrorIs(t, err, ErrEmptyRequestID)
	})

	t.Run("payload round trips through rehydration", func(t *testing.T) {
		requestID := uuid.New()
		task, err := factory.CreateTask(requestID)
		require.NoError(t, err)
		assert.Equal(t, TaskTypeQuizGeneration, task.Type())
		assert.Equal(t, TaskStatusPending, task.Status())

		rec := Record{ID: task.ID(), Type: task.Type(), Payload: task.Payload(), Status: TaskStatusProcessing}
		rebuilt, err := factory.Factories().Rehydrate(rec)
		require.NoError(t, err)

		qt, ok := rebuilt.(*QuizGenerationTask)
		require.True(t, ok)
		assert.Equal(t, task.ID(), qt.ID())
		assert.Equal(t, requestID, qt.RequestID())
		assert.Equal(t, TaskStatusProcessing, qt.Status())
	})

	t.Run("rejects bad records", func(t *testing.T) {
		_, err := factory.Rehydrate(Record{ID: uuid.New(), Payload: []byte("{")})
		assert.ErrorIs(t, err, ErrInvalidTaskRecord)

		empty, _ := json.Marshal(map[string]string{})
		_, err = factory.Rehydrate(Record{ID: uuid.New(), Payload: empty})
		assert.ErrorIs(t, err, ErrEmptyRequestID)
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := factory.Factories().Rehydrate(Record{Type: "memo_generation"})
		assert.ErrorIs(t, err, ErrUnknownTaskType)
	})

	t.Run("panics on nil dependencies", func(t *testing.T) {
		assert.Panics(t, func() {
			NewQuizGenerationTaskFactory(nil, &mockQuizzes{}, &stubGenerator{}, discardLogger())
		})
		assert.Panics(t, func() {
			NewQuizGenerationTaskFactory(&mockRequests{}, &mockQuizzes{}, nil, discardLogger())
		})
	})
}
