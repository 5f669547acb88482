package task

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/phrazzld/scry-activities/internal/generation"
)

// QuizGenerationTaskFactory builds quiz generation tasks with their dependencies.
type QuizGenerationTaskFactory struct {
	requests  GenerationRequestRepository
	quizzes   QuizRepository
	generator generation.Generator
	logger    *slog.Logger
}

// NewQuizGenerationTaskFactory creates a factory. It panics on nil
// dependencies, which is a wiring error.
func NewQuizGenerationTaskFactory(
	requests GenerationRequestRepository,
	quizzes QuizRepository,
	generator generation.Generator,
	logger *slog.Logger,
) *QuizGenerationTaskFactory {
	switch {
	case requests == nil:
		panic(ErrNilRequestStore)
	case quizzes == nil:
		panic(ErrNilQuizStore)
	case generator == nil:
		panic(ErrNilGenerator)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &QuizGenerationTaskFactory{
		requests:  requests,
		quizzes:   quizzes,
		generator: generator,
		logger:    logger.With("component", "quiz_generation_task"),
	}
}

// CreateTask builds a new pending task for a generation request.
func (f *QuizGenerationTaskFactory) CreateTask(requestID uuid.UUID) (Task, error) {
	if requestID == uuid.Nil {
		return nil, ErrEmptyRequestID
	}
	return f.build(uuid.New(), requestID, TaskStatusPending), nil
}

// Rehydrate rebuilds a task from its stored record.
func (f *QuizGenerationTaskFactory) Rehydrate(rec Record) (Task, error) {
	var payload quizGenerationPayload
	if err := json.Unmarshal(rec.Payload, &payload); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidTaskRecord, rec.ID, err)
	}
	if payload.RequestID == uuid.Nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidTaskRecord, rec.ID, ErrEmptyRequestID)
	}

	status := rec.Status
	if status == "" {
		status = TaskStatusPending
	}
	return f.build(rec.ID, payload.RequestID, status), nil
}

// Factories returns the rehydration table for the tasks this factory builds.
func (f *QuizGenerationTaskFactory) Factories() Factories {
	return Factories{TaskTypeQuizGeneration: f.Rehydrate}
}

func (f *QuizGenerationTaskFactory) build(id, requestID uuid.UUID, status TaskStatus) *QuizGenerationTask {
	return &QuizGenerationTask{
		id:        id,
		requestID: requestID,
		status:    status,
		requests:  f.requests,
		quizzes:   f.quizzes,
		generator: f.generator,
		logger:    f.logger.With("task_id", id),
	}
}
