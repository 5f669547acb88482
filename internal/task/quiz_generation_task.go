package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/phrazzld/scry-activities/internal/domain"
	"github.com/phrazzld/scry-activities/internal/generation"
	"github.com/phrazzld/scry-activities/internal/redact"
)

// Quiz generation task errors
var (
	ErrNilGenerator      = errors.New("generator cannot be nil")
	ErrNilRequestStore   = errors.New("generation request store cannot be nil")
	ErrNilQuizStore      = errors.New("quiz store cannot be nil")
	ErrEmptyRequestID    = errors.New("generation request ID cannot be empty")
	ErrInvalidTaskRecord = errors.New("invalid task record")
)

// GenerationRequestRepository loads and updates generation requests.
type GenerationRequestRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.GenerationRequest, error)
	Update(ctx context.Context, req *domain.GenerationRequest) error
}

// QuizRepository persists generated quizzes.
type QuizRepository interface {
	Save(ctx context.Context, quiz *domain.Quiz) error
}

// quizGenerationPayload is the stored payload of a quiz generation task.
type quizGenerationPayload struct {
	RequestID uuid.UUID `json:"request_id"`
}

// QuizGenerationTask generates a quiz for one generation request and saves it.
type QuizGenerationTask struct {
	id        uuid.UUID
	requestID uuid.UUID
	status    TaskStatus
	requests  GenerationRequestRepository
	quizzes   QuizRepository
	generator generation.Generator
	logger    *slog.Logger
}

var _ Task = (*QuizGenerationTask)(nil)

// ID implements Task.
func (t *QuizGenerationTask) ID() uuid.UUID { return t.id }

// Type implements Task.
func (t *QuizGenerationTask) Type() string { return TaskTypeQuizGeneration }

// Status implements Task.
func (t *QuizGenerationTask) Status() TaskStatus { return t.status }

// RequestID returns the generation request this task works on.
func (t *QuizGenerationTask) RequestID() uuid.UUID { return t.requestID }

// Payload implements Task.
func (t *QuizGenerationTask) Payload() []byte {
	data, err := json.Marshal(quizGenerationPayload{RequestID: t.requestID})
	if err != nil {
		t.logger.Error("failed to marshal task payload", "error", err)
		return nil
	}
	return data
}

// Execute runs the generation. The request moves to processing, then to
// completed with the saved quiz ID, or to failed with a redacted error.
// Requests already completed are left alone.
func (t *QuizGenerationTask) Execute(ctx context.Context) error {
	t.status = TaskStatusProcessing
	log := t.logger.With("request_id", t.requestID)

	req, err := t.requests.GetByID(ctx, t.requestID)
	if err != nil {
		t.status = TaskStatusFailed
		return fmt.Errorf("failed to load generation request: %w", err)
	}

	if req.Status == domain.GenerationStatusCompleted {
		log.InfoContext(ctx, "generation request already completed, skipping", "quiz_id", req.QuizID)
		t.status = TaskStatusCompleted
		return nil
	}

	if err := t.transition(ctx, req, domain.GenerationStatusProcessing); err != nil {
		t.status = TaskStatusFailed
		return err
	}

	log.InfoContext(ctx, "generating quiz", "question_count", req.QuestionCount)

	quiz, err := t.generator.GenerateQuiz(ctx, req.Topic, req.QuestionCount)
	if err != nil {
		return t.fail(ctx, req, fmt.Errorf("failed to generate quiz: %w", err))
	}

	if err := t.quizzes.Save(ctx, quiz); err != nil {
		return t.fail(ctx, req, fmt.Errorf("failed to save generated quiz: %w", err))
	}

	req.QuizID = quiz.ID
	req.Error = ""
	if err := t.transition(ctx, req, domain.GenerationStatusCompleted); err != nil {
		t.status = TaskStatusFailed
		return err
	}

	log.InfoContext(ctx, "quiz generated",
		"quiz_id", quiz.ID,
		"questions", len(quiz.Questions))
	t.status = TaskStatusCompleted
	return nil
}

func (t *QuizGenerationTask) transition(
	ctx context.Context,
	req *domain.GenerationRequest,
	status domain.GenerationStatus,
) error {
	if err := req.UpdateStatus(status); err != nil {
		return err
	}
	if err := t.requests.Update(ctx, req); err != nil {
		return fmt.Errorf("failed to mark generation request %s: %w", status, err)
	}
	return nil
}

// fail records cause on the request and returns it. A cancelled context
// leaves the request in processing so recovery can retry it.
func (t *QuizGenerationTask) fail(ctx context.Context, req *domain.GenerationRequest, cause error) error {
	t.status = TaskStatusFailed
	if ctx.Err() != nil {
		return cause
	}

	req.Error = redact.Error(cause)
	if err := t.transition(ctx, req, domain.GenerationStatusFailed); err != nil {
		t.logger.ErrorContext(ctx, "failed to record generation failure",
			"request_id", req.ID,
			"error", err)
	}
	return cause
}
