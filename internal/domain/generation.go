package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// GenerationStatus represents the processing state of a quiz generation request
type GenerationStatus string

// Possible generation status values
const (
	GenerationStatusPending    GenerationStatus = "pending"
	GenerationStatusProcessing GenerationStatus = "processing"
	GenerationStatusCompleted  GenerationStatus = "completed"
	GenerationStatusFailed     GenerationStatus = "failed"
)

// Common validation errors for GenerationRequest
var (
	ErrEmptyGenerationID     = errors.New("generation request ID cannot be empty")
	ErrEmptyGenerationTopic  = errors.New("generation topic cannot be empty")
	ErrInvalidGenerationSize = errors.New("question count must be between 1 and 50")
	ErrInvalidGenStatus      = errors.New("invalid generation status")
)

// MaxGeneratedQuestions caps the size of a generated quiz.
const MaxGeneratedQuestions = 50

// GenerationRequest asks the AI generator for a quiz on a topic.
// It tracks the processing state and, once completed, the resulting quiz.
type GenerationRequest struct {
	ID            uuid.UUID        `json:"id"`
	Topic         string           `json:"topic"`
	QuestionCount int              `json:"question_count"`
	Status        GenerationStatus `json:"status"`
	QuizID        uuid.UUID        `json:"quiz_id,omitempty"`
	Error         string           `json:"error,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// NewGenerationRequest creates a pending request for the given topic.
func NewGenerationRequest(topic string, questionCount int) (*GenerationRequest, error) {
	now := time.Now().UTC()
	req := &GenerationRequest{
		ID:            uuid.New(),
		Topic:         topic,
		QuestionCount: questionCount,
		Status:        GenerationStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}

	return req, nil
}

// Validate checks if the GenerationRequest has valid data.
func (g *GenerationRequest) Validate() error {
	if g.ID == uuid.Nil {
		return ErrEmptyGenerationID
	}
	if g.Topic == "" {
		return ErrEmptyGenerationTopic
	}
	if g.QuestionCount < 1 || g.QuestionCount > MaxGeneratedQuestions {
		return ErrInvalidGenerationSize
	}
	if !isValidGenerationStatus(g.Status) {
		return ErrInvalidGenStatus
	}
	return nil
}

// UpdateStatus updates the request's status and the UpdatedAt timestamp.
func (g *GenerationRequest) UpdateStatus(status GenerationStatus) error {
	if !isValidGenerationStatus(status) {
		return ErrInvalidGenStatus
	}

	g.Status = status
	g.UpdatedAt = time.Now().UTC()
	return nil
}

func isValidGenerationStatus(status GenerationStatus) bool {
	switch status {
	case GenerationStatusPending, GenerationStatusProcessing,
		GenerationStatusCompleted, GenerationStatusFailed:
		return true
	default:
		return false
	}
}
