package generation

import (
	"context"

	"github.com/phrazzld/scry-activities/internal/domain"
)

// Generator creates quizzes from a topic.
type Generator interface {
	// GenerateQuiz returns a validated quiz with at most count questions.
	GenerateQuiz(ctx context.Context, topic string, count int) (*domain.Quiz, error)
}

// Disabled is the Generator used when no model is configured.
type Disabled struct{}

// GenerateQuiz always fails with ErrDisabled.
func (Disabled) GenerateQuiz(context.Context, string, int) (*domain.Quiz, error) {
	return nil, ErrDisabled
}
