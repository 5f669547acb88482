package domain

import (
	"time"

	"github.com/google/uuid"
)

// ContentSummary is the listing view of a content document.
type ContentSummary struct {
	ID          uuid.UUID   `json:"id"`
	Type        ContentType `json:"type"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	ItemCount   int         `json:"item_count"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Summary returns the listing view of the quiz.
func (q *Quiz) Summary() ContentSummary {
	return ContentSummary{
		ID:          q.ID,
		Type:        ContentTypeQuiz,
		Title:       q.Title,
		Description: q.Description,
		ItemCount:   len(q.Questions),
		UpdatedAt:   q.UpdatedAt,
	}
}

// Summary returns the listing view of the workout.
func (w *Workout) Summary() ContentSummary {
	return ContentSummary{
		ID:          w.ID,
		Type:        ContentTypeWorkout,
		Title:       w.Title,
		Description: w.Description,
		ItemCount:   w.ExerciseCount(),
		UpdatedAt:   w.UpdatedAt,
	}
}

// Summary returns the listing view of the listening set.
func (s *ListeningSet) Summary() ContentSummary {
	return ContentSummary{
		ID:          s.ID,
		Type:        ContentTypeListening,
		Title:       s.Title,
		Description: s.Description,
		ItemCount:   len(s.Pairs),
		UpdatedAt:   s.UpdatedAt,
	}
}
