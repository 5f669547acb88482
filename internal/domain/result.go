package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Session result validation errors
var (
	ErrResultContentIDEmpty = errors.New("session result content ID cannot be empty")
	ErrResultInvalidScore   = errors.New("session result score must be between 0 and total")
)

// SessionResult records a completed session.
type SessionResult struct {
	ID           uuid.UUID   `json:"id"`
	ContentType  ContentType `json:"content_type"`
	ContentID    uuid.UUID   `json:"content_id"`
	Score        int         `json:"score"`
	Total        int         `json:"total"`
	MistakesOnly bool        `json:"mistakes_only"`
	CompletedAt  time.Time   `json:"completed_at"`
}

// NewSessionResult creates a result stamped with the current time.
func NewSessionResult(contentType ContentType, contentID uuid.UUID, score, total int, mistakesOnly bool) (*SessionResult, error) {
	result := &SessionResult{
		ID:           uuid.New(),
		ContentType:  contentType,
		ContentID:    contentID,
		Score:        score,
		Total:        total,
		MistakesOnly: mistakesOnly,
		CompletedAt:  time.Now().UTC(),
	}

	if err := result.Validate(); err != nil {
		return nil, err
	}

	return result, nil
}

// Validate checks if the SessionResult has valid data.
func (r *SessionResult) Validate() error {
	if !r.ContentType.Valid() {
		return ErrInvalidContentType
	}
	if r.ContentID == uuid.Nil {
		return ErrResultContentIDEmpty
	}
	if r.Score < 0 || r.Total < 0 || r.Score > r.Total {
		return ErrResultInvalidScore
	}
	return nil
}

// Percentage returns the score as a percentage of total, or 0 for an empty session.
func (r *SessionResult) Percentage() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Score) * 100 / float64(r.Total)
}
