package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Resume state validation errors
var (
	ErrResumeContentIDEmpty = errors.New("resume state content ID cannot be empty")
	ErrResumeIndexNegative  = errors.New("resume state index cannot be negative")
)

// ResumeState is the single "current session" record kept on local durable
// storage. It is written after each step and cleared on normal completion.
type ResumeState struct {
	ContentType ContentType `json:"content_type"`
	ContentID   uuid.UUID   `json:"content_id"`
	Index       int         `json:"index"`
	Score       int         `json:"score"`
	Order       []int       `json:"order,omitempty"` // permutation of the active list, if shuffled
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Validate checks if the ResumeState has valid data.
func (r *ResumeState) Validate() error {
	if !r.ContentType.Valid() {
		return ErrInvalidContentType
	}
	if r.ContentID == uuid.Nil {
		return ErrResumeContentIDEmpty
	}
	if r.Index < 0 {
		return ErrResumeIndexNegative
	}
	return nil
}

// Matches reports whether the state belongs to the given content.
func (r *ResumeState) Matches(contentType ContentType, id uuid.UUID) bool {
	return r != nil && r.ContentType == contentType && r.ContentID == id
}
