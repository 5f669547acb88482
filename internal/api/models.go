package api

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/phrazzld/scry-activities/internal/domain"
	"github.com/phrazzld/scry-activities/internal/engine/listening"
	"github.com/phrazzld/scry-activities/internal/engine/quiz"
	"github.com/phrazzld/scry-activities/internal/engine/workout"
)

// GenerationRequest is the payload of POST /api/generations.
type GenerationRequest struct {
	Topic         string `json:"topic"          validate:"required,max=500"`
	QuestionCount int    `json:"question_count" validate:"required,min=1,max=50"`
}

// StartSessionRequest is the payload of POST /api/session/start.
// Only the options block matching ContentType is read. With OfferOnly a quiz
// waits for POST /api/session/quiz/begin.
type StartSessionRequest struct {
	ContentType string `json:"content_type" validate:"required,oneof=quiz workout listening"`
	ContentID   string `json:"content_id"   validate:"required,uuid"`
	OfferOnly   bool   `json:"offer_only"`

	Quiz      *quiz.Options      `json:"quiz,omitempty"`
	Workout   *workout.Options   `json:"workout,omitempty"`
	Listening *listening.Options `json:"listening,omitempty"`
}

// ID returns the parsed content ID. Validation has already checked the format.
func (r StartSessionRequest) ID() uuid.UUID {
	return uuid.MustParse(r.ContentID)
}

// AnswerRequest is the payload of POST /api/session/quiz/answer. Exactly one
// field must be set.
type AnswerRequest struct {
	Index *int              `json:"index,omitempty"`
	Value *bool             `json:"value,omitempty"`
	Text  *string           `json:"text,omitempty"`
	Pairs map[string]string `json:"pairs,omitempty"`
}

// Validate checks that exactly one answer field is set.
func (r AnswerRequest) Validate() error {
	set := 0
	if r.Index != nil {
		set++
	}
	if r.Value != nil {
		set++
	}
	if r.Text != nil {
		set++
	}
	if r.Pairs != nil {
		set++
	}
	if set != 1 {
		return fmt.Errorf("%w: exactly one of index, value, text or pairs is required", ErrInvalidRequest)
	}
	return nil
}

// Answer converts the request to an engine answer.
func (r AnswerRequest) Answer() quiz.Answer {
	switch {
	case r.Index != nil:
		return quiz.ChoiceAnswer{Index: *r.Index}
	case r.Value != nil:
		return quiz.BoolAnswer{Value: *r.Value}
	case r.Text != nil:
		return quiz.TextAnswer{Text: *r.Text}
	default:
		return quiz.MatchAnswer{Pairs: r.Pairs}
	}
}

// VisibilityRequest is the payload of POST /api/session/visibility.
type VisibilityRequest struct {
	Visible *bool `json:"visible" validate:"required"`
}

// ListResponse wraps a page of content summaries.
type ListResponse struct {
	Items  []domain.ContentSummary `json:"items"`
	Limit  int                     `json:"limit"`
	Offset int                     `json:"offset"`
}

// ResultsResponse wraps the recorded results of a document.
type ResultsResponse struct {
	Results []*domain.SessionResult `json:"results"`
}
