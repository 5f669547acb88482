package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/phrazzld/scry-activities/internal/content"
	"github.com/phrazzld/scry-activities/internal/domain"
	"github.com/phrazzld/scry-activities/internal/engine/quiz"
	"github.com/phrazzld/scry-activities/internal/engine/workout"
	"github.com/phrazzld/scry-activities/internal/service"
	"github.com/phrazzld/scry-activities/internal/service/session"
	"github.com/phrazzld/scry-activities/internal/store"
)

func TestMapErrorToStatusCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"content not found", fmt.Errorf("%w: %w", service.ErrContentNotFound, store.ErrQuizNotFound), http.StatusNotFound, "Content not found"},
		{"session content not found", session.ErrContentNotFound, http.StatusNotFound, "Content not found"},
		{"generation not found", service.ErrGenerationNotFound, http.StatusNotFound, "Generation request not found"},
		{"conflict", service.ErrContentConflict, http.StatusConflict, "Content ID is already in use"},
		{"no session", session.ErrNoSession, http.StatusConflict, "No session is active"},
		{"wrong engine", fmt.Errorf("skip: %w", session.ErrWrongEngine), http.StatusConflict, "Action does not apply to the active session"},
		{"already answered", quiz.ErrAlreadyAnswered, http.StatusConflict, "Action is not allowed in the current session state"},
		{"workout finished", workout.ErrFinished, http.StatusConflict, "Action is not allowed in the current session state"},
		{"answer kind", quiz.ErrAnswerKind, http.StatusBadRequest, "Answer does not fit the question"},
		{"unknown question", quiz.ErrUnknownQuestion, http.StatusUnprocessableEntity, "Question type is not supported"},
		{"content type", domain.ErrInvalidContentType, http.StatusBadRequest, "Invalid content type"},
		{"format", content.ErrUnsupportedFormat, http.StatusBadRequest, "Unsupported content format"},
		{"invalid document", fmt.Errorf("%w: quiz 0", content.ErrInvalidDocument), http.StatusBadRequest, "Invalid content"},
		{"invalid content", service.ErrInvalidContent, http.StatusBadRequest, "Invalid content"},
		{"invalid request", ErrInvalidRequest, http.StatusBadRequest, "Invalid request"},
		{"generation disabled", service.ErrGenerationDisabled, http.StatusServiceUnavailable, "Quiz generation is not available"},
		{"unexpected", errors.New("connection reset by peer"), http.StatusInternalServerError, "An unexpected error occurred"},
		{"nil", nil, http.StatusInternalServerError, "An unexpected error occurred"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.status, MapErrorToStatusCode(tc.err))
			assert.Equal(t, tc.message, GetSafeErrorMessage(tc.err))
		})
	}
}

func TestSanitizeValidationError(t *testing.T) {
	t.Parallel()

	v := validator.New()

	err := v.Struct(GenerationRequest{Topic: "rivers", QuestionCount: 99})
	assert.Equal(t, "Invalid QuestionCount: too large", SanitizeValidationError(err))

	err = v.Struct(StartSessionRequest{ContentType: "quiz", ContentID: "nope"})
	assert.Equal(t, "Invalid ContentID: invalid ID", SanitizeValidationError(err))

	err = v.Struct(StartSessionRequest{ContentType: "essay", ContentID: "9b2e4a35-52a6-4c4e-a8f3-27bd1a3c5e4d"})
	assert.Equal(t, "Invalid ContentType: invalid value", SanitizeValidationError(err))

	assert.Equal(t, "Validation error", SanitizeValidationError(errors.New("other")))
}

func TestAnswerRequest(t *testing.T) {
	t.Parallel()

	idx, val, text := 2, true, "Paris"
	tests := []struct {
		name   string
		req    AnswerRequest
		answer quiz.Answer
		valid  bool
	}{
		{"choice", AnswerRequest{Index: &idx}, quiz.ChoiceAnswer{Index: 2}, true},
		{"bool", AnswerRequest{Value: &val}, quiz.BoolAnswer{Value: true}, true},
		{"text", AnswerRequest{Text: &text}, quiz.TextAnswer{Text: "Paris"}, true},
		{"pairs", AnswerRequest{Pairs: map[string]string{"a": "b"}}, quiz.MatchAnswer{Pairs: map[string]string{"a": "b"}}, true},
		{"empty", AnswerRequest{}, nil, false},
		{"two fields", AnswerRequest{Index: &idx, Text: &text}, nil, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate()
			if !tc.valid {
				assert.ErrorIs(t, err, ErrInvalidRequest)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.answer, tc.req.Answer())
		})
	}
}
