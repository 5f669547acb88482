package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/phrazzld/scry-activities/internal/api/shared"
	"github.com/phrazzld/scry-activities/internal/content"
	"github.com/phrazzld/scry-activities/internal/domain"
	"github.com/phrazzld/scry-activities/internal/engine"
	"github.com/phrazzld/scry-activities/internal/engine/listening"
	"github.com/phrazzld/scry-activities/internal/engine/quiz"
	"github.com/phrazzld/scry-activities/internal/engine/workout"
	"github.com/phrazzld/scry-activities/internal/service"
	"github.com/phrazzld/scry-activities/internal/service/session"
	"github.com/phrazzld/scry-activities/internal/store"
)

// ErrInvalidRequest marks a malformed request body, path or query.
var ErrInvalidRequest = errors.New("invalid request")

// sessionStateErrors are returned when an action does not fit the current
// state of the active session.
var sessionStateErrors = []error{
	session.ErrNoSession,
	session.ErrWrongEngine,
	engine.ErrNoSession,
	quiz.ErrNotInProgress,
	quiz.ErrAlreadyAnswered,
	quiz.ErrNotAnswered,
	quiz.ErrNothingOffered,
	quiz.ErrNoAudio,
	workout.ErrFinished,
	workout.ErrNotTimed,
	workout.ErrTimedStep,
	workout.ErrNoSteps,
	listening.ErrNoPairs,
}

func isAny(err error, targets ...error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// MapErrorToStatusCode maps internal errors to HTTP status codes.
func MapErrorToStatusCode(err error) int {
	switch {
	case isAny(err,
		service.ErrContentNotFound,
		service.ErrGenerationNotFound,
		session.ErrContentNotFound,
		store.ErrNotFound):
		return http.StatusNotFound

	case isAny(err, service.ErrContentConflict, store.ErrDuplicate):
		return http.StatusConflict

	case isAny(err, sessionStateErrors...):
		return http.StatusConflict

	case isAny(err,
		ErrInvalidRequest,
		service.ErrInvalidContent,
		store.ErrInvalidEntity,
		domain.ErrInvalidContentType,
		domain.ErrInvalidFormat,
		content.ErrUnsupportedFormat,
		content.ErrInvalidDocument,
		quiz.ErrAnswerKind):
		return http.StatusBadRequest

	case errors.Is(err, quiz.ErrUnknownQuestion):
		return http.StatusUnprocessableEntity

	case errors.Is(err, service.ErrGenerationDisabled):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-facing message for err that never
// includes internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case isAny(err, service.ErrContentNotFound, session.ErrContentNotFound):
		return "Content not found"
	case errors.Is(err, service.ErrGenerationNotFound):
		return "Generation request not found"
	case errors.Is(err, store.ErrNotFound):
		return "Not found"

	case isAny(err, service.ErrContentConflict, store.ErrDuplicate):
		return "Content ID is already in use"

	case isAny(err, session.ErrNoSession, engine.ErrNoSession):
		return "No session is active"
	case errors.Is(err, session.ErrWrongEngine):
		return "Action does not apply to the active session"
	case isAny(err, sessionStateErrors...):
		return "Action is not allowed in the current session state"

	case errors.Is(err, quiz.ErrAnswerKind):
		return "Answer does not fit the question"
	case errors.Is(err, quiz.ErrUnknownQuestion):
		return "Question type is not supported"

	case isAny(err, domain.ErrInvalidContentType):
		return "Invalid content type"
	case isAny(err, content.ErrUnsupportedFormat):
		return "Unsupported content format"
	case isAny(err, service.ErrInvalidContent, content.ErrInvalidDocument, domain.ErrInvalidFormat, store.ErrInvalidEntity):
		return "Invalid content"
	case errors.Is(err, ErrInvalidRequest):
		return "Invalid request"

	case errors.Is(err, service.ErrGenerationDisabled):
		return "Quiz generation is not available"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes the error response for err. A non-empty message
// replaces the default safe message.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, message string) {
	status := MapErrorToStatusCode(err)
	if message == "" {
		message = GetSafeErrorMessage(err)
	}

	var opts []shared.ResponseOption
	if status == http.StatusConflict && isAny(err, service.ErrContentConflict, store.ErrDuplicate) {
		opts = append(opts, shared.WithElevatedLogLevel())
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err, opts...)
}

// SanitizeValidationError turns validator errors into a short message naming
// the first failing field.
func SanitizeValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Validation error"
	}
	fe := verrs[0]
	return fmt.Sprintf("Invalid %s: %s", fe.Field(), validationTagMessage(fe.Tag()))
}

func validationTagMessage(tag string) string {
	switch tag {
	case "required", "required_without", "required_unless":
		return "required field"
	case "min", "gte", "gt":
		return "too small"
	case "max", "lte", "lt":
		return "too large"
	case "oneof":
		return "invalid value"
	case "uuid", "uuid4":
		return "invalid ID"
	default:
		return "validation failed"
	}
}
