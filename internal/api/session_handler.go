package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/phrazzld/scry-activities/internal/api/shared"
	"github.com/phrazzld/scry-activities/internal/domain"
	"github.com/phrazzld/scry-activities/internal/engine/quiz"
	"github.com/phrazzld/scry-activities/internal/platform/logger"
	"github.com/phrazzld/scry-activities/internal/service/session"
)

// SessionHandler exposes the session controller: lifecycle, engine actions,
// status and the render board.
type SessionHandler struct {
	ctrl   *session.Controller
	logger *slog.Logger
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(ctrl *session.Controller, logger *slog.Logger) *SessionHandler {
	if ctrl == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("session controller cannot be nil for SessionHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionHandler{
		ctrl:   ctrl,
		logger: logger.With(slog.String("component", "session_handler")),
	}
}

// Start handles POST /api/session/start.
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req StartSessionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	ctx := r.Context()
	id := req.ID()
	var err error
	switch domain.ContentType(req.ContentType) {
	case domain.ContentTypeQuiz:
		if req.OfferOnly {
			err = h.ctrl.OfferQuiz(ctx, id)
			break
		}
		err = h.ctrl.StartQuiz(ctx, id, deref(req.Quiz))
	case domain.ContentTypeWorkout:
		err = h.ctrl.StartWorkout(ctx, id, deref(req.Workout))
	case domain.ContentTypeListening:
		err = h.ctrl.StartListening(ctx, id, deref(req.Listening))
	}
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	logger.FromContextOrDefault(ctx, h.logger).Info("session started",
		"content_type", req.ContentType,
		"content_id", id,
		"offer_only", req.OfferOnly)
	h.respondStatus(w, r)
}

func deref[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}

// BeginQuiz handles POST /api/session/quiz/begin. The body is quiz options.
func (h *SessionHandler) BeginQuiz(w http.ResponseWriter, r *http.Request) {
	var opts quiz.Options
	if err := shared.DecodeJSON(r, &opts); err != nil && !errors.Is(err, shared.ErrEmptyBody) {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	h.act(w, r, func(ctx context.Context) error { return h.ctrl.BeginQuiz(ctx, opts) })
}

// Answer handles POST /api/session/quiz/answer.
func (h *SessionHandler) Answer(w http.ResponseWriter, r *http.Request) {
	var req AnswerRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	eval, err := h.ctrl.Answer(req.Answer())
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, eval)
}

// NextQuestion handles POST /api/session/quiz/next.
func (h *SessionHandler) NextQuestion(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(context.Context) error { return h.ctrl.NextQuestion() })
}

// RetryQuiz handles POST /api/session/quiz/retry.
func (h *SessionHandler) RetryQuiz(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(context.Context) error { return h.ctrl.RetryQuiz() })
}

// RetryMistakes handles POST /api/session/quiz/retry-mistakes.
func (h *SessionHandler) RetryMistakes(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, h.ctrl.RetryMistakes)
}

// PlayPromptAudio handles POST /api/session/quiz/audio.
func (h *SessionHandler) PlayPromptAudio(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(context.Context) error { return h.ctrl.PlayPromptAudio() })
}

// QuizSummary handles GET /api/session/quiz/summary.
func (h *SessionHandler) QuizSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.ctrl.QuizSummary()
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, sum)
}

// StartTimer handles POST /api/session/workout/timer.
func (h *SessionHandler) StartTimer(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(context.Context) error { return h.ctrl.StartTimer() })
}

// CompleteStep handles POST /api/session/workout/complete.
func (h *SessionHandler) CompleteStep(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(context.Context) error { return h.ctrl.CompleteStep() })
}

// SkipStep handles POST /api/session/workout/skip.
func (h *SessionHandler) SkipStep(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(context.Context) error { return h.ctrl.SkipStep() })
}

// Play handles POST /api/session/listening/play.
func (h *SessionHandler) Play(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(context.Context) error { return h.ctrl.Play() })
}

// NextPair handles POST /api/session/listening/next.
func (h *SessionHandler) NextPair(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(context.Context) error { return h.ctrl.NextPair() })
}

// PreviousPair handles POST /api/session/listening/previous.
func (h *SessionHandler) PreviousPair(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(context.Context) error { return h.ctrl.PreviousPair() })
}

// Pause handles POST /api/session/pause.
func (h *SessionHandler) Pause(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(context.Context) error { return h.ctrl.Pause() })
}

// Resume handles POST /api/session/resume.
func (h *SessionHandler) Resume(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(context.Context) error { return h.ctrl.Resume() })
}

// Restart handles POST /api/session/restart.
func (h *SessionHandler) Restart(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, h.ctrl.Restart)
}

// Stop handles POST /api/session/stop.
func (h *SessionHandler) Stop(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, h.ctrl.Stop)
}

// Status handles GET /api/session.
func (h *SessionHandler) Status(w http.ResponseWriter, r *http.Request) {
	h.respondStatus(w, r)
}

// Progress handles GET /api/session/progress.
func (h *SessionHandler) Progress(w http.ResponseWriter, r *http.Request) {
	p, err := h.ctrl.Progress()
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, p)
}

// View handles GET /api/session/view and returns the render board.
func (h *SessionHandler) View(w http.ResponseWriter, r *http.Request) {
	view := h.ctrl.View()
	if view == nil {
		shared.RespondWithJSON(w, r, http.StatusOK, map[string]interface{}{})
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, view)
}

// PendingResume handles GET /api/session/resume-state. Without a stored
// record it responds 204.
func (h *SessionHandler) PendingResume(w http.ResponseWriter, r *http.Request) {
	state, err := h.ctrl.PendingResume(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if state == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, state)
}

// Visibility handles POST /api/session/visibility.
func (h *SessionHandler) Visibility(w http.ResponseWriter, r *http.Request) {
	var req VisibilityRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if err := h.ctrl.VisibilityChanged(r.Context(), *req.Visible); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// act runs a controller action and responds with the resulting status.
func (h *SessionHandler) act(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context) error) {
	if err := fn(r.Context()); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	h.respondStatus(w, r)
}

func (h *SessionHandler) respondStatus(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, h.ctrl.Status())
}
