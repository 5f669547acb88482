package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/phrazzld/scry-activities/internal/api/shared"
	"github.com/phrazzld/scry-activities/internal/domain"
	"github.com/phrazzld/scry-activities/internal/platform/logger"
)

// GenerationService is the part of the generation service used by the API.
type GenerationService interface {
	RequestGeneration(ctx context.Context, topic string, questionCount int) (*domain.GenerationRequest, error)
	GetGeneration(ctx context.Context, id uuid.UUID) (*domain.GenerationRequest, error)
}

// GenerationHandler accepts quiz generation requests and reports their status.
type GenerationHandler struct {
	generation GenerationService
	logger     *slog.Logger
}

// NewGenerationHandler creates a GenerationHandler.
func NewGenerationHandler(generation GenerationService, logger *slog.Logger) *GenerationHandler {
	if generation == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("generation service cannot be nil for GenerationHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GenerationHandler{
		generation: generation,
		logger:     logger.With(slog.String("component", "generation_handler")),
	}
}

// Request handles POST /api/generations. Generation runs in the background,
// so the response is 202 with the pending request.
func (h *GenerationHandler) Request(w http.ResponseWriter, r *http.Request) {
	var req GenerationRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	gen, err := h.generation.RequestGeneration(r.Context(), req.Topic, req.QuestionCount)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Debug("generation accepted",
		slog.String("request_id", gen.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusAccepted, gen)
}

// Get handles GET /api/generations/{id}.
func (h *GenerationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	gen, err := h.generation.GetGeneration(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, gen)
}
