package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/phrazzld/scry-activities/internal/domain"
	"github.com/phrazzld/scry-activities/internal/events"
	"github.com/phrazzld/scry-activities/internal/platform/logger"
	"github.com/phrazzld/scry-activities/internal/store"
)

// GenerationService accepts quiz generation requests and hands them to the
// background task runner through a GenerationRequested event.
type GenerationService struct {
	requests store.GenerationStore
	events   events.EventEmitter
	enabled  bool
	logger   *slog.Logger
}

// NewGenerationService creates a GenerationService. When enabled is false every
// request is rejected with ErrGenerationDisabled.
// It returns an error if any of the required dependencies are nil.
func NewGenerationService(
	requests store.GenerationStore,
	emitter events.EventEmitter,
	enabled bool,
	log *slog.Logger,
) (*GenerationService, error) {
	if requests == nil {
		return nil, &ServiceError{
			Service:   "generation",
			Operation: "create_service",
			Message:   "generation store cannot be nil",
		}
	}
	if emitter == nil {
		return nil, &ServiceError{
			Service:   "generation",
			Operation: "create_service",
			Message:   "event emitter cannot be nil",
		}
	}
	if log == nil {
		log = slog.Default()
	}

	return &GenerationService{
		requests: requests,
		events:   emitter,
		enabled:  enabled,
		logger:   log.With("component", "generation_service"),
	}, nil
}

// RequestGeneration stores a pending request and emits an event for processing.
func (s *GenerationService) RequestGeneration(
	ctx context.Context,
	topic string,
	questionCount int,
) (*domain.GenerationRequest, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !s.enabled {
		return nil, ErrGenerationDisabled
	}

	// 1. Create a new request with pending status
	req, err := domain.NewGenerationRequest(topic, questionCount)
	if err != nil {
		log.Debug("rejected generation request", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrInvalidContent, err)
	}

	// 2. Persist it so that the task can load it by ID
	if err := s.requests.Create(ctx, req); err != nil {
		log.Error("failed to save generation request",
			"error", err,
			"request_id", req.ID)
		return nil, NewServiceError("generation", "request_generation", "failed to save request", err)
	}

	// 3. Create and emit the event
	event, err := events.NewEvent(events.GenerationRequested, domain.ContentTypeQuiz, uuid.Nil, req)
	if err != nil {
		log.Error("failed to create generation event",
			"error", err,
			"request_id", req.ID)
		return nil, NewServiceError("generation", "request_generation", "failed to create event", err)
	}

	if err := s.events.EmitEvent(ctx, event); err != nil {
		log.Error("failed to emit generation event",
			"error", err,
			"request_id", req.ID,
			"event_id", event.ID)
		return nil, NewServiceError("generation", "request_generation", "failed to emit event", err)
	}

	log.Info("generation requested",
		"request_id", req.ID,
		"topic_length", len(topic),
		"question_count", questionCount)
	return req, nil
}

// GetGeneration retrieves a request by its ID.
func (s *GenerationService) GetGeneration(ctx context.Context, id uuid.UUID) (*domain.GenerationRequest, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		if !store.IsNotFoundError(err) {
			logger.FromContextOrDefault(ctx, s.logger).Error("failed to retrieve generation request",
				"error", err,
				"request_id", id)
		}
		return nil, NewServiceError("generation", "get_generation", "failed to retrieve request", err)
	}
	return req, nil
}
