package engine

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/phrazzld/scry-activities/internal/domain"
	"github.com/phrazzld/scry-activities/internal/events"
)

// Emit publishes a session event. Failures are logged and never interrupt the
// session.
func Emit(
	ctx context.Context,
	emitter events.EventEmitter,
	logger *slog.Logger,
	eventType string,
	kind domain.ContentType,
	id uuid.UUID,
	payload interface{},
) {
	if emitter == nil {
		return
	}

	event, err := events.NewEvent(eventType, kind, id, payload)
	if err != nil {
		logger.ErrorContext(ctx, "failed to build session event",
			"error", err,
			"event_type", eventType)
		return
	}

	if err := emitter.EmitEvent(ctx, event); err != nil {
		logger.WarnContext(ctx, "session event handler failed",
			"error", err,
			"event_type", eventType)
	}
}
