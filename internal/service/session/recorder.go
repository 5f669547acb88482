package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/scry-activities/internal/domain"
	"github.com/phrazzld/scry-activities/internal/events"
	"github.com/phrazzld/scry-activities/internal/platform/logger"
	"github.com/phrazzld/scry-activities/internal/store"
)

// Recorder persists session progress from engine events. It keeps the resume
// record current after every step, and on completion records the result and
// clears the resume record.
//
// Engines emit with their lock held, so HandleEvent only touches stores and
// never calls back into the controller.
type Recorder struct {
	results store.ResultStore
	resume  store.ResumeStore
	logger  *slog.Logger
}

// NewRecorder creates a Recorder. Either store may be nil to skip that concern.
func NewRecorder(results store.ResultStore, resume store.ResumeStore, log *slog.Logger) *Recorder {
	if log == nil {
		log = slog.Default()
	}
	return &Recorder{
		results: results,
		resume:  resume,
		logger:  log.With("component", "session_recorder"),
	}
}

// EventTypes lists the events a Recorder handles.
func (r *Recorder) EventTypes() []string {
	return []string{events.StepCompleted, events.SessionCompleted}
}

// HandleEvent implements events.EventHandler.
func (r *Recorder) HandleEvent(ctx context.Context, event *events.Event) error {
	switch event.Type {
	case events.StepCompleted:
		return r.saveResume(ctx, event)
	case events.SessionCompleted:
		return r.recordResult(ctx, event)
	default:
		return nil
	}
}

func (r *Recorder) saveResume(ctx context.Context, event *events.Event) error {
	if r.resume == nil {
		return nil
	}

	var step events.StepPayload
	if err := event.UnmarshalPayload(&step); err != nil {
		return fmt.Errorf("failed to decode step payload: %w", err)
	}

	state := &domain.ResumeState{
		ContentType: event.ContentType,
		ContentID:   event.ContentID,
		Index:       step.Index,
		Score:       step.Score,
		Order:       step.Order,
		UpdatedAt:   event.CreatedAt,
	}
	if err := r.resume.Save(ctx, state); err != nil {
		logger.FromContextOrDefault(ctx, r.logger).Error("failed to save resume state",
			"error", err,
			"content_type", event.ContentType,
			"content_id", event.ContentID)
		return fmt.Errorf("failed to save resume state: %w", err)
	}
	return nil
}

func (r *Recorder) recordResult(ctx context.Context, event *events.Event) error {
	log := logger.FromContextOrDefault(ctx, r.logger).With(
		"content_type", event.ContentType,
		"content_id", event.ContentID)

	var done events.CompletedPayload
	if err := event.UnmarshalPayload(&done); err != nil {
		return fmt.Errorf("failed to decode completion payload: %w", err)
	}

	if r.results != nil {
		result, err := domain.NewSessionResult(event.ContentType, event.ContentID, done.Score, done.Total, done.MistakesOnly)
		if err != nil {
			log.Warn("dropping invalid session result", "error", err)
		} else if err := r.results.Record(ctx, result); err != nil {
			log.Error("failed to record session result", "error", err)
			return fmt.Errorf("failed to record session result: %w", err)
		}
	}

	if r.resume != nil {
		if err := r.resume.Clear(ctx); err != nil {
			log.Error("failed to clear resume state", "error", err)
			return fmt.Errorf("failed to clear resume state: %w", err)
		}
	}

	log.Info("session completed",
		"score", done.Score,
		"total", done.Total,
		"mistakes_only", done.MistakesOnly)
	return nil
}
