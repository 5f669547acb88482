package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/phrazzld/scry-activities/internal/domain"
	"github.com/phrazzld/scry-activities/internal/events"
)

// TaskCreator builds a task for a generation request.
type TaskCreator interface {
	CreateTask(requestID uuid.UUID) (Task, error)
}

// TaskSubmitter accepts tasks for background execution.
type TaskSubmitter interface {
	Submit(ctx context.Context, task Task) error
}

// TaskFactoryEventHandler turns generation_requested events into submitted
// quiz generation tasks.
type TaskFactoryEventHandler struct {
	taskFactory TaskCreator
	taskRunner  TaskSubmitter
	logger      *slog.Logger
}

// NewTaskFactoryEventHandler creates a new event handler that uses the given task factory
// to create tasks, and submits them to the provided task runner.
func NewTaskFactoryEventHandler(
	taskFactory TaskCreator,
	taskRunner TaskSubmitter,
	logger *slog.Logger,
) *TaskFactoryEventHandler {
	return &TaskFactoryEventHandler{
		taskFactory: taskFactory,
		taskRunner:  taskRunner,
		logger:      logger.With("component", "task_factory_event_handler"),
	}
}

// HandleEvent implements events.EventHandler. Events of other types are ignored.
func (h *TaskFactoryEventHandler) HandleEvent(ctx context.Context, event *events.Event) error {
	if event.Type != events.GenerationRequested {
		h.logger.DebugContext(ctx, "ignoring event with unsupported type",
			"event_type", event.Type,
			"event_id", event.ID)
		return nil
	}

	var req domain.GenerationRequest
	if err := event.UnmarshalPayload(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to unmarshal payload", "error", err, "event_id", event.ID)
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	log := h.logger.With("request_id", req.ID, "event_id", event.ID)

	task, err := h.taskFactory.CreateTask(req.ID)
	if err != nil {
		log.ErrorContext(ctx, "failed to create task", "error", err)
		return fmt.Errorf("failed to create task: %w", err)
	}

	if err := h.taskRunner.Submit(ctx, task); err != nil {
		log.ErrorContext(ctx, "failed to submit task", "error", err, "task_id", task.ID())
		return fmt.Errorf("failed to submit task: %w", err)
	}

	log.InfoContext(ctx, "task created and submitted successfully", "task_id", task.ID())
	return nil
}

var _ events.EventHandler = (*TaskFactoryEventHandler)(nil)
