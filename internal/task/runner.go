package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// TaskRunnerConfig holds configuration for the task runner
type TaskRunnerConfig struct {
	// WorkerCount determines how many concurrent workers process tasks
	WorkerCount int

	// QueueSize determines the buffer size for the in-memory task queue
	QueueSize int

	// StuckTaskAge defines how long a task can be in processing state
	// before it's considered stuck and reset
	StuckTaskAge time.Duration

	// StuckTaskCheckInterval defines how often to check for stuck tasks
	// If zero, defaults to 5 minutes
	StuckTaskCheckInterval time.Duration
}

// DefaultTaskRunnerConfig returns a TaskRunnerConfig with reasonable defaults
func DefaultTaskRunnerConfig() TaskRunnerConfig {
	return TaskRunnerConfig{
		WorkerCount:            2,
		QueueSize:              100,
		StuckTaskAge:           30 * time.Minute,
		StuckTaskCheckInterval: 5 * time.Minute,
	}
}

// TaskRunner persists submitted tasks and runs them on a worker pool.
// Unfinished tasks found in the store at start are rebuilt through the
// Rehydrator and queued again.
type TaskRunner struct {
	store      TaskStore
	rehydrator Rehydrator
	queue      *TaskQueue
	pool       *WorkerPool
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	config     TaskRunnerConfig
	logger     *slog.Logger
	errHandler func(task Task, err error)
}

// NewTaskRunner creates a new TaskRunner. rehydrator may be nil, in which
// case stored tasks are not recovered.
func NewTaskRunner(
	store TaskStore,
	rehydrator Rehydrator,
	config TaskRunnerConfig,
	logger *slog.Logger,
) *TaskRunner {
	if config.StuckTaskCheckInterval == 0 {
		config.StuckTaskCheckInterval = 5 * time.Minute
	}

	logger = logger.With("component", "task_runner")
	ctx, cancel := context.WithCancel(context.Background())

	queue := NewTaskQueue(config.QueueSize, logger)
	pool := NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: config.WorkerCount}, logger)

	r := &TaskRunner{
		store:      store,
		rehydrator: rehydrator,
		queue:      queue,
		pool:       pool,
		ctx:        ctx,
		cancelFunc: cancel,
		config:     config,
		logger:     logger,
		errHandler: func(task Task, err error) {
			logger.Error("task execution failed",
				"task_id", task.ID(),
				"task_type", task.Type(),
				"error", err)
		},
	}
	pool.SetProcessor(r.processTask)
	return r
}

// SetErrorHandler allows setting a custom error handler function
func (r *TaskRunner) SetErrorHandler(handler func(task Task, err error)) {
	r.errHandler = handler
}

// Submit saves the task and adds it to the queue. A task saved but not
// queued because the queue is full stays pending and is picked up by the
// next recovery.
func (r *TaskRunner) Submit(ctx context.Context, task Task) error {
	if err := r.store.SaveTask(ctx, task); err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}

	if err := r.queue.Enqueue(task); err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}
	return nil
}

// Start recovers unfinished tasks, then starts the workers and the
// stuck task monitor.
func (r *TaskRunner) Start() error {
	if err := r.Recover(); err != nil {
		return fmt.Errorf("failed to recover tasks: %w", err)
	}

	r.pool.Start()

	r.wg.Add(1)
	go r.stuckTaskMonitor()

	return nil
}

// Stop gracefully shuts down the task runner. Running tasks see their
// context cancelled; they stay in processing state and are recovered on
// the next start.
func (r *TaskRunner) Stop() {
	r.cancelFunc()
	r.pool.Stop()
	r.wg.Wait()
	r.queue.Close()
}

// Recover loads any unfinished tasks from the database
func (r *TaskRunner) Recover() error {
	ctx := context.Background()

	pending, err := r.store.GetPendingTasks(ctx)
	if err != nil {
		return fmt.Errorf("failed to get pending tasks: %w", err)
	}

	// Tasks in processing state were interrupted by a crash or shutdown.
	processing, err := r.store.GetProcessingTasks(ctx, 0)
	if err != nil {
		return fmt.Errorf("failed to get processing tasks: %w", err)
	}

	r.logger.Info("recovering unfinished tasks",
		"pending_count", len(pending),
		"processing_count", len(processing))

	for _, rec := range pending {
		r.requeue(rec)
	}

	for _, rec := range processing {
		if err := r.store.UpdateTaskStatus(ctx, rec.ID, TaskStatusPending, "Reset after recovery"); err != nil {
			r.logger.Error("failed to reset processing task status",
				"task_id", rec.ID,
				"task_type", rec.Type,
				"error", err)
			continue
		}
		r.requeue(rec)
	}

	return nil
}

func (r *TaskRunner) requeue(rec Record) bool {
	if r.rehydrator == nil {
		r.logger.Warn("no rehydrator configured, leaving task in store",
			"task_id", rec.ID,
			"task_type", rec.Type)
		return false
	}

	task, err := r.rehydrator.Rehydrate(rec)
	if err != nil {
		r.logger.Error("failed to rebuild task",
			"task_id", rec.ID,
			"task_type", rec.Type,
			"error", err)
		if errors.Is(err, ErrUnknownTaskType) {
			if uerr := r.store.UpdateTaskStatus(context.Background(), rec.ID, TaskStatusFailed, err.Error()); uerr != nil {
				r.logger.Error("failed to mark task failed", "task_id", rec.ID, "error", uerr)
			}
		}
		return false
	}

	if err := r.queue.Enqueue(task); err != nil {
		r.logger.Error("failed to requeue task",
			"task_id", rec.ID,
			"task_type", rec.Type,
			"error", err)
		return false
	}
	return true
}

// processTask handles execution of a single task
func (r *TaskRunner) processTask(ctx context.Context, task Task, workerID int) {
	// Status writes must land even while shutting down.
	storeCtx := context.WithoutCancel(ctx)
	logger := r.logger.With(
		"task_id", task.ID(),
		"task_type", task.Type(),
		"worker_id", workerID,
	)

	if err := r.store.UpdateTaskStatus(storeCtx, task.ID(), TaskStatusProcessing, ""); err != nil {
		logger.Error("failed to update task status to processing", "error", err)
		return
	}

	logger.Info("processing task")

	err := safeExecute(ctx, task)
	switch {
	case err != nil && ctx.Err() != nil:
		logger.Warn("task interrupted by shutdown", "error", err)

	case err != nil:
		logger.Error("task execution failed", "error", err)
		if updateErr := r.store.UpdateTaskStatus(storeCtx, task.ID(), TaskStatusFailed, err.Error()); updateErr != nil {
			logger.Error("failed to update task status to failed", "error", updateErr)
		}
		r.errHandler(task, err)

	default:
		logger.Info("task completed successfully")
		if updateErr := r.store.UpdateTaskStatus(storeCtx, task.ID(), TaskStatusCompleted, ""); updateErr != nil {
			logger.Error("failed to update task status to completed", "error", updateErr)
		}
	}
}

// stuckTaskMonitor periodically checks for tasks that have been in "processing"
// state for too long and resets them
func (r *TaskRunner) stuckTaskMonitor() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.StuckTaskCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return

		case <-ticker.C:
			r.resetStuckTasks(r.ctx)
		}
	}
}

func (r *TaskRunner) resetStuckTasks(ctx context.Context) {
	stuck, err := r.store.GetProcessingTasks(ctx, r.config.StuckTaskAge)
	if err != nil {
		r.logger.Error("failed to check for stuck tasks", "error", err)
		return
	}
	if len(stuck) == 0 {
		return
	}

	r.logger.Info("found stuck tasks", "count", len(stuck))
	for _, rec := range stuck {
		if err := r.store.UpdateTaskStatus(ctx, rec.ID, TaskStatusPending,
			"Reset after being stuck in processing state"); err != nil {
			r.logger.Error("failed to reset stuck task status",
				"task_id", rec.ID,
				"task_type", rec.Type,
				"error", err)
			continue
		}
		if r.requeue(rec) {
			r.logger.Info("requeued stuck task",
				"task_id", rec.ID,
				"task_type", rec.Type)
		}
	}
}
