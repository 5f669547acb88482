package task

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockTaskStore implements the TaskStore interface in memory for testing.
type MockTaskStore struct {
	mutex          sync.RWMutex
	records        map[uuid.UUID]Record
	SaveFn         func(ctx context.Context, task Task) error
	UpdateStatusFn func(ctx context.Context, taskID uuid.UUID, status TaskStatus, errorMsg string) error
}

// NewMockTaskStore creates a new MockTaskStore with default implementations
func NewMockTaskStore() *MockTaskStore {
	store := &MockTaskStore{
		records: make(map[uuid.UUID]Record),
	}

	store.SaveFn = func(ctx context.Context, task Task) error {
		now := time.Now()
		store.Put(Record{
			ID:        task.ID(),
			Type:      task.Type(),
			Payload:   task.Payload(),
			Status:    task.Status(),
			CreatedAt: now,
			UpdatedAt: now,
		})
		return nil
	}

	store.UpdateStatusFn = func(ctx context.Context, taskID uuid.UUID, status TaskStatus, errorMsg string) error {
		store.mutex.Lock()
		defer store.mutex.Unlock()

		rec, exists := store.records[taskID]
		if !exists {
			return nil
		}
		rec.Status = status
		rec.ErrorMessage = errorMsg
		rec.UpdatedAt = time.Now()
		store.records[taskID] = rec
		return nil
	}

	return store
}

// Put stores a record as is, e.g. to seed recovery tests.
func (s *MockTaskStore) Put(rec Record) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.records[rec.ID] = rec
}

// Get returns the stored record for id.
func (s *MockTaskStore) Get(id uuid.UUID) (Record, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	rec, ok := s.records[id]
	return rec, ok
}

// SaveTask persists a task to the mock store
func (s *MockTaskStore) SaveTask(ctx context.Context, task Task) error {
	return s.SaveFn(ctx, task)
}

// UpdateTaskStatus updates the status of a task in the mock store
func (s *MockTaskStore) UpdateTaskStatus(
	ctx context.Context,
	taskID uuid.UUID,
	status TaskStatus,
	errorMsg string,
) error {
	return s.UpdateStatusFn(ctx, taskID, status, errorMsg)
}

// GetPendingTasks retrieves all records with "pending" status
func (s *MockTaskStore) GetPendingTasks(ctx context.Context) ([]Record, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var pending []Record
	for _, rec := range s.records {
		if rec.Status == TaskStatusPending {
			pending = append(pending, rec)
		}
	}
	return pending, nil
}

// GetProcessingTasks retrieves records with "processing" status
func (s *MockTaskStore) GetProcessingTasks(ctx context.Context, olderThan time.Duration) ([]Record, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var processing []Record
	now := time.Now()
	for _, rec := range s.records {
		if rec.Status != TaskStatusProcessing {
			continue
		}
		if olderThan == 0 || now.Sub(rec.UpdatedAt) > olderThan {
			processing = append(processing, rec)
		}
	}
	return processing, nil
}

// WithTx returns the same store; the mock has no transactions.
func (s *MockTaskStore) WithTx(tx *sql.Tx) TaskStore {
	return s
}
