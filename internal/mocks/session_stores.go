package mocks

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/phrazzld/scry-activities/internal/domain"
	"github.com/phrazzld/scry-activities/internal/store"
)

// MockResultStore implements store.ResultStore in memory.
type MockResultStore struct {
	mu      sync.Mutex
	results []*domain.SessionResult

	RecordFn func(ctx context.Context, result *domain.SessionResult) error
}

var _ store.ResultStore = (*MockResultStore)(nil)

// Record implements store.ResultStore.
func (m *MockResultStore) Record(ctx context.Context, result *domain.SessionResult) error {
	if m.RecordFn != nil {
		return m.RecordFn(ctx, result)
	}
	if err := result.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, result)
	return nil
}

// ListByContent implements store.ResultStore.
func (m *MockResultStore) ListByContent(
	_ context.Context,
	contentType domain.ContentType,
	contentID uuid.UUID,
	limit int,
) ([]*domain.SessionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []*domain.SessionResult{}
	for _, r := range m.results {
		if r.ContentType == contentType && r.ContentID == contentID {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CompletedAt.After(out[j].CompletedAt) })
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// WithTx implements store.ResultStore. The mock ignores the transaction.
func (m *MockResultStore) WithTx(*sql.Tx) store.ResultStore {
	return m
}

// Results returns every recorded result in insertion order.
func (m *MockResultStore) Results() []*domain.SessionResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.SessionResult(nil), m.results...)
}

// MockResumeStore implements store.ResumeStore in memory.
type MockResumeStore struct {
	mu    sync.Mutex
	state *domain.ResumeState

	SaveFn func(ctx context.Context, state *domain.ResumeState) error
	GetFn  func(ctx context.Context) (*domain.ResumeState, error)

	SaveCalls  int
	ClearCalls int
}

var _ store.ResumeStore = (*MockResumeStore)(nil)

// Save implements store.ResumeStore.
func (m *MockResumeStore) Save(ctx context.Context, state *domain.ResumeState) error {
	m.mu.Lock()
	m.SaveCalls++
	m.mu.Unlock()

	if m.SaveFn != nil {
		return m.SaveFn(ctx, state)
	}
	if err := state.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	cp := *state
	cp.Order = append([]int(nil), state.Order...)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = &cp
	return nil
}

// Get implements store.ResumeStore.
func (m *MockResumeStore) Get(ctx context.Context) (*domain.ResumeState, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return nil, store.ErrResumeNotFound
	}
	cp := *m.state
	return &cp, nil
}

// Clear implements store.ResumeStore.
func (m *MockResumeStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ClearCalls++
	m.state = nil
	return nil
}

// MockGenerationStore implements store.GenerationStore in memory.
type MockGenerationStore struct {
	mu       sync.Mutex
	requests map[uuid.UUID]domain.GenerationRequest

	CreateFn func(ctx context.Context, req *domain.GenerationRequest) error
}

var _ store.GenerationStore = (*MockGenerationStore)(nil)

// NewMockGenerationStore creates an empty store.
func NewMockGenerationStore() *MockGenerationStore {
	return &MockGenerationStore{requests: make(map[uuid.UUID]domain.GenerationRequest)}
}

// Create implements store.GenerationStore.
func (m *MockGenerationStore) Create(ctx context.Context, req *domain.GenerationRequest) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, req)
	}
	if err := req.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.requests[req.ID]; ok {
		return store.ErrDuplicate
	}
	m.requests[req.ID] = *req
	return nil
}

// GetByID implements store.GenerationStore.
func (m *MockGenerationStore) GetByID(_ context.Context, id uuid.UUID) (*domain.GenerationRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[id]
	if !ok {
		return nil, store.ErrGenerationNotFound
	}
	return &req, nil
}

// Update implements store.GenerationStore.
func (m *MockGenerationStore) Update(_ context.Context, req *domain.GenerationRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.requests[req.ID]; !ok {
		return store.ErrGenerationNotFound
	}
	m.requests[req.ID] = *req
	return nil
}

// WithTx implements store.GenerationStore. The mock ignores the transaction.
func (m *MockGenerationStore) WithTx(*sql.Tx) store.GenerationStore {
	return m
}
