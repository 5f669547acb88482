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

// MockContentStore implements store.ContentStore in memory.
// Function fields override the default behavior of their method.
type MockContentStore[T store.Document] struct {
	mu       sync.Mutex
	docs     map[uuid.UUID]T
	notFound error

	SaveFn    func(ctx context.Context, doc T) error
	GetByIDFn func(ctx context.Context, id uuid.UUID) (T, error)
	DeleteFn  func(ctx context.Context, id uuid.UUID) error

	// SaveCalls counts Save calls, including those handled by SaveFn.
	SaveCalls int
	// TxCalls counts WithTx calls.
	TxCalls int
}

var _ store.QuizStore = (*MockContentStore[*domain.Quiz])(nil)

// NewMockContentStore creates an empty store that reports missing documents
// with notFound.
func NewMockContentStore[T store.Document](notFound error) *MockContentStore[T] {
	return &MockContentStore[T]{
		docs:     make(map[uuid.UUID]T),
		notFound: notFound,
	}
}

// Put stores doc without validation.
func (m *MockContentStore[T]) Put(doc T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[doc.Summary().ID] = doc
}

// Len returns the number of stored documents.
func (m *MockContentStore[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.docs)
}

// Save implements store.ContentStore.
func (m *MockContentStore[T]) Save(ctx context.Context, doc T) error {
	m.mu.Lock()
	m.SaveCalls++
	m.mu.Unlock()

	if m.SaveFn != nil {
		return m.SaveFn(ctx, doc)
	}
	if err := doc.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}
	m.Put(doc)
	return nil
}

// GetByID implements store.ContentStore.
func (m *MockContentStore[T]) GetByID(ctx context.Context, id uuid.UUID) (T, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		var zero T
		return zero, m.notFound
	}
	return doc, nil
}

// List implements store.ContentStore.
func (m *MockContentStore[T]) List(_ context.Context, limit, offset int) ([]domain.ContentSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.ContentSummary, 0, len(m.docs))
	for _, doc := range m.docs {
		out = append(out, doc.Summary())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })

	if offset >= len(out) {
		return []domain.ContentSummary{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// Delete implements store.ContentStore.
func (m *MockContentStore[T]) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return m.notFound
	}
	delete(m.docs, id)
	return nil
}

// WithTx implements store.ContentStore. The mock ignores the transaction.
func (m *MockContentStore[T]) WithTx(*sql.Tx) store.ContentStore[T] {
	m.mu.Lock()
	m.TxCalls++
	m.mu.Unlock()
	return m
}

// NewMockQuizStore creates an in-memory quiz store.
func NewMockQuizStore() *MockContentStore[*domain.Quiz] {
	return NewMockContentStore[*domain.Quiz](store.ErrQuizNotFound)
}

// NewMockWorkoutStore creates an in-memory workout store.
func NewMockWorkoutStore() *MockContentStore[*domain.Workout] {
	return NewMockContentStore[*domain.Workout](store.ErrWorkoutNotFound)
}

// NewMockListeningStore creates an in-memory listening set store.
func NewMockListeningStore() *MockContentStore[*domain.ListeningSet] {
	return NewMockContentStore[*domain.ListeningSet](store.ErrListeningSetNotFound)
}
