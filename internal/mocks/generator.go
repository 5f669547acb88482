package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/scry-activities/internal/domain"
	"github.com/phrazzld/scry-activities/internal/generation"
)

// MockGenerator implements generation.Generator for testing
type MockGenerator struct {
	// GenerateQuizFn allows test cases to mock the GenerateQuiz behavior
	GenerateQuizFn func(ctx context.Context, topic string, count int) (*domain.Quiz, error)

	// Default response values
	Quiz *domain.Quiz
	Err  error

	// Call tracking for verification
	GenerateQuizCalls struct {
		// mu protects the call tracking state for concurrent test cases
		mu sync.Mutex

		// Count tracks how many times GenerateQuiz was called
		Count int

		// Topics contains all topics passed to GenerateQuiz calls
		Topics []string

		// Counts contains all question counts passed to GenerateQuiz calls
		Counts []int
	}
}

var _ generation.Generator = (*MockGenerator)(nil)

// GenerateQuiz implements the generation.Generator interface
func (m *MockGenerator) GenerateQuiz(ctx context.Context, topic string, count int) (*domain.Quiz, error) {
	m.GenerateQuizCalls.mu.Lock()
	m.GenerateQuizCalls.Count++
	m.GenerateQuizCalls.Topics = append(m.GenerateQuizCalls.Topics, topic)
	m.GenerateQuizCalls.Counts = append(m.GenerateQuizCalls.Counts, count)
	m.GenerateQuizCalls.mu.Unlock()

	if m.GenerateQuizFn != nil {
		return m.GenerateQuizFn(ctx, topic, count)
	}
	return m.Quiz, m.Err
}

// Calls returns the number of GenerateQuiz calls so far.
func (m *MockGenerator) Calls() int {
	m.GenerateQuizCalls.mu.Lock()
	defer m.GenerateQuizCalls.mu.Unlock()
	return m.GenerateQuizCalls.Count
}

// NewMockGeneratorWithQuiz creates a MockGenerator that returns the specified quiz
func NewMockGeneratorWithQuiz(quiz *domain.Quiz) *MockGenerator {
	return &MockGenerator{Quiz: quiz}
}

// NewMockGeneratorWithError creates a MockGenerator that returns the specified error
func NewMockGeneratorWithError(err error) *MockGenerator {
	return &MockGenerator{Err: err}
}

// MockGeneratorWithContentBlocked creates a MockGenerator that simulates content being blocked
func MockGeneratorWithContentBlocked() *MockGenerator {
	return &MockGenerator{Err: generation.ErrContentBlocked}
}

// Reset resets the call tracking state
func (m *MockGenerator) Reset() {
	m.GenerateQuizCalls.mu.Lock()
	defer m.GenerateQuizCalls.mu.Unlock()

	m.GenerateQuizCalls.Count = 0
	m.GenerateQuizCalls.Topics = nil
	m.GenerateQuizCalls.Counts = nil
}
