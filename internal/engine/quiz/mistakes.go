package quiz

import (
	"github.com/phrazzld/scry-activities/internal/domain"
	"github.com/phrazzld/scry-activities/internal/normalize"
)

// MistakeSet collects wrongly answered questions, at most one per normalized
// question text.
type MistakeSet struct {
	items []domain.Question
	keys  map[string]struct{}
}

// NewMistakeSet creates an empty set.
func NewMistakeSet() *MistakeSet {
	return &MistakeSet{keys: make(map[string]struct{})}
}

// Add records q unless a question with the same normalized text is present.
// It reports whether q was added.
func (m *MistakeSet) Add(q domain.Question) bool {
	key := normalize.Text(q.Common().Text)
	if _, ok := m.keys[key]; ok {
		return false
	}
	m.keys[key] = struct{}{}
	m.items = append(m.items, q)
	return true
}

// Len returns the number of recorded questions.
func (m *MistakeSet) Len() int {
	return len(m.items)
}

// Questions returns a copy of the recorded questions in insertion order.
func (m *MistakeSet) Questions() []domain.Question {
	return append([]domain.Question(nil), m.items...)
}

// Reset empties the set.
func (m *MistakeSet) Reset() {
	m.items = nil
	m.keys = make(map[string]struct{})
}
