package store

import (
	"context"

	"github.com/phrazzld/scry-activities/internal/domain"
)

// ResumeStore holds the single durable "current session" record.
type ResumeStore interface {
	// Save replaces the current record.
	Save(ctx context.Context, state *domain.ResumeState) error

	// Get returns the current record, or ErrResumeNotFound.
	Get(ctx context.Context) (*domain.ResumeState, error)

	// Clear removes the current record. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}
