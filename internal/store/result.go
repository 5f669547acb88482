package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/phrazzld/scry-activities/internal/domain"
)

// ResultStore records completed sessions.
type ResultStore interface {
	// Record validates and stores a result.
	Record(ctx context.Context, result *domain.SessionResult) error

	// ListByContent returns the results for one document, newest first.
	// Returns an empty slice when there are none.
	ListByContent(ctx context.Context, contentType domain.ContentType, contentID uuid.UUID, limit int) ([]*domain.SessionResult, error)

	// WithTx returns a store instance that uses the provided transaction.
	WithTx(tx *sql.Tx) ResultStore
}
