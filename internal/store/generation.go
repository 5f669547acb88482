package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/phrazzld/scry-activities/internal/domain"
)

// GenerationStore persists quiz generation requests.
type GenerationStore interface {
	// Create saves a new request.
	Create(ctx context.Context, req *domain.GenerationRequest) error

	// GetByID retrieves a request by ID.
	// Returns ErrGenerationNotFound if it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.GenerationRequest, error)

	// Update saves the status, resulting quiz ID and error of a request.
	// Returns ErrGenerationNotFound if it does not exist.
	Update(ctx context.Context, req *domain.GenerationRequest) error

	// WithTx returns a store instance that uses the provided transaction.
	WithTx(tx *sql.Tx) GenerationStore
}
