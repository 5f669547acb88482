package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/phrazzld/scry-activities/internal/domain"
)

// Document is a content document the gateway can persist.
type Document interface {
	Summary() domain.ContentSummary
	Validate() error
}

// ContentStore persists documents of one content type.
type ContentStore[T Document] interface {
	// Save validates and upserts a document.
	// Returns ErrInvalidEntity wrapping the validation error if the document is invalid.
	// Returns ErrContentIDConflict if the ID belongs to content of another type.
	Save(ctx context.Context, doc T) error

	// GetByID retrieves a document by its unique ID.
	// Returns the entity-specific not found error if it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (T, error)

	// List returns summaries ordered by most recently updated first.
	List(ctx context.Context, limit, offset int) ([]domain.ContentSummary, error)

	// Delete removes a document.
	// Returns the entity-specific not found error if it does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a store instance that uses the provided transaction.
	WithTx(tx *sql.Tx) ContentStore[T]
}

// QuizStore persists quizzes.
type QuizStore = ContentStore[*domain.Quiz]

// WorkoutStore persists workouts.
type WorkoutStore = ContentStore[*domain.Workout]

// ListeningStore persists listening sets.
type ListeningStore = ContentStore[*domain.ListeningSet]
