package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/scry-activities/internal/domain"
	"github.com/phrazzld/scry-activities/internal/platform/logger"
	"github.com/phrazzld/scry-activities/internal/store"
)

// DefaultListLimit applies when List is called without a positive limit.
const DefaultListLimit = 50

// ContentStore implements store.ContentStore for one content type. Documents
// are kept whole as JSONB next to the columns needed for listing.
type ContentStore[T store.Document] struct {
	db          store.DBTX
	logger      *slog.Logger
	contentType domain.ContentType
	newDoc      func() T
	notFound    error
}

func newContentStore[T store.Document](
	db store.DBTX,
	log *slog.Logger,
	contentType domain.ContentType,
	newDoc func() T,
) *ContentStore[T] {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &ContentStore[T]{
		db:          db,
		logger:      log.With(slog.String("component", string(contentType)+"_store")),
		contentType: contentType,
		newDoc:      newDoc,
		notFound:    store.NotFoundFor(string(contentType)),
	}
}

// NewQuizStore creates a PostgreSQL quiz store.
func NewQuizStore(db store.DBTX, log *slog.Logger) *ContentStore[*domain.Quiz] {
	return newContentStore(db, log, domain.ContentTypeQuiz, func() *domain.Quiz { return new(domain.Quiz) })
}

// NewWorkoutStore creates a PostgreSQL workout store.
func NewWorkoutStore(db store.DBTX, log *slog.Logger) *ContentStore[*domain.Workout] {
	return newContentStore(db, log, domain.ContentTypeWorkout, func() *domain.Workout { return new(domain.Workout) })
}

// NewListeningStore creates a PostgreSQL listening set store.
func NewListeningStore(db store.DBTX, log *slog.Logger) *ContentStore[*domain.ListeningSet] {
	return newContentStore(db, log, domain.ContentTypeListening, func() *domain.ListeningSet { return new(domain.ListeningSet) })
}

var (
	_ store.QuizStore      = (*ContentStore[*domain.Quiz])(nil)
	_ store.WorkoutStore   = (*ContentStore[*domain.Workout])(nil)
	_ store.ListeningStore = (*ContentStore[*domain.ListeningSet])(nil)
)

// Save implements store.ContentStore.Save.
func (s *ContentStore[T]) Save(ctx context.Context, doc T) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := doc.Validate(); err != nil {
		log.Warn("document validation failed during save", slog.String("error", err.Error()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	summary := doc.Summary()
	if summary.Type != s.contentType {
		return fmt.Errorf("%w: %s document in %s store", store.ErrInvalidEntity, summary.Type, s.contentType)
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return store.NewStoreError(string(s.contentType), "save", "failed to encode document", err)
	}

	updatedAt := summary.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO content_documents (id, content_type, title, description, item_count, document, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			item_count = EXCLUDED.item_count,
			document = EXCLUDED.document,
			updated_at = EXCLUDED.updated_at
		WHERE content_documents.content_type = EXCLUDED.content_type
	`
	result, err := s.db.ExecContext(ctx, query,
		summary.ID,
		s.contentType,
		summary.Title,
		summary.Description,
		summary.ItemCount,
		string(raw),
		updatedAt,
	)
	if err != nil {
		log.Error("failed to save document",
			slog.String("error", err.Error()),
			slog.String("document_id", summary.ID.String()))
		return store.NewStoreError(string(s.contentType), "save", "failed to upsert document", MapError(err, nil))
	}

	if err := CheckRowsAffected(result, store.ErrContentIDConflict); err != nil {
		log.Warn("document id belongs to another content type",
			slog.String("document_id", summary.ID.String()))
		return err
	}

	log.Debug("document saved",
		slog.String("document_id", summary.ID.String()),
		slog.Int("item_count", summary.ItemCount))
	return nil
}

// GetByID implements store.ContentStore.GetByID.
func (s *ContentStore[T]) GetByID(ctx context.Context, id uuid.UUID) (T, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	var zero T

	query := `SELECT document FROM content_documents WHERE id = $1 AND content_type = $2`

	var raw []byte
	if err := s.db.QueryRowContext(ctx, query, id, s.contentType).Scan(&raw); err != nil {
		mapped := MapError(err, s.notFound)
		if store.IsNotFoundError(mapped) {
			log.Debug("document not found", slog.String("document_id", id.String()))
			return zero, s.notFound
		}
		log.Error("failed to get document",
			slog.String("error", err.Error()),
			slog.String("document_id", id.String()))
		return zero, store.NewStoreError(string(s.contentType), "get", "failed to query document", mapped)
	}

	doc := s.newDoc()
	if err := json.Unmarshal(raw, doc); err != nil {
		log.Error("stored document is not decodable",
			slog.String("error", err.Error()),
			slog.String("document_id", id.String()))
		return zero, store.NewStoreError(string(s.contentType), "get", "failed to decode document", err)
	}

	return doc, nil
}

// List implements store.ContentStore.List.
func (s *ContentStore[T]) List(ctx context.Context, limit, offset int) ([]domain.ContentSummary, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 {
		limit = DefaultListLimit
	}
	offset = max(offset, 0)

	query := `
		SELECT id, title, description, item_count, updated_at
		FROM content_documents
		WHERE content_type = $1
		ORDER BY updated_at DESC, id
		LIMIT $2 OFFSET $3
	`
	rows, err := s.db.QueryContext(ctx, query, s.contentType, limit, offset)
	if err != nil {
		log.Error("failed to list documents", slog.String("error", err.Error()))
		return nil, store.NewStoreError(string(s.contentType), "list", "failed to query documents", MapError(err, nil))
	}
	defer func() { _ = rows.Close() }()

	summaries := make([]domain.ContentSummary, 0)
	for rows.Next() {
		summary := domain.ContentSummary{Type: s.contentType}
		if err := rows.Scan(&summary.ID, &summary.Title, &summary.Description, &summary.ItemCount, &summary.UpdatedAt); err != nil {
			return nil, store.NewStoreError(string(s.contentType), "list", "failed to scan document row", err)
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError(string(s.contentType), "list", "failed to iterate document rows", err)
	}

	return summaries, nil
}

// Delete implements store.ContentStore.Delete.
func (s *ContentStore[T]) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `DELETE FROM content_documents WHERE id = $1 AND content_type = $2`
	result, err := s.db.ExecContext(ctx, query, id, s.contentType)
	if err != nil {
		log.Error("failed to delete document",
			slog.String("error", err.Error()),
			slog.String("document_id", id.String()))
		return store.NewStoreError(string(s.contentType), "delete", "failed to delete document", MapError(err, nil))
	}

	if err := CheckRowsAffected(result, s.notFound); err != nil {
		return err
	}

	log.Debug("document deleted", slog.String("document_id", id.String()))
	return nil
}

// WithTx implements store.ContentStore.WithTx.
func (s *ContentStore[T]) WithTx(tx *sql.Tx) store.ContentStore[T] {
	c := *s
	c.db = tx
	return &c
}
