package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/phrazzld/scry-activities/internal/domain"
	"github.com/phrazzld/scry-activities/internal/platform/logger"
	"github.com/phrazzld/scry-activities/internal/store"
)

// PostgresResultStore implements store.ResultStore.
type PostgresResultStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresResultStore creates a session result store.
func NewPostgresResultStore(db store.DBTX, log *slog.Logger) *PostgresResultStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &PostgresResultStore{
		db:     db,
		logger: log.With(slog.String("component", "result_store")),
	}
}

var _ store.ResultStore = (*PostgresResultStore)(nil)

// Record implements store.ResultStore.Record.
// Returns store.ErrInvalidEntity if the content does not exist.
func (s *PostgresResultStore) Record(ctx context.Context, result *domain.SessionResult) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := result.Validate(); err != nil {
		log.Warn("session result validation failed", slog.String("error", err.Error()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO session_results (id, content_type, content_id, score, total, mistakes_only, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		result.ID,
		result.ContentType,
		result.ContentID,
		result.Score,
		result.Total,
		result.MistakesOnly,
		result.CompletedAt,
	)
	if err != nil {
		log.Error("failed to record session result",
			slog.String("error", err.Error()),
			slog.String("content_id", result.ContentID.String()))
		return store.NewStoreError("session_result", "record", "failed to insert result", MapError(err, nil))
	}

	log.Debug("session result recorded",
		slog.String("content_id", result.ContentID.String()),
		slog.Int("score", result.Score),
		slog.Int("total", result.Total))
	return nil
}

// ListByContent implements store.ResultStore.ListByContent.
func (s *PostgresResultStore) ListByContent(
	ctx context.Context,
	contentType domain.ContentType,
	contentID uuid.UUID,
	limit int,
) ([]*domain.SessionResult, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := `
		SELECT id, content_type, content_id, score, total, mistakes_only, completed_at
		FROM session_results
		WHERE content_type = $1 AND content_id = $2
		ORDER BY completed_at DESC
		LIMIT $3
	`
	rows, err := s.db.QueryContext(ctx, query, contentType, contentID, limit)
	if err != nil {
		return nil, store.NewStoreError("session_result", "list", "failed to query results", MapError(err, nil))
	}
	defer func() { _ = rows.Close() }()

	results := make([]*domain.SessionResult, 0)
	for rows.Next() {
		var r domain.SessionResult
		if err := rows.Scan(&r.ID, &r.ContentType, &r.ContentID, &r.Score, &r.Total, &r.MistakesOnly, &r.CompletedAt); err != nil {
			return nil, store.NewStoreError("session_result", "list", "failed to scan result row", err)
		}
		results = append(results, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("session_result", "list", "failed to iterate result rows", err)
	}

	return results, nil
}

// WithTx implements store.ResultStore.WithTx.
func (s *PostgresResultStore) WithTx(tx *sql.Tx) store.ResultStore {
	return &PostgresResultStore{db: tx, logger: s.logger}
}
