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

// PostgresGenerationStore implements store.GenerationStore.
type PostgresGenerationStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresGenerationStore creates a generation request store.
func NewPostgresGenerationStore(db store.DBTX, log *slog.Logger) *PostgresGenerationStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &PostgresGenerationStore{
		db:     db,
		logger: log.With(slog.String("component", "generation_store")),
	}
}

var _ store.GenerationStore = (*PostgresGenerationStore)(nil)

func nullQuizID(id uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: id, Valid: id != uuid.Nil}
}

// Create implements store.GenerationStore.Create.
func (s *PostgresGenerationStore) Create(ctx context.Context, req *domain.GenerationRequest) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := req.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO generation_requests (id, topic, question_count, status, quiz_id, error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		req.ID,
		req.Topic,
		req.QuestionCount,
		req.Status,
		nullQuizID(req.QuizID),
		req.Error,
		req.CreatedAt,
		req.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create generation request",
			slog.String("error", err.Error()),
			slog.String("request_id", req.ID.String()))
		return store.NewStoreError("generation_request", "create", "failed to insert request", MapError(err, nil))
	}

	return nil
}

// GetByID implements store.GenerationStore.GetByID.
func (s *PostgresGenerationStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.GenerationRequest, error) {
	query := `
		SELECT id, topic, question_count, status, quiz_id, error, created_at, updated_at
		FROM generation_requests
		WHERE id = $1
	`

	var (
		req    domain.GenerationRequest
		quizID uuid.NullUUID
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&req.ID,
		&req.Topic,
		&req.QuestionCount,
		&req.Status,
		&quizID,
		&req.Error,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		mapped := MapError(err, store.ErrGenerationNotFound)
		if store.IsNotFoundError(mapped) {
			return nil, store.ErrGenerationNotFound
		}
		return nil, store.NewStoreError("generation_request", "get", "failed to query request", mapped)
	}

	if quizID.Valid {
		req.QuizID = quizID.UUID
	}
	return &req, nil
}

// Update implements store.GenerationStore.Update.
func (s *PostgresGenerationStore) Update(ctx context.Context, req *domain.GenerationRequest) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := req.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
		UPDATE generation_requests
		SET status = $1, quiz_id = $2, error = $3, updated_at = $4
		WHERE id = $5
	`
	result, err := s.db.ExecContext(ctx, query,
		req.Status,
		nullQuizID(req.QuizID),
		req.Error,
		req.UpdatedAt,
		req.ID,
	)
	if err != nil {
		log.Error("failed to update generation request",
			slog.String("error", err.Error()),
			slog.String("request_id", req.ID.String()))
		return store.NewStoreError("generation_request", "update", "failed to update request", MapError(err, nil))
	}

	return CheckRowsAffected(result, store.ErrGenerationNotFound)
}

// WithTx implements store.GenerationStore.WithTx.
func (s *PostgresGenerationStore) WithTx(tx *sql.Tx) store.GenerationStore {
	return &PostgresGenerationStore{db: tx, logger: s.logger}
}
