package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/scry-activities/internal/domain"
	"github.com/phrazzld/scry-activities/internal/platform/logger"
	"github.com/phrazzld/scry-activities/internal/store"
)

// currentSlot is the primary key of the only row in current_session.
const currentSlot = 1

// ResumeStore implements store.ResumeStore on SQLite.
type ResumeStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.ResumeStore = (*ResumeStore)(nil)

// NewResumeStore creates a resume store. It panics if db is nil.
func NewResumeStore(db store.DBTX, log *slog.Logger) *ResumeStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &ResumeStore{
		db:     db,
		logger: log.With(slog.String("component", "resume_store")),
	}
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Save replaces the current session record.
func (s *ResumeStore) Save(ctx context.Context, state *domain.ResumeState) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := state.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	order := state.Order
	if order == nil {
		order = []int{}
	}
	rawOrder, err := json.Marshal(order)
	if err != nil {
		return store.NewStoreError("resume", "save", "failed to encode order", err)
	}

	updatedAt := state.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO current_session (slot, content_type, content_id, step_index, score, step_order, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (slot) DO UPDATE SET
		   content_type = excluded.content_type,
		   content_id = excluded.content_id,
		   step_index = excluded.step_index,
		   score = excluded.score,
		   step_order = excluded.step_order,
		   updated_at = excluded.updated_at`,
		currentSlot,
		string(state.ContentType),
		state.ContentID.String(),
		state.Index,
		state.Score,
		string(rawOrder),
		toMillis(updatedAt),
	)
	if err != nil {
		log.Error("failed to save resume state", "error", err)
		return store.NewStoreError("resume", "save", "failed to write current session", err)
	}

	log.Debug("resume state saved",
		"content_type", state.ContentType,
		"content_id", state.ContentID,
		"index", state.Index)
	return nil
}

// Get returns the current session record, or store.ErrResumeNotFound.
func (s *ResumeStore) Get(ctx context.Context) (*domain.ResumeState, error) {
	var (
		contentType string
		contentID   string
		rawOrder    string
		updatedAt   int64
		state       domain.ResumeState
	)

	err := s.db.QueryRowContext(ctx,
		`SELECT content_type, content_id, step_index, score, step_order, updated_at
		 FROM current_session WHERE slot = ?`,
		currentSlot,
	).Scan(&contentType, &contentID, &state.Index, &state.Score, &rawOrder, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrResumeNotFound
	}
	if err != nil {
		return nil, store.NewStoreError("resume", "get", "failed to read current session", err)
	}

	id, err := uuid.Parse(contentID)
	if err != nil {
		return nil, store.NewStoreError("resume", "get", "stored content id is invalid", err)
	}
	if err := json.Unmarshal([]byte(rawOrder), &state.Order); err != nil {
		return nil, store.NewStoreError("resume", "get", "stored order is invalid", err)
	}
	if len(state.Order) == 0 {
		state.Order = nil
	}

	state.ContentType = domain.ContentType(contentType)
	state.ContentID = id
	state.UpdatedAt = fromMillis(updatedAt)
	return &state, nil
}

// Clear removes the current session record.
func (s *ResumeStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM current_session WHERE slot = ?`, currentSlot); err != nil {
		return store.NewStoreError("resume", "clear", "failed to delete current session", err)
	}
	logger.FromContextOrDefault(ctx, s.logger).Debug("resume state cleared")
	return nil
}
