package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/phrazzld/scry-activities/internal/content"
	"github.com/phrazzld/scry-activities/internal/domain"
	"github.com/phrazzld/scry-activities/internal/platform/logger"
	"github.com/phrazzld/scry-activities/internal/store"
)

// DefaultResultLimit caps result listings when the caller passes no limit.
const DefaultResultLimit = 20

// Catalog provides the content operations for one document type.
type Catalog[T store.Document] struct {
	kind   domain.ContentType
	store  store.ContentStore[T]
	logger *slog.Logger
}

func newCatalog[T store.Document](kind domain.ContentType, s store.ContentStore[T], log *slog.Logger) *Catalog[T] {
	return &Catalog[T]{
		kind:   kind,
		store:  s,
		logger: log.With("content_type", string(kind)),
	}
}

// Kind returns the content type served by the catalog.
func (c *Catalog[T]) Kind() domain.ContentType {
	return c.kind
}

// Save validates and stores a document.
func (c *Catalog[T]) Save(ctx context.Context, doc T) error {
	log := logger.FromContextOrDefault(ctx, c.logger)

	if err := doc.Validate(); err != nil {
		log.Debug("rejected invalid document", "error", err)
		return fmt.Errorf("%w: %w", ErrInvalidContent, err)
	}

	if err := c.store.Save(ctx, doc); err != nil {
		log.Error("failed to save document",
			"error", err,
			"content_id", doc.Summary().ID)
		return NewServiceError("content", "save_"+string(c.kind), "failed to save document", err)
	}

	log.Info("document saved", "content_id", doc.Summary().ID)
	return nil
}

// Get retrieves a document by ID.
func (c *Catalog[T]) Get(ctx context.Context, id uuid.UUID) (T, error) {
	doc, err := c.store.GetByID(ctx, id)
	if err != nil {
		var zero T
		if !store.IsNotFoundError(err) {
			logger.FromContextOrDefault(ctx, c.logger).Error("failed to load document",
				"error", err,
				"content_id", id)
		}
		return zero, NewServiceError("content", "get_"+string(c.kind), "failed to load document", err)
	}
	return doc, nil
}

// List returns summaries, most recently updated first.
func (c *Catalog[T]) List(ctx context.Context, limit, offset int) ([]domain.ContentSummary, error) {
	items, err := c.store.List(ctx, limit, offset)
	if err != nil {
		logger.FromContextOrDefault(ctx, c.logger).Error("failed to list documents", "error", err)
		return nil, NewServiceError("content", "list_"+string(c.kind), "failed to list documents", err)
	}
	return items, nil
}

// Delete removes a document.
func (c *Catalog[T]) Delete(ctx context.Context, id uuid.UUID) error {
	if err := c.store.Delete(ctx, id); err != nil {
		return NewServiceError("content", "delete_"+string(c.kind), "failed to delete document", err)
	}
	logger.FromContextOrDefault(ctx, c.logger).Info("document deleted", "content_id", id)
	return nil
}

// ContentService manages quizzes, workouts, listening sets and their results.
type ContentService struct {
	Quizzes   *Catalog[*domain.Quiz]
	Workouts  *Catalog[*domain.Workout]
	Listening *Catalog[*domain.ListeningSet]

	results store.ResultStore
	db      *sql.DB
	logger  *slog.Logger
}

// ContentServiceConfig holds the dependencies of a ContentService.
// DB is optional; without it Import saves documents one by one.
type ContentServiceConfig struct {
	DB        *sql.DB
	Quizzes   store.QuizStore
	Workouts  store.WorkoutStore
	Listening store.ListeningStore
	Results   store.ResultStore
	Logger    *slog.Logger
}

// NewContentService creates a ContentService.
// It returns an error if any of the required stores are nil.
func NewContentService(cfg ContentServiceConfig) (*ContentService, error) {
	switch {
	case cfg.Quizzes == nil:
		return nil, &ServiceError{Service: "content", Operation: "create_service", Message: "quiz store cannot be nil"}
	case cfg.Workouts == nil:
		return nil, &ServiceError{Service: "content", Operation: "create_service", Message: "workout store cannot be nil"}
	case cfg.Listening == nil:
		return nil, &ServiceError{Service: "content", Operation: "create_service", Message: "listening store cannot be nil"}
	case cfg.Results == nil:
		return nil, &ServiceError{Service: "content", Operation: "create_service", Message: "result store cannot be nil"}
	}

	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "content_service")

	return &ContentService{
		Quizzes:   newCatalog(domain.ContentTypeQuiz, cfg.Quizzes, log),
		Workouts:  newCatalog(domain.ContentTypeWorkout, cfg.Workouts, log),
		Listening: newCatalog(domain.ContentTypeListening, cfg.Listening, log),
		results:   cfg.Results,
		db:        cfg.DB,
		logger:    log,
	}, nil
}

// List returns the summaries of one content type.
func (s *ContentService) List(
	ctx context.Context,
	contentType domain.ContentType,
	limit, offset int,
) ([]domain.ContentSummary, error) {
	switch contentType {
	case domain.ContentTypeQuiz:
		return s.Quizzes.List(ctx, limit, offset)
	case domain.ContentTypeWorkout:
		return s.Workouts.List(ctx, limit, offset)
	case domain.ContentTypeListening:
		return s.Listening.List(ctx, limit, offset)
	default:
		return nil, fmt.Errorf("%w: %w", ErrInvalidContent, domain.ErrInvalidContentType)
	}
}

// Delete removes a document of the given type.
func (s *ContentService) Delete(ctx context.Context, contentType domain.ContentType, id uuid.UUID) error {
	switch contentType {
	case domain.ContentTypeQuiz:
		return s.Quizzes.Delete(ctx, id)
	case domain.ContentTypeWorkout:
		return s.Workouts.Delete(ctx, id)
	case domain.ContentTypeListening:
		return s.Listening.Delete(ctx, id)
	default:
		return fmt.Errorf("%w: %w", ErrInvalidContent, domain.ErrInvalidContentType)
	}
}

// Results returns the recorded results of a document, newest first.
// A non-positive limit uses DefaultResultLimit.
func (s *ContentService) Results(
	ctx context.Context,
	contentType domain.ContentType,
	id uuid.UUID,
	limit int,
) ([]*domain.SessionResult, error) {
	if !contentType.Valid() {
		return nil, fmt.Errorf("%w: %w", ErrInvalidContent, domain.ErrInvalidContentType)
	}
	if limit <= 0 {
		limit = DefaultResultLimit
	}

	results, err := s.results.ListByContent(ctx, contentType, id, limit)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list results",
			"error", err,
			"content_type", contentType,
			"content_id", id)
		return nil, NewServiceError("content", "list_results", "failed to list results", err)
	}
	return results, nil
}

// ImportReport summarizes an import.
type ImportReport struct {
	Quizzes         int `json:"quizzes"`
	Workouts        int `json:"workouts"`
	ListeningSets   int `json:"listening_sets"`
	UnknownVariants int `json:"unknown_variants"`
}

// Import validates a bundle and upserts all of its documents. With a database
// the import is atomic; nothing is saved when any document fails.
func (s *ContentService) Import(ctx context.Context, bundle content.Bundle) (ImportReport, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := bundle.Validate(); err != nil {
		return ImportReport{}, fmt.Errorf("%w: %w", ErrInvalidContent, err)
	}

	report := ImportReport{
		Quizzes:         len(bundle.Quizzes),
		Workouts:        len(bundle.Workouts),
		ListeningSets:   len(bundle.ListeningSets),
		UnknownVariants: bundle.UnknownVariants(),
	}
	if report.UnknownVariants > 0 {
		log.Warn("bundle contains unsupported items that sessions will skip",
			"count", report.UnknownVariants)
	}

	save := func(ctx context.Context, quizzes store.QuizStore, workouts store.WorkoutStore, sets store.ListeningStore) error {
		for _, q := range bundle.Quizzes {
			if err := quizzes.Save(ctx, q); err != nil {
				return NewServiceError("content", "import", fmt.Sprintf("failed to save quiz %q", q.Title), err)
			}
		}
		for _, w := range bundle.Workouts {
			if err := workouts.Save(ctx, w); err != nil {
				return NewServiceError("content", "import", fmt.Sprintf("failed to save workout %q", w.Title), err)
			}
		}
		for _, l := range bundle.ListeningSets {
			if err := sets.Save(ctx, l); err != nil {
				return NewServiceError("content", "import", fmt.Sprintf("failed to save listening set %q", l.Title), err)
			}
		}
		return nil
	}

	var err error
	if s.db != nil {
		err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
			return save(ctx,
				s.Quizzes.store.WithTx(tx),
				s.Workouts.store.WithTx(tx),
				s.Listening.store.WithTx(tx))
		})
	} else {
		err = save(ctx, s.Quizzes.store, s.Workouts.store, s.Listening.store)
	}
	if err != nil {
		log.Error("content import failed", "error", err)
		return ImportReport{}, err
	}

	log.Info("content imported",
		"quizzes", report.Quizzes,
		"workouts", report.Workouts,
		"listening_sets", report.ListeningSets)
	return report, nil
}
