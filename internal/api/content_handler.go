package api

import (
	"context"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/scry-activities/internal/api/shared"
	"github.com/phrazzld/scry-activities/internal/content"
	"github.com/phrazzld/scry-activities/internal/domain"
	"github.com/phrazzld/scry-activities/internal/platform/logger"
	"github.com/phrazzld/scry-activities/internal/service"
	"github.com/phrazzld/scry-activities/internal/store"
)

// ContentHandler serves content documents, imports and result history.
type ContentHandler struct {
	content *service.ContentService
	now     func() time.Time
	logger  *slog.Logger
}

// NewContentHandler creates a ContentHandler.
func NewContentHandler(contentService *service.ContentService, logger *slog.Logger) *ContentHandler {
	if contentService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("content service cannot be nil for ContentHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ContentHandler{
		content: contentService,
		now:     time.Now,
		logger:  logger.With(slog.String("component", "content_handler")),
	}
}

// List handles GET /api/content/{type}.
func (h *ContentHandler) List(w http.ResponseWriter, r *http.Request) {
	contentType, err := getPathContentType(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	limit, offset, err := getPagination(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	items, err := h.content.List(r.Context(), contentType, limit, offset)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if items == nil {
		items = []domain.ContentSummary{}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, ListResponse{Items: items, Limit: limit, Offset: offset})
}

// Get handles GET /api/content/{type}/{id}.
func (h *ContentHandler) Get(w http.ResponseWriter, r *http.Request) {
	contentType, id, ok := h.typeAndID(w, r)
	if !ok {
		return
	}

	var doc interface{}
	var err error
	switch contentType {
	case domain.ContentTypeQuiz:
		doc, err = h.content.Quizzes.Get(r.Context(), id)
	case domain.ContentTypeWorkout:
		doc, err = h.content.Workouts.Get(r.Context(), id)
	case domain.ContentTypeListening:
		doc, err = h.content.Listening.Get(r.Context(), id)
	}
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, doc)
}

// Create handles POST /api/content/{type}. A missing ID is generated.
func (h *ContentHandler) Create(w http.ResponseWriter, r *http.Request) {
	contentType, err := getPathContentType(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	h.save(w, r, contentType, uuid.Nil, http.StatusCreated)
}

// Put handles PUT /api/content/{type}/{id}, creating or replacing the document.
func (h *ContentHandler) Put(w http.ResponseWriter, r *http.Request) {
	contentType, id, ok := h.typeAndID(w, r)
	if !ok {
		return
	}
	h.save(w, r, contentType, id, http.StatusOK)
}

func (h *ContentHandler) save(w http.ResponseWriter, r *http.Request, contentType domain.ContentType, id uuid.UUID, status int) {
	switch contentType {
	case domain.ContentTypeQuiz:
		saveDocument(h, w, r, status, id, h.content.Quizzes.Save,
			func(q *domain.Quiz) content.Bundle { return content.Bundle{Quizzes: []*domain.Quiz{q}} })
	case domain.ContentTypeWorkout:
		saveDocument(h, w, r, status, id, h.content.Workouts.Save,
			func(wo *domain.Workout) content.Bundle { return content.Bundle{Workouts: []*domain.Workout{wo}} })
	case domain.ContentTypeListening:
		saveDocument(h, w, r, status, id, h.content.Listening.Save,
			func(s *domain.ListeningSet) content.Bundle {
				return content.Bundle{ListeningSets: []*domain.ListeningSet{s}}
			})
	}
}

// saveDocument decodes one document, stamps its ID and timestamps through a
// single-document bundle, and saves it.
func saveDocument[T interface {
	store.Document
	*E
}, E any](
	h *ContentHandler,
	w http.ResponseWriter,
	r *http.Request,
	status int,
	id uuid.UUID,
	save func(context.Context, T) error,
	bundle func(T) content.Bundle,
) {
	doc := T(new(E))
	if err := shared.DecodeJSON(r, doc); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	b := bundle(doc)
	stampForSave(b, id)
	b.Prepare(h.now())

	if err := save(r.Context(), doc); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	logger.FromContextOrDefault(r.Context(), h.logger).Debug("document saved",
		"content_id", doc.Summary().ID)
	shared.RespondWithJSON(w, r, status, doc)
}

// stampForSave applies the path ID, if any, and clears UpdatedAt so Prepare
// sets it to the save time.
func stampForSave(b content.Bundle, id uuid.UUID) {
	for _, q := range b.Quizzes {
		if id != uuid.Nil {
			q.ID = id
		}
		q.UpdatedAt = time.Time{}
	}
	for _, wo := range b.Workouts {
		if id != uuid.Nil {
			wo.ID = id
		}
		wo.UpdatedAt = time.Time{}
	}
	for _, s := range b.ListeningSets {
		if id != uuid.Nil {
			s.ID = id
		}
		s.UpdatedAt = time.Time{}
	}
}

// Delete handles DELETE /api/content/{type}/{id}.
func (h *ContentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	contentType, id, ok := h.typeAndID(w, r)
	if !ok {
		return
	}
	if err := h.content.Delete(r.Context(), contentType, id); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Results handles GET /api/content/{type}/{id}/results.
func (h *ContentHandler) Results(w http.ResponseWriter, r *http.Request) {
	contentType, id, ok := h.typeAndID(w, r)
	if !ok {
		return
	}
	limit, err := queryInt(r.URL.Query().Get("limit"), service.DefaultResultLimit)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	results, err := h.content.Results(r.Context(), contentType, id, min(limit, MaxPageSize))
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if results == nil {
		results = []*domain.SessionResult{}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, ResultsResponse{Results: results})
}

// Import handles POST /api/content/import. The body is a content bundle in
// JSON, or YAML when the Content-Type says so.
func (h *ContentHandler) Import(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	format := content.FormatJSON
	if mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err == nil {
		switch mt {
		case "application/yaml", "application/x-yaml", "text/yaml":
			format = content.FormatYAML
		}
	}

	bundle, err := content.Decode(http.MaxBytesReader(w, r.Body, shared.MaxBodyBytes), format)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if bundle.Len() == 0 {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Bundle contains no documents")
		return
	}
	bundle.Prepare(h.now())

	report, err := h.content.Import(r.Context(), bundle)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	log.Info("content bundle imported",
		"quizzes", report.Quizzes,
		"workouts", report.Workouts,
		"listening_sets", report.ListeningSets)
	shared.RespondWithJSON(w, r, http.StatusOK, report)
}

func (h *ContentHandler) typeAndID(w http.ResponseWriter, r *http.Request) (domain.ContentType, uuid.UUID, bool) {
	contentType, err := getPathContentType(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return "", uuid.Nil, false
	}
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return "", uuid.Nil, false
	}
	return contentType, id, true
}
