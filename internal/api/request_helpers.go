package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/phrazzld/scry-activities/internal/api/shared"
	"github.com/phrazzld/scry-activities/internal/domain"
)

// Pagination bounds for list endpoints.
const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// getPathUUID parses the named chi path parameter as a UUID.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	raw := chi.URLParam(r, paramName)
	if raw == "" {
		return uuid.Nil, fmt.Errorf("%w: %s is required", ErrInvalidRequest, paramName)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s has invalid format: %w", ErrInvalidRequest, paramName, domain.ErrInvalidID)
	}
	return id, nil
}

// getPathContentType parses the {type} path parameter.
func getPathContentType(r *http.Request) (domain.ContentType, error) {
	return domain.ParseContentType(chi.URLParam(r, "type"))
}

// getPagination reads limit and offset query parameters.
func getPagination(r *http.Request) (limit, offset int, err error) {
	q := r.URL.Query()
	limit, err = queryInt(q.Get("limit"), DefaultPageSize)
	if err != nil {
		return 0, 0, err
	}
	offset, err = queryInt(q.Get("offset"), 0)
	if err != nil {
		return 0, 0, err
	}
	if limit <= 0 || offset < 0 {
		return 0, 0, fmt.Errorf("%w: limit must be positive and offset non-negative", ErrInvalidRequest)
	}
	return min(limit, MaxPageSize), offset, nil
}

func queryInt(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidRequest, raw)
	}
	return n, nil
}

// decodeAndValidate decodes a JSON body into v and validates it, writing the
// error response itself. It reports whether the handler may continue.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := shared.DecodeJSON(r, v); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return false
	}
	if err := shared.ValidateRequest(v); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return false
	}
	return true
}
