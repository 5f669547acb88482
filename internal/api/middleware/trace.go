// Package middleware provides HTTP middleware for the activity API.
package middleware

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/scry-activities/internal/api/shared"
	"github.com/phrazzld/scry-activities/internal/platform/logger"
)

// TraceHeader carries the trace ID on requests and responses.
const TraceHeader = "X-Trace-ID"

// maxTraceIDLength bounds trace IDs accepted from clients.
const maxTraceIDLength = 64

// NewTraceMiddleware tags every request with a trace ID and stores a logger
// carrying it in the request context. A client supplied X-Trace-ID is kept
// when it is short enough.
func NewTraceMiddleware(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			traceID := r.Header.Get(TraceHeader)
			if traceID == "" || len(traceID) > maxTraceIDLength {
				traceID = shared.NewTraceID()
			}

			log := base.With(slog.String("trace_id", traceID))
			ctx := shared.WithTraceID(r.Context(), traceID)
			ctx = logger.WithLogger(ctx, log)

			w.Header().Set(TraceHeader, traceID)
			log.Debug("request started",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
