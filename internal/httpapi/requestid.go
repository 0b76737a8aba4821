package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/mailward/mailward/pkg/logger"
)

type requestIDKey struct{}

// requestIDHeaders are checked (in order) for an existing request ID.
var requestIDHeaders = []string{"X-Request-ID", "X-Correlation-ID"}

// RequestID returns middleware that assigns a unique request ID to each
// request. An inbound ID is reused when present, otherwise one is
// generated; either way it lands in the context and the response header.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var id string
			for _, header := range requestIDHeaders {
				if v := r.Header.Get(header); v != "" {
					id = v
					break
				}
			}
			if id == "" {
				id = uuid.NewString()
			}

			w.Header().Set("X-Request-ID", id)
			ctx := context.WithValue(r.Context(), requestIDKey{}, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestIDFromContext returns the request ID, empty when the middleware
// did not run.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// RequestIDExtractor injects the request ID into log records.
func RequestIDExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id := RequestIDFromContext(ctx); id != "" {
			return slog.String("request_id", id), true
		}
		return slog.Attr{}, false
	}
}
