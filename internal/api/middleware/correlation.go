package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type contextKey string

const (
	correlationIDKey    contextKey = "correlation_id"
	correlationIDHeader            = "X-Correlation-ID"
	// Longer inbound IDs are replaced so they cannot bloat every log line.
	maxCorrelationIDLen = 128
)

// CorrelationID reads the X-Correlation-ID header from the incoming request.
// If absent or oversized, a new UUID is generated. The value is stored on the
// request context and echoed back in the response header.
func CorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(correlationIDHeader)
		if id == "" || len(id) > maxCorrelationIDLen {
			id = uuid.New().String()
		}
		w.Header().Set(correlationIDHeader, id)
		next.ServeHTTP(w, r.WithContext(WithCorrelationID(r.Context(), id)))
	})
}

// WithCorrelationID returns a copy of ctx carrying id.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// GetCorrelationID retrieves the correlation ID stored by the middleware.
// Returns an empty string if the middleware was not applied.
func GetCorrelationID(ctx context.Context) string {
	v, _ := ctx.Value(correlationIDKey).(string)
	return v
}
