package http

import (
	"encoding/base32"
	"net/http"
	"strings"

	"github.com/google/uuid"

	context_ "github.com/mkrupp/homecase-checkout/internal/infra/context"
)

// TraceIDHeader carries the request trace ID in both directions.
const TraceIDHeader = "X-Request-ID"

//nolint:gochecknoglobals
var crockfordB32 = base32.NewEncoding("0123456789abcdefghjkmnpqrstvwxyz").WithPadding(base32.NoPadding)

// TracingMiddleware creates middleware that adds request tracing.
// It uses the X-Request-ID header if present, otherwise generates a new UUIDv7
// rendered in lowercase Crockford base32. The trace ID is added to the request
// context and echoed in the response header.
func TracingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := getTraceID(r)
		if traceID != "" {
			w.Header().Set(TraceIDHeader, traceID)
		}

		next.ServeHTTP(w, r.WithContext(context_.WithTraceID(r.Context(), traceID)))
	})
}

func getTraceID(r *http.Request) string {
	if traceID := strings.TrimSpace(r.Header.Get(TraceIDHeader)); traceID != "" {
		return traceID
	}

	id, err := uuid.NewV7()
	if err != nil {
		return ""
	}

	return crockfordB32.EncodeToString(id[:])
}
