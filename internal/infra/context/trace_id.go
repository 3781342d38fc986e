// Package context holds request-scoped values shared between the transport and logging layers.
package context

import (
	"context"
)

type contextKey string

const contextKeyTraceID = contextKey("traceID")

// TraceIDFromContext extracts the trace ID from the context.
// Returns the trace ID and true if present, or empty string and false if not present.
func TraceIDFromContext(ctx context.Context) (string, bool) {
	traceID, ok := ctx.Value(contextKeyTraceID).(string)
	if traceID == "" {
		return "", false
	}

	return traceID, ok
}

// WithTraceID returns a copy of ctx carrying the given trace ID.
// An empty trace ID leaves the context untouched.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	if traceID == "" {
		return ctx
	}

	return context.WithValue(ctx, contextKeyTraceID, traceID)
}
