package http

import (
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/mkrupp/homecase-checkout/internal/infra/logging"
)

// RescueingMiddleware creates middleware that recovers from panics in HTTP handlers.
// It logs the panic and stack trace, then answers with the same opaque
// "Server error" body the handlers use for storage failures.
func RescueingMiddleware(next http.Handler, log logging.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func(ctx context.Context) {
			p := recover()
			if p == nil {
				return
			}

			//nolint:errorlint
			if p == http.ErrAbortHandler {
				panic(p)
			}

			log.ErrorContext(ctx, "request panic", slog.Group("http",
				"uri", r.RequestURI,
				"method", r.Method,
			), slog.Group("error",
				"panic", p,
				"stack", string(debug.Stack()),
			))
			ServerError(w)
		}(r.Context())

		next.ServeHTTP(w, r)
	})
}
