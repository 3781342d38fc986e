package http_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	context_ "github.com/mkrupp/homecase-checkout/internal/infra/context"
	"github.com/mkrupp/homecase-checkout/internal/infra/logging"
	http_ "github.com/mkrupp/homecase-checkout/internal/infra/transport/http"
)

func TestHTTPTransportConfigAddr(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ":4000", http_.HTTPTransportConfig{Port: 4000}.Addr())
	assert.Equal(t, "127.0.0.1:8080", http_.HTTPTransportConfig{Host: "127.0.0.1", Port: 8080}.Addr())
}

func TestTracingMiddleware(t *testing.T) {
	t.Parallel()

	var seen string

	handler := http_.TracingMiddleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen, _ = context_.TraceIDFromContext(r.Context())
	}))

	t.Run("keeps incoming id", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set(http_.TraceIDHeader, "abc123")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, r)

		assert.Equal(t, "abc123", seen)
		assert.Equal(t, "abc123", w.Header().Get(http_.TraceIDHeader))
	})

	t.Run("generates id", func(t *testing.T) {
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Len(t, seen, 26)
		assert.Regexp(t, "^[0-9a-hjkmnp-tv-z]+$", seen)
		assert.Equal(t, seen, w.Header().Get(http_.TraceIDHeader))
	})
}

func TestRescueingMiddleware(t *testing.T) {
	t.Parallel()

	handler := http_.RescueingMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), logging.NewNopLogger())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Server error\n", w.Body.String())
}

func TestLoggingMiddlewareCapturesStatus(t *testing.T) {
	t.Parallel()

	var captured *http_.LoggingMiddlewareResponseWriter

	handler := http_.LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		captured, _ = w.(*http_.LoggingMiddlewareResponseWriter)
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}), logging.NewNopLogger())

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotNil(t, captured)
	assert.Equal(t, http.StatusTeapot, captured.StatusCode)
	assert.Equal(t, len("short and stout"), captured.BytesSent)
}

func TestNewMountMux(t *testing.T) {
	t.Parallel()

	named := func(name string) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, name)
		})
	}

	mux := http_.NewMountMux(
		http_.Mount{Prefix: "/auth/", Transport: named("auth")},
		http_.Mount{Prefix: "/payment/", Transport: named("payment")},
		http_.Mount{Prefix: "/", Transport: named("static")},
	)

	for path, want := range map[string]string{
		"/auth/login":      "auth",
		"/payment/process": "payment",
		"/payment.html":    "static",
		"/":                "static",
	} {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, path, nil))
		assert.Equal(t, want, w.Body.String(), path)
	}
}

func TestServeShutsDownOnCancel(t *testing.T) {
	t.Parallel()

	sock, err := http_.Listen(http_.HTTPTransportConfig{Host: "127.0.0.1", Port: 0})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)

	go func() {
		done <- http_.Serve(ctx, sock, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, "ok")
		}), http_.HTTPTransportConfig{
			ReadHeaderTimeout: time.Second,
			ShutdownTimeout:   time.Second,
		})
	}()

	resp, err := http.Get("http://" + sock.Addr().String() + "/")
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.NotEmpty(t, resp.Header.Get(http_.TraceIDHeader))

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
