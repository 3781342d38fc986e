package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mkrupp/homecase-checkout/internal/infra/logging"
)

// HTTPTransportConfig contains configuration parameters for HTTP servers.
type HTTPTransportConfig struct {
	// Host is the interface to listen on; empty means all interfaces
	Host string `env:"HOST" default:""`
	// Port is the TCP port to listen on
	Port int `env:"PORT" default:"4000"`

	ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" default:"5s"`
	ReadTimeout       time.Duration `env:"HTTP_READ_TIMEOUT" default:"10s"`
	WriteTimeout      time.Duration `env:"HTTP_WRITE_TIMEOUT" default:"10s"`
	// ShutdownTimeout bounds the graceful shutdown once the context is cancelled
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" default:"10s"`
}

// Addr returns the host:port listen address.
func (cfg HTTPTransportConfig) Addr() string {
	return net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
}

// HTTPTransport defines the interface for HTTP handlers that can serve requests.
type HTTPTransport interface {
	http.Handler
}

// Mount binds a transport to a URL path prefix.
type Mount struct {
	Prefix    string
	Transport HTTPTransport
}

// NewMountMux routes each request to the transport mounted under the longest
// matching prefix. Prefixes ending in "/" match whole subtrees.
func NewMountMux(mounts ...Mount) *http.ServeMux {
	mux := http.NewServeMux()

	for _, m := range mounts {
		mux.Handle(m.Prefix, m.Transport)
	}

	return mux
}

// Listen opens the TCP listener for cfg.Addr().
func Listen(cfg HTTPTransportConfig) (net.Listener, error) {
	sock, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}

	return sock, nil
}

// Serve serves handler on sock with the standard middleware for panic recovery,
// logging and tracing. When ctx is cancelled the server is shut down gracefully
// within cfg.ShutdownTimeout and Serve returns nil.
func Serve(ctx context.Context, sock net.Listener, handler HTTPTransport, cfg HTTPTransportConfig) error {
	log := logging.GetLogger("infra.transport.http")

	handler = RescueingMiddleware(handler, log)
	handler = LoggingMiddleware(handler, log)
	handler = TracingMiddleware(handler)

	//nolint:exhaustruct
	server := &http.Server{
		Handler:           handler,
		ErrorLog:          logging.GetLogLogger(log, logging.LevelError),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.DebugContext(ctx, "listening", "addr", sock.Addr().String())

		if err := server.Serve(sock); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}

		return nil
	})

	group.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
		defer cancel()

		log.DebugContext(shutdownCtx, "shutting down")

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}

		return nil
	})

	//nolint:wrapcheck
	return group.Wait()
}
