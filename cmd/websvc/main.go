package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/mkrupp/homecase-checkout/internal/infra/config"
	"github.com/mkrupp/homecase-checkout/internal/infra/logging"
	http_ "github.com/mkrupp/homecase-checkout/internal/infra/transport/http"
	"github.com/mkrupp/homecase-checkout/internal/repo/user"
	"github.com/mkrupp/homecase-checkout/internal/svc/loginsvc"
	"github.com/mkrupp/homecase-checkout/internal/svc/paymentsvc"
	"github.com/mkrupp/homecase-checkout/internal/svc/staticsvc"
)

const (
	appName = "demo"
	svcName = "websvc"
)

type Config struct {
	config.EnvConfig

	Log     logging.LoggerConfig `envPrefix:"LOG_"`
	HTTP    http_.HTTPTransportConfig
	Storage user.DirectoryConfig
	Login   loginsvc.LoginConfig `envPrefix:"LOGIN_"`
	Static  staticsvc.StaticConfig
}

func main() {
	var (
		cfg Config

		configPrefix = strings.ToUpper(strings.Join([]string{appName, svcName}, "_"))
		loggerName   = strings.ToLower(strings.Join([]string{appName, svcName}, "."))
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := config.LoadDotEnv(); err != nil {
		panic(err)
	}

	if err := config.Parse(ctx, &cfg, configPrefix); err != nil {
		panic(err)
	}

	cfg.Storage.UniqueEmail = cfg.Login.AtomicUpsert

	logging.Configure(ctx, cfg.Log, loggerName)

	if err := run(ctx, cfg); err != nil {
		panic(err)
	}
}

func run(ctx context.Context, cfg Config) (err error) {
	log := logging.GetLogger("cmd.websvc")

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "error", "err", err)

			return
		}

		log.InfoContext(ctx, "shutdown")
	}()

	loginSvc, err := loginsvc.NewLoginService(ctx, openDirectory(cfg.Storage), cfg.Login)
	if err != nil {
		return fmt.Errorf("new login service: %w", err)
	}

	defer func() {
		if cerr := loginSvc.Close(); cerr != nil {
			log.ErrorContext(ctx, "close login service", "error", cerr)
		}
	}()

	handler := newHandler(loginSvc, paymentsvc.NewPaymentService(), cfg.Static)

	sock, err := http_.Listen(cfg.HTTP)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	log.InfoContext(ctx, "server running", "url", "http://localhost:"+strconv.Itoa(listenPort(sock, cfg.HTTP.Port)))

	if err := http_.Serve(ctx, sock, handler, cfg.HTTP); err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	return nil
}

// openDirectory returns a factory that never fails: when the configured
// storage cannot be opened the error is logged and requests needing storage
// are answered with a server error. A directory that opened but could not
// reach its server is kept and reconnects on later requests.
func openDirectory(cfg user.DirectoryConfig) user.RepositoryFactory {
	return func(ctx context.Context) (user.Repository, error) {
		log := logging.GetLogger("cmd.websvc").With("scheme", cfg.Scheme())

		repo, err := user.OpenDirectory(ctx, cfg)
		if err != nil {
			log.ErrorContext(ctx, "storage connection error", "error", err)

			return user.NewUnavailableUserRepository(err), nil
		}

		if err := user.ConnectError(repo); err != nil {
			log.ErrorContext(ctx, "storage connection error", "error", err, "reconnect", true)

			return repo, nil
		}

		log.InfoContext(ctx, "connected to storage")

		return repo, nil
	}
}

func newHandler(
	loginSvc *loginsvc.LoginService,
	paymentSvc *paymentsvc.PaymentService,
	static staticsvc.StaticConfig,
) http_.HTTPTransport {
	return http_.NewMountMux(
		http_.Mount{Prefix: "/auth/", Transport: loginsvc.NewHTTPTransport(loginSvc)},
		http_.Mount{Prefix: "/payment/", Transport: paymentsvc.NewHTTPTransport(paymentSvc)},
		http_.Mount{Prefix: "/", Transport: staticsvc.NewHTTPTransport(static)},
	)
}

func listenPort(sock net.Listener, fallback int) int {
	if addr, ok := sock.Addr().(*net.TCPAddr); ok {
		return addr.Port
	}

	return fallback
}
