package loginsvc

import (
	"context"
	"errors"
	"fmt"

	"github.com/mkrupp/homecase-checkout/internal/domain"
	"github.com/mkrupp/homecase-checkout/internal/infra/logging"
	"github.com/mkrupp/homecase-checkout/internal/repo/user"
)

// LoginConfig contains configuration parameters for the login service.
type LoginConfig struct {
	// AtomicUpsert resolves logins with a single insert-if-absent operation.
	// When false the directory is queried first and a record is created on a
	// miss; concurrent first logins for one email may then create duplicates.
	AtomicUpsert bool `env:"ATOMIC_UPSERT" default:"true"`
}

// LoginService resolves login submissions against the user directory.
//
// A login is a find-or-create keyed by email. Existing records are returned
// unchanged and the submitted password is never compared.
type LoginService struct {
	Config   LoginConfig
	UserRepo user.Repository
	Log      logging.Logger
}

// NewLoginService creates a LoginService on the repository built by repoFactory.
func NewLoginService(ctx context.Context, repoFactory user.RepositoryFactory, cfg LoginConfig) (*LoginService, error) {
	userRepo, err := repoFactory(ctx)
	if err != nil {
		return nil, fmt.Errorf("new user repo: %w", err)
	}

	return &LoginService{
		Config:   cfg,
		UserRepo: userRepo,
		Log:      logging.GetLogger("svc.loginsvc.login_service"),
	}, nil
}

// Login returns the user stored under email, creating it from the submitted
// fields when none exists. created reports whether a new record was stored.
func (s *LoginService) Login(
	ctx context.Context,
	name, email, password string,
) (resolved *domain.User, created bool, err error) {
	log := s.Log.With(logging.Group("login", "email", email, "atomic", s.Config.AtomicUpsert))

	defer func() {
		switch {
		case err != nil:
			log.ErrorContext(ctx, "login failed", "error", err)
		case created:
			log.InfoContext(ctx, "new user created", "user", resolved)
		default:
			log.InfoContext(ctx, "user exists, logging in", "user", resolved)
		}
	}()

	candidate := domain.NewUser(name, email, password)

	if s.Config.AtomicUpsert {
		resolved, created, err = s.UserRepo.CreateUserIfAbsent(ctx, candidate)
		if err != nil {
			return nil, false, fmt.Errorf("create user if absent: %w", err)
		}

		return resolved, created, nil
	}

	existing, ok, err := s.UserRepo.FindUserByEmail(ctx, email)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return nil, false, fmt.Errorf("find user: %w", err)
	}

	if ok {
		return existing, false, nil
	}

	if err := s.UserRepo.CreateUser(ctx, candidate); err != nil {
		return nil, false, fmt.Errorf("create user: %w", err)
	}

	return candidate, true, nil
}

// Close releases the user repository.
func (s *LoginService) Close() error {
	if err := s.UserRepo.Close(); err != nil {
		return fmt.Errorf("close user repo: %w", err)
	}

	return nil
}
