package user

import (
	"context"

	"github.com/mkrupp/homecase-checkout/internal/domain"
)

// Repository defines the interface for user data persistence.
// Users are keyed by email; records are never updated or deleted.
type Repository interface {
	// FindUserByEmail retrieves a user by exact email match.
	// Returns the user object and true if found, or nil and false if not found;
	// in the latter case the error wraps domain.ErrUserNotFound.
	FindUserByEmail(ctx context.Context, email string) (*domain.User, bool, error)

	// CreateUser inserts a new user and assigns its ID and CreatedAt.
	// Whether a second record with the same email is rejected depends on the
	// backend's uniqueness configuration.
	CreateUser(ctx context.Context, user *domain.User) error

	// CreateUserIfAbsent atomically inserts the user unless a record with the
	// same email exists. Returns the stored record and whether it was created.
	CreateUserIfAbsent(ctx context.Context, user *domain.User) (*domain.User, bool, error)

	// Close releases any resources held by the repository.
	// Returns an error if cleanup fails.
	Close() error
}

// RepositoryFactory is a function that creates a new Repository instance.
// Returns an error if initialization fails.
type RepositoryFactory func(ctx context.Context) (Repository, error)
