package user

import (
	"context"
	"errors"

	"github.com/mkrupp/homecase-checkout/internal/domain"
)

// UnavailableUserRepository stands in for a directory whose storage could not
// be opened at startup. Every operation fails with domain.ErrStorageUnavailable
// joined with the original cause.
type UnavailableUserRepository struct {
	cause error
}

var _ Repository = (*UnavailableUserRepository)(nil)

// NewUnavailableUserRepository wraps the startup failure cause.
func NewUnavailableUserRepository(cause error) *UnavailableUserRepository {
	return &UnavailableUserRepository{cause: cause}
}

func (r *UnavailableUserRepository) err() error {
	return errors.Join(domain.ErrStorageUnavailable, r.cause)
}

// FindUserByEmail implements Repository.FindUserByEmail.
func (r *UnavailableUserRepository) FindUserByEmail(context.Context, string) (*domain.User, bool, error) {
	return nil, false, r.err()
}

// CreateUser implements Repository.CreateUser.
func (r *UnavailableUserRepository) CreateUser(context.Context, *domain.User) error {
	return r.err()
}

// CreateUserIfAbsent implements Repository.CreateUserIfAbsent.
func (r *UnavailableUserRepository) CreateUserIfAbsent(context.Context, *domain.User) (*domain.User, bool, error) {
	return nil, false, r.err()
}

// Close implements Repository.Close.
func (r *UnavailableUserRepository) Close() error {
	return nil
}
