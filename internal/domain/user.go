package domain

import (
	"errors"
	"log/slog"
)

var (
	// ErrUserAlreadyExists is returned when trying to create a user with an email that is already taken.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrUserNotFound is returned when looking up a non-existent user.
	ErrUserNotFound = errors.New("user not found")
	// ErrStorageUnavailable is returned by the user directory when no storage connection could be established.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// User represents a profile in the user directory.
// The password is kept exactly as it was submitted.
type User struct {
	ID        string // Backend-assigned identifier
	Name      string // Display name, used in the greeting
	Email     string // Lookup key
	Password  string // Submitted password, stored verbatim
	CreatedAt int64  // Unix timestamp of creation
}

// NewUser creates a user candidate from submitted form values.
// ID and CreatedAt are assigned by the repository on insert.
func NewUser(name, email, password string) *User {
	return &User{
		Name:     name,
		Email:    email,
		Password: password,
	}
}

// LogValue implements slog.LogValuer. The password is emitted under the
// "password" key so the logging layer can mask it.
func (u *User) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("id", u.ID),
		slog.String("name", u.Name),
		slog.String("email", u.Email),
		slog.String("password", u.Password),
		slog.Int64("createdAt", u.CreatedAt),
	)
}
