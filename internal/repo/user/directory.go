package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNoStorageURI is returned when no storage connection string is configured.
	ErrNoStorageURI = errors.New("no storage uri configured")
	// ErrUnsupportedScheme is returned for storage URIs no backend understands.
	ErrUnsupportedScheme = errors.New("unsupported storage uri scheme")
)

const (
	schemeMongo    = "mongodb"
	schemeMongoSRV = "mongodb+srv"
	schemeSQLite   = "sqlite"
	schemeMemory   = "memory"
)

// DirectoryConfig selects and configures the user directory backend.
// The backend is chosen by the scheme of URI.
type DirectoryConfig struct {
	// URI is the storage connection string (mongodb://, mongodb+srv://, sqlite://<path>, memory://)
	URI string `env:"MONGO_URI" default:""`

	// Database overrides the database named in the URI (MongoDB only)
	Database string `env:"MONGO_DATABASE" default:""`

	// Collection is the collection, or table, holding user records
	Collection string `env:"MONGO_COLLECTION" default:"users"`

	// ConnectTimeout bounds the startup connectivity check
	ConnectTimeout time.Duration `env:"MONGO_CONNECT_TIMEOUT" default:"10s"`

	// UniqueEmail enforces at most one record per email at the storage level.
	// It follows the login strategy and is not read from the environment.
	UniqueEmail bool
}

// Scheme returns the lowercased scheme of the configured URI.
func (cfg DirectoryConfig) Scheme() string {
	scheme, _, ok := strings.Cut(cfg.URI, "://")
	if !ok {
		return ""
	}

	return strings.ToLower(scheme)
}

// DirectoryRepositoryFactory returns a factory for the backend matching cfg.URI.
func DirectoryRepositoryFactory(cfg DirectoryConfig) RepositoryFactory {
	return func(ctx context.Context) (Repository, error) {
		return OpenDirectory(ctx, cfg)
	}
}

// OpenDirectory opens the user directory backend matching cfg.URI.
func OpenDirectory(ctx context.Context, cfg DirectoryConfig) (Repository, error) {
	if strings.TrimSpace(cfg.URI) == "" {
		return nil, ErrNoStorageURI
	}

	switch scheme := cfg.Scheme(); scheme {
	case schemeMongo, schemeMongoSRV:
		return NewMongoUserRepository(ctx, cfg)
	case schemeSQLite:
		return NewSQLiteUserRepository(ctx, SQLiteUserRepositoryConfig{
			DatabasePath: strings.TrimPrefix(cfg.URI[len(scheme):], "://"),
			Table:        cfg.Collection,
			UniqueEmail:  cfg.UniqueEmail,
		})
	case schemeMemory:
		return NewMemoryUserRepository(cfg.UniqueEmail), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, scheme)
	}
}

// ConnectError returns the startup connectivity failure of repo. Backends
// that do not check connectivity at startup report nil.
func ConnectError(repo Repository) error {
	if c, ok := repo.(interface{ ConnectErr() error }); ok {
		return c.ConnectErr()
	}

	return nil
}
