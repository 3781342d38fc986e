package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"sync"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mkrupp/homecase-checkout/internal/domain"
	"github.com/mkrupp/homecase-checkout/internal/infra/logging"
)

// ErrInvalidTableName is returned when the configured table name is not a plain identifier.
var ErrInvalidTableName = errors.New("invalid table name")

//nolint:gochecknoglobals
var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

const sqliteMemoryPath = ":memory:"

// SQLiteUserRepositoryConfig holds configuration for the SQLite user repository.
type SQLiteUserRepositoryConfig struct {
	// DatabasePath is the filesystem path to the SQLite database file, or ":memory:"
	DatabasePath string

	// Table is the name of the users table
	Table string

	// UniqueEmail adds a unique index on the email column
	UniqueEmail bool
}

// sqlQuerier is the subset of *sql.DB and *sql.Conn the repository runs statements on.
type sqlQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteUserRepository implements Repository using SQLite as the storage backend.
type SQLiteUserRepository struct {
	db        *sql.DB
	conn      *sql.Conn  // pinned connection holding an in-memory database, nil otherwise
	q         sqlQuerier // conn when pinned, db otherwise
	log       logging.Logger
	writeLock *sync.Mutex // go-sqlite does not support concurrent writes

	qFind           string
	qInsert         string
	qInsertIfAbsent string
}

var _ Repository = (*SQLiteUserRepository)(nil)

// NewSQLiteUserRepository creates a new SQLiteUserRepository with the given configuration.
// It initializes the database connection and creates the schema if needed.
// Returns an error if database connection or initialization fails.
func NewSQLiteUserRepository(ctx context.Context, cfg SQLiteUserRepositoryConfig) (*SQLiteUserRepository, error) {
	log := logging.GetLogger("repo.user.sqlite_user_repository").With(
		logging.Group("db", "path", cfg.DatabasePath, "table", cfg.Table),
	)

	if !tableNamePattern.MatchString(cfg.Table) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTableName, cfg.Table)
	}

	db, err := sql.Open("sqlite", cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	repo := &SQLiteUserRepository{
		db:        db,
		q:         db,
		log:       log,
		writeLock: new(sync.Mutex),
	}

	if cfg.DatabasePath == sqliteMemoryPath {
		// an in-memory database lives and dies with its connection, so it is
		// checked out of the pool once and never recycled
		db.SetMaxOpenConns(1)

		conn, err := db.Conn(ctx)
		if err != nil {
			db.Close()

			return nil, fmt.Errorf("pin connection: %w", err)
		}

		repo.conn = conn
		repo.q = conn
	} else {
		db.SetConnMaxLifetime(5 * time.Minute)

		if err := db.PingContext(ctx); err != nil {
			db.Close()

			return nil, fmt.Errorf("ping db: %w", err)
		}
	}

	if err := initializeDB(ctx, repo.q, cfg); err != nil {
		repo.Close()

		return nil, fmt.Errorf("initialize db: %w", err)
	}

	if _, err := repo.q.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		repo.Close()

		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	log.DebugContext(ctx, "sqlite user directory opened", "uniqueEmail", cfg.UniqueEmail)

	columns := "name, email, password, created_at"

	repo.qFind = "SELECT id, " + columns + " FROM " + cfg.Table +
		" WHERE email = ? ORDER BY id LIMIT 1"
	repo.qInsert = "INSERT INTO " + cfg.Table + " (" + columns + ") VALUES (?, ?, ?, ?)"
	repo.qInsertIfAbsent = "INSERT INTO " + cfg.Table + " (" + columns + ") SELECT ?, ?, ?, ?" +
		" WHERE NOT EXISTS (SELECT 1 FROM " + cfg.Table + " WHERE email = ?)"

	return repo, nil
}

func initializeDB(ctx context.Context, db sqlQuerier, cfg SQLiteUserRepositoryConfig) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS `+cfg.Table+` (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			name       TEXT    NOT NULL,
			email      TEXT    NOT NULL,
			password   TEXT    NOT NULL,
			created_at INTEGER NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	index := "CREATE INDEX IF NOT EXISTS " + cfg.Table + "_email ON " + cfg.Table + " (email)"
	if cfg.UniqueEmail {
		index = "CREATE UNIQUE INDEX IF NOT EXISTS " + cfg.Table + "_email_unique ON " + cfg.Table + " (email)"
	}

	if _, err := db.ExecContext(ctx, index); err != nil {
		return fmt.Errorf("create email index: %w", err)
	}

	return nil
}

// CreateUser implements Repository.CreateUser using SQLite.
func (r *SQLiteUserRepository) CreateUser(ctx context.Context, user *domain.User) error {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	createdAt := time.Now().Unix()

	res, err := r.q.ExecContext(ctx, r.qInsert, user.Name, user.Email, user.Password, createdAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", mapSQLiteError(err))
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}

	user.ID = strconv.FormatInt(id, 10)
	user.CreatedAt = createdAt

	return nil
}

// CreateUserIfAbsent implements Repository.CreateUserIfAbsent with a single
// INSERT ... SELECT ... WHERE NOT EXISTS statement.
func (r *SQLiteUserRepository) CreateUserIfAbsent(ctx context.Context, user *domain.User) (*domain.User, bool, error) {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	createdAt := time.Now().Unix()

	res, err := r.q.ExecContext(ctx, r.qInsertIfAbsent,
		user.Name, user.Email, user.Password, createdAt, user.Email)
	if err != nil {
		return nil, false, fmt.Errorf("insert user if absent: %w", mapSQLiteError(err))
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		existing, _, err := r.findUserByEmail(ctx, user.Email)
		if err != nil {
			return nil, false, fmt.Errorf("find existing user: %w", err)
		}

		return existing, false, nil
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, false, fmt.Errorf("last insert id: %w", err)
	}

	stored := *user
	stored.ID = strconv.FormatInt(id, 10)
	stored.CreatedAt = createdAt

	return &stored, true, nil
}

// FindUserByEmail implements Repository.FindUserByEmail using SQLite.
func (r *SQLiteUserRepository) FindUserByEmail(ctx context.Context, email string) (*domain.User, bool, error) {
	if r.conn != nil {
		// statements on the pinned connection are serialized
		r.writeLock.Lock()
		defer r.writeLock.Unlock()
	}

	return r.findUserByEmail(ctx, email)
}

func (r *SQLiteUserRepository) findUserByEmail(ctx context.Context, email string) (*domain.User, bool, error) {
	var (
		user domain.User
		id   int64
	)

	err := r.q.QueryRowContext(ctx, r.qFind, email).
		Scan(&id, &user.Name, &user.Email, &user.Password, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = errors.Join(domain.ErrUserNotFound, err)
		}

		return nil, false, fmt.Errorf("query user: %w", err)
	}

	user.ID = strconv.FormatInt(id, 10)

	return &user, true, nil
}

// Close implements Repository.Close by closing the database connection.
func (r *SQLiteUserRepository) Close() error {
	if r.conn != nil {
		if err := r.conn.Close(); err != nil {
			r.log.Error("close pinned connection failed", "error", err)
		}
	}

	if err := r.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}

	return nil
}

func mapSQLiteError(err error) error {
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return errors.Join(domain.ErrUserAlreadyExists, err)
		}
	}

	return err
}
