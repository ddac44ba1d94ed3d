package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/mattn/go-sqlite3"

	"github.com/roach88/recipebox/internal/recipe"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (recipes table)
// 1 - Added index on recipes.name for lookup by name
const currentSchemaVersion = 1

// Defaults for Open.
const (
	DefaultMaxOpenConns = 4
	DefaultBusyTimeout  = 5 * time.Second
	DefaultOpenTimeout  = 3 * time.Second
)

// Store is the SQLite persistence gateway.
// Safe for concurrent use.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

type options struct {
	maxOpenConns int
	busyTimeout  time.Duration
	openTimeout  time.Duration
	logger       *slog.Logger
}

// Option configures Open.
type Option func(*options)

// WithMaxOpenConns sets the pool size. Values below 1 are ignored.
// In-memory databases always use a single connection.
func WithMaxOpenConns(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxOpenConns = n
		}
	}
}

// WithBusyTimeout sets how long a connection waits on a locked database.
func WithBusyTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.busyTimeout = d
		}
	}
}

// WithOpenTimeout bounds how long Open retries while the database is locked.
func WithOpenTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.openTimeout = d
		}
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// Open creates or opens a SQLite database at the given path and applies the
// schema and migrations.
//
// If another process holds the database locked, Open retries with
// exponential backoff for up to the open timeout. Any other failure is
// returned immediately.
//
// This function is idempotent - safe to call multiple times.
func Open(path string, opts ...Option) (*Store, error) {
	o := options{
		maxOpenConns: DefaultMaxOpenConns,
		busyTimeout:  DefaultBusyTimeout,
		openTimeout:  DefaultOpenTimeout,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	memory := path == ":memory:"
	db, err := sql.Open("sqlite3", buildDSN(path, o.busyTimeout, memory))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Separate connections to :memory: would each see an empty database
	if memory {
		o.maxOpenConns = 1
	}
	db.SetMaxOpenConns(o.maxOpenConns)
	db.SetMaxIdleConns(o.maxOpenConns)

	if err := pingWithRetry(db, o.openTimeout); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	o.logger.Debug("store opened", "path", path, "max_open_conns", o.maxOpenConns)
	return &Store{db: db, logger: o.logger}, nil
}

// buildDSN encodes the per-connection pragmas as go-sqlite3 DSN parameters.
func buildDSN(path string, busyTimeout time.Duration, memory bool) string {
	q := url.Values{}
	q.Set("_busy_timeout", fmt.Sprintf("%d", busyTimeout.Milliseconds()))
	q.Set("_foreign_keys", "on")
	q.Set("_synchronous", "NORMAL")
	if !memory {
		q.Set("_journal_mode", "WAL")
	}
	return "file:" + path + "?" + q.Encode()
}

// pingWithRetry verifies the connection, retrying only on lock contention.
func pingWithRetry(db *sql.DB, timeout time.Duration) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 50 * time.Millisecond
	bo.MaxInterval = 500 * time.Millisecond
	bo.MaxElapsedTime = timeout

	return backoff.Retry(func() error {
		err := db.Ping()
		if err == nil {
			return nil
		}
		if isLocked(err) {
			return err
		}
		return backoff.Permanent(err)
	}, bo)
}

// isLocked reports whether err is SQLITE_BUSY or SQLITE_LOCKED.
func isLocked(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked
	}
	return false
}

// Close closes the connection pool.
// Should be called when the store is no longer needed.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer using Store methods when available.
func (s *Store) DB() *sql.DB {
	return s.db
}

// withConn acquires a pooled connection for the duration of fn.
func (s *Store) withConn(ctx context.Context, op string, fn func(*sql.Conn) error) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return recipe.NewPersistenceError(op, fmt.Errorf("acquire connection: %w", err))
	}
	defer conn.Close()
	return fn(conn)
}

// applySchema creates tables if they don't exist and runs migrations.
// This function is idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// migrateToV1 adds the name index used by FindIDByName.
func migrateToV1(db *sql.DB) error {
	_, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_recipes_name ON recipes(name)`)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value on a pooled
// connection. Used for testing.
func (s *Store) verifyPragma(ctx context.Context, name, expected string) error {
	return s.withConn(ctx, "verify pragma", func(conn *sql.Conn) error {
		var value string
		query := fmt.Sprintf("PRAGMA %s", name)
		if err := conn.QueryRowContext(ctx, query).Scan(&value); err != nil {
			return fmt.Errorf("failed to query %s: %w", name, err)
		}
		if value != expected {
			return fmt.Errorf("%s = %q, expected %q", name, value, expected)
		}
		return nil
	})
}
