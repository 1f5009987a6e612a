package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/vbonduro/traincheck/internal/domain"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Open opens the database file at dbPath, creating it if needed, and applies
// every pending schema migration. Failures wrap domain.ErrStorageUnavailable.
func Open(dbPath string) (*sql.DB, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: failed to create database directory: %w", domain.ErrStorageUnavailable, err)
		}
	}

	dsn := fmt.Sprintf("file:%s?mode=rwc&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", dbPath)
	return open(dsn)
}

// OpenForTesting returns a private in-memory database with all migrations applied.
func OpenForTesting() (*sql.DB, error) {
	return open("file::memory:")
}

func open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database: %w", domain.ErrStorageUnavailable, err)
	}
	// SQLite serializes writers; a single connection also keeps in-memory
	// databases alive for the lifetime of the pool.
	db.SetMaxOpenConns(1)

	// Test connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: failed to ping database: %w", domain.ErrStorageUnavailable, err)
	}

	// Run migrations
	if err := runMigrations(db); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("%w: failed to run migrations: %w (also failed to close db: %v)", domain.ErrStorageUnavailable, err, cerr)
		}
		return nil, fmt.Errorf("%w: failed to run migrations: %w", domain.ErrStorageUnavailable, err)
	}

	return db, nil
}

// newMigrator builds a migrator over the embedded migration files.
// The returned migrator must not be closed: closing it closes db.
func newMigrator(db *sql.DB) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}

	drv, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", drv)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	return m, nil
}

func runMigrations(db *sql.DB) error {
	m, err := newMigrator(db)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// schemaVersion returns the applied migration version. A database with no
// migrations applied reports version 0.
func schemaVersion(db *sql.DB) (uint, error) {
	m, err := newMigrator(db)
	if err != nil {
		return 0, err
	}
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("schema version %d is dirty", version)
	}
	return version, nil
}

// Handle hands out one process-wide connection, opened on first use.
// A failed open is remembered and returned to every later caller.
type Handle struct {
	path string

	mu  sync.Mutex
	db  *sql.DB
	err error
}

func NewHandle(path string) *Handle {
	return &Handle{path: path}
}

// Open returns the shared connection, opening and migrating the database on
// the first call. Repeated calls return the same *sql.DB.
func (h *Handle) Open() (*sql.DB, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.db != nil || h.err != nil {
		return h.db, h.err
	}
	h.db, h.err = Open(h.path)
	return h.db, h.err
}

// Close releases the shared connection. Closing an unopened or already
// closed handle is a no-op. A later Open reopens the database.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.db == nil {
		return nil
	}
	err := h.db.Close()
	h.db = nil
	if err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}
