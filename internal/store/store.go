// Package store is the durable, versioned persistence layer for notes,
// folders, tags, and per-note canvas content, backed by a local SQLite
// database. One Store handle is constructed per process and passed by
// reference to the repository and document layers; there is no hidden
// global handle.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/inkwell-app/inkwell/internal/errs"
)

const (
	// DefaultDatabaseName is the filename for the note store.
	DefaultDatabaseName = "inkwell.db"

	// MaxOpenConns stays low: SQLite is single-writer, high connection
	// counts are counterproductive.
	MaxOpenConns = 4

	// MaxIdleConns is the maximum number of idle connections.
	MaxIdleConns = 1
)

// Store wraps the database handle with an explicit open/close lifecycle.
type Store struct {
	mu  sync.Mutex
	db  *sql.DB
	dsn string
}

// Open opens (or creates) the store at dir/DefaultDatabaseName and applies
// any pending schema migrations.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	dsn := appendSQLiteParams(filepath.Join(dir, DefaultDatabaseName), sqliteCommonParams())
	return OpenDSN(dsn)
}

// OpenAt is Open with an explicit database file name.
func OpenAt(dir, name string) (*Store, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	dsn := appendSQLiteParams(filepath.Join(dir, name), sqliteCommonParams())
	return OpenDSN(dsn)
}

// OpenDSN opens the store at an explicit DSN. Used directly by tests that
// run against in-memory databases.
func OpenDSN(dsn string) (*Store, error) {
	s := &Store{dsn: dsn}
	if err := s.open(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) open() error {
	db, err := sql.Open(SQLiteDriverName, s.dsn)
	if err != nil {
		return fmt.Errorf("failed to open note store: %w", err)
	}
	db.SetMaxOpenConns(MaxOpenConns)
	db.SetMaxIdleConns(MaxIdleConns)

	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping note store: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return err
	}
	s.db = db
	return nil
}

// DB returns the underlying sql.DB for query composition by the repository
// layer.
func (s *Store) DB() *sql.DB {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db
}

// Close closes the store handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Wipe deletes all rows across every relation in one transaction, then
// forces the handle to be reopened so no cached connection survives.
func (s *Store) Wipe(ctx context.Context) error {
	tx, err := s.DB().BeginTx(ctx, nil)
	if err != nil {
		return errs.Wrap(errs.Unavailable, "failed to begin wipe", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"note_tags", "strokes", "text_elements", "canvas_state", "notes", "folders"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return errs.Wrap(errs.Unavailable, "failed to wipe "+table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return errs.Wrap(errs.Unavailable, "failed to commit wipe", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close store after wipe: %w", err)
	}
	s.db = nil
	return s.open()
}

// migrate applies pending migrations in ascending order. The installed
// version is tracked in PRAGMA user_version and bumped inside the same
// transaction as each migration's statements.
func migrate(db *sql.DB) error {
	version, err := userVersion(db)
	if err != nil {
		return err
	}
	for v := version; v < len(migrations); v++ {
		if err := applyMigration(db, v+1, migrations[v]); err != nil {
			return fmt.Errorf("migration to v%d failed: %w", v+1, err)
		}
	}
	return nil
}

func userVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

func applyMigration(db *sql.DB, target int, script string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range strings.Split(script, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tx.Exec(stmt); err != nil {
			// ADD COLUMN errors when a partially-applied migration already
			// created the column; safe to skip.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return err
		}
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", target)); err != nil {
		return err
	}
	return tx.Commit()
}
