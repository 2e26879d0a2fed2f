// Package localstate persists the small amount of durable client state:
// session metadata, legacy-credential validation timestamps, and
// per-feature preferences. Values are JSON blobs under fixed keys.
// Collection data is never stored here; every list is refetched from
// the backend on startup.
package localstate

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Fixed keys for the values the client persists.
const (
	KeySession        = "session"
	KeyCredentialMeta = "credential_meta"
	KeyDriveSort      = "drive_sort"
)

// ErrNotFound is returned by Get when no value exists under the key.
var ErrNotFound = errors.New("localstate: key not found")

// Store is a key/value store backed by a local SQLite database.
type Store struct {
	db *sqlx.DB
}

// migrations are applied in order; each entry bumps the schema version.
var migrations = []struct {
	version int
	sql     string
}{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER PRIMARY KEY
);
CREATE TABLE IF NOT EXISTS state (
	key   TEXT PRIMARY KEY,
	value BLOB NOT NULL
);
INSERT INTO schema_version (version) VALUES (1);
`,
	},
}

// Open opens (or creates) the state database at dbPath, enables WAL
// mode, and applies any pending migrations. Use ":memory:" in tests.
func Open(dbPath string) (*Store, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}

	// WAL gives better concurrent read behavior on a shared file.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// Set serializes value as JSON and stores it under key, replacing any
// previous value.
func (s *Store) Set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshaling state value %q: %w", key, err)
	}

	_, err = s.db.ExecContext(
		ctx,
		"INSERT OR REPLACE INTO state (key, value) VALUES (?, ?)",
		key, data,
	)
	if err != nil {
		return fmt.Errorf("writing state value %q: %w", key, err)
	}
	return nil
}

// Get loads the value stored under key into out. Returns ErrNotFound
// when the key has never been set.
func (s *Store) Get(ctx context.Context, key string, out interface{}) error {
	var data []byte
	err := s.db.GetContext(
		ctx,
		&data,
		"SELECT value FROM state WHERE key = ?",
		key,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("reading state value %q: %w", key, err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("unmarshaling state value %q: %w", key, err)
	}
	return nil
}

// Delete removes the value stored under key. Deleting a missing key is
// not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM state WHERE key = ?", key)
	if err != nil {
		return fmt.Errorf("deleting state value %q: %w", key, err)
	}
	return nil
}
