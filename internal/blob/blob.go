// Package blob persists named JSON blobs in a single-file SQLite database.
// The engine's state surface is tiny — an event list, a last-fired map, a
// settings document — so a key/value table in WAL mode is all the schema
// there is.
package blob

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store is a named-blob store over SQLite. Safe for concurrent use; the
// database serializes writers and busy_timeout absorbs short contention.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and initializes the schema.
func Open(path string) (*Store, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}
	db.SetMaxOpenConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate state db: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS blobs (
		name       TEXT PRIMARY KEY,
		data       BLOB NOT NULL,
		updated_at TEXT NOT NULL
	);`)
	return err
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Load returns the blob stored under name. ok is false when no such blob
// exists.
func (s *Store) Load(name string) (data []byte, ok bool, err error) {
	row := s.db.QueryRow(`SELECT data FROM blobs WHERE name = ?`, name)
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("load blob %q: %w", name, err)
	}
	return data, true, nil
}

// Save writes the blob under name, replacing any previous value.
func (s *Store) Save(name string, data []byte) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	err := retryTransient(func() error {
		_, err := s.db.Exec(
			`INSERT INTO blobs (name, data, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT(name) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
			name, data, now,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("save blob %q: %w", name, err)
	}
	return nil
}

// Delete removes the blob under name. Missing blobs are not an error.
func (s *Store) Delete(name string) error {
	err := retryTransient(func() error {
		_, err := s.db.Exec(`DELETE FROM blobs WHERE name = ?`, name)
		return err
	})
	if err != nil {
		return fmt.Errorf("delete blob %q: %w", name, err)
	}
	return nil
}

// Names lists the stored blob names.
func (s *Store) Names() ([]string, error) {
	rows, err := s.db.Query(`SELECT name FROM blobs ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// Checkpoint truncates the WAL. Run by the nightly maintenance job so the
// sidecar files do not grow unbounded on long-lived devices.
func (s *Store) Checkpoint() error {
	_, err := s.db.Exec(`PRAGMA wal_checkpoint(TRUNCATE)`)
	return err
}
