// Package remote provides sync.Remote backends: a SQLite table, an HTTP
// API (client and handler) and a git repository.
package remote

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"focusboard/internal/model"
	fbsync "focusboard/internal/sync"

	_ "modernc.org/sqlite"
)

const schemaVersion = 1

// SQLite keeps snapshots in a single table with one row per user.
type SQLite struct {
	db *sql.DB
}

var _ fbsync.Remote = (*SQLite)(nil)

// OpenSQLite opens (or creates) the database at path and migrates it.
func OpenSQLite(path string) (*SQLite, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, p := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// OpenSQLiteMemory opens a private in-memory database.
func OpenSQLiteMemory() (*SQLite, error) {
	return OpenSQLite(":memory:")
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) migrate() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}
	if version >= schemaVersion {
		return nil
	}

	const ddl = `
	CREATE TABLE IF NOT EXISTS snapshots (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL UNIQUE,
		last_sync  TEXT NOT NULL,
		state      TEXT NOT NULL
	);`
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("create snapshots table: %w", err)
	}

	_, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion))
	return err
}

// Fetch returns the user's snapshot or nil when the user has none.
func (s *SQLite) Fetch(ctx context.Context, userID string) (*fbsync.Snapshot, error) {
	var (
		snap     fbsync.Snapshot
		lastSync string
		state    string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, last_sync, state FROM snapshots WHERE user_id = ? LIMIT 1`, userID,
	).Scan(&snap.ID, &snap.UserID, &lastSync, &state)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}

	snap.LastSync, err = time.Parse(time.RFC3339Nano, lastSync)
	if err != nil {
		return nil, fmt.Errorf("parse last_sync %q: %w", lastSync, err)
	}
	snap.State = model.AppState{Settings: model.DefaultSettings()}
	if err := json.Unmarshal([]byte(state), &snap.State); err != nil {
		return nil, fmt.Errorf("parse snapshot state: %w", err)
	}
	snap.State.Normalize()
	return &snap, nil
}

// Store upserts the user's snapshot.
func (s *SQLite) Store(ctx context.Context, snap fbsync.Snapshot) error {
	if snap.UserID == "" {
		return fbsync.ErrNoUser
	}
	state, err := json.Marshal(snap.State)
	if err != nil {
		return fmt.Errorf("serialize snapshot state: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots (id, user_id, last_sync, state) VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			id = excluded.id,
			last_sync = excluded.last_sync,
			state = excluded.state`,
		snap.ID, snap.UserID, snap.LastSync.UTC().Format(time.RFC3339Nano), string(state),
	)
	if err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}
