// Package store persists small client-side preferences between runs,
// replacing the per-device preference blob the protocol's first client
// relied on. Backed by SQLite so a single file survives upgrades.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// Settings is a key-value preference store.
type Settings struct {
	db *sql.DB
}

// Open opens (and if needed creates) the settings database at path.
// Pass ":memory:" for an ephemeral store.
func Open(path string) (*Settings, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Settings{db: db}, nil
}

func (s *Settings) Close() error {
	return s.db.Close()
}

// Get returns the stored value for key, or "" when unset.
func (s *Settings) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, nil
}

// Set stores or replaces the value for key.
func (s *Settings) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	return nil
}

// Delete removes a key. Deleting an absent key is not an error.
func (s *Settings) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete setting %q: %w", key, err)
	}
	return nil
}

// Per-player setting keys.

func lastPrivateTargetKey(playerID string) string {
	return "last_private_target:" + playerID
}

// LastPrivateTarget returns the id of the last player this player sent a
// direct message to, "" when none is recorded.
func (s *Settings) LastPrivateTarget(ctx context.Context, playerID string) (string, error) {
	return s.Get(ctx, lastPrivateTargetKey(playerID))
}

// SetLastPrivateTarget records the target of an outgoing direct message
// so the next session can offer a quick reply.
func (s *Settings) SetLastPrivateTarget(ctx context.Context, playerID, targetID string) error {
	return s.Set(ctx, lastPrivateTargetKey(playerID), targetID)
}
