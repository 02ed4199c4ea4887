package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS collections (
	name       TEXT PRIMARY KEY,
	data       TEXT NOT NULL DEFAULT '[]',
	updated_at DATETIME NOT NULL
);
`

// SQLiteAdapter persists collections as JSON documents in a SQLite database,
// one row per collection.
type SQLiteAdapter struct {
	db *sql.DB
}

// NewSQLiteAdapter opens (or creates) a SQLite database at dbPath and ensures
// the collections table exists. The caller is responsible for calling Close.
func NewSQLiteAdapter(dbPath string) (*SQLiteAdapter, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	db.SetMaxOpenConns(1) // prevent SQLITE_BUSY
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteAdapter{db: db}, nil
}

// Close releases the underlying database connection.
func (s *SQLiteAdapter) Close() error { return s.db.Close() }

// Load returns the JSON payload stored under c, or nil if c was never saved.
func (s *SQLiteAdapter) Load(ctx context.Context, c Collection) ([]byte, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM collections WHERE name = ?`, string(c)).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query collection %s: %w", c, err)
	}
	return []byte(data), nil
}

// Save upserts the payload for c in a single statement.
func (s *SQLiteAdapter) Save(ctx context.Context, c Collection, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO collections (name, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		string(c), string(data), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert collection %s: %w", c, err)
	}
	return nil
}
