package prefs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	apperrors "github.com/rhomel/hbtheme/internal/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS preferences (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`

// SQLiteStore keeps preferences in a SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (creating if needed) the database at path.
func OpenSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, apperrors.New(apperrors.CodeConfigurationError, "state path must not be empty", nil)
	}
	//nolint:gosec // G301: state directory needs standard permissions
	if err := os.MkdirAll(filepath.Dir(trimmed), 0755); err != nil {
		return nil, apperrors.New(apperrors.CodeStoreFailed, "create state directory", err)
	}

	db, err := sql.Open("sqlite", trimmed)
	if err != nil {
		return nil, apperrors.New(apperrors.CodeStoreFailed, "open preferences db", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, apperrors.New(apperrors.CodeStoreFailed, "ping preferences db", err)
	}
	// single connection, so pragmas stick for the store's lifetime
	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 3000`); err != nil {
		_ = db.Close()
		return nil, apperrors.New(apperrors.CodeStoreFailed, "configure preferences db", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, apperrors.New(apperrors.CodeStoreFailed, "create preferences schema", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, apperrors.New(apperrors.CodeStoreFailed, fmt.Sprintf("read preference %q", key), err)
	}
	return value, true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return apperrors.New(apperrors.CodeStoreFailed, fmt.Sprintf("write preference %q", key), err)
	}
	return nil
}

// Close releases the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
