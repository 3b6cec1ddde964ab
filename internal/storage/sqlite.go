package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jayvdb/pep257-rs/internal/report"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteStore struct {
	db *sql.DB
}

var _ ResultStore = (*SQLiteStore)(nil)

// NewSQLiteStore creates or opens a SQLite database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	// Workers share the handle; a single connection serializes writes.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS results (
			path TEXT PRIMARY KEY,
			content_hash TEXT NOT NULL,
			violations JSON NOT NULL,
			checked_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_results_hash ON results(content_hash);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, path, key string) ([]report.Violation, bool, error) {
	var hash string
	var raw []byte
	err := s.db.QueryRowContext(ctx, "SELECT content_hash, violations FROM results WHERE path = ?", path).Scan(&hash, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if hash != key {
		return nil, false, nil
	}

	var vs []report.Violation
	if err := json.Unmarshal(raw, &vs); err != nil {
		return nil, false, fmt.Errorf("corrupt cache entry for %s: %w", path, err)
	}
	if vs == nil {
		vs = []report.Violation{}
	}
	return vs, true, nil
}

func (s *SQLiteStore) Put(ctx context.Context, path, key string, violations []report.Violation) error {
	if violations == nil {
		violations = []report.Violation{}
	}
	raw, err := json.Marshal(violations)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO results (path, content_hash, violations, checked_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			content_hash=excluded.content_hash,
			violations=excluded.violations,
			checked_at=excluded.checked_at
	`, path, key, raw, time.Now().Unix())
	return err
}

func (s *SQLiteStore) Delete(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, "DELETE FROM results WHERE path = ?")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range paths {
		if _, err := stmt.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Count returns the number of cached files.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM results").Scan(&n)
	return n, err
}
