package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps reference texts in a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	// WAL keeps concurrent readers cheap.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS reference_texts (
		subject TEXT PRIMARY KEY,
		body TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	_, err := s.db.Exec(query)
	return err
}

func (s *SQLiteStore) Lookup(ctx context.Context, subject string) (string, bool, error) {
	var body string
	err := s.db.QueryRowContext(ctx,
		`SELECT body FROM reference_texts WHERE subject = ?`,
		normalizeSubject(subject),
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("lookup %q: %w", subject, err)
	}
	return body, true, nil
}

func (s *SQLiteStore) Upsert(ctx context.Context, subject, text string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reference_texts (subject, body, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(subject) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		normalizeSubject(subject),
		text,
		time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert %q: %w", subject, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func normalizeSubject(subject string) string {
	return strings.ToLower(strings.TrimSpace(subject))
}
