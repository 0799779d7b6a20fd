package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// Record is one stored template.
type Record struct {
	Locale   string
	Key      string
	Template string
}

const schema = `
CREATE TABLE IF NOT EXISTS strings (
	locale   TEXT NOT NULL,
	key      TEXT NOT NULL,
	template TEXT NOT NULL,
	PRIMARY KEY (locale, key)
);`

const selectRecords = `SELECT locale, key, template FROM strings ORDER BY locale, key`

// SQLite stores a catalogue in a single SQLite table.
type SQLite struct {
	db   *sql.DB
	path string
}

// OpenSQLite creates or opens the catalogue database at path.
func OpenSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLite{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *SQLite) Path() string { return s.path }

// Close closes the database connection.
func (s *SQLite) Close() error { return s.db.Close() }

// Save replaces the stored catalogue with records in one transaction.
func (s *SQLite) Save(ctx context.Context, records []Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, `DELETE FROM strings`); err != nil {
		return fmt.Errorf("clear strings: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO strings (locale, key, template) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, r.Locale, r.Key, r.Template); err != nil {
			return fmt.Errorf("insert %s/%s: %w", r.Locale, r.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Load returns every stored record ordered by locale and key.
func (s *SQLite) Load(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, selectRecords)
	if err != nil {
		return nil, fmt.Errorf("query strings: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.Locale, &r.Key, &r.Template); err != nil {
			return nil, fmt.Errorf("scan string: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read strings: %w", err)
	}
	return records, nil
}
