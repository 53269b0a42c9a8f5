package history

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

const timeLayout = "2006-01-02 15:04:05"

// Entry represents one executed filter query
type Entry struct {
	ID           int64
	QueryString  string
	SQL          string
	ExecutedAt   time.Time
	Duration     time.Duration
	RowCount     int64
	Success      bool
	ErrorMessage string
}

// Store manages query history persistence
type Store struct {
	db         *sql.DB
	maxEntries int
}

// NewStore opens (or creates) the history database at path. maxEntries
// bounds the number of kept entries; zero keeps everything.
func NewStore(path string, maxEntries int) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	return newStore(db, maxEntries)
}

func newStore(db *sql.DB, maxEntries int) (*Store, error) {
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create history schema: %w", err)
	}
	return &Store{db: db, maxEntries: maxEntries}, nil
}

// Add records an executed query and trims the log to maxEntries
func (s *Store) Add(ctx context.Context, entry Entry) error {
	executedAt := entry.ExecutedAt
	if executedAt.IsZero() {
		executedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO query_history
		(query_string, sql_text, executed_at, duration_ms, row_count, success, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.QueryString,
		entry.SQL,
		executedAt.UTC().Format(timeLayout),
		entry.Duration.Milliseconds(),
		entry.RowCount,
		entry.Success,
		entry.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to add history entry: %w", err)
	}

	if s.maxEntries > 0 {
		_, err = s.db.ExecContext(ctx, `
			DELETE FROM query_history
			WHERE id NOT IN (SELECT id FROM query_history ORDER BY id DESC LIMIT ?)`,
			s.maxEntries)
		if err != nil {
			return fmt.Errorf("failed to trim history: %w", err)
		}
	}
	return nil
}

// GetRecent retrieves the most recent entries, newest first
func (s *Store) GetRecent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, query_string, sql_text, executed_at,
		       duration_ms, row_count, success, error_message
		FROM query_history
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	return scanEntries(rows)
}

// Search finds entries whose query string contains text, newest first
func (s *Store) Search(ctx context.Context, text string, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, query_string, sql_text, executed_at,
		       duration_ms, row_count, success, error_message
		FROM query_history
		WHERE query_string LIKE ?
		ORDER BY id DESC
		LIMIT ?`, "%"+text+"%", limit)
	if err != nil {
		return nil, err
	}
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var durationMs int64
		var executedAt string

		err := rows.Scan(
			&e.ID,
			&e.QueryString,
			&e.SQL,
			&executedAt,
			&durationMs,
			&e.RowCount,
			&e.Success,
			&e.ErrorMessage,
		)
		if err != nil {
			return nil, err
		}

		e.Duration = time.Duration(durationMs) * time.Millisecond
		e.ExecutedAt, _ = time.Parse(timeLayout, executedAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
