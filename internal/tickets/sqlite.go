package tickets

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rebeliceyang/ticketq/internal/filter"
	"github.com/rebeliceyang/ticketq/internal/models"
)

//go:embed schema_sqlite.sql
var sqliteSchema string

// SQLiteStore keeps tickets in a local SQLite file
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens the database file at path, creating it and its schema
// when missing
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// A single connection keeps ":memory:" databases intact across queries
	db.SetMaxOpenConns(1)

	s := NewSQLiteStore(db)
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLiteStore wraps an open database handle
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) ensureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("failed to create ticket schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Dialect() filter.Dialect {
	return filter.SQLite
}

func (s *SQLiteStore) Search(ctx context.Context, q Query) (*models.QueryResult, error) {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := &models.QueryResult{Columns: columns, SQL: q.SQL}
	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row := make([]string, len(columns))
		for i, v := range values {
			row[i] = formatValue(columns[i], v)
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	result.Duration = time.Since(start)
	return result, nil
}

func (s *SQLiteStore) Seed(ctx context.Context, tickets []models.Ticket) (int64, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	holders := strings.TrimSuffix(strings.Repeat("?,", len(models.TicketColumns)), ",")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT OR REPLACE INTO ticket (%s) VALUES (%s)",
		strings.Join(models.TicketColumns, ","), holders))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	var n int64
	for _, t := range tickets {
		if _, err := stmt.ExecContext(ctx, ticketRow(t)...); err != nil {
			return n, fmt.Errorf("failed to insert ticket #%d: %w", t.ID, err)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
