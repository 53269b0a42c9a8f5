package tickets

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/rebeliceyang/ticketq/internal/db/connection"
	"github.com/rebeliceyang/ticketq/internal/filter"
	"github.com/rebeliceyang/ticketq/internal/models"
)

//go:embed schema_postgres.sql
var postgresSchema string

// PostgresStore runs queries through a pgx connection pool
type PostgresStore struct {
	pool *connection.Pool
}

// OpenPostgres connects to PostgreSQL. A password missing from config is
// looked up in the OS keyring.
func OpenPostgres(ctx context.Context, config models.ConnectionConfig) (*PostgresStore, error) {
	config, err := connection.ResolvePassword(config)
	if err != nil {
		return nil, err
	}
	pool, err := connection.NewPool(ctx, config)
	if err != nil {
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Dialect() filter.Dialect {
	return filter.Postgres
}

func (s *PostgresStore) Search(ctx context.Context, q Query) (*models.QueryResult, error) {
	start := time.Now()
	columns, rows, err := s.pool.QueryWithColumns(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	result := &models.QueryResult{Columns: columns, SQL: q.SQL}
	for _, values := range rows {
		row := make([]string, len(columns))
		for i, v := range values {
			row[i] = formatValue(columns[i], v)
		}
		result.Rows = append(result.Rows, row)
	}
	result.Duration = time.Since(start)
	return result, nil
}

func (s *PostgresStore) Seed(ctx context.Context, tickets []models.Ticket) (int64, error) {
	if _, err := s.pool.Execute(ctx, postgresSchema); err != nil {
		return 0, fmt.Errorf("failed to create ticket schema: %w", err)
	}
	if _, err := s.pool.Execute(ctx, "TRUNCATE ticket"); err != nil {
		return 0, fmt.Errorf("failed to clear tickets: %w", err)
	}

	rows := make([][]any, len(tickets))
	for i, t := range tickets {
		rows[i] = ticketRow(t)
	}
	n, err := s.pool.CopyRows(ctx, "ticket", models.TicketColumns, rows)
	if err != nil {
		return 0, fmt.Errorf("failed to copy tickets: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
