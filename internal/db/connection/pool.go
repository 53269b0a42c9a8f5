package connection

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rebeliceyang/ticketq/internal/models"
)

// Pool wraps pgxpool with our configuration
type Pool struct {
	pool   *pgxpool.Pool
	config models.ConnectionConfig
}

// NewPool creates a new connection pool
func NewPool(ctx context.Context, config models.ConnectionConfig) (*Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(buildConnectionString(config))
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection config: %w", err)
	}

	maxConns := config.PoolSize
	if maxConns <= 0 {
		maxConns = 5
	}
	poolConfig.MaxConns = int32(maxConns)
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Pool{
		pool:   pool,
		config: config,
	}, nil
}

// Close closes the connection pool
func (p *Pool) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

// Ping tests the connection
func (p *Pool) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Config returns the configuration the pool was opened with
func (p *Pool) Config() models.ConnectionConfig {
	return p.config
}

// QueryWithColumns executes a query and returns column names in order along
// with the raw row values
func (p *Pool) QueryWithColumns(ctx context.Context, sql string, args ...any) ([]string, [][]any, error) {
	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	fieldDescriptions := rows.FieldDescriptions()
	columns := make([]string, len(fieldDescriptions))
	for i, fd := range fieldDescriptions {
		columns[i] = fd.Name
	}

	var results [][]any
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, nil, err
		}
		results = append(results, values)
	}
	return columns, results, rows.Err()
}

// Execute executes a statement without returning rows (INSERT, CREATE, etc.)
func (p *Pool) Execute(ctx context.Context, sql string, args ...any) (int64, error) {
	result, err := p.pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

// CopyRows bulk-inserts rows into table
func (p *Pool) CopyRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	return p.pool.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
}

// buildConnectionString creates a PostgreSQL connection URL
func buildConnectionString(config models.ConnectionConfig) string {
	sslMode := config.SSLMode
	if sslMode == "" {
		sslMode = "prefer"
	}

	u := url.URL{
		Scheme:   "postgres",
		Host:     config.Host + ":" + strconv.Itoa(config.Port),
		Path:     "/" + config.Database,
		RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
	}
	if config.Password != "" {
		u.User = url.UserPassword(config.User, config.Password)
	} else {
		u.User = url.User(config.User)
	}
	return u.String()
}
