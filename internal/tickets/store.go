// Package tickets runs compiled filter queries against the ticket table.
package tickets

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rebeliceyang/ticketq/internal/filter"
	"github.com/rebeliceyang/ticketq/internal/models"
)

// Query is a compiled statement with its bind arguments
type Query struct {
	SQL  string
	Args []any
}

// Store is a ticket database
type Store interface {
	// Dialect is the SQL dialect queries for this store must be built with
	Dialect() filter.Dialect
	// Search runs a SELECT and returns its rows formatted as text
	Search(ctx context.Context, q Query) (*models.QueryResult, error)
	// Seed creates the schema if needed and inserts tickets
	Seed(ctx context.Context, tickets []models.Ticket) (int64, error)
	Close() error
}

// Open connects to the database described by config
func Open(ctx context.Context, config models.ConnectionConfig) (Store, error) {
	d, ok := filter.DialectFor(config.Driver)
	if !ok {
		return nil, fmt.Errorf("unsupported database driver %q", config.Driver)
	}
	if d == filter.Postgres {
		return OpenPostgres(ctx, config)
	}
	return OpenSQLite(ctx, config.Path)
}

// timeColumns hold unix seconds and are shown as dates
var timeColumns = map[string]bool{"time": true, "changetime": true}

const displayTime = "2006-01-02 15:04"

// formatValue renders a scanned column value for display
func formatValue(column string, v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(val)
	case string:
		return val
	case int64:
		if timeColumns[column] {
			return time.Unix(val, 0).UTC().Format(displayTime)
		}
		return strconv.FormatInt(val, 10)
	case int32:
		return formatValue(column, int64(val))
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.UTC().Format(displayTime)
	default:
		return fmt.Sprint(val)
	}
}

// ticketRow returns a ticket's values in TicketColumns order
func ticketRow(t models.Ticket) []any {
	return []any{
		t.ID, t.Type, t.Time.Unix(), t.ChangeTime.Unix(), t.Component,
		t.Priority, t.Owner, t.Reporter, t.CC, t.Version, t.Milestone,
		t.Status, t.Resolution, t.Summary, t.Description, t.Keywords,
	}
}
