package filter

import (
	"strconv"
	"strings"
)

// Dialect covers the SQL differences between the supported databases
type Dialect interface {
	Name() string
	Placeholder(n int) string
	Quote(ident string) string
}

var (
	// Postgres numbers its placeholders: $1, $2, ...
	Postgres Dialect = postgresDialect{}
	// SQLite uses positional ? placeholders
	SQLite Dialect = sqliteDialect{}
)

type postgresDialect struct{}

func (postgresDialect) Name() string             { return "postgres" }
func (postgresDialect) Placeholder(n int) string { return "$" + strconv.Itoa(n) }
func (postgresDialect) Quote(ident string) string {
	return quoteIdent(ident)
}

type sqliteDialect struct{}

func (sqliteDialect) Name() string           { return "sqlite" }
func (sqliteDialect) Placeholder(int) string { return "?" }
func (sqliteDialect) Quote(ident string) string {
	return quoteIdent(ident)
}

// DialectFor returns the dialect of a configured database driver
func DialectFor(driver string) (Dialect, bool) {
	switch strings.ToLower(driver) {
	case "postgres", "postgresql", "pgx":
		return Postgres, true
	case "sqlite", "sqlite3":
		return SQLite, true
	}
	return nil, false
}

func quoteIdent(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
