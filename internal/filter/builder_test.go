package filter

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebeliceyang/ticketq/internal/config"
	"github.com/rebeliceyang/ticketq/internal/filterform"
	"github.com/rebeliceyang/ticketq/internal/models"
)

func testCatalog(t *testing.T) *models.Catalog {
	t.Helper()
	cat, err := config.GetDefaults().Catalog()
	require.NoError(t, err)
	return cat
}

func parseForm(t *testing.T, cat *models.Catalog, query string) models.Form {
	t.Helper()
	v, err := url.ParseQuery(query)
	require.NoError(t, err)
	f, err := filterform.ParseValues(cat, v)
	require.NoError(t, err)
	return f
}

func fixedClock() time.Time {
	return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
}

func TestBuildWhere(t *testing.T) {
	cat := testCatalog(t)
	tests := []struct {
		name  string
		query string
		where string
		args  []any
	}{
		{
			name:  "empty form",
			query: "",
			where: "",
		},
		{
			name:  "is",
			query: "0_milestone=milestone1",
			where: `WHERE COALESCE("milestone",'')=?`,
			args:  []any{"milestone1"},
		},
		{
			name:  "is not",
			query: "0_milestone=milestone1&0_milestone_mode=!",
			where: `WHERE COALESCE("milestone",'')!=?`,
			args:  []any{"milestone1"},
		},
		{
			name:  "radio checked values",
			query: "0_status=new&0_status=assigned&0_status=reopened",
			where: `WHERE COALESCE("status",'') IN (?,?,?)`,
			args:  []any{"new", "assigned", "reopened"},
		},
		{
			name:  "radio without checked values",
			query: "0_status_row=1",
			where: "",
		},
		{
			name:  "contains",
			query: "0_owner=someone&0_owner_mode=~",
			where: `WHERE COALESCE("owner",'') LIKE ? ESCAPE '/'`,
			args:  []any{"%someone%"},
		},
		{
			name:  "does not contain",
			query: "0_owner=someone&0_owner_mode=!~",
			where: `WHERE COALESCE("owner",'') NOT LIKE ? ESCAPE '/'`,
			args:  []any{"%someone%"},
		},
		{
			name:  "begins with",
			query: "0_owner=someone&0_owner_mode=^",
			where: `WHERE COALESCE("owner",'') LIKE ? ESCAPE '/'`,
			args:  []any{"someone%"},
		},
		{
			name:  "ends with",
			query: "0_owner=someone&0_owner_mode=$",
			where: `WHERE COALESCE("owner",'') LIKE ? ESCAPE '/'`,
			args:  []any{"%someone"},
		},
		{
			name:  "multiple owners",
			query: "0_owner=someone&0_owner=someone_else&0_owner_mode=",
			where: `WHERE COALESCE("owner",'') IN (?,?)`,
			args:  []any{"someone", "someone_else"},
		},
		{
			name:  "multiple owners not",
			query: "0_owner=someone&0_owner=someone_else&0_owner_mode=!",
			where: `WHERE COALESCE("owner",'') NOT IN (?,?)`,
			args:  []any{"someone", "someone_else"},
		},
		{
			name:  "multiple owners contain",
			query: "0_owner=someone&0_owner=someone_else&0_owner_mode=~",
			where: `WHERE (COALESCE("owner",'') LIKE ? ESCAPE '/' OR COALESCE("owner",'') LIKE ? ESCAPE '/')`,
			args:  []any{"%someone%", "%someone/_else%"},
		},
		{
			name:  "blank rows are ignored",
			query: "0_owner=&0_owner=+&0_summary=crash",
			where: `WHERE COALESCE("summary",'') LIKE ? ESCAPE '/'`,
			args:  []any{"%crash%"},
		},
		{
			name:  "groups are and-ed",
			query: "0_owner=bob&0_owner_mode=&0_priority=major",
			where: `WHERE COALESCE("owner",'')=? AND COALESCE("priority",'')=?`,
			args:  []any{"bob", "major"},
		},
		{
			name:  "clauses are or-ed",
			query: "0_owner=bob&0_owner_mode=&1_priority=major&1_type=defect",
			where: `WHERE (COALESCE("owner",'')=?) OR (COALESCE("type",'')=? AND COALESCE("priority",'')=?)`,
			args:  []any{"bob", "defect", "major"},
		},
		{
			name:  "unconstrained clause matches everything",
			query: "0_owner=bob&add_filter_1=",
			where: "",
		},
		{
			name:  "id list and range",
			query: "0_id=1-5,8 %2310",
			where: `WHERE ("id" BETWEEN ? AND ? OR "id" IN (?,?))`,
			args:  []any{int64(1), int64(5), int64(8), int64(10)},
		},
		{
			name:  "id negated",
			query: "0_id=7&0_id_mode=!",
			where: `WHERE NOT ("id"=?)`,
			args:  []any{int64(7)},
		},
		{
			name:  "time range",
			query: "0_time=2024-03-01&0_time_end=today",
			where: `WHERE "time">=? AND "time"<?`,
			args:  []any{int64(1709251200), int64(1710460800)},
		},
		{
			name:  "relative time alternatives",
			query: "0_time=3d&0_time=&0_time_end=&0_time_end=1w ago",
			where: `WHERE (("time">=?) OR ("time"<?))`,
			args:  []any{int64(1710201600), int64(1709856000)},
		},
		{
			name:  "rfc3339 bounds",
			query: "0_time=2024-01-02T10:00:00Z&0_time_end=2024-01-02T10:00:00%2B02:00",
			where: `WHERE "time">=? AND "time"<?`,
			args:  []any{int64(1704189600), int64(1704182400)},
		},
		{
			name:  "keywords ignore case",
			query: "0_time=Yesterday&0_time_end=TODAY",
			where: `WHERE "time">=? AND "time"<?`,
			args:  []any{int64(1710374400), int64(1710460800)},
		},
	}
	b := NewBuilder(SQLite).WithClock(fixedClock)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args, err := b.BuildWhere(cat, parseForm(t, cat, tt.query))
			require.NoError(t, err)
			assert.Equal(t, tt.where, where)
			assert.Equal(t, tt.args, args)
		})
	}
}

func TestBuildWhere_PostgresPlaceholders(t *testing.T) {
	cat := testCatalog(t)
	f := parseForm(t, cat, "0_owner=a&0_owner=b&0_owner_mode=&1_component=component1")

	where, args, err := NewBuilder(Postgres).BuildWhere(cat, f)
	require.NoError(t, err)

	assert.Equal(t, `WHERE (COALESCE("owner",'') IN ($1,$2)) OR (COALESCE("component",'')=$3)`, where)
	assert.Equal(t, []any{"a", "b", "component1"}, args)
}

func TestBuildWhere_Errors(t *testing.T) {
	cat := testCatalog(t)
	b := NewBuilder(SQLite).WithClock(fixedClock)

	_, _, err := b.BuildWhere(cat, parseForm(t, cat, "0_id=12-3"))
	assert.ErrorIs(t, err, ErrInvalidID)

	_, _, err = b.BuildWhere(cat, parseForm(t, cat, "0_id=abc"))
	assert.ErrorIs(t, err, ErrInvalidID)

	_, _, err = b.BuildWhere(cat, parseForm(t, cat, "0_changetime=banana"))
	assert.ErrorIs(t, err, ErrInvalidTime)
}

func TestBuildSelect(t *testing.T) {
	cat := testCatalog(t)
	f := parseForm(t, cat, "0_status=new&0_status=closed&order=owner&desc=1&max=10")

	sql, args, err := NewBuilder(SQLite).BuildSelect(cat, f, SelectOptions{DefaultOrder: "priority", DefaultLimit: 100})
	require.NoError(t, err)

	assert.Equal(t, `SELECT "id","summary","status","owner","priority","milestone","component"
FROM ticket
WHERE COALESCE("status",'') IN (?,?)
ORDER BY "owner" DESC,"id"
LIMIT 10`, sql)
	assert.Equal(t, []any{"new", "closed"}, args)
}

func TestBuildSelect_Defaults(t *testing.T) {
	cat := testCatalog(t)

	sql, args, err := NewBuilder(Postgres).BuildSelect(cat, models.NewForm(), SelectOptions{
		Columns:      []string{"id", "summary"},
		DefaultLimit: 50,
	})
	require.NoError(t, err)

	assert.Equal(t, "SELECT \"id\",\"summary\"\nFROM ticket\nORDER BY \"id\"\nLIMIT 50", sql)
	assert.Empty(t, args)
}

func TestDialectFor(t *testing.T) {
	d, ok := DialectFor("PostgreSQL")
	require.True(t, ok)
	assert.Equal(t, "postgres", d.Name())
	assert.Equal(t, "$3", d.Placeholder(3))

	d, ok = DialectFor("sqlite3")
	require.True(t, ok)
	assert.Equal(t, "?", d.Placeholder(3))
	assert.Equal(t, `"we""ird"`, d.Quote(`we"ird`))

	_, ok = DialectFor("oracle")
	assert.False(t, ok)
}
