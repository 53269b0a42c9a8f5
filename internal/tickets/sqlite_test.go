package tickets

import (
	"context"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebeliceyang/ticketq/internal/config"
	"github.com/rebeliceyang/ticketq/internal/filter"
	"github.com/rebeliceyang/ticketq/internal/filterform"
	"github.com/rebeliceyang/ticketq/internal/models"
)

var now = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func fixtureTickets() []models.Ticket {
	day := 24 * time.Hour
	return []models.Ticket{
		{ID: 1, Type: "defect", Time: now.Add(-30 * day), ChangeTime: now.Add(-2 * day),
			Owner: "alice", Status: "new", Priority: "major", Summary: "Crash on save"},
		{ID: 2, Type: "task", Time: now.Add(-10 * day), ChangeTime: now.Add(-day),
			Owner: "bob", Status: "closed", Resolution: "fixed", Priority: "minor", Summary: "100% CPU in search"},
		{ID: 3, Type: "defect", Time: now.Add(-2 * day), ChangeTime: now.Add(-day),
			Owner: "", Status: "assigned", Priority: "blocker", Summary: "Login fails"},
		{ID: 4, Type: "enhancement", Time: now.Add(-day), ChangeTime: now,
			Owner: "alice", Status: "closed", Resolution: "wontfix", Priority: "trivial", Summary: "Dark theme"},
	}
}

func openSeeded(t *testing.T) *SQLiteStore {
	t.Helper()
	ctx := context.Background()
	s, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "tickets.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	n, err := s.Seed(ctx, fixtureTickets())
	require.NoError(t, err)
	require.Equal(t, int64(4), n)
	return s
}

func catalog(t *testing.T) *models.Catalog {
	t.Helper()
	cat, err := config.GetDefaults().Catalog()
	require.NoError(t, err)
	return cat
}

func run(t *testing.T, s Store, query string) *models.QueryResult {
	t.Helper()
	cat := catalog(t)
	v, err := url.ParseQuery(query)
	require.NoError(t, err)
	form, err := filterform.ParseValues(cat, v)
	require.NoError(t, err)

	svc := NewService(s,
		WithBuilder(filter.NewBuilder(s.Dialect()).WithClock(func() time.Time { return now })),
		WithSelectOptions(filter.SelectOptions{Columns: []string{"id", "owner", "time"}}),
	)
	res, err := svc.Run(context.Background(), cat, form)
	require.NoError(t, err)
	return res
}

func ids(res *models.QueryResult) []string {
	var out []string
	for _, r := range res.Rows {
		out = append(out, r[0])
	}
	return out
}

func TestSQLiteStore_Search(t *testing.T) {
	s := openSeeded(t)

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"everything", "", []string{"1", "2", "3", "4"}},
		{"owner is", "0_owner=alice&0_owner_mode=", []string{"1", "4"}},
		{"owner is empty", "0_owner=&0_owner_mode=", []string{"1", "2", "3", "4"}},
		{"owner is not", "0_owner=alice&0_owner_mode=!", []string{"2", "3"}},
		{"summary contains literal percent", "0_summary=100%25", []string{"2"}},
		{"summary begins with", "0_summary=crash&0_summary_mode=^", []string{"1"}},
		{"status radio", "0_status=new&0_status=assigned", []string{"1", "3"}},
		{"resolution none", "0_resolution=", []string{"1", "3"}},
		{"id range", "0_id=2-3", []string{"2", "3"}},
		{"id not", "0_id=1,4&0_id_mode=!", []string{"2", "3"}},
		{"created last week", "0_time=1w&0_time_end=", []string{"3", "4"}},
		{"clauses or-ed", "0_owner=bob&0_owner_mode=&1_priority=blocker", []string{"2", "3"}},
		{"groups and-ed", "0_status=closed&0_owner=alice&0_owner_mode=", []string{"4"}},
		{"order and limit", "order=time&desc=1&max=2", []string{"4", "3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(run(t, s, tt.query)))
		})
	}
}

func TestSQLiteStore_FormatsTimes(t *testing.T) {
	s := openSeeded(t)

	res := run(t, s, "0_id=4")
	assert.Equal(t, []string{"id", "owner", "time"}, res.Columns)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, []string{"4", "alice", "2024-03-14 12:00"}, res.Rows[0])
}

func TestSQLiteStore_SeedDemoTickets(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	defer s.Close()

	n, err := s.Seed(ctx, DemoTickets(now, 50))
	require.NoError(t, err)
	assert.Equal(t, int64(50), n)

	res, err := s.Search(ctx, Query{SQL: "SELECT count(*) FROM ticket WHERE time < ?", Args: []any{now.Unix()}})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"50"}}, res.Rows)
}

func TestDemoTickets_Reproducible(t *testing.T) {
	a := DemoTickets(now, 20)
	b := DemoTickets(now, 20)
	assert.Equal(t, a, b)

	for _, tk := range a {
		assert.False(t, tk.Time.After(now))
		assert.False(t, tk.ChangeTime.Before(tk.Time))
		if tk.Status == "closed" {
			assert.NotEmpty(t, tk.Resolution)
		} else {
			assert.Empty(t, tk.Resolution)
		}
	}
}
