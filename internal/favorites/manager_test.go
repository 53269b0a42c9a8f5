package favorites

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebeliceyang/ticketq/internal/config"
	"github.com/rebeliceyang/ticketq/internal/export"
	"github.com/rebeliceyang/ticketq/internal/models"
)

func catalog(t *testing.T) *models.Catalog {
	t.Helper()
	cat, err := config.GetDefaults().Catalog()
	require.NoError(t, err)
	return cat
}

func newManager(t *testing.T) (*Manager, string) {
	t.Helper()
	dir := t.TempDir()
	m, err := NewManager(dir, catalog(t))
	require.NoError(t, err)

	clock := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	m.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return m, dir
}

func names(favs []models.Favorite) []string {
	out := make([]string, len(favs))
	for i, f := range favs {
		out[i] = f.Name
	}
	return out
}

func TestManager_AddPersists(t *testing.T) {
	m, dir := newManager(t)

	fav, err := m.Add("  Blockers ", "all blockers", "0_priority=blocker&0_priority_mode=", []string{"triage"})
	require.NoError(t, err)
	assert.Equal(t, "Blockers", fav.Name)
	assert.NotEmpty(t, fav.ID)

	_, err = os.Stat(filepath.Join(dir, "favorites.yaml"))
	require.NoError(t, err)

	reloaded, err := NewManager(dir, catalog(t))
	require.NoError(t, err)
	all := reloaded.GetAll()
	require.Len(t, all, 1)
	assert.Equal(t, fav.ID, all[0].ID)
	assert.Equal(t, "0_priority=blocker&0_priority_mode=", all[0].Query)
	assert.Equal(t, []string{"triage"}, all[0].Tags)
}

func TestManager_AddCanonicalizesQuery(t *testing.T) {
	m, _ := newManager(t)
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"default mode filled in", "0_owner=alice", "0_owner=alice&0_owner_mode=~"},
		{"fields sorted", "0_status=new&0_status_row=1&0_owner=bob&0_owner_mode=", "0_owner=bob&0_owner_mode=&0_status=new&0_status_row=1"},
		{"url accepted", "http://localhost:8000/query?0_id=1&add_filter_0=", "0_id=1&0_id_mode="},
		{"unknown property dropped", "0_votes=3&0_id=7", "0_id=7&0_id_mode="},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fav, err := m.Add(tt.name, "", tt.query, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, fav.Query)
		})
	}
}

func TestManager_AddValidates(t *testing.T) {
	m, _ := newManager(t)

	_, err := m.Add("", "", "0_id=1", nil)
	assert.ErrorContains(t, err, "name cannot be empty")

	_, err = m.Add("everything", "", "  ", nil)
	assert.ErrorIs(t, err, ErrNoFilters)

	_, err = m.Add("empty clause", "", "add_filter_0=", nil)
	assert.ErrorIs(t, err, ErrNoFilters)

	_, err = m.Add("bad", "", "0_id=1&max=lots", nil)
	assert.Error(t, err)

	_, err = m.Add("Mine", "", "0_owner=alice", nil)
	require.NoError(t, err)
	_, err = m.Add("mine", "", "0_owner=bob", nil)
	assert.ErrorContains(t, err, "already exists")

	assert.Len(t, m.GetAll(), 1)
}

func TestManager_FindByNameOrID(t *testing.T) {
	m, _ := newManager(t)
	fav, err := m.Add("My Tickets", "", "0_owner=alice", nil)
	require.NoError(t, err)

	got, err := m.Find("my tickets")
	require.NoError(t, err)
	assert.Equal(t, fav.ID, got.ID)

	got, err = m.Find(fav.ID)
	require.NoError(t, err)
	assert.Equal(t, "My Tickets", got.Name)

	_, err = m.Find("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestManager_UpdateDelete(t *testing.T) {
	m, _ := newManager(t)
	a, err := m.Add("A", "", "0_id=1", nil)
	require.NoError(t, err)
	b, err := m.Add("B", "", "0_id=2", nil)
	require.NoError(t, err)
	require.NoError(t, m.RecordUsage(b.ID))

	assert.ErrorContains(t, m.Update(b.ID, "a", "", "0_id=3", nil), "already exists")
	assert.ErrorIs(t, m.Update(b.ID, "C", "", "add_filter_0=", nil), ErrNoFilters)
	require.NoError(t, m.Update(b.ID, "C", "renamed", "0_id=3", []string{"x"}))

	got, err := m.Find(b.ID)
	require.NoError(t, err)
	assert.Equal(t, "C", got.Name)
	assert.Equal(t, "0_id=3&0_id_mode=", got.Query)
	assert.Equal(t, 1, got.UsageCount)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))

	assert.ErrorIs(t, m.Update("missing", "D", "", "0_id=4", nil), ErrNotFound)

	require.NoError(t, m.Delete(a.ID))
	assert.ErrorIs(t, m.Delete(a.ID), ErrNotFound)
	assert.Equal(t, []string{"C"}, names(m.GetAll()))
}

func TestManager_ListOrders(t *testing.T) {
	m, _ := newManager(t)
	ids := map[string]string{}
	for _, name := range []string{"b", "C", "a"} {
		fav, err := m.Add(name, "", "0_owner="+name, nil)
		require.NoError(t, err)
		ids[name] = fav.ID
	}
	require.NoError(t, m.RecordUsage(ids["C"]))
	require.NoError(t, m.RecordUsage(ids["C"]))
	require.NoError(t, m.RecordUsage(ids["a"]))

	assert.Equal(t, []string{"a", "b", "C"}, names(m.List(OrderName, 0)))
	assert.Equal(t, []string{"C", "a", "b"}, names(m.List(OrderUsage, 0)))
	assert.Equal(t, []string{"a", "C"}, names(m.List(OrderRecent, 2)))
	assert.Equal(t, names(m.List(OrderUsage, 0)), names(m.GetAll()))
}

func TestParseOrder(t *testing.T) {
	o, err := ParseOrder("Usage")
	require.NoError(t, err)
	assert.Equal(t, OrderUsage, o)

	o, err = ParseOrder("")
	require.NoError(t, err)
	assert.Equal(t, OrderName, o)

	_, err = ParseOrder("size")
	assert.Error(t, err)
}

func TestManager_Search(t *testing.T) {
	m, _ := newManager(t)
	_, err := m.Add("Blockers", "", "0_priority=blocker&0_priority_mode=", nil)
	require.NoError(t, err)
	_, err = m.Add("Mine", "assigned to me", "0_owner=alice", []string{"release"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Mine"}, names(m.Search("RELEASE")))
	assert.Equal(t, []string{"Mine"}, names(m.Search("assigned")))
	assert.Equal(t, []string{"Blockers"}, names(m.Search("priority")))
	assert.Equal(t, []string{"Mine"}, names(m.Search("Owner")))
	assert.Empty(t, m.Search("milestone"))
	assert.Len(t, m.Search(""), 2)
}

func TestManager_Export(t *testing.T) {
	m, dir := newManager(t)

	_, err := m.Export(export.FormatCSV, "")
	assert.Error(t, err, "nothing to export")

	_, err = m.Add("A", "", "0_id=1", nil)
	require.NoError(t, err)

	path, err := m.Export(export.FormatCSV, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "favorites.csv"), path)
	assert.FileExists(t, path)

	path, err = m.Export(export.FormatJSON, filepath.Join(dir, "out.json"))
	require.NoError(t, err)
	assert.FileExists(t, path)

	_, err = m.Export(export.FormatTable, "")
	assert.Error(t, err)
}
