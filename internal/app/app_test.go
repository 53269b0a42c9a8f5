package app

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebeliceyang/ticketq/internal/config"
	"github.com/rebeliceyang/ticketq/internal/models"
	"github.com/rebeliceyang/ticketq/internal/ui/components"
)

type fakeRunner struct {
	forms  []models.Form
	result *models.QueryResult
	err    error
}

func (f *fakeRunner) Run(_ context.Context, _ *models.Catalog, form models.Form) (*models.QueryResult, error) {
	f.forms = append(f.forms, form)
	return f.result, f.err
}

type fakeFavorites struct {
	favs  []models.Favorite
	used  []string
	added []models.Favorite
}

func (f *fakeFavorites) GetAll() []models.Favorite { return f.favs }

func (f *fakeFavorites) Add(name, description, query string, tags []string) (*models.Favorite, error) {
	fav := models.Favorite{ID: name, Name: name, Description: description, Query: query, Tags: tags}
	f.added = append(f.added, fav)
	f.favs = append(f.favs, fav)
	return &fav, nil
}

func (f *fakeFavorites) Delete(id string) error {
	for i, fav := range f.favs {
		if fav.ID == id {
			f.favs = append(f.favs[:i], f.favs[i+1:]...)
			return nil
		}
	}
	return errors.New("not found")
}

func (f *fakeFavorites) RecordUsage(id string) error {
	f.used = append(f.used, id)
	return nil
}

func newTestApp(t *testing.T, runner Runner, opts ...Option) *App {
	t.Helper()
	cfg := config.GetDefaults()
	cat, err := cfg.Catalog()
	require.NoError(t, err)
	a := New(cfg, cat, runner, opts...)
	a.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return a
}

// drain runs cmd and feeds its message back into the app
func drain(a *App, cmd tea.Cmd) {
	for cmd != nil {
		msg := cmd()
		if msg == nil {
			return
		}
		_, cmd = a.Update(msg)
	}
}

func keys(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestApp_InitRunsQuery(t *testing.T) {
	runner := &fakeRunner{result: &models.QueryResult{
		Columns: []string{"id", "summary"},
		Rows:    [][]string{{"1", "Crash on start"}, {"2", "Typo"}},
	}}
	a := newTestApp(t, runner)

	drain(a, a.Init())

	require.Len(t, runner.forms, 1)
	assert.Equal(t, runner.result, a.state.LastResult)
	assert.Len(t, a.tableView.Rows, 2)
	assert.Contains(t, a.View(), "Crash on start")
}

func TestApp_QueryErrorShowsOverlay(t *testing.T) {
	a := newTestApp(t, &fakeRunner{err: errors.New("no such table: ticket")})

	drain(a, a.Init())

	assert.True(t, a.showError)
	assert.Contains(t, a.View(), "no such table: ticket")

	a.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, a.showError)
}

func TestApp_LoadQueryReplacesForm(t *testing.T) {
	runner := &fakeRunner{result: &models.QueryResult{}}
	a := newTestApp(t, runner)

	_, cmd := a.Update(components.LoadQueryMsg{Query: "0_owner=bob&0_owner_mode=&max=5"})
	drain(a, cmd)

	form := a.filterForm.Form()
	require.Len(t, form.Clauses, 1)
	assert.Equal(t, 0, form.Clauses[0].Group("owner"))
	assert.Equal(t, 5, form.Max)
	require.Len(t, runner.forms, 1)
	assert.Equal(t, form, runner.forms[0])
}

func TestApp_InvalidQueryShowsError(t *testing.T) {
	a := newTestApp(t, &fakeRunner{result: &models.QueryResult{}})

	a.Update(components.LoadQueryMsg{Query: "%zz"})

	assert.True(t, a.showError)
}

func TestApp_SaveAndLoadFavorite(t *testing.T) {
	favs := &fakeFavorites{}
	runner := &fakeRunner{result: &models.QueryResult{}}
	a := newTestApp(t, runner, WithFavorites(favs))

	_, cmd := a.Update(components.LoadQueryMsg{Query: "0_status=new"})
	drain(a, cmd)

	a.Update(keys("s"))
	require.True(t, a.showFavorites)
	a.Update(keys("New tickets"))
	a.Update(tea.KeyMsg{Type: tea.KeyEnter})
	a.Update(tea.KeyMsg{Type: tea.KeyEnter})
	_, cmd = a.Update(tea.KeyMsg{Type: tea.KeyEnter})
	drain(a, cmd)

	require.Len(t, favs.added, 1)
	assert.Equal(t, "New tickets", favs.added[0].Name)
	assert.Equal(t, a.filterForm.QueryString(), favs.added[0].Query)
	assert.False(t, a.showFavorites)

	_, cmd = a.Update(components.LoadFavoriteMsg{Favorite: favs.favs[0]})
	drain(a, cmd)
	assert.Equal(t, []string{"New tickets"}, favs.used)
	assert.Len(t, runner.forms, 2)
}

func TestApp_TabSwitchesPanel(t *testing.T) {
	a := newTestApp(t, nil)
	assert.Equal(t, models.FilterPanel, a.state.FocusedPanel)

	a.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, models.ResultsPanel, a.state.FocusedPanel)
	assert.True(t, a.resultsPanel.Focused)
	assert.False(t, a.filterPanel.Focused)
}

func TestApp_CopyRow(t *testing.T) {
	var copied string
	orig := clipboardWrite
	clipboardWrite = func(s string) error {
		copied = s
		return nil
	}
	t.Cleanup(func() { clipboardWrite = orig })

	a := newTestApp(t, &fakeRunner{result: &models.QueryResult{
		Columns: []string{"id", "summary"},
		Rows:    [][]string{{"7", "Slow search"}},
	}})
	drain(a, a.Init())

	a.Update(tea.KeyMsg{Type: tea.KeyTab})
	a.Update(keys("c"))
	assert.Equal(t, "7\tSlow search", copied)
}

func TestApp_SQLPreview(t *testing.T) {
	a := newTestApp(t, &fakeRunner{result: &models.QueryResult{
		Columns: []string{"id"},
		SQL:     "SELECT \"id\"\nFROM ticket",
	}})
	drain(a, a.Init())
	before := a.resultsPanel.Height

	a.Update(keys("p"))
	assert.True(t, a.sqlPreview.Visible)
	assert.Less(t, a.resultsPanel.Height, before)
	assert.Contains(t, a.View(), "FROM ticket")
}

// clickAt returns a press of button inside zone id once the last frame has
// been scanned
func clickAt(t *testing.T, id string, button tea.MouseButton) tea.MouseMsg {
	t.Helper()
	require.Eventually(t, func() bool { return !zone.Get(id).IsZero() }, time.Second, 5*time.Millisecond)
	z := zone.Get(id)
	return tea.MouseMsg{X: z.StartX + 1, Y: z.StartY + 1, Button: button, Action: tea.MouseActionPress}
}

func TestApp_MouseFocusesPanels(t *testing.T) {
	zone.NewGlobal()

	a := newTestApp(t, &fakeRunner{result: &models.QueryResult{
		Columns: []string{"id"},
		Rows:    [][]string{{"1"}, {"2"}, {"3"}},
	}})
	drain(a, a.Init())
	a.View()

	a.Update(clickAt(t, resultsPanelZone, tea.MouseButtonLeft))
	assert.Equal(t, models.ResultsPanel, a.state.FocusedPanel)
	assert.True(t, a.resultsPanel.Focused)

	a.Update(clickAt(t, resultsPanelZone, tea.MouseButtonWheelDown))
	assert.Equal(t, 1, a.tableView.SelectedRow)

	a.Update(clickAt(t, filterPanelZone, tea.MouseButtonLeft))
	assert.Equal(t, models.FilterPanel, a.state.FocusedPanel)

	// overlays take no mouse input
	a.showFavorites = true
	a.Update(clickAt(t, resultsPanelZone, tea.MouseButtonLeft))
	assert.Equal(t, models.FilterPanel, a.state.FocusedPanel)
}
