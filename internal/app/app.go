package app

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/ticketq/internal/config"
	"github.com/rebeliceyang/ticketq/internal/filterform"
	"github.com/rebeliceyang/ticketq/internal/logger"
	"github.com/rebeliceyang/ticketq/internal/models"
	"github.com/rebeliceyang/ticketq/internal/ui/components"
	"github.com/rebeliceyang/ticketq/internal/ui/help"
	"github.com/rebeliceyang/ticketq/internal/ui/theme"
)

// Runner executes a filter form
type Runner interface {
	Run(ctx context.Context, cat *models.Catalog, form models.Form) (*models.QueryResult, error)
}

// FavoriteStore persists saved queries
type FavoriteStore interface {
	GetAll() []models.Favorite
	Add(name, description, query string, tags []string) (*models.Favorite, error)
	Delete(id string) error
	RecordUsage(id string) error
}

// clipboardWrite is replaced in tests
var clipboardWrite = clipboard.WriteAll

// App is the main application model
type App struct {
	state   models.AppState
	config  *config.Config
	theme   theme.Theme
	catalog *models.Catalog
	runner  Runner

	filterPanel  components.Panel
	resultsPanel components.Panel

	filterForm *components.FilterForm
	tableView  *components.TableView
	sqlPreview *components.SQLPreview

	favorites       FavoriteStore
	showFavorites   bool
	favoritesDialog *components.FavoritesDialog

	showQueryInput bool
	queryInput     *components.QueryInput

	// Error overlay
	showError    bool
	errorOverlay *components.ErrorOverlay

	running bool
	status  string
}

// QueryResultMsg is sent when a query finished
type QueryResultMsg struct {
	Query  string
	Result *models.QueryResult
	Err    error
}

// ErrorMsg is sent when an error occurs
type ErrorMsg struct {
	Title   string
	Message string
}

// Option configures an App
type Option func(*App)

// WithFavorites enables the saved-query dialog
func WithFavorites(store FavoriteStore) Option {
	return func(a *App) { a.favorites = store }
}

// WithForm starts the UI with form instead of an empty one
func WithForm(form models.Form) Option {
	return func(a *App) { a.setForm(form) }
}

// New creates a new App instance
func New(cfg *config.Config, cat *models.Catalog, runner Runner, opts ...Option) *App {
	if cfg == nil {
		cfg = config.GetDefaults()
	}
	th := theme.GetTheme(cfg.UI.Theme)

	a := &App{
		state:           models.NewAppState(),
		config:          cfg,
		theme:           th,
		catalog:         cat,
		runner:          runner,
		tableView:       components.NewTableView(th),
		sqlPreview:      components.NewSQLPreview(th),
		favoritesDialog: components.NewFavoritesDialog(th),
		queryInput:      components.NewQueryInput(th),
		errorOverlay:    components.NewErrorOverlay(th),
		filterPanel:     components.Panel{Title: "Filters", Theme: th},
		resultsPanel:    components.Panel{Title: "Results", Theme: th},
	}
	a.setForm(models.NewForm())
	for _, o := range opts {
		o(a)
	}

	a.updatePanelDimensions()
	a.updatePanelStyles()
	return a
}

func (a *App) setForm(form models.Form) {
	ctl := filterform.NewController(a.catalog, form, logger.Get())
	ctl.SetStrict(a.config.General.Debug)
	a.filterForm = components.NewFilterForm(a.theme, ctl)
	a.updatePanelDimensions()
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return a.runQuery(a.filterForm.Form())
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ErrorMsg:
		a.ShowError(msg.Title, msg.Message)
		return a, nil

	case tea.WindowSizeMsg:
		a.state.Width = msg.Width
		a.state.Height = msg.Height
		a.updatePanelDimensions()
		return a, nil

	case components.RunQueryMsg:
		return a, a.runQuery(msg.Form)

	case QueryResultMsg:
		a.running = false
		if msg.Err != nil {
			a.status = ""
			a.ShowError("Query Failed", fmt.Sprintf("%s\n\n%v", msg.Query, msg.Err))
			return a, nil
		}
		a.state.LastQuery = msg.Query
		a.state.LastResult = msg.Result
		a.tableView.SetResult(msg.Result)
		a.sqlPreview.SetSQL(msg.Result.SQL)
		a.status = fmt.Sprintf("%d tickets in %s", len(msg.Result.Rows), msg.Result.Duration.Round(time.Millisecond))
		return a, nil

	case components.LoadQueryMsg:
		a.showQueryInput = false
		return a, a.loadQuery(msg.Query)

	case components.CloseQueryInputMsg:
		a.showQueryInput = false
		return a, nil

	case components.LoadFavoriteMsg:
		a.showFavorites = false
		if a.favorites != nil {
			if err := a.favorites.RecordUsage(msg.Favorite.ID); err != nil {
				logger.Warn("failed to record favorite usage", "id", msg.Favorite.ID, "error", err)
			}
		}
		return a, a.loadQuery(msg.Favorite.Query)

	case components.SaveFavoriteMsg:
		if a.favorites == nil {
			return a, nil
		}
		fav, err := a.favorites.Add(msg.Name, msg.Description, msg.Query, msg.Tags)
		if err != nil {
			a.ShowError("Save Failed", err.Error())
			return a, nil
		}
		a.showFavorites = false
		a.status = fmt.Sprintf("Saved %q", fav.Name)
		return a, nil

	case components.DeleteFavoriteMsg:
		if a.favorites == nil {
			return a, nil
		}
		if err := a.favorites.Delete(msg.ID); err != nil {
			a.ShowError("Delete Failed", err.Error())
			return a, nil
		}
		a.favoritesDialog.SetFavorites(a.favorites.GetAll())
		return a, nil

	case components.CloseFavoritesDialogMsg:
		a.showFavorites = false
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case tea.MouseMsg:
		return a.handleMouse(msg)
	}
	return a, nil
}

const (
	filterPanelZone  = "panel.filters"
	resultsPanelZone = "panel.results"
)

// handleMouse routes clicks and the wheel to the panel under the pointer.
// Overlays and the help screen ignore the mouse.
func (a *App) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if a.showError || a.showQueryInput || a.showFavorites || a.state.ViewMode == models.HelpMode {
		return a, nil
	}

	switch {
	case components.InZone(filterPanelZone, msg):
		a.state.FocusedPanel = models.FilterPanel
		a.updatePanelStyles()
		var cmd tea.Cmd
		a.filterForm, cmd = a.filterForm.Mouse(msg)
		return a, cmd
	case components.InZone(resultsPanelZone, msg):
		if a.filterForm.Editing() {
			return a, nil
		}
		a.state.FocusedPanel = models.ResultsPanel
		a.updatePanelStyles()
		a.tableView.Mouse(msg)
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if a.showError {
		switch key {
		case "esc", "enter":
			a.DismissError()
		case "ctrl+c":
			return a, tea.Quit
		}
		return a, nil
	}
	if key == "ctrl+c" {
		return a, tea.Quit
	}

	if a.showQueryInput {
		var cmd tea.Cmd
		a.queryInput, cmd = a.queryInput.Update(msg)
		return a, cmd
	}
	if a.showFavorites {
		var cmd tea.Cmd
		a.favoritesDialog, cmd = a.favoritesDialog.Update(msg)
		return a, cmd
	}

	if a.state.ViewMode == models.HelpMode {
		if key == "?" || key == "esc" || key == "q" {
			a.state.ViewMode = models.NormalMode
		}
		return a, nil
	}

	// An open input or menu in the filter form takes every key
	if a.state.FocusedPanel == models.FilterPanel && a.filterForm.Editing() {
		var cmd tea.Cmd
		a.filterForm, cmd = a.filterForm.Update(msg)
		return a, cmd
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "?":
		a.state.ViewMode = models.HelpMode
		return a, nil
	case "tab":
		if a.state.FocusedPanel == models.FilterPanel {
			a.state.FocusedPanel = models.ResultsPanel
		} else {
			a.state.FocusedPanel = models.FilterPanel
		}
		a.updatePanelStyles()
		return a, nil
	case "/":
		a.showQueryInput = true
		a.queryInput.Reset(a.filterForm.QueryString())
		return a, nil
	case "f":
		if a.favorites != nil {
			a.favoritesDialog.SetFavorites(a.favorites.GetAll())
			a.showFavorites = true
		}
		return a, nil
	case "s":
		if a.favorites != nil {
			a.favoritesDialog.StartSave(a.filterForm.QueryString())
			a.showFavorites = true
		}
		return a, nil
	case "p":
		a.sqlPreview.Toggle()
		a.updatePanelDimensions()
		return a, nil
	case "[":
		a.sqlPreview.ScrollUp()
		return a, nil
	case "]":
		a.sqlPreview.ScrollDown()
		return a, nil
	case "Y":
		if a.sqlPreview.SQL != "" {
			if err := clipboardWrite(a.sqlPreview.SQL); err != nil {
				a.status = "Copy failed: " + err.Error()
			} else {
				a.status = "Copied SQL"
			}
		}
		return a, nil
	}

	if a.state.FocusedPanel == models.FilterPanel {
		var cmd tea.Cmd
		a.filterForm, cmd = a.filterForm.Update(msg)
		return a, cmd
	}

	switch key {
	case "up", "k":
		a.tableView.MoveSelection(-1)
	case "down", "j":
		a.tableView.MoveSelection(1)
	case "pgup", "ctrl+u":
		a.tableView.PageUp()
	case "pgdown", "ctrl+d":
		a.tableView.PageDown()
	case "r", "f5", "ctrl+r":
		return a, a.runQuery(a.filterForm.Form())
	case "c":
		if row := a.tableView.SelectedRowValues(); row != nil {
			if err := clipboardWrite(strings.Join(row, "\t")); err != nil {
				a.status = "Copy failed: " + err.Error()
			} else {
				a.status = "Copied ticket row"
			}
		}
	}
	return a, nil
}

// runQuery executes form in the background
func (a *App) runQuery(form models.Form) tea.Cmd {
	if a.runner == nil {
		return nil
	}
	a.running = true
	a.status = "Running query…"
	runner, cat := a.runner, a.catalog
	qs := filterform.QueryString(cat, form)
	return func() tea.Msg {
		res, err := runner.Run(context.Background(), cat, form)
		return QueryResultMsg{Query: qs, Result: res, Err: err}
	}
}

// loadQuery replaces the form with the one described by a query string and
// runs it
func (a *App) loadQuery(qs string) tea.Cmd {
	v, err := url.ParseQuery(qs)
	if err != nil {
		a.ShowError("Invalid Query", err.Error())
		return nil
	}
	form, err := filterform.ParseValues(a.catalog, v)
	if err != nil {
		a.ShowError("Invalid Query", err.Error())
		return nil
	}
	a.setForm(form)
	a.state.FocusedPanel = models.FilterPanel
	a.updatePanelStyles()
	return a.runQuery(form)
}

// View implements tea.Model
func (a *App) View() string {
	if a.showError {
		return lipgloss.Place(
			a.state.Width, a.state.Height,
			lipgloss.Center, lipgloss.Center,
			a.errorOverlay.View(),
		)
	}

	if a.state.ViewMode == models.HelpMode {
		return help.Render(a.state.Width, a.state.Height, a.theme)
	}

	if a.showFavorites {
		a.favoritesDialog.Width = min(80, a.state.Width-4)
		a.favoritesDialog.Height = min(24, a.state.Height-4)
		return lipgloss.Place(a.state.Width, a.state.Height, lipgloss.Center, lipgloss.Center, a.favoritesDialog.View())
	}

	if a.showQueryInput {
		a.queryInput.Width = min(100, a.state.Width-4)
		return lipgloss.Place(a.state.Width, a.state.Height, lipgloss.Center, lipgloss.Center, a.queryInput.View())
	}

	return a.renderNormalView()
}

// renderNormalView renders the filter panel above the results panel
func (a *App) renderNormalView() string {
	topBar := lipgloss.NewStyle().
		Width(a.state.Width).
		Background(a.theme.BorderFocused).
		Foreground(a.theme.Foreground).
		Padding(0, 2).
		Render(a.formatStatusBar("ticketq", a.filterForm.String()))

	right := a.status
	if right == "" && a.state.LastResult != nil {
		right = fmt.Sprintf("%d tickets", len(a.state.LastResult.Rows))
	}
	bottomBar := lipgloss.NewStyle().
		Width(a.state.Width).
		Background(a.theme.Selection).
		Foreground(a.theme.Foreground).
		Padding(0, 2).
		Render(a.formatStatusBar("[tab] Switch panel | [r] Run | [/] Load | [f] Saved | [p] SQL | [?] Help | [q] Quit", right))

	a.filterForm.Width = a.filterPanel.Width
	a.filterForm.Height = a.filterPanel.Height
	a.filterPanel.Content = a.filterForm.View()

	a.tableView.Width = a.resultsPanel.Width
	a.tableView.Height = a.resultsPanel.Height - 1
	a.resultsPanel.Content = a.tableView.View()

	sections := []string{topBar, components.MarkZone(filterPanelZone, a.filterPanel.View())}
	if a.sqlPreview.Visible {
		a.sqlPreview.Width = a.state.Width
		sections = append(sections, a.sqlPreview.View())
	}
	sections = append(sections, components.MarkZone(resultsPanelZone, a.resultsPanel.View()), bottomBar)

	return components.ScanZones(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

// updatePanelDimensions calculates panel sizes based on window size
func (a *App) updatePanelDimensions() {
	if a.state.Width <= 0 || a.state.Height <= 0 {
		return
	}

	// Top and bottom bar take one line each, each panel border two
	contentHeight := max(10, a.state.Height-2-4-a.sqlPreview.Height())
	filterHeight := max(5, contentHeight*2/5)

	width := max(20, a.state.Width-2)
	a.filterPanel.Width = width
	a.filterPanel.Height = filterHeight
	a.resultsPanel.Width = width
	a.resultsPanel.Height = max(3, contentHeight-filterHeight)
}

// updatePanelStyles updates panel styling based on focus
func (a *App) updatePanelStyles() {
	a.filterPanel.Focused = a.state.FocusedPanel == models.FilterPanel
	a.resultsPanel.Focused = a.state.FocusedPanel == models.ResultsPanel
}

// formatStatusBar formats a status bar with left and right aligned content
func (a *App) formatStatusBar(left, right string) string {
	// Account for padding (2 chars on each side = 4 total)
	availableWidth := max(0, a.state.Width-4)

	leftLen := lipgloss.Width(left)
	rightLen := lipgloss.Width(right)

	if leftLen+rightLen > availableWidth {
		return truncateRunes(left+" "+right, availableWidth)
	}

	spacing := availableWidth - leftLen - rightLen
	return left + strings.Repeat(" ", spacing) + right
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// ShowError displays an error overlay with the given title and message
func (a *App) ShowError(title, message string) {
	a.errorOverlay.SetError(title, message)
	a.showError = true
}

// DismissError hides the error overlay
func (a *App) DismissError() {
	a.showError = false
}
