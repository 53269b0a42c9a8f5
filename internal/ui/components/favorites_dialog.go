package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/ticketq/internal/models"
	"github.com/rebeliceyang/ticketq/internal/ui/theme"
)

// FavoritesMode represents the dialog mode
type FavoritesMode int

const (
	FavoritesModeList FavoritesMode = iota
	FavoritesModeSave
)

// LoadFavoriteMsg is sent when a favorite should be loaded into the form
type LoadFavoriteMsg struct {
	Favorite models.Favorite
}

// SaveFavoriteMsg is sent when the current query should be saved
type SaveFavoriteMsg struct {
	Name        string
	Description string
	Query       string
	Tags        []string
}

// DeleteFavoriteMsg is sent when a favorite should be deleted
type DeleteFavoriteMsg struct {
	ID string
}

// CloseFavoritesDialogMsg is sent when dialog should close
type CloseFavoritesDialogMsg struct{}

const (
	fieldName = iota
	fieldDescription
	fieldTags
	fieldCount
)

// FavoritesDialog lists saved queries and saves the current one
type FavoritesDialog struct {
	Width  int
	Height int
	Theme  theme.Theme

	mode      FavoritesMode
	favorites []models.Favorite
	selected  int
	offset    int

	// Save state
	query        string
	inputs       [fieldCount]textinput.Model
	currentField int
}

// NewFavoritesDialog creates a new favorites dialog
func NewFavoritesDialog(th theme.Theme) *FavoritesDialog {
	fd := &FavoritesDialog{
		Width:  80,
		Height: 24,
		Theme:  th,
	}
	placeholders := [fieldCount]string{"Name", "Description", "Tags, comma separated"}
	for i := range fd.inputs {
		ti := textinput.New()
		ti.Placeholder = placeholders[i]
		ti.CharLimit = 256
		ti.Width = 50
		fd.inputs[i] = ti
	}
	return fd
}

// SetFavorites updates the favorites list
func (fd *FavoritesDialog) SetFavorites(favorites []models.Favorite) {
	fd.favorites = favorites
	fd.selected = max(0, min(fd.selected, len(favorites)-1))
	fd.offset = 0
}

// StartSave switches to the save form for query
func (fd *FavoritesDialog) StartSave(query string) {
	fd.mode = FavoritesModeSave
	fd.query = query
	for i := range fd.inputs {
		fd.inputs[i].SetValue("")
		fd.inputs[i].Blur()
	}
	fd.currentField = fieldName
	fd.inputs[fieldName].Focus()
}

// Mode returns the current dialog mode
func (fd *FavoritesDialog) Mode() FavoritesMode {
	return fd.mode
}

// Update handles keyboard input
func (fd *FavoritesDialog) Update(msg tea.KeyMsg) (*FavoritesDialog, tea.Cmd) {
	if fd.mode == FavoritesModeSave {
		return fd.handleSaveMode(msg)
	}
	return fd.handleListMode(msg)
}

func (fd *FavoritesDialog) handleListMode(msg tea.KeyMsg) (*FavoritesDialog, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		return fd, func() tea.Msg {
			return CloseFavoritesDialogMsg{}
		}
	case "up", "k":
		if fd.selected > 0 {
			fd.selected--
			if fd.selected < fd.offset {
				fd.offset = fd.selected
			}
		}
	case "down", "j":
		if fd.selected < len(fd.favorites)-1 {
			fd.selected++
			visible := fd.visibleRows()
			if fd.selected >= fd.offset+visible {
				fd.offset = fd.selected - visible + 1
			}
		}
	case "enter":
		if fd.selected < len(fd.favorites) {
			fav := fd.favorites[fd.selected]
			return fd, func() tea.Msg {
				return LoadFavoriteMsg{Favorite: fav}
			}
		}
	case "d", "x":
		if fd.selected < len(fd.favorites) {
			id := fd.favorites[fd.selected].ID
			return fd, func() tea.Msg {
				return DeleteFavoriteMsg{ID: id}
			}
		}
	}
	return fd, nil
}

func (fd *FavoritesDialog) handleSaveMode(msg tea.KeyMsg) (*FavoritesDialog, tea.Cmd) {
	switch msg.String() {
	case "esc":
		fd.mode = FavoritesModeList
		return fd, nil
	case "tab", "down":
		fd.focusField((fd.currentField + 1) % fieldCount)
		return fd, nil
	case "shift+tab", "up":
		fd.focusField((fd.currentField - 1 + fieldCount) % fieldCount)
		return fd, nil
	case "enter":
		if fd.currentField < fieldTags {
			fd.focusField(fd.currentField + 1)
			return fd, nil
		}
		name := strings.TrimSpace(fd.inputs[fieldName].Value())
		if name == "" {
			fd.focusField(fieldName)
			return fd, nil
		}
		save := SaveFavoriteMsg{
			Name:        name,
			Description: strings.TrimSpace(fd.inputs[fieldDescription].Value()),
			Query:       fd.query,
			Tags:        splitTags(fd.inputs[fieldTags].Value()),
		}
		fd.mode = FavoritesModeList
		return fd, func() tea.Msg { return save }
	}

	var cmd tea.Cmd
	fd.inputs[fd.currentField], cmd = fd.inputs[fd.currentField].Update(msg)
	return fd, cmd
}

func (fd *FavoritesDialog) focusField(i int) {
	fd.inputs[fd.currentField].Blur()
	fd.currentField = i
	fd.inputs[i].Focus()
}

func (fd *FavoritesDialog) visibleRows() int {
	// two lines per entry below title and instructions
	return max(1, (fd.Height-6)/2)
}

func splitTags(s string) []string {
	var tags []string
	for _, part := range strings.Split(s, ",") {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// View renders the dialog
func (fd *FavoritesDialog) View() string {
	if fd.mode == FavoritesModeSave {
		return fd.renderSave()
	}
	return fd.renderList()
}

func (fd *FavoritesDialog) titleStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(fd.Theme.Foreground).
		Background(fd.Theme.Info).
		Padding(0, 1).
		Bold(true)
}

func (fd *FavoritesDialog) container() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(fd.Theme.BorderFocused).
		Width(fd.Width).
		Height(fd.Height).
		Padding(1)
}

func (fd *FavoritesDialog) renderList() string {
	var sections []string

	sections = append(sections, fd.titleStyle().Render("Saved Queries"))

	instrStyle := lipgloss.NewStyle().
		Foreground(fd.Theme.Muted).
		Padding(0, 1)
	sections = append(sections, instrStyle.Render("↑↓: Navigate  Enter: Load  d: Delete  Esc: Close"))

	if len(fd.favorites) == 0 {
		sections = append(sections, "\nNo saved queries yet. Press s in the filter panel to save one.")
	} else {
		sections = append(sections, "")
		end := min(fd.offset+fd.visibleRows(), len(fd.favorites))
		for i := fd.offset; i < end; i++ {
			fav := fd.favorites[i]

			line := truncate(fav.Name, 40)
			detail := fav.Description
			if detail == "" {
				detail = fav.Query
			}
			line += "\n  " + truncate(detail, 60)
			if len(fav.Tags) > 0 {
				line += fmt.Sprintf(" [%s]", strings.Join(fav.Tags, ", "))
			}

			style := lipgloss.NewStyle().Padding(0, 1)
			if i == fd.selected {
				style = style.Background(fd.Theme.Selection).Foreground(fd.Theme.Foreground)
			}
			sections = append(sections, style.Render(line))
		}
	}

	return fd.container().Render(strings.Join(sections, "\n"))
}

func (fd *FavoritesDialog) renderSave() string {
	var sections []string

	sections = append(sections, fd.titleStyle().Render("Save Query"))

	instrStyle := lipgloss.NewStyle().
		Foreground(fd.Theme.Muted).
		Padding(0, 1)
	sections = append(sections, instrStyle.Render("Tab: Next field  Enter: Save  Esc: Cancel"))
	sections = append(sections, "", lipgloss.NewStyle().Foreground(fd.Theme.Muted).Padding(0, 1).Render("?"+truncate(fd.query, fd.Width-6)), "")

	labels := [fieldCount]string{"Name:", "Description:", "Tags:"}
	for i := range fd.inputs {
		style := lipgloss.NewStyle().Padding(0, 1)
		if i == fd.currentField {
			style = style.Background(fd.Theme.Selection)
		}
		sections = append(sections, style.Render(fmt.Sprintf("%-13s %s", labels[i], fd.inputs[i].View())))
	}

	return fd.container().Render(strings.Join(sections, "\n"))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n < 4 || len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
