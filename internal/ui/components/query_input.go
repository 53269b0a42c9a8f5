package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/ticketq/internal/ui/theme"
)

// LoadQueryMsg is sent when a pasted query string should replace the form
type LoadQueryMsg struct {
	Query string
}

// CloseQueryInputMsg is sent when the query input should be closed
type CloseQueryInputMsg struct{}

// QueryInput is a one-line prompt for a query string or query URL
type QueryInput struct {
	Input textinput.Model
	Theme theme.Theme
	Width int
}

// NewQueryInput creates a new query input
func NewQueryInput(th theme.Theme) *QueryInput {
	ti := textinput.New()
	ti.Placeholder = "0_status=new&0_owner=bob or a /query URL"
	ti.Focus()
	ti.CharLimit = 2048
	ti.Width = 60

	return &QueryInput{
		Input: ti,
		Theme: th,
		Width: 80,
	}
}

// Reset clears the input
func (q *QueryInput) Reset(value string) {
	q.Input.SetValue(value)
	q.Input.CursorEnd()
	q.Input.Focus()
}

// Update handles messages
func (q *QueryInput) Update(msg tea.Msg) (*QueryInput, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "enter":
			query := queryPart(q.Input.Value())
			return q, func() tea.Msg {
				return LoadQueryMsg{Query: query}
			}
		case "esc":
			return q, func() tea.Msg {
				return CloseQueryInputMsg{}
			}
		}
	}

	var cmd tea.Cmd
	q.Input, cmd = q.Input.Update(msg)
	return q, cmd
}

// queryPart strips everything up to the '?' of a pasted URL
func queryPart(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '?'); i >= 0 {
		s = s[i+1:]
	}
	return s
}

// View renders the query input
func (q *QueryInput) View() string {
	q.Input.Width = max(20, q.Width-8)

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(q.Theme.BorderFocused).
		Padding(0, 1).
		Width(q.Width)

	helpStyle := lipgloss.NewStyle().
		Foreground(q.Theme.Muted).
		Italic(true)

	title := lipgloss.NewStyle().Foreground(q.Theme.Info).Bold(true).Render("Load query")
	helpText := helpStyle.Render("Enter: load │ Esc: close")

	return boxStyle.Render(title + "\n" + q.Input.View() + "\n" + helpText)
}
