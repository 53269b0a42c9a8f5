package help

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/ticketq/internal/ui/theme"
)

// KeyBinding represents a keyboard shortcut
type KeyBinding struct {
	Key         string
	Description string
}

// Section is a titled group of key bindings
type Section struct {
	Title string
	Keys  []KeyBinding
}

// GetGlobalKeys returns global key bindings
func GetGlobalKeys() []KeyBinding {
	return []KeyBinding{
		{"?", "Toggle help"},
		{"q, Ctrl+C", "Quit application"},
		{"Tab", "Switch panel focus"},
		{"r, F5", "Run query"},
	}
}

// GetFilterKeys returns filter form key bindings
func GetFilterKeys() []KeyBinding {
	return []KeyBinding{
		{"↑/k ↓/j", "Move between filters"},
		{"Enter, e", "Edit value / open add-filter menu"},
		{"a", "Add filter to the clause"},
		{"o", "Add an Or clause"},
		{"d, x", "Remove filter"},
		{"m", "Cycle match mode"},
		{"←/h →/l", "Change option"},
		{"Space", "Toggle option"},
		{"Tab", "Next field while editing"},
		{"Esc", "Cancel edit"},
		{"y", "Copy query string"},
	}
}

// GetResultKeys returns result table key bindings
func GetResultKeys() []KeyBinding {
	return []KeyBinding{
		{"↑/k ↓/j", "Move selection"},
		{"PgUp/PgDn", "Page up / down"},
		{"c", "Copy ticket row"},
	}
}

// Sections returns all help sections in display order
func Sections() []Section {
	return []Section{
		{"Global", GetGlobalKeys()},
		{"Filters", GetFilterKeys()},
		{"Results", GetResultKeys()},
	}
}

// Render creates the help view
func Render(width, height int, th theme.Theme) string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(th.BorderFocused).
		Padding(1, 0)

	sectionStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(th.Info).
		Padding(0, 0, 0, 2)

	keyStyle := lipgloss.NewStyle().
		Foreground(th.Warning).
		Width(20)

	descStyle := lipgloss.NewStyle().
		Foreground(th.Foreground)

	var b strings.Builder

	b.WriteString(titleStyle.Render("ticketq - Keyboard Shortcuts"))
	b.WriteString("\n\n")

	for _, s := range Sections() {
		b.WriteString(sectionStyle.Render(s.Title))
		b.WriteString("\n")
		for _, kb := range s.Keys {
			b.WriteString("  ")
			b.WriteString(keyStyle.Render(kb.Key))
			b.WriteString(descStyle.Render(kb.Description))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(lipgloss.NewStyle().Faint(true).Render("Press '?' or Esc to close help"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(th.BorderFocused).
		Padding(1, 2).
		Width(max(0, width-4)).
		Height(max(0, height-4))

	return boxStyle.Render(b.String())
}
