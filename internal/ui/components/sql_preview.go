package components

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/rebeliceyang/ticketq/internal/ui/theme"
)

var sqlLexer = newSQLLexer()

func newSQLLexer() chroma.Lexer {
	lexer := lexers.Get("postgresql")
	if lexer == nil {
		lexer = lexers.Get("sql")
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	return chroma.Coalesce(lexer)
}

// sqlTokens splits one line of SQL into lexer tokens. The values of the
// tokens concatenate to the line.
func sqlTokens(line string) []chroma.Token {
	it, err := sqlLexer.Tokenise(nil, line)
	if err != nil {
		return []chroma.Token{{Type: chroma.Text, Value: line}}
	}
	var out []chroma.Token
	for _, tok := range it.Tokens() {
		// the lexer terminates its input with a newline
		tok.Value = strings.ReplaceAll(tok.Value, "\n", "")
		if tok.Value != "" {
			out = append(out, tok)
		}
	}
	return out
}

// SQLPreview shows the SQL generated for the last query
type SQLPreview struct {
	Width     int
	MaxHeight int
	SQL       string
	Visible   bool

	scrollY int
	lines   []string

	Theme theme.Theme
	style lipgloss.Style
}

// NewSQLPreview creates a hidden SQL preview
func NewSQLPreview(th theme.Theme) *SQLPreview {
	return &SQLPreview{
		Width:     80,
		MaxHeight: 8,
		Theme:     th,
		style: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(th.Border).
			Padding(0, 1),
	}
}

// SetSQL replaces the statement shown
func (p *SQLPreview) SetSQL(sql string) {
	if p.SQL == sql {
		return
	}
	p.SQL = sql
	p.scrollY = 0
	p.lines = nil
}

// Toggle shows or hides the preview
func (p *SQLPreview) Toggle() {
	p.Visible = !p.Visible
	p.lines = nil
}

// Height returns the rendered height including borders, 0 when hidden
func (p *SQLPreview) Height() int {
	if !p.Visible {
		return 0
	}
	return p.MaxHeight
}

func (p *SQLPreview) bodyHeight() int {
	// header line inside the frame
	return max(1, p.MaxHeight-p.style.GetVerticalFrameSize()-1)
}

// ScrollUp scrolls content up
func (p *SQLPreview) ScrollUp() {
	if p.scrollY > 0 {
		p.scrollY--
	}
}

// ScrollDown scrolls content down
func (p *SQLPreview) ScrollDown() {
	p.format()
	if p.scrollY < len(p.lines)-p.bodyHeight() {
		p.scrollY++
	}
}

func (p *SQLPreview) format() {
	if p.lines != nil {
		return
	}
	width := max(10, p.Width-p.style.GetHorizontalFrameSize())
	p.lines = wrapText(p.SQL, width)
}

// wrapText wraps text to fit within maxWidth cells
func wrapText(text string, maxWidth int) []string {
	result := []string{}
	for _, line := range strings.Split(text, "\n") {
		if runewidth.StringWidth(line) <= maxWidth {
			result = append(result, line)
			continue
		}

		var current strings.Builder
		currentWidth := 0
		for _, r := range line {
			w := runewidth.RuneWidth(r)
			if currentWidth+w > maxWidth {
				result = append(result, current.String())
				current.Reset()
				currentWidth = 0
			}
			current.WriteRune(r)
			currentWidth += w
		}
		if current.Len() > 0 {
			result = append(result, current.String())
		}
	}
	return result
}

// highlight colors a line of SQL by token type
func (p *SQLPreview) highlight(line string) string {
	var sb strings.Builder
	for _, tok := range sqlTokens(line) {
		if strings.TrimSpace(tok.Value) == "" {
			sb.WriteString(tok.Value)
			continue
		}
		sb.WriteString(p.tokenStyle(tok.Type).Render(tok.Value))
	}
	return sb.String()
}

func (p *SQLPreview) tokenStyle(t chroma.TokenType) lipgloss.Style {
	s := lipgloss.NewStyle()
	switch {
	case t.InCategory(chroma.Keyword):
		return s.Foreground(p.Theme.Label).Bold(true)
	case t == chroma.LiteralStringName, t.InCategory(chroma.Name):
		return s.Foreground(p.Theme.Foreground)
	case t.InSubCategory(chroma.LiteralString):
		return s.Foreground(p.Theme.Value)
	case t.InSubCategory(chroma.LiteralNumber):
		return s.Foreground(p.Theme.Mode)
	case t.InCategory(chroma.Comment):
		return s.Foreground(p.Theme.Muted).Italic(true)
	case t.InCategory(chroma.Operator), t.InCategory(chroma.Punctuation):
		return s.Foreground(p.Theme.Muted)
	}
	return s
}

// View renders the preview
func (p *SQLPreview) View() string {
	if !p.Visible {
		return ""
	}
	p.format()

	contentWidth := p.Width - p.style.GetHorizontalFrameSize()
	header := lipgloss.NewStyle().Foreground(p.Theme.Info).Bold(true).Render("SQL")

	parts := []string{header}
	if p.SQL == "" {
		parts = append(parts, lipgloss.NewStyle().Foreground(p.Theme.Muted).Render("No query has run yet"))
	}
	end := min(p.scrollY+p.bodyHeight(), len(p.lines))
	for i := p.scrollY; i < end; i++ {
		line := p.lines[i]
		if runewidth.StringWidth(line) > contentWidth {
			line = runewidth.Truncate(line, contentWidth, "...")
		}
		parts = append(parts, p.highlight(line))
	}

	inner := max(3, p.MaxHeight-p.style.GetVerticalFrameSize())
	return p.style.
		Width(max(0, contentWidth)).
		Height(inner).
		MaxHeight(p.MaxHeight).
		Render(strings.Join(parts, "\n"))
}
