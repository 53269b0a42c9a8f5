package components

import (
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/ticketq/internal/models"
	"github.com/rebeliceyang/ticketq/internal/ui/theme"
)

// TableView displays ticket query results with virtual scrolling
type TableView struct {
	Columns []string
	Rows    [][]string
	Width   int
	Height  int
	Theme   theme.Theme

	// Virtual scrolling state
	TopRow      int
	VisibleRows int
	SelectedRow int

	// Column widths (calculated)
	ColumnWidths []int

	statusCol int
}

// NewTableView creates a new table view
func NewTableView(th theme.Theme) *TableView {
	return &TableView{
		Theme:     th,
		statusCol: -1,
	}
}

// SetResult replaces the table contents with a query result
func (tv *TableView) SetResult(res *models.QueryResult) {
	if res == nil {
		tv.SetData(nil, nil)
		return
	}
	tv.SetData(res.Columns, res.Rows)
}

// SetData sets the table data and resets the selection
func (tv *TableView) SetData(columns []string, rows [][]string) {
	tv.Columns = columns
	tv.Rows = rows
	tv.TopRow = 0
	tv.SelectedRow = 0
	tv.statusCol = slices.Index(columns, "status")
	tv.calculateColumnWidths()
}

// SelectedRowValues returns the selected row, or nil when the table is empty
func (tv *TableView) SelectedRowValues() []string {
	if tv.SelectedRow < 0 || tv.SelectedRow >= len(tv.Rows) {
		return nil
	}
	return tv.Rows[tv.SelectedRow]
}

// calculateColumnWidths calculates optimal column widths
func (tv *TableView) calculateColumnWidths() {
	tv.ColumnWidths = make([]int, len(tv.Columns))

	for i, col := range tv.Columns {
		tv.ColumnWidths[i] = lipgloss.Width(col)
	}
	for _, row := range tv.Rows {
		for i, cell := range row {
			if i < len(tv.ColumnWidths) {
				tv.ColumnWidths[i] = max(tv.ColumnWidths[i], lipgloss.Width(cell))
			}
		}
	}

	for i := range tv.ColumnWidths {
		tv.ColumnWidths[i] = min(tv.ColumnWidths[i], 40)
		tv.ColumnWidths[i] = max(tv.ColumnWidths[i], 4)
	}
}

// View renders the table
func (tv *TableView) View() string {
	style := lipgloss.NewStyle().Width(tv.Width).Height(tv.Height)
	if len(tv.Columns) == 0 {
		return style.Foreground(tv.Theme.Muted).Render("No results. Press r in the filter panel to run the query.")
	}

	var b strings.Builder
	b.WriteString(tv.renderHeader())
	b.WriteString("\n")
	b.WriteString(tv.renderSeparator())
	b.WriteString("\n")

	// Header + separator + status
	tv.VisibleRows = max(1, tv.Height-3)

	endRow := min(tv.TopRow+tv.VisibleRows, len(tv.Rows))
	for i := tv.TopRow; i < endRow; i++ {
		b.WriteString(MarkZone(tableRowZone(i), tv.renderRow(i, tv.Rows[i], i == tv.SelectedRow)))
		b.WriteString("\n")
	}

	b.WriteString(tv.renderStatus())
	return style.Render(b.String())
}

func (tv *TableView) renderHeader() string {
	parts := make([]string, len(tv.Columns))
	for i, col := range tv.Columns {
		parts[i] = pad(col, tv.ColumnWidths[i])
	}
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(tv.Theme.TableHeader).
		Render(" " + strings.Join(parts, " │ ") + " ")
}

func (tv *TableView) renderSeparator() string {
	parts := make([]string, len(tv.ColumnWidths))
	for i, width := range tv.ColumnWidths {
		parts[i] = strings.Repeat("─", width)
	}
	return lipgloss.NewStyle().
		Foreground(tv.Theme.Border).
		Render("─" + strings.Join(parts, "─┼─") + "─")
}

func (tv *TableView) renderRow(index int, row []string, selected bool) string {
	var parts []string
	for i, cell := range row {
		if i >= len(tv.ColumnWidths) {
			break
		}
		text := pad(cell, tv.ColumnWidths[i])
		if i == tv.statusCol && !selected {
			color := tv.Theme.StatusOpen
			if cell == "closed" {
				color = tv.Theme.StatusClosed
			}
			text = lipgloss.NewStyle().Foreground(color).Render(text)
		}
		parts = append(parts, text)
	}

	line := " " + strings.Join(parts, " │ ") + " "
	switch {
	case selected:
		return lipgloss.NewStyle().
			Background(tv.Theme.TableRowSelected).
			Foreground(tv.Theme.Foreground).
			Bold(true).
			Render(line)
	case index%2 == 1:
		return lipgloss.NewStyle().Background(tv.Theme.TableRowOdd).Render(line)
	}
	return line
}

func (tv *TableView) renderStatus() string {
	if len(tv.Rows) == 0 {
		return lipgloss.NewStyle().Foreground(tv.Theme.Muted).Italic(true).Render(" No tickets match")
	}
	endRow := min(tv.TopRow+tv.VisibleRows, len(tv.Rows))
	showing := fmt.Sprintf(" %d-%d of %d tickets", tv.TopRow+1, endRow, len(tv.Rows))
	return lipgloss.NewStyle().
		Foreground(tv.Theme.Muted).
		Italic(true).
		Render(showing)
}

func pad(s string, width int) string {
	w := lipgloss.Width(s)
	if w > width {
		r := []rune(s)
		if len(r) > width && width > 1 {
			return string(r[:width-1]) + "…"
		}
		return s
	}
	return s + strings.Repeat(" ", width-w)
}

// MoveSelection moves the selection up or down
func (tv *TableView) MoveSelection(delta int) {
	if len(tv.Rows) == 0 {
		return
	}
	tv.SelectedRow = max(0, min(tv.SelectedRow+delta, len(tv.Rows)-1))

	// Adjust visible window if needed
	if tv.SelectedRow < tv.TopRow {
		tv.TopRow = tv.SelectedRow
	}
	if tv.VisibleRows > 0 && tv.SelectedRow >= tv.TopRow+tv.VisibleRows {
		tv.TopRow = tv.SelectedRow - tv.VisibleRows + 1
	}
}

// Mouse selects a clicked row and scrolls on the wheel
func (tv *TableView) Mouse(msg tea.MouseMsg) {
	if d := wheel(msg); d != 0 {
		tv.MoveSelection(d)
		return
	}
	if !isLeftClick(msg) {
		return
	}
	end := min(tv.TopRow+tv.VisibleRows, len(tv.Rows))
	for i := tv.TopRow; i < end; i++ {
		if InZone(tableRowZone(i), msg) {
			tv.MoveSelection(i - tv.SelectedRow)
			return
		}
	}
}

// PageUp moves the selection one page up
func (tv *TableView) PageUp() {
	tv.MoveSelection(-max(1, tv.VisibleRows))
}

// PageDown moves the selection one page down
func (tv *TableView) PageDown() {
	tv.MoveSelection(max(1, tv.VisibleRows))
}
