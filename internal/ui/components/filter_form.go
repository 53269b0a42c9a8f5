package components

import (
	"fmt"
	"slices"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/ticketq/internal/filterform"
	"github.com/rebeliceyang/ticketq/internal/models"
	"github.com/rebeliceyang/ticketq/internal/ui/theme"
)

// RunQueryMsg is sent when the form should be executed
type RunQueryMsg struct {
	Form models.Form
}

// clipboardWrite is replaced in tests
var clipboardWrite = clipboard.WriteAll

type itemKind int

const (
	itemRow itemKind = iota
	itemMenu
	itemAddClause
)

// formItem is a line of the form the cursor can rest on
type formItem struct {
	kind   itemKind
	clause int
	key    models.Key
	row    int
}

type editState int

const (
	editNone editState = iota
	editText
	editPick
)

// FilterForm is the terminal rendition of the query filter form
type FilterForm struct {
	Width  int
	Height int
	Theme  theme.Theme

	ctl *filterform.Controller

	cursor  int
	option  int // option cursor on radio rows
	edit    editState
	input   textinput.Model
	timeEnd bool // editing the end bound of a time row
	pick    int  // cursor in the add-filter menu

	status  string
	isError bool
}

// NewFilterForm creates a filter form driven by ctl
func NewFilterForm(th theme.Theme, ctl *filterform.Controller) *FilterForm {
	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 30

	return &FilterForm{
		Width:  80,
		Height: 20,
		Theme:  th,
		ctl:    ctl,
		input:  ti,
	}
}

// Editing reports whether keys go to an input or the add-filter menu
func (ff *FilterForm) Editing() bool {
	return ff.edit != editNone
}

// Form returns the current form
func (ff *FilterForm) Form() models.Form {
	return ff.ctl.Form()
}

// QueryString returns the canonical query string of the form
func (ff *FilterForm) QueryString() string {
	return ff.ctl.QueryString()
}

// Status returns the last status or notice message
func (ff *FilterForm) Status() string {
	return ff.status
}

func (ff *FilterForm) items() []formItem {
	form := ff.ctl.Form()
	var items []formItem
	for ci, c := range form.Clauses {
		for _, g := range c.Groups {
			key := models.Key{Clause: c.Num, Property: g.Property}
			for i := range g.Rows {
				items = append(items, formItem{kind: itemRow, clause: c.Num, key: key, row: i})
			}
		}
		items = append(items, formItem{kind: itemMenu, clause: c.Num})
		if ci == len(form.Clauses)-1 {
			items = append(items, formItem{kind: itemAddClause, clause: c.Num})
		}
	}
	return items
}

func (ff *FilterForm) current() formItem {
	items := ff.items()
	ff.cursor = max(0, min(ff.cursor, len(items)-1))
	return items[ff.cursor]
}

func (ff *FilterForm) moveTo(match func(formItem) bool) {
	for i, it := range ff.items() {
		if match(it) {
			ff.cursor = i
			return
		}
	}
}

func (ff *FilterForm) setStatus(msg string, isError bool) {
	ff.status = msg
	ff.isError = isError
}

// Update handles keyboard input
func (ff *FilterForm) Update(msg tea.KeyMsg) (*FilterForm, tea.Cmd) {
	switch ff.edit {
	case editText:
		return ff.updateText(msg)
	case editPick:
		return ff.updatePick(msg)
	}
	return ff.updateNav(msg)
}

// Mouse handles clicks on form lines and menu options, and the wheel
func (ff *FilterForm) Mouse(msg tea.MouseMsg) (*FilterForm, tea.Cmd) {
	if d := wheel(msg); d != 0 {
		switch ff.edit {
		case editPick:
			if n := len(ff.ctl.Catalog().Properties); n > 0 {
				ff.pick = (ff.pick + d + n) % n
			}
		case editNone:
			ff.cursor += d
			ff.option = 0
			ff.current()
		}
		return ff, nil
	}
	if !isLeftClick(msg) {
		return ff, nil
	}

	if ff.edit == editPick {
		for i := range ff.ctl.Catalog().Properties {
			if InZone(pickZone(i), msg) {
				return ff.ClickOption(i)
			}
		}
	}
	for i := range ff.items() {
		if InZone(formItemZone(i), msg) {
			return ff.Click(i)
		}
	}
	return ff, nil
}

// Click activates the i-th line of the form. The first click on a row
// selects it; a click on the selected row acts like enter. Any open input or
// menu is closed first, keeping its old value.
func (ff *FilterForm) Click(i int) (*FilterForm, tea.Cmd) {
	items := ff.items()
	if i < 0 || i >= len(items) {
		return ff, nil
	}
	if ff.edit == editText {
		ff.stopText()
	}
	ff.edit = editNone

	again := ff.cursor == i
	ff.cursor = i
	if !again {
		ff.option = 0
	}

	it := items[i]
	switch it.kind {
	case itemMenu:
		ff.openPicker()
	case itemAddClause:
		ff.addClause()
	case itemRow:
		if again {
			ff.updateRow(it, "enter")
		}
	}
	return ff, nil
}

// ClickOption adds the i-th property of the open add-filter menu
func (ff *FilterForm) ClickOption(i int) (*FilterForm, tea.Cmd) {
	if ff.edit != editPick || i < 0 || i >= len(ff.ctl.Catalog().Properties) {
		return ff, nil
	}
	ff.pick = i
	return ff.updatePick(tea.KeyMsg{Type: tea.KeyEnter})
}

func (ff *FilterForm) updateNav(msg tea.KeyMsg) (*FilterForm, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		ff.cursor--
		ff.option = 0
		ff.current()
		return ff, nil
	case "down", "j":
		ff.cursor++
		ff.option = 0
		ff.current()
		return ff, nil
	case "r", "f5", "ctrl+r":
		form := ff.ctl.Form()
		return ff, func() tea.Msg { return RunQueryMsg{Form: form} }
	case "y":
		if err := clipboardWrite(ff.ctl.QueryString()); err != nil {
			ff.setStatus("Copy failed: "+err.Error(), true)
		} else {
			ff.setStatus("Copied query string", false)
		}
		return ff, nil
	case "a":
		ff.openPicker()
		return ff, nil
	case "o":
		ff.addClause()
		return ff, nil
	}

	it := ff.current()
	switch it.kind {
	case itemMenu:
		if msg.String() == "enter" {
			ff.openPicker()
		}
	case itemAddClause:
		if msg.String() == "enter" {
			ff.addClause()
		}
	case itemRow:
		ff.updateRow(it, msg.String())
	}
	return ff, nil
}

func (ff *FilterForm) updateRow(it formItem, key string) {
	cat := ff.ctl.Catalog()
	prop, ok := cat.Lookup(it.key.Property)
	if !ok {
		return
	}
	values := ff.rowValues(it)

	switch key {
	case "d", "x", "delete":
		if err := ff.ctl.Apply(filterform.Action{Kind: filterform.ActionRemoveRow, Key: it.key, Row: it.row}); err != nil {
			ff.setStatus(err.Error(), true)
		}
		ff.current()
		return
	case "m":
		ff.cycleMode(prop, it.key)
		return
	}

	switch prop.Type {
	case models.TypeText, models.TypeTextarea, models.TypeID, models.TypeTime:
		if key == "enter" || key == "e" {
			ff.startText(it, prop, false)
		}
	case models.TypeSelect:
		opts := append([]string{""}, prop.Options...)
		if d := direction(key); d != 0 {
			i := slices.Index(opts, firstOf(values))
			i = (i + d + len(opts)) % len(opts)
			ff.setValues(it, []string{opts[i]})
		}
	case models.TypeRadio:
		if len(prop.Options) == 0 {
			return
		}
		if d := direction(key); d != 0 {
			ff.option = (ff.option + d + len(prop.Options)) % len(prop.Options)
		}
		if key == " " || key == "enter" {
			opt := prop.Options[ff.option]
			if i := slices.Index(values, opt); i >= 0 {
				values = slices.Delete(slices.Clone(values), i, i+1)
			} else {
				values = append(slices.Clone(values), opt)
			}
			ff.setValues(it, values)
		}
	case models.TypeCheckbox:
		if key == " " || key == "enter" || direction(key) != 0 {
			next := map[string][]string{"": {"1"}, "1": {"0"}, "0": {}}
			ff.setValues(it, next[firstOf(values)])
		}
	}
}

func direction(key string) int {
	switch key {
	case "left", "h":
		return -1
	case "right", "l":
		return 1
	}
	return 0
}

func firstOf(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func (ff *FilterForm) rowValues(it formItem) []string {
	form := ff.ctl.Form()
	ci := form.Clause(it.key.Clause)
	if ci < 0 {
		return nil
	}
	gi := form.Clauses[ci].Group(it.key.Property)
	if gi < 0 || it.row >= len(form.Clauses[ci].Groups[gi].Rows) {
		return nil
	}
	return form.Clauses[ci].Groups[gi].Rows[it.row].Values
}

func (ff *FilterForm) groupMode(key models.Key) string {
	form := ff.ctl.Form()
	ci := form.Clause(key.Clause)
	if ci < 0 {
		return ""
	}
	gi := form.Clauses[ci].Group(key.Property)
	if gi < 0 {
		return ""
	}
	return form.Clauses[ci].Groups[gi].Mode
}

func (ff *FilterForm) setValues(it formItem, values []string) {
	if err := ff.ctl.SetValues(it.key, it.row, values); err != nil {
		ff.setStatus(err.Error(), true)
	}
}

func (ff *FilterForm) cycleMode(prop models.Property, key models.Key) {
	modes := ff.ctl.Catalog().ModesFor(prop.Type)
	if len(modes) == 0 {
		return
	}
	cur := ff.groupMode(key)
	i := slices.IndexFunc(modes, func(m models.Mode) bool { return m.Value == cur })
	next := modes[(i+1)%len(modes)]
	if err := ff.ctl.SetMode(key, next.Value); err != nil {
		ff.setStatus(err.Error(), true)
	}
}

func (ff *FilterForm) addClause() {
	if err := ff.ctl.Apply(filterform.Action{Kind: filterform.ActionAddClause}); err != nil {
		ff.setStatus(err.Error(), true)
		return
	}
	form := ff.ctl.Form()
	last := form.Clauses[len(form.Clauses)-1].Num
	ff.moveTo(func(it formItem) bool { return it.kind == itemMenu && it.clause == last })
}

func (ff *FilterForm) openPicker() {
	ff.edit = editPick
	ff.pick = 0
	ff.status = ""
}

func (ff *FilterForm) updatePick(msg tea.KeyMsg) (*FilterForm, tea.Cmd) {
	clause := ff.current().clause
	n := len(ff.ctl.Catalog().Properties)
	if n == 0 {
		ff.edit = editNone
		return ff, nil
	}

	switch msg.String() {
	case "esc":
		ff.edit = editNone
	case "up", "k":
		ff.pick = (ff.pick - 1 + n) % n
	case "down", "j":
		ff.pick = (ff.pick + 1) % n
	case "enter":
		ff.edit = editNone
		prop := ff.ctl.Catalog().Properties[ff.pick]
		ff.addRow(clause, prop)
	}
	return ff, nil
}

func (ff *FilterForm) addRow(clause int, prop models.Property) {
	key := models.Key{Clause: clause, Property: prop.Name}
	if err := ff.ctl.Apply(filterform.Action{Kind: filterform.ActionAddRow, Key: key}); err != nil {
		ff.setStatus(err.Error(), true)
		return
	}
	if notice := ff.ctl.Notice(); notice != "" {
		ff.setStatus(notice, true)
		return
	}

	focus := ff.ctl.Focus()
	if focus.IsZero() {
		// no text input to focus: rest on the group's last row
		var last int
		for _, it := range ff.items() {
			if it.kind == itemRow && it.key == key {
				last = it.row
			}
		}
		focus = filterform.Focus{Key: key, Row: last}
	}
	ff.moveTo(func(it formItem) bool { return it.kind == itemRow && it.key == focus.Key && it.row == focus.Row })
	ff.option = 0

	if !ff.ctl.Focus().IsZero() && prop.Type != models.TypeSelect {
		ff.startText(ff.current(), prop, false)
	}
}

func (ff *FilterForm) startText(it formItem, prop models.Property, end bool) {
	values := ff.rowValues(it)
	i := 0
	if end {
		i = 1
	}
	v := ""
	if i < len(values) {
		v = values[i]
	}
	ff.edit = editText
	ff.timeEnd = end
	ff.input.SetValue(v)
	ff.input.CursorEnd()
	ff.input.Placeholder = prop.Label
	ff.input.Focus()
}

func (ff *FilterForm) updateText(msg tea.KeyMsg) (*FilterForm, tea.Cmd) {
	it := ff.current()
	prop, _ := ff.ctl.Catalog().Lookup(it.key.Property)

	switch msg.String() {
	case "esc":
		ff.stopText()
		return ff, nil
	case "enter", "tab":
		values := slices.Clone(ff.rowValues(it))
		if prop.Type == models.TypeTime {
			for len(values) < 2 {
				values = append(values, "")
			}
			if ff.timeEnd {
				values[1] = ff.input.Value()
			} else {
				values[0] = ff.input.Value()
			}
		} else {
			values = []string{ff.input.Value()}
		}
		ff.setValues(it, values)

		if prop.Type == models.TypeTime && !ff.timeEnd {
			ff.startText(it, prop, true)
			return ff, nil
		}
		ff.stopText()
		return ff, nil
	}

	var cmd tea.Cmd
	ff.input, cmd = ff.input.Update(msg)
	return ff, cmd
}

func (ff *FilterForm) stopText() {
	ff.edit = editNone
	ff.timeEnd = false
	ff.input.Blur()
}

// View renders the filter form
func (ff *FilterForm) View() string {
	var lines []string

	titleStyle := lipgloss.NewStyle().
		Foreground(ff.Theme.Foreground).
		Background(ff.Theme.Info).
		Padding(0, 1).
		Bold(true)
	lines = append(lines, titleStyle.Render("Filters"), "")

	labelStyle := lipgloss.NewStyle().Width(14).Foreground(ff.Theme.Label)
	modeStyle := lipgloss.NewStyle().Width(16).Foreground(ff.Theme.Mode)
	selected := lipgloss.NewStyle().Background(ff.Theme.Selection).Foreground(ff.Theme.Foreground)
	faint := lipgloss.NewStyle().Foreground(ff.Theme.Muted)

	cur := ff.current()
	view := filterform.Layout(ff.ctl.Catalog(), ff.ctl.Form(), filterform.Focus{})
	idx := 0
	for _, cv := range view.Clauses {
		if cv.Separator {
			lines = append(lines, faint.Render("── or ──"))
		}
		for _, gv := range cv.Groups {
			for _, rv := range gv.Rows {
				active := idx == ff.cursor
				line := labelStyle.Render(rv.Header.Text)
				switch {
				case rv.Mode != nil:
					line += modeStyle.Render(selectedText(rv.Mode.Widgets[0]))
				case rv.Filter.ColSpan == 1:
					line += modeStyle.Render("")
				}
				line += ff.renderFilter(rv, active)
				if active {
					line = selected.Render(line)
				}
				lines = append(lines, MarkZone(formItemZone(idx), line))
				idx++
			}
		}

		menu := "And: add filter…"
		if ff.edit == editPick && cur.kind == itemMenu && cur.clause == cv.Num {
			menu = "And: choose a property"
		}
		if idx == ff.cursor {
			menu = selected.Render(menu)
		} else {
			menu = faint.Render(menu)
		}
		lines = append(lines, MarkZone(formItemZone(idx), menu))
		idx++

		if ff.edit == editPick && cur.clause == cv.Num {
			lines = append(lines, ff.renderPicker(cv.Menu)...)
		}

		if cv.AddClause {
			add := "[+ Or]"
			if idx == ff.cursor {
				add = selected.Render(add)
			} else {
				add = faint.Render(add)
			}
			lines = append(lines, MarkZone(formItemZone(idx), add))
			idx++
		}
	}

	if ff.status != "" {
		color := ff.Theme.Success
		if ff.isError {
			color = ff.Theme.Warning
		}
		lines = append(lines, "", lipgloss.NewStyle().Foreground(color).Render(ff.status))
	}

	return strings.Join(lines, "\n")
}

func (ff *FilterForm) renderPicker(menu []filterform.MenuOption) []string {
	var lines []string
	for i, opt := range menu {
		text := "  " + opt.Label
		style := lipgloss.NewStyle()
		if opt.Disabled {
			style = style.Foreground(ff.Theme.Disabled).Strikethrough(true)
		}
		if i == ff.pick {
			text = "› " + opt.Label
			style = style.Background(ff.Theme.Selection).Bold(true)
		}
		lines = append(lines, MarkZone(pickZone(i), style.Render(text)))
	}
	return lines
}

func (ff *FilterForm) renderFilter(rv filterform.RowView, active bool) string {
	var parts []string
	texts := 0
	options := 0
	for i, w := range rv.Filter.Widgets {
		switch w.Kind {
		case filterform.WidgetText:
			editing := active && ff.edit == editText && (texts == 1) == ff.timeEnd
			if editing {
				parts = append(parts, ff.input.View())
			} else {
				parts = append(parts, "["+w.Value+"]")
			}
			texts++
		case filterform.WidgetSelect:
			parts = append(parts, "‹"+selectedText(w)+"›")
		case filterform.WidgetCheckbox, filterform.WidgetRadio:
			box := "[ ]"
			if w.Checked {
				box = "[x]"
			}
			if w.Kind == filterform.WidgetRadio {
				box = "( )"
				if w.Checked {
					box = "(•)"
				}
			}
			label := ""
			if i+1 < len(rv.Filter.Widgets) && rv.Filter.Widgets[i+1].Kind == filterform.WidgetLabel {
				label = rv.Filter.Widgets[i+1].Text
			}
			item := box + " " + label
			if active && w.Kind == filterform.WidgetCheckbox && options == ff.option {
				item = lipgloss.NewStyle().Underline(true).Render(item)
			}
			parts = append(parts, item)
			options++
		case filterform.WidgetLabel:
			if w.For == "" {
				parts = append(parts, w.Text)
			}
		}
	}
	return strings.Join(parts, " ")
}

func selectedText(w filterform.Widget) string {
	for _, o := range w.Options {
		if o.Selected {
			if o.Text == "" {
				return "any"
			}
			return o.Text
		}
	}
	return "any"
}

// String summarizes the form for status bars
func (ff *FilterForm) String() string {
	form := ff.ctl.Form()
	rows := 0
	for _, c := range form.Clauses {
		for _, g := range c.Groups {
			rows += len(g.Rows)
		}
	}
	return fmt.Sprintf("%d clause(s), %d filter(s)", len(form.Clauses), rows)
}
