package filterform

import (
	"slices"

	"github.com/rebeliceyang/ticketq/internal/models"
)

// WidgetKind is the kind of form control a widget renders as
type WidgetKind int

const (
	WidgetText WidgetKind = iota
	WidgetSelect
	WidgetCheckbox
	WidgetRadio
	WidgetLabel
	WidgetHidden
)

func (k WidgetKind) String() string {
	switch k {
	case WidgetText:
		return "text"
	case WidgetSelect:
		return "select"
	case WidgetCheckbox:
		return "checkbox"
	case WidgetRadio:
		return "radio"
	case WidgetLabel:
		return "label"
	case WidgetHidden:
		return "hidden"
	}
	return "unknown"
}

// Option is an entry of a select widget
type Option struct {
	Value    string
	Text     string
	Selected bool
}

// Widget is a single form control of a filter row
type Widget struct {
	Kind      WidgetKind
	Name      string
	ID        string
	Value     string
	Size      int
	Options   []Option
	Checked   bool
	Text      string // label text
	For       string // id of the control a label belongs to
	Autofocus bool
}

// Cell is a table cell holding widgets
type Cell struct {
	Class   string
	ColSpan int
	Widgets []Widget
}

// RowView is a filter row ready to be drawn
type RowView struct {
	Key        models.Key
	Index      int
	RemoveName string
	Header     models.Header
	HeaderID   string
	Mode       *Cell
	Filter     Cell
}

// GroupView holds the rows of one property
type GroupView struct {
	Property string
	Rows     []RowView
}

// ClauseView is a clause ready to be drawn. Separator is set on every clause
// but the first; AddClause only on the last.
type ClauseView struct {
	Num       int
	MenuName  string
	Menu      []MenuOption
	Groups    []GroupView
	Separator bool
	AddClause bool
}

// FormView is the drawable projection of a form
type FormView struct {
	Clauses []ClauseView
	Notice  string
}

const (
	textSize = 42
	timeSize = 14
)

// Layout projects a form onto cells and widgets. The input named by focus,
// if any, is marked for autofocus.
func Layout(cat *models.Catalog, f models.Form, focus Focus) FormView {
	view := FormView{Clauses: make([]ClauseView, 0, len(f.Clauses))}
	for ci, c := range f.Clauses {
		cv := ClauseView{
			Num:       c.Num,
			MenuName:  MenuName(c.Num),
			Menu:      Menu(cat, c),
			Separator: ci > 0,
			AddClause: ci == len(f.Clauses)-1,
		}
		for _, g := range c.Groups {
			prop, ok := cat.Lookup(g.Property)
			if !ok {
				continue
			}
			key := models.Key{Clause: c.Num, Property: g.Property}
			gv := GroupView{Property: g.Property}
			for i, r := range g.Rows {
				rv := layoutRow(cat, prop, g, key, i, r)
				if !focus.IsZero() && focus.Key == key && focus.Row == i {
					markFocus(&rv.Filter)
				}
				gv.Rows = append(gv.Rows, rv)
			}
			cv.Groups = append(cv.Groups, gv)
		}
		view.Clauses = append(view.Clauses, cv)
	}
	return view
}

func layoutRow(cat *models.Catalog, prop models.Property, g models.RowGroup, key models.Key, index int, r models.Row) RowView {
	name := key.String()
	rv := RowView{
		Key:        key,
		Index:      index,
		RemoveName: RemoveName(key, index),
		Header:     r.Header,
		Filter:     Cell{Class: "filter", ColSpan: 1},
	}
	if r.Header.Owner {
		rv.HeaderID = "label_" + name
	}

	switch prop.Type {
	case models.TypeRadio:
		rv.Filter.ColSpan = 2
		rv.Filter.Widgets = append(rv.Filter.Widgets, Widget{Kind: WidgetHidden, Name: name + suffixRow, Value: "1"})
		for _, opt := range prop.Options {
			id := name + "_" + opt
			text := opt
			if text == "" {
				text = "none"
			}
			rv.Filter.Widgets = append(rv.Filter.Widgets,
				Widget{Kind: WidgetCheckbox, Name: name, ID: id, Value: opt, Checked: slices.Contains(r.Values, opt)},
				Widget{Kind: WidgetLabel, Text: text, For: id},
			)
		}
	case models.TypeCheckbox:
		rv.Filter.ColSpan = 2
		rv.Filter.Widgets = []Widget{
			{Kind: WidgetHidden, Name: name + suffixRow, Value: "1"},
			{Kind: WidgetRadio, Name: name, ID: name + "_on", Value: "1", Checked: valueAt(r, 0) == "1"},
			{Kind: WidgetLabel, Text: "yes", For: name + "_on"},
			{Kind: WidgetRadio, Name: name, ID: name + "_off", Value: "0", Checked: valueAt(r, 0) == "0"},
			{Kind: WidgetLabel, Text: "no", For: name + "_off"},
		}
	case models.TypeTime:
		rv.Filter.ColSpan = 2
		rv.Filter.Widgets = []Widget{
			{Kind: WidgetLabel, Text: "between"},
			{Kind: WidgetText, Name: name, Value: valueAt(r, 0), Size: timeSize},
			{Kind: WidgetLabel, Text: "and"},
			{Kind: WidgetText, Name: name + suffixEnd, Value: valueAt(r, 1), Size: timeSize},
		}
	case models.TypeSelect:
		rv.Filter.Widgets = []Widget{selectWidget(name, prop.Options, valueAt(r, 0), true)}
	default:
		rv.Filter.Widgets = []Widget{{Kind: WidgetText, Name: name, Value: valueAt(r, 0), Size: textSize}}
	}

	if prop.Type.HasMode() && r.Header.Owner {
		modes := cat.ModesFor(prop.Type)
		opts := make([]Option, 0, len(modes))
		for _, m := range modes {
			opts = append(opts, Option{Value: m.Value, Text: m.Text, Selected: m.Value == g.Mode})
		}
		rv.Mode = &Cell{
			Class:   "mode",
			ColSpan: 1,
			Widgets: []Widget{{Kind: WidgetSelect, Name: name + suffixMode, Options: opts}},
		}
	}
	return rv
}

func selectWidget(name string, options []string, selected string, optional bool) Widget {
	w := Widget{Kind: WidgetSelect, Name: name}
	if optional {
		w.Options = append(w.Options, Option{Selected: selected == ""})
	}
	for _, o := range options {
		w.Options = append(w.Options, Option{Value: o, Text: o, Selected: o == selected})
	}
	return w
}

// markFocus flags the first text or select input of a cell
func markFocus(c *Cell) {
	for i := range c.Widgets {
		switch c.Widgets[i].Kind {
		case WidgetText, WidgetSelect:
			c.Widgets[i].Autofocus = true
			return
		}
	}
}
