// Package filterform implements the query filter form: clauses of filter
// rows over typed ticket properties, the operations that add and remove
// them, and the projection of a form onto input widgets.
//
// All operations are pure. They take a models.Form and return a new one,
// leaving the input untouched.
package filterform

import (
	"fmt"
	"slices"

	"github.com/rebeliceyang/ticketq/internal/models"
)

const orLabel = "or"

// Focus names the input that should receive focus after a row was added
type Focus struct {
	Key models.Key
	Row int
}

// IsZero reports whether no input should be focused
func (f Focus) IsZero() bool {
	return f.Key.Property == ""
}

// AddRow adds a filter row for the named property to clause clauseNum.
//
// The row joins the property's existing group when there is one. Otherwise a
// new group is inserted so that groups keep the order of the add-filter menu.
// Adding a second row for an exclusive property fails with ErrFilterExists and
// leaves the form unchanged.
func AddRow(cat *models.Catalog, f models.Form, clauseNum int, name string) (models.Form, Focus, error) {
	prop, ok := cat.Lookup(name)
	if !ok {
		return f, Focus{}, fmt.Errorf("%w: %q", ErrUnknownProperty, name)
	}
	ci := f.Clause(clauseNum)
	if ci < 0 {
		return f, Focus{}, fmt.Errorf("%w: %d", ErrUnknownClause, clauseNum)
	}
	if optionDisabled(prop, f.Clauses[ci]) {
		return f, Focus{}, ErrFilterExists
	}

	out := f.Clone()
	c := &out.Clauses[ci]
	gi := c.Group(name)
	if gi < 0 {
		gi = insertionPoint(cat, *c, name)
		c.Groups = slices.Insert(c.Groups, gi, models.RowGroup{
			Property: name,
			Mode:     defaultMode(cat, prop),
		})
	}
	g := &c.Groups[gi]
	g.Rows = append(g.Rows, newRow(prop, len(g.Rows) == 0))

	var focus Focus
	if takesFocus(prop.Type) {
		focus = Focus{
			Key: models.Key{Clause: clauseNum, Property: name},
			Row: len(g.Rows) - 1,
		}
	}
	return out, focus, nil
}

// RemoveRow removes row index of the group identified by key.
//
// When the removed row owns the property label and another row of the group
// follows, the label moves to that row. An emptied group is dropped, and an
// emptied clause is dropped too unless it is the only clause of the form.
func RemoveRow(f models.Form, key models.Key, index int) (models.Form, error) {
	ci, gi, err := locate(f, key, index)
	if err != nil {
		return f, err
	}

	out := f.Clone()
	c := &out.Clauses[ci]
	g := &c.Groups[gi]

	removed := g.Rows[index]
	if removed.Header.Owner && index+1 < len(g.Rows) {
		transferLabel(&g.Rows[index+1], removed.Header)
	}
	g.Rows = slices.Delete(g.Rows, index, index+1)

	if len(g.Rows) > 0 {
		return out, nil
	}
	c.Groups = slices.Delete(c.Groups, gi, gi+1)
	if len(c.Groups) == 0 && len(out.Clauses) > 1 {
		out.Clauses = slices.Delete(out.Clauses, ci, ci+1)
	}
	return out, nil
}

// AddClause appends an empty clause numbered one past the highest clause
// number in the form.
func AddClause(f models.Form) models.Form {
	out := f.Clone()
	num := 0
	for _, c := range out.Clauses {
		if c.Num >= num {
			num = c.Num + 1
		}
	}
	out.Clauses = append(out.Clauses, models.Clause{Num: num})
	return out
}

// insertionPoint returns the group index before which a new group for name
// goes: the first existing group whose property comes later in the menu.
func insertionPoint(cat *models.Catalog, c models.Clause, name string) int {
	for _, p := range cat.Properties[cat.Position(name)+1:] {
		if gi := c.Group(p.Name); gi >= 0 {
			return gi
		}
	}
	return len(c.Groups)
}

func newRow(prop models.Property, first bool) models.Row {
	row := models.Row{}
	if first {
		row.Header = models.Header{Text: prop.Label, Owner: true, ColSpan: 1}
	} else {
		// "or" also covers the mode column, which only the label row shows
		span := 2
		if prop.Type.Inline() {
			span = 1
		}
		row.Header = models.Header{Text: orLabel, ColSpan: span}
	}

	switch prop.Type {
	case models.TypeTime:
		row.Values = []string{"", ""}
	case models.TypeRadio, models.TypeCheckbox:
		row.Values = []string{}
	default:
		row.Values = []string{""}
	}
	return row
}

// transferLabel hands the label cell to the row following its owner. The
// label has colspan 1 whatever the follower had: a time-like "or" is simply
// replaced, a wide "or" gives the mode column back to the mode selector,
// which is drawn on the label row.
func transferLabel(next *models.Row, label models.Header) {
	next.Header = label
	next.Header.ColSpan = 1
}

func defaultMode(cat *models.Catalog, prop models.Property) string {
	modes := cat.ModesFor(prop.Type)
	if len(modes) == 0 {
		return ""
	}
	return modes[0].Value
}

func takesFocus(t models.PropertyType) bool {
	return t != models.TypeRadio && t != models.TypeCheckbox
}
