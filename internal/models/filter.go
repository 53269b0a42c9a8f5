package models

import (
	"fmt"
	"regexp"
	"strconv"
)

// PropertyType determines which input widgets a filter row gets
type PropertyType string

const (
	TypeText     PropertyType = "text"
	TypeTextarea PropertyType = "textarea"
	TypeID       PropertyType = "id"
	TypeSelect   PropertyType = "select"
	TypeRadio    PropertyType = "radio"
	TypeCheckbox PropertyType = "checkbox"
	TypeTime     PropertyType = "time"
)

// Valid reports whether t is one of the known property types
func (t PropertyType) Valid() bool {
	switch t {
	case TypeText, TypeTextarea, TypeID, TypeSelect, TypeRadio, TypeCheckbox, TypeTime:
		return true
	}
	return false
}

// Exclusive reports whether a clause may hold at most one row for a
// property of this type. The add-filter option is disabled while that row
// exists.
//
// id is exclusive although it renders as a plain text input; text and
// textarea are not.
func (t PropertyType) Exclusive() bool {
	return t == TypeRadio || t == TypeCheckbox || t == TypeID
}

// HasMode reports whether rows of this type carry a match-mode selector
func (t PropertyType) HasMode() bool {
	switch t {
	case TypeText, TypeTextarea, TypeID, TypeSelect:
		return true
	}
	return false
}

// Inline reports whether the filter cell spans the mode column
func (t PropertyType) Inline() bool {
	return t == TypeRadio || t == TypeCheckbox || t == TypeTime
}

// Property is a filterable ticket field
type Property struct {
	Name    string       `mapstructure:"name" yaml:"name"`
	Label   string       `mapstructure:"label" yaml:"label"`
	Type    PropertyType `mapstructure:"type" yaml:"type"`
	Options []string     `mapstructure:"options" yaml:"options,omitempty"`
}

// Mode is a match operator offered for text-like and select properties
type Mode struct {
	Value string `mapstructure:"value" yaml:"value"`
	Text  string `mapstructure:"text" yaml:"text"`
}

var propertyNameRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Catalog is the ordered set of filterable properties and the modes per type.
// The order of Properties is the order of the add-filter menu.
type Catalog struct {
	Properties []Property
	Modes      map[PropertyType][]Mode

	index map[string]int
}

// NewCatalog validates properties and builds a catalog
func NewCatalog(props []Property, modes map[PropertyType][]Mode) (*Catalog, error) {
	c := &Catalog{
		Properties: props,
		Modes:      modes,
		index:      make(map[string]int, len(props)),
	}
	for i, p := range props {
		if !propertyNameRe.MatchString(p.Name) {
			return nil, fmt.Errorf("invalid property name %q", p.Name)
		}
		if !p.Type.Valid() {
			return nil, fmt.Errorf("property %s: unknown type %q", p.Name, p.Type)
		}
		if _, dup := c.index[p.Name]; dup {
			return nil, fmt.Errorf("duplicate property %q", p.Name)
		}
		if p.Type.HasMode() && len(modes[p.Type]) == 0 {
			return nil, fmt.Errorf("property %s: no modes configured for type %q", p.Name, p.Type)
		}
		c.index[p.Name] = i
	}
	return c, nil
}

// Lookup returns the property with the given name
func (c *Catalog) Lookup(name string) (Property, bool) {
	i, ok := c.index[name]
	if !ok {
		return Property{}, false
	}
	return c.Properties[i], true
}

// Position returns the menu position of a property, or -1
func (c *Catalog) Position(name string) int {
	i, ok := c.index[name]
	if !ok {
		return -1
	}
	return i
}

// ModesFor returns the modes offered for a property type
func (c *Catalog) ModesFor(t PropertyType) []Mode {
	if !t.HasMode() {
		return nil
	}
	return c.Modes[t]
}

// Key identifies a property within a clause. Its string form
// "{clause}_{property}" is the field name used in form markup.
type Key struct {
	Clause   int
	Property string
}

func (k Key) String() string {
	return strconv.Itoa(k.Clause) + "_" + k.Property
}

var keyRe = regexp.MustCompile(`^(\d+)_(.+)$`)

// ParseKey parses the "{clause}_{property}" form
func ParseKey(s string) (Key, error) {
	m := keyRe.FindStringSubmatch(s)
	if m == nil {
		return Key{}, fmt.Errorf("malformed filter key %q", s)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return Key{}, fmt.Errorf("malformed filter key %q: %w", s, err)
	}
	return Key{Clause: n, Property: m[2]}, nil
}

// Header is the row-header cell of a filter row. The first row of a group
// owns the property label; later rows show "or".
type Header struct {
	Text    string
	Owner   bool
	ColSpan int
}

// Row is one condition inside a row group.
//
// Values holds the submitted input values: one value for text-like and
// select rows, the checked options for radio rows, "1"/"0" for checkbox rows
// and a start/end pair for time rows.
type Row struct {
	Header Header
	Values []string
}

// RowGroup holds all rows for one property in one clause. Rows within a
// group are alternatives.
type RowGroup struct {
	Property string
	Mode     string
	Rows     []Row
}

// Clause is an OR-group of filter conditions. Its row groups are AND'ed.
type Clause struct {
	Num    int
	Groups []RowGroup
}

// Group returns the index of the group for a property, or -1
func (c Clause) Group(property string) int {
	for i, g := range c.Groups {
		if g.Property == property {
			return i
		}
	}
	return -1
}

// Form is the complete query filter form
type Form struct {
	Clauses []Clause

	// Result ordering and paging carried alongside the filters
	Order string
	Desc  bool
	Max   int
}

// NewForm returns a form with a single empty clause
func NewForm() Form {
	return Form{Clauses: []Clause{{Num: 0}}}
}

// Clause returns the index of the clause numbered num, or -1
func (f Form) Clause(num int) int {
	for i, c := range f.Clauses {
		if c.Num == num {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the form
func (f Form) Clone() Form {
	out := f
	out.Clauses = make([]Clause, len(f.Clauses))
	for i, c := range f.Clauses {
		nc := Clause{Num: c.Num, Groups: make([]RowGroup, len(c.Groups))}
		for j, g := range c.Groups {
			ng := RowGroup{Property: g.Property, Mode: g.Mode, Rows: make([]Row, len(g.Rows))}
			for k, r := range g.Rows {
				ng.Rows[k] = Row{
					Header: r.Header,
					Values: append([]string(nil), r.Values...),
				}
			}
			nc.Groups[j] = ng
		}
		out.Clauses[i] = nc
	}
	return out
}
