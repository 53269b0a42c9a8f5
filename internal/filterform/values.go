package filterform

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/rebeliceyang/ticketq/internal/models"
)

// Field name suffixes used next to the "{clause}_{property}" value fields
const (
	suffixMode = "_mode"
	suffixEnd  = "_end"
	suffixRow  = "_row"
)

// ParseValues rebuilds a form from submitted form values or a query string.
//
// Clauses are discovered from add-filter menus and filter fields; groups are
// built in catalog order. A form without any clause gets clause 0.
func ParseValues(cat *models.Catalog, v url.Values) (models.Form, error) {
	f := models.Form{Order: v.Get("order"), Desc: v.Get("desc") == "1"}
	if s := v.Get("max"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return f, fmt.Errorf("invalid max %q", s)
		}
		f.Max = n
	}
	if f.Order != "" {
		if _, ok := cat.Lookup(f.Order); !ok {
			return f, fmt.Errorf("invalid order: %w: %q", ErrUnknownProperty, f.Order)
		}
	}

	nums := clauseNums(cat, v)
	if len(nums) == 0 {
		nums = []int{0}
	}
	for _, num := range nums {
		c := models.Clause{Num: num}
		for _, p := range cat.Properties {
			key := models.Key{Clause: num, Property: p.Name}.String()
			if g, ok := parseGroup(cat, p, key, v); ok {
				c.Groups = append(c.Groups, g)
			}
		}
		f.Clauses = append(f.Clauses, c)
	}
	return f, nil
}

// Encode is the inverse of ParseValues
func Encode(cat *models.Catalog, f models.Form) url.Values {
	v := url.Values{}
	for _, c := range f.Clauses {
		if len(c.Groups) == 0 {
			v.Set(MenuName(c.Num), "")
			continue
		}
		for _, g := range c.Groups {
			prop, ok := cat.Lookup(g.Property)
			if !ok {
				continue
			}
			key := models.Key{Clause: c.Num, Property: g.Property}.String()
			switch prop.Type {
			case models.TypeTime:
				for _, r := range g.Rows {
					v.Add(key, valueAt(r, 0))
					v.Add(key+suffixEnd, valueAt(r, 1))
				}
			case models.TypeRadio, models.TypeCheckbox:
				v.Set(key+suffixRow, "1")
				for _, val := range g.Rows[0].Values {
					v.Add(key, val)
				}
			default:
				v.Set(key+suffixMode, g.Mode)
				for _, r := range g.Rows {
					v.Add(key, valueAt(r, 0))
				}
			}
		}
	}
	if f.Order != "" {
		v.Set("order", f.Order)
	}
	if f.Desc {
		v.Set("desc", "1")
	}
	if f.Max > 0 {
		v.Set("max", strconv.Itoa(f.Max))
	}
	return v
}

// QueryString returns the canonical query string of a form
func QueryString(cat *models.Catalog, f models.Form) string {
	return Encode(cat, f).Encode()
}

func clauseNums(cat *models.Catalog, v url.Values) []int {
	var nums []int
	add := func(n int) {
		if !slices.Contains(nums, n) {
			nums = append(nums, n)
		}
	}
	for name := range v {
		if s, ok := strings.CutPrefix(name, "add_filter_"); ok {
			if n, err := strconv.Atoi(s); err == nil && n >= 0 {
				add(n)
			}
			continue
		}
		key, err := ParseFieldKey(cat, name)
		if err == nil {
			add(key.Clause)
		}
	}
	slices.Sort(nums)
	return nums
}

// ParseFieldKey maps a field name, with or without a mode/end/row suffix, to
// the key of its property.
func ParseFieldKey(cat *models.Catalog, name string) (models.Key, error) {
	key, err := models.ParseKey(name)
	if err != nil {
		return key, err
	}
	if _, ok := cat.Lookup(key.Property); ok {
		return key, nil
	}
	for _, suffix := range []string{suffixMode, suffixEnd, suffixRow} {
		if p, ok := strings.CutSuffix(key.Property, suffix); ok {
			if _, known := cat.Lookup(p); known {
				key.Property = p
				return key, nil
			}
		}
	}
	return key, fmt.Errorf("%w: %q", ErrUnknownProperty, key.Property)
}

func parseGroup(cat *models.Catalog, p models.Property, key string, v url.Values) (models.RowGroup, bool) {
	g := models.RowGroup{Property: p.Name, Mode: defaultMode(cat, p)}
	row := func(values ...string) {
		r := newRow(p, len(g.Rows) == 0)
		r.Values = values
		g.Rows = append(g.Rows, r)
	}

	switch p.Type {
	case models.TypeTime:
		starts, ends := v[key], v[key+suffixEnd]
		for i := 0; i < max(len(starts), len(ends)); i++ {
			row(at(starts, i), at(ends, i))
		}
	case models.TypeRadio:
		if !v.Has(key+suffixRow) && !v.Has(key) {
			return g, false
		}
		checked := []string{}
		for _, val := range v[key] {
			if slices.Contains(p.Options, val) && !slices.Contains(checked, val) {
				checked = append(checked, val)
			}
		}
		row(checked...)
	case models.TypeCheckbox:
		if !v.Has(key+suffixRow) && !v.Has(key) {
			return g, false
		}
		switch val := v.Get(key); val {
		case "1", "0":
			row(val)
		default:
			row()
		}
	default:
		if v.Has(key + suffixMode) {
			if mode := v.Get(key + suffixMode); validMode(cat, p.Type, mode) {
				g.Mode = mode
			}
		}
		for _, val := range v[key] {
			row(val)
		}
	}
	return g, len(g.Rows) > 0
}

func validMode(cat *models.Catalog, t models.PropertyType, mode string) bool {
	for _, m := range cat.ModesFor(t) {
		if m.Value == mode {
			return true
		}
	}
	return false
}

func at(vals []string, i int) string {
	if i < len(vals) {
		return vals[i]
	}
	return ""
}

func valueAt(r models.Row, i int) string {
	return at(r.Values, i)
}
