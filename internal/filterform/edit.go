package filterform

import (
	"fmt"
	"slices"

	"github.com/rebeliceyang/ticketq/internal/models"
)

// SetValues replaces the input values of one row. Values are normalized to
// the shape the property type expects: radio rows keep the known options,
// checkbox rows "1", "0" or nothing, time rows a start/end pair and other rows
// a single value.
func SetValues(cat *models.Catalog, f models.Form, key models.Key, index int, values []string) (models.Form, error) {
	prop, ok := cat.Lookup(key.Property)
	if !ok {
		return f, fmt.Errorf("%w: %q", ErrUnknownProperty, key.Property)
	}
	ci, gi, err := locate(f, key, index)
	if err != nil {
		return f, err
	}

	var norm []string
	switch prop.Type {
	case models.TypeRadio:
		norm = []string{}
		for _, v := range values {
			if slices.Contains(prop.Options, v) && !slices.Contains(norm, v) {
				norm = append(norm, v)
			}
		}
	case models.TypeCheckbox:
		norm = []string{}
		if len(values) > 0 && (values[0] == "1" || values[0] == "0") {
			norm = append(norm, values[0])
		}
	case models.TypeTime:
		norm = []string{at(values, 0), at(values, 1)}
	default:
		norm = []string{at(values, 0)}
	}

	out := f.Clone()
	out.Clauses[ci].Groups[gi].Rows[index].Values = norm
	return out, nil
}

// SetMode sets the match mode of the group identified by key
func SetMode(cat *models.Catalog, f models.Form, key models.Key, mode string) (models.Form, error) {
	prop, ok := cat.Lookup(key.Property)
	if !ok {
		return f, fmt.Errorf("%w: %q", ErrUnknownProperty, key.Property)
	}
	if !validMode(cat, prop.Type, mode) {
		return f, fmt.Errorf("%w: %q for %s", ErrInvalidMode, mode, prop.Name)
	}
	ci, gi, err := locate(f, key, 0)
	if err != nil {
		return f, err
	}

	out := f.Clone()
	out.Clauses[ci].Groups[gi].Mode = mode
	return out, nil
}

func locate(f models.Form, key models.Key, index int) (int, int, error) {
	ci := f.Clause(key.Clause)
	if ci < 0 {
		return -1, -1, fmt.Errorf("%w: %s", ErrRowNotFound, key)
	}
	gi := f.Clauses[ci].Group(key.Property)
	if gi < 0 || index < 0 || index >= len(f.Clauses[ci].Groups[gi].Rows) {
		return -1, -1, fmt.Errorf("%w: %s row %d", ErrRowNotFound, key, index)
	}
	return ci, gi, nil
}
