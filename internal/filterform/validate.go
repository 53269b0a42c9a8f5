package filterform

import (
	"errors"
	"fmt"

	"github.com/rebeliceyang/ticketq/internal/models"
)

// Validate checks the structural invariants of a form:
//   - clause numbers are unique
//   - every group belongs to a known property, appears once per clause and
//     is not empty
//   - groups follow catalog order
//   - exclusive properties have a single row
//   - exactly the first row of each group owns the label
//
// Every violation is reported.
func Validate(cat *models.Catalog, f models.Form) error {
	if len(f.Clauses) == 0 {
		return fmt.Errorf("form has no clauses")
	}
	var errs []error
	seen := make(map[int]bool, len(f.Clauses))
	for _, c := range f.Clauses {
		if seen[c.Num] {
			errs = append(errs, fmt.Errorf("duplicate clause %d", c.Num))
		}
		seen[c.Num] = true

		last := -1
		props := make(map[string]bool, len(c.Groups))
		for _, g := range c.Groups {
			key := models.Key{Clause: c.Num, Property: g.Property}
			prop, ok := cat.Lookup(g.Property)
			if !ok {
				errs = append(errs, fmt.Errorf("%s: %w", key, ErrUnknownProperty))
				continue
			}
			if props[g.Property] {
				errs = append(errs, fmt.Errorf("%s: duplicate group", key))
			}
			props[g.Property] = true

			pos := cat.Position(g.Property)
			if pos < last {
				errs = append(errs, fmt.Errorf("%s: group out of menu order", key))
			}
			last = max(last, pos)

			if len(g.Rows) == 0 {
				errs = append(errs, fmt.Errorf("%s: empty group", key))
			}
			if prop.Type.Exclusive() && len(g.Rows) > 1 {
				errs = append(errs, fmt.Errorf("%s: %d rows for exclusive property", key, len(g.Rows)))
			}
			for i, r := range g.Rows {
				if r.Header.Owner != (i == 0) {
					errs = append(errs, fmt.Errorf("%s row %d: label owner mismatch", key, i))
				}
			}
		}
	}
	return errors.Join(errs...)
}
