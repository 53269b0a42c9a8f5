package filterform

import (
	"fmt"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/rebeliceyang/ticketq/internal/models"
)

// ActionKind identifies a user action on the form
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionAddRow
	ActionRemoveRow
	ActionAddClause
	ActionUpdate
)

func (k ActionKind) String() string {
	switch k {
	case ActionAddRow:
		return "add_row"
	case ActionRemoveRow:
		return "remove_row"
	case ActionAddClause:
		return "add_clause"
	case ActionUpdate:
		return "update"
	default:
		return "none"
	}
}

// Action is a single user action decoded from a form submission
type Action struct {
	Kind ActionKind
	Key  models.Key // ActionAddRow, ActionRemoveRow
	Row  int        // ActionRemoveRow
}

const (
	removePrefix = "rm_filter_"
	addClause    = "add_clause"
	update       = "update"
)

var (
	rowSuffixRe = regexp.MustCompile(`_(\d+)$`)
	addButtonRe = regexp.MustCompile(`^add_(\d+)$`)
)

// RemoveName is the name of the remove button of a row
func RemoveName(key models.Key, row int) string {
	return removePrefix + key.String() + "_" + strconv.Itoa(row)
}

// DecodeAction finds the action a submission asks for. Remove buttons win
// over add-clause. An add button reads only the menu of its own clause, and
// update wins over menus whose add button was not pressed. Only one action
// is applied per submission.
func DecodeAction(cat *models.Catalog, v url.Values) (Action, error) {
	names := make([]string, 0, len(v))
	for name := range v {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		rest, ok := strings.CutPrefix(name, removePrefix)
		if !ok {
			continue
		}
		key, row, err := parseRemove(cat, rest)
		if err != nil {
			return Action{}, fmt.Errorf("decode %s: %w", name, err)
		}
		return Action{Kind: ActionRemoveRow, Key: key, Row: row}, nil
	}

	if v.Has(addClause) {
		return Action{Kind: ActionAddClause}, nil
	}

	for _, name := range names {
		m := addButtonRe.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		num, err := strconv.Atoi(m[1])
		if err != nil {
			return Action{}, fmt.Errorf("decode %s: %w", name, err)
		}
		prop := v.Get(MenuName(num))
		if prop == "" {
			return Action{Kind: ActionUpdate}, nil
		}
		return Action{Kind: ActionAddRow, Key: models.Key{Clause: num, Property: prop}}, nil
	}

	if v.Has(update) {
		return Action{Kind: ActionUpdate}, nil
	}
	return implicitAdd(v)
}

// implicitAdd handles a submission without any button, as sent when a form
// is submitted with the enter key: the lowest numbered clause with a
// selected menu option gets the row.
func implicitAdd(v url.Values) (Action, error) {
	found := false
	var a Action
	for name := range v {
		s, ok := strings.CutPrefix(name, menuPrefix)
		if !ok || v.Get(name) == "" {
			continue
		}
		num, err := strconv.Atoi(s)
		if err != nil {
			return Action{}, fmt.Errorf("decode %s: %w", name, err)
		}
		if !found || num < a.Key.Clause {
			a = Action{Kind: ActionAddRow, Key: models.Key{Clause: num, Property: v.Get(name)}}
			found = true
		}
	}
	return a, nil
}

// parseRemove splits "{clause}_{property}[_{row}]". The row suffix is
// optional; a name without it removes the first row.
func parseRemove(cat *models.Catalog, s string) (models.Key, int, error) {
	if m := rowSuffixRe.FindStringSubmatch(s); m != nil {
		if key, err := models.ParseKey(strings.TrimSuffix(s, m[0])); err == nil {
			if _, ok := cat.Lookup(key.Property); ok {
				row, err := strconv.Atoi(m[1])
				if err != nil {
					return models.Key{}, 0, fmt.Errorf("row index %q: %w", m[1], err)
				}
				return key, row, nil
			}
		}
	}
	key, err := models.ParseKey(s)
	return key, 0, err
}
