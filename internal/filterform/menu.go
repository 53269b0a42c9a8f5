package filterform

import (
	"strconv"

	"github.com/rebeliceyang/ticketq/internal/models"
)

// MenuOption is one entry of a clause's add-filter menu
type MenuOption struct {
	Value    string
	Label    string
	Disabled bool
}

const menuPrefix = "add_filter_"

// MenuName is the field name of the add-filter menu of a clause
func MenuName(clauseNum int) string {
	return menuPrefix + strconv.Itoa(clauseNum)
}

// Menu returns the add-filter options of a clause in catalog order. An
// exclusive property is disabled while the clause has a row for it.
func Menu(cat *models.Catalog, c models.Clause) []MenuOption {
	opts := make([]MenuOption, 0, len(cat.Properties))
	for _, p := range cat.Properties {
		opts = append(opts, MenuOption{
			Value:    p.Name,
			Label:    p.Label,
			Disabled: optionDisabled(p, c),
		})
	}
	return opts
}

func optionDisabled(p models.Property, c models.Clause) bool {
	return p.Type.Exclusive() && c.Group(p.Name) >= 0
}
