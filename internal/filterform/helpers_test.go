package filterform

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rebeliceyang/ticketq/internal/models"
)

// testCatalog mirrors the default ticket fields in a compact form
func testCatalog(t *testing.T) *models.Catalog {
	t.Helper()
	cat, err := models.NewCatalog([]models.Property{
		{Name: "id", Label: "Ticket", Type: models.TypeID},
		{Name: "summary", Label: "Summary", Type: models.TypeText},
		{Name: "owner", Label: "Owner", Type: models.TypeText},
		{Name: "description", Label: "Description", Type: models.TypeTextarea},
		{Name: "status", Label: "Status", Type: models.TypeSelect, Options: []string{"new", "assigned", "closed"}},
		{Name: "resolution", Label: "Resolution", Type: models.TypeRadio, Options: []string{"", "fixed", "invalid"}},
		{Name: "private", Label: "Private", Type: models.TypeCheckbox},
		{Name: "time", Label: "Created", Type: models.TypeTime},
	}, map[models.PropertyType][]models.Mode{
		models.TypeText:     {{Value: "~", Text: "contains"}, {Value: "", Text: "is"}, {Value: "!", Text: "is not"}},
		models.TypeTextarea: {{Value: "~", Text: "contains"}, {Value: "!~", Text: "doesn't contain"}},
		models.TypeID:       {{Value: "", Text: "is"}, {Value: "!", Text: "is not"}},
		models.TypeSelect:   {{Value: "", Text: "is"}, {Value: "!", Text: "is not"}},
	})
	require.NoError(t, err)
	return cat
}

// mustAdd adds a row and fails the test on error
func mustAdd(t *testing.T, cat *models.Catalog, f models.Form, clause int, name string) models.Form {
	t.Helper()
	out, _, err := AddRow(cat, f, clause, name)
	require.NoError(t, err)
	require.NoError(t, Validate(cat, out))
	return out
}

func mustRemove(t *testing.T, cat *models.Catalog, f models.Form, clause int, name string, row int) models.Form {
	t.Helper()
	out, err := RemoveRow(f, models.Key{Clause: clause, Property: name}, row)
	require.NoError(t, err)
	require.NoError(t, Validate(cat, out))
	return out
}

func groupOrder(c models.Clause) []string {
	names := make([]string, len(c.Groups))
	for i, g := range c.Groups {
		names[i] = g.Property
	}
	return names
}

func disabled(cat *models.Catalog, c models.Clause, name string) bool {
	for _, o := range Menu(cat, c) {
		if o.Value == name {
			return o.Disabled
		}
	}
	return false
}
