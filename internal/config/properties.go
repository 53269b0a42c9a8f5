package config

import "github.com/rebeliceyang/ticketq/internal/models"

// DefaultProperties are the standard ticket fields, in add-filter menu order
func DefaultProperties() []models.Property {
	return []models.Property{
		{Name: "id", Label: "Ticket", Type: models.TypeID},
		{Name: "summary", Label: "Summary", Type: models.TypeText},
		{Name: "reporter", Label: "Reporter", Type: models.TypeText},
		{Name: "owner", Label: "Owner", Type: models.TypeText},
		{Name: "description", Label: "Description", Type: models.TypeTextarea},
		{Name: "type", Label: "Type", Type: models.TypeSelect,
			Options: []string{"defect", "enhancement", "task"}},
		{Name: "status", Label: "Status", Type: models.TypeRadio,
			Options: []string{"new", "assigned", "accepted", "reopened", "closed"}},
		{Name: "priority", Label: "Priority", Type: models.TypeSelect,
			Options: []string{"blocker", "critical", "major", "minor", "trivial"}},
		{Name: "milestone", Label: "Milestone", Type: models.TypeSelect,
			Options: []string{"milestone1", "milestone2", "milestone3", "milestone4"}},
		{Name: "component", Label: "Component", Type: models.TypeSelect,
			Options: []string{"component1", "component2"}},
		{Name: "version", Label: "Version", Type: models.TypeSelect,
			Options: []string{"1.0", "2.0"}},
		{Name: "resolution", Label: "Resolution", Type: models.TypeRadio,
			Options: []string{"", "fixed", "invalid", "wontfix", "duplicate", "worksforme"}},
		{Name: "keywords", Label: "Keywords", Type: models.TypeText},
		{Name: "cc", Label: "Cc", Type: models.TypeText},
		{Name: "time", Label: "Created", Type: models.TypeTime},
		{Name: "changetime", Label: "Modified", Type: models.TypeTime},
	}
}

// DefaultModes are the match modes per property type
func DefaultModes() map[models.PropertyType][]models.Mode {
	return map[models.PropertyType][]models.Mode{
		models.TypeText: {
			{Value: "~", Text: "contains"},
			{Value: "!~", Text: "doesn't contain"},
			{Value: "^", Text: "begins with"},
			{Value: "$", Text: "ends with"},
			{Value: "", Text: "is"},
			{Value: "!", Text: "is not"},
		},
		models.TypeTextarea: {
			{Value: "~", Text: "contains"},
			{Value: "!~", Text: "doesn't contain"},
		},
		models.TypeID: {
			{Value: "", Text: "is"},
			{Value: "!", Text: "is not"},
		},
		models.TypeSelect: {
			{Value: "", Text: "is"},
			{Value: "!", Text: "is not"},
		},
	}
}

func modesByName(m map[models.PropertyType][]models.Mode) map[string][]models.Mode {
	out := make(map[string][]models.Mode, len(m))
	for t, modes := range m {
		out[string(t)] = modes
	}
	return out
}
