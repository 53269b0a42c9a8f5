package models

import "time"

// AppState holds the terminal UI state
type AppState struct {
	Width        int
	Height       int
	FocusedPanel PanelType
	ViewMode     ViewMode

	// Last query run from the filter form
	LastQuery  string
	LastResult *QueryResult
}

// PanelType identifies which panel is focused
type PanelType int

const (
	FilterPanel PanelType = iota
	ResultsPanel
)

// ViewMode identifies the current view
type ViewMode int

const (
	NormalMode ViewMode = iota
	HelpMode
)

// NewAppState creates a new AppState with defaults
func NewAppState() AppState {
	return AppState{
		Width:        80,
		Height:       24,
		FocusedPanel: FilterPanel,
		ViewMode:     NormalMode,
	}
}

// QueryResult is the tabular result of a ticket query
type QueryResult struct {
	Columns  []string
	Rows     [][]string
	SQL      string
	Duration time.Duration
	Error    error
}

// Favorite is a named, saved filter query
type Favorite struct {
	ID          string    `yaml:"id" json:"id"`
	Name        string    `yaml:"name" json:"name"`
	Description string    `yaml:"description" json:"description"`
	Query       string    `yaml:"query" json:"query"`
	Tags        []string  `yaml:"tags" json:"tags"`
	CreatedAt   time.Time `yaml:"created_at" json:"created_at"`
	UpdatedAt   time.Time `yaml:"updated_at" json:"updated_at"`
	LastUsed    time.Time `yaml:"last_used" json:"last_used"`
	UsageCount  int       `yaml:"usage_count" json:"usage_count"`
}
