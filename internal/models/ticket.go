package models

import "time"

// Ticket is one row of the ticket table
type Ticket struct {
	ID          int64
	Type        string
	Time        time.Time
	ChangeTime  time.Time
	Component   string
	Priority    string
	Owner       string
	Reporter    string
	CC          string
	Version     string
	Milestone   string
	Status      string
	Resolution  string
	Summary     string
	Description string
	Keywords    string
}

// TicketColumns lists the ticket table columns in schema order
var TicketColumns = []string{
	"id", "type", "time", "changetime", "component", "priority", "owner",
	"reporter", "cc", "version", "milestone", "status", "resolution",
	"summary", "description", "keywords",
}

// DefaultColumns are shown when a query does not choose columns
var DefaultColumns = []string{"id", "summary", "status", "owner", "priority", "milestone", "component"}
