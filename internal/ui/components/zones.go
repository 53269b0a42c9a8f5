package components

import (
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"
)

// Click targets are tracked by the global zone manager. It is only started
// when mouse support is enabled; until then marks are left out and nothing
// is hit.

// MarkZone wraps s in a click target named id
func MarkZone(id, s string) string {
	if zone.DefaultManager == nil {
		return s
	}
	return zone.Mark(id, s)
}

// InZone reports whether a mouse event falls inside the target named id
func InZone(id string, msg tea.MouseMsg) bool {
	if zone.DefaultManager == nil {
		return false
	}
	return zone.Get(id).InBounds(msg)
}

// ScanZones records the targets of a full frame and strips their markers
func ScanZones(view string) string {
	if zone.DefaultManager == nil {
		return view
	}
	return zone.Scan(view)
}

func isLeftClick(msg tea.MouseMsg) bool {
	return msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionPress
}

// wheel returns -1 or 1 for a wheel event, 0 otherwise
func wheel(msg tea.MouseMsg) int {
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		return -1
	case tea.MouseButtonWheelDown:
		return 1
	}
	return 0
}

func formItemZone(i int) string { return "filters.item." + strconv.Itoa(i) }
func pickZone(i int) string     { return "filters.pick." + strconv.Itoa(i) }
func tableRowZone(i int) string { return "results.row." + strconv.Itoa(i) }
