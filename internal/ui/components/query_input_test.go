package components

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebeliceyang/ticketq/internal/ui/theme"
)

func TestQueryInput_StripsURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0_owner=bob", "0_owner=bob"},
		{"  http://trac.local/query?0_owner=bob&max=5 ", "0_owner=bob&max=5"},
		{"/query?", ""},
	}
	for _, tt := range tests {
		q := NewQueryInput(theme.DefaultTheme())
		q.Reset(tt.in)
		_, cmd := q.Update(tea.KeyMsg{Type: tea.KeyEnter})
		require.NotNil(t, cmd)
		assert.Equal(t, LoadQueryMsg{Query: tt.want}, cmd(), tt.in)
	}
}
