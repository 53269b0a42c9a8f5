package filterform

import (
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebeliceyang/ticketq/internal/models"
)

func TestParseValues_EmptyGivesSingleClause(t *testing.T) {
	cat := testCatalog(t)

	f, err := ParseValues(cat, url.Values{})
	require.NoError(t, err)

	if diff := cmp.Diff(models.NewForm(), f, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("form (-want +got):\n%s", diff)
	}
}

func TestParseValues_Fields(t *testing.T) {
	cat := testCatalog(t)
	v := url.Values{
		"0_owner":        {"alice", "bob"},
		"0_owner_mode":   {""},
		"0_status":       {"closed"},
		"0_resolution":   {"fixed", "bogus", "fixed"},
		"0_time":         {"2024-01-01", ""},
		"0_time_end":     {"2024-02-01", "today"},
		"3_private_row":  {"1"},
		"3_private":      {"1"},
		"add_filter_5":   {""},
		"something_else": {"x"},
	}

	f, err := ParseValues(cat, v)
	require.NoError(t, err)
	require.NoError(t, Validate(cat, f))

	require.Len(t, f.Clauses, 3)
	assert.Equal(t, []int{0, 3, 5}, []int{f.Clauses[0].Num, f.Clauses[1].Num, f.Clauses[2].Num})

	c := f.Clauses[0]
	assert.Equal(t, []string{"owner", "status", "resolution", "time"}, groupOrder(c))
	assert.Equal(t, "", c.Groups[0].Mode)
	assert.Equal(t, [][]string{{"alice"}, {"bob"}}, values(c.Groups[0]))
	assert.Equal(t, "", c.Groups[1].Mode)
	assert.Equal(t, [][]string{{"fixed"}}, values(c.Groups[2]))
	assert.Equal(t, [][]string{{"2024-01-01", "2024-02-01"}, {"", "today"}}, values(c.Groups[3]))

	assert.Equal(t, [][]string{{"1"}}, values(f.Clauses[1].Groups[0]))
	assert.Empty(t, f.Clauses[2].Groups)
}

func TestParseValues_UnknownModeFallsBack(t *testing.T) {
	cat := testCatalog(t)

	f, err := ParseValues(cat, url.Values{"0_description": {"x"}, "0_description_mode": {"^"}})
	require.NoError(t, err)

	assert.Equal(t, "~", f.Clauses[0].Groups[0].Mode)
}

func TestParseValues_Paging(t *testing.T) {
	cat := testCatalog(t)

	f, err := ParseValues(cat, url.Values{"order": {"owner"}, "desc": {"1"}, "max": {"25"}})
	require.NoError(t, err)
	assert.Equal(t, "owner", f.Order)
	assert.True(t, f.Desc)
	assert.Equal(t, 25, f.Max)

	_, err = ParseValues(cat, url.Values{"max": {"lots"}})
	assert.Error(t, err)

	_, err = ParseValues(cat, url.Values{"order": {"nope"}})
	assert.ErrorIs(t, err, ErrUnknownProperty)
}

func TestEncode_RoundTrip(t *testing.T) {
	cat := testCatalog(t)
	f := models.NewForm()
	for _, name := range []string{"id", "owner", "owner", "description", "status", "resolution", "private", "time", "time"} {
		f = mustAdd(t, cat, f, 0, name)
	}
	f = AddClause(f)
	f = AddClause(f)
	f = mustAdd(t, cat, f, 2, "summary")

	groups := f.Clauses[0].Groups
	groups[0].Rows[0].Values = []string{"1-5,8"}
	groups[1].Mode = "!"
	groups[1].Rows[1].Values = []string{"carol"}
	groups[4].Rows[0].Values = []string{"", "invalid"}
	groups[5].Rows[0].Values = []string{"0"}
	groups[6].Rows[1].Values = []string{"3d", "now"}
	f.Order, f.Desc, f.Max = "owner", true, 10

	got, err := ParseValues(cat, Encode(cat, f))
	require.NoError(t, err)

	if diff := cmp.Diff(f, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("round trip (-want +got):\n%s", diff)
	}
}

func TestParseFieldKey(t *testing.T) {
	cat := testCatalog(t)
	tests := []struct {
		name    string
		want    models.Key
		wantErr bool
	}{
		{"0_owner", models.Key{Clause: 0, Property: "owner"}, false},
		{"2_owner_mode", models.Key{Clause: 2, Property: "owner"}, false},
		{"1_time_end", models.Key{Clause: 1, Property: "time"}, false},
		{"4_private_row", models.Key{Clause: 4, Property: "private"}, false},
		{"0_nothing", models.Key{}, true},
		{"owner", models.Key{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := ParseFieldKey(cat, tt.name)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, key)
		})
	}
}

func values(g models.RowGroup) [][]string {
	out := make([][]string, len(g.Rows))
	for i, r := range g.Rows {
		out[i] = r.Values
	}
	return out
}
