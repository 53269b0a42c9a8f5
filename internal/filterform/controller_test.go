package filterform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebeliceyang/ticketq/internal/logger"
	"github.com/rebeliceyang/ticketq/internal/models"
)

func newTestController(t *testing.T) *Controller {
	t.Helper()
	c := NewController(testCatalog(t), models.Form{}, logger.Discard())
	c.SetStrict(true)
	return c
}

func TestController_StartsWithOneClause(t *testing.T) {
	c := newTestController(t)

	require.Len(t, c.Form().Clauses, 1)
	assert.Empty(t, c.Notice())
}

func TestController_DuplicateFilterSetsNotice(t *testing.T) {
	c := newTestController(t)
	add := Action{Kind: ActionAddRow, Key: models.Key{Clause: 0, Property: "resolution"}}

	require.NoError(t, c.Apply(add))
	before := c.Form()

	require.NoError(t, c.Apply(add))
	assert.Equal(t, "A filter already exists for that property", c.Notice())
	assert.Equal(t, before, c.Form())
	assert.Equal(t, c.Notice(), c.View().Notice)

	require.NoError(t, c.Apply(Action{Kind: ActionAddClause}))
	assert.Empty(t, c.Notice())
}

func TestController_DoubleRemoveIsNoop(t *testing.T) {
	c := newTestController(t)
	key := models.Key{Clause: 0, Property: "owner"}
	require.NoError(t, c.Apply(Action{Kind: ActionAddRow, Key: key}))
	require.NoError(t, c.Apply(Action{Kind: ActionAddRow, Key: models.Key{Clause: 0, Property: "summary"}}))

	rm := Action{Kind: ActionRemoveRow, Key: key}
	require.NoError(t, c.Apply(rm))
	after := c.Form()

	require.NoError(t, c.Apply(rm))
	assert.Equal(t, after, c.Form())
}

func TestController_UnknownPropertyFails(t *testing.T) {
	c := newTestController(t)

	err := c.Apply(Action{Kind: ActionAddRow, Key: models.Key{Clause: 0, Property: "bogus"}})
	assert.ErrorIs(t, err, ErrUnknownProperty)
}

func TestController_FocusFollowsAdd(t *testing.T) {
	c := newTestController(t)
	key := models.Key{Clause: 0, Property: "owner"}

	require.NoError(t, c.Apply(Action{Kind: ActionAddRow, Key: key}))
	assert.Equal(t, Focus{Key: key, Row: 0}, c.Focus())

	view := c.View()
	w := view.Clauses[0].Groups[0].Rows[0].Filter.Widgets[0]
	assert.True(t, w.Autofocus)

	require.NoError(t, c.Apply(Action{Kind: ActionUpdate}))
	assert.True(t, c.Focus().IsZero())
}

func TestController_QueryString(t *testing.T) {
	c := newTestController(t)
	require.NoError(t, c.Apply(Action{Kind: ActionAddRow, Key: models.Key{Clause: 0, Property: "owner"}}))

	assert.Equal(t, "0_owner=&0_owner_mode=~", c.QueryString())
}
