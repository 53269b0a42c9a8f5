package tickets

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebeliceyang/ticketq/internal/filter"
	"github.com/rebeliceyang/ticketq/internal/filterform"
	"github.com/rebeliceyang/ticketq/internal/history"
	"github.com/rebeliceyang/ticketq/internal/models"
)

type fakeRecorder struct {
	entries []history.Entry
}

func (r *fakeRecorder) Add(_ context.Context, e history.Entry) error {
	r.entries = append(r.entries, e)
	return nil
}

func mockService(t *testing.T, rec *fakeRecorder) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	svc := NewService(NewSQLiteStore(db),
		WithHistory(rec),
		WithTimeout(time.Second),
		WithSelectOptions(filter.SelectOptions{Columns: []string{"id", "summary"}, DefaultLimit: 25}),
	)
	return svc, mock
}

func ownerForm(t *testing.T, cat *models.Catalog, owner string) models.Form {
	t.Helper()
	f, _, err := filterform.AddRow(cat, models.NewForm(), 0, "owner")
	require.NoError(t, err)
	f.Clauses[0].Groups[0].Rows[0].Values = []string{owner}
	return f
}

func TestService_Run(t *testing.T) {
	cat := catalog(t)
	rec := &fakeRecorder{}
	svc, mock := mockService(t, rec)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id","summary"
FROM ticket
WHERE COALESCE("owner",'') LIKE ? ESCAPE '/'
ORDER BY "id"
LIMIT 25`)).
		WithArgs("%bob%").
		WillReturnRows(sqlmock.NewRows([]string{"id", "summary"}).
			AddRow(int64(7), "Crash on save").
			AddRow(int64(9), []byte("Login fails")))

	res, err := svc.Run(context.Background(), cat, ownerForm(t, cat, "bob"))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"7", "Crash on save"}, {"9", "Login fails"}}, res.Rows)
	assert.NoError(t, mock.ExpectationsWereMet())

	require.Len(t, rec.entries, 1)
	assert.True(t, rec.entries[0].Success)
	assert.Equal(t, int64(2), rec.entries[0].RowCount)
	assert.Equal(t, "0_owner=bob&0_owner_mode=~", rec.entries[0].QueryString)
	assert.Equal(t, res.SQL, rec.entries[0].SQL)
}

func TestService_RunQueryError(t *testing.T) {
	cat := catalog(t)
	rec := &fakeRecorder{}
	svc, mock := mockService(t, rec)

	mock.ExpectQuery("SELECT").WillReturnError(errors.New("database is locked"))

	_, err := svc.Run(context.Background(), cat, ownerForm(t, cat, "bob"))
	require.Error(t, err)
	assert.ErrorContains(t, err, "database is locked")

	require.Len(t, rec.entries, 1)
	assert.False(t, rec.entries[0].Success)
	assert.Contains(t, rec.entries[0].ErrorMessage, "database is locked")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_RunCompileError(t *testing.T) {
	cat := catalog(t)
	rec := &fakeRecorder{}
	svc, mock := mockService(t, rec)

	f, _, err := filterform.AddRow(cat, models.NewForm(), 0, "id")
	require.NoError(t, err)
	f.Clauses[0].Groups[0].Rows[0].Values = []string{"twelve"}

	_, err = svc.Run(context.Background(), cat, f)
	assert.ErrorIs(t, err, filter.ErrInvalidID)

	require.Len(t, rec.entries, 1)
	assert.Empty(t, rec.entries[0].SQL)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "", formatValue("owner", nil))
	assert.Equal(t, "42", formatValue("id", int64(42)))
	assert.Equal(t, "2024-03-15 12:00", formatValue("time", now.Unix()))
	assert.Equal(t, "1.5", formatValue("x", 1.5))
	assert.Equal(t, "true", formatValue("x", true))
}
