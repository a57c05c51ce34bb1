package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portalapi/portal-api/internal/model"
)

var sqlTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestContactList_Query(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	repo := NewContactRepository(db, "postgres://localhost/portal")

	rows := sqlmock.NewRows([]string{"id", "name", "email", "message", "created_at"}).
		AddRow("m-1", "Ann", "ann@x.com", "hello", sqlTime)
	mock.ExpectQuery(`(?s)ORDER BY created_at DESC LIMIT \$1 OFFSET \$2$`).
		WithArgs(10, 20).
		WillReturnRows(rows)

	got, err := repo.List(context.Background(), model.ContactListOptions{Limit: 10, Offset: 20})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "hello", got[0].Message)
}

func TestContactRepository_SQLite(t *testing.T) {
	store := openTestStore(t)
	contacts := store.Contacts()
	ctx := context.Background()

	empty, err := contacts.List(ctx, model.ContactListOptions{Limit: 10})
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	first := &model.ContactMessage{Name: "Ann", Email: "ann@x.com", Message: "first"}
	require.NoError(t, contacts.Create(ctx, first))
	time.Sleep(2 * time.Millisecond)
	second := &model.ContactMessage{Name: "Bob", Email: "bob@x.com", Message: "second"}
	require.NoError(t, contacts.Create(ctx, second))

	got, err := contacts.List(ctx, model.ContactListOptions{Limit: 10})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "second", got[0].Message, "newest first")
	assert.Equal(t, "first", got[1].Message)

	paged, err := contacts.List(ctx, model.ContactListOptions{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, first.ID, paged[0].ID)
}
