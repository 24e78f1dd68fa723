package pgstore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PepaPanda/uu-backend-project/internal/database"
	"github.com/PepaPanda/uu-backend-project/internal/models"
	"github.com/PepaPanda/uu-backend-project/internal/store"
)

func TestConditionalSQL(t *testing.T) {
	q := conditionalSQL("shopping_lists", "s.id = $1", "name = $2")
	assert.Contains(t, q, "FROM shopping_lists s WHERE s.id = $1 FOR UPDATE")
	assert.Contains(t, q, "UPDATE shopping_lists t SET name = $2 FROM target WHERE t.id = target.id")
	assert.Contains(t, q, "IS DISTINCT FROM target.before")
}

func TestElementHelpers(t *testing.T) {
	assert.Equal(t,
		`s.members @> jsonb_build_array(jsonb_build_object('user_id', $2::text))`,
		containsElem("members", "user_id", "$2"))
	assert.Contains(t, withoutElem("items", "id", "$2::text"), `WHERE e.v->>'id' <> $2::text`)
	assert.Contains(t, withoutElem("items", "id", "$2::text"), `'[]'::jsonb`)
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("SHOPLIST_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("SHOPLIST_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	db, err := database.ConnectDSN(ctx, dsn, 4, 1)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(ctx, db))
	_, err = db.Exec(ctx, `TRUNCATE users, shopping_lists`)
	require.NoError(t, err)

	s := New(db)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func TestPostgresListWrites(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	owner := models.MemberRef{UserID: "o", Name: "Olga", Email: "o@x.io"}
	_, err := s.InsertList(ctx, &models.ShoppingList{
		ID: "l1", Name: "Weekend", Status: models.ListStatusActive,
		Owner: owner, Members: []models.MemberRef{owner}, CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	m := models.MemberRef{UserID: "m", Name: "Max", Email: "m@x.io"}
	res, err := s.AddMember(ctx, "l1", m)
	require.NoError(t, err)
	assert.Equal(t, store.Applied, res)
	res, err = s.AddMember(ctx, "l1", m)
	require.NoError(t, err)
	assert.Zero(t, res.Matched)

	res, err = s.RemoveMember(ctx, "l1", "o")
	require.NoError(t, err)
	assert.Zero(t, res.Matched, "owner is never removed")

	res, err = s.RemoveMember(ctx, "l1", "nobody")
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Matched)
	assert.Zero(t, res.Changed)

	_, err = s.InsertItem(ctx, "l1", models.Item{ID: "i1", Name: "Milk"})
	require.NoError(t, err)
	yes := true
	res, err = s.UpdateItem(ctx, "l1", "i1", models.ItemUpdate{Resolved: &yes})
	require.NoError(t, err)
	assert.Equal(t, store.Applied, res)
	res, err = s.UpdateItem(ctx, "l1", "i1", models.ItemUpdate{Resolved: &yes})
	require.NoError(t, err)
	assert.Zero(t, res.Changed)

	res, err = s.DeleteItem(ctx, "l1", "i1")
	require.NoError(t, err)
	assert.Equal(t, store.Applied, res)
	res, err = s.DeleteItem(ctx, "l1", "i1")
	require.NoError(t, err)
	assert.Zero(t, res.Matched)

	archived := models.ListStatusArchived
	stamp := time.Now().UTC().Truncate(time.Microsecond)
	_, err = s.UpdateListFields(ctx, "l1", models.ListFieldsUpdate{Status: &archived}, stamp)
	require.NoError(t, err)
	res, err = s.UpdateListFields(ctx, "l1", models.ListFieldsUpdate{Status: &archived}, stamp.Add(time.Hour))
	require.NoError(t, err)
	assert.Zero(t, res.Changed)

	got, err := s.FindListByID(ctx, "l1")
	require.NoError(t, err)
	require.NotNil(t, got.ArchivedAt)
	assert.True(t, stamp.Equal(*got.ArchivedAt))
	assert.Len(t, got.Members, 2)
}

func TestPostgresUsers(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.InsertUser(ctx, &models.User{ID: "u1", Email: "m@x.io", PasswordHash: "h", CreatedAt: time.Now()})
	require.NoError(t, err)
	_, err = s.InsertUser(ctx, &models.User{ID: "u2", Email: "m@x.io", PasswordHash: "h", CreatedAt: time.Now()})
	assert.ErrorIs(t, err, store.ErrDuplicate)

	inv := models.Invitation{ListID: "l1", InvitedBy: "Olga", InvitedAt: time.Now().UTC()}
	res, err := s.AddInvitation(ctx, "m@x.io", inv)
	require.NoError(t, err)
	assert.Equal(t, store.Applied, res)
	res, err = s.AddInvitation(ctx, "m@x.io", inv)
	require.NoError(t, err)
	assert.Zero(t, res.Matched)

	res, err = s.PullInvitationsForList(ctx, "l1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Changed)

	u, err := s.FindUserByEmail(ctx, "m@x.io")
	require.NoError(t, err)
	assert.Empty(t, u.Invitations)
}
