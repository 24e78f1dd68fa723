package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PepaPanda/uu-backend-project/internal/apperr"
	"github.com/PepaPanda/uu-backend-project/internal/logging"
	"github.com/PepaPanda/uu-backend-project/internal/models"
	"github.com/PepaPanda/uu-backend-project/internal/store"
	"github.com/PepaPanda/uu-backend-project/internal/store/memstore"
)

// faultyStore wraps memstore and lets a test replace single writes.
type faultyStore struct {
	*memstore.Store
	addMember        func(ctx context.Context, listID string, m models.MemberRef) (store.Result, error)
	removeInvitation func(ctx context.Context, userID, listID string) (store.Result, error)
	listReads        atomic.Int32
}

func (f *faultyStore) FindListByID(ctx context.Context, id string) (*models.ShoppingList, error) {
	f.listReads.Add(1)
	return f.Store.FindListByID(ctx, id)
}

func (f *faultyStore) AddMember(ctx context.Context, listID string, m models.MemberRef) (store.Result, error) {
	if f.addMember != nil {
		return f.addMember(ctx, listID, m)
	}
	return f.Store.AddMember(ctx, listID, m)
}

func (f *faultyStore) RemoveInvitation(ctx context.Context, userID, listID string) (store.Result, error) {
	if f.removeInvitation != nil {
		return f.removeInvitation(ctx, userID, listID)
	}
	return f.Store.RemoveInvitation(ctx, userID, listID)
}

type recorder struct {
	mu  sync.Mutex
	got []models.Notification
}

func (r *recorder) Notify(_ context.Context, n models.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, n)
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, n := range r.got {
		out = append(out, n.Type)
	}
	return out
}

type stubTokens struct{}

func (stubTokens) GenerateToken(id models.Identity) (string, error) {
	return "token-" + id.UserID, nil
}

type fixture struct {
	store  *faultyStore
	lists  *ListService
	users  *UserService
	events *recorder
	clock  time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWith(t, nil)
}

func restoring(o *Options) { o.RestoreInvitations = true }

func newFixtureWith(t *testing.T, configure func(*Options)) *fixture {
	t.Helper()
	f := &fixture{
		store:  &faultyStore{Store: memstore.New()},
		events: &recorder{},
		clock:  time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
	}
	seq := 0
	opts := Options{
		Store:    f.store,
		Log:      logging.Discard(),
		Notifier: f.events,
		Now:      func() time.Time { return f.clock },
		NewID: func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		},
	}
	if configure != nil {
		configure(&opts)
	}
	f.lists = NewListService(opts)
	f.users = NewUserService(opts, stubTokens{})
	return f
}

func (f *fixture) register(t *testing.T, email, first, last string) models.Identity {
	t.Helper()
	id, err := f.users.Register(context.Background(), models.CreateUserRequest{
		Email: email, Password: "secret123", FirstName: first, LastName: last,
	})
	require.NoError(t, err)
	return models.Identity{UserID: id, Email: models.NormalizeEmail(email), FirstName: first, LastName: last}
}

func kindOf(err error) apperr.Kind {
	return apperr.KindOf(err)
}

func TestOwnerInviteAcceptRemoveScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "o@x.io", "Olga", "Owner")
	member := f.register(t, "m@x.io", "Max", "Member")

	list, err := f.lists.Create(ctx, owner, "Weekend")
	require.NoError(t, err)
	assert.Equal(t, []models.MemberRef{{UserID: owner.UserID, Name: "Olga Owner", Email: "o@x.io"}}, list.Members)

	_, err = f.lists.Invite(ctx, owner, list.ID, "M@x.io")
	require.NoError(t, err)
	invs, err := f.users.Invitations(ctx, member)
	require.NoError(t, err)
	require.Len(t, invs, 1)
	assert.Equal(t, list.ID, invs[0].ListID)
	assert.Equal(t, "Olga Owner", invs[0].InvitedBy)

	require.NoError(t, f.users.AcceptInvitation(ctx, member, list.ID))
	invs, _ = f.users.Invitations(ctx, member)
	assert.Empty(t, invs)
	members, err := f.lists.Members(ctx, member, list.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2)

	err = f.lists.RemoveMember(ctx, member, list.ID, owner.UserID)
	assert.Equal(t, apperr.KindInvalidRequest, kindOf(err))

	require.NoError(t, f.lists.RemoveMember(ctx, owner, list.ID, member.UserID))
	got, err := f.lists.Get(ctx, owner, list.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.MemberRef{{UserID: owner.UserID, Name: "Olga Owner", Email: "o@x.io"}}, got.Members)

	assert.Equal(t, []string{
		models.NotificationInvitationSent,
		models.NotificationMemberAdded,
		models.NotificationMemberRemoved,
	}, f.events.types())
}

func TestItemsVisibleOnlyToMembers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "o@x.io", "Olga", "Owner")
	stranger := f.register(t, "u@x.io", "Una", "Stranger")

	list, err := f.lists.Create(ctx, owner, "Weekend")
	require.NoError(t, err)
	_, err = f.lists.AddItem(ctx, owner, list.ID, "Milk")
	require.NoError(t, err)

	_, err = f.lists.Items(ctx, stranger, list.ID)
	assert.Equal(t, apperr.KindForbidden, kindOf(err))

	items, err := f.lists.Items(ctx, owner, list.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Milk", items[0].Name)
}

func TestNonexistentListIsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "o@x.io", "Olga", "Owner")

	_, err := f.lists.Get(ctx, owner, "missing")
	assert.Equal(t, apperr.KindNotFound, kindOf(err))
	_, err = f.lists.Update(ctx, owner, "missing", models.ListFieldsUpdate{Name: strPtr("x")})
	assert.Equal(t, apperr.KindNotFound, kindOf(err))
	err = f.lists.Delete(ctx, owner, "missing")
	assert.Equal(t, apperr.KindNotFound, kindOf(err))
	_, err = f.lists.Invite(ctx, owner, "missing", "m@x.io")
	assert.Equal(t, apperr.KindNotFound, kindOf(err))
	err = f.lists.RemoveMember(ctx, owner, "missing", "m")
	assert.Equal(t, apperr.KindNotFound, kindOf(err))
}

func TestDeleteItemTwice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "o@x.io", "Olga", "Owner")
	list, _ := f.lists.Create(ctx, owner, "Weekend")
	item, err := f.lists.AddItem(ctx, owner, list.ID, "Bread")
	require.NoError(t, err)

	require.NoError(t, f.lists.DeleteItem(ctx, owner, list.ID, item.ID))
	err = f.lists.DeleteItem(ctx, owner, list.ID, item.ID)
	assert.Equal(t, apperr.KindNotFound, kindOf(err))
}

func TestUpdateItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "o@x.io", "Olga", "Owner")
	list, _ := f.lists.Create(ctx, owner, "Weekend")
	item, _ := f.lists.AddItem(ctx, owner, list.ID, "Bread")

	yes := true
	got, err := f.lists.UpdateItem(ctx, owner, list.ID, item.ID, models.ItemUpdate{Resolved: &yes})
	require.NoError(t, err)
	assert.True(t, got.Resolved)

	_, err = f.lists.UpdateItem(ctx, owner, list.ID, item.ID, models.ItemUpdate{Resolved: &yes})
	assert.NoError(t, err, "repeating an update is idempotent")

	_, err = f.lists.UpdateItem(ctx, owner, list.ID, "missing", models.ItemUpdate{Resolved: &yes})
	assert.Equal(t, apperr.KindNotFound, kindOf(err))

	_, err = f.lists.UpdateItem(ctx, owner, list.ID, item.ID, models.ItemUpdate{})
	assert.Equal(t, apperr.KindInvalidRequest, kindOf(err))
}

func TestArchiveStamping(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "o@x.io", "Olga", "Owner")
	list, _ := f.lists.Create(ctx, owner, "Weekend")

	archived, active := models.ListStatusArchived, models.ListStatusActive
	got, err := f.lists.Update(ctx, owner, list.ID, models.ListFieldsUpdate{Status: &archived})
	require.NoError(t, err)
	require.NotNil(t, got.ArchivedAt)
	stamp := *got.ArchivedAt

	f.clock = f.clock.Add(time.Hour)
	got, err = f.lists.Update(ctx, owner, list.ID, models.ListFieldsUpdate{Status: &archived})
	require.NoError(t, err)
	require.NotNil(t, got.ArchivedAt)
	assert.Equal(t, stamp, *got.ArchivedAt)

	got, err = f.lists.Update(ctx, owner, list.ID, models.ListFieldsUpdate{Status: &active})
	require.NoError(t, err)
	assert.Nil(t, got.ArchivedAt)
}

func TestOnlyOwnerEditsList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "o@x.io", "Olga", "Owner")
	member := f.register(t, "m@x.io", "Max", "Member")
	list, _ := f.lists.Create(ctx, owner, "Weekend")
	_, _ = f.lists.Invite(ctx, owner, list.ID, member.Email)
	require.NoError(t, f.users.AcceptInvitation(ctx, member, list.ID))

	_, err := f.lists.Update(ctx, member, list.ID, models.ListFieldsUpdate{Name: strPtr("Mine")})
	assert.Equal(t, apperr.KindForbidden, kindOf(err))
	err = f.lists.Delete(ctx, member, list.ID)
	assert.Equal(t, apperr.KindForbidden, kindOf(err))
	_, err = f.lists.Invite(ctx, member, list.ID, "z@x.io")
	assert.Equal(t, apperr.KindForbidden, kindOf(err))
}

func TestInviteRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "o@x.io", "Olga", "Owner")
	member := f.register(t, "m@x.io", "Max", "Member")
	list, _ := f.lists.Create(ctx, owner, "Weekend")

	_, err := f.lists.Invite(ctx, owner, list.ID, "O@X.IO")
	assert.Equal(t, apperr.KindInvalidRequest, kindOf(err))

	_, err = f.lists.Invite(ctx, owner, list.ID, "nobody@x.io")
	assert.Equal(t, apperr.KindNotFound, kindOf(err))

	_, err = f.lists.Invite(ctx, owner, list.ID, member.Email)
	require.NoError(t, err)
	_, err = f.lists.Invite(ctx, owner, list.ID, member.Email)
	assert.Equal(t, apperr.KindDuplicate, kindOf(err))

	require.NoError(t, f.users.AcceptInvitation(ctx, member, list.ID))
	_, err = f.lists.Invite(ctx, owner, list.ID, member.Email)
	assert.Equal(t, apperr.KindDuplicate, kindOf(err))
}

func TestSelfInviteRejectedBeforeLoadingList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "o@x.io", "Olga", "Owner")
	stranger := f.register(t, "s@x.io", "Sam", "Stranger")
	list, _ := f.lists.Create(ctx, owner, "Weekend")

	f.store.listReads.Store(0)
	_, err := f.lists.Invite(ctx, owner, "missing-list", " O@x.io")
	assert.Equal(t, apperr.KindInvalidRequest, kindOf(err))

	_, err = f.lists.Invite(ctx, stranger, list.ID, stranger.Email)
	assert.Equal(t, apperr.KindInvalidRequest, kindOf(err))
	assert.Zero(t, f.store.listReads.Load())
}

func TestNewDocumentsUseCurrentName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "o@x.io", "Olga", "Owner")
	member := f.register(t, "m@x.io", "Max", "Member")

	_, err := f.users.EditDetails(ctx, owner, owner.UserID, "Olivia", "Renamed")
	require.NoError(t, err)

	// owner still carries the identity issued before the rename
	list, err := f.lists.Create(ctx, owner, "Weekend")
	require.NoError(t, err)
	assert.Equal(t, "Olivia Renamed", list.Owner.Name)
	assert.Equal(t, "Olivia Renamed", list.Members[0].Name)

	inv, err := f.lists.Invite(ctx, owner, list.ID, member.Email)
	require.NoError(t, err)
	assert.Equal(t, "Olivia Renamed", inv.InvitedBy)

	pending, err := f.users.Invitations(ctx, member)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Olivia Renamed", pending[0].InvitedBy)
}

func TestMemberCanLeaveButNotRemoveOthers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "o@x.io", "Olga", "Owner")
	a := f.register(t, "a@x.io", "Ann", "A")
	b := f.register(t, "b@x.io", "Ben", "B")
	list, _ := f.lists.Create(ctx, owner, "Weekend")
	for _, u := range []models.Identity{a, b} {
		_, err := f.lists.Invite(ctx, owner, list.ID, u.Email)
		require.NoError(t, err)
		require.NoError(t, f.users.AcceptInvitation(ctx, u, list.ID))
	}

	err := f.lists.RemoveMember(ctx, a, list.ID, b.UserID)
	assert.Equal(t, apperr.KindForbidden, kindOf(err))

	require.NoError(t, f.lists.RemoveMember(ctx, a, list.ID, a.UserID))
	err = f.lists.RemoveMember(ctx, owner, list.ID, a.UserID)
	assert.Equal(t, apperr.KindNotFound, kindOf(err))
}

func TestDeclineAndCancelInvitation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "o@x.io", "Olga", "Owner")
	member := f.register(t, "m@x.io", "Max", "Member")
	list, _ := f.lists.Create(ctx, owner, "Weekend")

	_, _ = f.lists.Invite(ctx, owner, list.ID, member.Email)
	require.NoError(t, f.users.DeclineInvitation(ctx, member, list.ID))
	err := f.users.DeclineInvitation(ctx, member, list.ID)
	assert.Equal(t, apperr.KindNotFound, kindOf(err))

	_, _ = f.lists.Invite(ctx, owner, list.ID, member.Email)
	require.NoError(t, f.lists.CancelInvitation(ctx, owner, list.ID, member.UserID))
	err = f.users.AcceptInvitation(ctx, member, list.ID)
	assert.Equal(t, apperr.KindNotFound, kindOf(err))
}

func TestDeleteListDropsInvitations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "o@x.io", "Olga", "Owner")
	member := f.register(t, "m@x.io", "Max", "Member")
	list, _ := f.lists.Create(ctx, owner, "Weekend")
	_, _ = f.lists.Invite(ctx, owner, list.ID, member.Email)

	require.NoError(t, f.lists.Delete(ctx, owner, list.ID))
	invs, err := f.users.Invitations(ctx, member)
	require.NoError(t, err)
	assert.Empty(t, invs)
}

func TestAcceptFailureOnlyLogsByDefault(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "o@x.io", "Olga", "Owner")
	member := f.register(t, "m@x.io", "Max", "Member")
	list, _ := f.lists.Create(ctx, owner, "Weekend")
	_, _ = f.lists.Invite(ctx, owner, list.ID, member.Email)

	f.store.addMember = func(context.Context, string, models.MemberRef) (store.Result, error) {
		return store.Result{}, errors.New("primary stepped down")
	}
	err := f.users.AcceptInvitation(ctx, member, list.ID)
	assert.Equal(t, apperr.KindStorage, kindOf(err))

	invs, _ := f.users.Invitations(ctx, member)
	assert.Empty(t, invs, "invitation stays consumed")

	// recovery is a fresh invitation from the owner
	f.store.addMember = nil
	_, err = f.lists.Invite(ctx, owner, list.ID, member.Email)
	require.NoError(t, err)
	require.NoError(t, f.users.AcceptInvitation(ctx, member, list.ID))
}

func TestAcceptRestoresInvitationWhenJoinFails(t *testing.T) {
	f := newFixtureWith(t, restoring)
	ctx := context.Background()
	owner := f.register(t, "o@x.io", "Olga", "Owner")
	member := f.register(t, "m@x.io", "Max", "Member")
	list, _ := f.lists.Create(ctx, owner, "Weekend")
	_, _ = f.lists.Invite(ctx, owner, list.ID, member.Email)

	f.store.addMember = func(context.Context, string, models.MemberRef) (store.Result, error) {
		return store.Result{}, errors.New("primary stepped down")
	}
	err := f.users.AcceptInvitation(ctx, member, list.ID)
	assert.Equal(t, apperr.KindStorage, kindOf(err))

	invs, _ := f.users.Invitations(ctx, member)
	require.Len(t, invs, 1, "invitation is re-issued after a failed join")

	f.store.addMember = nil
	require.NoError(t, f.users.AcceptInvitation(ctx, member, list.ID))
	got, _ := f.lists.Get(ctx, member, list.ID)
	assert.True(t, got.IsMember(member.UserID))
}

func TestAcceptUnacknowledgedJoinIsStorageError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "o@x.io", "Olga", "Owner")
	member := f.register(t, "m@x.io", "Max", "Member")
	list, _ := f.lists.Create(ctx, owner, "Weekend")
	_, _ = f.lists.Invite(ctx, owner, list.ID, member.Email)

	f.store.addMember = func(context.Context, string, models.MemberRef) (store.Result, error) {
		return store.Result{Acknowledged: false, Matched: 1, Changed: 1}, nil
	}
	err := f.users.AcceptInvitation(ctx, member, list.ID)
	assert.Equal(t, apperr.KindStorage, kindOf(err))
}

func TestAcceptSkipsJoinAfterCancellation(t *testing.T) {
	f := newFixtureWith(t, restoring)
	owner := f.register(t, "o@x.io", "Olga", "Owner")
	member := f.register(t, "m@x.io", "Max", "Member")
	list, _ := f.lists.Create(context.Background(), owner, "Weekend")
	_, _ = f.lists.Invite(context.Background(), owner, list.ID, member.Email)

	ctx, cancel := context.WithCancel(context.Background())
	f.store.removeInvitation = func(c context.Context, userID, listID string) (store.Result, error) {
		res, err := f.store.Store.RemoveInvitation(c, userID, listID)
		cancel()
		return res, err
	}
	joined := false
	f.store.addMember = func(context.Context, string, models.MemberRef) (store.Result, error) {
		joined = true
		return store.Applied, nil
	}

	err := f.users.AcceptInvitation(ctx, member, list.ID)
	assert.Error(t, err)
	assert.False(t, joined)

	f.store.removeInvitation = nil
	invs, _ := f.users.Invitations(context.Background(), member)
	assert.Len(t, invs, 1)
}

func TestAcceptAfterListDeleted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "o@x.io", "Olga", "Owner")
	member := f.register(t, "m@x.io", "Max", "Member")
	list, _ := f.lists.Create(ctx, owner, "Weekend")
	_, _ = f.lists.Invite(ctx, owner, list.ID, member.Email)

	// Delete the list without the invitation cleanup.
	_, err := f.store.Store.DeleteList(ctx, list.ID)
	require.NoError(t, err)

	err = f.users.AcceptInvitation(ctx, member, list.ID)
	assert.Equal(t, apperr.KindNotFound, kindOf(err))
}

func TestConcurrentAcceptJoinsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "o@x.io", "Olga", "Owner")
	member := f.register(t, "m@x.io", "Max", "Member")
	list, _ := f.lists.Create(ctx, owner, "Weekend")
	_, _ = f.lists.Invite(ctx, owner, list.ID, member.Email)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = f.users.AcceptInvitation(ctx, member, list.ID)
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
		} else {
			assert.Equal(t, apperr.KindNotFound, kindOf(err))
		}
	}
	assert.Equal(t, 1, ok)

	got, _ := f.lists.Get(ctx, owner, list.ID)
	count := 0
	for _, m := range got.Members {
		if m.UserID == member.UserID {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "Ada@X.io", "Ada", "Byron")

	_, err := f.users.Register(ctx, models.CreateUserRequest{Email: "ada@x.io", Password: "secret123", FirstName: "A", LastName: "B"})
	assert.Equal(t, apperr.KindDuplicate, kindOf(err))

	token, id, err := f.users.Login(ctx, "ADA@x.io", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "ada@x.io", id.Email)
	assert.Equal(t, "token-"+id.UserID, token)

	_, _, err = f.users.Login(ctx, "ada@x.io", "wrong")
	assert.Equal(t, apperr.KindAuthFailed, kindOf(err))
	_, _, err = f.users.Login(ctx, "nobody@x.io", "secret123")
	assert.Equal(t, apperr.KindNotFound, kindOf(err))
}

func TestEditDetailsSyncsMemberNames(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "o@x.io", "Olga", "Owner")
	other := f.register(t, "m@x.io", "Max", "Member")
	list, _ := f.lists.Create(ctx, owner, "Weekend")

	_, err := f.users.EditDetails(ctx, other, owner.UserID, "X", "Y")
	assert.Equal(t, apperr.KindForbidden, kindOf(err))

	user, err := f.users.EditDetails(ctx, owner, owner.UserID, "Olga", "Renamed")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", user.LastName)

	got, _ := f.lists.Get(ctx, owner, list.ID)
	assert.Equal(t, "Olga Renamed", got.Owner.Name)
	assert.Equal(t, "Olga Renamed", got.Members[0].Name)

	_, err = f.users.EditDetails(ctx, other, other.UserID, "Max", "Member")
	assert.NoError(t, err, "a user in no lists can still edit their profile")
}

func TestListsOfIsSelfOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "o@x.io", "Olga", "Owner")
	other := f.register(t, "m@x.io", "Max", "Member")
	_, _ = f.lists.Create(ctx, owner, "Weekend")

	lists, err := f.users.Lists(ctx, owner, owner.UserID)
	require.NoError(t, err)
	assert.Len(t, lists, 1)

	_, err = f.users.Lists(ctx, other, owner.UserID)
	assert.Equal(t, apperr.KindForbidden, kindOf(err))
}

func TestValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "o@x.io", "Olga", "Owner")

	_, err := f.lists.Create(ctx, owner, "   ")
	assert.Equal(t, apperr.KindInvalidRequest, kindOf(err))
	_, err = f.lists.Create(ctx, owner, "a name that is far too long for a list")
	assert.Equal(t, apperr.KindInvalidRequest, kindOf(err))

	list, _ := f.lists.Create(ctx, owner, "Weekend")
	bogus := models.ListStatus("deleted")
	_, err = f.lists.Update(ctx, owner, list.ID, models.ListFieldsUpdate{Status: &bogus})
	assert.Equal(t, apperr.KindInvalidRequest, kindOf(err))
	_, err = f.lists.Update(ctx, owner, list.ID, models.ListFieldsUpdate{})
	assert.Equal(t, apperr.KindInvalidRequest, kindOf(err))
}

func TestItemSuggestions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "o@x.io", "Olga", "Owner")
	a, _ := f.lists.Create(ctx, owner, "A")
	b, _ := f.lists.Create(ctx, owner, "B")
	for _, name := range []string{"Milk", "Bread", "milk"} {
		_, err := f.lists.AddItem(ctx, owner, a.ID, name)
		require.NoError(t, err)
	}
	_, _ = f.lists.AddItem(ctx, owner, b.ID, "Butter")

	got, err := f.lists.ItemSuggestions(ctx, owner, "", 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 2, got[0].Frequency)
	assert.Equal(t, "milk", strings.ToLower(got[0].Name))

	got, err = f.lists.ItemSuggestions(ctx, owner, "BU", 10)
	require.NoError(t, err)
	assert.Equal(t, []models.ItemSuggestion{{Name: "Butter", Frequency: 1}}, got)

	got, err = f.lists.ItemSuggestions(ctx, owner, "IL", 0)
	require.NoError(t, err)
	require.Len(t, got, 1, "the filter matches anywhere in the name")
	assert.Equal(t, "milk", strings.ToLower(got[0].Name))
}

func TestItemSuggestionsLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "o@x.io", "Olga", "Owner")
	list, _ := f.lists.Create(ctx, owner, "Bulk")
	for i := 0; i < 105; i++ {
		_, err := f.lists.AddItem(ctx, owner, list.ID, fmt.Sprintf("item %03d", i))
		require.NoError(t, err)
	}

	got, err := f.lists.ItemSuggestions(ctx, owner, "", 0)
	require.NoError(t, err)
	assert.Len(t, got, 20)

	got, err = f.lists.ItemSuggestions(ctx, owner, "", 500)
	require.NoError(t, err)
	assert.Len(t, got, 100)
}

func strPtr(s string) *string { return &s }
