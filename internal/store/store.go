// Package store defines the document-store contract used by the services.
//
// Every mutation is a single conditional write on one document: the
// precondition travels with the write (as a filter or WHERE clause) and the
// caller learns the outcome from the returned Result. There are no
// multi-document transactions.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/PepaPanda/uu-backend-project/internal/models"
)

var (
	ErrNotFound  = errors.New("store: document not found")
	ErrDuplicate = errors.New("store: duplicate key")
)

// Result reports what a conditional write did. Changed is the number of
// documents modified, inserted or deleted, depending on the write. Inserts
// report Matched=1 since they carry no precondition.
type Result struct {
	Acknowledged bool
	Matched      int64
	Changed      int64
}

// Applied is the Result of a write that matched and changed one document.
var Applied = Result{Acknowledged: true, Matched: 1, Changed: 1}

type ListStore interface {
	FindListByID(ctx context.Context, id string) (*models.ShoppingList, error)
	FindListsByMember(ctx context.Context, userID string) ([]*models.ShoppingList, error)
	InsertList(ctx context.Context, list *models.ShoppingList) (Result, error)
	DeleteList(ctx context.Context, id string) (Result, error)

	// UpdateListFields applies upd. When the status changes, archived_at is
	// derived from the previously stored status inside the same write.
	UpdateListFields(ctx context.Context, id string, upd models.ListFieldsUpdate, now time.Time) (Result, error)

	// AddMember appends m unless a member with the same user id exists.
	AddMember(ctx context.Context, listID string, m models.MemberRef) (Result, error)
	// RemoveMember pulls userID from members unless userID is the owner.
	RemoveMember(ctx context.Context, listID, userID string) (Result, error)

	InsertItem(ctx context.Context, listID string, item models.Item) (Result, error)
	UpdateItem(ctx context.Context, listID, itemID string, upd models.ItemUpdate) (Result, error)
	DeleteItem(ctx context.Context, listID, itemID string) (Result, error)

	// RenameMember rewrites the denormalised name of userID in every list.
	RenameMember(ctx context.Context, userID, name string) (Result, error)
}

type UserStore interface {
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	// InsertUser returns ErrDuplicate when the email is taken.
	InsertUser(ctx context.Context, user *models.User) (Result, error)
	UpdateUserNames(ctx context.Context, id, firstName, lastName string) (Result, error)

	// AddInvitation appends inv to the user with the given email unless an
	// invitation for the same list is already present.
	AddInvitation(ctx context.Context, email string, inv models.Invitation) (Result, error)
	// RemoveInvitation pulls the invitation for listID, matching only when present.
	RemoveInvitation(ctx context.Context, userID, listID string) (Result, error)
	// PullInvitationsForList drops every pending invitation to listID.
	PullInvitationsForList(ctx context.Context, listID string) (Result, error)
}

// Store is a complete backend.
type Store interface {
	ListStore
	UserStore
	Close(ctx context.Context) error
}
