// Package service runs the shopping list operations: it loads the target
// document, asks authz whether the actor may proceed and then performs a
// single conditional write through the mutation protocol.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/PepaPanda/uu-backend-project/internal/apperr"
	"github.com/PepaPanda/uu-backend-project/internal/authz"
	"github.com/PepaPanda/uu-backend-project/internal/events"
	"github.com/PepaPanda/uu-backend-project/internal/models"
	"github.com/PepaPanda/uu-backend-project/internal/mutation"
	"github.com/PepaPanda/uu-backend-project/internal/store"
)

const (
	msgListNotFound = "Shopping list not found"
	msgUserNotFound = "User not found"
	msgNoAccess     = "You do not have access to this shopping list"
	msgOwnerOnly    = "Only the owner can perform this action"

	maxListName = 30
	maxItemName = 50

	defaultSuggestions = 20
	maxSuggestions     = 100
)

type Options struct {
	Store    store.Store
	Log      *logrus.Logger
	Notifier events.Notifier
	Now      func() time.Time
	NewID    func() string

	// RestoreInvitations re-issues an invitation that was consumed by an
	// accept whose membership write failed. Off, the failure is only logged.
	RestoreInvitations bool
}

type base struct {
	store  store.Store
	proto  *mutation.Protocol
	log    *logrus.Logger
	notify events.Notifier
	now    func() time.Time
	newID  func() string

	restoreInvitations bool
}

func newBase(o Options) base {
	b := base{
		store:  o.Store,
		proto:  mutation.NewProtocol(o.Log),
		log:    o.Log,
		notify: o.Notifier,
		now:    o.Now,
		newID:  o.NewID,

		restoreInvitations: o.RestoreInvitations,
	}
	if b.notify == nil {
		b.notify = events.Nop{}
	}
	if b.now == nil {
		b.now = func() time.Time { return time.Now().UTC() }
	}
	if b.newID == nil {
		b.newID = uuid.NewString
	}
	return b
}

// loadList returns the list, or nil when it does not exist.
func (b *base) loadList(ctx context.Context, op, id string) (*models.ShoppingList, error) {
	list, err := b.store.FindListByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		b.log.WithError(err).WithFields(logrus.Fields{"op": op, "list_id": id}).Error("failed to load shopping list")
		return nil, apperr.Wrap(apperr.KindStorage, op, "Failed to load shopping list", err)
	}
	return list, nil
}

// authorize loads the list and checks the actor holds role on it.
func (b *base) authorize(ctx context.Context, op, actorID, listID string, role authz.Role) (*models.ShoppingList, error) {
	list, err := b.loadList(ctx, op, listID)
	if err != nil {
		return nil, err
	}
	d := authz.CanActOnList(actorID, list, role)
	if d != authz.Allowed {
		b.log.WithFields(logrus.Fields{
			"op":       op,
			"list_id":  listID,
			"actor_id": actorID,
			"role":     role.String(),
			"decision": d.String(),
		}).Debug("authorization denied")
		return nil, d.Err(op, denialMessage(d, role))
	}
	return list, nil
}

func denialMessage(d authz.Decision, role authz.Role) string {
	switch {
	case d == authz.NotFound:
		return msgListNotFound
	case role == authz.Owner:
		return msgOwnerOnly
	default:
		return msgNoAccess
	}
}

func (b *base) loadUser(ctx context.Context, op, id string) (*models.User, error) {
	u, err := b.store.FindUserByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound(op, msgUserNotFound)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStorage, op, "Failed to load user", err)
	}
	return u, nil
}

// memberRef builds the denormalised reference to actor from the stored user,
// so names copied into new documents follow profile edits made after the
// token was issued.
func (b *base) memberRef(ctx context.Context, op string, actor models.Identity) (models.MemberRef, error) {
	u, err := b.loadUser(ctx, op, actor.UserID)
	if err != nil {
		return models.MemberRef{}, err
	}
	return models.MemberRef{UserID: u.ID, Name: u.FullName(), Email: u.Email}, nil
}

func (b *base) publish(ctx context.Context, kind, listID, userID, actorID string, data any) {
	b.notify.Notify(ctx, models.Notification{
		Type:      kind,
		ListID:    listID,
		UserID:    userID,
		ActorID:   actorID,
		Data:      data,
		CreatedAt: b.now(),
	})
}

// cleanName trims s and checks it holds between 1 and max characters.
func cleanName(op, field, s string, max int) (string, error) {
	s = strings.TrimSpace(s)
	n := utf8.RuneCountInString(s)
	if n == 0 {
		return "", apperr.Invalid(op, field+" must not be empty")
	}
	if n > max {
		return "", apperr.Invalid(op, fmt.Sprintf("%s must be at most %d characters", field, max))
	}
	return s, nil
}
