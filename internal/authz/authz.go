// Package authz holds the role checks for shopping lists. Every function is
// pure and runs before any write.
package authz

import (
	"github.com/PepaPanda/uu-backend-project/internal/apperr"
	"github.com/PepaPanda/uu-backend-project/internal/models"
)

type Decision int

const (
	Allowed Decision = iota
	Forbidden
	NotFound
	Invalid
)

func (d Decision) String() string {
	switch d {
	case Allowed:
		return "allowed"
	case Forbidden:
		return "forbidden"
	case NotFound:
		return "not_found"
	default:
		return "invalid"
	}
}

// Err converts a denial into an error for op. Allowed yields nil.
func (d Decision) Err(op, msg string) error {
	switch d {
	case Allowed:
		return nil
	case Forbidden:
		return apperr.Forbidden(op, msg)
	case NotFound:
		return apperr.NotFound(op, msg)
	default:
		return apperr.Invalid(op, msg)
	}
}

type Role int

const (
	Member Role = iota
	Owner
)

func (r Role) String() string {
	if r == Owner {
		return "owner"
	}
	return "member"
}

func CanActAsSelf(actorID, targetID string) bool {
	return actorID != "" && actorID == targetID
}

// CanActOnList checks actor against role on list. A nil list is NotFound.
func CanActOnList(actorID string, list *models.ShoppingList, role Role) Decision {
	if list == nil {
		return NotFound
	}
	switch role {
	case Owner:
		if list.IsOwner(actorID) {
			return Allowed
		}
	default:
		if list.IsMember(actorID) {
			return Allowed
		}
	}
	return Forbidden
}

// CanRemoveMember allows the owner or the member themselves. The owner can
// never be removed, whoever asks.
func CanRemoveMember(actorID, targetID string, list *models.ShoppingList) Decision {
	if list == nil {
		return NotFound
	}
	if list.IsOwner(targetID) {
		return Invalid
	}
	if list.IsOwner(actorID) || CanActAsSelf(actorID, targetID) {
		return Allowed
	}
	return Forbidden
}

// IsSelfInvite reports whether target, an id or an email, names the actor.
// It needs no list, so callers check it before touching the store.
func IsSelfInvite(actor models.Identity, target string) bool {
	return target == actor.UserID || models.NormalizeEmail(target) == models.NormalizeEmail(actor.Email)
}

// CanInvite rejects inviting oneself first, then requires ownership.
func CanInvite(actor models.Identity, target string, list *models.ShoppingList) Decision {
	if IsSelfInvite(actor, target) {
		return Invalid
	}
	return CanActOnList(actor.UserID, list, Owner)
}
