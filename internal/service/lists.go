package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/PepaPanda/uu-backend-project/internal/apperr"
	"github.com/PepaPanda/uu-backend-project/internal/authz"
	"github.com/PepaPanda/uu-backend-project/internal/models"
	"github.com/PepaPanda/uu-backend-project/internal/mutation"
	"github.com/PepaPanda/uu-backend-project/internal/store"
)

type ListService struct {
	base
}

func NewListService(o Options) *ListService {
	return &ListService{base: newBase(o)}
}

func (s *ListService) Create(ctx context.Context, actor models.Identity, name string) (*models.ShoppingList, error) {
	const op = "list.create"
	name, err := cleanName(op, "name", name, maxListName)
	if err != nil {
		return nil, err
	}

	owner, err := s.memberRef(ctx, op, actor)
	if err != nil {
		return nil, err
	}
	list := &models.ShoppingList{
		ID:        s.newID(),
		Name:      name,
		Status:    models.ListStatusActive,
		Owner:     owner,
		Members:   []models.MemberRef{owner},
		Items:     []models.Item{},
		CreatedAt: s.now(),
	}
	_, err = s.proto.Run(ctx, op, mutation.Expect{}, func(ctx context.Context) (store.Result, error) {
		return s.store.InsertList(ctx, list)
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (s *ListService) Get(ctx context.Context, actor models.Identity, listID string) (*models.ShoppingList, error) {
	return s.authorize(ctx, "list.get", actor.UserID, listID, authz.Member)
}

// Authorize reports whether actorID may read listID.
func (s *ListService) Authorize(ctx context.Context, actorID, listID string) error {
	_, err := s.authorize(ctx, "list.subscribe", actorID, listID, authz.Member)
	return err
}

func (s *ListService) Delete(ctx context.Context, actor models.Identity, listID string) error {
	const op = "list.delete"
	if _, err := s.authorize(ctx, op, actor.UserID, listID, authz.Owner); err != nil {
		return err
	}
	_, err := s.proto.Run(ctx, op, mutation.Expect{NoMatchMsg: msgListNotFound}, func(ctx context.Context) (store.Result, error) {
		return s.store.DeleteList(ctx, listID)
	})
	if err != nil {
		return err
	}

	// Pending invitations would otherwise point at a list that no longer exists.
	if _, err := s.store.PullInvitationsForList(ctx, listID); err != nil {
		s.log.WithError(err).WithField("list_id", listID).Warn("failed to drop invitations of deleted list")
	}
	s.publish(ctx, models.NotificationListDeleted, listID, "", actor.UserID, nil)
	return nil
}

func (s *ListService) Update(ctx context.Context, actor models.Identity, listID string, upd models.ListFieldsUpdate) (*models.ShoppingList, error) {
	const op = "list.update"
	if upd.Empty() {
		return nil, apperr.Invalid(op, "Nothing to update")
	}
	if upd.Name != nil {
		name, err := cleanName(op, "name", *upd.Name, maxListName)
		if err != nil {
			return nil, err
		}
		upd.Name = &name
	}
	if upd.Status != nil && !upd.Status.Valid() {
		return nil, apperr.Invalid(op, "status must be active or archived")
	}
	if _, err := s.authorize(ctx, op, actor.UserID, listID, authz.Owner); err != nil {
		return nil, err
	}

	_, err := s.proto.Run(ctx, op, mutation.Expect{NoMatchMsg: msgListNotFound}, func(ctx context.Context) (store.Result, error) {
		return s.store.UpdateListFields(ctx, listID, upd, s.now())
	})
	if err != nil {
		return nil, err
	}

	list, err := s.loadList(ctx, op, listID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		return nil, apperr.NotFound(op, msgListNotFound)
	}
	s.publish(ctx, models.NotificationListUpdated, listID, "", actor.UserID, list)
	return list, nil
}

func (s *ListService) Members(ctx context.Context, actor models.Identity, listID string) ([]models.MemberRef, error) {
	list, err := s.authorize(ctx, "list.members", actor.UserID, listID, authz.Member)
	if err != nil {
		return nil, err
	}
	return list.Members, nil
}

// RemoveMember lets the owner remove anyone but themselves and lets members
// leave on their own.
func (s *ListService) RemoveMember(ctx context.Context, actor models.Identity, listID, targetID string) error {
	const op = "list.remove_member"
	list, err := s.loadList(ctx, op, listID)
	if err != nil {
		return err
	}
	switch d := authz.CanRemoveMember(actor.UserID, targetID, list); d {
	case authz.Allowed:
	case authz.Invalid:
		return d.Err(op, "The owner cannot be removed from the shopping list")
	case authz.Forbidden:
		return d.Err(op, "Only the owner can remove other members")
	default:
		return d.Err(op, msgListNotFound)
	}

	_, err = s.proto.Run(ctx, op, mutation.Expect{
		NoMatchMsg:   msgListNotFound,
		Unchanged:    apperr.KindNotFound,
		UnchangedMsg: "User is not a member of this shopping list",
	}, func(ctx context.Context) (store.Result, error) {
		return s.store.RemoveMember(ctx, listID, targetID)
	})
	if err != nil {
		return err
	}
	s.publish(ctx, models.NotificationMemberRemoved, listID, targetID, actor.UserID, nil)
	return nil
}

// Invite adds an invitation for the user registered under email.
func (s *ListService) Invite(ctx context.Context, actor models.Identity, listID, email string) (*models.Invitation, error) {
	const op = "list.invite"
	email = models.NormalizeEmail(email)
	if authz.IsSelfInvite(actor, email) {
		return nil, authz.Invalid.Err(op, "You cannot invite yourself")
	}
	list, err := s.loadList(ctx, op, listID)
	if err != nil {
		return nil, err
	}
	switch d := authz.CanInvite(actor, email, list); d {
	case authz.Allowed:
	case authz.Invalid:
		return nil, d.Err(op, "You cannot invite yourself")
	default:
		return nil, d.Err(op, denialMessage(d, authz.Owner))
	}

	invitee, err := s.store.FindUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound(op, "User with this email does not exist")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStorage, op, "Failed to load user", err)
	}
	if list.IsMember(invitee.ID) {
		return nil, apperr.Duplicate(op, "User is already a member of this shopping list")
	}

	inviter, err := s.memberRef(ctx, op, actor)
	if err != nil {
		return nil, err
	}
	inv := models.Invitation{
		ListID:    list.ID,
		ListName:  list.Name,
		InvitedBy: inviter.Name,
		InvitedAt: s.now(),
	}
	_, err = s.proto.Run(ctx, op, mutation.Expect{
		NoMatch:      apperr.KindDuplicate,
		NoMatchMsg:   "User has already been invited to this shopping list",
		Unchanged:    apperr.KindStorage,
		UnchangedMsg: "Invitation was not stored",
	}, func(ctx context.Context) (store.Result, error) {
		return s.store.AddInvitation(ctx, email, inv)
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, models.NotificationInvitationSent, listID, invitee.ID, actor.UserID, inv)
	return &inv, nil
}

// CancelInvitation withdraws a pending invitation before it is accepted.
func (s *ListService) CancelInvitation(ctx context.Context, actor models.Identity, listID, userID string) error {
	const op = "list.cancel_invitation"
	if _, err := s.authorize(ctx, op, actor.UserID, listID, authz.Owner); err != nil {
		return err
	}
	_, err := s.proto.Run(ctx, op, mutation.Expect{
		NoMatchMsg:   "Invitation not found",
		Unchanged:    apperr.KindStorage,
		UnchangedMsg: "Invitation was not removed",
	}, func(ctx context.Context) (store.Result, error) {
		return s.store.RemoveInvitation(ctx, userID, listID)
	})
	if err != nil {
		return err
	}
	s.publish(ctx, models.NotificationInvitationDropped, listID, userID, actor.UserID, nil)
	return nil
}

func (s *ListService) Items(ctx context.Context, actor models.Identity, listID string) ([]models.Item, error) {
	list, err := s.authorize(ctx, "item.list", actor.UserID, listID, authz.Member)
	if err != nil {
		return nil, err
	}
	if list.Items == nil {
		return []models.Item{}, nil
	}
	return list.Items, nil
}

func (s *ListService) AddItem(ctx context.Context, actor models.Identity, listID, name string) (*models.Item, error) {
	const op = "item.add"
	name, err := cleanName(op, "name", name, maxItemName)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorize(ctx, op, actor.UserID, listID, authz.Member); err != nil {
		return nil, err
	}

	item := models.Item{ID: s.newID(), Name: name}
	_, err = s.proto.Run(ctx, op, mutation.Expect{
		NoMatchMsg:   msgListNotFound,
		Unchanged:    apperr.KindStorage,
		UnchangedMsg: "Item was not stored",
	}, func(ctx context.Context) (store.Result, error) {
		return s.store.InsertItem(ctx, listID, item)
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, models.NotificationItemChanged, listID, "", actor.UserID, itemEvent(item, "added"))
	return &item, nil
}

// UpdateItem is idempotent: setting an item to the values it already has succeeds.
func (s *ListService) UpdateItem(ctx context.Context, actor models.Identity, listID, itemID string, upd models.ItemUpdate) (*models.Item, error) {
	const op = "item.update"
	if upd.Empty() {
		return nil, apperr.Invalid(op, "Nothing to update")
	}
	if upd.Name != nil {
		name, err := cleanName(op, "name", *upd.Name, maxItemName)
		if err != nil {
			return nil, err
		}
		upd.Name = &name
	}
	if _, err := s.authorize(ctx, op, actor.UserID, listID, authz.Member); err != nil {
		return nil, err
	}

	_, err := s.proto.Run(ctx, op, mutation.Expect{NoMatchMsg: "Item not found"}, func(ctx context.Context) (store.Result, error) {
		return s.store.UpdateItem(ctx, listID, itemID, upd)
	})
	if err != nil {
		return nil, err
	}

	list, err := s.loadList(ctx, op, listID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		return nil, apperr.NotFound(op, msgListNotFound)
	}
	item, ok := list.Item(itemID)
	if !ok {
		return nil, apperr.NotFound(op, "Item not found")
	}
	s.publish(ctx, models.NotificationItemChanged, listID, "", actor.UserID, itemEvent(item, "updated"))
	return &item, nil
}

func (s *ListService) DeleteItem(ctx context.Context, actor models.Identity, listID, itemID string) error {
	const op = "item.delete"
	if _, err := s.authorize(ctx, op, actor.UserID, listID, authz.Member); err != nil {
		return err
	}
	_, err := s.proto.Run(ctx, op, mutation.Expect{
		NoMatchMsg:   "Item not found",
		Unchanged:    apperr.KindStorage,
		UnchangedMsg: "Item was not removed",
	}, func(ctx context.Context) (store.Result, error) {
		return s.store.DeleteItem(ctx, listID, itemID)
	})
	if err != nil {
		return err
	}
	s.publish(ctx, models.NotificationItemChanged, listID, "", actor.UserID, itemEvent(models.Item{ID: itemID}, "deleted"))
	return nil
}

// ItemSuggestions ranks item names used in the actor's lists by frequency.
// A non-empty query keeps names containing it, case-insensitively.
func (s *ListService) ItemSuggestions(ctx context.Context, actor models.Identity, query string, limit int) ([]models.ItemSuggestion, error) {
	if limit <= 0 {
		limit = defaultSuggestions
	}
	if limit > maxSuggestions {
		limit = maxSuggestions
	}
	lists, err := s.store.FindListsByMember(ctx, actor.UserID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStorage, "item.suggestions", "Failed to fetch memory items", err)
	}

	query = strings.ToLower(strings.TrimSpace(query))
	counts := make(map[string]*models.ItemSuggestion)
	for _, l := range lists {
		for _, it := range l.Items {
			key := strings.ToLower(it.Name)
			if query != "" && !strings.Contains(key, query) {
				continue
			}
			if sg, ok := counts[key]; ok {
				sg.Frequency++
				continue
			}
			counts[key] = &models.ItemSuggestion{Name: it.Name, Frequency: 1}
		}
	}

	out := make([]models.ItemSuggestion, 0, len(counts))
	for _, sg := range counts {
		out = append(out, *sg)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Frequency != out[j].Frequency {
			return out[i].Frequency > out[j].Frequency
		}
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type itemChange struct {
	Action string      `json:"action"`
	Item   models.Item `json:"item"`
}

func itemEvent(item models.Item, action string) itemChange {
	return itemChange{Action: action, Item: item}
}
