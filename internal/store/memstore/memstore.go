// Package memstore is an in-process implementation of store.Store. Each write
// evaluates its precondition and applies under one lock, which gives the same
// per-document atomicity the document databases provide.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/PepaPanda/uu-backend-project/internal/models"
	"github.com/PepaPanda/uu-backend-project/internal/store"
)

type Store struct {
	mu      sync.Mutex
	lists   map[string]*models.ShoppingList
	users   map[string]*models.User
	byEmail map[string]string
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		lists:   make(map[string]*models.ShoppingList),
		users:   make(map[string]*models.User),
		byEmail: make(map[string]string),
	}
}

func (s *Store) Close(context.Context) error { return nil }

var (
	noMatch = store.Result{Acknowledged: true}
	matched = store.Result{Acknowledged: true, Matched: 1}
)

func changed(ok bool) store.Result {
	if ok {
		return store.Applied
	}
	return matched
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.Invitations = append([]models.Invitation(nil), u.Invitations...)
	return &c
}

// Lists

func (s *Store) FindListByID(ctx context.Context, id string) (*models.ShoppingList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lists[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return l.Clone(), nil
}

func (s *Store) FindListsByMember(ctx context.Context, userID string) ([]*models.ShoppingList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.ShoppingList
	for _, l := range s.lists {
		if l.IsMember(userID) {
			out = append(out, l.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) InsertList(ctx context.Context, list *models.ShoppingList) (store.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lists[list.ID]; ok {
		return store.Result{}, store.ErrDuplicate
	}
	s.lists[list.ID] = list.Clone()
	return store.Applied, nil
}

func (s *Store) DeleteList(ctx context.Context, id string) (store.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lists[id]; !ok {
		return noMatch, nil
	}
	delete(s.lists, id)
	return store.Applied, nil
}

func (s *Store) UpdateListFields(ctx context.Context, id string, upd models.ListFieldsUpdate, now time.Time) (store.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lists[id]
	if !ok {
		return noMatch, nil
	}
	dirty := false
	if upd.Name != nil && *upd.Name != l.Name {
		l.Name = *upd.Name
		dirty = true
	}
	if upd.Status != nil {
		next := store.NextArchivedAt(l.Status, l.ArchivedAt, *upd.Status, now)
		if next != l.ArchivedAt {
			l.ArchivedAt = next
			dirty = true
		}
		if *upd.Status != l.Status {
			l.Status = *upd.Status
			dirty = true
		}
	}
	return changed(dirty), nil
}

func (s *Store) AddMember(ctx context.Context, listID string, m models.MemberRef) (store.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lists[listID]
	if !ok || l.IsMember(m.UserID) {
		return noMatch, nil
	}
	l.Members = append(l.Members, m)
	return store.Applied, nil
}

func (s *Store) RemoveMember(ctx context.Context, listID, userID string) (store.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lists[listID]
	if !ok || l.Owner.UserID == userID {
		return noMatch, nil
	}
	for i, m := range l.Members {
		if m.UserID == userID {
			l.Members = append(l.Members[:i], l.Members[i+1:]...)
			return store.Applied, nil
		}
	}
	return matched, nil
}

func (s *Store) InsertItem(ctx context.Context, listID string, item models.Item) (store.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lists[listID]
	if !ok {
		return noMatch, nil
	}
	l.Items = append(l.Items, item)
	return store.Applied, nil
}

func (s *Store) UpdateItem(ctx context.Context, listID, itemID string, upd models.ItemUpdate) (store.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lists[listID]
	if !ok {
		return noMatch, nil
	}
	for i := range l.Items {
		it := &l.Items[i]
		if it.ID != itemID {
			continue
		}
		dirty := false
		if upd.Name != nil && *upd.Name != it.Name {
			it.Name = *upd.Name
			dirty = true
		}
		if upd.Resolved != nil && *upd.Resolved != it.Resolved {
			it.Resolved = *upd.Resolved
			dirty = true
		}
		return changed(dirty), nil
	}
	return noMatch, nil
}

func (s *Store) DeleteItem(ctx context.Context, listID, itemID string) (store.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lists[listID]
	if !ok {
		return noMatch, nil
	}
	for i, it := range l.Items {
		if it.ID == itemID {
			l.Items = append(l.Items[:i], l.Items[i+1:]...)
			return store.Applied, nil
		}
	}
	return noMatch, nil
}

func (s *Store) RenameMember(ctx context.Context, userID, name string) (store.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := store.Result{Acknowledged: true}
	for _, l := range s.lists {
		if !l.IsMember(userID) {
			continue
		}
		res.Matched++
		dirty := false
		if l.Owner.UserID == userID && l.Owner.Name != name {
			l.Owner.Name = name
			dirty = true
		}
		for i := range l.Members {
			if l.Members[i].UserID == userID && l.Members[i].Name != name {
				l.Members[i].Name = name
				dirty = true
			}
		}
		if dirty {
			res.Changed++
		}
	}
	return res, nil
}

// Users

func (s *Store) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneUser(u), nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byEmail[email]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneUser(s.users[id]), nil
}

func (s *Store) InsertUser(ctx context.Context, user *models.User) (store.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[user.Email]; ok {
		return store.Result{}, store.ErrDuplicate
	}
	if _, ok := s.users[user.ID]; ok {
		return store.Result{}, store.ErrDuplicate
	}
	s.users[user.ID] = cloneUser(user)
	s.byEmail[user.Email] = user.ID
	return store.Applied, nil
}

func (s *Store) UpdateUserNames(ctx context.Context, id, firstName, lastName string) (store.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return noMatch, nil
	}
	dirty := u.FirstName != firstName || u.LastName != lastName
	u.FirstName, u.LastName = firstName, lastName
	return changed(dirty), nil
}

func (s *Store) AddInvitation(ctx context.Context, email string, inv models.Invitation) (store.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byEmail[email]
	if !ok {
		return noMatch, nil
	}
	u := s.users[id]
	if u.HasInvitation(inv.ListID) {
		return noMatch, nil
	}
	u.Invitations = append(u.Invitations, inv)
	return store.Applied, nil
}

func (s *Store) RemoveInvitation(ctx context.Context, userID, listID string) (store.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return noMatch, nil
	}
	for i, inv := range u.Invitations {
		if inv.ListID == listID {
			u.Invitations = append(u.Invitations[:i], u.Invitations[i+1:]...)
			return store.Applied, nil
		}
	}
	return noMatch, nil
}

func (s *Store) PullInvitationsForList(ctx context.Context, listID string) (store.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := store.Result{Acknowledged: true}
	for _, u := range s.users {
		for i, inv := range u.Invitations {
			if inv.ListID == listID {
				u.Invitations = append(u.Invitations[:i], u.Invitations[i+1:]...)
				res.Matched++
				res.Changed++
				break
			}
		}
	}
	return res, nil
}
