package models

import "time"

type ListStatus string

const (
	ListStatusActive   ListStatus = "active"
	ListStatusArchived ListStatus = "archived"
)

func (s ListStatus) Valid() bool {
	return s == ListStatusActive || s == ListStatusArchived
}

// MemberRef is the denormalised copy of a user stored inside a list document.
type MemberRef struct {
	UserID string `json:"user_id" bson:"user_id"`
	Name   string `json:"name" bson:"name"`
	Email  string `json:"email" bson:"email"`
}

type Item struct {
	ID       string `json:"id" bson:"id"`
	Name     string `json:"name" bson:"name"`
	Resolved bool   `json:"resolved" bson:"resolved"`
}

type ShoppingList struct {
	ID         string      `json:"id" bson:"_id"`
	Name       string      `json:"name" bson:"name"`
	Status     ListStatus  `json:"status" bson:"status"`
	Owner      MemberRef   `json:"owner" bson:"owner"`
	Members    []MemberRef `json:"members" bson:"members"`
	Items      []Item      `json:"items" bson:"items"`
	CreatedAt  time.Time   `json:"created_at" bson:"created_at"`
	ArchivedAt *time.Time  `json:"archived_at" bson:"archived_at"`
}

func (l *ShoppingList) IsOwner(userID string) bool {
	return l.Owner.UserID == userID
}

func (l *ShoppingList) IsMember(userID string) bool {
	for _, m := range l.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

func (l *ShoppingList) Item(itemID string) (Item, bool) {
	for _, it := range l.Items {
		if it.ID == itemID {
			return it, true
		}
	}
	return Item{}, false
}

// Clone returns a deep copy of the list.
func (l *ShoppingList) Clone() *ShoppingList {
	c := *l
	c.Members = append([]MemberRef(nil), l.Members...)
	c.Items = append([]Item(nil), l.Items...)
	if l.ArchivedAt != nil {
		t := *l.ArchivedAt
		c.ArchivedAt = &t
	}
	return &c
}

// ListFieldsUpdate is a patch of the owner-editable list fields. Nil means unchanged.
type ListFieldsUpdate struct {
	Name   *string
	Status *ListStatus
}

func (u ListFieldsUpdate) Empty() bool {
	return u.Name == nil && u.Status == nil
}

// ItemUpdate is a patch of an item. Nil means unchanged.
type ItemUpdate struct {
	Name     *string
	Resolved *bool
}

func (u ItemUpdate) Empty() bool {
	return u.Name == nil && u.Resolved == nil
}

type CreateListRequest struct {
	Name string `json:"name" validate:"required,min=1,max=30"`
}

type UpdateListRequest struct {
	Name   *string     `json:"name,omitempty" validate:"omitempty,min=1,max=30"`
	Status *ListStatus `json:"status,omitempty" validate:"omitempty,oneof=active archived"`
}

type CreateItemRequest struct {
	Name string `json:"name" validate:"required,min=1,max=50"`
}

type UpdateItemRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=1,max=50"`
	Resolved *bool   `json:"resolved,omitempty"`
}

type InviteRequest struct {
	Email string `json:"email" validate:"required,email"`
}
