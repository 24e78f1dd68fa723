package models

import "time"

// Notification types published when lists change.
const (
	NotificationListUpdated       = "list_updated"
	NotificationListDeleted       = "list_deleted"
	NotificationItemChanged       = "item_changed"
	NotificationMemberAdded       = "member_added"
	NotificationMemberRemoved     = "member_removed"
	NotificationInvitationSent    = "invitation_sent"
	NotificationInvitationDropped = "invitation_dropped"
)

// Notification describes a change to a shopping list. UserID, when set, is the
// user the change is addressed to (the invitee or the removed member).
type Notification struct {
	Type      string    `json:"type"`
	ListID    string    `json:"list_id"`
	UserID    string    `json:"user_id,omitempty"`
	ActorID   string    `json:"actor_id"`
	Data      any       `json:"data,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ItemSuggestion is a previously used item name ranked by how often it appears.
type ItemSuggestion struct {
	Name      string `json:"name"`
	Frequency int    `json:"frequency"`
}
