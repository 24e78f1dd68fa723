package models

import (
	"strings"
	"time"
)

// Identity is the authenticated principal carried in the access token.
type Identity struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (i Identity) FullName() string {
	return strings.TrimSpace(i.FirstName + " " + i.LastName)
}

type User struct {
	ID           string       `json:"id" bson:"_id"`
	Email        string       `json:"email" bson:"email"`
	PasswordHash string       `json:"-" bson:"password_hash"`
	FirstName    string       `json:"first_name" bson:"first_name"`
	LastName     string       `json:"last_name" bson:"last_name"`
	Invitations  []Invitation `json:"invitations" bson:"invitations"`
	CreatedAt    time.Time    `json:"created_at" bson:"created_at"`
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *User) Identity() Identity {
	return Identity{UserID: u.ID, Email: u.Email, FirstName: u.FirstName, LastName: u.LastName}
}

// HasInvitation reports whether the user holds a pending invitation to listID.
func (u *User) HasInvitation(listID string) bool {
	for _, inv := range u.Invitations {
		if inv.ListID == listID {
			return true
		}
	}
	return false
}

// Invitation is a pending offer of list membership, embedded in the invitee's user record.
type Invitation struct {
	ListID    string    `json:"list_id" bson:"list_id"`
	ListName  string    `json:"list_name" bson:"list_name"`
	InvitedBy string    `json:"invited_by" bson:"invited_by"`
	InvitedAt time.Time `json:"invited_at" bson:"invited_at"`
}

// NormalizeEmail lowercases and trims an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type CreateUserRequest struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Password  string `json:"password" validate:"required,min=6,max=72"`
	FirstName string `json:"first_name" validate:"required,min=1,max=100"`
	LastName  string `json:"last_name" validate:"required,min=1,max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token string   `json:"token"`
	User  Identity `json:"user"`
}

type UpdateUserRequest struct {
	FirstName string `json:"first_name" validate:"required,min=1,max=100"`
	LastName  string `json:"last_name" validate:"required,min=1,max=100"`
}
