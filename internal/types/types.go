package types

import (
	"fmt"
	"time"
)

// Role is the closed set of account roles. Handlers switch on it
// exhaustively rather than comparing raw strings.
type Role string

const (
	RoleCreator Role = "creator"
	RoleEditor  Role = "editor"
	RoleAdmin   Role = "admin"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleCreator, RoleEditor, RoleAdmin:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

type User struct {
	Id           int       `json:"id"`
	Username     string    `json:"username"`
	EmailAddress string    `json:"email_address,omitempty"`
	Role         Role      `json:"role"`
	Password     string    `json:"-"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
	UpdatedAt    time.Time `json:"updated_at,omitempty"`
}

type Room struct {
	Id          int       `json:"id"`
	ExternalId  string    `json:"external_id"`
	CreatorId   int       `json:"creator_id"`
	EditorId    int       `json:"editor_id"`
	IsFrozen    bool      `json:"is_frozen"`
	IsEnded     bool      `json:"is_ended"`
	Counterpart *User     `json:"counterpart,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
}

type Message struct {
	Id       int       `json:"id"`
	RoomId   string    `json:"room_id"`
	SenderId int       `json:"sender_id"`
	Content  string    `json:"content"`
	Read     bool      `json:"read"`
	SentAt   time.Time `json:"sent_at"`
}

type Reminder struct {
	Id                   int       `json:"id"`
	RoomId               int       `json:"room_id"`
	RecipientId          int       `json:"recipient_id"`
	FirstUnreadMessageId int       `json:"first_unread_message_id"`
	ScheduledFor         time.Time `json:"scheduled_for"`
	Sent                 bool      `json:"sent"`
	Cancelled            bool      `json:"cancelled"`
	CreatedAt            time.Time `json:"created_at,omitempty"`
}
