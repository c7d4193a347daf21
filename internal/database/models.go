package database

import (
	"time"

	"github.com/reelmatch/chat-service/internal/types"
)

type User struct {
	Id           int
	Username     string
	EmailAddress string
	PasswordHash string
	Role         types.Role
	Deleted      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Room struct {
	Id         int
	ExternalId string
	CreatorId  int
	EditorId   int
	IsFrozen   bool
	IsEnded    bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Participant reports whether userId is the room's creator or editor.
func (r Room) Participant(userId int) bool {
	return userId == r.CreatorId || userId == r.EditorId
}

// Recipient returns the other party of the room for a given sender.
func (r Room) Recipient(senderId int) int {
	if senderId == r.CreatorId {
		return r.EditorId
	}
	return r.CreatorId
}

// RoomWithCounterpart is a room row joined with the profile of the
// other party, as listed on a user's room index.
type RoomWithCounterpart struct {
	Room
	Counterpart User
}

type Message struct {
	Id        int
	RoomId    int
	SenderId  int
	Content   string
	Read      bool
	CreatedAt time.Time
}

type Reminder struct {
	Id                   int
	RoomId               int
	RecipientId          int
	FirstUnreadMessageId int
	ScheduledFor         time.Time
	Sent                 bool
	Cancelled            bool
	CreatedAt            time.Time
}

type CreateAccountParams struct {
	Username     string
	EmailAddress string
	PasswordHash string
	Role         types.Role
}

type UpdateAccountParams struct {
	UserId       int
	Username     string
	PasswordHash string
}

type CreateRoomParams struct {
	ExternalId string
	CreatorId  int
	EditorId   int
}

type CreateMessageParams struct {
	RoomId   int
	SenderId int
	Content  string
}

type CreateReminderParams struct {
	RoomId               int
	RecipientId          int
	FirstUnreadMessageId int
	ScheduledFor         time.Time
}
