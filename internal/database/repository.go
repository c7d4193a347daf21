package database

import (
	"time"

	"github.com/reelmatch/chat-service/internal/types"
)

type ChatRepository interface {
	Ping() error
	CreateAccount(params CreateAccountParams) (User, error)
	UpdateAccount(params UpdateAccountParams) (User, error)
	GetAccountById(accountId int) (User, error)
	GetAccountByEmail(email string) (User, error)
	GetRoomByExternalId(externalId string) (Room, error)
	UpsertRoom(params CreateRoomParams) (Room, bool, error)
	ListRoomsForUser(userId int, role types.Role) ([]RoomWithCounterpart, error)
	SetRoomFrozen(roomId int, frozen bool) (Room, error)
	SetRoomEnded(roomId int, ended bool) (Room, error)
	CreateMessage(params CreateMessageParams) (Message, error)
	GetMessageById(messageId int) (Message, error)
	GetMessagesByRoom(roomId int) ([]Message, error)
	MarkMessageRead(messageId int) (Message, error)
	OldestUnreadMessage(roomId, recipientId int) (Message, error)
	CreateReminder(params CreateReminderParams) (bool, error)
	CancelActiveReminders(roomId, recipientId int) (int, error)
	DueReminders(now time.Time) ([]Reminder, error)
	MarkReminderSent(reminderId int) error
}
