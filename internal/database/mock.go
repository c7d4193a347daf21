package database

import (
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/reelmatch/chat-service/internal/types"
)

type MockChatRepository struct {
	mock.Mock
}

func (m *MockChatRepository) Ping() error {
	args := m.Called()
	return args.Error(0)
}
func (m *MockChatRepository) CreateAccount(params CreateAccountParams) (User, error) {
	args := m.Called(params)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockChatRepository) UpdateAccount(params UpdateAccountParams) (User, error) {
	args := m.Called(params)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockChatRepository) GetAccountById(accountId int) (User, error) {
	args := m.Called(accountId)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockChatRepository) GetAccountByEmail(email string) (User, error) {
	args := m.Called(email)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockChatRepository) GetRoomByExternalId(externalId string) (Room, error) {
	args := m.Called(externalId)
	return args.Get(0).(Room), args.Error(1)
}
func (m *MockChatRepository) UpsertRoom(params CreateRoomParams) (Room, bool, error) {
	args := m.Called(params)
	return args.Get(0).(Room), args.Bool(1), args.Error(2)
}
func (m *MockChatRepository) ListRoomsForUser(userId int, role types.Role) ([]RoomWithCounterpart, error) {
	args := m.Called(userId, role)
	return args.Get(0).([]RoomWithCounterpart), args.Error(1)
}
func (m *MockChatRepository) SetRoomFrozen(roomId int, frozen bool) (Room, error) {
	args := m.Called(roomId, frozen)
	return args.Get(0).(Room), args.Error(1)
}
func (m *MockChatRepository) SetRoomEnded(roomId int, ended bool) (Room, error) {
	args := m.Called(roomId, ended)
	return args.Get(0).(Room), args.Error(1)
}
func (m *MockChatRepository) CreateMessage(params CreateMessageParams) (Message, error) {
	args := m.Called(params)
	return args.Get(0).(Message), args.Error(1)
}
func (m *MockChatRepository) GetMessageById(messageId int) (Message, error) {
	args := m.Called(messageId)
	return args.Get(0).(Message), args.Error(1)
}
func (m *MockChatRepository) GetMessagesByRoom(roomId int) ([]Message, error) {
	args := m.Called(roomId)
	return args.Get(0).([]Message), args.Error(1)
}
func (m *MockChatRepository) MarkMessageRead(messageId int) (Message, error) {
	args := m.Called(messageId)
	return args.Get(0).(Message), args.Error(1)
}
func (m *MockChatRepository) OldestUnreadMessage(roomId, recipientId int) (Message, error) {
	args := m.Called(roomId, recipientId)
	return args.Get(0).(Message), args.Error(1)
}
func (m *MockChatRepository) CreateReminder(params CreateReminderParams) (bool, error) {
	args := m.Called(params)
	return args.Bool(0), args.Error(1)
}
func (m *MockChatRepository) CancelActiveReminders(roomId, recipientId int) (int, error) {
	args := m.Called(roomId, recipientId)
	return args.Int(0), args.Error(1)
}
func (m *MockChatRepository) DueReminders(now time.Time) ([]Reminder, error) {
	args := m.Called(now)
	return args.Get(0).([]Reminder), args.Error(1)
}
func (m *MockChatRepository) MarkReminderSent(reminderId int) error {
	args := m.Called(reminderId)
	return args.Error(0)
}
