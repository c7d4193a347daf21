package mail

import (
	"time"

	"github.com/stretchr/testify/mock"
)

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendReminder(to, username string, unreadSince time.Time) error {
	args := m.Called(to, username, unreadSince)
	return args.Error(0)
}
