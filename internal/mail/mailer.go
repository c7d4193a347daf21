package mail

import (
	"fmt"
	"time"

	gomail "gopkg.in/gomail.v2"
)

// Mailer sends the unread-message nudge emails fired by the reminder
// poller.
type Mailer interface {
	SendReminder(to, username string, unreadSince time.Time) error
}

// SMTPMailer delivers mail through a plain SMTP relay.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (m *SMTPMailer) SendReminder(to, username string, unreadSince time.Time) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "You have unread messages")
	msg.SetBody("text/plain", fmt.Sprintf(
		"Hi %s,\n\nYou have unread messages in your chat waiting since %s. "+
			"Log in to reply.\n",
		username,
		unreadSince.Local().Format(time.RFC1123),
	))

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send reminder to %s: %w", to, err)
	}

	return nil
}
