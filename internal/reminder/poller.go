package reminder

import (
	"context"
	"log"
	"time"

	"github.com/reelmatch/chat-service/internal/database"
	"github.com/reelmatch/chat-service/internal/mail"
	"github.com/reelmatch/chat-service/internal/stats"
)

// Poller periodically scans for due, unsent, uncancelled reminders and
// fires email nudges for messages that are still unread. It runs as its
// own process, sharing only the database with the chat server.
type Poller struct {
	log      *log.Logger
	db       database.ChatRepository
	mailer   mail.Mailer
	stats    stats.StatsProvider
	interval time.Duration
}

func NewPoller(logger *log.Logger, db database.ChatRepository, mailer mail.Mailer, su stats.StatsProvider, interval time.Duration) *Poller {
	su.RegisterMetric("RemindersFired")
	su.RegisterMetric("RemindersSkippedRead")
	su.RegisterMetric("ReminderSendFailures")

	return &Poller{
		log:      logger,
		db:       db,
		mailer:   mailer,
		stats:    su,
		interval: interval,
	}
}

// Run executes the poll loop until ctx is cancelled. Scan failures are
// logged and retried on the next tick; only cancellation stops the loop.
func (p *Poller) Run(ctx context.Context) {
	p.log.Printf("reminder poller started, interval %s", p.interval)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Println("reminder poller stopped")
			return
		case <-ticker.C:
			p.Sweep(time.Now().UTC())
		}
	}
}

// Sweep processes every reminder due at now. Each reminder ends up
// sent=true whether or not its email went out; per-reminder failures
// never abort the batch.
func (p *Poller) Sweep(now time.Time) {
	due, err := p.db.DueReminders(now)
	if err != nil {
		p.log.Println("scan due reminders:", err)
		return
	}

	for _, rem := range due {
		p.fire(rem)
	}
}

func (p *Poller) fire(rem database.Reminder) {
	// The read-receipt path cancels reminders, but re-check the
	// triggering message anyway in case the cancel raced the scan.
	if err := p.deliver(rem); err != nil {
		p.stats.Incr("ReminderSendFailures")
		p.log.Printf("reminder %d: %v", rem.Id, err)
	}

	// Terminal either way: a reminder fires at most once.
	if err := p.db.MarkReminderSent(rem.Id); err != nil {
		p.log.Printf("mark reminder %d sent: %v", rem.Id, err)
	}
}

func (p *Poller) deliver(rem database.Reminder) error {
	msg, err := p.db.GetMessageById(rem.FirstUnreadMessageId)
	if err != nil {
		return err
	}

	if msg.Read {
		p.stats.Incr("RemindersSkippedRead")
		p.log.Printf("reminder %d: message %d already read, skipping email", rem.Id, msg.Id)
		return nil
	}

	recipient, err := p.db.GetAccountById(rem.RecipientId)
	if err != nil {
		return err
	}

	if err := p.mailer.SendReminder(recipient.EmailAddress, recipient.Username, msg.CreatedAt); err != nil {
		return err
	}

	p.stats.Incr("RemindersFired")
	p.log.Printf("reminder %d: emailed %s", rem.Id, recipient.EmailAddress)
	return nil
}
