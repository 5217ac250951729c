// Package mail delivers task reminder e-mails over SMTP.
package mail

import (
	"context"
	"fmt"

	"taskmanager/internal/domain/models"

	"github.com/rs/zerolog"
	gomail "github.com/wneessen/go-mail"
)

const defaultPort = 587

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Configured reports whether credentials are present. Without them the
// mailer skips every message.
func (c Config) Configured() bool {
	return c.Username != "" && c.Password != ""
}

type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*gomail.Msg) error
}

type SMTPMailer struct {
	sender sender
	from   string
	logger zerolog.Logger
}

func NewSMTPMailer(cfg Config, logger zerolog.Logger) (*SMTPMailer, error) {
	logger = logger.With().Str("component", "mail").Logger()
	if !cfg.Configured() {
		logger.Warn().Msg("smtp credentials not set, reminders will be skipped")
		return &SMTPMailer{logger: logger}, nil
	}

	port := cfg.Port
	if port == 0 {
		port = defaultPort
	}

	client, err := gomail.NewClient(cfg.Host,
		gomail.WithPort(port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(cfg.Username),
		gomail.WithPassword(cfg.Password),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}

	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	return &SMTPMailer{sender: client, from: from, logger: logger}, nil
}

// SendTaskReminder mails the reminder to the task owner. It returns false
// without error when mail is not configured or the owner has no address.
func (m *SMTPMailer) SendTaskReminder(ctx context.Context, r models.Reminder) (bool, error) {
	if m.sender == nil {
		m.logger.Debug().Int64("task_id", r.TaskID).Msg("mail not configured, reminder skipped")
		return false, nil
	}
	if r.Email == "" {
		m.logger.Warn().Int64("task_id", r.TaskID).Str("username", r.Username).Msg("owner has no email, reminder skipped")
		return false, nil
	}

	msg, err := m.reminderMessage(r)
	if err != nil {
		return false, err
	}
	if err := m.sender.DialAndSendWithContext(ctx, msg); err != nil {
		return false, fmt.Errorf("send reminder for task %d: %w", r.TaskID, err)
	}

	m.logger.Info().Int64("task_id", r.TaskID).Str("to", r.Email).Msg("reminder sent")
	return true, nil
}

func (m *SMTPMailer) reminderMessage(r models.Reminder) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(r.Email); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject("Task Reminder: " + r.TaskName)
	msg.SetBodyString(gomail.TypeTextPlain, reminderBody(r))
	return msg, nil
}

func reminderBody(r models.Reminder) string {
	return fmt.Sprintf("Hello %s,\n\nThis is a reminder for your task:\n\nTask: %s\nDue Date: %s\nReminder Time: %s\n\nStay productive!\n",
		r.Username,
		r.TaskName,
		models.NewDate(r.DueDate).String(),
		models.DateTime{Time: r.ReminderTime}.String(),
	)
}
