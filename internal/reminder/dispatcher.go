// Package reminder periodically mails reminders for tasks whose reminder time
// has passed.
package reminder

import (
	"context"
	"time"

	"taskmanager/internal/domain/models"

	"github.com/rs/zerolog"
)

const DefaultInterval = 30 * time.Second

type Store interface {
	DueReminders(ctx context.Context, now time.Time) ([]models.Reminder, error)
	MarkReminderSent(ctx context.Context, taskID int64, reminderTime time.Time) (bool, error)
}

// Mailer reports sent=false with a nil error when a reminder is skipped.
type Mailer interface {
	SendTaskReminder(ctx context.Context, r models.Reminder) (bool, error)
}

// Result counts the outcome of one sweep.
type Result struct {
	Due     int
	Sent    int
	Skipped int
	Failed  int
}

type Dispatcher struct {
	store    Store
	mailer   Mailer
	interval time.Duration
	logger   zerolog.Logger
	now      func() time.Time
}

func NewDispatcher(store Store, mailer Mailer, interval time.Duration, logger zerolog.Logger) *Dispatcher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Dispatcher{
		store:    store,
		mailer:   mailer,
		interval: interval,
		logger:   logger.With().Str("component", "reminder").Logger(),
		now:      time.Now,
	}
}

// Run sweeps once, then once per interval until ctx is done. Sweeps never
// overlap; ticks missed during a slow sweep are dropped.
func (d *Dispatcher) Run(ctx context.Context) {
	d.logger.Info().Dur("interval", d.interval).Msg("reminder dispatcher started")
	defer d.logger.Info().Msg("reminder dispatcher stopped")

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		d.Sweep(ctx, d.now())

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Sweep delivers every reminder due at now. Failed deliveries stay unsent and
// are retried by the next sweep.
func (d *Dispatcher) Sweep(ctx context.Context, now time.Time) Result {
	var res Result

	due, err := d.store.DueReminders(ctx, now)
	if err != nil {
		d.logger.Error().Err(err).Msg("failed to load due reminders")
		return res
	}
	res.Due = len(due)

	for _, r := range due {
		if ctx.Err() != nil {
			break
		}

		log := d.logger.With().Int64("task_id", r.TaskID).Logger()

		sent, err := d.mailer.SendTaskReminder(ctx, r)
		if err != nil {
			res.Failed++
			log.Error().Err(err).Msg("failed to send reminder")
			continue
		}
		if !sent {
			res.Skipped++
			continue
		}

		marked, err := d.store.MarkReminderSent(ctx, r.TaskID, r.ReminderTime)
		if err != nil {
			res.Failed++
			log.Error().Err(err).Msg("reminder sent but not marked")
			continue
		}
		if !marked {
			log.Debug().Msg("reminder changed during delivery, left armed")
		}
		res.Sent++
	}

	if res.Due > 0 {
		d.logger.Info().
			Int("due", res.Due).
			Int("sent", res.Sent).
			Int("skipped", res.Skipped).
			Int("failed", res.Failed).
			Msg("reminder sweep finished")
	}
	return res
}
