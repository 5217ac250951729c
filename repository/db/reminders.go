package db

import (
	"context"
	"fmt"
	"time"

	"taskmanager/internal/domain/models"
)

const (
	dueRemindersQuery = `SELECT t.id, t.task_name, t.due_date, t.reminder_time, u.username, u.email
FROM tasks t
JOIN users u ON u.id = t.user_id
WHERE t.reminder_time IS NOT NULL AND t.reminder_time <= $1 AND t.reminder_sent = false
ORDER BY t.reminder_time, t.id`
	markReminderSentQuery = `UPDATE tasks
SET reminder_sent = true, updated_date = now()
WHERE id = $1 AND reminder_time = $2 AND reminder_sent = false`
)

// DueReminders returns every unsent reminder whose time is at or before now.
func (s *Storage) DueReminders(ctx context.Context, now time.Time) ([]models.Reminder, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx, dueRemindersQuery, now)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to select due reminders")
		return nil, fmt.Errorf("select due reminders: %w", err)
	}
	defer rows.Close()

	var due []models.Reminder
	for rows.Next() {
		var r models.Reminder
		if err := rows.Scan(&r.TaskID, &r.TaskName, &r.DueDate, &r.ReminderTime, &r.Username, &r.Email); err != nil {
			return nil, fmt.Errorf("scan reminder: %w", err)
		}
		due = append(due, r)
	}
	return due, rows.Err()
}

// MarkReminderSent flags the reminder as delivered unless the task was edited
// to a different reminder time since it was selected.
func (s *Storage) MarkReminderSent(ctx context.Context, taskID int64, reminderTime time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	ct, err := s.pool.Exec(ctx, markReminderSentQuery, taskID, reminderTime)
	if err != nil {
		s.logger.Error().Err(err).Int64("task_id", taskID).Msg("failed to mark reminder sent")
		return false, fmt.Errorf("mark reminder sent: %w", err)
	}
	return ct.RowsAffected() == 1, nil
}
