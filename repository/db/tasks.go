package db

import (
	"bytes"
	"context"
	stdErrors "errors"
	"fmt"
	"strings"
	"time"

	"taskmanager/internal/domain/errors"
	"taskmanager/internal/domain/models"

	"github.com/jackc/pgx/v5"
)

const taskColumns = `id, user_id, task_name, description, priority, status, due_date,
reminder_time, reminder_sent, created_date, updated_date`

const (
	createTaskQuery = `INSERT INTO tasks (user_id, task_name, description, priority, status, due_date, reminder_time, reminder_sent)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, created_date, updated_date`
	selectTaskQuery    = `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	lockTaskQuery      = selectTaskQuery + ` FOR UPDATE`
	ownerOfTaskQuery   = `SELECT user_id FROM tasks WHERE id = $1`
	deleteTaskQuery    = `DELETE FROM tasks WHERE id = $1`
	saveTaskQuery      = `UPDATE tasks
SET task_name = $1, description = $2, priority = $3, status = $4, due_date = $5,
    reminder_time = $6, reminder_sent = $7, updated_date = now()
WHERE id = $8
RETURNING updated_date`
	tasksByDueDateQuery = `SELECT ` + taskColumns + ` FROM tasks
WHERE user_id = $1 AND due_date = $2
ORDER BY created_date DESC, id DESC`
	countByStatusQuery = `SELECT status, count(*) FROM tasks WHERE user_id = $1 GROUP BY status`
)

func scanTask(row scanner) (*models.Task, error) {
	t := &models.Task{}
	var priority, status string
	err := row.Scan(&t.ID, &t.UserID, &t.Name, &t.Description, &priority, &status, &t.DueDate,
		&t.ReminderTime, &t.ReminderSent, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.Priority = models.Priority(priority)
	t.Status = models.Status(status)
	return t, nil
}

func scanTasks(rows pgx.Rows) ([]models.Task, error) {
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// dateOnly strips the clock so DATE parameters never depend on the session
// time zone.
func dateOnly(t time.Time) string {
	return t.Format(models.DateLayout)
}

func (s *Storage) CreateTask(ctx context.Context, task *models.Task) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	err := s.pool.QueryRow(ctx, createTaskQuery,
		task.UserID, task.Name, task.Description, string(task.Priority), string(task.Status),
		dateOnly(task.DueDate), task.ReminderTime, task.ReminderSent,
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return errors.ErrUserNotFound
		}
		s.logger.Error().Err(err).Int64("user_id", task.UserID).Msg("failed to create task")
		return fmt.Errorf("create task: %w", err)
	}

	s.logger.Debug().Int64("task_id", task.ID).Msg("task created")
	return nil
}

// GetTask returns the task only when ownerID owns it. A task owned by someone
// else yields ErrForbidden.
func (s *Storage) GetTask(ctx context.Context, id, ownerID int64) (*models.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return s.ownedTask(ctx, s.pool, selectTaskQuery, id, ownerID)
}

func (s *Storage) ownedTask(ctx context.Context, q querier, query string, id, ownerID int64) (*models.Task, error) {
	task, err := scanTask(q.QueryRow(ctx, query, id))
	if err != nil {
		if stdErrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.ErrTaskNotFound
		}
		s.logger.Error().Err(err).Int64("task_id", id).Msg("failed to get task")
		return nil, fmt.Errorf("get task: %w", err)
	}
	if task.UserID != ownerID {
		return nil, errors.ErrForbidden
	}
	return task, nil
}

// UpdateTask locks the row, applies fn and writes the result back in one
// transaction.
func (s *Storage) UpdateTask(ctx context.Context, id, ownerID int64, fn func(*models.Task) error) (*models.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var task *models.Task
	err := s.withTx(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		stored, err := s.ownedTask(ctx, tx, lockTaskQuery, id, ownerID)
		if err != nil {
			return err
		}
		if err := fn(stored); err != nil {
			return err
		}

		err = tx.QueryRow(ctx, saveTaskQuery,
			stored.Name, stored.Description, string(stored.Priority), string(stored.Status),
			dateOnly(stored.DueDate), stored.ReminderTime, stored.ReminderSent, id,
		).Scan(&stored.UpdatedAt)
		if err != nil {
			return fmt.Errorf("save task: %w", err)
		}
		task = stored
		return nil
	})
	if err != nil {
		if !isDomainError(err) {
			s.logger.Error().Err(err).Int64("task_id", id).Msg("failed to update task")
		}
		return nil, err
	}

	s.logger.Debug().Int64("task_id", id).Msg("task updated")
	return task, nil
}

func (s *Storage) DeleteTask(ctx context.Context, id, ownerID int64) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return s.withTx(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var owner int64
		if err := tx.QueryRow(ctx, ownerOfTaskQuery+" FOR UPDATE", id).Scan(&owner); err != nil {
			if stdErrors.Is(err, pgx.ErrNoRows) {
				return errors.ErrTaskNotFound
			}
			return fmt.Errorf("get task owner: %w", err)
		}
		if owner != ownerID {
			return errors.ErrForbidden
		}
		if _, err := tx.Exec(ctx, deleteTaskQuery, id); err != nil {
			s.logger.Error().Err(err).Int64("task_id", id).Msg("failed to delete task")
			return fmt.Errorf("delete task: %w", err)
		}
		return nil
	})
}

// ListTasks counts and pages the owner's matching tasks inside one read-only
// transaction so total and content agree.
func (s *Storage) ListTasks(ctx context.Context, q models.TaskQuery) ([]models.Task, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	where, args := taskFilter(q)

	var (
		tasks []models.Task
		total int64
	)
	err := s.withTx(ctx, readOnly, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, "SELECT count(*) FROM tasks"+where, args).Scan(&total); err != nil {
			return fmt.Errorf("count tasks: %w", err)
		}

		var buf bytes.Buffer
		buf.WriteString("SELECT ")
		buf.WriteString(taskColumns)
		buf.WriteString(" FROM tasks")
		buf.WriteString(where)
		buf.WriteString(" ORDER BY created_date DESC, id DESC")
		if q.Size > 0 {
			buf.WriteString(" LIMIT @limit OFFSET @offset")
			args["limit"] = q.Size
			args["offset"] = q.Offset()
		}

		rows, err := tx.Query(ctx, buf.String(), args)
		if err != nil {
			return fmt.Errorf("list tasks: %w", err)
		}
		tasks, err = scanTasks(rows)
		return err
	})
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", q.OwnerID).Msg("failed to list tasks")
		return nil, 0, err
	}
	return tasks, total, nil
}

func taskFilter(q models.TaskQuery) (string, pgx.NamedArgs) {
	var buf bytes.Buffer
	args := pgx.NamedArgs{"owner": q.OwnerID}

	buf.WriteString(" WHERE user_id = @owner")
	if q.Search != "" {
		buf.WriteString(` AND task_name ILIKE @search ESCAPE '\'`)
		args["search"] = "%" + escapeLike(q.Search) + "%"
	}
	if q.Priority != "" {
		buf.WriteString(" AND priority = @priority")
		args["priority"] = string(q.Priority)
	}
	if q.Status != "" {
		buf.WriteString(" AND status = @status")
		args["status"] = string(q.Status)
	}
	return buf.String(), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (s *Storage) ListTasksByDueDate(ctx context.Context, ownerID int64, date time.Time) ([]models.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx, tasksByDueDateQuery, ownerID, dateOnly(date))
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", ownerID).Msg("failed to list tasks by date")
		return nil, fmt.Errorf("list tasks by date: %w", err)
	}
	return scanTasks(rows)
}

func (s *Storage) CountTasksByStatus(ctx context.Context, ownerID int64) (models.TaskStats, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var stats models.TaskStats
	rows, err := s.pool.Query(ctx, countByStatusQuery, ownerID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", ownerID).Msg("failed to count tasks")
		return stats, fmt.Errorf("count tasks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status string
			n      int64
		)
		if err := rows.Scan(&status, &n); err != nil {
			return stats, fmt.Errorf("scan task count: %w", err)
		}
		stats.Add(models.Status(status), n)
	}
	return stats, rows.Err()
}

func isDomainError(err error) bool {
	return stdErrors.Is(err, errors.ErrTaskNotFound) || stdErrors.Is(err, errors.ErrForbidden)
}
