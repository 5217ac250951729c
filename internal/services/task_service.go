package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	domainErrors "taskmanager/internal/domain/errors"
	"taskmanager/internal/domain/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type TaskService struct {
	tasks    TaskRepository
	archiver Archiver
	logger   zerolog.Logger
	now      func() time.Time
}

// NewTaskService wires the task store. archiver may be nil, which disables
// archived exports.
func NewTaskService(tasks TaskRepository, archiver Archiver, logger zerolog.Logger) *TaskService {
	return &TaskService{
		tasks:    tasks,
		archiver: archiver,
		logger:   logger.With().Str("component", "tasks").Logger(),
		now:      time.Now,
	}
}

func (s *TaskService) Create(ctx context.Context, callerID int64, req models.TaskRequest) (*models.Task, error) {
	if req.DueDate == nil {
		return nil, fmt.Errorf("%w: dueDate is required", domainErrors.ErrValidationFailed)
	}

	task := &models.Task{
		UserID:       callerID,
		Name:         req.TaskName,
		Description:  req.Description,
		Priority:     req.PriorityOrDefault(),
		Status:       req.StatusOrDefault(),
		DueDate:      req.DueDate.Time,
		ReminderTime: req.ReminderInstant(),
		ReminderSent: false,
	}
	if err := s.tasks.CreateTask(ctx, task); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("task_id", task.ID).Int64("user_id", callerID).Msg("task created")
	return task, nil
}

func (s *TaskService) Get(ctx context.Context, callerID, id int64) (*models.Task, error) {
	return s.tasks.GetTask(ctx, id, callerID)
}

// Update replaces all mutable fields. Changing the reminder time re-arms the
// reminder.
func (s *TaskService) Update(ctx context.Context, callerID, id int64, req models.TaskRequest) (*models.Task, error) {
	if req.DueDate == nil {
		return nil, fmt.Errorf("%w: dueDate is required", domainErrors.ErrValidationFailed)
	}

	task, err := s.tasks.UpdateTask(ctx, id, callerID, func(t *models.Task) error {
		t.Name = req.TaskName
		t.Description = req.Description
		t.Priority = req.PriorityOrDefault()
		t.Status = req.StatusOrDefault()
		t.DueDate = req.DueDate.Time
		t.SetReminderTime(req.ReminderInstant())
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("task_id", id).Int64("user_id", callerID).Msg("task updated")
	return task, nil
}

func (s *TaskService) Delete(ctx context.Context, callerID, id int64) error {
	if err := s.tasks.DeleteTask(ctx, id, callerID); err != nil {
		return err
	}
	s.logger.Info().Int64("task_id", id).Int64("user_id", callerID).Msg("task deleted")
	return nil
}

func (s *TaskService) List(ctx context.Context, callerID int64, page, size int) (models.Page[models.Task], error) {
	return s.query(ctx, models.TaskQuery{OwnerID: callerID, Page: page, Size: size})
}

// Search matches query as a case-insensitive substring of the task name.
func (s *TaskService) Search(ctx context.Context, callerID int64, query string, page, size int) (models.Page[models.Task], error) {
	return s.query(ctx, models.TaskQuery{OwnerID: callerID, Search: query, Page: page, Size: size})
}

func (s *TaskService) FilterByPriority(ctx context.Context, callerID int64, priority models.Priority, page, size int) (models.Page[models.Task], error) {
	if !priority.Valid() {
		return models.Page[models.Task]{}, domainErrors.ErrInvalidPriority
	}
	return s.query(ctx, models.TaskQuery{OwnerID: callerID, Priority: priority, Page: page, Size: size})
}

func (s *TaskService) FilterByStatus(ctx context.Context, callerID int64, status models.Status, page, size int) (models.Page[models.Task], error) {
	if !status.Valid() {
		return models.Page[models.Task]{}, domainErrors.ErrInvalidStatus
	}
	return s.query(ctx, models.TaskQuery{OwnerID: callerID, Status: status, Page: page, Size: size})
}

// query validates paging so that the row offset fits in an int.
func (s *TaskService) query(ctx context.Context, q models.TaskQuery) (models.Page[models.Task], error) {
	if q.Page < 0 || q.Size <= 0 || q.Page > math.MaxInt/q.Size {
		return models.Page[models.Task]{}, domainErrors.ErrInvalidPaging
	}
	tasks, total, err := s.tasks.ListTasks(ctx, q)
	if err != nil {
		return models.Page[models.Task]{}, err
	}
	return models.NewPage(tasks, q.Page, q.Size, total), nil
}

// ByDate returns every task of the caller due on the given calendar date.
func (s *TaskService) ByDate(ctx context.Context, callerID int64, date models.Date) ([]models.Task, error) {
	return s.tasks.ListTasksByDueDate(ctx, callerID, date.Time)
}

func (s *TaskService) Stats(ctx context.Context, callerID int64) (models.TaskStats, error) {
	return s.tasks.CountTasksByStatus(ctx, callerID)
}

// ExportCSV renders all of the caller's tasks, newest first.
func (s *TaskService) ExportCSV(ctx context.Context, callerID int64) ([]byte, error) {
	tasks, _, err := s.tasks.ListTasks(ctx, models.TaskQuery{OwnerID: callerID})
	if err != nil {
		return nil, err
	}
	return FormatCSV(tasks), nil
}

// ArchiveExport uploads the CSV export and returns its object key and a
// download URL.
func (s *TaskService) ArchiveExport(ctx context.Context, callerID int64) (*models.ArchiveResponse, error) {
	if s.archiver == nil {
		return nil, domainErrors.ErrArchiveDisabled
	}

	body, err := s.ExportCSV(ctx, callerID)
	if err != nil {
		return nil, err
	}

	key := archiveKey(callerID, s.now())
	url, err := s.archiver.Store(ctx, key, body)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", callerID).Str("key", key).Msg("failed to archive export")
		return nil, fmt.Errorf("archive export: %w", err)
	}

	s.logger.Info().Int64("user_id", callerID).Str("key", key).Msg("export archived")
	return &models.ArchiveResponse{Key: key, URL: url}, nil
}

func archiveKey(userID int64, now time.Time) string {
	return strings.Join([]string{
		"exports",
		fmt.Sprint(userID),
		now.Format("2006/01/02"),
		uuid.NewString() + ".csv",
	}, "/")
}
