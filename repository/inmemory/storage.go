package storage

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"taskmanager/internal/domain/errors"
	"taskmanager/internal/domain/models"
)

// Storage keeps users and tasks in process memory. It is used when the
// database is unreachable and as the store in service tests.
type Storage struct {
	mu         sync.RWMutex
	users      map[int64]models.User
	tasks      map[int64]models.Task
	nextUserID int64
	nextTaskID int64
	now        func() time.Time
}

func NewStorage() *Storage {
	return &Storage{
		users: make(map[int64]models.User),
		tasks: make(map[int64]models.Task),
		now:   time.Now,
	}
}

// WithClock replaces the timestamp source.
func (s *Storage) WithClock(now func() time.Time) *Storage {
	s.now = now
	return s
}

func (s *Storage) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkUniqueLocked(user.Username, user.Email, 0); err != nil {
		return err
	}

	s.nextUserID++
	now := s.now()
	user.ID = s.nextUserID
	user.CreatedAt = now
	user.UpdatedAt = now
	s.users[user.ID] = cloneUser(*user)
	return nil
}

func (s *Storage) checkUniqueLocked(username, email string, exceptID int64) error {
	for id, u := range s.users {
		if id == exceptID {
			continue
		}
		if u.Username == username {
			return errors.ErrUsernameTaken
		}
		if u.Email == email {
			return errors.ErrEmailTaken
		}
	}
	return nil
}

func (s *Storage) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.users[id]
	if !exists {
		return nil, errors.ErrUserNotFound
	}
	u := cloneUser(user)
	return &u, nil
}

func (s *Storage) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	return s.findUser(func(u models.User) bool { return u.Username == username })
}

func (s *Storage) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	return s.findUser(func(u models.User) bool { return u.Email == email })
}

func (s *Storage) findUser(match func(models.User) bool) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if match(user) {
			u := cloneUser(user)
			return &u, nil
		}
	}
	return nil, errors.ErrUserNotFound
}

func (s *Storage) UpdateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.users[user.ID]
	if !exists {
		return errors.ErrUserNotFound
	}
	if err := s.checkUniqueLocked(user.Username, user.Email, user.ID); err != nil {
		return err
	}

	user.CreatedAt = stored.CreatedAt
	user.UpdatedAt = s.now()
	s.users[user.ID] = cloneUser(*user)
	return nil
}

// DeleteUser removes the user and every task they own.
func (s *Storage) DeleteUser(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[id]; !exists {
		return errors.ErrUserNotFound
	}
	delete(s.users, id)
	for taskID, t := range s.tasks {
		if t.UserID == id {
			delete(s.tasks, taskID)
		}
	}
	return nil
}

func (s *Storage) CreateTask(_ context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[task.UserID]; !exists {
		return errors.ErrUserNotFound
	}

	s.nextTaskID++
	now := s.now()
	task.ID = s.nextTaskID
	task.CreatedAt = now
	task.UpdatedAt = now
	s.tasks[task.ID] = cloneTask(*task)
	return nil
}

func (s *Storage) GetTask(_ context.Context, id, ownerID int64) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, err := s.ownedLocked(id, ownerID)
	if err != nil {
		return nil, err
	}
	t := cloneTask(task)
	return &t, nil
}

func (s *Storage) ownedLocked(id, ownerID int64) (models.Task, error) {
	task, exists := s.tasks[id]
	if !exists {
		return models.Task{}, errors.ErrTaskNotFound
	}
	if task.UserID != ownerID {
		return models.Task{}, errors.ErrForbidden
	}
	return task, nil
}

func (s *Storage) UpdateTask(_ context.Context, id, ownerID int64, fn func(*models.Task) error) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.ownedLocked(id, ownerID)
	if err != nil {
		return nil, err
	}

	task := cloneTask(stored)
	if err := fn(&task); err != nil {
		return nil, err
	}
	task.ID = stored.ID
	task.UserID = stored.UserID
	task.CreatedAt = stored.CreatedAt
	task.UpdatedAt = s.now()

	s.tasks[id] = cloneTask(task)
	return &task, nil
}

func (s *Storage) DeleteTask(_ context.Context, id, ownerID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.ownedLocked(id, ownerID); err != nil {
		return err
	}
	delete(s.tasks, id)
	return nil
}

func (s *Storage) ListTasks(_ context.Context, q models.TaskQuery) ([]models.Task, int64, error) {
	search := strings.ToLower(q.Search)
	matched := s.collect(q.OwnerID, func(t models.Task) bool {
		if search != "" && !strings.Contains(strings.ToLower(t.Name), search) {
			return false
		}
		if q.Priority != "" && t.Priority != q.Priority {
			return false
		}
		if q.Status != "" && t.Status != q.Status {
			return false
		}
		return true
	})

	total := int64(len(matched))
	if q.Size <= 0 {
		return matched, total, nil
	}

	start := q.Offset()
	if start >= len(matched) {
		return []models.Task{}, total, nil
	}
	end := min(start+q.Size, len(matched))
	return matched[start:end], total, nil
}

func (s *Storage) ListTasksByDueDate(_ context.Context, ownerID int64, date time.Time) ([]models.Task, error) {
	y, m, d := date.Date()
	return s.collect(ownerID, func(t models.Task) bool {
		ty, tm, td := t.DueDate.Date()
		return ty == y && tm == m && td == d
	}), nil
}

func (s *Storage) CountTasksByStatus(_ context.Context, ownerID int64) (models.TaskStats, error) {
	var stats models.TaskStats
	for _, t := range s.collect(ownerID, func(models.Task) bool { return true }) {
		stats.Add(t.Status, 1)
	}
	return stats, nil
}

// collect returns the owner's matching tasks, newest first.
func (s *Storage) collect(ownerID int64, match func(models.Task) bool) []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Task{}
	for _, t := range s.tasks {
		if t.UserID == ownerID && match(t) {
			out = append(out, cloneTask(t))
		}
	}
	slices.SortFunc(out, newestFirst)
	return out
}

func newestFirst(a, b models.Task) int {
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(b.ID, a.ID)
}

func (s *Storage) DueReminders(_ context.Context, now time.Time) ([]models.Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var due []models.Reminder
	for _, t := range s.tasks {
		if t.ReminderTime == nil || t.ReminderSent || t.ReminderTime.After(now) {
			continue
		}
		owner := s.users[t.UserID]
		due = append(due, models.Reminder{
			TaskID:       t.ID,
			TaskName:     t.Name,
			DueDate:      t.DueDate,
			ReminderTime: *t.ReminderTime,
			Username:     owner.Username,
			Email:        owner.Email,
		})
	}
	return due, nil
}

// MarkReminderSent flags the reminder as delivered if the task still has the
// reminder time that was sent. It reports whether a task was marked.
func (s *Storage) MarkReminderSent(_ context.Context, taskID int64, reminderTime time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, exists := s.tasks[taskID]
	if !exists || t.ReminderSent || t.ReminderTime == nil || !t.ReminderTime.Equal(reminderTime) {
		return false, nil
	}
	t.ReminderSent = true
	t.UpdatedAt = s.now()
	s.tasks[taskID] = t
	return true, nil
}

func cloneUser(u models.User) models.User {
	if u.ProfileImage != nil {
		img := *u.ProfileImage
		u.ProfileImage = &img
	}
	return u
}

func cloneTask(t models.Task) models.Task {
	if t.Description != nil {
		d := *t.Description
		t.Description = &d
	}
	if t.ReminderTime != nil {
		rt := *t.ReminderTime
		t.ReminderTime = &rt
	}
	return t
}
