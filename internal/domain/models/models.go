package models

import "time"

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

type User struct {
	ID           int64
	Username     string
	Email        string
	Password     string
	ProfileImage *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Task is owned by exactly one user. UserID is set on creation and never
// changed by updates.
type Task struct {
	ID           int64
	UserID       int64
	Name         string
	Description  *string
	Priority     Priority
	Status       Status
	DueDate      time.Time
	ReminderTime *time.Time
	ReminderSent bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SetReminderTime replaces the reminder time. Any change re-arms the reminder.
func (t *Task) SetReminderTime(rt *time.Time) {
	if !sameInstant(t.ReminderTime, rt) {
		t.ReminderSent = false
	}
	t.ReminderTime = rt
}

func sameInstant(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// TaskQuery selects a page of one owner's tasks. Empty Search, Priority and
// Status match everything. Size 0 disables paging.
type TaskQuery struct {
	OwnerID  int64
	Search   string
	Priority Priority
	Status   Status
	Page     int
	Size     int
}

func (q TaskQuery) Offset() int {
	return q.Page * q.Size
}

// Reminder is a due, unsent task reminder joined with its owner's contact data.
type Reminder struct {
	TaskID       int64
	TaskName     string
	DueDate      time.Time
	ReminderTime time.Time
	Username     string
	Email        string
}

type TaskStats struct {
	Total      int64 `json:"total"`
	Pending    int64 `json:"PENDING"`
	InProgress int64 `json:"IN_PROGRESS"`
	Completed  int64 `json:"COMPLETED"`
}

func (s *TaskStats) Add(status Status, n int64) {
	switch status {
	case StatusPending:
		s.Pending += n
	case StatusInProgress:
		s.InProgress += n
	case StatusCompleted:
		s.Completed += n
	}
	s.Total += n
}
