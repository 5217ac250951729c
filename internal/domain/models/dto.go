package models

import "time"

type RegisterRequest struct {
	Username string `json:"username" validate:"required,notblank,min=3,max=50"`
	Email    string `json:"email" validate:"required,email,max=100"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// LoginRequest.Username may hold either a username or an email.
type LoginRequest struct {
	Username string `json:"username" validate:"required,notblank"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token        string  `json:"token"`
	Type         string  `json:"type"`
	Username     string  `json:"username"`
	Email        string  `json:"email"`
	ProfileImage *string `json:"profileImage"`
}

type ProfileUpdateRequest struct {
	Email        *string `json:"email" validate:"omitempty,email,max=100"`
	ProfileImage *string `json:"profileImage"`
}

type ProfileResponse struct {
	ID           int64    `json:"id"`
	Username     string   `json:"username"`
	Email        string   `json:"email"`
	ProfileImage *string  `json:"profileImage"`
	CreatedAt    DateTime `json:"createdAt"`
}

func NewProfileResponse(u *User) ProfileResponse {
	return ProfileResponse{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		ProfileImage: u.ProfileImage,
		CreatedAt:    DateTime{u.CreatedAt},
	}
}

// TaskRequest is the body of both create and update; update replaces every
// mutable field. Empty priority and status fall back to MEDIUM and PENDING.
type TaskRequest struct {
	TaskName     string    `json:"taskName" validate:"required,notblank,max=200"`
	Description  *string   `json:"description"`
	Priority     Priority  `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH"`
	Status       Status    `json:"status" validate:"omitempty,oneof=PENDING IN_PROGRESS COMPLETED"`
	DueDate      *Date     `json:"dueDate" validate:"required"`
	ReminderTime *DateTime `json:"reminderTime"`
}

func (r TaskRequest) PriorityOrDefault() Priority {
	if r.Priority == "" {
		return PriorityMedium
	}
	return r.Priority
}

func (r TaskRequest) StatusOrDefault() Status {
	if r.Status == "" {
		return StatusPending
	}
	return r.Status
}

func (r TaskRequest) ReminderInstant() *time.Time {
	if r.ReminderTime == nil {
		return nil
	}
	t := r.ReminderTime.Time
	return &t
}

type TaskResponse struct {
	ID           int64     `json:"id"`
	TaskName     string    `json:"taskName"`
	Description  *string   `json:"description"`
	Priority     Priority  `json:"priority"`
	Status       Status    `json:"status"`
	DueDate      Date      `json:"dueDate"`
	ReminderTime *DateTime `json:"reminderTime"`
	CreatedDate  DateTime  `json:"createdDate"`
	UpdatedDate  DateTime  `json:"updatedDate"`
}

func NewTaskResponse(t *Task) TaskResponse {
	resp := TaskResponse{
		ID:          t.ID,
		TaskName:    t.Name,
		Description: t.Description,
		Priority:    t.Priority,
		Status:      t.Status,
		DueDate:     NewDate(t.DueDate),
		CreatedDate: DateTime{t.CreatedAt},
		UpdatedDate: DateTime{t.UpdatedAt},
	}
	if t.ReminderTime != nil {
		resp.ReminderTime = &DateTime{*t.ReminderTime}
	}
	return resp
}

func NewTaskResponses(tasks []Task) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for i := range tasks {
		out = append(out, NewTaskResponse(&tasks[i]))
	}
	return out
}

// Page is one zero-based slice of an ordered result set.
type Page[T any] struct {
	Content       []T   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
}

func NewPage[T any](content []T, page, size int, total int64) Page[T] {
	if content == nil {
		content = []T{}
	}
	totalPages := 0
	if size > 0 {
		totalPages = int((total + int64(size) - 1) / int64(size))
	}
	return Page[T]{
		Content:       content,
		Page:          page,
		Size:          size,
		TotalElements: total,
		TotalPages:    totalPages,
	}
}

type ArchiveResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}
