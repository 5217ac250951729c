// Package services holds the business rules of the task manager: account
// registration and login, per-owner task access and export formatting.
package services

import (
	"context"
	"time"

	"taskmanager/internal/domain/models"
)

// UserRepository is the credential store.
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id int64) error
}

// TaskRepository is the task store. Every single-task operation takes the
// caller id and fails with ErrForbidden, without returning the row, when the
// caller is not the owner.
type TaskRepository interface {
	CreateTask(ctx context.Context, task *models.Task) error
	GetTask(ctx context.Context, id, ownerID int64) (*models.Task, error)
	// UpdateTask loads the task, applies fn and persists the result in one
	// transaction.
	UpdateTask(ctx context.Context, id, ownerID int64, fn func(*models.Task) error) (*models.Task, error)
	DeleteTask(ctx context.Context, id, ownerID int64) error
	ListTasks(ctx context.Context, q models.TaskQuery) ([]models.Task, int64, error)
	ListTasksByDueDate(ctx context.Context, ownerID int64, date time.Time) ([]models.Task, error)
	CountTasksByStatus(ctx context.Context, ownerID int64) (models.TaskStats, error)
}

// TokenIssuer signs bearer tokens for an authenticated user.
type TokenIssuer interface {
	GenerateToken(userID int64, username string) (string, error)
}

// Archiver stores an export blob and returns a time-limited download URL.
type Archiver interface {
	Store(ctx context.Context, key string, body []byte) (string, error)
}
