package db

import (
	"context"
	stdErrors "errors"
	"fmt"

	"taskmanager/internal/domain/errors"
	"taskmanager/internal/domain/models"

	"github.com/jackc/pgx/v5"
)

const userColumns = `id, username, email, password, profile_image, created_at, updated_at`

const (
	createUserQuery = `INSERT INTO users (username, email, password, profile_image)
VALUES ($1, $2, $3, $4)
RETURNING id, created_at, updated_at`
	updateUserQuery = `UPDATE users
SET username = $1, email = $2, password = $3, profile_image = $4, updated_at = now()
WHERE id = $5
RETURNING created_at, updated_at`
	deleteUserQuery = `DELETE FROM users WHERE id = $1`
)

func scanUser(row scanner) (*models.User, error) {
	u := &models.User{}
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Password, &u.ProfileImage, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Storage) CreateUser(ctx context.Context, user *models.User) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	err := s.pool.QueryRow(ctx, createUserQuery, user.Username, user.Email, user.Password, user.ProfileImage).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if dup, ok := duplicateError(err); ok {
			s.logger.Warn().Str("username", user.Username).Msg("duplicate user")
			return dup
		}
		s.logger.Error().Err(err).Msg("failed to create user")
		return fmt.Errorf("create user: %w", err)
	}

	s.logger.Debug().Int64("user_id", user.ID).Msg("user created")
	return nil
}

func (s *Storage) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return s.getUser(ctx, "id = $1", id)
}

func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getUser(ctx, "username = $1", username)
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, "email = $1", email)
}

func (s *Storage) getUser(ctx context.Context, where string, arg any) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	user, err := scanUser(s.pool.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE "+where, arg))
	if err != nil {
		if stdErrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.ErrUserNotFound
		}
		s.logger.Error().Err(err).Msg("failed to get user")
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (s *Storage) UpdateUser(ctx context.Context, user *models.User) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	err := s.pool.QueryRow(ctx, updateUserQuery, user.Username, user.Email, user.Password, user.ProfileImage, user.ID).
		Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if stdErrors.Is(err, pgx.ErrNoRows) {
			return errors.ErrUserNotFound
		}
		if dup, ok := duplicateError(err); ok {
			return dup
		}
		s.logger.Error().Err(err).Int64("user_id", user.ID).Msg("failed to update user")
		return fmt.Errorf("update user: %w", err)
	}

	s.logger.Debug().Int64("user_id", user.ID).Msg("user updated")
	return nil
}

// DeleteUser removes the user; tasks go with it through ON DELETE CASCADE.
func (s *Storage) DeleteUser(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	ct, err := s.pool.Exec(ctx, deleteUserQuery, id)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", id).Msg("failed to delete user")
		return fmt.Errorf("delete user: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return errors.ErrUserNotFound
	}

	s.logger.Debug().Int64("user_id", id).Msg("user deleted")
	return nil
}
