package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domainErrors "taskmanager/internal/domain/errors"
	"taskmanager/internal/domain/models"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

const tokenType = "Bearer"

type AuthService struct {
	users  UserRepository
	tokens TokenIssuer
	logger zerolog.Logger
	cost   int
}

func NewAuthService(users UserRepository, tokens TokenIssuer, logger zerolog.Logger) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		logger: logger.With().Str("component", "auth").Logger(),
		cost:   bcrypt.DefaultCost,
	}
}

// Register creates a user after checking that neither the username nor the
// email is in use. The store's unique constraints back the check up.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)

	if err := s.ensureFree(ctx, username, email, 0); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Username: username,
		Email:    email,
		Password: string(hash),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if !errors.Is(err, domainErrors.ErrUserAlreadyExists) {
			s.logger.Error().Err(err).Str("username", username).Msg("failed to create user")
		}
		return nil, err
	}

	s.logger.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("user registered")
	return user, nil
}

// ensureFree reports a duplicate when username or email belongs to a user
// other than exceptID. Username is checked first.
func (s *AuthService) ensureFree(ctx context.Context, username, email string, exceptID int64) error {
	if username != "" {
		u, err := s.users.GetUserByUsername(ctx, username)
		switch {
		case err == nil && u.ID != exceptID:
			return domainErrors.ErrUsernameTaken
		case err != nil && !errors.Is(err, domainErrors.ErrUserNotFound):
			return err
		}
	}
	if email != "" {
		u, err := s.users.GetUserByEmail(ctx, email)
		switch {
		case err == nil && u.ID != exceptID:
			return domainErrors.ErrEmailTaken
		case err != nil && !errors.Is(err, domainErrors.ErrUserNotFound):
			return err
		}
	}
	return nil
}

// Resolve finds a user by username, falling back to email.
func (s *AuthService) Resolve(ctx context.Context, identifier string) (*models.User, error) {
	user, err := s.users.GetUserByUsername(ctx, identifier)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domainErrors.ErrUserNotFound) {
		return nil, err
	}
	return s.users.GetUserByEmail(ctx, identifier)
}

func (s *AuthService) Login(ctx context.Context, identifier, password string) (*models.LoginResponse, error) {
	user, err := s.Resolve(ctx, strings.TrimSpace(identifier))
	if err != nil {
		if errors.Is(err, domainErrors.ErrUserNotFound) {
			s.logger.Warn().Msg("login for unknown identity")
			return nil, domainErrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		s.logger.Warn().Int64("user_id", user.ID).Msg("login with wrong password")
		return nil, domainErrors.ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	return &models.LoginResponse{
		Token:        token,
		Type:         tokenType,
		Username:     user.Username,
		Email:        user.Email,
		ProfileImage: user.ProfileImage,
	}, nil
}

func (s *AuthService) UserByID(ctx context.Context, id int64) (*models.User, error) {
	return s.users.GetUserByID(ctx, id)
}

// UpdateProfile changes the email when a different, non-blank one is given
// and replaces the profile image when one is present in the request.
func (s *AuthService) UpdateProfile(ctx context.Context, id int64, req models.ProfileUpdateRequest) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if email != "" && email != user.Email {
			if err := s.ensureFree(ctx, "", email, user.ID); err != nil {
				return nil, err
			}
			user.Email = email
		}
	}
	if req.ProfileImage != nil {
		img := *req.ProfileImage
		user.ProfileImage = &img
	}

	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("user_id", user.ID).Msg("profile updated")
	return user, nil
}

// DeleteAccount removes the user together with all of their tasks.
func (s *AuthService) DeleteAccount(ctx context.Context, id int64) error {
	if err := s.users.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("user_id", id).Msg("account deleted")
	return nil
}
