package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"quillpost-api/models"
	"quillpost-api/repositories"
)

type UserService struct {
	db    *gorm.DB
	users *repositories.UserRepository
	now   Clock
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{
		db:    db,
		users: repositories.NewUserRepository(db),
		now:   systemClock,
	}
}

// currentUser resolves the caller's identity to a stored user.
func currentUser(ctx context.Context, users *repositories.UserRepository, identity *models.Identity) (*models.User, error) {
	if identity == nil || identity.TokenIdentifier == "" {
		return nil, ErrNotAuthenticated
	}

	user, err := users.FindByToken(ctx, identity.TokenIdentifier)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, fmt.Errorf("user: %w", ErrNotFound)
		}
		return nil, err
	}
	return user, nil
}

// Store creates the caller's user record on first sight, or refreshes the
// display name and activity timestamp of an existing one.
func (s *UserService) Store(ctx context.Context, identity *models.Identity) (*models.User, error) {
	if identity == nil || identity.TokenIdentifier == "" {
		return nil, ErrNotAuthenticated
	}

	now := s.now()
	user, err := s.users.FindByToken(ctx, identity.TokenIdentifier)
	switch {
	case err == nil:
		updates := map[string]interface{}{"last_active_at": now}
		if identity.Name != "" {
			updates["name"] = identity.Name
			user.Name = identity.Name
		}
		if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
			return nil, err
		}
		user.LastActiveAt = now
		return user, nil
	case !errors.Is(err, repositories.ErrUserNotFound):
		return nil, err
	}

	name := identity.Name
	if name == "" {
		name = "Anonymous"
	}
	user = &models.User{
		ID:              uuid.New().String(),
		TokenIdentifier: identity.TokenIdentifier,
		Name:            name,
		Email:           identity.Email,
		Username:        identity.Username,
		ImageURL:        identity.PictureURL,
		CreatedAt:       now,
		LastActiveAt:    now,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		// A concurrent first request may have won the unique token index.
		if existing, findErr := s.users.FindByToken(ctx, identity.TokenIdentifier); findErr == nil {
			return existing, nil
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) Current(ctx context.Context, identity *models.Identity) (*models.User, error) {
	return currentUser(ctx, s.users, identity)
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, fmt.Errorf("user %q: %w", username, ErrNotFound)
		}
		return nil, err
	}
	return user, nil
}
