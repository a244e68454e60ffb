package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/axellelanca/linkquota/internal/config"
	customerrors "github.com/axellelanca/linkquota/internal/errors"
	"github.com/axellelanca/linkquota/internal/models"
	"github.com/axellelanca/linkquota/internal/repository"
)

// UserService manages user profiles and serves as the link service's PolicyProvider.
type UserService struct {
	users    repository.UserRepository
	settings config.LinkSettings
}

func NewUserService(users repository.UserRepository, settings config.LinkSettings) *UserService {
	return &UserService{users: users, settings: settings}
}

// RegisterUser creates a profile with the configured default quota and fallback TTL.
func (s *UserService) RegisterUser(ctx context.Context) (*models.UserProfile, error) {
	user := &models.UserProfile{
		ID:               uuid.NewString(),
		DefaultMaxClicks: s.settings.DefaultClicks,
		TTLHours:         s.settings.FallbackTTLHours,
	}
	if err := s.users.SaveUser(ctx, user); err != nil {
		return nil, customerrors.Persistence("register user", err)
	}
	return user, nil
}

// GetUser returns the profile for id.
func (s *UserService) GetUser(ctx context.Context, id string) (*models.UserProfile, error) {
	const op = "get user"

	if _, err := uuid.Parse(id); err != nil {
		return nil, customerrors.Validation(op, "malformed user id %q", id)
	}
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, customerrors.ErrNotFound) {
			return nil, err
		}
		return nil, customerrors.Persistence(op, err)
	}
	return user, nil
}

// GetPolicy implements PolicyProvider.
func (s *UserService) GetPolicy(ctx context.Context, ownerID string) (*models.UserProfile, error) {
	return s.GetUser(ctx, ownerID)
}

// UpdateSettings changes the defaults used for the user's future links.
// Both values are checked against the same bounds as at registration.
func (s *UserService) UpdateSettings(ctx context.Context, id string, maxClicks, ttlHours int) (*models.UserProfile, error) {
	const op = "update settings"

	if !config.TTLInBounds(ttlHours) {
		return nil, customerrors.Validation(op, "TTL must be in [1, %d] hours, got %d", config.MaxTTLHours, ttlHours)
	}
	if !s.settings.QuotaInBounds(maxClicks) {
		return nil, customerrors.Validation(op, "click quota must be in [%d, %d], got %d",
			s.settings.MinClicks, s.settings.MaxClicks, maxClicks)
	}

	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	user.DefaultMaxClicks = maxClicks
	user.TTLHours = ttlHours
	if err := s.users.SaveUser(ctx, user); err != nil {
		return nil, customerrors.Persistence(op, err)
	}
	return user, nil
}
