package repository

import (
	"context"
	"errors"
	"fmt"

	customerrors "github.com/axellelanca/linkquota/internal/errors"
	"github.com/axellelanca/linkquota/internal/models"
	"gorm.io/gorm"
)

// UserRepository stores user profiles and their link policy.
type UserRepository interface {
	SaveUser(ctx context.Context, user *models.UserProfile) error
	GetUserByID(ctx context.Context, id string) (*models.UserProfile, error)
}

// GormUserRepository est l'implémentation de UserRepository utilisant GORM.
type GormUserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// SaveUser insère ou met à jour un profil utilisateur.
func (r *GormUserRepository) SaveUser(ctx context.Context, user *models.UserProfile) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		return fmt.Errorf("failed to save user %s: %w", user.ID, err)
	}
	return nil
}

// GetUserByID returns customerrors.ErrNotFound when no profile has this ID.
func (r *GormUserRepository) GetUserByID(ctx context.Context, id string) (*models.UserProfile, error) {
	var user models.UserProfile
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, customerrors.NotFound("get user", "user %s not found", id)
		}
		return nil, fmt.Errorf("failed to get user %s: %w", id, err)
	}
	return &user, nil
}
