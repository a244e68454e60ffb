package repository

import (
	"context"
	"fmt"

	"github.com/axellelanca/linkquota/internal/models"
	"gorm.io/gorm"
)

// deleteBatchSize keeps IN lists well under SQLite's bound variable limit.
const deleteBatchSize = 500

// LinkRepository est une interface qui définit les méthodes d'accès aux données des liens.
// Every method is a single statement or a single transaction, so a failure leaves the
// previously committed rows untouched.
type LinkRepository interface {
	SaveLink(ctx context.Context, link *models.Link) error
	DeleteLink(ctx context.Context, id string) error
	DeleteLinks(ctx context.Context, ids []string) error
	GetAllLinks(ctx context.Context) ([]models.Link, error)
}

// GormLinkRepository est l'implémentation de LinkRepository utilisant GORM.
type GormLinkRepository struct {
	db *gorm.DB
}

// NewLinkRepository crée et retourne une nouvelle instance de GormLinkRepository.
func NewLinkRepository(db *gorm.DB) *GormLinkRepository {
	return &GormLinkRepository{db: db}
}

// SaveLink insère ou remplace un lien identifié par son ID.
func (r *GormLinkRepository) SaveLink(ctx context.Context, link *models.Link) error {
	if err := r.db.WithContext(ctx).Save(link).Error; err != nil {
		return fmt.Errorf("failed to save link %s: %w", link.ID, err)
	}
	return nil
}

// DeleteLink supprime un lien. Supprimer un lien absent n'est pas une erreur.
func (r *GormLinkRepository) DeleteLink(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Link{}).Error; err != nil {
		return fmt.Errorf("failed to delete link %s: %w", id, err)
	}
	return nil
}

// DeleteLinks supprime plusieurs liens dans une seule transaction.
func (r *GormLinkRepository) DeleteLinks(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for start := 0; start < len(ids); start += deleteBatchSize {
			end := min(start+deleteBatchSize, len(ids))
			if err := tx.Where("id IN ?", ids[start:end]).Delete(&models.Link{}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete %d links: %w", len(ids), err)
	}
	return nil
}

// GetAllLinks récupère tous les liens de la base de données.
func (r *GormLinkRepository) GetAllLinks(ctx context.Context) ([]models.Link, error) {
	var links []models.Link
	if err := r.db.WithContext(ctx).Find(&links).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve all links: %w", err)
	}
	return links, nil
}
