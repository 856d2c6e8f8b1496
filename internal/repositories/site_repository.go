package repositories

import (
	"context"
	"errors"

	"identity-server/internal/models"

	"gorm.io/gorm"
)

type SiteRepository struct {
	db *gorm.DB
}

func NewSiteRepository(db *gorm.DB) *SiteRepository {
	return &SiteRepository{db: db}
}

func (r *SiteRepository) FindByDomain(ctx context.Context, domain string) (*models.Site, error) {
	var site models.Site
	err := r.db.WithContext(ctx).Where("domain = ?", domain).First(&site).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &site, nil
}

func (r *SiteRepository) FindByID(ctx context.Context, id uint) (*models.Site, error) {
	var site models.Site
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&site).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &site, nil
}
