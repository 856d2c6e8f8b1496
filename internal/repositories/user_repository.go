package repositories

import (
	"context"
	"errors"

	"identity-server/internal/models"

	"gorm.io/gorm"
)

// UserRepository wraps user persistence. All lookups that take a siteID are
// tenant-scoped; credential values are only unique within a site.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindBySiteAndEmail(ctx context.Context, siteID uint, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("site_id = ? AND email = ?", siteID, email).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindBySiteAndPhoneNumber(ctx context.Context, siteID uint, phoneNumber string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("site_id = ? AND phone_number = ?", siteID, phoneNumber).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// FindBySiteAndCredential looks a user up by either main credential value.
func (r *UserRepository) FindBySiteAndCredential(ctx context.Context, siteID uint, credential string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("site_id = ? AND (email = ? OR phone_number = ?)", siteID, credential, credential).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByGoogleSub(ctx context.Context, siteID uint, sub string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("site_id = ? AND google_sub = ?", siteID, sub).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// ExistsBySiteAndEmail also matches pending candidate values so a credential
// mid-change cannot be claimed by another registration.
func (r *UserRepository) ExistsBySiteAndEmail(ctx context.Context, siteID uint, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("site_id = ? AND (email = ? OR email_candidate = ?)", siteID, email, email).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *UserRepository) ExistsBySiteAndPhoneNumber(ctx context.Context, siteID uint, phoneNumber string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("site_id = ? AND (phone_number = ? OR phone_number_candidate = ?)", siteID, phoneNumber, phoneNumber).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// Update persists the full user row. Save is used over column updates so the
// confirmation engine's zeroed PINs and cleared candidates are written too.
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}
