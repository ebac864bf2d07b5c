package profile

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"grandpa/infrastructure"
	"grandpa/internal/database"
)

type Repository struct {
	db *database.Database
}

func NewRepository(db *database.Database) *Repository {
	return &Repository{db: db}
}

func (r *Repository) List(ctx context.Context, ownerID uint) ([]database.Profile, error) {
	var profiles []database.Profile
	err := infrastructure.TimeOperation(ctx, "profile.List", func() error {
		return r.db.WithContext(ctx).
			Where("owner_id = ?", ownerID).
			Order("is_default DESC, name").
			Find(&profiles).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	return profiles, nil
}

// GetOwned returns the profile only if ownerID owns it.
func (r *Repository) GetOwned(ctx context.Context, ownerID, profileID uint) (*database.Profile, error) {
	var p database.Profile
	err := r.db.WithContext(ctx).Where("id = ? AND owner_id = ?", profileID, ownerID).First(&p).Error
	if err != nil {
		if infrastructure.IsNotFound(err) {
			return nil, infrastructure.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &p, nil
}

// Create inserts p. When p is the owner's first profile or is marked
// default it becomes the only default one.
func (r *Repository) Create(ctx context.Context, p *database.Profile) error {
	err := infrastructure.WithTransaction(ctx, r.db.DB, func(tx *gorm.DB) error {
		if err := tx.Omit("Owner").Create(p).Error; err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&database.Profile{}).Where("owner_id = ?", p.OwnerID).Count(&count).Error; err != nil {
			return err
		}
		if !p.IsDefault && count > 1 {
			return nil
		}

		if err := tx.Model(&database.Profile{}).
			Where("owner_id = ? AND id <> ?", p.OwnerID, p.ID).
			Update("is_default", false).Error; err != nil {
			return err
		}
		p.IsDefault = true
		return tx.Model(p).Update("is_default", true).Error
	})
	if err != nil {
		if infrastructure.IsUniqueViolation(err) {
			return fmt.Errorf("%w: profile with this name already exists", infrastructure.ErrConflict)
		}
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

func (r *Repository) UpdateAvatar(ctx context.Context, p *database.Profile, url string) error {
	if err := r.db.WithContext(ctx).Model(p).Update("avatar_url", url).Error; err != nil {
		return fmt.Errorf("failed to update avatar: %w", err)
	}
	return nil
}
