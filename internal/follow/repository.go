package follow

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	"grandpa/infrastructure"
	"grandpa/internal/database"
)

type Repository interface {
	// Follow stores the edge and reports whether it was new.
	Follow(ctx context.Context, followerID, followeeID uint) (bool, error)
	Unfollow(ctx context.Context, followerID, followeeID uint) error
	// IsMutual reports whether a follows b and b follows a.
	IsMutual(ctx context.Context, a, b uint) (bool, error)
	UserExists(ctx context.Context, id uint) (bool, error)
}

type repository struct {
	db *database.Database
}

func NewRepository(db *database.Database) Repository {
	return &repository{db: db}
}

func (r *repository) Follow(ctx context.Context, followerID, followeeID uint) (bool, error) {
	var created bool
	err := infrastructure.TimeOperation(ctx, "follow.Follow", func() error {
		res := r.db.WithContext(ctx).
			Omit("Follower", "Followee").
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&database.Follow{FollowerID: followerID, FolloweeID: followeeID})
		created = res.RowsAffected > 0
		return res.Error
	})
	if err != nil {
		return false, fmt.Errorf("failed to follow: %w", err)
	}
	return created, nil
}

func (r *repository) Unfollow(ctx context.Context, followerID, followeeID uint) error {
	err := r.db.WithContext(ctx).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Delete(&database.Follow{}).Error
	if err != nil {
		return fmt.Errorf("failed to unfollow: %w", err)
	}
	return nil
}

func (r *repository) IsMutual(ctx context.Context, a, b uint) (bool, error) {
	var count int64
	err := infrastructure.TimeOperation(ctx, "follow.IsMutual", func() error {
		return r.db.WithContext(ctx).Model(&database.Follow{}).
			Where("(follower_id = ? AND followee_id = ?) OR (follower_id = ? AND followee_id = ?)", a, b, b, a).
			Count(&count).Error
	})
	if err != nil {
		return false, fmt.Errorf("failed to check follow edges: %w", err)
	}
	return count == 2, nil
}

func (r *repository) UserExists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&database.User{}).Where("id = ?", id).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check user: %w", err)
	}
	return count > 0, nil
}
