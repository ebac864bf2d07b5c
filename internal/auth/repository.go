package auth

import (
	"context"
	"fmt"

	"grandpa/infrastructure"
	"grandpa/internal/database"
)

// Repository reads the credentials needed to sign a user in.
type Repository interface {
	GetByUsername(ctx context.Context, username string) (*database.User, error)
	Exists(ctx context.Context, id uint) (bool, error)
}

type repository struct {
	db *database.Database
}

func NewRepository(db *database.Database) Repository {
	return &repository{db: db}
}

func (r *repository) GetByUsername(ctx context.Context, username string) (*database.User, error) {
	var user database.User
	err := infrastructure.TimeOperation(ctx, "auth.GetByUsername", func() error {
		return r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	})
	if err != nil {
		if infrastructure.IsNotFound(err) {
			return nil, infrastructure.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}
	return &user, nil
}

func (r *repository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&database.User{}).Where("id = ?", id).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check user: %w", err)
	}
	return count > 0, nil
}
