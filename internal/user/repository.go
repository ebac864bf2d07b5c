package user

import (
	"context"
	"fmt"
	"strings"

	"grandpa/infrastructure"
	"grandpa/internal/database"
)

type Repository interface {
	Create(ctx context.Context, user *database.User) error
	GetByID(ctx context.Context, id uint) (*database.User, error)
	SearchByUsername(ctx context.Context, prefix string, excludeID uint, limit int) ([]database.User, error)
}

type repository struct {
	db *database.Database
}

func NewRepository(db *database.Database) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, user *database.User) error {
	err := infrastructure.TimeOperation(ctx, "user.Create", func() error {
		return r.db.WithContext(ctx).Create(user).Error
	})
	if err != nil {
		if infrastructure.IsUniqueViolation(err) {
			return infrastructure.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uint) (*database.User, error) {
	var user database.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if infrastructure.IsNotFound(err) {
			return nil, infrastructure.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// SearchByUsername matches usernames starting with prefix, case-insensitively.
func (r *repository) SearchByUsername(ctx context.Context, prefix string, excludeID uint, limit int) ([]database.User, error) {
	pattern := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(strings.ToLower(prefix)) + "%"

	var users []database.User
	err := infrastructure.TimeOperation(ctx, "user.SearchByUsername", func() error {
		return r.db.WithContext(ctx).
			Where(`LOWER(username) LIKE ? ESCAPE '\'`, pattern).
			Where("id <> ?", excludeID).
			Order("username").
			Limit(limit).
			Find(&users).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	return users, nil
}
