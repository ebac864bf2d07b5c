// Package follow manages the directed follow graph between users. A pair of
// users may chat only when each follows the other.
package follow

import (
	"context"
	"fmt"

	"grandpa/infrastructure"
)

var ErrSelfFollow = fmt.Errorf("%w: cannot follow yourself", infrastructure.ErrConflict)

type UseCase struct {
	repo Repository
}

func NewUseCase(repo Repository) *UseCase {
	return &UseCase{repo: repo}
}

// Follow makes followerID follow followeeID. Following twice is not an
// error; the result reports whether a new edge was stored.
func (uc *UseCase) Follow(ctx context.Context, followerID, followeeID uint) (bool, error) {
	if followeeID == 0 {
		return false, infrastructure.NewValidationError("user_id", "This field is required.")
	}
	if followerID == followeeID {
		return false, ErrSelfFollow
	}

	ok, err := uc.repo.UserExists(ctx, followeeID)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, infrastructure.ErrUserNotFound
	}

	return uc.repo.Follow(ctx, followerID, followeeID)
}

// Unfollow removes the edge if present.
func (uc *UseCase) Unfollow(ctx context.Context, followerID, followeeID uint) error {
	return uc.repo.Unfollow(ctx, followerID, followeeID)
}

func (uc *UseCase) IsMutual(ctx context.Context, a, b uint) (bool, error) {
	if a == b {
		return false, nil
	}
	return uc.repo.IsMutual(ctx, a, b)
}
