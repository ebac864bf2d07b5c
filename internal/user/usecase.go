package user

import (
	"context"
	"log/slog"
	"strings"

	"grandpa/internal/auth"
	"grandpa/internal/database"
)

const searchLimit = 20

// Notifier is told about freshly registered accounts.
type Notifier interface {
	SendWelcomeEmail(to, username string) error
}

type AccountUseCase struct {
	userRepo Repository
	notifier Notifier
}

// NewUserAccountUseCase builds the account use case. notifier may be nil.
func NewUserAccountUseCase(userRepo Repository, notifier Notifier) *AccountUseCase {
	return &AccountUseCase{
		userRepo: userRepo,
		notifier: notifier,
	}
}

func (uc *AccountUseCase) Register(ctx context.Context, input RegisterInput) (*User, error) {
	if err := CheckRegistration(&input); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	dbUser := &database.User{
		Username:     input.Username,
		Email:        input.Email,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		PasswordHash: hash,
	}
	if err := uc.userRepo.Create(ctx, dbUser); err != nil {
		return nil, err
	}

	if uc.notifier != nil && dbUser.Email != "" {
		go func(to, username string) {
			if err := uc.notifier.SendWelcomeEmail(to, username); err != nil {
				slog.Warn("failed to send welcome email", "user", username, "err", err)
			}
		}(dbUser.Email, dbUser.Username)
	}

	return ConvertDBUserToUser(dbUser), nil
}

func (uc *AccountUseCase) GetUserByID(ctx context.Context, id uint) (*User, error) {
	dbUser, err := uc.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return ConvertDBUserToUser(dbUser), nil
}

// Search returns users whose username starts with query, excluding the
// caller. An empty query matches nobody.
func (uc *AccountUseCase) Search(ctx context.Context, callerID uint, query string) ([]*User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []*User{}, nil
	}

	dbUsers, err := uc.userRepo.SearchByUsername(ctx, query, callerID, searchLimit)
	if err != nil {
		return nil, err
	}

	users := make([]*User, len(dbUsers))
	for i := range dbUsers {
		users[i] = ConvertDBUserToUser(&dbUsers[i])
	}
	return users, nil
}
