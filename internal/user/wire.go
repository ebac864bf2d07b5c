package user

import (
	"github.com/google/wire"

	"grandpa/internal/database"
)

func ProvideJsonHandler(userUseCase *AccountUseCase) *JSONHandler {
	return NewJSONHandler(userUseCase)
}

func ProvideAccountUseCase(userRepo Repository, notifier Notifier) *AccountUseCase {
	return NewUserAccountUseCase(userRepo, notifier)
}

func ProvideRepository(db *database.Database) Repository {
	return NewRepository(db)
}

var Set = wire.NewSet(ProvideRepository, ProvideAccountUseCase, ProvideJsonHandler)
