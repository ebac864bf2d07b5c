package follow

import (
	"github.com/google/wire"

	"grandpa/internal/database"
)

func ProvideRepository(db *database.Database) Repository {
	return NewRepository(db)
}

var Set = wire.NewSet(ProvideRepository, NewUseCase, NewJSONHandler)
