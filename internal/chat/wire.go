package chat

import (
	"github.com/google/wire"

	"grandpa/internal/database"
	"grandpa/internal/follow"
	"grandpa/internal/messaging"
)

func ProvideRepository(db *database.Database) Repository {
	return NewRepository(db)
}

var Set = wire.NewSet(
	ProvideRepository,
	NewChatService,
	NewJSONHandler,
	NewWSHandler,
	wire.Bind(new(FollowChecker), new(*follow.UseCase)),
	wire.Bind(new(Broadcaster), new(*messaging.Hub)),
)
