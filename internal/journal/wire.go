package journal

import "github.com/google/wire"

var Set = wire.NewSet(NewRepository, NewService, NewJSONHandler)
