package api

import "github.com/google/wire"

var Set = wire.NewSet(
	ProvideHealthServer,
	NewGRPCServer,
	NewGRPCWeb,
	wire.Struct(new(Handlers), "*"),
	NewServer,
)
