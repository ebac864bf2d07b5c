//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"grandpa/config"
	"grandpa/internal/api"
	"grandpa/internal/auth"
	"grandpa/internal/cache"
	"grandpa/internal/chat"
	"grandpa/internal/database"
	"grandpa/internal/email"
	"grandpa/internal/files"
	"grandpa/internal/follow"
	"grandpa/internal/journal"
	"grandpa/internal/messaging"
	"grandpa/internal/profile"
	"grandpa/internal/summary"
	"grandpa/internal/user"
)

var AppSet = wire.NewSet(
	auth.Set,
	user.Set,
	email.Set,
	follow.Set,
	messaging.NewHub,
	chat.Set,
	files.Set,
	profile.Set,
	summary.Set,
	journal.Set,
	api.Set,
	ProvideApp,
)

func InitializeApp(cfg *config.Config, db *database.Database, redis *cache.RedisCache) *App {
	wire.Build(AppSet)

	return &App{}
}
