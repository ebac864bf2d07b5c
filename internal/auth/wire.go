package auth

import (
	"github.com/google/wire"

	"grandpa/config"
	"grandpa/internal/database"
	"grandpa/pkg/jwt"
)

// ProvideJWT is a Wire provider function that creates the token issuer
func ProvideJWT(cfg *config.Config) *jwt.JWT {
	var opts []jwt.Option
	if cfg.JWTAudience != "" {
		opts = append(opts, jwt.WithAudience(cfg.JWTAudience))
	}
	if cfg.JWTIssuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.JWTIssuer))
	}
	return jwt.NewJWT(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL, opts...)
}

func ProvideRepository(db *database.Database) Repository {
	return NewRepository(db)
}

func ProvideUseCase(repo Repository, tokens *jwt.JWT) UseCase {
	return NewAuthUseCase(repo, tokens)
}

func ProvideJSONHandler(useCase UseCase) *JSONHandler {
	return NewJSONAuthHandler(useCase)
}

func ProvideAuthMiddleware(tokens *jwt.JWT) *AuthMiddleware {
	return NewAuthMiddleware(tokens)
}

var Set = wire.NewSet(
	ProvideJWT,
	ProvideRepository,
	ProvideUseCase,
	ProvideJSONHandler,
	ProvideAuthMiddleware,
	wire.Bind(new(TokenVerifier), new(*AuthMiddleware)),
)
