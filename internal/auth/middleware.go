package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"grandpa/infrastructure"
	"grandpa/pkg/jwt"
)

type contextKey string

const userIDKey contextKey = "user_id"

// WithUserID returns a copy of ctx carrying the authenticated user id.
func WithUserID(ctx context.Context, userID uint) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// GetUserIDFromContext retrieves the user ID from the context
func GetUserIDFromContext(ctx context.Context) (uint, error) {
	id, ok := ctx.Value(userIDKey).(uint)
	if !ok || id == 0 {
		return 0, infrastructure.ErrUnauthenticated
	}
	return id, nil
}

// TokenVerifier resolves an access token to the user it was issued for.
type TokenVerifier interface {
	VerifyAccessToken(token string) (uint, error)
}

type AuthMiddleware struct {
	tokens *jwt.JWT
}

func NewAuthMiddleware(tokens *jwt.JWT) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// VerifyAccessToken checks signature, expiry, audience and issuer and
// returns the user_id claim.
func (am *AuthMiddleware) VerifyAccessToken(token string) (uint, error) {
	if token == "" {
		return 0, infrastructure.ErrMissingToken
	}
	claims, err := am.tokens.ValidateAccessToken(token)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, infrastructure.ErrTokenExpired
		}
		return 0, infrastructure.ErrInvalidToken
	}
	return claims.UserID, nil
}

// Authenticate rejects requests without a valid "Authorization: Bearer"
// access token and stores the caller's id in the request context.
func (am *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			infrastructure.WriteError(w, r, infrastructure.ErrMissingToken)
			return
		}

		userID, err := am.VerifyAccessToken(strings.TrimSpace(token))
		if err != nil {
			infrastructure.WriteError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}
