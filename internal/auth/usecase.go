package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"grandpa/infrastructure"
	"grandpa/pkg/jwt"
)

var ErrInvalidCredentials = fmt.Errorf("%w: no active account found with the given credentials", infrastructure.ErrUnauthenticated)

type Tokens struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

type UseCase interface {
	Login(ctx context.Context, username, password string) (*Tokens, error)
	RefreshToken(ctx context.Context, refreshToken string) (*Tokens, error)
}

type authUseCase struct {
	repo   Repository
	tokens *jwt.JWT
}

func NewAuthUseCase(repo Repository, tokens *jwt.JWT) UseCase {
	return &authUseCase{repo: repo, tokens: tokens}
}

// Login checks the password and issues an access/refresh pair.
func (uc *authUseCase) Login(ctx context.Context, username, password string) (*Tokens, error) {
	if username == "" {
		return nil, infrastructure.NewValidationError("username", "This field is required.")
	}
	if password == "" {
		return nil, infrastructure.NewValidationError("password", "This field is required.")
	}

	user, err := uc.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, infrastructure.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !VerifyPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	access, accessExp, err := uc.tokens.GenerateAccessToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refresh, refreshExp, err := uc.tokens.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &Tokens{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// RefreshToken exchanges a valid refresh token for a new access token. The
// refresh token itself is not rotated.
func (uc *authUseCase) RefreshToken(ctx context.Context, refreshToken string) (*Tokens, error) {
	if refreshToken == "" {
		return nil, infrastructure.NewValidationError("refresh", "This field is required.")
	}

	claims, err := uc.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, infrastructure.ErrTokenExpired
		}
		return nil, infrastructure.ErrInvalidToken
	}

	ok, err := uc.repo.Exists(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, infrastructure.ErrInvalidToken
	}

	access, accessExp, err := uc.tokens.GenerateAccessToken(claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return &Tokens{AccessToken: access, AccessExpiresAt: accessExp}, nil
}

const passwordCost = 12

func HashPassword(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), passwordCost)
}

func VerifyPassword(hashedPassword []byte, password string) bool {
	err := bcrypt.CompareHashAndPassword(hashedPassword, []byte(password))
	return err == nil
}
