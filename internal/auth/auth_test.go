package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"grandpa/infrastructure"
	"grandpa/internal/database"
	"grandpa/internal/database/dbtest"
	"grandpa/pkg/jwt"
)

var testSecret = []byte("test-secret")

func newUseCase(t *testing.T) (UseCase, *database.Database, *jwt.JWT) {
	t.Helper()
	db := dbtest.New(t)
	tokens := jwt.NewJWT(testSecret, time.Hour, 24*time.Hour)
	return NewAuthUseCase(NewRepository(db), tokens), db, tokens
}

func createUser(t *testing.T, db *database.Database, username, password string) *database.User {
	t.Helper()
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	u := &database.User{Username: username, PasswordHash: hash}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestLoginIssuesTokensForUser(t *testing.T) {
	uc, db, tokens := newUseCase(t)
	u := createUser(t, db, "alice", "correct horse battery")

	got, err := uc.Login(context.Background(), "alice", "correct horse battery")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	claims, err := tokens.ValidateAccessToken(got.AccessToken)
	if err != nil {
		t.Fatalf("access token invalid: %v", err)
	}
	if claims.UserID != u.ID {
		t.Errorf("access user_id = %d, want %d", claims.UserID, u.ID)
	}
	if _, err := tokens.ValidateRefreshToken(got.RefreshToken); err != nil {
		t.Errorf("refresh token invalid: %v", err)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	uc, db, _ := newUseCase(t)
	createUser(t, db, "alice", "correct horse battery")

	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{"wrong password", "alice", "nope", infrastructure.ErrUnauthenticated},
		{"unknown user", "bob", "correct horse battery", infrastructure.ErrUnauthenticated},
		{"missing username", "", "x", infrastructure.ErrInvalidInput},
		{"missing password", "alice", "", infrastructure.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.Login(context.Background(), tt.username, tt.password)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRefreshToken(t *testing.T) {
	uc, db, tokens := newUseCase(t)
	u := createUser(t, db, "alice", "correct horse battery")

	pair, err := uc.Login(context.Background(), "alice", "correct horse battery")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	refreshed, err := uc.RefreshToken(context.Background(), pair.RefreshToken)
	if err != nil {
		t.Fatalf("RefreshToken: %v", err)
	}
	claims, err := tokens.ValidateAccessToken(refreshed.AccessToken)
	if err != nil || claims.UserID != u.ID {
		t.Fatalf("refreshed access token claims = %+v, err = %v", claims, err)
	}

	if _, err := uc.RefreshToken(context.Background(), pair.AccessToken); !errors.Is(err, infrastructure.ErrUnauthenticated) {
		t.Errorf("access token accepted as refresh token: err = %v", err)
	}

	if err := db.Delete(&database.User{}, u.ID).Error; err != nil {
		t.Fatalf("delete user: %v", err)
	}
	if _, err := uc.RefreshToken(context.Background(), pair.RefreshToken); !errors.Is(err, infrastructure.ErrUnauthenticated) {
		t.Errorf("refresh for deleted user: err = %v, want unauthenticated", err)
	}
}

func TestAuthenticateMiddleware(t *testing.T) {
	tokens := jwt.NewJWT(testSecret, time.Hour, time.Hour)
	am := NewAuthMiddleware(tokens)

	access, _, err := tokens.GenerateAccessToken(42)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	refresh, _, err := tokens.GenerateRefreshToken(42)
	if err != nil {
		t.Fatalf("GenerateRefreshToken: %v", err)
	}

	var seen uint
	h := am.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := GetUserIDFromContext(r.Context())
		if err != nil {
			t.Errorf("GetUserIDFromContext: %v", err)
		}
		seen = id
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer " + access, http.StatusNoContent},
		{"missing", "", http.StatusUnauthorized},
		{"no bearer prefix", access, http.StatusUnauthorized},
		{"refresh token", "Bearer " + refresh, http.StatusUnauthorized},
		{"garbage", "Bearer abc.def.ghi", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = 0
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusNoContent && seen != 42 {
				t.Errorf("user id in context = %d, want 42", seen)
			}
		})
	}
}

func TestGetUserIDFromContextWithoutUser(t *testing.T) {
	if _, err := GetUserIDFromContext(context.Background()); !errors.Is(err, infrastructure.ErrUnauthenticated) {
		t.Errorf("err = %v, want ErrUnauthenticated", err)
	}
}
