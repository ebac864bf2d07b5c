package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token has expired")
)

type JWT struct {
	secretKey  []byte
	audience   string
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

type Claims struct {
	UserID    uint   `json:"user_id"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

type Option func(*JWT)

// WithAudience requires and stamps the aud claim.
func WithAudience(audience string) Option {
	return func(j *JWT) { j.audience = audience }
}

// WithIssuer requires and stamps the iss claim.
func WithIssuer(issuer string) Option {
	return func(j *JWT) { j.issuer = issuer }
}

func WithClock(now func() time.Time) Option {
	return func(j *JWT) { j.now = now }
}

func NewJWT(secretKey []byte, accessTTL, refreshTTL time.Duration, opts ...Option) *JWT {
	j := &JWT{
		secretKey:  secretKey,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

func (j *JWT) GenerateAccessToken(userID uint) (string, time.Time, error) {
	return j.generate(userID, TokenTypeAccess, j.accessTTL)
}

func (j *JWT) GenerateRefreshToken(userID uint) (string, time.Time, error) {
	return j.generate(userID, TokenTypeRefresh, j.refreshTTL)
}

func (j *JWT) generate(userID uint, tokenType string, ttl time.Duration) (string, time.Time, error) {
	now := j.now()
	expiresAt := now.Add(ttl)
	claims := &Claims{
		UserID:    userID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    j.issuer,
		},
	}
	if j.audience != "" {
		claims.Audience = jwt.ClaimStrings{j.audience}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(j.secretKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ValidateAccessToken verifies signature, expiry, audience and issuer and
// returns the claims of an access token carrying a user id.
func (j *JWT) ValidateAccessToken(tokenString string) (*Claims, error) {
	return j.validate(tokenString, TokenTypeAccess)
}

func (j *JWT) ValidateRefreshToken(tokenString string) (*Claims, error) {
	return j.validate(tokenString, TokenTypeRefresh)
}

func (j *JWT) validate(tokenString, tokenType string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	parser := jwt.Parser{ValidMethods: []string{jwt.SigningMethodHS256.Alg()}}
	token, err := parser.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return j.secretKey, nil
	})
	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) && ve.Errors == jwt.ValidationErrorExpired {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == 0 || claims.TokenType != tokenType {
		return nil, ErrInvalidToken
	}
	if j.audience != "" && !claims.VerifyAudience(j.audience, true) {
		return nil, ErrInvalidToken
	}
	if j.issuer != "" && !claims.VerifyIssuer(j.issuer, true) {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
