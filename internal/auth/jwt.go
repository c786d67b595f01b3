package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTAuthorizer mints and verifies HS256 access tokens. The subject claim
// carries the user ID; email rides along for display.
type JWTAuthorizer struct {
	secret []byte
	ttl    time.Duration
}

func NewJWTAuthorizer(secret string, ttl time.Duration) (*JWTAuthorizer, error) {
	if secret == "" {
		return nil, fmt.Errorf("auth secret must not be empty")
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &JWTAuthorizer{secret: []byte(secret), ttl: ttl}, nil
}

type claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Mint issues a signed access token for the user.
func (a *JWTAuthorizer) Mint(userID, email string) (string, error) {
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	})
	return tok.SignedString(a.secret)
}

// Authorize verifies the token signature and expiry and returns the identity.
func (a *JWTAuthorizer) Authorize(_ context.Context, token string) (*UserInfo, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if c.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &UserInfo{UserID: c.Subject, Email: c.Email}, nil
}
