package auth

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMintAndAuthorizeRoundTrip(t *testing.T) {
	a, err := NewJWTAuthorizer("secret", time.Minute)
	require.NoError(t, err)

	tok, err := a.Mint("u1", "a@b.co")
	require.NoError(t, err)

	info, err := a.Authorize(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", info.UserID)
	assert.Equal(t, "a@b.co", info.Email)
}

func TestAuthorizeRejectsExpiredToken(t *testing.T) {
	a, err := NewJWTAuthorizer("secret", time.Minute)
	require.NoError(t, err)
	a.ttl = -time.Minute

	tok, err := a.Mint("u1", "a@b.co")
	require.NoError(t, err)

	_, err = a.Authorize(context.Background(), tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthorizeRejectsForeignSignature(t *testing.T) {
	a1, _ := NewJWTAuthorizer("secret-one", time.Minute)
	a2, _ := NewJWTAuthorizer("secret-two", time.Minute)

	tok, err := a1.Mint("u1", "a@b.co")
	require.NoError(t, err)

	_, err = a2.Authorize(context.Background(), tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthorizeRejectsGarbage(t *testing.T) {
	a, _ := NewJWTAuthorizer("secret", time.Minute)
	_, err := a.Authorize(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewJWTAuthorizerRequiresSecret(t *testing.T) {
	_, err := NewJWTAuthorizer("", time.Minute)
	assert.Error(t, err)
}

func TestExtractBearer(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	_, err := ExtractBearer(r)
	assert.Error(t, err)

	r.Header.Set("Authorization", "Basic abc")
	_, err = ExtractBearer(r)
	assert.Error(t, err)

	r.Header.Set("Authorization", "Bearer tok123")
	tok, err := ExtractBearer(r)
	require.NoError(t, err)
	assert.Equal(t, "tok123", tok)
}

func TestPasswordHashing(t *testing.T) {
	h, err := HashPassword("hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2", h)
	assert.True(t, VerifyPassword("hunter2", h))
	assert.False(t, VerifyPassword("hunter3", h))
}
