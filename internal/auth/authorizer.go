package auth

import (
	"context"
)

// UserInfo contains information about an authenticated user.
type UserInfo struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// Authorizer resolves a bearer token to a verified user identity.
// The core trusts the returned identity completely and never re-validates
// credentials downstream.
type Authorizer interface {
	Authorize(ctx context.Context, token string) (*UserInfo, error)
}
