package auth

import "context"

// StaticAuthorizer resolves any non-empty token to a fixed user.
// For tests and local development only.
type StaticAuthorizer struct {
	User UserInfo
}

func NewStaticAuthorizer(userID, email string) *StaticAuthorizer {
	return &StaticAuthorizer{User: UserInfo{UserID: userID, Email: email}}
}

func (s *StaticAuthorizer) Authorize(_ context.Context, token string) (*UserInfo, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	u := s.User
	return &u, nil
}
