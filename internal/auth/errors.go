package auth

import "errors"

var (
	// ErrInvalidToken is returned for missing, malformed, expired or
	// wrongly-signed tokens. Deliberately unspecific.
	ErrInvalidToken = errors.New("could not validate credentials")

	// ErrBadCredentials is returned when email/password authentication fails.
	ErrBadCredentials = errors.New("incorrect email or password")
)
