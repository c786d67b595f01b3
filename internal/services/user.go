package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/inkwell-io/inkwell/server/internal/auth"
	"github.com/inkwell-io/inkwell/server/internal/model"
	"github.com/inkwell-io/inkwell/server/internal/store"
)

// UserService owns account lifecycle: registration, credential checks,
// password changes and account deletion.
type UserService struct {
	store   store.Store
	journal *JournalService
}

func NewUserService(s store.Store, journal *JournalService) *UserService {
	return &UserService{store: s, journal: journal}
}

// Register creates an account. The email must be unused; a duplicate
// surfaces model.ErrConflict.
func (s *UserService) Register(ctx context.Context, email, password string) (*model.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &model.User{
		UserID:       uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		CreationTime: time.Now().UTC(),
	}
	return s.store.Users().Create(ctx, u)
}

// Authenticate verifies email and password. Unknown email and wrong
// password both return auth.ErrBadCredentials.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	u, err := s.store.Users().GetByEmail(ctx, email)
	if err != nil {
		return nil, auth.ErrBadCredentials
	}
	if !auth.VerifyPassword(password, u.PasswordHash) {
		return nil, auth.ErrBadCredentials
	}
	return u, nil
}

// Get returns the account by ID.
func (s *UserService) Get(ctx context.Context, userID string) (*model.User, error) {
	return s.store.Users().Get(ctx, userID)
}

// ChangePassword replaces the stored hash after verifying the current
// password.
func (s *UserService) ChangePassword(ctx context.Context, userID, current, next string) error {
	u, err := s.store.Users().Get(ctx, userID)
	if err != nil {
		return err
	}
	if !auth.VerifyPassword(current, u.PasswordHash) {
		return auth.ErrBadCredentials
	}
	hash, err := auth.HashPassword(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.store.Users().UpdatePassword(ctx, userID, hash)
}

// DeleteAccount removes the user and every journal entry they own,
// including the index points.
func (s *UserService) DeleteAccount(ctx context.Context, userID string) error {
	entries, err := s.journal.ListEntries(ctx, userID)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if _, err := s.journal.DeleteEntry(ctx, userID, e.ID); err != nil {
			return err
		}
	}
	return s.store.Users().Delete(ctx, userID)
}
