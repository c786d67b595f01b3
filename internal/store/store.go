package store

import (
	"context"

	"github.com/inkwell-io/inkwell/server/internal/model"
)

// Store exposes persistence operations required by services.
// Implementations live under internal/store/<driver>/ (sqlite, postgres).
//
// The record store is the source of truth for entry content and metadata;
// the vector index is derived state kept in lockstep by JournalService.
type Store interface {
	Users() Users
	Entries() Entries
}

type Users interface {
	// Create persists a new user. Returns model.ErrConflict when the email
	// is already registered.
	Create(ctx context.Context, u *model.User) (*model.User, error)
	Get(ctx context.Context, userID string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	Delete(ctx context.Context, userID string) error
}

type Entries interface {
	Create(ctx context.Context, e *model.Entry) (*model.Entry, error)

	// Get returns the entry only when it exists AND belongs to ownerID;
	// both "absent" and "owned by someone else" map to model.ErrNotFound.
	Get(ctx context.Context, ownerID, entryID string) (*model.Entry, error)

	// Update replaces the mutable fields of an owner-scoped entry.
	Update(ctx context.Context, e *model.Entry) (*model.Entry, error)

	// Delete removes the entry and reports whether a row was removed.
	Delete(ctx context.Context, ownerID, entryID string) (bool, error)

	// List returns all live entries for the owner; callers paginate.
	List(ctx context.Context, ownerID string) ([]*model.Entry, error)

	// All streams every entry regardless of owner. Used to rebuild the
	// vector index from the source of truth.
	All(ctx context.Context) ([]*model.Entry, error)
}
