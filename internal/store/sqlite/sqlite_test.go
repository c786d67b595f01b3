package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-io/inkwell/server/internal/model"
	"github.com/inkwell-io/inkwell/server/internal/store"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := New(filepath.Join(t.TempDir(), "inkwell.db"))
	require.NoError(t, err)
	return st
}

func seedEntry(t *testing.T, st store.Store, id, owner, title, body string) *model.Entry {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Millisecond)
	e := &model.Entry{
		ID: id, OwnerID: owner, Title: title, Body: body,
		Tags:      []string{"test"},
		Embedding: []float32{0.1, 0.2, 0.3},
		CreatedAt: now, UpdatedAt: now,
	}
	_, err := st.Entries().Create(context.Background(), e)
	require.NoError(t, err)
	return e
}

func TestUsersCreateAndGet(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	u, err := st.Users().Create(ctx, &model.User{UserID: "u1", Email: "a@b.co", PasswordHash: "h"})
	require.NoError(t, err)
	assert.False(t, u.CreationTime.IsZero())

	got, err := st.Users().GetByEmail(ctx, "a@b.co")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "h", got.PasswordHash)

	_, err = st.Users().Get(ctx, "nope")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestUsersDuplicateEmailConflicts(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := st.Users().Create(ctx, &model.User{UserID: "u1", Email: "a@b.co", PasswordHash: "h"})
	require.NoError(t, err)
	_, err = st.Users().Create(ctx, &model.User{UserID: "u2", Email: "a@b.co", PasswordHash: "h"})
	assert.ErrorIs(t, err, model.ErrConflict)
}

func TestUsersUpdatePassword(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	_, err := st.Users().Create(ctx, &model.User{UserID: "u1", Email: "a@b.co", PasswordHash: "old"})
	require.NoError(t, err)

	require.NoError(t, st.Users().UpdatePassword(ctx, "u1", "new"))
	got, err := st.Users().Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "new", got.PasswordHash)

	assert.ErrorIs(t, st.Users().UpdatePassword(ctx, "ghost", "x"), model.ErrNotFound)
}

func TestEntriesRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	e := seedEntry(t, st, "e1", "u1", "Morning run", "Felt great, 5k in 25 minutes")

	got, err := st.Entries().Get(ctx, "u1", "e1")
	require.NoError(t, err)
	assert.Equal(t, e.Title, got.Title)
	assert.Equal(t, e.Body, got.Body)
	assert.Equal(t, e.Tags, got.Tags)
	assert.Equal(t, e.Embedding, got.Embedding)
	assert.WithinDuration(t, e.CreatedAt, got.CreatedAt, time.Second)
}

func TestEntriesOwnerScoping(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	seedEntry(t, st, "e1", "u1", "secret", "diary")

	// Foreign owner reads, updates and deletes behave as not-found.
	_, err := st.Entries().Get(ctx, "u2", "e1")
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = st.Entries().Update(ctx, &model.Entry{ID: "e1", OwnerID: "u2", Title: "x", UpdatedAt: time.Now()})
	assert.ErrorIs(t, err, model.ErrNotFound)

	found, err := st.Entries().Delete(ctx, "u2", "e1")
	require.NoError(t, err)
	assert.False(t, found)

	// Still there for the real owner.
	_, err = st.Entries().Get(ctx, "u1", "e1")
	assert.NoError(t, err)
}

func TestEntriesUpdate(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	e := seedEntry(t, st, "e1", "u1", "old title", "old body")

	e.Title = "new title"
	e.Embedding = []float32{0.9, 0.8}
	e.UpdatedAt = e.UpdatedAt.Add(time.Second)
	_, err := st.Entries().Update(ctx, e)
	require.NoError(t, err)

	got, err := st.Entries().Get(ctx, "u1", "e1")
	require.NoError(t, err)
	assert.Equal(t, "new title", got.Title)
	assert.Equal(t, []float32{0.9, 0.8}, got.Embedding)
}

func TestEntriesDeleteReportsFound(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	seedEntry(t, st, "e1", "u1", "t", "b")

	found, err := st.Entries().Delete(ctx, "u1", "e1")
	require.NoError(t, err)
	assert.True(t, found)

	found, err = st.Entries().Delete(ctx, "u1", "e1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestEntriesListAndAll(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	seedEntry(t, st, "e1", "u1", "a", "b")
	seedEntry(t, st, "e2", "u1", "c", "d")
	seedEntry(t, st, "e3", "u2", "x", "y")

	mine, err := st.Entries().List(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	all, err := st.Entries().All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestNilTagsRoundTripAsEmpty(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()
	_, err := st.Entries().Create(ctx, &model.Entry{
		ID: "e1", OwnerID: "u1", Title: "t", Body: "b", CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)

	got, err := st.Entries().Get(ctx, "u1", "e1")
	require.NoError(t, err)
	assert.Empty(t, got.Tags)
	assert.Empty(t, got.Embedding)
}

func TestGetMissingEntry(t *testing.T) {
	st := newTestStore(t)
	_, err := st.Entries().Get(context.Background(), "u1", "ghost")
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
