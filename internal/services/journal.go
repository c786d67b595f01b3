package services

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/inkwell-io/inkwell/server/internal/embeddings"
	"github.com/inkwell-io/inkwell/server/internal/model"
	"github.com/inkwell-io/inkwell/server/internal/searchindex"
	"github.com/inkwell-io/inkwell/server/internal/store"
)

// JournalService orchestrates the record store and the vector index so both
// stay consistent under create/update/delete.
//
// Ordering: the record store (source of truth) is written first, the index
// second. When the index write fails the operation surfaces
// model.ErrIndexInconsistency and the entry is queued on the reindexer,
// which repairs the index from the record store.
//
// Operations on the same entry ID are serialized through a striped lock;
// query embedding never runs under any index lock.
type JournalService struct {
	store   store.Store
	idx     searchindex.Index
	emb     embeddings.Provider
	repair  *Reindexer
	entryMu stripedMutex
}

func NewJournalService(s store.Store, idx searchindex.Index, emb embeddings.Provider, repair *Reindexer) *JournalService {
	return &JournalService{store: s, idx: idx, emb: emb, repair: repair}
}

// CreateEntry embeds title+body, persists the record and indexes it.
func (s *JournalService) CreateEntry(ctx context.Context, ownerID, title, body string, tags []string) (*model.Entry, error) {
	vec, err := s.emb.Embed(ctx, model.EmbedText(title, body))
	if err != nil {
		return nil, fmt.Errorf("embed entry: %w", err)
	}

	now := time.Now().UTC()
	e := &model.Entry{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Title:     title,
		Body:      body,
		Tags:      tags,
		CreatedAt: now,
		UpdatedAt: now,
		Embedding: vec,
	}

	unlock := s.entryMu.lock(e.ID)
	defer unlock()

	if _, err := s.store.Entries().Create(ctx, e); err != nil {
		return nil, err
	}
	if err := s.idx.Insert(ctx, indexPoint(e)); err != nil {
		s.enqueueRepair(e.OwnerID, e.ID)
		return nil, fmt.Errorf("%w: index insert for %s: %v", model.ErrIndexInconsistency, e.ID, err)
	}
	return e, nil
}

// GetEntry returns the entry when it exists and belongs to ownerID.
// A foreign owner's entry is indistinguishable from an absent one.
func (s *JournalService) GetEntry(ctx context.Context, ownerID, entryID string) (*model.Entry, error) {
	return s.store.Entries().Get(ctx, ownerID, entryID)
}

// UpdateEntry applies the patch and re-embeds only when title or body
// changed; tags-only updates leave the index untouched. updated_at advances
// on every successful mutation.
func (s *JournalService) UpdateEntry(ctx context.Context, ownerID, entryID string, patch model.EntryPatch) (*model.Entry, error) {
	unlock := s.entryMu.lock(entryID)
	defer unlock()

	e, err := s.store.Entries().Get(ctx, ownerID, entryID)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		e.Title = *patch.Title
	}
	if patch.Body != nil {
		e.Body = *patch.Body
	}
	if patch.Tags != nil {
		e.Tags = *patch.Tags
	}

	if patch.TextChanged() {
		vec, err := s.emb.Embed(ctx, model.EmbedText(e.Title, e.Body))
		if err != nil {
			return nil, fmt.Errorf("embed entry: %w", err)
		}
		e.Embedding = vec
	}

	now := time.Now().UTC()
	if !now.After(e.UpdatedAt) {
		now = e.UpdatedAt.Add(time.Millisecond)
	}
	e.UpdatedAt = now

	if _, err := s.store.Entries().Update(ctx, e); err != nil {
		return nil, err
	}

	if patch.TextChanged() {
		if err := s.idx.Upsert(ctx, indexPoint(e)); err != nil {
			s.enqueueRepair(e.OwnerID, e.ID)
			return nil, fmt.Errorf("%w: index upsert for %s: %v", model.ErrIndexInconsistency, e.ID, err)
		}
	}
	return e, nil
}

// DeleteEntry removes the record and its index point, reporting whether an
// entry was actually removed. Delete is idempotent: a second call returns
// false without error. An absent index point is expected and ignored; any
// other index failure propagates as ErrIndexInconsistency.
func (s *JournalService) DeleteEntry(ctx context.Context, ownerID, entryID string) (bool, error) {
	unlock := s.entryMu.lock(entryID)
	defer unlock()

	found, err := s.store.Entries().Delete(ctx, ownerID, entryID)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}

	if _, err := s.idx.Delete(ctx, entryID); err != nil {
		s.enqueueRepair(ownerID, entryID)
		return true, fmt.Errorf("%w: index delete for %s: %v", model.ErrIndexInconsistency, entryID, err)
	}
	return true, nil
}

// ListEntries returns all live entries for the owner; callers paginate.
func (s *JournalService) ListEntries(ctx context.Context, ownerID string) ([]*model.Entry, error) {
	return s.store.Entries().List(ctx, ownerID)
}

func (s *JournalService) enqueueRepair(ownerID, entryID string) {
	if s.repair != nil {
		s.repair.Enqueue(ownerID, entryID)
	}
}

func indexPoint(e *model.Entry) searchindex.Point {
	return searchindex.Point{
		ID:      e.ID,
		OwnerID: e.OwnerID,
		Vector:  e.Embedding,
		Payload: searchindex.Payload{Title: e.Title, Snippet: makeSnippet(e.Body)},
	}
}

const snippetLen = 200

func makeSnippet(body string) string {
	if len(body) <= snippetLen {
		return body
	}
	// Back the cut up to a rune boundary so the snippet stays valid UTF-8.
	cut := snippetLen
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	return body[:cut] + "..."
}
