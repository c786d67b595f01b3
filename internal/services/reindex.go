package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/inkwell-io/inkwell/server/internal/embeddings"
	"github.com/inkwell-io/inkwell/server/internal/model"
	"github.com/inkwell-io/inkwell/server/internal/searchindex"
	"github.com/inkwell-io/inkwell/server/internal/store"
)

const (
	repairQueueSize   = 256
	repairMaxAttempts = 3
)

type repairJob struct {
	ownerID  string
	entryID  string
	attempts int
}

// Reindexer drains a queue of entry IDs whose index state may have diverged
// from the record store and repairs them from the store: a live record is
// re-embedded (when needed) and upserted, a deleted record is removed from
// the index. The record store always wins.
type Reindexer struct {
	store store.Store
	idx   searchindex.Index
	emb   embeddings.Provider
	log   zerolog.Logger

	jobs chan repairJob
}

func NewReindexer(s store.Store, idx searchindex.Index, emb embeddings.Provider, log zerolog.Logger) *Reindexer {
	return &Reindexer{
		store: s,
		idx:   idx,
		emb:   emb,
		log:   log.With().Str("component", "reindexer").Logger(),
		jobs:  make(chan repairJob, repairQueueSize),
	}
}

// Enqueue schedules a repair for the entry. Non-blocking: when the queue is
// full the job is dropped and logged, and the index stays divergent until
// the next full rebuild.
func (r *Reindexer) Enqueue(ownerID, entryID string) {
	select {
	case r.jobs <- repairJob{ownerID: ownerID, entryID: entryID}:
	default:
		r.log.Warn().Str("entry_id", entryID).Msg("repair queue full, dropping job")
	}
}

// Start runs the repair loop until ctx is cancelled.
func (r *Reindexer) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case job := <-r.jobs:
				r.process(ctx, job)
			}
		}
	}()
}

func (r *Reindexer) process(ctx context.Context, job repairJob) {
	err := r.repairOne(ctx, job.ownerID, job.entryID)
	if err == nil {
		r.log.Debug().Str("entry_id", job.entryID).Msg("index repaired")
		return
	}

	job.attempts++
	if job.attempts >= repairMaxAttempts {
		r.log.Error().Err(err).Str("entry_id", job.entryID).Msg("giving up on index repair")
		return
	}
	select {
	case r.jobs <- job:
	default:
		r.log.Warn().Str("entry_id", job.entryID).Msg("repair queue full, dropping retry")
	}
}

func (r *Reindexer) repairOne(ctx context.Context, ownerID, entryID string) error {
	e, err := r.store.Entries().Get(ctx, ownerID, entryID)
	if errors.Is(err, model.ErrNotFound) {
		_, derr := r.idx.Delete(ctx, entryID)
		return derr
	}
	if err != nil {
		return err
	}

	if len(e.Embedding) != r.emb.Dimension() {
		vec, err := r.emb.Embed(ctx, model.EmbedText(e.Title, e.Body))
		if err != nil {
			return err
		}
		e.Embedding = vec
		if _, err := r.store.Entries().Update(ctx, e); err != nil {
			return err
		}
	}
	return r.idx.Upsert(ctx, indexPoint(e))
}

// RebuildIndex repopulates an empty or stale index from every record in the
// store. Entries whose persisted embedding no longer matches the provider
// dimension are re-embedded and written back. Used at startup when the
// embedded index has no usable snapshot.
func RebuildIndex(ctx context.Context, s store.Store, idx searchindex.Index, emb embeddings.Provider, log zerolog.Logger) error {
	entries, err := s.Entries().All(ctx)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if len(e.Embedding) != emb.Dimension() {
			vec, err := emb.Embed(ctx, model.EmbedText(e.Title, e.Body))
			if err != nil {
				return err
			}
			e.Embedding = vec
			if _, err := s.Entries().Update(ctx, e); err != nil {
				return err
			}
		}
		if err := idx.Upsert(ctx, indexPoint(e)); err != nil {
			return err
		}
	}
	log.Info().Int("entries", len(entries)).Msg("index rebuilt from record store")
	return nil
}
