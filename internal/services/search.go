package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/inkwell-io/inkwell/server/internal/embeddings"
	"github.com/inkwell-io/inkwell/server/internal/model"
	"github.com/inkwell-io/inkwell/server/internal/searchindex"
)

const (
	// Over-fetch so owner filtering still leaves k hits when the index
	// holds many users' entries.
	overfetchFactor = 4
	maxOverfetch    = 1000
)

// SearchService answers semantic queries scoped to a single owner.
type SearchService struct {
	emb embeddings.Provider
	idx searchindex.Index
}

func NewSearchService(emb embeddings.Provider, idx searchindex.Index) *SearchService {
	return &SearchService{emb: emb, idx: idx}
}

// Search embeds the query and returns up to k of the owner's entries ranked
// by cosine similarity. A blank query or non-positive k yields an empty
// result without error. Hits never include another owner's entries.
func (s *SearchService) Search(ctx context.Context, ownerID, query string, k int) ([]model.SearchHit, error) {
	if k <= 0 || strings.TrimSpace(query) == "" {
		return []model.SearchHit{}, nil
	}

	vec, err := s.emb.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	fetch := k * overfetchFactor
	if fetch > maxOverfetch {
		fetch = maxOverfetch
	}

	raw, err := s.idx.Search(ctx, ownerID, vec, fetch)
	if err != nil {
		return nil, fmt.Errorf("index search: %w", err)
	}

	hits := make([]model.SearchHit, 0, k)
	for _, h := range raw {
		if h.OwnerID != ownerID {
			continue
		}
		hits = append(hits, model.SearchHit{
			EntryID: h.ID,
			OwnerID: h.OwnerID,
			Title:   h.Payload.Title,
			Snippet: h.Payload.Snippet,
			Score:   h.Score,
		})
		if len(hits) == k {
			break
		}
	}
	return hits, nil
}
