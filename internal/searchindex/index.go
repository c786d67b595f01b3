package searchindex

import (
	"context"
)

// Payload carries the displayable projection of an entry kept alongside its
// vector, enough to render a search result without a store round-trip.
type Payload struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// Point is a single indexed vector keyed by entry ID.
type Point struct {
	ID      string    `json:"id"`
	OwnerID string    `json:"ownerId"`
	Vector  []float32 `json:"vector"`
	Payload Payload   `json:"payload"`
}

// Hit is a scored search result. Score is cosine similarity, descending.
type Hit struct {
	ID      string
	OwnerID string
	Score   float64
	Payload Payload
}

// Index provides approximate nearest-neighbor search and index maintenance.
//
// Implementations must make mutations immediately visible to subsequent
// searches, must never return a deleted ID from Search, and must order
// equal-score hits deterministically for a given index snapshot.
type Index interface {
	// Insert adds a new point. Returns model.ErrDuplicateID if the ID is
	// already present.
	Insert(ctx context.Context, p Point) error

	// Upsert replaces the point for p.ID atomically (delete-then-insert).
	// Searches observe either the old vector or the new one, never neither.
	Upsert(ctx context.Context, p Point) error

	// Delete removes the point and reports whether it was present.
	// Deleting an absent ID is a no-op, not an error.
	Delete(ctx context.Context, id string) (bool, error)

	// Search returns up to k hits ordered by descending similarity to vec.
	// A non-empty ownerID restricts results to that owner where the backend
	// supports filtering; callers must still post-filter.
	Search(ctx context.Context, ownerID string, vec []float32, k int) ([]Hit, error)

	// Count returns the number of indexed points.
	Count(ctx context.Context) (int, error)
}
