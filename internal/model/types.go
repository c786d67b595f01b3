package model

import "time"

// User represents an account in the system.
type User struct {
	UserID       string    `json:"userId"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreationTime time.Time `json:"creationTime"`
}

// Entry is a single journal entry owned by exactly one user.
//
// Embedding is derived from Title+Body at write time and is never settable by
// callers; JournalService recomputes it whenever either text field changes.
type Entry struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Embedding []float32 `json:"-"`
}

// EntryPatch carries the mutable fields of an update request. Nil means
// "leave unchanged".
type EntryPatch struct {
	Title *string   `json:"title,omitempty"`
	Body  *string   `json:"body,omitempty"`
	Tags  *[]string `json:"tags,omitempty"`
}

// TextChanged reports whether applying the patch would alter the embedded
// text of the entry.
func (p EntryPatch) TextChanged() bool { return p.Title != nil || p.Body != nil }

// SearchHit is a ranked search result with enough of the entry to render it.
type SearchHit struct {
	EntryID string  `json:"entryId"`
	OwnerID string  `json:"-"`
	Title   string  `json:"title"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
}

// EmbedText returns the canonical text an entry is embedded from.
func EmbedText(title, body string) string { return title + " " + body }
