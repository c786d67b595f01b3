package api

import (
	"net/http"

	"github.com/inkwell-io/inkwell/server/internal/api/respond"
	"github.com/inkwell-io/inkwell/server/internal/services"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 100
)

// SearchHandler is the HTTP transport for semantic search.
type SearchHandler struct {
	search *services.SearchService
}

func NewSearchHandler(search *services.SearchService) *SearchHandler {
	return &SearchHandler{search: search}
}

// Search GET /api/search?q=&limit=
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	limit := intQuery(r, "limit", defaultSearchLimit)
	if limit < 0 {
		respond.WriteBadRequest(w, "limit must be non-negative")
		return
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	hits, err := h.search.Search(r.Context(), callerFrom(r).UserID, q, limit)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"hits":  hits,
		"count": len(hits),
	})
}
