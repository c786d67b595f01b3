package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/inkwell-io/inkwell/server/internal/api/respond"
	"github.com/inkwell-io/inkwell/server/internal/api/validate"
	"github.com/inkwell-io/inkwell/server/internal/model"
	"github.com/inkwell-io/inkwell/server/internal/services"
)

const (
	defaultListLimit = 100
	maxAudioBytes    = 10 << 20 // 10 MiB upload cap
)

// Assistant provides the speech and summary capabilities backing the
// transcribe and summary endpoints.
type Assistant interface {
	Transcribe(ctx context.Context, filename string, audio []byte) (string, error)
	Summarize(ctx context.Context, text string, maxWords int) (string, error)
}

// EntriesHandler is the HTTP transport for journal entries.
type EntriesHandler struct {
	journal   *services.JournalService
	assistant Assistant // nil when no API key is configured
}

func NewEntriesHandler(journal *services.JournalService, assistant Assistant) *EntriesHandler {
	return &EntriesHandler{journal: journal, assistant: assistant}
}

// Create POST /api/entries
func (h *EntriesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string   `json:"title"`
		Body  string   `json:"body"`
		Tags  []string `json:"tags"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.Title(req.Title); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	if err := validate.Body(req.Body); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	e, err := h.journal.CreateEntry(r.Context(), callerFrom(r).UserID, req.Title, req.Body, req.Tags)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, e)
}

// List GET /api/entries?skip=&limit=
func (h *EntriesHandler) List(w http.ResponseWriter, r *http.Request) {
	skip := intQuery(r, "skip", 0)
	limit := intQuery(r, "limit", defaultListLimit)
	if skip < 0 || limit < 0 {
		respond.WriteBadRequest(w, "skip and limit must be non-negative")
		return
	}

	entries, err := h.journal.ListEntries(r.Context(), callerFrom(r).UserID)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}

	total := len(entries)
	if skip > total {
		skip = total
	}
	entries = entries[skip:]
	if limit < len(entries) {
		entries = entries[:limit]
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
		"total":   total,
	})
}

// Get GET /api/entries/{entryId}
func (h *EntriesHandler) Get(w http.ResponseWriter, r *http.Request) {
	e, err := h.journal.GetEntry(r.Context(), callerFrom(r).UserID, mux.Vars(r)["entryId"])
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, e)
}

// Update PATCH /api/entries/{entryId}
func (h *EntriesHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch model.EntryPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.OptionalTitle(patch.Title); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	if err := validate.OptionalBody(patch.Body); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	e, err := h.journal.UpdateEntry(r.Context(), callerFrom(r).UserID, mux.Vars(r)["entryId"], patch)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, e)
}

// Delete DELETE /api/entries/{entryId}
//
// Idempotent: deleting an absent entry still returns 204.
func (h *EntriesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if _, err := h.journal.DeleteEntry(r.Context(), callerFrom(r).UserID, mux.Vars(r)["entryId"]); err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Transcribe POST /api/entries/transcribe
func (h *EntriesHandler) Transcribe(w http.ResponseWriter, r *http.Request) {
	if h.assistant == nil {
		respond.WriteError(w, http.StatusServiceUnavailable, "transcription is not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAudioBytes)
	if err := r.ParseMultipartForm(maxAudioBytes); err != nil {
		respond.WriteBadRequest(w, "audio upload exceeds 10 MiB or is malformed")
		return
	}
	file, hdr, err := r.FormFile("file")
	if err != nil {
		respond.WriteBadRequest(w, "missing audio file field")
		return
	}
	defer file.Close()

	if err := validate.AudioFilename(hdr.Filename); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	audio, err := io.ReadAll(file)
	if err != nil {
		respond.WriteBadRequest(w, "failed to read audio upload")
		return
	}

	text, err := h.assistant.Transcribe(r.Context(), hdr.Filename, audio)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]string{"text": text})
}

// Summary POST /api/entries/{entryId}/summary
func (h *EntriesHandler) Summary(w http.ResponseWriter, r *http.Request) {
	if h.assistant == nil {
		respond.WriteError(w, http.StatusServiceUnavailable, "summarization is not configured")
		return
	}

	var req struct {
		MaxLength int `json:"maxLength"`
	}
	if r.Body != nil {
		// Body is optional; ignore decode errors from an empty body.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	e, err := h.journal.GetEntry(r.Context(), callerFrom(r).UserID, mux.Vars(r)["entryId"])
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	summary, err := h.assistant.Summarize(r.Context(), e.Body, req.MaxLength)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]string{"entryId": e.ID, "summary": summary})
}

func intQuery(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return n
}
