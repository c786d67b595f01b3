package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-io/inkwell/server/internal/auth"
	"github.com/inkwell-io/inkwell/server/internal/embeddings/local"
	"github.com/inkwell-io/inkwell/server/internal/searchindex"
	"github.com/inkwell-io/inkwell/server/internal/services"
	"github.com/inkwell-io/inkwell/server/internal/store/sqlite"
)

type fakeAssistant struct{}

func (fakeAssistant) Transcribe(_ context.Context, _ string, _ []byte) (string, error) {
	return "transcribed text", nil
}

func (fakeAssistant) Summarize(_ context.Context, _ string, _ int) (string, error) {
	return "a summary", nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	st, err := sqlite.New(filepath.Join(t.TempDir(), "inkwell.db"))
	require.NoError(t, err)

	emb := local.New(16)
	idx := searchindex.NewMemIndex(16, "")
	repair := services.NewReindexer(st, idx, emb, zerolog.Nop())
	journal := services.NewJournalService(st, idx, emb, repair)
	jwt, err := auth.NewJWTAuthorizer("test-secret", time.Minute)
	require.NoError(t, err)

	router := NewRouter(Deps{
		Users:     services.NewUserService(st, journal),
		Journal:   journal,
		Search:    services.NewSearchService(emb, idx),
		JWT:       jwt,
		Assistant: fakeAssistant{},
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, token string, body interface{}) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, rd)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, data
}

func registerAndLogin(t *testing.T, srv *httptest.Server, email string) string {
	t.Helper()
	creds := map[string]string{"email": email, "password": "hunter2-long"}
	resp, _ := doJSON(t, "POST", srv.URL+"/api/auth/register", "", creds)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, data := doJSON(t, "POST", srv.URL+"/api/auth/token", "", creds)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var tok struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(data, &tok))
	require.NotEmpty(t, tok.AccessToken)
	return tok.AccessToken
}

func TestRegisterValidationAndConflict(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doJSON(t, "POST", srv.URL+"/api/auth/register", "", map[string]string{"email": "not-an-email", "password": "hunter2-long"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, "POST", srv.URL+"/api/auth/register", "", map[string]string{"email": "a@b.co", "password": "short"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	creds := map[string]string{"email": "a@b.co", "password": "hunter2-long"}
	resp, _ = doJSON(t, "POST", srv.URL+"/api/auth/register", "", creds)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, _ = doJSON(t, "POST", srv.URL+"/api/auth/register", "", creds)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestTokenRejectsBadCredentials(t *testing.T) {
	srv := newTestServer(t)
	registerAndLogin(t, srv, "a@b.co")

	resp, _ := doJSON(t, "POST", srv.URL+"/api/auth/token", "", map[string]string{"email": "a@b.co", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPrivateRoutesRequireToken(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doJSON(t, "GET", srv.URL+"/api/entries", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doJSON(t, "GET", srv.URL+"/api/entries", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestEntryLifecycle(t *testing.T) {
	srv := newTestServer(t)
	tok := registerAndLogin(t, srv, "a@b.co")

	resp, data := doJSON(t, "POST", srv.URL+"/api/entries", tok, map[string]interface{}{
		"title": "Trail run",
		"body":  "ran the ridge loop before sunrise",
		"tags":  []string{"fitness"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var entry struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}
	require.NoError(t, json.Unmarshal(data, &entry))
	require.NotEmpty(t, entry.ID)

	resp, _ = doJSON(t, "GET", srv.URL+"/api/entries/"+entry.ID, tok, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, data = doJSON(t, "PATCH", srv.URL+"/api/entries/"+entry.ID, tok, map[string]string{"title": "Ridge loop"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(data, &entry))
	assert.Equal(t, "Ridge loop", entry.Title)

	resp, data = doJSON(t, "GET", srv.URL+"/api/entries", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list struct {
		Count int `json:"count"`
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(data, &list))
	assert.Equal(t, 1, list.Count)
	assert.Equal(t, 1, list.Total)

	resp, _ = doJSON(t, "DELETE", srv.URL+"/api/entries/"+entry.ID, tok, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	// Idempotent
	resp, _ = doJSON(t, "DELETE", srv.URL+"/api/entries/"+entry.ID, tok, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, "GET", srv.URL+"/api/entries/"+entry.ID, tok, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEntryValidation(t *testing.T) {
	srv := newTestServer(t)
	tok := registerAndLogin(t, srv, "a@b.co")

	resp, _ := doJSON(t, "POST", srv.URL+"/api/entries", tok, map[string]string{"title": "", "body": "text"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = doJSON(t, "POST", srv.URL+"/api/entries", tok, map[string]string{"title": "t", "body": "   "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListPagination(t *testing.T) {
	srv := newTestServer(t)
	tok := registerAndLogin(t, srv, "a@b.co")

	for i := 0; i < 5; i++ {
		resp, _ := doJSON(t, "POST", srv.URL+"/api/entries", tok, map[string]string{
			"title": fmt.Sprintf("Entry %d", i),
			"body":  "body text",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp, data := doJSON(t, "GET", srv.URL+"/api/entries?skip=2&limit=2", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list struct {
		Count int `json:"count"`
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(data, &list))
	assert.Equal(t, 2, list.Count)
	assert.Equal(t, 5, list.Total)

	// skip beyond the end yields an empty page, not an error
	resp, data = doJSON(t, "GET", srv.URL+"/api/entries?skip=99", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(data, &list))
	assert.Equal(t, 0, list.Count)

	resp, _ = doJSON(t, "GET", srv.URL+"/api/entries?limit=abc", tok, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSearchEndpoint(t *testing.T) {
	srv := newTestServer(t)
	tok := registerAndLogin(t, srv, "a@b.co")

	resp, _ := doJSON(t, "POST", srv.URL+"/api/entries", tok, map[string]string{
		"title": "Garden",
		"body":  "planted tomato seedlings in the raised bed",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, data := doJSON(t, "GET", srv.URL+"/api/search?q=tomato+seedlings", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct {
		Count int `json:"count"`
		Hits  []struct {
			Title string `json:"title"`
		} `json:"hits"`
	}
	require.NoError(t, json.Unmarshal(data, &out))
	require.Equal(t, 1, out.Count)
	assert.Equal(t, "Garden", out.Hits[0].Title)

	// Blank query is an empty result, not an error.
	resp, data = doJSON(t, "GET", srv.URL+"/api/search?q=", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, 0, out.Count)
}

func TestOwnerIsolationOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	alice := registerAndLogin(t, srv, "alice@b.co")
	bob := registerAndLogin(t, srv, "bob@b.co")

	resp, data := doJSON(t, "POST", srv.URL+"/api/entries", alice, map[string]string{
		"title": "Private",
		"body":  "alice's secret plans",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var entry struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(data, &entry))

	resp, _ = doJSON(t, "GET", srv.URL+"/api/entries/"+entry.ID, bob, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, data = doJSON(t, "GET", srv.URL+"/api/search?q=secret+plans", bob, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, 0, out.Count)
}

func TestAuthMeAndPasswordChange(t *testing.T) {
	srv := newTestServer(t)
	tok := registerAndLogin(t, srv, "a@b.co")

	resp, data := doJSON(t, "GET", srv.URL+"/api/auth/me", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var me struct {
		Email string `json:"email"`
	}
	require.NoError(t, json.Unmarshal(data, &me))
	assert.Equal(t, "a@b.co", me.Email)

	resp, _ = doJSON(t, "POST", srv.URL+"/api/auth/password", tok, map[string]string{
		"currentPassword": "hunter2-long",
		"newPassword":     "new-password-1",
	})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, "POST", srv.URL+"/api/auth/token", "", map[string]string{"email": "a@b.co", "password": "new-password-1"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRefreshIssuesNewToken(t *testing.T) {
	srv := newTestServer(t)
	tok := registerAndLogin(t, srv, "a@b.co")

	resp, data := doJSON(t, "POST", srv.URL+"/api/auth/refresh", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(data, &out))
	assert.NotEmpty(t, out.AccessToken)
}

func TestDeleteAccount(t *testing.T) {
	srv := newTestServer(t)
	tok := registerAndLogin(t, srv, "a@b.co")

	resp, _ := doJSON(t, "POST", srv.URL+"/api/entries", tok, map[string]string{"title": "t", "body": "b"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = doJSON(t, "DELETE", srv.URL+"/api/auth/me", tok, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, "GET", srv.URL+"/api/auth/me", tok, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTranscribeEndpoint(t *testing.T) {
	srv := newTestServer(t)
	tok := registerAndLogin(t, srv, "a@b.co")

	post := func(filename string) *http.Response {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte("fake-audio-bytes"))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req, err := http.NewRequest("POST", srv.URL+"/api/entries/transcribe", &buf)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+tok)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		return resp
	}

	resp := post("note.mp3")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct {
		Text string `json:"text"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "transcribed text", out.Text)

	bad := post("note.pdf")
	bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestSummaryEndpoint(t *testing.T) {
	srv := newTestServer(t)
	tok := registerAndLogin(t, srv, "a@b.co")

	resp, data := doJSON(t, "POST", srv.URL+"/api/entries", tok, map[string]string{"title": "Day", "body": "a very long day"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var entry struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(data, &entry))

	resp, data = doJSON(t, "POST", srv.URL+"/api/entries/"+entry.ID+"/summary", tok, map[string]int{"maxLength": 20})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct {
		Summary string `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "a summary", out.Summary)
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doJSON(t, "GET", srv.URL+"/api/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Readiness has no running checker in this fixture.
	resp, _ = doJSON(t, "GET", srv.URL+"/api/health/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
