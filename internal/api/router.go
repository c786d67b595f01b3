package api

import (
	"github.com/gorilla/mux"

	"github.com/inkwell-io/inkwell/server/internal/api/recovery"
	"github.com/inkwell-io/inkwell/server/internal/auth"
	"github.com/inkwell-io/inkwell/server/internal/health"
	"github.com/inkwell-io/inkwell/server/internal/services"
)

// Deps carries the assembled services the router exposes over HTTP.
type Deps struct {
	Users     *services.UserService
	Journal   *services.JournalService
	Search    *services.SearchService
	JWT       *auth.JWTAuthorizer
	Assistant Assistant
	Health    *health.ServiceHealthChecker
}

// NewRouter wires every endpoint. All journal and search routes sit behind
// the bearer-token middleware; health and the register/token pair do not.
func NewRouter(d Deps) *mux.Router {
	router := mux.NewRouter()
	router.Use(recovery.Middleware)

	authHandler := NewAuthHandler(d.Users, d.JWT)
	entriesHandler := NewEntriesHandler(d.Journal, d.Assistant)
	searchHandler := NewSearchHandler(d.Search)
	healthHandler := NewHealthHandler(d.Health)

	// Public endpoints
	router.HandleFunc("/api/health", healthHandler.CheckHealth).Methods("GET")
	router.HandleFunc("/api/health/ready", healthHandler.CheckReady).Methods("GET")
	router.HandleFunc("/api/auth/register", authHandler.Register).Methods("POST")
	router.HandleFunc("/api/auth/token", authHandler.Token).Methods("POST")

	// Authenticated endpoints
	private := router.PathPrefix("/api").Subrouter()
	private.Use(AuthMiddleware(d.JWT))

	private.HandleFunc("/auth/refresh", authHandler.Refresh).Methods("POST")
	private.HandleFunc("/auth/me", authHandler.Me).Methods("GET")
	private.HandleFunc("/auth/me", authHandler.DeleteAccount).Methods("DELETE")
	private.HandleFunc("/auth/password", authHandler.ChangePassword).Methods("POST")

	private.HandleFunc("/entries", entriesHandler.Create).Methods("POST")
	private.HandleFunc("/entries", entriesHandler.List).Methods("GET")
	private.HandleFunc("/entries/transcribe", entriesHandler.Transcribe).Methods("POST")
	private.HandleFunc("/entries/{entryId}", entriesHandler.Get).Methods("GET")
	private.HandleFunc("/entries/{entryId}", entriesHandler.Update).Methods("PATCH")
	private.HandleFunc("/entries/{entryId}", entriesHandler.Delete).Methods("DELETE")
	private.HandleFunc("/entries/{entryId}/summary", entriesHandler.Summary).Methods("POST")

	private.HandleFunc("/search", searchHandler.Search).Methods("GET")

	return router
}
