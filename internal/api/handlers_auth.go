package api

import (
	"encoding/json"
	"net/http"

	"github.com/inkwell-io/inkwell/server/internal/api/respond"
	"github.com/inkwell-io/inkwell/server/internal/api/validate"
	"github.com/inkwell-io/inkwell/server/internal/auth"
	"github.com/inkwell-io/inkwell/server/internal/services"
)

// AuthHandler is the HTTP transport for account lifecycle and token minting.
type AuthHandler struct {
	users *services.UserService
	jwt   *auth.JWTAuthorizer
}

func NewAuthHandler(users *services.UserService, jwt *auth.JWTAuthorizer) *AuthHandler {
	return &AuthHandler{users: users, jwt: jwt}
}

type tokenResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
}

// Register POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.Email(req.Email); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	if err := validate.Password(req.Password); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	u, err := h.users.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, u)
}

// Token POST /api/auth/token
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}

	u, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	tok, err := h.jwt.Mint(u.UserID, u.Email)
	if err != nil {
		respond.WriteInternalError(w, err.Error())
		return
	}
	respond.WriteJSON(w, http.StatusOK, tokenResponse{AccessToken: tok, TokenType: "bearer"})
}

// Refresh POST /api/auth/refresh (authenticated)
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	caller := callerFrom(r)
	tok, err := h.jwt.Mint(caller.UserID, caller.Email)
	if err != nil {
		respond.WriteInternalError(w, err.Error())
		return
	}
	respond.WriteJSON(w, http.StatusOK, tokenResponse{AccessToken: tok, TokenType: "bearer"})
}

// Me GET /api/auth/me (authenticated)
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.Get(r.Context(), callerFrom(r).UserID)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, u)
}

// ChangePassword POST /api/auth/password (authenticated)
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.Password(req.NewPassword); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.users.ChangePassword(r.Context(), callerFrom(r).UserID, req.CurrentPassword, req.NewPassword); err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteAccount DELETE /api/auth/me (authenticated)
func (h *AuthHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := h.users.DeleteAccount(r.Context(), callerFrom(r).UserID); err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
