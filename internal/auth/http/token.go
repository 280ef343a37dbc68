package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Mir00r/planify-backend/internal/auth/service"
	"github.com/Mir00r/planify-backend/pkg/httpx"
	"github.com/Mir00r/planify-backend/pkg/slogx"
)

// TokenHandler serves refresh token rotation and logout.
type TokenHandler struct {
	AuthService  *service.AuthService
	TokenService *service.TokenService
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// HandleRefresh handles POST /v1/auth/refresh. The presented refresh token
// is consumed; the response carries its replacement.
func (h *TokenHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	if req.RefreshToken == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "refresh_token is required")
		return
	}

	pair, err := h.TokenService.Rotate(ctx, req.RefreshToken)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrTokenNotFound):
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_refresh_token", "The refresh token is invalid or has been revoked")
		return
	case errors.Is(err, service.ErrTokenExpired):
		httpx.WriteError(w, http.StatusUnauthorized, "refresh_token_expired", "The refresh token has expired")
		return
	default:
		log.Error("refresh rotation failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, pair)
}

// HandleLogout handles POST /v1/auth/logout. Revocation is idempotent, so
// the response is 200 even for an already-revoked or unknown token.
func (h *TokenHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	if req.RefreshToken == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "refresh_token is required")
		return
	}

	if err := h.AuthService.Logout(ctx, req.RefreshToken); err != nil {
		log.Error("logout failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// HandleLogoutAll handles POST /v1/auth/logout-all for the authenticated
// user.
func (h *TokenHandler) HandleLogoutAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID, ok := httpx.UserIDFromContext(ctx)
	if !ok || userID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "")
		return
	}

	if err := h.AuthService.LogoutAll(ctx, userID); err != nil {
		log.Error("logout-all failed", "err", err, "user_id", userID)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "Logged out from all devices"})
}
