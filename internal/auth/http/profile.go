package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Mir00r/planify-backend/internal/auth/service"
	"github.com/Mir00r/planify-backend/pkg/httpx"
	"github.com/Mir00r/planify-backend/pkg/slogx"
)

// ProfileHandler serves the authenticated user's profile and password change.
type ProfileHandler struct {
	UserService *service.UserService
	AuthService *service.AuthService
}

// HandleGet handles GET /v1/auth/profile.
func (h *ProfileHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID, ok := httpx.UserIDFromContext(ctx)
	if !ok || userID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "")
		return
	}

	profile, err := h.UserService.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "user_not_found", "")
			return
		}
		log.Error("failed to load profile", "err", err, "user_id", userID)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, profile)
}

type updateProfileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// HandleUpdate handles PATCH /v1/auth/profile.
func (h *ProfileHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID, ok := httpx.UserIDFromContext(ctx)
	if !ok || userID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "")
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	if req.Name == "" && req.Email == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "nothing to update")
		return
	}

	profile, err := h.UserService.UpdateProfile(ctx, userID, req.Name, req.Email)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrUserNotFound):
		httpx.WriteError(w, http.StatusNotFound, "user_not_found", "")
		return
	case errors.Is(err, service.ErrEmailAlreadyRegistered):
		httpx.WriteError(w, http.StatusConflict, "email_already_registered", "An account with this email already exists")
		return
	default:
		log.Error("failed to update profile", "err", err, "user_id", userID)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, profile)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// HandleChangePassword handles POST /v1/auth/change-password.
func (h *ProfileHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID, ok := httpx.UserIDFromContext(ctx)
	if !ok || userID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "")
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "current_password and new_password are required")
		return
	}
	if len(req.NewPassword) < 8 {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "password must be at least 8 characters")
		return
	}

	err := h.AuthService.ChangePassword(ctx, userID, req.CurrentPassword, req.NewPassword)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrIncorrectCurrentPassword):
		httpx.WriteError(w, http.StatusUnauthorized, "incorrect_current_password", "The current password is incorrect")
		return
	case errors.Is(err, service.ErrUserNotFound):
		httpx.WriteError(w, http.StatusNotFound, "user_not_found", "")
		return
	default:
		log.Error("failed to change password", "err", err, "user_id", userID)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "Password changed successfully"})
}
