package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Mir00r/planify-backend/internal/auth/service"
	"github.com/Mir00r/planify-backend/pkg/httpx"
	"github.com/Mir00r/planify-backend/pkg/slogx"
)

// AuthHandler serves the public credential endpoints: registration, login,
// email verification and the password reset flow.
type AuthHandler struct {
	AuthService  *service.AuthService
	ResetService *service.PasswordResetService
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	RoleID   string `json:"role_id"` // optional; defaults to the USER role
}

// HandleRegister handles POST /v1/auth/register.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	if req.Email == "" || req.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "email and password are required")
		return
	}
	if len(req.Password) < 8 {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "password must be at least 8 characters")
		return
	}

	result, err := h.AuthService.Register(ctx, req.Name, req.Email, req.Password, req.RoleID)
	if err != nil {
		if errors.Is(err, service.ErrEmailAlreadyRegistered) {
			httpx.WriteError(w, http.StatusConflict, "email_already_registered", "An account with this email already exists")
			return
		}
		if errors.Is(err, service.ErrRoleNotFound) {
			httpx.WriteError(w, http.StatusBadRequest, "role_not_found", "The requested role does not exist")
			return
		}
		log.Error("registration failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "")
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, map[string]any{
		"user":         result.User,
		"access_token": result.AccessToken,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin handles POST /v1/auth/login.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	pair, err := h.AuthService.Login(ctx, req.Email, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password")
		return
	case errors.Is(err, service.ErrEmailNotVerified):
		httpx.WriteError(w, http.StatusForbidden, "email_not_verified", "Verify your email address before logging in")
		return
	default:
		log.Error("login failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, pair)
}

// HandleVerifyEmail handles GET /v1/auth/verify-email?token=...
func (h *AuthHandler) HandleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	token := r.URL.Query().Get("token")
	if token == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "token query parameter is required")
		return
	}

	err := h.AuthService.VerifyEmail(ctx, token)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrVerificationTokenExpired):
		httpx.WriteError(w, http.StatusBadRequest, "verification_token_expired", "The verification link has expired")
		return
	case errors.Is(err, service.ErrInvalidVerificationToken):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_verification_token", "The verification link is invalid")
		return
	default:
		log.Error("email verification failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "Email verified successfully"})
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// HandleForgotPassword handles POST /v1/auth/forgot-password. The response
// is identical whether or not the email maps to an account.
func (h *AuthHandler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req forgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	if req.Email == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "email is required")
		return
	}

	if _, err := h.ResetService.RequestReset(ctx, req.Email); err != nil {
		log.Error("password reset request failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "If the email is registered, a password reset link has been sent",
	})
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// HandleResetPassword handles POST /v1/auth/reset-password.
func (h *AuthHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	if req.Token == "" || req.NewPassword == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "token and new_password are required")
		return
	}
	if len(req.NewPassword) < 8 {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "password must be at least 8 characters")
		return
	}

	if err := h.ResetService.ResetPassword(ctx, req.Token, req.NewPassword); err != nil {
		if errors.Is(err, service.ErrNoValidResetToken) {
			httpx.WriteError(w, http.StatusBadRequest, "no_valid_reset_token", "The reset link is invalid or has expired")
			return
		}
		log.Error("password reset failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "Password reset successfully"})
}
