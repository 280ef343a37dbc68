package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Mir00r/planify-backend/internal/auth/service"
	"github.com/Mir00r/planify-backend/pkg/httpx"
	"github.com/Mir00r/planify-backend/pkg/slogx"
)

// MFAHandler serves TOTP enrolment, verification and disable.
type MFAHandler struct {
	MFAService *service.MFAService
}

// HandleEnable handles POST /v1/auth/mfa/enable. The response carries the
// secret, the provisioning URI and the backup codes; none of these are
// retrievable later.
func (h *MFAHandler) HandleEnable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID, ok := httpx.UserIDFromContext(ctx)
	if !ok || userID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "")
		return
	}
	email, _ := ctx.Value(httpx.CtxKeyEmail).(string)

	enrolment, err := h.MFAService.Enable(ctx, userID, email)
	if err != nil {
		if errors.Is(err, service.ErrMFAAlreadyEnabled) {
			httpx.WriteError(w, http.StatusConflict, "mfa_already_enabled", "MFA is already enabled for this account")
			return
		}
		log.Error("MFA enrolment failed", "err", err, "user_id", userID)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, enrolment)
}

type mfaVerifyRequest struct {
	Code string `json:"code"`
}

// HandleVerify handles POST /v1/auth/mfa/verify. Accepts a TOTP code or a
// backup code; the first success finishes enrolment.
func (h *MFAHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID, ok := httpx.UserIDFromContext(ctx)
	if !ok || userID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "")
		return
	}

	var req mfaVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	if req.Code == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "code is required")
		return
	}

	result, err := h.MFAService.Verify(ctx, userID, req.Code)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrMFANotEnabled):
		httpx.WriteError(w, http.StatusBadRequest, "mfa_not_enabled", "MFA is not set up for this account")
		return
	case errors.Is(err, service.ErrInvalidMFACode):
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_mfa_code", "The code is invalid")
		return
	default:
		log.Error("MFA verification failed", "err", err, "user_id", userID)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, result)
}

// HandleDisable handles POST /v1/auth/mfa/disable.
func (h *MFAHandler) HandleDisable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID, ok := httpx.UserIDFromContext(ctx)
	if !ok || userID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "")
		return
	}

	if err := h.MFAService.Disable(ctx, userID); err != nil {
		if errors.Is(err, service.ErrMFANotEnabled) {
			httpx.WriteError(w, http.StatusBadRequest, "mfa_not_enabled", "MFA is not set up for this account")
			return
		}
		log.Error("MFA disable failed", "err", err, "user_id", userID)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "MFA disabled"})
}
