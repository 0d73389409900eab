package handler

import (
	"net/http"

	"github.com/vehicle-market-api/internal/application/auth"
)

// PasswordResetHandler serves the forgot/reset password flow.
type PasswordResetHandler struct {
	svc auth.Service
}

func NewPasswordResetHandler(svc auth.Service) *PasswordResetHandler {
	return &PasswordResetHandler{svc: svc}
}

func (h *PasswordResetHandler) Forgot(w http.ResponseWriter, r *http.Request) {
	var req auth.ForgotPasswordRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.RequestPasswordReset(r.Context(), req)
	if err != nil {
		httpError(w, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *PasswordResetHandler) Reset(w http.ResponseWriter, r *http.Request) {
	var req auth.ResetPasswordRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.svc.ResetPassword(r.Context(), req); err != nil {
		httpError(w, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "Password updated successfully"})
}

// Check reports whether a reset code is currently valid without consuming it.
func (h *PasswordResetHandler) Check(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	code := r.URL.Query().Get("code")
	if email == "" || code == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "email and code are required")
		return
	}
	status, err := h.svc.CheckResetCode(r.Context(), email, code)
	if err != nil {
		httpError(w, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, status)
}
