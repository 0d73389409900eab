package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vehicle-market-api/internal/domain"
	"github.com/vehicle-market-api/internal/pkg/validate"
	"github.com/vehicle-market-api/internal/transport/http/middleware"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// MessageEnvelope is the generic success wrapper.
type MessageEnvelope struct {
	Message string `json:"message"`
}

// ErrorBody is written for every failed request.
type ErrorBody struct {
	Error   string                `json:"error"`
	Code    string                `json:"code"`
	Details []validate.FieldError `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorBody{Error: msg, Code: code})
}

// httpError maps a service error onto a response. codeStatus is the status used
// for one-time code failures, which differs between login (401) and reset (400).
func httpError(w http.ResponseWriter, err error, codeStatus int) {
	var fe validate.Errors
	switch {
	case errors.As(err, &fe):
		writeJSON(w, http.StatusBadRequest, ErrorBody{Error: "validation failed", Code: "validation_error", Details: fe})
	case errors.Is(err, domain.ErrTooManyAttempts):
		writeError(w, http.StatusTooManyRequests, "too_many_attempts", "too many failed attempts, request a new code")
	case errors.Is(err, domain.ErrTooManyRequests):
		writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests, try again later")
	case domain.IsCodeError(err):
		code, msg := codeErrorBody(err)
		writeError(w, codeStatus, code, msg)
	case errors.Is(err, domain.ErrWrongLoginMethod):
		writeError(w, http.StatusUnauthorized, "wrong_login_method", "this account signs in with Google")
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", "forbidden")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "not found")
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, "conflict", "resource already exists")
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
	default:
		slog.Error("unhandled error", "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// codeErrorBody names a one-time code failure.
func codeErrorBody(err error) (code, msg string) {
	switch {
	case errors.Is(err, domain.ErrCodeExpired):
		return "code_expired", "verification code expired"
	case errors.Is(err, domain.ErrCodeMismatch):
		return "code_mismatch", "verification code is incorrect"
	default:
		return "no_pending_code", "no pending verification code"
	}
}

// decode reads a JSON body into dst and validates it.
func decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		httpError(w, err, http.StatusBadRequest)
		return false
	}
	return true
}

// callerID returns the authenticated user id, writing 401 when absent.
func callerID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok || claims.UserID == 0 {
		writeError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
		return 0, false
	}
	return claims.UserID, true
}

// idParam parses a positive numeric chi URL parameter, writing 400 when invalid.
func idParam(w http.ResponseWriter, r *http.Request, name string) (uint, bool) {
	n, err := strconv.ParseUint(chi.URLParam(r, name), 10, 64)
	if err != nil || n == 0 {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid "+name)
		return 0, false
	}
	return uint(n), true
}
