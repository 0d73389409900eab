package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vehicle-market-api/internal/application/auth"
	"github.com/vehicle-market-api/internal/domain"
	"github.com/vehicle-market-api/internal/pkg/validate"
)

type profileGetter interface {
	Get(ctx context.Context, userID uint) (*domain.User, error)
}

// AuthHandler serves sign-in, registration and the caller's profile.
type AuthHandler struct {
	svc   auth.Service
	users profileGetter
}

func NewAuthHandler(svc auth.Service, users profileGetter) *AuthHandler {
	return &AuthHandler{svc: svc, users: users}
}

// loginBody accepts both login steps; a non-empty otp selects step 2.
type loginBody struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	OTP      *string `json:"otp"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var body loginBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}

	if body.OTP != nil && *body.OTP != "" {
		req := auth.VerifyLoginRequest{Email: body.Email, OTP: *body.OTP}
		if err := validate.Struct(&req); err != nil {
			httpError(w, err, http.StatusBadRequest)
			return
		}
		res, err := h.svc.VerifyLoginCode(r.Context(), req)
		if err != nil {
			httpError(w, err, http.StatusUnauthorized)
			return
		}
		writeJSON(w, http.StatusOK, res)
		return
	}

	req := auth.LoginRequest{Email: body.Email, Password: body.Password}
	if err := validate.Struct(&req); err != nil {
		httpError(w, err, http.StatusBadRequest)
		return
	}
	challenge, err := h.svc.Login(r.Context(), req)
	if err != nil {
		httpError(w, err, http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, challenge)
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterRequest
	if isMultipart(r) {
		photo, err := readPhoto(w, r, "photo")
		switch {
		case errors.Is(err, errNoPhoto):
		case err != nil:
			httpError(w, err, http.StatusBadRequest)
			return
		default:
			defer photo.Close()
			req.Photo = &auth.Upload{Filename: photo.Filename, ContentType: photo.ContentType, Body: photo.Body}
		}
		req.Email = r.FormValue("email")
		req.Password = r.FormValue("password")
		req.Name = r.FormValue("name")
		if err := validate.Struct(&req); err != nil {
			httpError(w, err, http.StatusBadRequest)
			return
		}
	} else if !decode(w, r, &req) {
		return
	}

	res, err := h.svc.Register(r.Context(), req)
	if err != nil {
		httpError(w, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *AuthHandler) Google(w http.ResponseWriter, r *http.Request) {
	var req auth.GoogleLoginRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.GoogleLogin(r.Context(), req)
	if err != nil {
		httpError(w, err, http.StatusUnauthorized)
		return
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, res)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := callerID(w, r)
	if !ok {
		return
	}
	u, err := h.users.Get(r.Context(), id)
	if err != nil {
		httpError(w, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
