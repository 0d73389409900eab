package handler

import (
	"errors"
	"net/http"

	"github.com/vehicle-market-api/internal/application/user"
	"github.com/vehicle-market-api/internal/domain"
	"github.com/vehicle-market-api/internal/pkg/validate"
)

// UserHandler serves profile, favorites, saved comparisons and search preferences.
type UserHandler struct {
	svc user.Service
}

func NewUserHandler(svc user.Service) *UserHandler { return &UserHandler{svc: svc} }

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	if _, ok := callerID(w, r); !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	u, err := h.svc.Get(r.Context(), id)
	if err != nil {
		httpError(w, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req domain.UpdateUserRequest
	if !decode(w, r, &req) {
		return
	}
	u, err := h.svc.Update(r.Context(), caller, id, req)
	if err != nil {
		httpError(w, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *UserHandler) UpdatePhoto(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if caller != id {
		httpError(w, domain.ErrForbidden, http.StatusBadRequest)
		return
	}
	if !isMultipart(r) {
		writeError(w, http.StatusBadRequest, "bad_request", "expected multipart/form-data")
		return
	}
	photo, err := readPhoto(w, r, "photo")
	if errors.Is(err, errNoPhoto) {
		writeJSON(w, http.StatusBadRequest, ErrorBody{
			Error:   "validation failed",
			Code:    "validation_error",
			Details: []validate.FieldError{{Field: "photo", Message: "is required"}},
		})
		return
	}
	if err != nil {
		httpError(w, err, http.StatusBadRequest)
		return
	}
	defer photo.Close()

	u, err := h.svc.UpdatePhoto(r.Context(), caller, id, photo.Filename, photo.ContentType, photo.Body)
	if err != nil {
		httpError(w, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *UserHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	vehicles, err := h.svc.ListFavorites(r.Context(), caller, id)
	if err != nil {
		httpError(w, err, http.StatusBadRequest)
		return
	}
	if vehicles == nil {
		vehicles = []domain.Vehicle{}
	}
	writeJSON(w, http.StatusOK, vehicles)
}

func (h *UserHandler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req user.AddFavoriteRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.svc.AddFavorite(r.Context(), caller, id, req.VehicleID); err != nil {
		httpError(w, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, MessageEnvelope{Message: "Vehicle added to favorites"})
}

func (h *UserHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	vehicleID, ok := idParam(w, r, "vehicleId")
	if !ok {
		return
	}
	if err := h.svc.RemoveFavorite(r.Context(), caller, id, vehicleID); err != nil {
		httpError(w, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "Vehicle removed from favorites"})
}

func (h *UserHandler) ListComparisons(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	cs, err := h.svc.ListComparisons(r.Context(), caller, id)
	if err != nil {
		httpError(w, err, http.StatusBadRequest)
		return
	}
	if cs == nil {
		cs = []domain.UserComparison{}
	}
	writeJSON(w, http.StatusOK, cs)
}

func (h *UserHandler) CreateComparison(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var in domain.ComparisonInput
	if !decode(w, r, &in) {
		return
	}
	c, err := h.svc.CreateComparison(r.Context(), caller, id, in)
	if err != nil {
		httpError(w, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *UserHandler) DeleteComparison(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	comparisonID, ok := idParam(w, r, "comparisonId")
	if !ok {
		return
	}
	if err := h.svc.DeleteComparison(r.Context(), caller, id, comparisonID); err != nil {
		httpError(w, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "Comparison deleted"})
}

func (h *UserHandler) ListPreferences(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	ps, err := h.svc.ListPreferences(r.Context(), caller, id)
	if err != nil {
		httpError(w, err, http.StatusBadRequest)
		return
	}
	if ps == nil {
		ps = []domain.UserPreference{}
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *UserHandler) CreatePreference(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var in domain.PreferenceInput
	if !decode(w, r, &in) {
		return
	}
	p, err := h.svc.CreatePreference(r.Context(), caller, id, in)
	if err != nil {
		httpError(w, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *UserHandler) UpdatePreference(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	prefID, ok := idParam(w, r, "preferenceId")
	if !ok {
		return
	}
	var patch domain.PreferencePatch
	if !decode(w, r, &patch) {
		return
	}
	p, err := h.svc.UpdatePreference(r.Context(), caller, id, prefID, patch)
	if err != nil {
		httpError(w, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *UserHandler) DeletePreference(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	prefID, ok := idParam(w, r, "preferenceId")
	if !ok {
		return
	}
	if err := h.svc.DeletePreference(r.Context(), caller, id, prefID); err != nil {
		httpError(w, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "Preference deleted"})
}
