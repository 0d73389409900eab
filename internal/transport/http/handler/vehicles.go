package handler

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/vehicle-market-api/internal/application/vehicle"
	"github.com/vehicle-market-api/internal/domain"
	"github.com/vehicle-market-api/internal/pkg/validate"
)

// VehicleHandler serves the catalog and vehicle opinions.
type VehicleHandler struct {
	svc vehicle.Service
}

func NewVehicleHandler(svc vehicle.Service) *VehicleHandler { return &VehicleHandler{svc: svc} }

func (h *VehicleHandler) List(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query())
	if err == nil {
		err = validate.Struct(&f)
	}
	if err != nil {
		httpError(w, err, http.StatusBadRequest)
		return
	}
	res, err := h.svc.List(r.Context(), f)
	if err != nil {
		httpError(w, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *VehicleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	d, err := h.svc.Get(r.Context(), id)
	if err != nil {
		httpError(w, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// Compare expects ids=a,b.
func (h *VehicleHandler) Compare(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("ids")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "ids is required")
		return
	}
	parts := strings.Split(raw, ",")
	ids := make([]uint, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 64)
		if err != nil || n == 0 {
			writeError(w, http.StatusBadRequest, "bad_request", "ids must be positive integers")
			return
		}
		ids = append(ids, uint(n))
	}
	c, err := h.svc.Compare(r.Context(), ids)
	if err != nil {
		httpError(w, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *VehicleHandler) Brands(w http.ResponseWriter, r *http.Request) {
	brands, err := h.svc.Brands(r.Context())
	if err != nil {
		httpError(w, err, http.StatusBadRequest)
		return
	}
	if brands == nil {
		brands = []domain.Brand{}
	}
	writeJSON(w, http.StatusOK, brands)
}

func (h *VehicleHandler) Categories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.svc.Categories(r.Context())
	if err != nil {
		httpError(w, err, http.StatusBadRequest)
		return
	}
	if cats == nil {
		cats = []domain.Category{}
	}
	writeJSON(w, http.StatusOK, cats)
}

// Search expects q and an optional limit.
func (h *VehicleHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, ok := queryID(w, q, "limit")
	if !ok {
		return
	}
	res, err := h.svc.Search(r.Context(), q.Get("q"), int(limit))
	if err != nil {
		httpError(w, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// AdvancedSearch takes the catalog filter, technical ranges included, as a JSON body.
func (h *VehicleHandler) AdvancedSearch(w http.ResponseWriter, r *http.Request) {
	var f domain.VehicleFilter
	if !decode(w, r, &f) {
		return
	}
	res, err := h.svc.List(r.Context(), f)
	if err != nil {
		httpError(w, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *VehicleHandler) Models(w http.ResponseWriter, r *http.Request) {
	brandID, ok := queryID(w, r.URL.Query(), "brandID")
	if !ok {
		return
	}
	models, err := h.svc.Models(r.Context(), brandID)
	if err != nil {
		httpError(w, err, http.StatusBadRequest)
		return
	}
	if models == nil {
		models = []domain.VehicleModel{}
	}
	writeJSON(w, http.StatusOK, models)
}

func (h *VehicleHandler) Versions(w http.ResponseWriter, r *http.Request) {
	modelID, ok := queryID(w, r.URL.Query(), "modelID")
	if !ok {
		return
	}
	versions, err := h.svc.Versions(r.Context(), modelID)
	if err != nil {
		httpError(w, err, http.StatusBadRequest)
		return
	}
	if versions == nil {
		versions = []domain.Version{}
	}
	writeJSON(w, http.StatusOK, versions)
}

func (h *VehicleHandler) ListOpinions(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	ops, err := h.svc.ListOpinions(r.Context(), id)
	if err != nil {
		httpError(w, err, http.StatusBadRequest)
		return
	}
	if ops == nil {
		ops = []domain.Opinion{}
	}
	writeJSON(w, http.StatusOK, ops)
}

func (h *VehicleHandler) SaveOpinion(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var in domain.OpinionInput
	if !decode(w, r, &in) {
		return
	}
	op, created, err := h.svc.SaveOpinion(r.Context(), caller, id, in)
	if err != nil {
		httpError(w, err, http.StatusBadRequest)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, op)
}

func (h *VehicleHandler) DeleteOpinion(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	opinionID, ok := idParam(w, r, "opinionId")
	if !ok {
		return
	}
	if err := h.svc.DeleteOpinion(r.Context(), caller, id, opinionID); err != nil {
		httpError(w, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "Opinion deleted"})
}

// parseFilter reads the catalog query string. Malformed numbers are reported as
// field errors so they render like any other validation failure.
func parseFilter(q url.Values) (domain.VehicleFilter, error) {
	var (
		f    domain.VehicleFilter
		errs validate.Errors
	)
	num := func(name string) int64 {
		raw := q.Get(name)
		if raw == "" {
			return 0
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 0 {
			errs = append(errs, validate.FieldError{Field: name, Message: "must be a non-negative integer"})
			return 0
		}
		return n
	}
	f.BrandID = uint(num("brandID"))
	f.CategoryID = uint(num("categoryID"))
	f.YearMin = int(num("yearMin"))
	f.YearMax = int(num("yearMax"))
	f.PriceMin = num("priceMin")
	f.PriceMax = num("priceMax")
	f.Page = int(num("page"))
	f.Limit = int(num("limit"))
	f.SortBy = q.Get("sortBy")
	f.SortOrder = strings.ToLower(q.Get("sortOrder"))
	if len(errs) > 0 {
		return f, errs
	}
	return f, nil
}

// queryID parses an optional non-negative integer query parameter. Absent means 0.
func queryID(w http.ResponseWriter, q url.Values, name string) (uint, bool) {
	raw := q.Get(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid "+name)
		return 0, false
	}
	return uint(n), true
}
