// Package vehicle serves the read side of the catalog together with user opinions.
package vehicle

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/vehicle-market-api/internal/domain"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100

	// Quick search bounds.
	MinSearchTerm      = 2
	DefaultSearchLimit = 10
	MaxSearchLimit     = 50
)

// ShortSearchMessage is returned instead of results when the term is too short.
const ShortSearchMessage = "Enter at least 2 characters to search"

// Summary is a vehicle with its rating aggregate.
type Summary struct {
	domain.Vehicle
	AverageRating float64 `json:"averageRating"`
	OpinionCount  int64   `json:"opinionCount"`
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

type ListResult struct {
	Data       []Summary  `json:"data"`
	Pagination Pagination `json:"pagination"`
}

type Stats struct {
	AverageRating      float64     `json:"averageRating"`
	TotalOpinions      int         `json:"totalOpinions"`
	RatingDistribution map[int]int `json:"ratingDistribution"`
}

type Detail struct {
	domain.Vehicle
	Opinions []domain.Opinion `json:"opinions"`
	Stats    Stats            `json:"stats"`
}

type Differences struct {
	PriceDifference  int64   `json:"priceDifference"`
	CheaperVehicle   string  `json:"cheaperVehicle"`
	YearDifference   int     `json:"yearDifference"`
	NewerVehicle     string  `json:"newerVehicle"`
	RatingDifference float64 `json:"ratingDifference"`
	BetterRated      string  `json:"betterRated"`
}

type Comparison struct {
	Vehicle1    Summary     `json:"vehicle1"`
	Vehicle2    Summary     `json:"vehicle2"`
	Differences Differences `json:"differences"`
}

// SearchHit is one quick-search result with a display label.
type SearchHit struct {
	domain.Vehicle
	Label string `json:"label"`
}

type SearchResult struct {
	Data    []SearchHit `json:"data"`
	Total   int         `json:"total"`
	Query   string      `json:"query,omitempty"`
	Message string      `json:"message,omitempty"`
}

type Service interface {
	List(ctx context.Context, f domain.VehicleFilter) (*ListResult, error)
	Get(ctx context.Context, vehicleID uint) (*Detail, error)
	Compare(ctx context.Context, ids []uint) (*Comparison, error)
	Brands(ctx context.Context) ([]domain.Brand, error)
	Categories(ctx context.Context) ([]domain.Category, error)
	Search(ctx context.Context, term string, limit int) (*SearchResult, error)
	Models(ctx context.Context, brandID uint) ([]domain.VehicleModel, error)
	Versions(ctx context.Context, modelID uint) ([]domain.Version, error)
	ListOpinions(ctx context.Context, vehicleID uint) ([]domain.Opinion, error)
	SaveOpinion(ctx context.Context, callerID, vehicleID uint, in domain.OpinionInput) (*domain.Opinion, bool, error)
	DeleteOpinion(ctx context.Context, callerID, vehicleID, opinionID uint) error
}

type vehicleStore interface {
	List(ctx context.Context, f domain.VehicleFilter) ([]domain.Vehicle, int64, error)
	Get(ctx context.Context, vehicleID uint) (*domain.Vehicle, error)
	RatingSummaries(ctx context.Context, vehicleIDs []uint) (map[uint]domain.RatingSummary, error)
	Brands(ctx context.Context) ([]domain.Brand, error)
	Categories(ctx context.Context) ([]domain.Category, error)
	Search(ctx context.Context, term string, year, limit int) ([]domain.Vehicle, error)
	Models(ctx context.Context, brandID uint) ([]domain.VehicleModel, error)
	Versions(ctx context.Context, modelID uint) ([]domain.Version, error)
}

type opinionStore interface {
	ListByVehicle(ctx context.Context, vehicleID uint) ([]domain.Opinion, error)
	Get(ctx context.Context, opinionID uint) (*domain.Opinion, error)
	Upsert(ctx context.Context, op *domain.Opinion) (bool, error)
	Delete(ctx context.Context, opinionID uint) error
}

type authorStore interface {
	Authors(ctx context.Context, userIDs []uint) (map[uint]domain.OpinionAuthor, error)
}

type ServiceDeps struct {
	VehicleRepo vehicleStore
	OpinionRepo opinionStore
	UserRepo    authorStore
	Now         func() time.Time
}

type service struct {
	vehicles vehicleStore
	opinions opinionStore
	users    authorStore
	now      func() time.Time
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{vehicles: deps.VehicleRepo, opinions: deps.OpinionRepo, users: deps.UserRepo, now: now}
}

func (s *service) List(ctx context.Context, f domain.VehicleFilter) (*ListResult, error) {
	if f.Page == 0 {
		f.Page = DefaultPage
	}
	if f.Limit == 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	if f.SortBy == "" {
		f.SortBy = "price"
	}
	if f.SortOrder == "" {
		f.SortOrder = "asc"
	}
	if f.YearMin != 0 && f.YearMax != 0 && f.YearMin > f.YearMax {
		return nil, fmt.Errorf("yearMin must not exceed yearMax: %w", domain.ErrBadRequest)
	}
	if f.PriceMin != 0 && f.PriceMax != 0 && f.PriceMin > f.PriceMax {
		return nil, fmt.Errorf("priceMin must not exceed priceMax: %w", domain.ErrBadRequest)
	}
	if err := checkRanges(f.SpecFilter); err != nil {
		return nil, err
	}

	vehicles, total, err := s.vehicles.List(ctx, f)
	if err != nil {
		return nil, err
	}
	data, err := s.summarize(ctx, vehicles)
	if err != nil {
		return nil, err
	}
	return &ListResult{
		Data: data,
		Pagination: Pagination{
			Page:       f.Page,
			Limit:      f.Limit,
			Total:      total,
			TotalPages: int((total + int64(f.Limit) - 1) / int64(f.Limit)),
		},
	}, nil
}

func (s *service) Get(ctx context.Context, vehicleID uint) (*Detail, error) {
	v, err := s.vehicles.Get(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	ops, err := s.opinionsWithAuthors(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	stats := Stats{TotalOpinions: len(ops), RatingDistribution: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}}
	sum := 0
	for _, op := range ops {
		sum += op.Rate
		stats.RatingDistribution[op.Rate]++
	}
	if len(ops) > 0 {
		stats.AverageRating = round1(float64(sum) / float64(len(ops)))
	}
	return &Detail{Vehicle: *v, Opinions: ops, Stats: stats}, nil
}

func (s *service) Compare(ctx context.Context, ids []uint) (*Comparison, error) {
	if len(ids) != 2 {
		return nil, fmt.Errorf("exactly 2 vehicles are required: %w", domain.ErrBadRequest)
	}
	if ids[0] == ids[1] {
		return nil, fmt.Errorf("cannot compare a vehicle with itself: %w", domain.ErrBadRequest)
	}
	vs := make([]domain.Vehicle, 0, 2)
	for _, id := range ids {
		v, err := s.vehicles.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		vs = append(vs, *v)
	}
	sums, err := s.summarize(ctx, vs)
	if err != nil {
		return nil, err
	}
	a, b := sums[0], sums[1]
	return &Comparison{
		Vehicle1: a,
		Vehicle2: b,
		Differences: Differences{
			PriceDifference:  absInt64(a.Price - b.Price),
			CheaperVehicle:   pick(a.Price < b.Price, b.Price < a.Price),
			YearDifference:   absInt(a.Year - b.Year),
			NewerVehicle:     pick(a.Year > b.Year, b.Year > a.Year),
			RatingDifference: round1(math.Abs(a.AverageRating - b.AverageRating)),
			BetterRated:      pick(a.AverageRating > b.AverageRating, b.AverageRating > a.AverageRating),
		},
	}, nil
}

func (s *service) Brands(ctx context.Context) ([]domain.Brand, error) {
	return s.vehicles.Brands(ctx)
}

func (s *service) Categories(ctx context.Context) ([]domain.Category, error) {
	return s.vehicles.Categories(ctx)
}

// Search is the autocomplete lookup over brand, model and version names. A term
// that parses as a plausible model year also matches that year.
func (s *service) Search(ctx context.Context, term string, limit int) (*SearchResult, error) {
	term = strings.TrimSpace(term)
	if len([]rune(term)) < MinSearchTerm {
		return &SearchResult{Data: []SearchHit{}, Message: ShortSearchMessage}, nil
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}
	year := 0
	if n, err := strconv.Atoi(term); err == nil && n > 1900 && n < 2100 {
		year = n
	}

	vehicles, err := s.vehicles.Search(ctx, term, year, limit)
	if err != nil {
		return nil, err
	}
	hits := make([]SearchHit, len(vehicles))
	for i, v := range vehicles {
		hits[i] = SearchHit{
			Vehicle: v,
			Label:   fmt.Sprintf("%s %s %s %d", v.Brand.Name, v.Model.Description, v.Version.Description, v.Year),
		}
	}
	return &SearchResult{Data: hits, Total: len(hits), Query: term}, nil
}

func (s *service) Models(ctx context.Context, brandID uint) ([]domain.VehicleModel, error) {
	return s.vehicles.Models(ctx, brandID)
}

func (s *service) Versions(ctx context.Context, modelID uint) ([]domain.Version, error) {
	return s.vehicles.Versions(ctx, modelID)
}

func (s *service) ListOpinions(ctx context.Context, vehicleID uint) ([]domain.Opinion, error) {
	if _, err := s.vehicles.Get(ctx, vehicleID); err != nil {
		return nil, err
	}
	return s.opinionsWithAuthors(ctx, vehicleID)
}

// SaveOpinion creates or replaces the caller's opinion of a vehicle and reports
// whether it was created.
func (s *service) SaveOpinion(ctx context.Context, callerID, vehicleID uint, in domain.OpinionInput) (*domain.Opinion, bool, error) {
	if _, err := s.vehicles.Get(ctx, vehicleID); err != nil {
		return nil, false, err
	}
	op := &domain.Opinion{
		VehicleID: vehicleID,
		UserID:    callerID,
		Rate:      in.Rate,
		Comment:   in.Comment,
		Date:      s.now().UTC(),
	}
	created, err := s.opinions.Upsert(ctx, op)
	if err != nil {
		return nil, false, err
	}
	return op, created, nil
}

func (s *service) DeleteOpinion(ctx context.Context, callerID, vehicleID, opinionID uint) error {
	op, err := s.opinions.Get(ctx, opinionID)
	if err != nil {
		return err
	}
	if op.VehicleID != vehicleID {
		return fmt.Errorf("opinion %d not found for vehicle %d: %w", opinionID, vehicleID, domain.ErrNotFound)
	}
	if op.UserID != callerID {
		return fmt.Errorf("only the author can delete an opinion: %w", domain.ErrForbidden)
	}
	return s.opinions.Delete(ctx, opinionID)
}

func (s *service) summarize(ctx context.Context, vs []domain.Vehicle) ([]Summary, error) {
	ids := make([]uint, len(vs))
	for i, v := range vs {
		ids[i] = v.VehicleID
	}
	ratings, err := s.vehicles.RatingSummaries(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, len(vs))
	for i, v := range vs {
		r := ratings[v.VehicleID]
		out[i] = Summary{Vehicle: v, AverageRating: round1(r.Average), OpinionCount: r.Count}
	}
	return out, nil
}

func (s *service) opinionsWithAuthors(ctx context.Context, vehicleID uint) ([]domain.Opinion, error) {
	ops, err := s.opinions.ListByVehicle(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	seen := map[uint]bool{}
	var userIDs []uint
	for _, op := range ops {
		if !seen[op.UserID] {
			seen[op.UserID] = true
			userIDs = append(userIDs, op.UserID)
		}
	}
	authors, err := s.users.Authors(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	for i := range ops {
		if a, ok := authors[ops[i].UserID]; ok {
			a := a
			ops[i].Author = &a
		}
	}
	if ops == nil {
		ops = []domain.Opinion{}
	}
	return ops, nil
}

// checkRanges rejects technical ranges whose minimum exceeds their maximum. Names are
// checked in a stable order so the error is deterministic.
func checkRanges(f domain.SpecFilter) error {
	ranges := f.Ranges()
	names := make([]string, 0, len(ranges))
	for name := range ranges {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		r := ranges[name]
		if r[0] != 0 && r[1] != 0 && r[0] > r[1] {
			return fmt.Errorf("%sMin must not exceed %sMax: %w", name, name, domain.ErrBadRequest)
		}
	}
	return nil
}

func round1(f float64) float64 { return math.Round(f*10) / 10 }

// pick names the winning side of a comparison, "equal" on ties.
func pick(first, second bool) string {
	switch {
	case first:
		return "vehicle1"
	case second:
		return "vehicle2"
	default:
		return "equal"
	}
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func absInt64(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
