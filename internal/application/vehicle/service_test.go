package vehicle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vehicle-market-api/internal/domain"
)

// --- mocks ---

type mockVehicleStore struct{ mock.Mock }

func (m *mockVehicleStore) List(ctx context.Context, f domain.VehicleFilter) ([]domain.Vehicle, int64, error) {
	args := m.Called(ctx, f)
	vs, _ := args.Get(0).([]domain.Vehicle)
	return vs, args.Get(1).(int64), args.Error(2)
}
func (m *mockVehicleStore) Get(ctx context.Context, vehicleID uint) (*domain.Vehicle, error) {
	args := m.Called(ctx, vehicleID)
	if v, _ := args.Get(0).(*domain.Vehicle); v != nil {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockVehicleStore) RatingSummaries(ctx context.Context, ids []uint) (map[uint]domain.RatingSummary, error) {
	args := m.Called(ctx, ids)
	r, _ := args.Get(0).(map[uint]domain.RatingSummary)
	return r, args.Error(1)
}
func (m *mockVehicleStore) Brands(ctx context.Context) ([]domain.Brand, error) {
	args := m.Called(ctx)
	b, _ := args.Get(0).([]domain.Brand)
	return b, args.Error(1)
}
func (m *mockVehicleStore) Categories(ctx context.Context) ([]domain.Category, error) {
	args := m.Called(ctx)
	c, _ := args.Get(0).([]domain.Category)
	return c, args.Error(1)
}

func (m *mockVehicleStore) Search(ctx context.Context, term string, year, limit int) ([]domain.Vehicle, error) {
	args := m.Called(ctx, term, year, limit)
	vs, _ := args.Get(0).([]domain.Vehicle)
	return vs, args.Error(1)
}
func (m *mockVehicleStore) Models(ctx context.Context, brandID uint) ([]domain.VehicleModel, error) {
	args := m.Called(ctx, brandID)
	ms, _ := args.Get(0).([]domain.VehicleModel)
	return ms, args.Error(1)
}
func (m *mockVehicleStore) Versions(ctx context.Context, modelID uint) ([]domain.Version, error) {
	args := m.Called(ctx, modelID)
	vs, _ := args.Get(0).([]domain.Version)
	return vs, args.Error(1)
}

type mockOpinionStore struct{ mock.Mock }

func (m *mockOpinionStore) ListByVehicle(ctx context.Context, vehicleID uint) ([]domain.Opinion, error) {
	args := m.Called(ctx, vehicleID)
	ops, _ := args.Get(0).([]domain.Opinion)
	return ops, args.Error(1)
}
func (m *mockOpinionStore) Get(ctx context.Context, opinionID uint) (*domain.Opinion, error) {
	args := m.Called(ctx, opinionID)
	if op, _ := args.Get(0).(*domain.Opinion); op != nil {
		return op, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockOpinionStore) Upsert(ctx context.Context, op *domain.Opinion) (bool, error) {
	args := m.Called(ctx, op)
	return args.Bool(0), args.Error(1)
}
func (m *mockOpinionStore) Delete(ctx context.Context, opinionID uint) error {
	return m.Called(ctx, opinionID).Error(0)
}

type mockAuthorStore struct{ mock.Mock }

func (m *mockAuthorStore) Authors(ctx context.Context, ids []uint) (map[uint]domain.OpinionAuthor, error) {
	args := m.Called(ctx, ids)
	a, _ := args.Get(0).(map[uint]domain.OpinionAuthor)
	return a, args.Error(1)
}

func newService(vs *mockVehicleStore, os *mockOpinionStore, as *mockAuthorStore) Service {
	return NewService(ServiceDeps{
		VehicleRepo: vs,
		OpinionRepo: os,
		UserRepo:    as,
		Now:         func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) },
	})
}

// --- List ---

func TestList_DefaultsAndPagination(t *testing.T) {
	vs := &mockVehicleStore{}
	want := domain.VehicleFilter{Page: 1, Limit: 10, SortBy: "price", SortOrder: "asc"}
	vs.On("List", mock.Anything, want).Return([]domain.Vehicle{{VehicleID: 1}, {VehicleID: 2}}, int64(21), nil)
	vs.On("RatingSummaries", mock.Anything, []uint{1, 2}).Return(map[uint]domain.RatingSummary{
		1: {VehicleID: 1, Average: 4.3333, Count: 3},
	}, nil)

	res, err := newService(vs, nil, nil).List(context.Background(), domain.VehicleFilter{})
	require.NoError(t, err)
	assert.Equal(t, Pagination{Page: 1, Limit: 10, Total: 21, TotalPages: 3}, res.Pagination)
	require.Len(t, res.Data, 2)
	assert.Equal(t, 4.3, res.Data[0].AverageRating)
	assert.Equal(t, int64(3), res.Data[0].OpinionCount)
	assert.Equal(t, 0.0, res.Data[1].AverageRating)
}

func TestList_RejectsInvertedRanges(t *testing.T) {
	svc := newService(&mockVehicleStore{}, nil, nil)
	_, err := svc.List(context.Background(), domain.VehicleFilter{YearMin: 2022, YearMax: 2020})
	assert.ErrorIs(t, err, domain.ErrBadRequest)
	_, err = svc.List(context.Background(), domain.VehicleFilter{PriceMin: 10, PriceMax: 5})
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestList_RejectsInvertedSpecRanges(t *testing.T) {
	vs := &mockVehicleStore{}
	svc := newService(vs, nil, nil)

	_, err := svc.List(context.Background(), domain.VehicleFilter{SpecFilter: domain.SpecFilter{PowerHPMin: 300, PowerHPMax: 100}})
	assert.ErrorIs(t, err, domain.ErrBadRequest)
	assert.Contains(t, err.Error(), "powerHPMin")
	vs.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestList_PassesSpecFilterThrough(t *testing.T) {
	vs := &mockVehicleStore{}
	sf := domain.SpecFilter{PowerHPMin: 100, FuelType: "Hybrid", DriveType: "AWD"}
	want := domain.VehicleFilter{Page: 1, Limit: 10, SortBy: "power", SortOrder: "desc", SpecFilter: sf}
	vs.On("List", mock.Anything, want).Return([]domain.Vehicle{}, int64(0), nil)
	vs.On("RatingSummaries", mock.Anything, []uint{}).Return(map[uint]domain.RatingSummary{}, nil)

	res, err := newService(vs, nil, nil).List(context.Background(), domain.VehicleFilter{SortBy: "power", SortOrder: "desc", SpecFilter: sf})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Pagination.TotalPages)
	vs.AssertExpectations(t)
}

// --- Search ---

func TestSearch_ShortTerm(t *testing.T) {
	vs := &mockVehicleStore{}
	res, err := newService(vs, nil, nil).Search(context.Background(), "  a ", 10)
	require.NoError(t, err)
	assert.Equal(t, ShortSearchMessage, res.Message)
	assert.NotNil(t, res.Data)
	assert.Zero(t, res.Total)
	vs.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSearch_LabelsAndLimits(t *testing.T) {
	vs := &mockVehicleStore{}
	v := domain.Vehicle{
		VehicleID: 4,
		Year:      2021,
		Brand:     domain.Brand{Name: "Honda"},
		Model:     domain.VehicleModel{Description: "Civic"},
		Version:   domain.Version{Description: "EX"},
	}
	vs.On("Search", mock.Anything, "civic", 0, MaxSearchLimit).Return([]domain.Vehicle{v}, nil)
	vs.On("Search", mock.Anything, "2021", 2021, DefaultSearchLimit).Return([]domain.Vehicle{v}, nil)
	svc := newService(vs, nil, nil)

	res, err := svc.Search(context.Background(), " civic ", 500)
	require.NoError(t, err)
	assert.Equal(t, "civic", res.Query)
	assert.Equal(t, 1, res.Total)
	assert.Equal(t, "Honda Civic EX 2021", res.Data[0].Label)

	_, err = svc.Search(context.Background(), "2021", 0)
	require.NoError(t, err)
	vs.AssertExpectations(t)
}

func TestModelsAndVersions(t *testing.T) {
	vs := &mockVehicleStore{}
	vs.On("Models", mock.Anything, uint(2)).Return([]domain.VehicleModel{{ModelID: 1, BrandID: 2}}, nil)
	vs.On("Versions", mock.Anything, uint(0)).Return([]domain.Version{{VersionID: 3}}, nil)
	svc := newService(vs, nil, nil)

	models, err := svc.Models(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, models, 1)
	versions, err := svc.Versions(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, versions, 1)
}

// --- Get ---

func TestGet_StatsAndAuthors(t *testing.T) {
	vs := &mockVehicleStore{}
	os := &mockOpinionStore{}
	as := &mockAuthorStore{}
	vs.On("Get", mock.Anything, uint(5)).Return(&domain.Vehicle{VehicleID: 5}, nil)
	os.On("ListByVehicle", mock.Anything, uint(5)).Return([]domain.Opinion{
		{OpinionID: 3, UserID: 10, Rate: 5},
		{OpinionID: 2, UserID: 11, Rate: 4},
		{OpinionID: 1, UserID: 10, Rate: 4},
	}, nil)
	as.On("Authors", mock.Anything, []uint{10, 11}).Return(map[uint]domain.OpinionAuthor{
		10: {UserID: 10, Name: "Ana"},
	}, nil)

	d, err := newService(vs, os, as).Get(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 3, d.Stats.TotalOpinions)
	assert.Equal(t, 4.3, d.Stats.AverageRating)
	assert.Equal(t, map[int]int{1: 0, 2: 0, 3: 0, 4: 2, 5: 1}, d.Stats.RatingDistribution)
	require.NotNil(t, d.Opinions[0].Author)
	assert.Equal(t, "Ana", d.Opinions[0].Author.Name)
	assert.Nil(t, d.Opinions[1].Author)
}

func TestGet_NotFound(t *testing.T) {
	vs := &mockVehicleStore{}
	vs.On("Get", mock.Anything, uint(9)).Return(nil, domain.ErrNotFound)

	_, err := newService(vs, nil, nil).Get(context.Background(), 9)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// --- Compare ---

func TestCompare(t *testing.T) {
	vs := &mockVehicleStore{}
	vs.On("Get", mock.Anything, uint(1)).Return(&domain.Vehicle{VehicleID: 1, Price: 30000, Year: 2020}, nil)
	vs.On("Get", mock.Anything, uint(2)).Return(&domain.Vehicle{VehicleID: 2, Price: 25000, Year: 2020}, nil)
	vs.On("RatingSummaries", mock.Anything, []uint{1, 2}).Return(map[uint]domain.RatingSummary{
		1: {VehicleID: 1, Average: 4.5, Count: 2},
		2: {VehicleID: 2, Average: 3, Count: 1},
	}, nil)

	c, err := newService(vs, nil, nil).Compare(context.Background(), []uint{1, 2})
	require.NoError(t, err)
	assert.Equal(t, uint(1), c.Vehicle1.VehicleID)
	assert.Equal(t, Differences{
		PriceDifference:  5000,
		CheaperVehicle:   "vehicle2",
		YearDifference:   0,
		NewerVehicle:     "equal",
		RatingDifference: 1.5,
		BetterRated:      "vehicle1",
	}, c.Differences)
}

func TestCompare_Invalid(t *testing.T) {
	vs := &mockVehicleStore{}
	vs.On("Get", mock.Anything, uint(1)).Return(&domain.Vehicle{VehicleID: 1}, nil)
	vs.On("Get", mock.Anything, uint(404)).Return(nil, domain.ErrNotFound)
	svc := newService(vs, nil, nil)

	_, err := svc.Compare(context.Background(), []uint{1})
	assert.ErrorIs(t, err, domain.ErrBadRequest)
	_, err = svc.Compare(context.Background(), []uint{1, 1})
	assert.ErrorIs(t, err, domain.ErrBadRequest)
	_, err = svc.Compare(context.Background(), []uint{1, 404})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// --- opinions ---

func TestSaveOpinion(t *testing.T) {
	vs := &mockVehicleStore{}
	os := &mockOpinionStore{}
	vs.On("Get", mock.Anything, uint(5)).Return(&domain.Vehicle{VehicleID: 5}, nil)
	os.On("Upsert", mock.Anything, mock.MatchedBy(func(op *domain.Opinion) bool {
		return op.VehicleID == 5 && op.UserID == 7 && op.Rate == 4 && op.Date.Equal(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	})).Return(true, nil)

	op, created, err := newService(vs, os, nil).SaveOpinion(context.Background(), 7, 5, domain.OpinionInput{Rate: 4})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 4, op.Rate)
}

func TestSaveOpinion_UnknownVehicle(t *testing.T) {
	vs := &mockVehicleStore{}
	os := &mockOpinionStore{}
	vs.On("Get", mock.Anything, uint(5)).Return(nil, domain.ErrNotFound)

	_, _, err := newService(vs, os, nil).SaveOpinion(context.Background(), 7, 5, domain.OpinionInput{Rate: 4})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	os.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestDeleteOpinion(t *testing.T) {
	os := &mockOpinionStore{}
	os.On("Get", mock.Anything, uint(3)).Return(&domain.Opinion{OpinionID: 3, VehicleID: 5, UserID: 7}, nil)
	os.On("Delete", mock.Anything, uint(3)).Return(nil).Once()
	svc := newService(&mockVehicleStore{}, os, nil)
	ctx := context.Background()

	assert.ErrorIs(t, svc.DeleteOpinion(ctx, 8, 5, 3), domain.ErrForbidden)
	assert.ErrorIs(t, svc.DeleteOpinion(ctx, 7, 6, 3), domain.ErrNotFound)
	require.NoError(t, svc.DeleteOpinion(ctx, 7, 5, 3))
	os.AssertExpectations(t)
}

func TestListOpinions_EmptyIsNotNil(t *testing.T) {
	vs := &mockVehicleStore{}
	os := &mockOpinionStore{}
	as := &mockAuthorStore{}
	vs.On("Get", mock.Anything, uint(5)).Return(&domain.Vehicle{VehicleID: 5}, nil)
	os.On("ListByVehicle", mock.Anything, uint(5)).Return(nil, nil)
	as.On("Authors", mock.Anything, []uint(nil)).Return(map[uint]domain.OpinionAuthor{}, nil)

	ops, err := newService(vs, os, as).ListOpinions(context.Background(), 5)
	require.NoError(t, err)
	assert.NotNil(t, ops)
	assert.Empty(t, ops)
}
