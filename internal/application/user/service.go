package user

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/vehicle-market-api/internal/domain"
	"github.com/vehicle-market-api/internal/infrastructure/sqlstore"
)

// PhotoDir is the object-store prefix for profile photos.
const PhotoDir = "profile-photos"

type AddFavoriteRequest struct {
	VehicleID uint `json:"vehicleID" validate:"required"`
}

type Service interface {
	Get(ctx context.Context, userID uint) (*domain.User, error)
	Update(ctx context.Context, callerID, userID uint, req domain.UpdateUserRequest) (*domain.User, error)
	UpdatePhoto(ctx context.Context, callerID, userID uint, filename, contentType string, body io.Reader) (*domain.User, error)
	ListFavorites(ctx context.Context, callerID, userID uint) ([]domain.Vehicle, error)
	AddFavorite(ctx context.Context, callerID, userID, vehicleID uint) error
	RemoveFavorite(ctx context.Context, callerID, userID, vehicleID uint) error

	ListComparisons(ctx context.Context, callerID, userID uint) ([]domain.UserComparison, error)
	CreateComparison(ctx context.Context, callerID, userID uint, in domain.ComparisonInput) (*domain.UserComparison, error)
	DeleteComparison(ctx context.Context, callerID, userID, comparisonID uint) error

	ListPreferences(ctx context.Context, callerID, userID uint) ([]domain.UserPreference, error)
	CreatePreference(ctx context.Context, callerID, userID uint, in domain.PreferenceInput) (*domain.UserPreference, error)
	UpdatePreference(ctx context.Context, callerID, userID, preferenceID uint, patch domain.PreferencePatch) (*domain.UserPreference, error)
	DeletePreference(ctx context.Context, callerID, userID, preferenceID uint) error
}

type userStore interface {
	Get(ctx context.Context, userID uint) (*domain.User, error)
	Update(ctx context.Context, userID uint, updates map[string]interface{}) error
}

type favoriteStore interface {
	Add(ctx context.Context, fav *domain.Favorite) error
	Remove(ctx context.Context, userID, vehicleID uint) error
	ListVehicles(ctx context.Context, userID uint) ([]domain.Vehicle, error)
}

type vehicleStore interface {
	Exists(ctx context.Context, vehicleID uint) (bool, error)
	BrandExists(ctx context.Context, brandID uint) (bool, error)
	CategoryExists(ctx context.Context, categoryID uint) (bool, error)
}

type comparisonStore interface {
	ListByUser(ctx context.Context, userID uint) ([]domain.UserComparison, error)
	Get(ctx context.Context, userID, comparisonID uint) (*domain.UserComparison, error)
	Create(ctx context.Context, c *domain.UserComparison, vehicleIDs []uint) error
	Delete(ctx context.Context, userID, comparisonID uint) error
}

type preferenceStore interface {
	ListByUser(ctx context.Context, userID uint) ([]domain.UserPreference, error)
	Get(ctx context.Context, userID, preferenceID uint) (*domain.UserPreference, error)
	Create(ctx context.Context, p *domain.UserPreference) error
	Update(ctx context.Context, userID, preferenceID uint, updates map[string]interface{}) error
	Delete(ctx context.Context, userID, preferenceID uint) error
}

type photoStore interface {
	Upload(ctx context.Context, dir, filename string, r io.Reader, contentType string) (string, error)
	DeleteURL(ctx context.Context, url string) error
}

type ServiceDeps struct {
	UserRepo       userStore
	FavoriteRepo   favoriteStore
	ComparisonRepo comparisonStore
	PreferenceRepo preferenceStore
	VehicleRepo    vehicleStore
	Photos         photoStore
	Now            func() time.Time
}

type service struct {
	repo        userStore
	favorites   favoriteStore
	comparisons comparisonStore
	preferences preferenceStore
	vehicles    vehicleStore
	photos      photoStore
	now         func() time.Time
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:        deps.UserRepo,
		favorites:   deps.FavoriteRepo,
		comparisons: deps.ComparisonRepo,
		preferences: deps.PreferenceRepo,
		vehicles:    deps.VehicleRepo,
		photos:      deps.Photos,
		now:         now,
	}
}

func (s *service) Get(ctx context.Context, userID uint) (*domain.User, error) {
	return s.repo.Get(ctx, userID)
}

func (s *service) Update(ctx context.Context, callerID, userID uint, req domain.UpdateUserRequest) (*domain.User, error) {
	if err := ownerOnly(callerID, userID); err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if req.Name != nil {
		updates[sqlstore.ColumnName] = strings.TrimSpace(*req.Name)
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("no fields to update: %w", domain.ErrBadRequest)
	}
	if err := s.repo.Update(ctx, userID, updates); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, userID)
}

func (s *service) UpdatePhoto(ctx context.Context, callerID, userID uint, filename, contentType string, body io.Reader) (*domain.User, error) {
	if err := ownerOnly(callerID, userID); err != nil {
		return nil, err
	}
	if s.photos == nil {
		return nil, fmt.Errorf("photo storage is not configured: %w", domain.ErrBadRequest)
	}
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	url, err := s.photos.Upload(ctx, PhotoDir, filename, body, contentType)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, userID, map[string]interface{}{sqlstore.ColumnPhotoURL: url}); err != nil {
		return nil, err
	}
	if u.PhotoURL != nil {
		if err := s.photos.DeleteURL(ctx, *u.PhotoURL); err != nil {
			slog.Warn("failed to delete previous profile photo", "user_id", userID, "err", err)
		}
	}
	u.PhotoURL = &url
	return u, nil
}

func (s *service) ListFavorites(ctx context.Context, callerID, userID uint) ([]domain.Vehicle, error) {
	if err := ownerOnly(callerID, userID); err != nil {
		return nil, err
	}
	return s.favorites.ListVehicles(ctx, userID)
}

func (s *service) AddFavorite(ctx context.Context, callerID, userID, vehicleID uint) error {
	if err := ownerOnly(callerID, userID); err != nil {
		return err
	}
	ok, err := s.vehicles.Exists(ctx, vehicleID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("vehicle %d not found: %w", vehicleID, domain.ErrNotFound)
	}
	return s.favorites.Add(ctx, &domain.Favorite{UserID: userID, VehicleID: vehicleID, CreatedAt: s.now().UTC()})
}

func (s *service) RemoveFavorite(ctx context.Context, callerID, userID, vehicleID uint) error {
	if err := ownerOnly(callerID, userID); err != nil {
		return err
	}
	return s.favorites.Remove(ctx, userID, vehicleID)
}

func (s *service) ListComparisons(ctx context.Context, callerID, userID uint) ([]domain.UserComparison, error) {
	if err := ownerOnly(callerID, userID); err != nil {
		return nil, err
	}
	return s.comparisons.ListByUser(ctx, userID)
}

// CreateComparison saves the vehicles as one comparison. Repeated ids collapse
// to their first position; every vehicle must exist.
func (s *service) CreateComparison(ctx context.Context, callerID, userID uint, in domain.ComparisonInput) (*domain.UserComparison, error) {
	if err := ownerOnly(callerID, userID); err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(in.VehicleIDs))
	seen := make(map[uint]bool, len(in.VehicleIDs))
	for _, id := range in.VehicleIDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("at least one vehicle is required: %w", domain.ErrBadRequest)
	}
	for _, id := range ids {
		ok, err := s.vehicles.Exists(ctx, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("vehicle %d does not exist: %w", id, domain.ErrBadRequest)
		}
	}

	c := &domain.UserComparison{UserID: userID, CreatedAt: s.now().UTC()}
	if err := s.comparisons.Create(ctx, c, ids); err != nil {
		return nil, err
	}
	return s.comparisons.Get(ctx, userID, c.ComparisonID)
}

func (s *service) DeleteComparison(ctx context.Context, callerID, userID, comparisonID uint) error {
	if err := ownerOnly(callerID, userID); err != nil {
		return err
	}
	return s.comparisons.Delete(ctx, userID, comparisonID)
}

func (s *service) ListPreferences(ctx context.Context, callerID, userID uint) ([]domain.UserPreference, error) {
	if err := ownerOnly(callerID, userID); err != nil {
		return nil, err
	}
	return s.preferences.ListByUser(ctx, userID)
}

func (s *service) CreatePreference(ctx context.Context, callerID, userID uint, in domain.PreferenceInput) (*domain.UserPreference, error) {
	if err := ownerOnly(callerID, userID); err != nil {
		return nil, err
	}
	if err := s.catalogRefs(ctx, &in.BrandID, &in.CategoryID); err != nil {
		return nil, err
	}
	p := &domain.UserPreference{UserID: userID, BrandID: in.BrandID, CategoryID: in.CategoryID, PriceMax: in.PriceMax}
	if err := s.preferences.Create(ctx, p); err != nil {
		return nil, err
	}
	return s.preferences.Get(ctx, userID, p.PreferenceID)
}

func (s *service) UpdatePreference(ctx context.Context, callerID, userID, preferenceID uint, patch domain.PreferencePatch) (*domain.UserPreference, error) {
	if err := ownerOnly(callerID, userID); err != nil {
		return nil, err
	}
	if _, err := s.preferences.Get(ctx, userID, preferenceID); err != nil {
		return nil, err
	}
	if err := s.catalogRefs(ctx, patch.BrandID, patch.CategoryID); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if patch.BrandID != nil {
		updates[sqlstore.ColumnPrefBrandID] = *patch.BrandID
	}
	if patch.CategoryID != nil {
		updates[sqlstore.ColumnPrefCategoryID] = *patch.CategoryID
	}
	if patch.PriceMax != nil {
		updates[sqlstore.ColumnPrefPriceMax] = *patch.PriceMax
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("no fields to update: %w", domain.ErrBadRequest)
	}
	if err := s.preferences.Update(ctx, userID, preferenceID, updates); err != nil {
		return nil, err
	}
	return s.preferences.Get(ctx, userID, preferenceID)
}

func (s *service) DeletePreference(ctx context.Context, callerID, userID, preferenceID uint) error {
	if err := ownerOnly(callerID, userID); err != nil {
		return err
	}
	return s.preferences.Delete(ctx, userID, preferenceID)
}

// catalogRefs checks that the referenced brand and category exist. Nil ids are
// not checked.
func (s *service) catalogRefs(ctx context.Context, brandID, categoryID *uint) error {
	if brandID != nil {
		ok, err := s.vehicles.BrandExists(ctx, *brandID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("brand %d: %w", *brandID, domain.ErrNotFound)
		}
	}
	if categoryID != nil {
		ok, err := s.vehicles.CategoryExists(ctx, *categoryID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("category %d: %w", *categoryID, domain.ErrNotFound)
		}
	}
	return nil
}

func ownerOnly(callerID, userID uint) error {
	if callerID != userID {
		return fmt.Errorf("cannot act on another user's account: %w", domain.ErrForbidden)
	}
	return nil
}
