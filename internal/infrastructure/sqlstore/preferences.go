package sqlstore

import (
	"context"
	"fmt"

	"github.com/vehicle-market-api/internal/domain"
	"gorm.io/gorm"
)

// Column names of user_preferences that may be patched.
const (
	ColumnPrefBrandID    = "brand_id"
	ColumnPrefCategoryID = "category_id"
	ColumnPrefPriceMax   = "price_max"
)

// PreferenceRepo stores users' shopping preferences.
type PreferenceRepo struct {
	db *gorm.DB
}

func NewPreferenceRepo(db *gorm.DB) *PreferenceRepo {
	return &PreferenceRepo{db: db}
}

func (r *PreferenceRepo) ListByUser(ctx context.Context, userID uint) ([]domain.UserPreference, error) {
	var prefs []domain.UserPreference
	err := r.db.WithContext(ctx).
		Preload("Brand").
		Preload("Category").
		Where("user_id = ?", userID).
		Order("preference_id ASC").
		Find(&prefs).Error
	if err != nil {
		return nil, fmt.Errorf("list preferences: %w", err)
	}
	return prefs, nil
}

// Get loads a preference only when it belongs to userID.
func (r *PreferenceRepo) Get(ctx context.Context, userID, preferenceID uint) (*domain.UserPreference, error) {
	var p domain.UserPreference
	err := r.db.WithContext(ctx).
		Preload("Brand").
		Preload("Category").
		Where("preference_id = ? AND user_id = ?", preferenceID, userID).
		First(&p).Error
	if err != nil {
		return nil, translate(err, "preference")
	}
	return &p, nil
}

func (r *PreferenceRepo) Create(ctx context.Context, p *domain.UserPreference) error {
	if err := r.db.WithContext(ctx).Omit("Brand", "Category").Create(p).Error; err != nil {
		return translate(err, "preference")
	}
	return nil
}

func (r *PreferenceRepo) Update(ctx context.Context, userID, preferenceID uint, updates map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&domain.UserPreference{}).
		Where("preference_id = ? AND user_id = ?", preferenceID, userID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("preference not found: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *PreferenceRepo) Delete(ctx context.Context, userID, preferenceID uint) error {
	res := r.db.WithContext(ctx).Delete(&domain.UserPreference{}, "preference_id = ? AND user_id = ?", preferenceID, userID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("preference not found: %w", domain.ErrNotFound)
	}
	return nil
}
