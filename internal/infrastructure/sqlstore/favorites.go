package sqlstore

import (
	"context"
	"fmt"

	"github.com/vehicle-market-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FavoriteRepo stores the vehicles each user saved.
type FavoriteRepo struct {
	db *gorm.DB
}

func NewFavoriteRepo(db *gorm.DB) *FavoriteRepo {
	return &FavoriteRepo{db: db}
}

// Add saves a vehicle for a user. Adding an existing favorite is a no-op.
func (r *FavoriteRepo) Add(ctx context.Context, fav *domain.Favorite) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(fav).Error
}

func (r *FavoriteRepo) Remove(ctx context.Context, userID, vehicleID uint) error {
	res := r.db.WithContext(ctx).Delete(&domain.Favorite{}, "user_id = ? AND vehicle_id = ?", userID, vehicleID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("favorite not found: %w", domain.ErrNotFound)
	}
	return nil
}

// ListVehicles returns the user's saved vehicles, most recently saved first.
func (r *FavoriteRepo) ListVehicles(ctx context.Context, userID uint) ([]domain.Vehicle, error) {
	var vehicles []domain.Vehicle
	err := withDetails(r.db.WithContext(ctx).Model(&domain.Vehicle{})).
		Select("vehicles.*").
		Joins("JOIN user_favorite_vehicles f ON f.vehicle_id = vehicles.vehicle_id").
		Where("f.user_id = ?", userID).
		Order("f.created_at DESC").
		Find(&vehicles).Error
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	return vehicles, nil
}
