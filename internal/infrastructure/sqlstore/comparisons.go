package sqlstore

import (
	"context"
	"fmt"

	"github.com/vehicle-market-api/internal/domain"
	"gorm.io/gorm"
)

// ComparisonRepo stores the vehicle comparisons users save.
type ComparisonRepo struct {
	db *gorm.DB
}

func NewComparisonRepo(db *gorm.DB) *ComparisonRepo {
	return &ComparisonRepo{db: db}
}

// ListByUser returns the user's comparisons, newest first, each with its vehicles
// in the order they were saved.
func (r *ComparisonRepo) ListByUser(ctx context.Context, userID uint) ([]domain.UserComparison, error) {
	var cs []domain.UserComparison
	err := withItems(r.db.WithContext(ctx)).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("comparison_id DESC").
		Find(&cs).Error
	if err != nil {
		return nil, fmt.Errorf("list comparisons: %w", err)
	}
	for i := range cs {
		flatten(&cs[i])
	}
	return cs, nil
}

// Get loads one of the user's comparisons.
func (r *ComparisonRepo) Get(ctx context.Context, userID, comparisonID uint) (*domain.UserComparison, error) {
	var c domain.UserComparison
	err := withItems(r.db.WithContext(ctx)).
		Where("comparison_id = ? AND user_id = ?", comparisonID, userID).
		First(&c).Error
	if err != nil {
		return nil, translate(err, "comparison")
	}
	flatten(&c)
	return &c, nil
}

// Create saves c with the given vehicles and bumps each vehicle's popularity.
// Callers must pass ids of existing vehicles without duplicates.
func (r *ComparisonRepo) Create(ctx context.Context, c *domain.UserComparison, vehicleIDs []uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Create(c).Error; err != nil {
			return fmt.Errorf("create comparison: %w", err)
		}
		items := make([]domain.ComparisonItem, len(vehicleIDs))
		for i, id := range vehicleIDs {
			items[i] = domain.ComparisonItem{ComparisonID: c.ComparisonID, VehicleID: id, Position: i}
		}
		if err := tx.Omit("Vehicle").Create(&items).Error; err != nil {
			return translate(err, "comparison vehicle")
		}
		err := tx.Model(&domain.Vehicle{}).
			Where("vehicle_id IN ?", vehicleIDs).
			UpdateColumn("popularity", gorm.Expr("popularity + ?", 1)).Error
		if err != nil {
			return fmt.Errorf("bump popularity: %w", err)
		}
		return nil
	})
}

// Delete removes one of the user's comparisons. A comparison owned by someone
// else is reported as not found.
func (r *ComparisonRepo) Delete(ctx context.Context, userID, comparisonID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c domain.UserComparison
		if err := tx.Where("comparison_id = ? AND user_id = ?", comparisonID, userID).First(&c).Error; err != nil {
			return translate(err, "comparison")
		}
		if err := tx.Where("comparison_id = ?", comparisonID).Delete(&domain.ComparisonItem{}).Error; err != nil {
			return fmt.Errorf("delete comparison vehicles: %w", err)
		}
		return tx.Delete(&c).Error
	})
}

func withItems(q *gorm.DB) *gorm.DB {
	return q.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Items.Vehicle").
		Preload("Items.Vehicle.Brand").
		Preload("Items.Vehicle.Model").
		Preload("Items.Vehicle.Version").
		Preload("Items.Vehicle.Category")
}

// flatten moves the preloaded vehicles onto the public field.
func flatten(c *domain.UserComparison) {
	c.Vehicles = make([]domain.Vehicle, len(c.Items))
	for i, it := range c.Items {
		c.Vehicles[i] = it.Vehicle
	}
}
