package sqlstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/vehicle-market-api/internal/domain"
	"gorm.io/gorm"
)

// OpinionRepo stores user ratings of vehicles.
type OpinionRepo struct {
	db *gorm.DB
}

func NewOpinionRepo(db *gorm.DB) *OpinionRepo {
	return &OpinionRepo{db: db}
}

// ListByVehicle returns the opinions of a vehicle, newest first.
func (r *OpinionRepo) ListByVehicle(ctx context.Context, vehicleID uint) ([]domain.Opinion, error) {
	var ops []domain.Opinion
	err := r.db.WithContext(ctx).
		Where("vehicle_id = ?", vehicleID).
		Order("date DESC").Order("opinion_id DESC").
		Find(&ops).Error
	if err != nil {
		return nil, fmt.Errorf("list opinions: %w", err)
	}
	return ops, nil
}

func (r *OpinionRepo) Get(ctx context.Context, opinionID uint) (*domain.Opinion, error) {
	var op domain.Opinion
	if err := r.db.WithContext(ctx).First(&op, "opinion_id = ?", opinionID).Error; err != nil {
		return nil, translate(err, "opinion")
	}
	return &op, nil
}

// Upsert stores op as the caller's opinion of the vehicle, replacing rate, comment and
// date of an existing one. It reports whether a new row was created.
func (r *OpinionRepo) Upsert(ctx context.Context, op *domain.Opinion) (bool, error) {
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing domain.Opinion
		err := tx.Where("vehicle_id = ? AND user_id = ?", op.VehicleID, op.UserID).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			created = true
			return tx.Create(op).Error
		case err != nil:
			return err
		}
		op.OpinionID = existing.OpinionID
		return tx.Model(&existing).Updates(map[string]interface{}{
			"rate":    op.Rate,
			"comment": op.Comment,
			"date":    op.Date,
		}).Error
	})
	if err != nil {
		return false, translate(err, "opinion")
	}
	return created, nil
}

func (r *OpinionRepo) Delete(ctx context.Context, opinionID uint) error {
	res := r.db.WithContext(ctx).Delete(&domain.Opinion{}, "opinion_id = ?", opinionID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("opinion not found: %w", domain.ErrNotFound)
	}
	return nil
}
