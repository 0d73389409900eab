package sqlstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/vehicle-market-api/internal/domain"
	"gorm.io/gorm"
)

// VehicleRepo reads the vehicle catalog.
type VehicleRepo struct {
	db *gorm.DB
}

func NewVehicleRepo(db *gorm.DB) *VehicleRepo {
	return &VehicleRepo{db: db}
}

// List returns one page of vehicles matching f together with the total match count.
// f is expected to be normalized (page >= 1, limit > 0, known sort column).
func (r *VehicleRepo) List(ctx context.Context, f domain.VehicleFilter) ([]domain.Vehicle, int64, error) {
	base := applyFilter(r.db.WithContext(ctx).Model(&domain.Vehicle{}), f).Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count vehicles: %w", err)
	}

	dir := "ASC"
	if f.SortOrder == "desc" {
		dir = "DESC"
	}
	q := withDetails(base.Select("vehicles.*"))
	switch f.SortBy {
	case "brand":
		q = q.Joins("JOIN brands ON brands.brand_id = vehicles.brand_id").Order("brands.name " + dir)
	case "year":
		q = q.Order("vehicles.year " + dir)
	case "popularity":
		q = q.Order("vehicles.popularity " + dir).
			Order("(SELECT COUNT(*) FROM vehicle_opinions o WHERE o.vehicle_id = vehicles.vehicle_id) " + dir)
	case "power":
		// unknown specs sort last in both directions
		q = q.Order("vehicles.power_hp IS NULL").Order("vehicles.power_hp " + dir)
	case "efficiency":
		q = q.Order("vehicles.fuel_consumption IS NULL").Order("vehicles.fuel_consumption " + dir)
	default:
		q = q.Order("vehicles.price " + dir)
	}

	var vehicles []domain.Vehicle
	err := q.Order("vehicles.vehicle_id ASC").
		Offset((f.Page - 1) * f.Limit).
		Limit(f.Limit).
		Find(&vehicles).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list vehicles: %w", err)
	}
	return vehicles, total, nil
}

func (r *VehicleRepo) Get(ctx context.Context, vehicleID uint) (*domain.Vehicle, error) {
	var v domain.Vehicle
	if err := withDetails(r.db.WithContext(ctx)).First(&v, "vehicle_id = ?", vehicleID).Error; err != nil {
		return nil, translate(err, "vehicle")
	}
	return &v, nil
}

// Exists reports whether a vehicle with the given id is in the catalog.
func (r *VehicleRepo) Exists(ctx context.Context, vehicleID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Vehicle{}).Where("vehicle_id = ?", vehicleID).Count(&n).Error
	return n > 0, err
}

// RatingSummaries aggregates opinions per vehicle. Vehicles without opinions are absent
// from the result.
func (r *VehicleRepo) RatingSummaries(ctx context.Context, vehicleIDs []uint) (map[uint]domain.RatingSummary, error) {
	out := make(map[uint]domain.RatingSummary, len(vehicleIDs))
	if len(vehicleIDs) == 0 {
		return out, nil
	}
	var rows []domain.RatingSummary
	err := r.db.WithContext(ctx).Model(&domain.Opinion{}).
		Select("vehicle_id, CAST(AVG(rate) AS DOUBLE PRECISION) AS average, COUNT(*) AS count").
		Where("vehicle_id IN ?", vehicleIDs).
		Group("vehicle_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("rating summaries: %w", err)
	}
	for _, row := range rows {
		out[row.VehicleID] = row
	}
	return out, nil
}

type brandRow struct {
	BrandID      uint
	Name         string
	VehicleCount int64
}

// Brands lists every brand ordered by name, with the number of vehicles it has.
func (r *VehicleRepo) Brands(ctx context.Context) ([]domain.Brand, error) {
	var rows []brandRow
	err := r.db.WithContext(ctx).Model(&domain.Brand{}).
		Select("brands.brand_id, brands.name, COUNT(vehicles.vehicle_id) AS vehicle_count").
		Joins("LEFT JOIN vehicles ON vehicles.brand_id = brands.brand_id").
		Group("brands.brand_id, brands.name").
		Order("brands.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list brands: %w", err)
	}
	brands := make([]domain.Brand, len(rows))
	for i, row := range rows {
		brands[i] = domain.Brand{BrandID: row.BrandID, Name: row.Name, VehicleCount: row.VehicleCount}
	}
	return brands, nil
}

// Search matches term against brand, model and version names, and year against
// the model year when non-zero. Newest vehicles come first.
func (r *VehicleRepo) Search(ctx context.Context, term string, year, limit int) ([]domain.Vehicle, error) {
	pattern := "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
	cond := `LOWER(b.name) LIKE ? ESCAPE '\' OR LOWER(m.description) LIKE ? ESCAPE '\' OR LOWER(ver.description) LIKE ? ESCAPE '\'`
	args := []interface{}{pattern, pattern, pattern}
	if year != 0 {
		cond += " OR vehicles.year = ?"
		args = append(args, year)
	}

	var vehicles []domain.Vehicle
	err := withDetails(r.db.WithContext(ctx).Model(&domain.Vehicle{})).
		Select("vehicles.*").
		Joins("JOIN brands b ON b.brand_id = vehicles.brand_id").
		Joins("JOIN vehicle_models m ON m.model_id = vehicles.model_id").
		Joins("JOIN vehicle_versions ver ON ver.version_id = vehicles.version_id").
		Where("("+cond+")", args...).
		Order("vehicles.year DESC").
		Order("b.name ASC").
		Order("m.description ASC").
		Order("vehicles.vehicle_id ASC").
		Limit(limit).
		Find(&vehicles).Error
	if err != nil {
		return nil, fmt.Errorf("search vehicles: %w", err)
	}
	return vehicles, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

type modelRow struct {
	ModelID      uint
	BrandID      uint
	Description  string
	VehicleCount int64
}

// Models lists vehicle models ordered by name with their vehicle counts. A
// non-zero brandID restricts the list to that brand.
func (r *VehicleRepo) Models(ctx context.Context, brandID uint) ([]domain.VehicleModel, error) {
	q := r.db.WithContext(ctx).Model(&domain.VehicleModel{}).
		Select("vehicle_models.model_id, vehicle_models.brand_id, vehicle_models.description, COUNT(vehicles.vehicle_id) AS vehicle_count").
		Joins("LEFT JOIN vehicles ON vehicles.model_id = vehicle_models.model_id")
	if brandID != 0 {
		q = q.Where("vehicle_models.brand_id = ?", brandID)
	}
	var rows []modelRow
	err := q.Group("vehicle_models.model_id, vehicle_models.brand_id, vehicle_models.description").
		Order("vehicle_models.description ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	models := make([]domain.VehicleModel, len(rows))
	for i, row := range rows {
		models[i] = domain.VehicleModel{ModelID: row.ModelID, BrandID: row.BrandID, Description: row.Description, VehicleCount: row.VehicleCount}
	}
	return models, nil
}

type versionRow struct {
	VersionID    uint
	ModelID      uint
	Description  string
	VehicleCount int64
}

// Versions lists versions ordered by name with their vehicle counts. A non-zero
// modelID restricts the list to that model.
func (r *VehicleRepo) Versions(ctx context.Context, modelID uint) ([]domain.Version, error) {
	q := r.db.WithContext(ctx).Model(&domain.Version{}).
		Select("vehicle_versions.version_id, vehicle_versions.model_id, vehicle_versions.description, COUNT(vehicles.vehicle_id) AS vehicle_count").
		Joins("LEFT JOIN vehicles ON vehicles.version_id = vehicle_versions.version_id")
	if modelID != 0 {
		q = q.Where("vehicle_versions.model_id = ?", modelID)
	}
	var rows []versionRow
	err := q.Group("vehicle_versions.version_id, vehicle_versions.model_id, vehicle_versions.description").
		Order("vehicle_versions.description ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	versions := make([]domain.Version, len(rows))
	for i, row := range rows {
		versions[i] = domain.Version{VersionID: row.VersionID, ModelID: row.ModelID, Description: row.Description, VehicleCount: row.VehicleCount}
	}
	return versions, nil
}

func (r *VehicleRepo) BrandExists(ctx context.Context, brandID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Brand{}).Where("brand_id = ?", brandID).Count(&n).Error
	return n > 0, err
}

func (r *VehicleRepo) CategoryExists(ctx context.Context, categoryID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Category{}).Where("category_id = ?", categoryID).Count(&n).Error
	return n > 0, err
}

func (r *VehicleRepo) Categories(ctx context.Context) ([]domain.Category, error) {
	var cats []domain.Category
	if err := r.db.WithContext(ctx).Order("description ASC").Find(&cats).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

func applyFilter(q *gorm.DB, f domain.VehicleFilter) *gorm.DB {
	if f.BrandID != 0 {
		q = q.Where("vehicles.brand_id = ?", f.BrandID)
	}
	if f.CategoryID != 0 {
		q = q.Where("vehicles.category_id = ?", f.CategoryID)
	}
	if f.YearMin != 0 {
		q = q.Where("vehicles.year >= ?", f.YearMin)
	}
	if f.YearMax != 0 {
		q = q.Where("vehicles.year <= ?", f.YearMax)
	}
	if f.PriceMin != 0 {
		q = q.Where("vehicles.price >= ?", f.PriceMin)
	}
	if f.PriceMax != 0 {
		q = q.Where("vehicles.price <= ?", f.PriceMax)
	}
	return applySpecs(q, f.SpecFilter)
}

func applySpecs(q *gorm.DB, f domain.SpecFilter) *gorm.DB {
	between := func(col string, min, max int) {
		if min != 0 {
			q = q.Where("vehicles."+col+" >= ?", min)
		}
		if max != 0 {
			q = q.Where("vehicles."+col+" <= ?", max)
		}
	}
	between("power_hp", f.PowerHPMin, f.PowerHPMax)
	between("displacement_cc", f.DisplacementCCMin, f.DisplacementCCMax)
	between("max_speed_kmh", f.MaxSpeedKMHMin, f.MaxSpeedKMHMax)
	between("weight_kg", f.WeightKGMin, f.WeightKGMax)
	between("ground_clearance_mm", f.GroundClearanceMin, f.GroundClearanceMax)
	between("fuel_tank_capacity_l", f.FuelTankCapacityMin, f.FuelTankCapacityMax)
	between("safety_rating", f.SafetyRatingMin, 0)
	if f.FuelType != "" {
		q = q.Where("vehicles.fuel_type = ?", f.FuelType)
	}
	if f.Passengers != 0 {
		q = q.Where("vehicles.passengers = ?", f.Passengers)
	}
	if f.DriveType != "" {
		q = q.Where("vehicles.drive_type = ?", f.DriveType)
	}
	if f.Transmission != "" {
		q = q.Where(`LOWER(vehicles.transmission) LIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(strings.ToLower(f.Transmission))+"%")
	}
	return q
}

func withDetails(q *gorm.DB) *gorm.DB {
	return q.Preload("Brand").Preload("Model").Preload("Version").Preload("Category")
}
