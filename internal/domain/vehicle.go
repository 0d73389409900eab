package domain

import "time"

type Brand struct {
	BrandID      uint   `json:"brandID" gorm:"column:brand_id;primaryKey;autoIncrement"`
	Name         string `json:"brand" gorm:"column:name;size:100;uniqueIndex;not null"`
	VehicleCount int64  `json:"vehicleCount" gorm:"-"`
}

func (Brand) TableName() string { return "brands" }

type VehicleModel struct {
	ModelID      uint   `json:"modelID" gorm:"column:model_id;primaryKey;autoIncrement"`
	BrandID      uint   `json:"brandID" gorm:"column:brand_id;index;not null"`
	Description  string `json:"description" gorm:"column:description;size:100;not null"`
	VehicleCount int64  `json:"vehicleCount,omitempty" gorm:"-"`
}

func (VehicleModel) TableName() string { return "vehicle_models" }

type Version struct {
	VersionID    uint   `json:"versionID" gorm:"column:version_id;primaryKey;autoIncrement"`
	ModelID      uint   `json:"modelID" gorm:"column:model_id;index;not null"`
	Description  string `json:"description" gorm:"column:description;size:100;not null"`
	VehicleCount int64  `json:"vehicleCount,omitempty" gorm:"-"`
}

func (Version) TableName() string { return "vehicle_versions" }

type Category struct {
	CategoryID  uint   `json:"categoryID" gorm:"column:category_id;primaryKey;autoIncrement"`
	Description string `json:"description" gorm:"column:description;size:100;not null"`
}

func (Category) TableName() string { return "vehicle_categories" }

type Vehicle struct {
	VehicleID  uint    `json:"vehicleID" gorm:"column:vehicle_id;primaryKey;autoIncrement"`
	BrandID    uint    `json:"-" gorm:"column:brand_id;index;not null"`
	ModelID    uint    `json:"-" gorm:"column:model_id;index;not null"`
	VersionID  uint    `json:"-" gorm:"column:version_id;index;not null"`
	CategoryID uint    `json:"-" gorm:"column:category_id;index;not null"`
	Year       int     `json:"year" gorm:"column:year;index;not null"`
	Price      int64   `json:"price" gorm:"column:price;index;not null"`
	ImageURL   *string `json:"imageURL" gorm:"column:image_url;size:512"`
	PDFURL     *string `json:"pdfURL" gorm:"column:pdf_url;size:512"`
	Specs      Specs   `json:"specs" gorm:"embedded"`

	// Popularity counts how often the vehicle was put in a saved comparison.
	Popularity int64 `json:"popularity" gorm:"column:popularity;not null;default:0;index"`

	Brand    Brand        `json:"brand" gorm:"foreignKey:BrandID;references:BrandID"`
	Model    VehicleModel `json:"model" gorm:"foreignKey:ModelID;references:ModelID"`
	Version  Version      `json:"version" gorm:"foreignKey:VersionID;references:VersionID"`
	Category Category     `json:"category" gorm:"foreignKey:CategoryID;references:CategoryID"`
}

func (Vehicle) TableName() string { return "vehicles" }

// Specs is the technical sheet of a vehicle. Every field is optional.
type Specs struct {
	PowerHP          *int     `json:"powerHP" gorm:"column:power_hp"`
	DisplacementCC   *int     `json:"displacementCC" gorm:"column:displacement_cc"`
	MaxSpeedKMH      *int     `json:"maxSpeedKMH" gorm:"column:max_speed_kmh"`
	FuelConsumption  *float64 `json:"fuelConsumption" gorm:"column:fuel_consumption"` // l/100km
	FuelType         *string  `json:"fuelType" gorm:"column:fuel_type;size:20;index"`
	WeightKG         *int     `json:"weightKG" gorm:"column:weight_kg"`
	Passengers       *int     `json:"passengers" gorm:"column:passengers"`
	GroundClearance  *int     `json:"groundClearanceMM" gorm:"column:ground_clearance_mm"`
	FuelTankCapacity *int     `json:"fuelTankCapacityL" gorm:"column:fuel_tank_capacity_l"`
	SafetyRating     *int     `json:"safetyRating" gorm:"column:safety_rating"`
	DriveType        *string  `json:"driveType" gorm:"column:drive_type;size:10"`
	Transmission     *string  `json:"transmission" gorm:"column:transmission;size:50"`
	Suspension       *string  `json:"suspension" gorm:"column:suspension;size:100"`
}

// Opinion is a user's rating of a vehicle. A user holds at most one opinion per vehicle.
type Opinion struct {
	OpinionID uint      `json:"opinionID" gorm:"column:opinion_id;primaryKey;autoIncrement"`
	VehicleID uint      `json:"vehicleID" gorm:"column:vehicle_id;uniqueIndex:idx_opinion_vehicle_user;not null"`
	UserID    uint      `json:"userId" gorm:"column:user_id;uniqueIndex:idx_opinion_vehicle_user;not null"`
	Rate      int       `json:"rate" gorm:"column:rate;not null"`
	Comment   *string   `json:"comment" gorm:"column:comment;size:255"`
	Date      time.Time `json:"date" gorm:"column:date;index"`

	Author *OpinionAuthor `json:"user,omitempty" gorm:"-"`
}

func (Opinion) TableName() string { return "vehicle_opinions" }

// OpinionAuthor is the public slice of a user shown next to an opinion.
type OpinionAuthor struct {
	UserID   uint    `json:"userId"`
	Name     string  `json:"name"`
	PhotoURL *string `json:"photoURL"`
}

type OpinionInput struct {
	Rate    int     `json:"rate" validate:"required,min=1,max=5"`
	Comment *string `json:"comment" validate:"omitempty,max=255"`
}

// Favorite links a user to a saved vehicle.
type Favorite struct {
	UserID    uint      `gorm:"column:user_id;primaryKey"`
	VehicleID uint      `gorm:"column:vehicle_id;primaryKey;index"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (Favorite) TableName() string { return "user_favorite_vehicles" }

// RatingSummary aggregates the opinions of one vehicle.
type RatingSummary struct {
	VehicleID uint
	Average   float64
	Count     int64
}

// VehicleFilter is the catalog search input. Zero values mean "no constraint".
// The embedded SpecFilter is only filled by the advanced search.
type VehicleFilter struct {
	BrandID    uint   `json:"brandID"`
	CategoryID uint   `json:"categoryID"`
	YearMin    int    `json:"yearMin" validate:"omitempty,min=1900,max=2100"`
	YearMax    int    `json:"yearMax" validate:"omitempty,min=1900,max=2100"`
	PriceMin   int64  `json:"priceMin" validate:"omitempty,min=0"`
	PriceMax   int64  `json:"priceMax" validate:"omitempty,min=0"`
	SortBy     string `json:"sortBy" validate:"omitempty,oneof=price year brand popularity power efficiency"`
	SortOrder  string `json:"sortOrder" validate:"omitempty,oneof=asc desc"`
	Page       int    `json:"page" validate:"omitempty,min=1"`
	Limit      int    `json:"limit" validate:"omitempty,min=1,max=100"`

	SpecFilter
}

// SpecFilter narrows the catalog by technical specifications. Vehicles with an
// unknown value for a constrained field never match.
type SpecFilter struct {
	PowerHPMin          int    `json:"powerHPMin" validate:"omitempty,min=0"`
	PowerHPMax          int    `json:"powerHPMax" validate:"omitempty,min=0"`
	DisplacementCCMin   int    `json:"displacementCCMin" validate:"omitempty,min=0"`
	DisplacementCCMax   int    `json:"displacementCCMax" validate:"omitempty,min=0"`
	MaxSpeedKMHMin      int    `json:"maxSpeedKMHMin" validate:"omitempty,min=0"`
	MaxSpeedKMHMax      int    `json:"maxSpeedKMHMax" validate:"omitempty,min=0"`
	WeightKGMin         int    `json:"weightKGMin" validate:"omitempty,min=0"`
	WeightKGMax         int    `json:"weightKGMax" validate:"omitempty,min=0"`
	GroundClearanceMin  int    `json:"groundClearanceMin" validate:"omitempty,min=0"`
	GroundClearanceMax  int    `json:"groundClearanceMax" validate:"omitempty,min=0"`
	FuelTankCapacityMin int    `json:"fuelTankCapacityMin" validate:"omitempty,min=0"`
	FuelTankCapacityMax int    `json:"fuelTankCapacityMax" validate:"omitempty,min=0"`
	FuelType            string `json:"fuelType" validate:"omitempty,oneof=Gasoline Diesel Electric Hybrid LPG Other"`
	Passengers          int    `json:"passengers" validate:"omitempty,min=1,max=9"`
	SafetyRatingMin     int    `json:"safetyRatingMin" validate:"omitempty,min=1,max=5"`
	DriveType           string `json:"driveType" validate:"omitempty,oneof=FWD RWD AWD 4WD"`
	Transmission        string `json:"transmission" validate:"omitempty,max=50"`
}

// Ranges pairs each min/max bound so callers can reject inverted windows.
func (f SpecFilter) Ranges() map[string][2]int {
	return map[string][2]int{
		"powerHP":          {f.PowerHPMin, f.PowerHPMax},
		"displacementCC":   {f.DisplacementCCMin, f.DisplacementCCMax},
		"maxSpeedKMH":      {f.MaxSpeedKMHMin, f.MaxSpeedKMHMax},
		"weightKG":         {f.WeightKGMin, f.WeightKGMax},
		"groundClearance":  {f.GroundClearanceMin, f.GroundClearanceMax},
		"fuelTankCapacity": {f.FuelTankCapacityMin, f.FuelTankCapacityMax},
	}
}

// UserComparison is a set of vehicles a user saved side by side.
type UserComparison struct {
	ComparisonID uint      `json:"comparisonID" gorm:"column:comparison_id;primaryKey;autoIncrement"`
	UserID       uint      `json:"userId" gorm:"column:user_id;index;not null"`
	CreatedAt    time.Time `json:"createdAt" gorm:"column:created_at"`

	Items    []ComparisonItem `json:"-" gorm:"foreignKey:ComparisonID;references:ComparisonID"`
	Vehicles []Vehicle        `json:"vehicles" gorm:"-"`
}

func (UserComparison) TableName() string { return "user_comparisons" }

// ComparisonItem places one vehicle in a comparison.
type ComparisonItem struct {
	ComparisonID uint    `gorm:"column:comparison_id;primaryKey"`
	VehicleID    uint    `gorm:"column:vehicle_id;primaryKey;index"`
	Position     int     `gorm:"column:position;not null"`
	Vehicle      Vehicle `gorm:"foreignKey:VehicleID;references:VehicleID"`
}

func (ComparisonItem) TableName() string { return "user_comparison_vehicles" }

type ComparisonInput struct {
	VehicleIDs []uint `json:"vehicleIds" validate:"required,min=1,max=10,dive,required"`
}

// UserPreference records a brand, category and budget the user is shopping for.
type UserPreference struct {
	PreferenceID uint  `json:"preferenceID" gorm:"column:preference_id;primaryKey;autoIncrement"`
	UserID       uint  `json:"userId" gorm:"column:user_id;index;not null"`
	BrandID      uint  `json:"brandID" gorm:"column:brand_id;not null"`
	CategoryID   uint  `json:"categoryID" gorm:"column:category_id;not null"`
	PriceMax     int64 `json:"priceMax" gorm:"column:price_max;not null"`

	Brand    Brand    `json:"brand" gorm:"foreignKey:BrandID;references:BrandID"`
	Category Category `json:"category" gorm:"foreignKey:CategoryID;references:CategoryID"`
}

func (UserPreference) TableName() string { return "user_preferences" }

type PreferenceInput struct {
	BrandID    uint  `json:"brandID" validate:"required"`
	CategoryID uint  `json:"categoryID" validate:"required"`
	PriceMax   int64 `json:"priceMax" validate:"required,min=1"`
}

// PreferencePatch changes only the fields that are set.
type PreferencePatch struct {
	BrandID    *uint  `json:"brandID" validate:"omitempty,min=1"`
	CategoryID *uint  `json:"categoryID" validate:"omitempty,min=1"`
	PriceMax   *int64 `json:"priceMax" validate:"omitempty,min=1"`
}
