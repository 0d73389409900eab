// Package sqlstore persists accounts and the vehicle catalog in a relational
// database through gorm. PostgreSQL is used in production, SQLite in development
// and tests.
package sqlstore

import (
	"errors"
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/vehicle-market-api/internal/domain"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DialectorOpener returns a gorm.Dialector for a DSN.
type DialectorOpener = func(string) gorm.Dialector

var dialectors = map[string]DialectorOpener{
	"sqlite":   sqlite.Open,
	"postgres": postgres.Open,
}

// Open connects to the database identified by driver ("postgres" | "sqlite") and dsn.
func Open(driver, dsn string) (*gorm.DB, error) {
	opener, ok := dialectors[driver]
	if !ok {
		return nil, fmt.Errorf("sqlstore: unknown driver %q", driver)
	}
	db, err := gorm.Open(opener(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %s: %w", driver, err)
	}
	return db, nil
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.Brand{},
		&domain.VehicleModel{},
		&domain.Version{},
		&domain.Category{},
		&domain.Vehicle{},
		&domain.Opinion{},
		&domain.Favorite{},
		&domain.UserComparison{},
		&domain.ComparisonItem{},
		&domain.UserPreference{},
	)
}

// translate maps gorm errors onto domain sentinels.
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s not found: %w", what, domain.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s already exists: %w", what, domain.ErrConflict)
	default:
		return err
	}
}
