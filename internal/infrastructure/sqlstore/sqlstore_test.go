package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vehicle-market-api/internal/domain"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open("sqlite", ":memory:")
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, Migrate(db))
	return db
}

type fixture struct {
	toyota, honda domain.Brand
	sedan, suv    domain.Category
	corolla       domain.Vehicle // toyota sedan 2020, 20000
	rav4          domain.Vehicle // toyota suv 2022, 35000
	civic         domain.Vehicle // honda sedan 2021, 25000
}

func seed(t *testing.T, db *gorm.DB) fixture {
	t.Helper()
	f := fixture{
		toyota: domain.Brand{Name: "Toyota"},
		honda:  domain.Brand{Name: "Honda"},
		sedan:  domain.Category{Description: "Sedan"},
		suv:    domain.Category{Description: "SUV"},
	}
	require.NoError(t, db.Create(&f.toyota).Error)
	require.NoError(t, db.Create(&f.honda).Error)
	require.NoError(t, db.Create(&f.sedan).Error)
	require.NoError(t, db.Create(&f.suv).Error)

	mk := func(b domain.Brand, c domain.Category, model string, year int, price int64) domain.Vehicle {
		m := domain.VehicleModel{BrandID: b.BrandID, Description: model}
		require.NoError(t, db.Create(&m).Error)
		v := domain.Version{ModelID: m.ModelID, Description: "Base"}
		require.NoError(t, db.Create(&v).Error)
		veh := domain.Vehicle{
			BrandID: b.BrandID, ModelID: m.ModelID, VersionID: v.VersionID, CategoryID: c.CategoryID,
			Year: year, Price: price,
		}
		require.NoError(t, db.Omit("Brand", "Model", "Version", "Category").Create(&veh).Error)
		return veh
	}
	f.corolla = mk(f.toyota, f.sedan, "Corolla", 2020, 20000)
	f.rav4 = mk(f.toyota, f.suv, "RAV4", 2022, 35000)
	f.civic = mk(f.honda, f.sedan, "Civic", 2021, 25000)
	return f
}

func createUser(t *testing.T, repo *UserRepo, email string) *domain.User {
	t.Helper()
	u := &domain.User{Email: email, Name: "Test User", FirebaseUID: domain.LocalSubject(email)}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func ptr[T any](v T) *T { return &v }

var day = 24 * time.Hour
