package service

import (
	"context"
	"testing"

	"agency-hub/internal/client"
	"agency-hub/internal/model"
	"agency-hub/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, client.Migrate(db))
	return db
}

func testProducts() []model.Product {
	return []model.Product{
		{
			ProductID:       2001,
			Slug:            "jetpack-backup-t1",
			FamilySlug:      "jetpack-backup",
			Name:            "Jetpack VaultPress Backup",
			Currency:        "USD",
			Amount:          1000,
			YearlyAmount:    9000,
			YearlyProductID: 2002,
			PricePerUnit:    33,
			SupportedBundles: []model.Bundle{
				{Quantity: 5, Amount: 4000, YearlyAmount: 36000, ProductID: 2010, YearlyProductID: 2011, PricePerUnit: 130},
			},
		},
		{
			ProductID:    3001,
			Slug:         "wpcom-hosting-business",
			FamilySlug:   "wpcom-hosting",
			Name:         "WordPress.com Business",
			Currency:     "USD",
			Amount:       4000,
			PricePerUnit: 100,
			TierMonthlyPrices: []model.PriceTier{
				{Units: 1, Price: 4000},
				{Units: 5, Price: 3000},
			},
		},
	}
}

func seedProducts(t *testing.T, db *gorm.DB) repository.ProductRepository {
	t.Helper()
	repo := repository.NewProductRepository(db)
	require.NoError(t, repo.Seed(context.Background(), testProducts()))
	return repo
}

type fakeBraintree struct {
	charged []decimal.Decimal
	err     error
}

func (f *fakeBraintree) ChargeOneTime(ctx context.Context, nonce string, amount decimal.Decimal) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.charged = append(f.charged, amount)
	return "bt-tx-1", nil
}

var _ client.BraintreeClient = (*fakeBraintree)(nil)
