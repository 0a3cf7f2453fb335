package pricing

import (
	"testing"
	"time"

	"agency-hub/internal/config"
	"agency-hub/internal/model"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T {
	return &v
}

var q1Window = ActivityWindow{Start: date(2024, 1, 1), End: date(2024, 3, 31)}

func commissionProducts() []model.Product {
	return []model.Product{
		{ProductID: 1, Slug: "jetpack-backup-t1", FamilySlug: "jetpack-backup", PricePerUnit: 100},
		{ProductID: 2, Slug: "wpcom-hosting-business", FamilySlug: "wpcom-hosting", PricePerUnit: 1000},
		{ProductID: 3, Slug: "woocommerce-klaviyo", FamilySlug: "woocommerce-klaviyo", PricePerUnit: 100},
		{ProductID: 4, Slug: "akismet-business", FamilySlug: "akismet", PricePerUnit: 100},
	}
}

func TestCommissionRules_Percentage(t *testing.T) {
	rules := DefaultCommissionRules()

	tests := []struct {
		name    string
		product *model.Product
		want    float64
	}{
		{"hosting", &model.Product{Slug: "pressable-hosting-5", FamilySlug: "pressable-hosting"}, 0.2},
		{"jetpack", &model.Product{Slug: "jetpack-scan", FamilySlug: "jetpack-scan"}, 0.5},
		{"woocommerce", &model.Product{Slug: "woocommerce-subscriptions", FamilySlug: "woocommerce-subscriptions"}, 0.5},
		{"third party woo", &model.Product{Slug: "woocommerce-klaviyo", FamilySlug: "woocommerce-klaviyo"}, 0},
		{"other", &model.Product{Slug: "akismet-pro", FamilySlug: "akismet"}, 0},
		{"nil", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rules.Percentage(tt.product))
		})
	}
}

func TestNewCommissionRules(t *testing.T) {
	rules := NewCommissionRules(config.Commission{
		HostingFamilies:       []string{"vip-hosting"},
		ExcludedWooProducts:   []string{"woocommerce-foo"},
		HostingPercentage:     0.1,
		ProductPercentage:     0.4,
		UseDefaultWooDenylist: false,
	})

	assert.Equal(t, 0.1, rules.Percentage(&model.Product{FamilySlug: "vip-hosting"}))
	assert.Equal(t, 0.0, rules.Percentage(&model.Product{Slug: "woocommerce-foo", FamilySlug: "woocommerce-foo"}))
	assert.Equal(t, 0.4, rules.Percentage(&model.Product{Slug: "woocommerce-klaviyo", FamilySlug: "woocommerce-klaviyo"}))
}

func TestGetEstimatedCommission_LegacyProration(t *testing.T) {
	referrals := []model.Referral{{
		ID: "r1",
		Purchases: []model.Purchase{{
			ProductID: 1,
			Quantity:  1,
			Status:    model.PurchaseActive,
			License:   model.License{IssuedAt: date(2024, 3, 1)},
		}},
	}}

	// 31 days * 100 cents * 50%
	got := GetEstimatedCommission(referrals, commissionProducts(), q1Window, false, DefaultCommissionRules())
	assert.Equal(t, 15.5, got)
}

func TestGetEstimatedCommission_SkipsUnissuedLicense(t *testing.T) {
	referrals := []model.Referral{{
		Purchases: []model.Purchase{
			{ProductID: 1, Quantity: 1, Status: model.PurchaseActive},
			{ProductID: 2, Quantity: 1, Status: model.PurchaseCanceled},
		},
	}}

	got := GetEstimatedCommission(referrals, commissionProducts(), q1Window, false, DefaultCommissionRules())
	assert.Equal(t, 0.0, got)
}

func TestGetEstimatedCommission_PendingAndErrorOnly(t *testing.T) {
	referrals := []model.Referral{{
		Purchases: []model.Purchase{
			{ProductID: 1, Quantity: 1, Status: model.PurchasePending, License: model.License{IssuedAt: date(2024, 1, 1)}},
			{ProductID: 2, Quantity: 1, Status: model.PurchaseError, License: model.License{IssuedAt: date(2024, 1, 1)}},
			{ProductID: 1, Status: model.PurchasePending, Commissions: &model.Commissions{CurrentQuarter: 40}},
		},
	}}

	got := GetEstimatedCommission(referrals, commissionProducts(), q1Window, false, DefaultCommissionRules())
	assert.Equal(t, 0.0, got)
}

func TestGetEstimatedCommission_Mixed(t *testing.T) {
	referrals := []model.Referral{
		{
			Purchases: []model.Purchase{
				// api commissions, dollars
				{ProductID: 1, Status: model.PurchaseActive, Commissions: &model.Commissions{CurrentQuarter: 12.34, PreviousQuarter: 1}},
				// hosting revoked Jan 10: 10 days * 1000 * 20% = 2000 cents
				{ProductID: 2, Quantity: 1, Status: model.PurchaseCanceled, License: model.License{
					IssuedAt:  date(2023, 12, 1),
					RevokedAt: ptr(date(2024, 1, 10)),
				}},
			},
		},
		{
			Purchases: []model.Purchase{
				// revoked before the window
				{ProductID: 1, Quantity: 1, Status: model.PurchaseCanceled, License: model.License{
					IssuedAt:  date(2023, 10, 1),
					RevokedAt: ptr(date(2023, 12, 1)),
				}},
				// issued after the window
				{ProductID: 1, Quantity: 1, Status: model.PurchaseActive, License: model.License{IssuedAt: date(2024, 4, 2)}},
				// excluded third party product
				{ProductID: 3, Quantity: 1, Status: model.PurchaseActive, License: model.License{IssuedAt: date(2024, 1, 1)}},
				// unknown product
				{ProductID: 99, Quantity: 1, Status: model.PurchaseActive, License: model.License{IssuedAt: date(2024, 1, 1)}},
			},
		},
	}

	rules := DefaultCommissionRules()
	assert.Equal(t, 32.34, GetEstimatedCommission(referrals, commissionProducts(), q1Window, false, rules))
	assert.Equal(t, 21.0, GetEstimatedCommission(referrals, commissionProducts(), q1Window, true, rules))
}

func TestGetEstimatedCommission_RoundsToCents(t *testing.T) {
	referrals := []model.Referral{{
		Purchases: []model.Purchase{{
			ProductID: 1,
			Quantity:  1,
			Status:    model.PurchaseActive,
			License:   model.License{IssuedAt: date(2024, 3, 31)},
		}},
	}}
	products := []model.Product{{ProductID: 1, FamilySlug: "jetpack-backup", PricePerUnit: 3}}

	// 1 day * 3 cents * 50% = 1.5 cents
	got := GetEstimatedCommission(referrals, products, q1Window, false, DefaultCommissionRules())
	assert.Equal(t, 0.02, got)
}

func TestQuarterWindows(t *testing.T) {
	now := time.Date(2024, 5, 17, 13, 0, 0, 0, time.UTC)

	current := CurrentQuarterWindow(now)
	assert.Equal(t, date(2024, 4, 1), current.Start)
	assert.Equal(t, date(2024, 7, 1).Add(-time.Millisecond), current.End)

	previous := PreviousQuarterWindow(now)
	assert.Equal(t, date(2024, 1, 1), previous.Start)
	assert.Equal(t, date(2024, 4, 1).Add(-time.Millisecond), previous.End)

	january := PreviousQuarterWindow(date(2024, 1, 15))
	assert.Equal(t, date(2023, 10, 1), january.Start)
}
