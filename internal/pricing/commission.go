package pricing

import (
	"math"
	"slices"
	"strings"
	"time"

	"agency-hub/internal/config"
	"agency-hub/internal/model"

	"github.com/shopspring/decimal"
)

// third-party extensions sold through the marketplace that pay no commission
var defaultExcludedWooProducts = []string{
	"woocommerce-woopayments",
	"woocommerce-klaviyo",
	"woocommerce-avalara",
	"woocommerce-mailchimp",
	"woocommerce-paypal-payments",
	"woocommerce-stripe",
}

type CommissionRules struct {
	HostingFamilies   []string
	ExcludedProducts  []string
	HostingPercentage float64
	ProductPercentage float64
}

func DefaultCommissionRules() CommissionRules {
	return CommissionRules{
		HostingFamilies:   []string{"wpcom-hosting", "pressable-hosting"},
		ExcludedProducts:  slices.Clone(defaultExcludedWooProducts),
		HostingPercentage: 0.2,
		ProductPercentage: 0.5,
	}
}

func NewCommissionRules(cfg config.Commission) CommissionRules {
	rules := CommissionRules{
		HostingFamilies:   cfg.HostingFamilies,
		ExcludedProducts:  slices.Clone(cfg.ExcludedWooProducts),
		HostingPercentage: cfg.HostingPercentage,
		ProductPercentage: cfg.ProductPercentage,
	}
	if cfg.UseDefaultWooDenylist {
		rules.ExcludedProducts = append(rules.ExcludedProducts, defaultExcludedWooProducts...)
	}
	return rules
}

// Percentage returns the commission share (0..1) an agency earns on product.
func (r CommissionRules) Percentage(product *model.Product) float64 {
	if product == nil {
		return 0
	}
	if slices.Contains(r.HostingFamilies, product.FamilySlug) {
		return r.HostingPercentage
	}
	if slices.Contains(r.ExcludedProducts, product.Slug) || slices.Contains(r.ExcludedProducts, product.FamilySlug) {
		return 0
	}
	if strings.HasPrefix(product.FamilySlug, "jetpack-") || strings.HasPrefix(product.FamilySlug, "woocommerce-") {
		return r.ProductPercentage
	}
	return 0
}

// ActivityWindow is the inclusive date range commission is prorated over.
type ActivityWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

const day = 24 * time.Hour

// activeDays counts the whole days the license was live inside the window, inclusive of the first day.
func activeDays(license model.License, window ActivityWindow) int64 {
	start := license.IssuedAt
	if start.Before(window.Start) {
		start = window.Start
	}
	end := window.End
	if license.RevokedAt != nil && license.RevokedAt.Before(end) {
		end = *license.RevokedAt
	}
	return int64(math.Floor(float64(end.Sub(start))/float64(day))) + 1
}

// GetEstimatedCommission sums the commission the referrals are expected to pay out in dollars.
// Purchases carrying backend commissions contribute those amounts directly. The rest are
// prorated per active day in the window from the product daily price.
func GetEstimatedCommission(
	referrals []model.Referral,
	products []model.Product,
	window ActivityWindow,
	usePreviousQuarter bool,
	rules CommissionRules,
) float64 {
	byID := make(map[int64]*model.Product, len(products))
	for i := range products {
		byID[products[i].ProductID] = &products[i]
	}

	apiDollars := decimal.Zero
	legacyCents := decimal.Zero

	for _, referral := range referrals {
		for _, purchase := range referral.Purchases {
			if purchase.Status == model.PurchasePending || purchase.Status == model.PurchaseError {
				continue
			}

			if purchase.Commissions != nil {
				amount := purchase.Commissions.CurrentQuarter
				if usePreviousQuarter {
					amount = purchase.Commissions.PreviousQuarter
				}
				apiDollars = apiDollars.Add(decimal.NewFromFloat(amount))
				continue
			}

			product, ok := byID[purchase.ProductID]
			if !ok {
				continue
			}

			// no issued license, nothing to prorate
			if purchase.License.IssuedAt.IsZero() {
				continue
			}

			days := activeDays(purchase.License, window)
			if days < 1 {
				continue
			}

			legacyCents = legacyCents.Add(
				decimal.NewFromInt(GetDailyPrice(product, purchase.Quantity)).
					Mul(decimal.NewFromInt(days)).
					Mul(decimal.NewFromFloat(rules.Percentage(product))),
			)
		}
	}

	total := apiDollars.Add(legacyCents.Div(decimal.NewFromInt(100)))
	return total.Round(2).InexactFloat64()
}
