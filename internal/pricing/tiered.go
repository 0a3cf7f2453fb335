package pricing

import (
	"math"

	"agency-hub/internal/model"
)

// TieredPrice is the result of applying a volume tier to a list price. Costs are in cents.
type TieredPrice struct {
	ActualCost         int64 `json:"actual_cost"`
	DiscountedCost     int64 `json:"discounted_cost"`
	DiscountPercentage int   `json:"discount_percentage"`
}

// CalculateDiscountPercentage returns the whole percentage saved going from original to discounted.
func CalculateDiscountPercentage(original, discounted float64) int {
	if original <= 0 {
		return 0
	}
	return int(math.Round((original - discounted) / original * 100))
}

// TermAmount is the per unit list price for the given term.
func TermAmount(product *model.Product, term model.TermPricing) int64 {
	if product == nil {
		return 0
	}
	if term == model.TermYearly {
		return product.YearlyAmount
	}
	return product.Amount
}

func termTiers(product *model.Product, term model.TermPricing) []model.PriceTier {
	if term == model.TermYearly {
		return product.TierYearlyPrices
	}
	return product.TierMonthlyPrices
}

// selectTier picks the tier for the given unit count. An exact units match wins,
// otherwise the largest tier whose units do not exceed the count.
func selectTier(tiers []model.PriceTier, units int) (model.PriceTier, bool) {
	var (
		best  model.PriceTier
		found bool
	)
	for _, tier := range tiers {
		if tier.Units == units {
			return tier, true
		}
		if tier.Units <= units && (!found || tier.Units > best.Units) {
			best = tier
			found = true
		}
	}
	return best, found
}

// GetTieredPrice prices quantity units of product for a buyer that already owns
// ownedPlans units. Owned plans count towards the tier breakpoint but are not charged.
// The discount percentage is derived from unit prices so it does not drift with quantity.
func GetTieredPrice(product *model.Product, quantity int, term model.TermPricing, ownedPlans int) TieredPrice {
	if product == nil || quantity <= 0 {
		return TieredPrice{}
	}

	unitPrice := TermAmount(product, term)
	actual := unitPrice * int64(quantity)

	tier, ok := selectTier(termTiers(product, term), quantity+ownedPlans)
	if !ok {
		return TieredPrice{ActualCost: actual, DiscountedCost: actual}
	}

	tierPrice := min(tier.Price, unitPrice)

	return TieredPrice{
		ActualCost:         actual,
		DiscountedCost:     tierPrice * int64(quantity),
		DiscountPercentage: CalculateDiscountPercentage(float64(unitPrice), float64(tierPrice)),
	}
}
