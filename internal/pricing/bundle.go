package pricing

import "agency-hub/internal/model"

// FindBundle returns the supported bundle sized exactly for quantity.
func FindBundle(product *model.Product, quantity int) (model.Bundle, bool) {
	if product == nil {
		return model.Bundle{}, false
	}
	for _, bundle := range product.SupportedBundles {
		if bundle.Quantity == quantity {
			return bundle, true
		}
	}
	return model.Bundle{}, false
}

// GetDailyPrice returns the per day price in cents used for commission proration.
func GetDailyPrice(product *model.Product, quantity int) int64 {
	if product == nil {
		return 0
	}
	if bundle, ok := FindBundle(product, quantity); ok {
		return bundle.PricePerUnit
	}
	if quantity != 1 {
		return 0
	}
	return product.PricePerUnit
}

// GetBundlePrice is the total list price of quantity units, using the bundle price when one matches.
func GetBundlePrice(product *model.Product, quantity int, term model.TermPricing) int64 {
	if product == nil || quantity <= 0 {
		return 0
	}
	if bundle, ok := FindBundle(product, quantity); ok {
		if term == model.TermYearly {
			return bundle.YearlyAmount
		}
		return bundle.Amount
	}
	return TermAmount(product, term) * int64(quantity)
}

// Variant is the purchasable product id and its price for a quantity and term.
// Both come from the same bundle/term lookup and must not be mixed across lookups.
type Variant struct {
	ProductID int64             `json:"product_id"`
	Amount    int64             `json:"amount"`
	Term      model.TermPricing `json:"term"`
	Bundled   bool              `json:"bundled"`
}

// ResolveVariant picks the product id and price together from quantity and term.
// A missing yearly variant falls back to the monthly one, id and price alike.
func ResolveVariant(product *model.Product, quantity int, term model.TermPricing) Variant {
	if product == nil || quantity <= 0 {
		return Variant{}
	}

	if bundle, ok := FindBundle(product, quantity); ok {
		if term == model.TermYearly && bundle.YearlyProductID != 0 {
			return Variant{ProductID: bundle.YearlyProductID, Amount: bundle.YearlyAmount, Term: model.TermYearly, Bundled: true}
		}
		id := bundle.ProductID
		if id == 0 {
			id = product.ProductID
		}
		return Variant{ProductID: id, Amount: bundle.Amount, Term: model.TermMonthly, Bundled: true}
	}

	if term == model.TermYearly && product.YearlyProductID != 0 {
		return Variant{ProductID: product.YearlyProductID, Amount: product.YearlyAmount * int64(quantity), Term: model.TermYearly}
	}
	return Variant{ProductID: product.ProductID, Amount: product.Amount * int64(quantity), Term: model.TermMonthly}
}
