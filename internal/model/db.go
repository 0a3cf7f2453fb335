package model

import "time"

type TermPricing string

const (
	TermMonthly TermPricing = "monthly"
	TermYearly  TermPricing = "yearly"
)

func (t TermPricing) Valid() bool {
	return t == TermMonthly || t == TermYearly
}

type PriceTier struct {
	Units int   `json:"units" yaml:"units"`
	Price int64 `json:"price" yaml:"price"` // per unit, cents
}

type Bundle struct {
	Quantity        int   `json:"quantity" yaml:"quantity"`
	Amount          int64 `json:"amount" yaml:"amount"` // whole bundle, monthly, cents
	YearlyAmount    int64 `json:"yearly_amount" yaml:"yearly_amount"`
	ProductID       int64 `json:"product_id" yaml:"product_id"`
	YearlyProductID int64 `json:"yearly_product_id" yaml:"yearly_product_id"`
	PricePerUnit    int64 `json:"price_per_unit" yaml:"price_per_unit"` // cents per day
}

type Product struct {
	ProductID       int64  `gorm:"primaryKey;autoIncrement:false" json:"product_id" yaml:"product_id"`
	Slug            string `gorm:"size:128;uniqueIndex;not null" json:"slug" yaml:"slug"`
	FamilySlug      string `gorm:"size:128;index;not null" json:"family_slug" yaml:"family_slug"`
	Name            string `gorm:"size:255" json:"name" yaml:"name"`
	Currency        string `gorm:"size:8;not null" json:"currency" yaml:"currency"`
	Amount          int64  `gorm:"not null" json:"amount" yaml:"amount"` // monthly, per unit, cents
	YearlyAmount    int64  `json:"yearly_amount" yaml:"yearly_amount"`
	YearlyProductID int64  `json:"yearly_product_id" yaml:"yearly_product_id"`
	PricePerUnit    int64  `json:"price_per_unit" yaml:"price_per_unit"` // cents per day

	TierMonthlyPrices []PriceTier `gorm:"serializer:json" json:"tier_monthly_prices,omitempty" yaml:"tier_monthly_prices"`
	TierYearlyPrices  []PriceTier `gorm:"serializer:json" json:"tier_yearly_prices,omitempty" yaml:"tier_yearly_prices"`
	SupportedBundles  []Bundle    `gorm:"serializer:json" json:"supported_bundles,omitempty" yaml:"supported_bundles"`
}

type MarketplaceMode string

const (
	MarketplaceRegular  MarketplaceMode = "regular"
	MarketplaceReferral MarketplaceMode = "referral"
)

func (m MarketplaceMode) Valid() bool {
	return m == MarketplaceRegular || m == MarketplaceReferral
}

// CartSession keeps the serialized cart of one browser session per marketplace mode.
type CartSession struct {
	SessionID string          `gorm:"primaryKey;size:64;not null"`
	Mode      MarketplaceMode `gorm:"primaryKey;size:16;not null"`
	Items     string          `gorm:"type:text"`
	UpdatedAt time.Time
}

type UserPreference struct {
	UserID      string      `gorm:"primaryKey;size:64;not null"`
	TermPricing TermPricing `gorm:"size:16;not null"`
	UpdatedAt   time.Time
}

type Order struct {
	OrderID   string          `gorm:"primaryKey;size:64;not null"` // gateway transaction id
	Status    string          `gorm:"size:32;index;not null"`      // PAID, FAILED
	UserID    string          `gorm:"size:64;index"`
	Mode      MarketplaceMode `gorm:"size:16"`
	Term      TermPricing     `gorm:"size:16"`
	Amount    int64           `gorm:"not null"` // total amount (sum of items), cents
	Currency  string          `gorm:"size:8;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type OrderItem struct {
	ID uint `gorm:"primaryKey"`
	// FK → order.order_id
	OrderID string `gorm:"size:64;index;not null"`
	// FK → product.product_id of the resolved variant
	ProductID int64    `gorm:"index;not null"`
	Slug      string   `gorm:"size:128;not null"`
	Quantity  int32    `gorm:"not null"`
	Amount    int64    `gorm:"not null"`
	LicenseID string   `gorm:"size:64"`
	SiteURLs  []string `gorm:"serializer:json"`

	CreatedAt time.Time
}

// WebhookEvent remembers live chat webhook deliveries already applied.
type WebhookEvent struct {
	EventID     string `gorm:"primaryKey;size:128;uniqueIndex;not null"`
	EventType   string `gorm:"size:64;index"`
	ProcessedAt time.Time
	CreatedAt   time.Time
}
