package dto

import (
	"time"

	"agency-hub/internal/cart"
	"agency-hub/internal/model"
)

type PriceResponse struct {
	Slug               string            `json:"slug"`
	Term               model.TermPricing `json:"term"`
	Quantity           int               `json:"quantity"`
	ProductID          int64             `json:"product_id"`
	Currency           string            `json:"currency"`
	ActualCost         int64             `json:"actual_cost"`
	DiscountedCost     int64             `json:"discounted_cost"`
	DiscountPercentage int               `json:"discount_percentage"`
}

type TermPricingRequest struct {
	Term model.TermPricing `json:"term"`
}

type TermPricingResponse struct {
	Term model.TermPricing `json:"term"`
}

type CartItemRequest struct {
	Slug      string   `json:"slug"`
	Quantity  int      `json:"quantity"`
	LicenseID string   `json:"license_id"`
	SiteURLs  []string `json:"site_urls"`
}

type UpdateCartItemRequest struct {
	Quantity  int    `json:"quantity"`
	LicenseID string `json:"license_id"`
}

type CartResponse struct {
	Mode  model.MarketplaceMode `json:"mode"`
	Items []cart.Item           `json:"items"`
}

type QuoteLine struct {
	Slug               string            `json:"slug"`
	ProductID          int64             `json:"product_id"`
	Quantity           int               `json:"quantity"`
	Term               model.TermPricing `json:"term"`
	Bundled            bool              `json:"bundled"`
	ActualCost         int64             `json:"actual_cost"`
	DiscountedCost     int64             `json:"discounted_cost"`
	DiscountPercentage int               `json:"discount_percentage"`
	LicenseID          string            `json:"license_id,omitempty"`
	SiteURLs           []string          `json:"site_urls,omitempty"`
}

type QuoteResponse struct {
	Mode     model.MarketplaceMode `json:"mode"`
	Term     model.TermPricing     `json:"term"`
	Currency string                `json:"currency"`
	Lines    []QuoteLine           `json:"lines"`
	Subtotal int64                 `json:"subtotal"`
	Total    int64                 `json:"total"`
}

type CheckoutRequest struct {
	PaymentNonce string `json:"payment_nonce"`
}

type CheckoutResponse struct {
	OrderID  string `json:"order_id"`
	Status   string `json:"status"`
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

type CreateReferralRequest struct {
	ClientEmail string `json:"client_email"`
}

type AddPurchaseRequest struct {
	ProductID   int64                `json:"product_id"`
	Quantity    int                  `json:"quantity"`
	Status      model.PurchaseStatus `json:"status"`
	SiteURL     string               `json:"site_url"`
	LicenseKey  string               `json:"license_key"`
	Commissions *model.Commissions   `json:"commissions"`
	// IssuedAt defaults to now when a license key is given.
	IssuedAt  *time.Time `json:"issued_at"`
	RevokedAt *time.Time `json:"revoked_at"`
}

type UpdatePurchaseRequest struct {
	Status    model.PurchaseStatus `json:"status"`
	RevokedAt *time.Time           `json:"revoked_at"`
}

type ReferralResponse struct {
	*model.Referral
	Statuses []model.PurchaseStatus `json:"statuses"`
}

type CommissionSummary struct {
	CurrentQuarter  float64 `json:"current_quarter"`
	PreviousQuarter float64 `json:"previous_quarter"`
}

type OpenChatRequest struct {
	// ChatID resumes a chat from its stored history; empty starts a new one.
	ChatID               string `json:"chat_id"`
	SupportInteractionID string `json:"support_interaction_id"`
}

type SendMessageRequest struct {
	ClientID string `json:"client_id"`
	Content  string `json:"content"`
}

// IncomingMessage is a live chat webhook delivery.
type IncomingMessage struct {
	EventID           string            `json:"event_id"`
	MessageID         string            `json:"message_id"`
	InternalMessageID string            `json:"internal_message_id"`
	Role              model.MessageRole `json:"role"`
	Type              model.MessageType `json:"type"`
	Content           string            `json:"content"`
}

type CreateInteractionRequest struct {
	Provider model.ChatProvider `json:"provider"`
}

type UpdateInteractionRequest struct {
	Status model.InteractionStatus `json:"status"`
}
