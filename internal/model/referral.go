package model

import "time"

type PurchaseStatus string

const (
	PurchasePending  PurchaseStatus = "pending"
	PurchaseActive   PurchaseStatus = "active"
	PurchaseCanceled PurchaseStatus = "canceled"
	PurchaseError    PurchaseStatus = "error"
	PurchaseArchived PurchaseStatus = "archived"
)

func (s PurchaseStatus) Valid() bool {
	switch s {
	case PurchasePending, PurchaseActive, PurchaseCanceled, PurchaseError, PurchaseArchived:
		return true
	}
	return false
}

type Referral struct {
	ID          string     `gorm:"primaryKey;size:64;not null" json:"id"`
	AgencyID    string     `gorm:"size:64;index;not null" json:"agency_id"`
	ClientEmail string     `gorm:"size:255" json:"client_email"`
	Purchases   []Purchase `gorm:"foreignKey:ReferralID" json:"purchases"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// License is the issued product license behind a purchase.
type License struct {
	Key       string     `gorm:"size:128" json:"license_key"`
	IssuedAt  time.Time  `json:"issued_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
}

// Commissions are precomputed by the billing backend, in dollars.
type Commissions struct {
	CurrentQuarter  float64 `json:"current_quarter"`
	PreviousQuarter float64 `json:"previous_quarter"`
}

type Purchase struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	ReferralID  string         `gorm:"size:64;index;not null" json:"-"`
	ProductID   int64          `gorm:"index;not null" json:"product_id"`
	Quantity    int            `gorm:"not null;default:1" json:"quantity"`
	Status      PurchaseStatus `gorm:"size:16;index;not null" json:"status"`
	SiteURL     string         `gorm:"size:255" json:"site_url,omitempty"`
	License     License        `gorm:"embedded;embeddedPrefix:license_" json:"license"`
	Commissions *Commissions   `gorm:"serializer:json" json:"commissions,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// PurchaseStatuses lists the status of every purchase in order.
func (r *Referral) PurchaseStatuses() []PurchaseStatus {
	statuses := make([]PurchaseStatus, 0, len(r.Purchases))
	for _, p := range r.Purchases {
		statuses = append(statuses, p.Status)
	}
	return statuses
}

// ReferralStatuses is the distinct set of purchase statuses, first seen first.
// More than one entry means the referral is rendered with a mixed status badge.
func (r *Referral) ReferralStatuses() []PurchaseStatus {
	seen := make(map[PurchaseStatus]struct{}, len(r.Purchases))
	statuses := make([]PurchaseStatus, 0, len(r.Purchases))
	for _, p := range r.Purchases {
		if _, ok := seen[p.Status]; ok {
			continue
		}
		seen[p.Status] = struct{}{}
		statuses = append(statuses, p.Status)
	}
	return statuses
}
