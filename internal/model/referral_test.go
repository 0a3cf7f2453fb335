package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReferralStatuses(t *testing.T) {
	r := &Referral{Purchases: []Purchase{
		{Status: PurchaseActive},
		{Status: PurchasePending},
		{Status: PurchaseActive},
		{Status: PurchaseCanceled},
	}}

	assert.Equal(t, []PurchaseStatus{PurchaseActive, PurchasePending, PurchaseActive, PurchaseCanceled}, r.PurchaseStatuses())
	assert.Equal(t, []PurchaseStatus{PurchaseActive, PurchasePending, PurchaseCanceled}, r.ReferralStatuses())

	empty := &Referral{}
	assert.Empty(t, empty.ReferralStatuses())
}

func TestEnumsValid(t *testing.T) {
	assert.True(t, TermYearly.Valid())
	assert.False(t, TermPricing("weekly").Valid())
	assert.True(t, MarketplaceReferral.Valid())
	assert.False(t, MarketplaceMode("").Valid())
	assert.True(t, PurchaseArchived.Valid())
	assert.False(t, PurchaseStatus("refunded").Valid())
	assert.True(t, InteractionSolved.Ended())
	assert.False(t, InteractionResolved.Ended())
}
