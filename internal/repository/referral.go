package repository

import (
	"agency-hub/internal/model"
	"context"

	"gorm.io/gorm"
)

type ReferralRepository interface {
	Create(ctx context.Context, referral *model.Referral) error
	Get(ctx context.Context, agencyID, referralID string) (*model.Referral, error)
	ListByAgency(ctx context.Context, agencyID string) ([]model.Referral, error)
	AddPurchase(ctx context.Context, purchase *model.Purchase) error
	SavePurchase(ctx context.Context, purchase *model.Purchase) error
}

type referralRepoImpl struct {
	db *gorm.DB
}

func NewReferralRepository(db *gorm.DB) ReferralRepository {
	return &referralRepoImpl{
		db: db,
	}
}

func (r *referralRepoImpl) Create(ctx context.Context, referral *model.Referral) error {
	return r.db.WithContext(ctx).Create(referral).Error
}

func (r *referralRepoImpl) Get(ctx context.Context, agencyID, referralID string) (*model.Referral, error) {
	var referral model.Referral
	err := r.db.WithContext(ctx).
		Preload("Purchases").
		Where("id = ? AND agency_id = ?", referralID, agencyID).
		First(&referral).Error

	if err != nil {
		return nil, err
	}

	return &referral, nil
}

func (r *referralRepoImpl) ListByAgency(ctx context.Context, agencyID string) ([]model.Referral, error) {
	var referrals []model.Referral
	err := r.db.WithContext(ctx).
		Preload("Purchases").
		Where("agency_id = ?", agencyID).
		Order("created_at DESC").
		Find(&referrals).Error

	if err != nil {
		return nil, err
	}

	return referrals, nil
}

func (r *referralRepoImpl) AddPurchase(ctx context.Context, purchase *model.Purchase) error {
	return r.db.WithContext(ctx).Create(purchase).Error
}

func (r *referralRepoImpl) SavePurchase(ctx context.Context, purchase *model.Purchase) error {
	return r.db.WithContext(ctx).Save(purchase).Error
}
