package repository

import (
	"agency-hub/internal/model"
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PreferenceRepository interface {
	GetTermPricing(ctx context.Context, userID string) (model.TermPricing, error)
	SetTermPricing(ctx context.Context, userID string, term model.TermPricing) error
}

type preferenceRepoImpl struct {
	db *gorm.DB
}

func NewPreferenceRepository(db *gorm.DB) PreferenceRepository {
	return &preferenceRepoImpl{
		db: db,
	}
}

// GetTermPricing falls back to monthly for users that never picked a term.
func (r *preferenceRepoImpl) GetTermPricing(ctx context.Context, userID string) (model.TermPricing, error) {
	var pref model.UserPreference
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&pref).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.TermMonthly, nil
		}
		return "", err
	}

	return pref.TermPricing, nil
}

func (r *preferenceRepoImpl) SetTermPricing(ctx context.Context, userID string, term model.TermPricing) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"term_pricing": term,
			"updated_at":   time.Now(),
		}),
	}).Create(&model.UserPreference{
		UserID:      userID,
		TermPricing: term,
	}).Error
}
