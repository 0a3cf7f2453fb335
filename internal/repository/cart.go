package repository

import (
	"agency-hub/internal/model"
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartRepository interface {
	Get(ctx context.Context, sessionID string, mode model.MarketplaceMode) (string, error)
	Save(ctx context.Context, sessionID string, mode model.MarketplaceMode, items string) error
	Delete(ctx context.Context, tx *gorm.DB, sessionID string, mode model.MarketplaceMode) error
}

type cartRepoImpl struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepoImpl{
		db: db,
	}
}

// Get returns the serialized cart, or an empty string when the session has none.
func (r *cartRepoImpl) Get(ctx context.Context, sessionID string, mode model.MarketplaceMode) (string, error) {
	var session model.CartSession
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND mode = ?", sessionID, mode).
		First(&session).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}

	return session.Items, nil
}

func (r *cartRepoImpl) Save(ctx context.Context, sessionID string, mode model.MarketplaceMode, items string) error {
	session := &model.CartSession{
		SessionID: sessionID,
		Mode:      mode,
		Items:     items,
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "session_id"}, {Name: "mode"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"items":      items,
			"updated_at": time.Now(),
		}),
	}).Create(session).Error
}

func (r *cartRepoImpl) Delete(ctx context.Context, tx *gorm.DB, sessionID string, mode model.MarketplaceMode) error {
	if tx == nil {
		tx = r.db
	}

	return tx.WithContext(ctx).
		Where("session_id = ? AND mode = ?", sessionID, mode).
		Delete(&model.CartSession{}).Error
}
