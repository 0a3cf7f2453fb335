package repository

import (
	"agency-hub/internal/model"
	"context"
	"time"

	"gorm.io/gorm"
)

type SupportInteractionRepository interface {
	Create(ctx context.Context, interaction *model.SupportInteraction) error
	Get(ctx context.Context, id string) (*model.SupportInteraction, error)
	UpdateStatus(ctx context.Context, id string, status model.InteractionStatus) error
	AddEvent(ctx context.Context, id string, event model.InteractionEvent) error
}

type supportInteractionRepoImpl struct {
	db *gorm.DB
}

func NewSupportInteractionRepository(db *gorm.DB) SupportInteractionRepository {
	return &supportInteractionRepoImpl{
		db: db,
	}
}

func (r *supportInteractionRepoImpl) Create(ctx context.Context, interaction *model.SupportInteraction) error {
	return r.db.WithContext(ctx).Create(interaction).Error
}

func (r *supportInteractionRepoImpl) Get(ctx context.Context, id string) (*model.SupportInteraction, error) {
	var interaction model.SupportInteraction
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&interaction).Error

	if err != nil {
		return nil, err
	}

	return &interaction, nil
}

func (r *supportInteractionRepoImpl) UpdateStatus(ctx context.Context, id string, status model.InteractionStatus) error {
	result := r.db.
		WithContext(ctx).
		Model(&model.SupportInteraction{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// AddEvent appends to the serialized event list inside a transaction.
func (r *supportInteractionRepoImpl) AddEvent(ctx context.Context, id string, event model.InteractionEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var interaction model.SupportInteraction
		if err := tx.Where("id = ?", id).First(&interaction).Error; err != nil {
			return err
		}

		interaction.Events = append(interaction.Events, event)
		return tx.Model(&interaction).
			Select("events", "updated_at").
			Updates(&model.SupportInteraction{Events: interaction.Events, UpdatedAt: time.Now()}).Error
	})
}
