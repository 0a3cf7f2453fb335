package repository

import (
	"agency-hub/internal/model"
	"context"
	"errors"

	"gorm.io/gorm"
)

type ChatMessageRepository interface {
	Append(ctx context.Context, msg *model.ChatMessage) error
	ListByChat(ctx context.Context, chatID string) ([]*model.ChatMessage, error)
}

type chatMessageRepoImpl struct {
	db *gorm.DB
}

func NewChatMessageRepository(db *gorm.DB) ChatMessageRepository {
	return &chatMessageRepoImpl{
		db: db,
	}
}

// Append stores msg. A stored message with the same chat and internal id is
// replaced in place, so a confirmed echo does not add a second row.
func (r *chatMessageRepoImpl) Append(ctx context.Context, msg *model.ChatMessage) error {
	if msg.InternalMessageID == "" {
		return r.db.WithContext(ctx).Create(msg).Error
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.ChatMessage
		err := tx.Where("chat_id = ? AND internal_message_id = ?", msg.ChatID, msg.InternalMessageID).
			First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(msg).Error
		}
		if err != nil {
			return err
		}

		msg.ID = existing.ID
		if msg.CreatedAt.IsZero() {
			msg.CreatedAt = existing.CreatedAt
		}
		return tx.Save(msg).Error
	})
}

func (r *chatMessageRepoImpl) ListByChat(ctx context.Context, chatID string) ([]*model.ChatMessage, error) {
	var msgs []*model.ChatMessage
	err := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("id").
		Find(&msgs).Error

	if err != nil {
		return nil, err
	}

	return msgs, nil
}
