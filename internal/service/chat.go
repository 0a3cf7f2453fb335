package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"agency-hub/internal/chat"
	"agency-hub/internal/dto"
	"agency-hub/internal/model"
	"agency-hub/internal/repository"
	apperrors "agency-hub/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const webhookEventChatMessage = "chat.message"

type ChatService interface {
	Open(ctx context.Context, userID, chatID, interactionID string) (*chat.Chat, error)
	Get(ctx context.Context, userID, chatID string) (*chat.Chat, error)
	Send(ctx context.Context, userID, chatID, clientID, content string) (*chat.Chat, error)
	Escalate(ctx context.Context, userID, chatID string) (*chat.Chat, error)
	Receive(ctx context.Context, chatID string, msg *dto.IncomingMessage) (*chat.Chat, error)
	Subscribe(ctx context.Context, userID, chatID, clientID string) (*chat.Subscription, error)
	InteractionStatusChanged(ctx context.Context, interactionID string, status model.InteractionStatus)
}

type chatServiceImpl struct {
	broker           *chat.Broker
	hub              *chat.Hub
	interactionRepo  repository.SupportInteractionRepository
	webhookEventRepo repository.WebhookEventRepository
	logger           *zap.Logger
}

func NewChatService(
	broker *chat.Broker,
	hub *chat.Hub,
	interactionRepo repository.SupportInteractionRepository,
	webhookEventRepo repository.WebhookEventRepository,
	logger *zap.Logger,
) ChatService {
	return &chatServiceImpl{
		broker:           broker,
		hub:              hub,
		interactionRepo:  interactionRepo,
		webhookEventRepo: webhookEventRepo,
		logger:           logger,
	}
}

// RecordTransfer appends the live chat hand-off to the chat's support interaction.
// It is meant to be installed with chat.WithTransferHook.
func RecordTransfer(interactionRepo repository.SupportInteractionRepository, logger *zap.Logger) chat.TransferFunc {
	return func(ctx context.Context, c chat.Chat) {
		if c.SupportInteractionID == "" {
			return
		}
		err := interactionRepo.AddEvent(ctx, c.SupportInteractionID, model.InteractionEvent{
			Provider:       c.Provider,
			ConversationID: c.ConversationID,
			At:             time.Now().UTC(),
		})
		if err != nil {
			logger.Error("failed to record live chat transfer",
				zap.String("chat_id", c.ID),
				zap.String("interaction_id", c.SupportInteractionID),
				zap.Error(err),
			)
		}
	}
}

// Open starts a new chat, or resumes chatID from its stored history.
func (s *chatServiceImpl) Open(ctx context.Context, userID, chatID, interactionID string) (*chat.Chat, error) {
	if interactionID != "" {
		interaction, err := s.interactionRepo.Get(ctx, interactionID)
		if err != nil {
			return nil, notFound(err, "support interaction", interactionID)
		}
		if interaction.UserID != userID {
			return nil, &apperrors.ErrNotFound{Resource: "support interaction", ID: interactionID}
		}
	}

	if chatID == "" {
		chatID = uuid.NewString()
	} else if existing, err := s.broker.Get(chatID); err == nil {
		if existing.UserID != userID {
			return nil, &apperrors.ErrNotFound{Resource: "chat", ID: chatID}
		}
		return &existing, nil
	}

	c, err := s.broker.Open(ctx, chatID, userID, interactionID)
	if err != nil {
		return nil, fmt.Errorf("open chat: %w", err)
	}

	s.logger.Info("chat opened",
		zap.String("chat_id", c.ID),
		zap.String("user_id", userID),
		zap.String("status", string(c.Status)),
	)
	return &c, nil
}

func (s *chatServiceImpl) owned(userID, chatID string) error {
	c, err := s.broker.Get(chatID)
	if err != nil {
		return err
	}
	if c.UserID != userID {
		return &apperrors.ErrNotFound{Resource: "chat", ID: chatID}
	}
	return nil
}

func (s *chatServiceImpl) Get(ctx context.Context, userID, chatID string) (*chat.Chat, error) {
	c, err := s.broker.Get(chatID)
	if err != nil {
		return nil, err
	}
	if c.UserID != userID {
		return nil, &apperrors.ErrNotFound{Resource: "chat", ID: chatID}
	}
	return &c, nil
}

func (s *chatServiceImpl) Send(ctx context.Context, userID, chatID, clientID, content string) (*chat.Chat, error) {
	if err := s.owned(userID, chatID); err != nil {
		return nil, err
	}
	c, err := s.broker.Send(ctx, chatID, clientID, content)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *chatServiceImpl) Escalate(ctx context.Context, userID, chatID string) (*chat.Chat, error) {
	if err := s.owned(userID, chatID); err != nil {
		return nil, err
	}
	c, err := s.broker.Escalate(ctx, chatID)
	if err != nil {
		var conflict *apperrors.ErrConflict
		var transition *apperrors.ErrInvalidStateTransition
		if errors.As(err, &conflict) || errors.As(err, &transition) {
			return nil, err
		}
		// the failure is already reported inside the chat
		return &c, nil
	}
	return &c, nil
}

// Receive applies a live chat webhook delivery once per event id.
func (s *chatServiceImpl) Receive(ctx context.Context, chatID string, msg *dto.IncomingMessage) (*chat.Chat, error) {
	current, err := s.broker.Get(chatID)
	if err != nil {
		return nil, err
	}

	if msg.EventID != "" {
		fresh, err := s.webhookEventRepo.MarkProcessed(ctx, msg.EventID, webhookEventChatMessage)
		if err != nil {
			return nil, fmt.Errorf("record webhook event: %w", err)
		}
		if !fresh {
			s.logger.Debug("skipping duplicate webhook delivery", zap.String("event_id", msg.EventID))
			return &current, nil
		}
	}

	role := msg.Role
	if role == "" {
		role = model.RoleBusiness
	}
	c, err := s.broker.Receive(ctx, chatID, model.ChatMessage{
		InternalMessageID: msg.InternalMessageID,
		ExternalID:        msg.MessageID,
		Role:              role,
		Type:              msg.Type,
		Content:           msg.Content,
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *chatServiceImpl) Subscribe(ctx context.Context, userID, chatID, clientID string) (*chat.Subscription, error) {
	if err := s.owned(userID, chatID); err != nil {
		return nil, err
	}
	if clientID == "" {
		clientID = uuid.NewString()
	}
	return s.hub.Subscribe(chatID, clientID), nil
}

// InteractionStatusChanged closes every open chat of an interaction that ended.
func (s *chatServiceImpl) InteractionStatusChanged(ctx context.Context, interactionID string, status model.InteractionStatus) {
	for _, chatID := range s.broker.ChatsForInteraction(interactionID) {
		if _, err := s.broker.SetInteractionStatus(chatID, status); err != nil {
			s.logger.Warn("failed to apply interaction status to chat",
				zap.String("chat_id", chatID),
				zap.String("interaction_id", interactionID),
				zap.Error(err),
			)
		}
	}
}
