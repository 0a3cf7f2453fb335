package service

import (
	"context"
	"fmt"
	"time"

	"agency-hub/internal/model"
	"agency-hub/internal/repository"
	apperrors "agency-hub/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InteractionListener is told about every status change of a support interaction.
type InteractionListener func(ctx context.Context, interactionID string, status model.InteractionStatus)

type SupportInteractionService interface {
	Create(ctx context.Context, userID string, provider model.ChatProvider) (*model.SupportInteraction, error)
	Get(ctx context.Context, userID, id string) (*model.SupportInteraction, error)
	UpdateStatus(ctx context.Context, userID, id string, status model.InteractionStatus) (*model.SupportInteraction, error)
}

type supportInteractionServiceImpl struct {
	interactionRepo repository.SupportInteractionRepository
	listeners       []InteractionListener
	logger          *zap.Logger
}

func NewSupportInteractionService(
	interactionRepo repository.SupportInteractionRepository,
	logger *zap.Logger,
	listeners ...InteractionListener,
) SupportInteractionService {
	return &supportInteractionServiceImpl{
		interactionRepo: interactionRepo,
		listeners:       listeners,
		logger:          logger,
	}
}

func (s *supportInteractionServiceImpl) Create(ctx context.Context, userID string, provider model.ChatProvider) (*model.SupportInteraction, error) {
	if provider == "" {
		provider = model.ProviderOdie
	}
	if provider != model.ProviderOdie && provider != model.ProviderZendesk {
		return nil, &apperrors.ErrValidation{
			Message: "unknown chat provider",
			Fields:  map[string]string{"provider": string(provider)},
		}
	}

	interaction := &model.SupportInteraction{
		ID:     uuid.NewString(),
		UserID: userID,
		Status: model.InteractionOpen,
		Events: []model.InteractionEvent{{Provider: provider, At: time.Now().UTC()}},
	}
	if err := s.interactionRepo.Create(ctx, interaction); err != nil {
		return nil, fmt.Errorf("create support interaction: %w", err)
	}
	return interaction, nil
}

func (s *supportInteractionServiceImpl) Get(ctx context.Context, userID, id string) (*model.SupportInteraction, error) {
	interaction, err := s.interactionRepo.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, "support interaction", id)
	}
	if interaction.UserID != userID {
		return nil, &apperrors.ErrNotFound{Resource: "support interaction", ID: id}
	}
	return interaction, nil
}

func (s *supportInteractionServiceImpl) UpdateStatus(ctx context.Context, userID, id string, status model.InteractionStatus) (*model.SupportInteraction, error) {
	if !status.Valid() {
		return nil, &apperrors.ErrValidation{
			Message: "unknown interaction status",
			Fields:  map[string]string{"status": string(status)},
		}
	}

	interaction, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if interaction.Status.Ended() && interaction.Status != status {
		return nil, &apperrors.ErrInvalidStateTransition{From: string(interaction.Status), To: string(status)}
	}

	if err := s.interactionRepo.UpdateStatus(ctx, id, status); err != nil {
		return nil, notFound(err, "support interaction", id)
	}
	interaction.Status = status

	s.logger.Info("support interaction status changed",
		zap.String("interaction_id", id),
		zap.String("status", string(status)),
	)
	for _, listener := range s.listeners {
		listener(ctx, id, status)
	}
	return interaction, nil
}
