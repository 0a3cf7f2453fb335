package service

import (
	"context"
	"fmt"

	"agency-hub/internal/model"
	"agency-hub/internal/repository"
	apperrors "agency-hub/pkg/errors"
)

type PreferenceService interface {
	GetTermPricing(ctx context.Context, userID string) (model.TermPricing, error)
	SetTermPricing(ctx context.Context, userID string, term model.TermPricing) error
}

type preferenceServiceImpl struct {
	preferenceRepo repository.PreferenceRepository
}

func NewPreferenceService(preferenceRepo repository.PreferenceRepository) PreferenceService {
	return &preferenceServiceImpl{
		preferenceRepo: preferenceRepo,
	}
}

func (s *preferenceServiceImpl) GetTermPricing(ctx context.Context, userID string) (model.TermPricing, error) {
	return s.preferenceRepo.GetTermPricing(ctx, userID)
}

func (s *preferenceServiceImpl) SetTermPricing(ctx context.Context, userID string, term model.TermPricing) error {
	if !term.Valid() {
		return &apperrors.ErrValidation{
			Message: "unknown term pricing",
			Fields:  map[string]string{"term": string(term)},
		}
	}
	if err := s.preferenceRepo.SetTermPricing(ctx, userID, term); err != nil {
		return fmt.Errorf("save term pricing: %w", err)
	}
	return nil
}
