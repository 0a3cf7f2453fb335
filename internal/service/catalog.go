package service

import (
	"context"
	"fmt"

	"agency-hub/internal/catalog"
	"agency-hub/internal/dto"
	"agency-hub/internal/model"
	"agency-hub/internal/pricing"
	"agency-hub/internal/repository"
	apperrors "agency-hub/pkg/errors"

	"go.uber.org/zap"
)

type CatalogService interface {
	Seed(ctx context.Context, path string) (int, error)
	List(ctx context.Context) ([]model.Product, error)
	Price(ctx context.Context, userID, slug string, quantity, ownedPlans int) (*dto.PriceResponse, error)
}

type catalogServiceImpl struct {
	productRepo    repository.ProductRepository
	preferenceRepo repository.PreferenceRepository
	logger         *zap.Logger
}

func NewCatalogService(
	productRepo repository.ProductRepository,
	preferenceRepo repository.PreferenceRepository,
	logger *zap.Logger,
) CatalogService {
	return &catalogServiceImpl{
		productRepo:    productRepo,
		preferenceRepo: preferenceRepo,
		logger:         logger,
	}
}

func (s *catalogServiceImpl) Seed(ctx context.Context, path string) (int, error) {
	products, err := catalog.Load(path)
	if err != nil {
		return 0, err
	}
	if len(products) == 0 {
		return 0, nil
	}

	if err := s.productRepo.Seed(ctx, products); err != nil {
		return 0, fmt.Errorf("seed products: %w", err)
	}

	s.logger.Info("catalog seeded", zap.String("path", path), zap.Int("products", len(products)))
	return len(products), nil
}

func (s *catalogServiceImpl) List(ctx context.Context) ([]model.Product, error) {
	products, err := s.productRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// Price quotes quantity units of a product in the user's preferred term.
func (s *catalogServiceImpl) Price(ctx context.Context, userID, slug string, quantity, ownedPlans int) (*dto.PriceResponse, error) {
	if quantity <= 0 {
		return nil, &apperrors.ErrValidation{Message: "quantity must be positive"}
	}
	if ownedPlans < 0 {
		return nil, &apperrors.ErrValidation{Message: "owned plans cannot be negative"}
	}

	product, err := s.productRepo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, notFound(err, "product", slug)
	}

	term, err := s.preferenceRepo.GetTermPricing(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get term pricing: %w", err)
	}

	line := priceLine(product, quantity, term, ownedPlans)
	return &dto.PriceResponse{
		Slug:               product.Slug,
		Term:               line.Term,
		Quantity:           quantity,
		ProductID:          line.ProductID,
		Currency:           product.Currency,
		ActualCost:         line.ActualCost,
		DiscountedCost:     line.DiscountedCost,
		DiscountPercentage: line.DiscountPercentage,
	}, nil
}

// priceLine resolves the variant first and prices it in the variant's own term,
// so a monthly fallback is never charged at a yearly rate. Bundles carry their own
// price and skip volume tiers.
func priceLine(product *model.Product, quantity int, term model.TermPricing, ownedPlans int) dto.QuoteLine {
	variant := pricing.ResolveVariant(product, quantity, term)
	line := dto.QuoteLine{
		Slug:      product.Slug,
		ProductID: variant.ProductID,
		Quantity:  quantity,
		Term:      variant.Term,
		Bundled:   variant.Bundled,
	}

	if variant.Bundled {
		line.ActualCost = pricing.TermAmount(product, variant.Term) * int64(quantity)
		line.DiscountedCost = variant.Amount
		if line.ActualCost < line.DiscountedCost {
			line.ActualCost = line.DiscountedCost
		}
		line.DiscountPercentage = pricing.CalculateDiscountPercentage(float64(line.ActualCost), float64(line.DiscountedCost))
		return line
	}

	tiered := pricing.GetTieredPrice(product, quantity, variant.Term, ownedPlans)
	line.ActualCost = tiered.ActualCost
	line.DiscountedCost = tiered.DiscountedCost
	line.DiscountPercentage = tiered.DiscountPercentage
	return line
}
