package service

import (
	"context"
	"fmt"

	"agency-hub/internal/cart"
	"agency-hub/internal/client"
	"agency-hub/internal/dto"
	"agency-hub/internal/model"
	"agency-hub/internal/repository"
	apperrors "agency-hub/pkg/errors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const orderStatusPaid = "PAID"

type CartService interface {
	Get(ctx context.Context, sessionID string, mode model.MarketplaceMode) ([]cart.Item, error)
	Add(ctx context.Context, sessionID string, mode model.MarketplaceMode, item cart.Item) ([]cart.Item, error)
	UpdateQuantity(ctx context.Context, sessionID string, mode model.MarketplaceMode, slug, licenseID string, quantity int) ([]cart.Item, error)
	Remove(ctx context.Context, sessionID string, mode model.MarketplaceMode, slug, licenseID string) ([]cart.Item, error)
	Clear(ctx context.Context, sessionID string, mode model.MarketplaceMode) error
	Quote(ctx context.Context, userID, sessionID string, mode model.MarketplaceMode) (*dto.QuoteResponse, error)
	Checkout(ctx context.Context, userID, sessionID string, mode model.MarketplaceMode, nonce string) (*dto.CheckoutResponse, error)
	ListOrders(ctx context.Context, userID string) ([]*model.Order, error)
	GetOrder(ctx context.Context, userID, orderID string) (*model.Order, []*model.OrderItem, error)
}

type cartServiceImpl struct {
	db              *gorm.DB
	braintreeClient client.BraintreeClient
	cartRepo        repository.CartRepository
	productRepo     repository.ProductRepository
	preferenceRepo  repository.PreferenceRepository
	orderRepo       repository.OrderRepository
	logger          *zap.Logger
}

func NewCartService(
	db *gorm.DB,
	braintreeClient client.BraintreeClient,
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	preferenceRepo repository.PreferenceRepository,
	orderRepo repository.OrderRepository,
	logger *zap.Logger,
) CartService {
	return &cartServiceImpl{
		db:              db,
		braintreeClient: braintreeClient,
		cartRepo:        cartRepo,
		productRepo:     productRepo,
		preferenceRepo:  preferenceRepo,
		orderRepo:       orderRepo,
		logger:          logger,
	}
}

func validateSession(sessionID string, mode model.MarketplaceMode) error {
	if sessionID == "" {
		return &apperrors.ErrValidation{Message: "cart session is required"}
	}
	if !mode.Valid() {
		return &apperrors.ErrValidation{
			Message: "unknown marketplace mode",
			Fields:  map[string]string{"mode": string(mode)},
		}
	}
	return nil
}

func (s *cartServiceImpl) load(ctx context.Context, sessionID string, mode model.MarketplaceMode) ([]cart.Item, error) {
	if err := validateSession(sessionID, mode); err != nil {
		return nil, err
	}

	raw, err := s.cartRepo.Get(ctx, sessionID, mode)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}

	items, err := cart.Decode(raw)
	if err != nil {
		// a corrupt cart is dropped rather than blocking the session
		s.logger.Warn("discarding undecodable cart",
			zap.String("session_id", sessionID),
			zap.String("mode", string(mode)),
			zap.Error(err),
		)
		return nil, nil
	}
	return items, nil
}

func (s *cartServiceImpl) save(ctx context.Context, sessionID string, mode model.MarketplaceMode, items []cart.Item) error {
	if len(items) == 0 {
		return s.cartRepo.Delete(ctx, nil, sessionID, mode)
	}
	if err := s.cartRepo.Save(ctx, sessionID, mode, cart.Encode(items)); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func (s *cartServiceImpl) Get(ctx context.Context, sessionID string, mode model.MarketplaceMode) ([]cart.Item, error) {
	return s.load(ctx, sessionID, mode)
}

func (s *cartServiceImpl) Add(ctx context.Context, sessionID string, mode model.MarketplaceMode, item cart.Item) ([]cart.Item, error) {
	items, err := s.load(ctx, sessionID, mode)
	if err != nil {
		return nil, err
	}

	if _, err := s.productRepo.FindBySlug(ctx, item.Slug); err != nil {
		return nil, notFound(err, "product", item.Slug)
	}

	items, err = cart.Add(items, item)
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, sessionID, mode, items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *cartServiceImpl) UpdateQuantity(ctx context.Context, sessionID string, mode model.MarketplaceMode, slug, licenseID string, quantity int) ([]cart.Item, error) {
	items, err := s.load(ctx, sessionID, mode)
	if err != nil {
		return nil, err
	}

	items, err = cart.UpdateQuantity(items, slug, licenseID, quantity)
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, sessionID, mode, items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *cartServiceImpl) Remove(ctx context.Context, sessionID string, mode model.MarketplaceMode, slug, licenseID string) ([]cart.Item, error) {
	items, err := s.load(ctx, sessionID, mode)
	if err != nil {
		return nil, err
	}

	items, err = cart.Remove(items, slug, licenseID)
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, sessionID, mode, items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *cartServiceImpl) Clear(ctx context.Context, sessionID string, mode model.MarketplaceMode) error {
	if err := validateSession(sessionID, mode); err != nil {
		return err
	}
	return s.cartRepo.Delete(ctx, nil, sessionID, mode)
}

// Quote prices every cart line in the user's preferred term.
func (s *cartServiceImpl) Quote(ctx context.Context, userID, sessionID string, mode model.MarketplaceMode) (*dto.QuoteResponse, error) {
	items, err := s.load(ctx, sessionID, mode)
	if err != nil {
		return nil, err
	}

	term, err := s.preferenceRepo.GetTermPricing(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get term pricing: %w", err)
	}

	quote := &dto.QuoteResponse{
		Mode:  mode,
		Term:  term,
		Lines: make([]dto.QuoteLine, 0, len(items)),
	}
	if len(items) == 0 {
		return quote, nil
	}

	slugs := make([]string, len(items))
	for i, item := range items {
		slugs[i] = item.Slug
	}
	products, err := s.productRepo.FindManyBySlug(ctx, slugs)
	if err != nil {
		return nil, fmt.Errorf("get cart products: %w", err)
	}
	bySlug := make(map[string]*model.Product, len(products))
	for _, p := range products {
		bySlug[p.Slug] = p
	}

	for _, item := range items {
		product, ok := bySlug[item.Slug]
		if !ok {
			return nil, &apperrors.ErrNotFound{Resource: "product", ID: item.Slug}
		}
		if quote.Currency == "" {
			quote.Currency = product.Currency
		} else if quote.Currency != product.Currency {
			return nil, &apperrors.ErrValidation{Message: "cart mixes currencies"}
		}

		line := priceLine(product, item.Quantity, term, 0)
		line.LicenseID = item.LicenseID
		line.SiteURLs = item.SiteURLs

		quote.Lines = append(quote.Lines, line)
		quote.Subtotal += line.ActualCost
		quote.Total += line.DiscountedCost
	}

	return quote, nil
}

// Checkout charges the quote total and turns the cart into an order.
// The cart is only destroyed once the charge went through.
func (s *cartServiceImpl) Checkout(ctx context.Context, userID, sessionID string, mode model.MarketplaceMode, nonce string) (*dto.CheckoutResponse, error) {
	if nonce == "" {
		return nil, &apperrors.ErrValidation{Message: "payment nonce is required"}
	}

	quote, err := s.Quote(ctx, userID, sessionID, mode)
	if err != nil {
		return nil, err
	}
	if len(quote.Lines) == 0 {
		return nil, &apperrors.ErrValidation{Message: "cart is empty"}
	}

	amount := decimal.New(quote.Total, -2)
	transactionID, err := s.braintreeClient.ChargeOneTime(ctx, nonce, amount)
	if err != nil {
		return nil, fmt.Errorf("braintree charge: %w", err)
	}

	orderItems := make([]*model.OrderItem, len(quote.Lines))
	for i, line := range quote.Lines {
		orderItems[i] = &model.OrderItem{
			OrderID:   transactionID,
			ProductID: line.ProductID,
			Slug:      line.Slug,
			Quantity:  int32(line.Quantity),
			Amount:    line.DiscountedCost,
			LicenseID: line.LicenseID,
			SiteURLs:  line.SiteURLs,
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := s.orderRepo.Create(ctx, tx, &model.Order{
			OrderID:  transactionID,
			Status:   orderStatusPaid,
			UserID:   userID,
			Mode:     mode,
			Term:     quote.Term,
			Amount:   quote.Total,
			Currency: quote.Currency,
		})
		if err != nil {
			return fmt.Errorf("store order in db: %w", err)
		}

		if err := s.orderRepo.CreateOrderItems(ctx, tx, orderItems); err != nil {
			return fmt.Errorf("store order items in db: %w", err)
		}

		return s.cartRepo.Delete(ctx, tx, sessionID, mode)
	})
	if err != nil {
		// the customer was charged; keep enough context to reconcile by hand
		s.logger.Error("order not recorded after successful charge",
			zap.String("transaction_id", transactionID),
			zap.String("user_id", userID),
			zap.Int64("amount", quote.Total),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("checkout completed",
		zap.String("order_id", transactionID),
		zap.String("user_id", userID),
		zap.String("mode", string(mode)),
	)

	return &dto.CheckoutResponse{
		OrderID:  transactionID,
		Status:   orderStatusPaid,
		Amount:   amount.StringFixed(2),
		Currency: quote.Currency,
	}, nil
}

func (s *cartServiceImpl) ListOrders(ctx context.Context, userID string) ([]*model.Order, error) {
	orders, err := s.orderRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (s *cartServiceImpl) GetOrder(ctx context.Context, userID, orderID string) (*model.Order, []*model.OrderItem, error) {
	order, err := s.orderRepo.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, nil, notFound(err, "order", orderID)
	}
	if order.UserID != userID {
		return nil, nil, &apperrors.ErrNotFound{Resource: "order", ID: orderID}
	}

	items, err := s.orderRepo.GetOrderItems(ctx, orderID)
	if err != nil {
		return nil, nil, fmt.Errorf("get order items: %w", err)
	}
	return order, items, nil
}
