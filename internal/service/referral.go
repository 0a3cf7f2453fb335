package service

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"agency-hub/internal/dto"
	"agency-hub/internal/model"
	"agency-hub/internal/pricing"
	"agency-hub/internal/repository"
	apperrors "agency-hub/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type ReferralService interface {
	List(ctx context.Context, agencyID string) ([]dto.ReferralResponse, error)
	Create(ctx context.Context, agencyID string, req *dto.CreateReferralRequest) (*model.Referral, error)
	AddPurchase(ctx context.Context, agencyID, referralID string, req *dto.AddPurchaseRequest) (*model.Purchase, error)
	UpdatePurchase(ctx context.Context, agencyID, referralID string, purchaseID uint, req *dto.UpdatePurchaseRequest) (*model.Purchase, error)
	Summary(ctx context.Context, agencyID string, now time.Time) (*dto.CommissionSummary, error)
}

type referralServiceImpl struct {
	referralRepo repository.ReferralRepository
	productRepo  repository.ProductRepository
	rules        pricing.CommissionRules
	logger       *zap.Logger
	now          func() time.Time
}

func NewReferralService(
	referralRepo repository.ReferralRepository,
	productRepo repository.ProductRepository,
	rules pricing.CommissionRules,
	logger *zap.Logger,
) ReferralService {
	return &referralServiceImpl{
		referralRepo: referralRepo,
		productRepo:  productRepo,
		rules:        rules,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *referralServiceImpl) List(ctx context.Context, agencyID string) ([]dto.ReferralResponse, error) {
	referrals, err := s.referralRepo.ListByAgency(ctx, agencyID)
	if err != nil {
		return nil, fmt.Errorf("list referrals: %w", err)
	}

	resp := make([]dto.ReferralResponse, len(referrals))
	for i := range referrals {
		resp[i] = dto.ReferralResponse{
			Referral: &referrals[i],
			Statuses: referrals[i].ReferralStatuses(),
		}
	}
	return resp, nil
}

func (s *referralServiceImpl) Create(ctx context.Context, agencyID string, req *dto.CreateReferralRequest) (*model.Referral, error) {
	if _, err := mail.ParseAddress(req.ClientEmail); err != nil {
		return nil, &apperrors.ErrValidation{
			Message: "invalid client email",
			Fields:  map[string]string{"client_email": req.ClientEmail},
		}
	}

	referral := &model.Referral{
		ID:          uuid.NewString(),
		AgencyID:    agencyID,
		ClientEmail: req.ClientEmail,
	}
	if err := s.referralRepo.Create(ctx, referral); err != nil {
		return nil, fmt.Errorf("create referral: %w", err)
	}
	return referral, nil
}

func (s *referralServiceImpl) AddPurchase(ctx context.Context, agencyID, referralID string, req *dto.AddPurchaseRequest) (*model.Purchase, error) {
	if _, err := s.referralRepo.Get(ctx, agencyID, referralID); err != nil {
		return nil, notFound(err, "referral", referralID)
	}
	if _, err := s.productRepo.FindByID(ctx, req.ProductID); err != nil {
		return nil, notFound(err, "product", fmt.Sprint(req.ProductID))
	}

	status := req.Status
	if status == "" {
		status = model.PurchasePending
	}
	if !status.Valid() {
		return nil, &apperrors.ErrValidation{
			Message: "unknown purchase status",
			Fields:  map[string]string{"status": string(status)},
		}
	}
	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 0 {
		return nil, &apperrors.ErrValidation{Message: "quantity must be positive"}
	}

	purchase := &model.Purchase{
		ReferralID:  referralID,
		ProductID:   req.ProductID,
		Quantity:    quantity,
		Status:      status,
		SiteURL:     req.SiteURL,
		Commissions: req.Commissions,
	}

	now := s.now().UTC()
	purchase.License.Key = req.LicenseKey
	switch {
	case req.IssuedAt != nil:
		purchase.License.IssuedAt = req.IssuedAt.UTC()
	case req.LicenseKey != "":
		purchase.License.IssuedAt = now
	}
	if err := revoke(purchase, req.RevokedAt, now); err != nil {
		return nil, err
	}

	if err := s.referralRepo.AddPurchase(ctx, purchase); err != nil {
		return nil, fmt.Errorf("add purchase: %w", err)
	}
	return purchase, nil
}

// UpdatePurchase changes the status of a purchase. Canceling or archiving an issued
// license revokes it, at revoked_at when given and now otherwise.
func (s *referralServiceImpl) UpdatePurchase(
	ctx context.Context,
	agencyID, referralID string,
	purchaseID uint,
	req *dto.UpdatePurchaseRequest,
) (*model.Purchase, error) {
	referral, err := s.referralRepo.Get(ctx, agencyID, referralID)
	if err != nil {
		return nil, notFound(err, "referral", referralID)
	}

	var purchase *model.Purchase
	for i := range referral.Purchases {
		if referral.Purchases[i].ID == purchaseID {
			purchase = &referral.Purchases[i]
			break
		}
	}
	if purchase == nil {
		return nil, &apperrors.ErrNotFound{Resource: "purchase", ID: fmt.Sprint(purchaseID)}
	}

	if req.Status != "" {
		if !req.Status.Valid() {
			return nil, &apperrors.ErrValidation{
				Message: "unknown purchase status",
				Fields:  map[string]string{"status": string(req.Status)},
			}
		}
		purchase.Status = req.Status
	}
	if err := revoke(purchase, req.RevokedAt, s.now().UTC()); err != nil {
		return nil, err
	}

	if err := s.referralRepo.SavePurchase(ctx, purchase); err != nil {
		return nil, fmt.Errorf("save purchase: %w", err)
	}
	return purchase, nil
}

// revoke sets the license revocation time. A canceled or archived purchase with a
// live license is revoked at now unless revokedAt says otherwise.
func revoke(purchase *model.Purchase, revokedAt *time.Time, now time.Time) error {
	license := &purchase.License
	if revokedAt == nil {
		ended := purchase.Status == model.PurchaseCanceled || purchase.Status == model.PurchaseArchived
		if !ended || license.IssuedAt.IsZero() || license.RevokedAt != nil {
			return nil
		}
		revokedAt = &now
	}

	if license.IssuedAt.IsZero() {
		return &apperrors.ErrValidation{
			Message: "revoked_at needs an issued license",
			Fields:  map[string]string{"revoked_at": revokedAt.Format(time.RFC3339)},
		}
	}
	at := revokedAt.UTC()
	if at.Before(license.IssuedAt) {
		return &apperrors.ErrValidation{
			Message: "revoked_at is before issued_at",
			Fields:  map[string]string{"revoked_at": at.Format(time.RFC3339)},
		}
	}
	license.RevokedAt = &at
	return nil
}

// Summary estimates the commission of the current and the previous quarter.
func (s *referralServiceImpl) Summary(ctx context.Context, agencyID string, now time.Time) (*dto.CommissionSummary, error) {
	var (
		referrals []model.Referral
		products  []model.Product
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		referrals, err = s.referralRepo.ListByAgency(gctx, agencyID)
		if err != nil {
			return fmt.Errorf("list referrals: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		products, err = s.productRepo.List(gctx)
		if err != nil {
			return fmt.Errorf("list products: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := &dto.CommissionSummary{
		CurrentQuarter:  pricing.GetEstimatedCommission(referrals, products, pricing.CurrentQuarterWindow(now), false, s.rules),
		PreviousQuarter: pricing.GetEstimatedCommission(referrals, products, pricing.PreviousQuarterWindow(now), true, s.rules),
	}

	s.logger.Debug("commission summary computed",
		zap.String("agency_id", agencyID),
		zap.Int("referrals", len(referrals)),
		zap.Float64("current_quarter", summary.CurrentQuarter),
	)
	return summary, nil
}
