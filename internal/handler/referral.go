package handler

import (
	"net/http"
	"strconv"
	"time"

	"agency-hub/internal/dto"
	"agency-hub/internal/service"

	"github.com/labstack/echo/v4"
)

// ReferralHandler serves the calling agency's referrals. The agency is the authenticated user.
type ReferralHandler struct {
	referralService service.ReferralService
	now             func() time.Time
}

func NewReferralHandler(referralService service.ReferralService) *ReferralHandler {
	return &ReferralHandler{
		referralService: referralService,
		now:             time.Now,
	}
}

func (h *ReferralHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	agencyID, err := userIDFromContext(c)
	if err != nil {
		return err
	}

	referrals, err := h.referralService.List(ctx, agencyID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, referrals)
}

func (h *ReferralHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	agencyID, err := userIDFromContext(c)
	if err != nil {
		return err
	}

	var req dto.CreateReferralRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	referral, err := h.referralService.Create(ctx, agencyID, &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, referral)
}

func (h *ReferralHandler) AddPurchase(c echo.Context) error {
	ctx := c.Request().Context()

	agencyID, err := userIDFromContext(c)
	if err != nil {
		return err
	}

	var req dto.AddPurchaseRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	purchase, err := h.referralService.AddPurchase(ctx, agencyID, c.Param("id"), &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, purchase)
}

func (h *ReferralHandler) UpdatePurchase(c echo.Context) error {
	ctx := c.Request().Context()

	agencyID, err := userIDFromContext(c)
	if err != nil {
		return err
	}

	purchaseID, err := strconv.ParseUint(c.Param("purchaseId"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid purchase id")
	}

	var req dto.UpdatePurchaseRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	purchase, err := h.referralService.UpdatePurchase(ctx, agencyID, c.Param("id"), uint(purchaseID), &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, purchase)
}

func (h *ReferralHandler) Commission(c echo.Context) error {
	ctx := c.Request().Context()

	agencyID, err := userIDFromContext(c)
	if err != nil {
		return err
	}

	summary, err := h.referralService.Summary(ctx, agencyID, h.now())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, summary)
}
