package handler

import (
	"net/http"

	"agency-hub/internal/dto"
	"agency-hub/internal/service"

	"github.com/labstack/echo/v4"
)

type PreferenceHandler struct {
	preferenceService service.PreferenceService
}

func NewPreferenceHandler(preferenceService service.PreferenceService) *PreferenceHandler {
	return &PreferenceHandler{
		preferenceService: preferenceService,
	}
}

func (h *PreferenceHandler) GetTerm(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := userIDFromContext(c)
	if err != nil {
		return err
	}

	term, err := h.preferenceService.GetTermPricing(ctx, userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.TermPricingResponse{Term: term})
}

func (h *PreferenceHandler) SetTerm(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := userIDFromContext(c)
	if err != nil {
		return err
	}

	var req dto.TermPricingRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	if err := h.preferenceService.SetTermPricing(ctx, userID, req.Term); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.TermPricingResponse{Term: req.Term})
}
