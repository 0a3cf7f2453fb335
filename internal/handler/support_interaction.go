package handler

import (
	"net/http"

	"agency-hub/internal/dto"
	"agency-hub/internal/service"

	"github.com/labstack/echo/v4"
)

type SupportInteractionHandler struct {
	interactionService service.SupportInteractionService
}

func NewSupportInteractionHandler(interactionService service.SupportInteractionService) *SupportInteractionHandler {
	return &SupportInteractionHandler{
		interactionService: interactionService,
	}
}

func (h *SupportInteractionHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := userIDFromContext(c)
	if err != nil {
		return err
	}

	var req dto.CreateInteractionRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	interaction, err := h.interactionService.Create(ctx, userID, req.Provider)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, interaction)
}

func (h *SupportInteractionHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := userIDFromContext(c)
	if err != nil {
		return err
	}

	interaction, err := h.interactionService.Get(ctx, userID, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, interaction)
}

func (h *SupportInteractionHandler) Update(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := userIDFromContext(c)
	if err != nil {
		return err
	}

	var req dto.UpdateInteractionRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	interaction, err := h.interactionService.UpdateStatus(ctx, userID, c.Param("id"), req.Status)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, interaction)
}
