package handler

import (
	"net/http"

	"agency-hub/internal/cart"
	"agency-hub/internal/dto"
	"agency-hub/internal/model"
	"agency-hub/internal/service"

	"github.com/labstack/echo/v4"
)

type CartHandler struct {
	cartService service.CartService
}

func NewCartHandler(cartService service.CartService) *CartHandler {
	return &CartHandler{
		cartService: cartService,
	}
}

func cartResponse(mode model.MarketplaceMode, items []cart.Item) dto.CartResponse {
	if items == nil {
		items = []cart.Item{}
	}
	return dto.CartResponse{Mode: mode, Items: items}
}

func (h *CartHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	sessionID, mode, err := cartSessionFromHeader(c)
	if err != nil {
		return err
	}

	items, err := h.cartService.Get(ctx, sessionID, mode)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, cartResponse(mode, items))
}

func (h *CartHandler) AddItem(c echo.Context) error {
	ctx := c.Request().Context()

	sessionID, mode, err := cartSessionFromHeader(c)
	if err != nil {
		return err
	}

	var req dto.CartItemRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	items, err := h.cartService.Add(ctx, sessionID, mode, cart.Item{
		Slug:      req.Slug,
		Quantity:  req.Quantity,
		LicenseID: req.LicenseID,
		SiteURLs:  req.SiteURLs,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, cartResponse(mode, items))
}

func (h *CartHandler) UpdateItem(c echo.Context) error {
	ctx := c.Request().Context()

	sessionID, mode, err := cartSessionFromHeader(c)
	if err != nil {
		return err
	}

	var req dto.UpdateCartItemRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	items, err := h.cartService.UpdateQuantity(ctx, sessionID, mode, c.Param("slug"), req.LicenseID, req.Quantity)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, cartResponse(mode, items))
}

func (h *CartHandler) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()

	sessionID, mode, err := cartSessionFromHeader(c)
	if err != nil {
		return err
	}

	items, err := h.cartService.Remove(ctx, sessionID, mode, c.Param("slug"), c.QueryParam("license_id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, cartResponse(mode, items))
}

func (h *CartHandler) Clear(c echo.Context) error {
	ctx := c.Request().Context()

	sessionID, mode, err := cartSessionFromHeader(c)
	if err != nil {
		return err
	}

	if err := h.cartService.Clear(ctx, sessionID, mode); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *CartHandler) Quote(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := userIDFromContext(c)
	if err != nil {
		return err
	}
	sessionID, mode, err := cartSessionFromHeader(c)
	if err != nil {
		return err
	}

	quote, err := h.cartService.Quote(ctx, userID, sessionID, mode)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, quote)
}

func (h *CartHandler) Checkout(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := userIDFromContext(c)
	if err != nil {
		return err
	}
	sessionID, mode, err := cartSessionFromHeader(c)
	if err != nil {
		return err
	}

	var req dto.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	resp, err := h.cartService.Checkout(ctx, userID, sessionID, mode, req.PaymentNonce)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *CartHandler) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := userIDFromContext(c)
	if err != nil {
		return err
	}

	orders, err := h.cartService.ListOrders(ctx, userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, orders)
}

func (h *CartHandler) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := userIDFromContext(c)
	if err != nil {
		return err
	}

	order, items, err := h.cartService.GetOrder(ctx, userID, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"order": order,
		"items": items,
	})
}
