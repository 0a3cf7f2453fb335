package handler

import (
	"net/http"

	"agency-hub/internal/service"

	"github.com/labstack/echo/v4"
)

type ProductHandler struct {
	catalogService service.CatalogService
}

func NewProductHandler(catalogService service.CatalogService) *ProductHandler {
	return &ProductHandler{
		catalogService: catalogService,
	}
}

func (h *ProductHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	products, err := h.catalogService.List(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, products)
}

func (h *ProductHandler) Price(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := userIDFromContext(c)
	if err != nil {
		return err
	}
	quantity, err := intQueryParam(c, "quantity", 1)
	if err != nil {
		return err
	}
	owned, err := intQueryParam(c, "owned", 0)
	if err != nil {
		return err
	}

	price, err := h.catalogService.Price(ctx, userID, c.Param("slug"), quantity, owned)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, price)
}
