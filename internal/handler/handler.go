package handler

import (
	"errors"
	"net/http"
	"strconv"

	"agency-hub/internal/middleware"
	"agency-hub/internal/model"
	apperrors "agency-hub/pkg/errors"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const cartSessionHeader = "X-Cart-Session"

func userIDFromContext(c echo.Context) (string, error) {
	userID, ok := c.Get(middleware.UserIDKey).(string)
	if !ok || userID == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized)
	}
	return userID, nil
}

func cartSessionFromHeader(c echo.Context) (string, model.MarketplaceMode, error) {
	sessionID := c.Request().Header.Get(cartSessionHeader)
	if sessionID == "" {
		return "", "", echo.NewHTTPError(http.StatusBadRequest, "missing "+cartSessionHeader+" header")
	}

	mode := model.MarketplaceMode(c.QueryParam("mode"))
	if mode == "" {
		mode = model.MarketplaceRegular
	}
	return sessionID, mode, nil
}

func intQueryParam(c echo.Context, name string, def int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, name+" must be an integer")
	}
	return v, nil
}

// ErrorHandler maps domain errors to status codes before echo renders them.
func ErrorHandler(e *echo.Echo, logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		e.DefaultHTTPErrorHandler(toHTTPError(err, c, logger), c)
	}
}

func toHTTPError(err error, c echo.Context, logger *zap.Logger) error {
	var (
		httpErr    *echo.HTTPError
		notFound   *apperrors.ErrNotFound
		validation *apperrors.ErrValidation
		conflict   *apperrors.ErrConflict
		transition *apperrors.ErrInvalidStateTransition
		unauth     *apperrors.ErrUnauthorized
	)

	switch {
	case errors.As(err, &httpErr):
		return httpErr
	case errors.As(err, &notFound):
		return echo.NewHTTPError(http.StatusNotFound, notFound.Error())
	case errors.Is(err, gorm.ErrRecordNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	case errors.As(err, &validation):
		if len(validation.Fields) > 0 {
			return echo.NewHTTPError(http.StatusBadRequest, map[string]any{
				"message": validation.Error(),
				"fields":  validation.Fields,
			})
		}
		return echo.NewHTTPError(http.StatusBadRequest, validation.Error())
	case errors.As(err, &conflict):
		return echo.NewHTTPError(http.StatusConflict, conflict.Error())
	case errors.As(err, &transition):
		return echo.NewHTTPError(http.StatusConflict, transition.Error())
	case errors.As(err, &unauth):
		return echo.NewHTTPError(http.StatusUnauthorized, unauth.Error())
	}

	logger.Error("request failed",
		zap.String("method", c.Request().Method),
		zap.String("path", c.Path()),
		zap.Error(err),
	)
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
}
