package middleware

import (
	"net/http"
	"time"

	"agency-hub/internal/config"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// ChatRateLimiter throttles chat sends per user before they reach the assistant.
func ChatRateLimiter(cfg config.Chat) echo.MiddlewareFunc {
	store := echomw.NewRateLimiterMemoryStoreWithConfig(echomw.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(cfg.RatePerSecond),
		Burst:     cfg.RateBurst,
		ExpiresIn: 3 * time.Minute,
	})

	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			if userID, ok := c.Get(UserIDKey).(string); ok && userID != "" {
				return userID, nil
			}
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, "too many messages, slow down")
		},
	})
}
