package server

import (
	"context"
	"net/http"

	"agency-hub/internal/config"
	"agency-hub/internal/handler"
	appmw "agency-hub/internal/middleware"
	"agency-hub/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

type Services struct {
	Catalog            service.CatalogService
	Preference         service.PreferenceService
	Cart               service.CartService
	Referral           service.ReferralService
	Chat               service.ChatService
	SupportInteraction service.SupportInteractionService
}

type Server struct {
	echo   *echo.Echo
	cfg    *config.Config
	logger *zap.Logger

	productHandler     *handler.ProductHandler
	preferenceHandler  *handler.PreferenceHandler
	cartHandler        *handler.CartHandler
	referralHandler    *handler.ReferralHandler
	chatHandler        *handler.ChatHandler
	interactionHandler *handler.SupportInteractionHandler
}

func NewServer(cfg *config.Config, services Services, logger *zap.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.ErrorHandler(e, logger)

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			logger.Info("request", fields...)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{
		echo:               e,
		cfg:                cfg,
		logger:             logger,
		productHandler:     handler.NewProductHandler(services.Catalog),
		preferenceHandler:  handler.NewPreferenceHandler(services.Preference),
		cartHandler:        handler.NewCartHandler(services.Cart),
		referralHandler:    handler.NewReferralHandler(services.Referral),
		chatHandler:        handler.NewChatHandler(services.Chat, logger),
		interactionHandler: handler.NewSupportInteractionHandler(services.SupportInteraction),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// -------- live chat webhooks --------
	api.POST("/chats/:id/incoming", s.chatHandler.Incoming, appmw.WebhookAuth(s.cfg.LiveChat.WebhookSecret))

	authed := api.Group("", appmw.AuthMiddleware(s.cfg.Auth.JWTSecret))

	// -------- catalog --------
	authed.GET("/products", s.productHandler.List)
	authed.GET("/products/:slug/price", s.productHandler.Price)
	authed.GET("/preferences/term", s.preferenceHandler.GetTerm)
	authed.PUT("/preferences/term", s.preferenceHandler.SetTerm)

	// -------- marketplace cart --------
	authed.GET("/cart", s.cartHandler.Get)
	authed.DELETE("/cart", s.cartHandler.Clear)
	authed.POST("/cart/items", s.cartHandler.AddItem)
	authed.PATCH("/cart/items/:slug", s.cartHandler.UpdateItem)
	authed.DELETE("/cart/items/:slug", s.cartHandler.RemoveItem)
	authed.GET("/cart/quote", s.cartHandler.Quote)
	authed.POST("/cart/checkout", s.cartHandler.Checkout)
	authed.GET("/orders", s.cartHandler.ListOrders)
	authed.GET("/orders/:id", s.cartHandler.GetOrder)

	// -------- referrals --------
	authed.GET("/referrals", s.referralHandler.List)
	authed.POST("/referrals", s.referralHandler.Create)
	authed.POST("/referrals/:id/purchases", s.referralHandler.AddPurchase)
	authed.PATCH("/referrals/:id/purchases/:purchaseId", s.referralHandler.UpdatePurchase)
	authed.GET("/referrals/commission", s.referralHandler.Commission)

	// -------- support chat --------
	authed.POST("/chats", s.chatHandler.Open)
	authed.GET("/chats/:id", s.chatHandler.Get)
	authed.POST("/chats/:id/messages", s.chatHandler.Send, appmw.ChatRateLimiter(s.cfg.Chat))
	authed.POST("/chats/:id/escalate", s.chatHandler.Escalate)
	authed.GET("/chats/:id/ws", s.chatHandler.Stream)

	authed.POST("/support-interactions", s.interactionHandler.Create)
	authed.GET("/support-interactions/:id", s.interactionHandler.Get)
	authed.PATCH("/support-interactions/:id", s.interactionHandler.Update)
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
