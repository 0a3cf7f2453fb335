package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agency-hub/internal/chat"
	"agency-hub/internal/client"
	"agency-hub/internal/config"
	"agency-hub/internal/logger"
	"agency-hub/internal/pricing"
	"agency-hub/internal/repository"
	"agency-hub/internal/server"
	"agency-hub/internal/service"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Printf("Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	if cfg.Auth.JWTSecret == "" {
		if cfg.IsProduction() {
			return errors.New("JWT_SECRET is required in production")
		}
		log.Warn("JWT_SECRET not set, requests run as the demo user")
	}

	db, err := client.InitDBClient(cfg.Database)
	if err != nil {
		return err
	}

	braintreeClient := client.NewBraintreeClient(&cfg.BrainTree)
	odieClient := client.NewOdieClient(&cfg.Odie)
	liveChatClient := client.NewLiveChatClient(&cfg.LiveChat)

	productRepo := repository.NewProductRepository(db)
	preferenceRepo := repository.NewPreferenceRepository(db)
	cartRepo := repository.NewCartRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	referralRepo := repository.NewReferralRepository(db)
	chatMessageRepo := repository.NewChatMessageRepository(db)
	interactionRepo := repository.NewSupportInteractionRepository(db)
	webhookEventRepo := repository.NewWebhookEventRepository(db)

	catalogService := service.NewCatalogService(productRepo, preferenceRepo, log)
	if _, err := catalogService.Seed(context.Background(), cfg.CatalogSeedPath); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("seed catalog: %w", err)
		}
		log.Warn("catalog seed file not found, serving the stored catalog", zap.String("path", cfg.CatalogSeedPath))
	}

	hub := chat.NewHub(32, log)
	broker := chat.NewBroker(
		odieClient,
		liveChatClient,
		chatMessageRepo,
		hub,
		log,
		chat.WithTransferHook(service.RecordTransfer(interactionRepo, log)),
	)
	chatService := service.NewChatService(broker, hub, interactionRepo, webhookEventRepo, log)

	srv := server.NewServer(cfg, server.Services{
		Catalog:            catalogService,
		Preference:         service.NewPreferenceService(preferenceRepo),
		Cart:               service.NewCartService(db, braintreeClient, cartRepo, productRepo, preferenceRepo, orderRepo, log),
		Referral:           service.NewReferralService(referralRepo, productRepo, pricing.NewCommissionRules(cfg.Commission), log),
		Chat:               chatService,
		SupportInteraction: service.NewSupportInteractionService(interactionRepo, log, chatService.InteractionStatusChanged),
	}, log)

	serverAddr := cfg.ServerAddr()
	log.Info("starting HTTP server", zap.String("addr", serverAddr), zap.String("env", cfg.Environment.Name))

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	if err := waitForStop(serverErr, sigChan, log); err != nil {
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}

	sqlDB, err := db.DB()
	if err == nil {
		sqlDB.Close()
	}
	return nil
}

// waitForStop blocks until a signal arrives or the server exits. serverErr is
// closed without a value when the server stopped cleanly.
func waitForStop(serverErr <-chan error, sigChan <-chan os.Signal, log *zap.Logger) error {
	select {
	case err, ok := <-serverErr:
		if ok && err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		log.Warn("http server stopped without a signal")
	case sig := <-sigChan:
		log.Info("signal received, starting graceful shutdown", zap.String("signal", sig.String()))
	}
	return nil
}
