package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"meal-storefront/internal/client"
	"meal-storefront/internal/config"
	"meal-storefront/internal/lock"
	"meal-storefront/internal/logger"
	"meal-storefront/internal/repository"
	"meal-storefront/internal/server"
	"meal-storefront/internal/service"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(os.Stdout, cfg.Log)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx := context.Background()

	db, err := client.InitDBClient(cfg.Database)
	if err != nil {
		return err
	}

	var locker lock.Locker
	if cfg.Redis.URL != "" {
		rdb, err := client.InitRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			return err
		}
		defer rdb.Close()
		locker = lock.NewRedisLocker(rdb, "webhook:", log)
	} else {
		log.Warn("REDIS_URL not set, webhook events are claimed in process only")
		locker = lock.NewLocalLocker()
	}

	gateway := client.NewStripeGateway(&cfg.Stripe)
	mailer := client.NewSendgridMailer(&cfg.Sendgrid)

	mealRepo := repository.NewMealRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	webhookEventRepo := repository.NewWebhookEventRepository(db)

	if cfg.SeedDemoMeals {
		if err := mealRepo.Seed(ctx); err != nil {
			return fmt.Errorf("seed meals: %w", err)
		}
	}

	checkoutService := service.NewCheckoutService(db, gateway, mealRepo, orderRepo,
		cfg.BaseURL, cfg.Stripe.Currency, log)
	fulfillmentService := service.NewFulfillmentService(db, mealRepo, orderRepo, webhookEventRepo,
		locker, service.NewReceiptNotifier(mailer), cfg.Stripe.Currency, log)
	webhookService := service.NewWebhookService(gateway, fulfillmentService, log)
	refundService := service.NewRefundService(gateway, orderRepo, log)
	orderService := service.NewOrderService(orderRepo)
	mealService := service.NewMealService(mealRepo)

	srv := server.NewServer(log,
		server.Options{
			AdminJWTSecret:    cfg.Admin.JWTSecret,
			CheckoutRateLimit: cfg.Checkout.RateLimit,
		},
		checkoutService,
		webhookService,
		refundService,
		orderService,
		mealService,
	)

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port

	errCh := make(chan error, 1)
	log.Info("starting HTTP server", "addr", serverAddr, "environment", cfg.Environment.Name)
	go func() {
		if err := srv.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case sig := <-sigChan:
		log.Info("signal received, starting graceful shutdown", "signal", sig.String())
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}
