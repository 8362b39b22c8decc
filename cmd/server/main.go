package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/EntertainPet/webshop/internal/api"
	"github.com/EntertainPet/webshop/internal/config"
	"github.com/EntertainPet/webshop/internal/payment"
	"github.com/EntertainPet/webshop/internal/repository/postgres"
	"github.com/EntertainPet/webshop/internal/service"
	"github.com/EntertainPet/webshop/internal/session"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	var logger *zap.Logger
	if cfg.Environment == "production" {
		logger, _ = zap.NewProduction()
	} else {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	logger.Info("Starting webshop server",
		zap.String("port", cfg.Port),
		zap.String("environment", cfg.Environment),
	)

	// Initialize database
	db, err := postgres.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Initialize Redis session store
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelPing()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}

	sessions := session.NewRedisStore(redisClient, cfg.SessionTTL)

	// Initialize repositories and services
	repos := postgres.NewRepositories(db, logger)

	provider := payment.NewStripeProvider(cfg.Stripe, cfg.Checkout, logger)
	notifier := service.NewSMTPNotifier(cfg.SMTP, cfg.BaseURL, logger)

	cartSvc := service.NewCartService(repos.Product, repos.Variant, repos.Cart, sessions, logger)
	svcs := &api.Services{
		Auth:        service.NewAuthService(repos.Customer, cartSvc, sessions, logger),
		Cart:        cartSvc,
		Checkout:    service.NewCheckoutService(repos, cartSvc, sessions, provider, cfg.Checkout, logger),
		Fulfillment: service.NewFulfillmentService(repos, notifier, logger),
		Tracking:    service.NewTrackingService(repos.Order, logger),
	}

	// Initialize router
	router := api.NewRouter(cfg, repos, svcs, sessions, logger)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	logger.Info("Server started successfully", zap.String("address", srv.Addr))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
