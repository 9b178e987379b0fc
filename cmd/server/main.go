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

	"github.com/campusmarket/campusmarket-backend/config"
	"github.com/campusmarket/campusmarket-backend/internal/app/controller"
	"github.com/campusmarket/campusmarket-backend/internal/app/repository"
	"github.com/campusmarket/campusmarket-backend/internal/app/service"
	"github.com/campusmarket/campusmarket-backend/internal/db"
	"github.com/campusmarket/campusmarket-backend/internal/middleware"
	"github.com/campusmarket/campusmarket-backend/internal/router"
	"github.com/campusmarket/campusmarket-backend/internal/scheduler"
	"github.com/campusmarket/campusmarket-backend/internal/storage"
	ws "github.com/campusmarket/campusmarket-backend/internal/websocket"
	"github.com/campusmarket/campusmarket-backend/pkg/events"
	"github.com/campusmarket/campusmarket-backend/pkg/logger"
	"github.com/campusmarket/campusmarket-backend/pkg/redis"
	"github.com/campusmarket/campusmarket-backend/pkg/util"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      cfg.Server.LogFormat,
		EnableColor: cfg.Server.Environment == "development",
	})

	logger.Info("Starting campus marketplace backend", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	if err := db.Migrate(db.GetDB()); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Redis backs the token blacklist; without it logout is client-side only.
	if cfg.Redis.Enabled {
		if err := redis.Init(&cfg.Redis); err != nil {
			logger.Warn("Redis unavailable, token revocation disabled", map[string]interface{}{
				"error": err.Error(),
			})
		}
		defer redis.Close()
	}

	var publisher events.Publisher = events.NewNoopPublisher()
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = events.NewKafkaBroker(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		logger.Info("Publishing domain events to Kafka", map[string]interface{}{
			"brokers": cfg.Kafka.Brokers,
			"topic":   cfg.Kafka.Topic,
		})
	}
	defer publisher.Close()

	hub := ws.NewHub()
	go hub.Run()
	defer hub.Stop()

	// Initialize repositories
	database := db.GetDB()
	userRepo := repository.NewUserRepository(database)
	vendorRepo := repository.NewVendorRepository(database)
	listingRepo := repository.NewListingRepository(database)
	orderRepo := repository.NewOrderRepository(database)
	reviewRepo := repository.NewReviewRepository(database)
	wishlistRepo := repository.NewWishlistRepository(database)
	notificationRepo := repository.NewNotificationRepository(database)

	// Initialize services
	policy := util.EmailPolicy{
		AllowedDomain: cfg.Auth.AllowedDomain,
		AllowedEmails: cfg.Auth.AllowedEmails,
		AdminEmails:   cfg.Auth.AdminEmails,
	}
	if cfg.Auth.IdentitySecret == "" {
		logger.Warn("IDENTITY_SHARED_SECRET is empty, sign-in is disabled")
	}
	authService := service.NewAuthService(
		userRepo,
		policy,
		cfg.Auth.IdentitySecret,
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	notificationService := service.NewNotificationService(notificationRepo, hub)
	vendorService := service.NewVendorService(vendorRepo, userRepo, notificationService, publisher, database, cfg.Market.MaxVendorsPerUser)
	listingService := service.NewListingService(listingRepo, vendorRepo)
	orderService := service.NewOrderService(orderRepo, vendorRepo, notificationService, publisher, database, cfg.Market.DecrementStock)
	reviewService := service.NewReviewService(reviewRepo, listingRepo, vendorRepo, notificationService, publisher)
	wishlistService := service.NewWishlistService(wishlistRepo, listingRepo)

	// Image uploads need a bucket and credentials
	var uploadController *controller.UploadController
	if cfg.S3.Bucket != "" && cfg.S3.AccessKeyID != "" {
		imageStorage := storage.NewS3Storage(cfg.S3.Region, cfg.S3.Bucket, cfg.S3.AccessKeyID, cfg.S3.SecretAccessKey, cfg.S3.BaseURL)
		uploadController = controller.NewUploadController(imageStorage)
	} else {
		logger.Warn("S3 credentials not configured, image uploads disabled")
	}

	r := router.NewRouter(
		controller.NewAuthController(authService),
		controller.NewListingController(listingService),
		controller.NewVendorController(vendorService, listingService, orderService),
		controller.NewOrderController(orderService),
		controller.NewReviewController(reviewService),
		controller.NewWishlistController(wishlistService),
		controller.NewNotificationController(notificationService),
		uploadController,
		controller.NewWebSocketController(hub, cfg.CORS.AllowedOrigins),
		middleware.NewAuthMiddleware(cfg.JWT.Secret),
		cfg,
	)
	engine := r.Setup()

	if cfg.Metrics.Enabled {
		stats := scheduler.NewStatsScheduler(cfg.Market.StatsCron, vendorRepo, listingRepo, orderRepo)
		if err := stats.Start(); err != nil {
			logger.Fatal("Failed to start stats scheduler", err)
		}
		defer stats.Stop()
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: engine,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}
	logger.Info("Server stopped successfully")
}
