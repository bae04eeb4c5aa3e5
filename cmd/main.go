package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/time/rate"

	"github.com/danswara/promo-service/internal/audit"
	"github.com/danswara/promo-service/internal/blob"
	"github.com/danswara/promo-service/internal/client"
	"github.com/danswara/promo-service/internal/config"
	"github.com/danswara/promo-service/internal/database"
	"github.com/danswara/promo-service/internal/handler"
	"github.com/danswara/promo-service/internal/repository"
	"github.com/danswara/promo-service/internal/scheduler"
	"github.com/danswara/promo-service/internal/service"
)

func main() {
	ctx := context.Background()

	// Load configuration from environment variables
	cfg, err := config.Load(ctx)
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}

	if level, err := logrus.ParseLevel(cfg.App.LogLevel); err == nil {
		logrus.SetLevel(level)
	}
	if cfg.App.IsProduction() {
		logrus.SetFormatter(&logrus.JSONFormatter{})
		gin.SetMode(gin.ReleaseMode)
	}

	logrus.WithField("environment", cfg.App.Environment).Info("starting promo service")

	// Initialize database connections
	db, err := database.NewDB(ctx, cfg)
	if err != nil {
		logrus.WithError(err).Fatal("failed to connect to database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logrus.WithError(err).Error("error closing database connections")
		}
	}()

	if err := db.Migrate(ctx); err != nil {
		logrus.WithError(err).Fatal("failed to run migrations")
	}

	// Repositories
	campaignRepo := repository.NewCampaignRepository(db.Postgres)
	voucherRepo := repository.NewVoucherRepository(db.Postgres)
	storeRepo := repository.NewStoreRepository(db.Postgres)

	// External collaborators
	validator, err := client.NewValidator(cfg.Validator.BaseURL, cfg.Validator.Timeout,
		cfg.Validator.CacheSize, cfg.Validator.CacheTTL)
	if err != nil {
		logrus.WithError(err).Fatal("failed to create validator client")
	}
	notifier := client.NewNotifier(cfg.Notifier.URL, cfg.Notifier.Timeout)

	var images service.ImageUploader
	if cfg.Blob.Bucket != "" {
		imageStore, err := blob.NewImageStore(ctx, blob.Config{
			Region:   cfg.Blob.Region,
			Bucket:   cfg.Blob.Bucket,
			Key:      cfg.Blob.Key,
			Secret:   cfg.Blob.Secret,
			Endpoint: cfg.Blob.Endpoint,
		})
		if err != nil {
			logrus.WithError(err).Fatal("failed to create blob image store")
		}
		images = imageStore
	}

	// Services
	campaignService := service.NewCampaignService(campaignRepo, voucherRepo, storeRepo, validator, notifier)
	voucherService := service.NewVoucherService(voucherRepo, validator)
	storeService := service.NewStoreService(storeRepo, validator, images)

	// Expiry sweeper
	sweeper := scheduler.NewSweeper(campaignRepo, cfg.Sweeper.Interval)
	if cfg.Sweeper.Enabled {
		sweeper.Start()
		defer sweeper.Stop()
	}

	// Audit trail
	auditor := audit.NewLogPublisher(1024)
	defer auditor.Close()

	// HTTP routes
	claimLimiter := rate.NewLimiter(rate.Limit(cfg.Rate.ClaimRPS), cfg.Rate.ClaimBurst)
	router := handler.New(campaignService, voucherService, storeService).Router(auditor, claimLimiter)

	// Add health check endpoint
	router.GET("/health", func(c *gin.Context) {
		hostname, _ := os.Hostname()
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "promo-service", "hostname": hostname})
	})

	// Add database health check endpoint
	router.GET("/health/db", func(c *gin.Context) {
		if err := db.Postgres.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "message": "postgres unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "postgres": "connected"})
	})

	// Add Prometheus metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Create server with configuration optimized for high concurrency
	server := &http.Server{
		Addr:           cfg.Server.GetServerAddr(),
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:    120 * time.Second, // Keep connections alive longer
		MaxHeaderBytes: 1 << 20,           // 1MB
		// Use h2c so we can serve HTTP/2 without TLS
		Handler: h2c.NewHandler(router, &http2.Server{
			MaxConcurrentStreams: 1000, // Allow more concurrent streams
		}),
	}

	// Start server in goroutine
	go func() {
		logrus.WithField("addr", server.Addr).Info("listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Fatal("server forced to shutdown")
	}

	logrus.Info("server exited gracefully")
}
