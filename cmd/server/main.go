package main

import (
	"context"   // Startup and shutdown deadlines
	"errors"    // Server close detection
	"net/http"  // HTTP server
	"os"        // Signals
	"os/signal" // Graceful shutdown
	"strings"   // URL joining
	"syscall"   // SIGTERM
	"time"      // Timeouts

	"pix_gateway/internal/api"       // HTTP handlers and routes
	"pix_gateway/internal/config"    // Configuration
	"pix_gateway/internal/db"        // Database connection
	"pix_gateway/internal/gateway"   // PIX processor client
	"pix_gateway/internal/scheduler" // Daily jobs
	"pix_gateway/internal/service"   // Business rules
	"pix_gateway/internal/store"     // Ledger store

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration
	setupLogger(cfg)
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, cfg.DBDriver, cfg.DSN())
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}
	if cfg.AutoMigrate {
		if err := db.Migrate(conn); err != nil {
			logrus.Fatalf("%v", err)
		}
	}
	ledger := store.New(conn)

	// Redis is optional; without it every read goes to the database
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr, // Redis server address
			Password: cfg.RedisPass, // Redis password
			DB:       cfg.RedisDB,   // Redis database number
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logrus.WithField("error", err.Error()).Warn("Redis unavailable, caching disabled")
			_ = redisClient.Close()
			redisClient = nil
		}
	}

	processor := gateway.NewClient(gateway.Config{
		BaseURL:      cfg.GatewayURL,
		ClientID:     cfg.GatewayClientID,
		ClientSecret: cfg.GatewayClientSecret,
		Timeout:      cfg.GatewayTimeout,
	})
	webhookURL := ""
	if cfg.PublicBaseURL != "" {
		webhookURL = strings.TrimRight(cfg.PublicBaseURL, "/") + "/api/transactions/webhook"
	}
	svc := service.New(ledger, ledger, ledger, processor, service.Options{
		BaseRates:          cfg.BaseRates,
		MinDepositCents:    cfg.MinDepositCents,
		MinWithdrawalCents: cfg.MinWithdrawalCents,
		WebhookURL:         webhookURL,
	})

	jobs, err := scheduler.NewScheduler(ledger, cfg.DailyResetCron, cfg.Timezone)
	if err != nil {
		logrus.Fatalf("failed to schedule jobs: %v", err)
	}
	jobs.Start()
	defer jobs.Stop()

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}
	router, err := api.NewRouter(api.Deps{
		Service:        svc,
		Store:          ledger,
		Redis:          redisClient,
		JWTSecret:      cfg.JWTSecret,
		JWTTTL:         cfg.JWTTTL,
		BaseRates:      cfg.BaseRates,
		PublicBaseURL:  cfg.PublicBaseURL,
		TrustedProxies: cfg.TrustedProxies,
	})
	if err != nil {
		logrus.Fatalf("failed to set up routes: %v", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.GatewayTimeout + 15*time.Second, // Outlive a processor call
	}
	go func() {
		logrus.WithField("port", cfg.AppPort).Info("Server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logrus.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GatewayTimeout+5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithField("error", err.Error()).Error("Graceful shutdown failed")
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
}

// setupLogger applies LOG_FORMAT and LOG_LEVEL
func setupLogger(cfg *config.Config) {
	if cfg.LogFormat == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}
