package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"account-transfer-service/config"
	httpHandler "account-transfer-service/internal/adapter/http/handler"
	"account-transfer-service/internal/adapter/http/middleware"
	"account-transfer-service/internal/adapter/storage/memory"
	pgStorage "account-transfer-service/internal/adapter/storage/postgres"
	redisStorage "account-transfer-service/internal/adapter/storage/redis"
	"account-transfer-service/internal/core/ports"
	"account-transfer-service/internal/metrics"
	"account-transfer-service/internal/service"
	"account-transfer-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default: ./config.yaml or ./config/config.yaml)")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting Account Transfer Service")

	ctx := context.Background()

	// Metrics registry
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	var healthCheckers []ports.HealthChecker

	// Initialize Redis client (optional)
	var rdb *goredis.Client
	if cfg.Redis.Enabled {
		rdb, err = redisStorage.NewClient(ctx, cfg.Redis, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()
		healthCheckers = append(healthCheckers, redisStorage.NewHealthCheck(rdb))
	}

	// Initialize PostgreSQL pool (optional, audit trail only)
	var auditRepo ports.AuditRepository
	if cfg.Database.Enabled {
		pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
		}
		defer pool.Close()
		if err := pgStorage.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("Failed to migrate audit schema")
		}
		auditRepo = pgStorage.NewAuditRepository(pool)
		healthCheckers = append(healthCheckers, pgStorage.NewHealthCheck(pool))
	}

	// Core
	registry := memory.NewAccountRegistry()
	notifier := buildNotifier(cfg.Notify, rdb, log)
	executor := service.NewTransferExecutor(notifier, cfg.Transfer.LockTimeout, m, logger.Component(log, "executor"))

	// Business services
	accountSvc := service.NewAccountService(registry, logger.Component(log, "accounts"))
	var idempCache ports.IdempotencyCache
	if rdb != nil {
		idempCache = redisStorage.NewIdempotencyCache(rdb)
	}
	transferSvc := service.NewTransferService(registry, executor, idempCache, cfg.Transfer.IdempotencyTTL, m, logger.Component(log, "transfers"))
	auditSvc := service.NewAuditService(auditRepo, logger.Component(log, "audit"))

	if err := seedAccounts(ctx, accountSvc, cfg.Seed); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed accounts")
	}

	deps := httpHandler.RouterDeps{
		AccountSvc:     accountSvc,
		TransferSvc:    transferSvc,
		RateLimits:     rateLimitRules(cfg.RateLimit),
		HealthCheckers: healthCheckers,
		AuditSvc:       auditSvc,
		Metrics:        m,
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		Logger:         log,
	}
	if rdb != nil {
		deps.RateLimitStore = redisStorage.NewRateLimitStore(rdb)
	}
	if cfg.JWT.Secret != "" {
		deps.TokenSvc = service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
		log.Info().Str("issuer", cfg.JWT.Issuer).Msg("Bearer authentication enabled on /api/v1")
	}

	// Setup Gin router with all routes
	gin.SetMode(cfg.Server.Mode)
	router := httpHandler.SetupRouter(deps)

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	if err := notifier.Close(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("Pending notifications abandoned")
	}

	log.Info().Msg("Server exited")
}

// buildNotifier combines the configured notifiers. rdb may be nil.
func buildNotifier(cfg config.NotifyConfig, rdb *goredis.Client, log zerolog.Logger) *service.MultiNotifier {
	var notifiers []ports.Notifier

	if cfg.Log {
		notifiers = append(notifiers, service.NewLogNotifier(logger.Component(log, "notifier")))
	}
	if cfg.WebhookURL != "" {
		client := &http.Client{Timeout: cfg.WebhookTimeout}
		notifiers = append(notifiers, service.NewWebhookNotifier(cfg.WebhookURL, cfg.WebhookSecret, client, cfg.WebhookRetries, logger.Component(log, "webhook")))
	}
	if cfg.RedisChannel != "" {
		if rdb == nil {
			log.Warn().Str("channel", cfg.RedisChannel).Msg("notify.redis_channel set but redis is disabled, skipping")
		} else {
			notifiers = append(notifiers, redisStorage.NewNotifier(rdb, cfg.RedisChannel))
		}
	}

	multi := service.NewMultiNotifier(notifiers...)
	log.Info().Int("notifiers", multi.Len()).Msg("notifications configured")
	return multi
}

// seedAccounts creates the configured opening accounts.
func seedAccounts(ctx context.Context, accountSvc ports.AccountService, seeds []config.SeedAccount) error {
	for _, s := range seeds {
		balance, err := decimal.NewFromString(s.Balance)
		if err != nil {
			return fmt.Errorf("seed account %q: invalid balance %q: %w", s.ID, s.Balance, err)
		}
		if _, err := accountSvc.CreateAccount(ctx, s.ID, balance); err != nil {
			return fmt.Errorf("seed account %q: %w", s.ID, err)
		}
	}
	return nil
}

// rateLimitRules maps the per-minute config onto the router's endpoint groups.
func rateLimitRules(cfg config.RateLimitConfig) map[string]middleware.RateLimitRule {
	return map[string]middleware.RateLimitRule{
		"transfers": {Limit: cfg.TransfersPerMinute, Window: time.Minute},
		"accounts":  {Limit: cfg.AccountsPerMinute, Window: time.Minute},
	}
}
