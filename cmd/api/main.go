package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tracebloom/config"
	httpHandler "tracebloom/internal/adapter/http/handler"
	pgStorage "tracebloom/internal/adapter/storage/postgres"
	redisStorage "tracebloom/internal/adapter/storage/redis"
	"tracebloom/internal/core/ports"
	"tracebloom/internal/service"
	"tracebloom/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting TraceBloom")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// Initialize repositories
	identityRepo := pgStorage.NewIdentityRepo(pool)
	batchRepo := pgStorage.NewBatchRepo(pool)
	eventRepo := pgStorage.NewBatchEventRepo(pool)
	paymentRepo := pgStorage.NewPaymentRepo(pool)
	shipmentRepo := pgStorage.NewShipmentRepo(pool)
	reviewRepo := pgStorage.NewReviewRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize Redis stores
	challengeStore := redisStorage.NewChallengeStore(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Initialize core services
	encSvc, err := service.NewAESEncryptionService(cfg.AES.Key)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize encryption service")
	}
	sigVerifier := service.NewEthSignatureVerifier()
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)

	// Initialize business services
	authSvc := service.NewAuthService(identityRepo, challengeStore, sigVerifier, hashSvc, tokenSvc, cfg.Challenge.TTL, log)
	batchSvc := service.NewBatchService(batchRepo, eventRepo, paymentRepo, shipmentRepo, encSvc, transactor, cfg.Pricing.UnitRate, log)
	ledgerSvc := service.NewLedgerService(batchRepo, paymentRepo, shipmentRepo, reviewRepo, log)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:        authSvc,
		BatchSvc:       batchSvc,
		LedgerSvc:      ledgerSvc,
		SigVerifier:    sigVerifier,
		TokenSvc:       tokenSvc,
		RateLimitStore: rateLimitStore,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
