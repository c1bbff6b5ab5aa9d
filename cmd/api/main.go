package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pix-ledger/config"
	"pix-ledger/internal/adapter/gateway"
	httpHandler "pix-ledger/internal/adapter/http/handler"
	pgStorage "pix-ledger/internal/adapter/storage/postgres"
	redisStorage "pix-ledger/internal/adapter/storage/redis"
	"pix-ledger/internal/core/ports"
	"pix-ledger/internal/service"
	"pix-ledger/pkg/logger"
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
		Msg("Starting PIX Ledger")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	accountRepo := pgStorage.NewAccountRepo(pool)
	entryRepo := pgStorage.NewEntryRepo(pool)
	withdrawalRepo := pgStorage.NewWithdrawalRepo(pool)
	refundRepo := pgStorage.NewRefundRepo(pool)
	approverRepo := pgStorage.NewApproverRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize Redis stores
	processingGuard := redisStorage.NewProcessingGuard(rdb)
	cooldownStore := redisStorage.NewCooldownStore(rdb)

	// Initialize core services
	sigSvc := service.NewHMACSignatureService()
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	payoutGateway := gateway.NewMisticPayClient(cfg.Gateway, logger.WithComponent(log, "gateway"))
	notifier := service.NewWebhookNotifier(cfg.Notify, sigSvc, &http.Client{Timeout: 10 * time.Second}, logger.WithComponent(log, "notifier"))

	// Initialize business services
	authSvc := service.NewAuthService(cfg.Operator, hashSvc, tokenSvc)
	ledgerSvc := service.NewLedgerService(accountRepo, entryRepo, transactor, logger.WithComponent(log, "ledger"))
	withdrawalSvc := service.NewWithdrawalService(
		ledgerSvc, withdrawalRepo, approverRepo, payoutGateway,
		processingGuard, cooldownStore, notifier,
		cfg.Fees, cfg.Workflow, logger.WithComponent(log, "withdrawal"),
	)
	refundSvc := service.NewRefundService(
		ledgerSvc, refundRepo, approverRepo, payoutGateway,
		processingGuard, cooldownStore, notifier,
		cfg.Fees, cfg.Workflow, logger.WithComponent(log, "refund"),
	)
	approverSvc := service.NewApproverService(approverRepo, logger.WithComponent(log, "approver"))
	paymentSvc := service.NewPaymentEventService(ledgerSvc, entryRepo, notifier, logger.WithComponent(log, "payment-events"))

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:        authSvc,
		LedgerSvc:      ledgerSvc,
		WithdrawalSvc:  withdrawalSvc,
		RefundSvc:      refundSvc,
		ApproverSvc:    approverSvc,
		PaymentSvc:     paymentSvc,
		TokenSvc:       tokenSvc,
		SigSvc:         sigSvc,
		WebhookSecret:  cfg.Webhook.Secret,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		Logger:         log,
	})

	// Stale-request sweeper: reverses pending withdrawals past their
	// lifetime. Disabled when ApprovalLifetime is zero.
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	if cfg.Workflow.ApprovalLifetime > 0 {
		go func() {
			ticker := time.NewTicker(cfg.Workflow.SweepInterval)
			defer ticker.Stop()
			for {
				select {
				case <-sweepCtx.Done():
					return
				case <-ticker.C:
					n, err := withdrawalSvc.ExpireOlderThan(sweepCtx, cfg.Workflow.ApprovalLifetime)
					if err != nil {
						log.Error().Err(err).Msg("withdrawal expiry sweep failed")
					} else if n > 0 {
						log.Info().Int("expired", n).Msg("withdrawal expiry sweep")
					}
				}
			}
		}()
	}

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
	stopSweep()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
