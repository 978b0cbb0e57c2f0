package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/medallion-fleet-ledger/internal/api_gateway"
	"github.com/medallion-fleet-ledger/internal/api_gateway/service"
	"github.com/medallion-fleet-ledger/internal/config"
	"github.com/medallion-fleet-ledger/internal/data/postgres"
	"github.com/medallion-fleet-ledger/internal/ledger"
	"github.com/medallion-fleet-ledger/internal/logger"
	"github.com/medallion-fleet-ledger/internal/platform/messaging/producers"
	"github.com/medallion-fleet-ledger/internal/platform/persistence"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("api_gateway")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	// Initialize database with app context
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	// Initialize Kafka producer for the obligation import pipeline
	kafkaProducer, err := producers.NewObligationReqMessageProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize obligation Kafka producer", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	leaseRepo := postgres.NewLeaseRepository(log, postgresDB)
	postingRepo := postgres.NewPostingRepository(log, postgresDB)
	balanceRepo := postgres.NewBalanceRepository(log, postgresDB)
	paymentRepo := postgres.NewPaymentRepository(log, postgresDB)
	settlementRepo := postgres.NewSettlementRepository(log, postgresDB)
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)
	earningsRepo := postgres.NewEarningsRepository(log, postgresDB)

	// Initialize services
	services := api_gateway.Services{
		Lease:      service.NewLeaseService(leaseRepo),
		Import:     service.NewImportService(log, kafkaProducer),
		Query:      service.NewQueryService(postingRepo, balanceRepo, paymentRepo, settlementRepo),
		Obligation: ledger.NewObligationService(log, postgresDB, leaseRepo, postingRepo, balanceRepo),
		Allocation: ledger.NewAllocationService(log, postgresDB, leaseRepo, postingRepo, balanceRepo, paymentRepo),
		Settlement: ledger.NewSettlementService(log, postgresDB, leaseRepo, postingRepo, settlementRepo, outboxRepo, earningsRepo),
		Health:     postgresDB,
	}

	// Initialize REST server
	server := api_gateway.NewServer(log, cfg, services)
	log.Info("REST server initialized")

	// Create error channel for server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Shutdown postgres connection pool
	postgresDB.Close()

	// Shutdown HTTP server
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	if err = kafkaProducer.Close(); err != nil {
		log.Error("Error closing Kafka producer", "error", err)
	}

	// Final status
	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Server shutdown completed with errors")
	} else {
		log.Info("Server shutdown completed successfully")
	}
}
