package api_gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/medallion-fleet-ledger/internal/api_gateway/handler"
	"github.com/medallion-fleet-ledger/internal/api_gateway/service"
	"github.com/medallion-fleet-ledger/internal/config"
	"github.com/medallion-fleet-ledger/internal/ledger"
)

// Server handles HTTP requests and manages the application's lifecycle
type Server struct {
	logger     *slog.Logger // For structured logging
	httpServer *http.Server // Underlying HTTP server
	httpRouter *gin.Engine  // Gin router instance
}

// HealthChecker reports whether the ledger store is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Services groups everything the HTTP surface exposes
type Services struct {
	Lease      service.LeaseService
	Import     service.ImportService
	Query      service.QueryService
	Obligation ledger.ObligationService
	Allocation ledger.AllocationService
	Settlement ledger.SettlementService
	Health     HealthChecker
}

// NewServer creates and configures a new HTTP server with the given services
func NewServer(log *slog.Logger, cfg *config.Config, services Services) *Server {
	if cfg.Application.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	httpRouter := gin.New()

	leaseHandler := handler.NewLeaseHandler(log, services.Lease)
	obligationHandler := handler.NewObligationHandler(log, services.Obligation, services.Import, services.Query)
	paymentHandler := handler.NewPaymentHandler(log, services.Allocation, services.Query)
	settlementHandler := handler.NewSettlementHandler(log, services.Settlement, services.Query)

	setupRouter(log, httpRouter, leaseHandler, obligationHandler, paymentHandler, settlementHandler, services.Health)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Server{
		logger:     log,
		httpServer: httpServer,
		httpRouter: httpRouter,
	}
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the HTTP server with a timeout
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")

	// Use server's write timeout for graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(ctx, s.httpServer.WriteTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop HTTP server: %w", err)
	}

	return nil
}
