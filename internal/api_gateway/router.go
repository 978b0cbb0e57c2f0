package api_gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/medallion-fleet-ledger/internal/api_gateway/handler"
	"github.com/medallion-fleet-ledger/internal/api_gateway/middleware"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	leaseHandler *handler.LeaseHandler,
	obligationHandler *handler.ObligationHandler,
	paymentHandler *handler.PaymentHandler,
	settlementHandler *handler.SettlementHandler,
	health HealthChecker,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CorrelationID())

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		// Lease registry
		leases := v1.Group("/leases")
		{
			leases.POST("", leaseHandler.Create)
			leases.GET("/:id", leaseHandler.GetByID)
			leases.GET("/:id/postings", obligationHandler.GetPostingsByLease)
			leases.GET("/:id/balances", obligationHandler.GetBalancesByLease)
			leases.GET("/:id/settlements", settlementHandler.GetByLease)
		}

		// Obligation API
		obligations := v1.Group("/obligations")
		{
			obligations.POST("", obligationHandler.Create)
			obligations.POST("/import", obligationHandler.Import)
		}

		// Posting reads and corrections
		postings := v1.Group("/postings")
		{
			postings.GET("/:id", obligationHandler.GetPosting)
			postings.POST("/:id/void", obligationHandler.Void)
		}

		// Balance reads
		balances := v1.Group("/balances")
		{
			balances.GET("/:id", obligationHandler.GetBalance)
		}

		// Payment allocation
		payments := v1.Group("/payments")
		{
			payments.POST("", paymentHandler.Allocate)
			payments.GET("/:id", paymentHandler.GetByID)
		}

		// Weekly settlements
		settlements := v1.Group("/settlements")
		{
			settlements.POST("", settlementHandler.Generate)
			settlements.GET("/:id", settlementHandler.GetByID)
		}
	}

	// Health check endpoint for monitoring; reports the ledger store too.
	r.GET("/health", func(c *gin.Context) {
		if health != nil {
			if err := health.HealthCheck(c.Request.Context()); err != nil {
				logger.Error("Health check failed", "error", err)
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "timestamp": time.Now().UTC()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
