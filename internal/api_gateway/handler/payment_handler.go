package handler

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/medallion-fleet-ledger/internal/api_gateway/service"
	"github.com/medallion-fleet-ledger/internal/domain/lease"
	"github.com/medallion-fleet-ledger/internal/domain/payment"
	"github.com/medallion-fleet-ledger/internal/domain/shared"
	"github.com/medallion-fleet-ledger/internal/ledger"
)

// PaymentHandler handles HTTP requests for payment allocation
type PaymentHandler struct {
	allocationService ledger.AllocationService
	queryService      service.QueryService
	logger            *slog.Logger
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(logger *slog.Logger, allocationService ledger.AllocationService, queryService service.QueryService) *PaymentHandler {
	return &PaymentHandler{
		allocationService: allocationService,
		queryService:      queryService,
		logger:            logger,
	}
}

// Allocate distributes a payment across the lease's open balances. Running
// out of open balances leaves a reported unallocated remainder, not an error.
func (h *PaymentHandler) Allocate(c *gin.Context) {
	var req AllocatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	driverID, err := uuid.Parse(req.DriverID)
	if err != nil {
		RespondBadRequest(c, "Invalid driver ID")
		return
	}
	leaseID, err := uuid.Parse(req.LeaseID)
	if err != nil {
		RespondBadRequest(c, "Invalid lease ID")
		return
	}
	periodStart, err := parseTime(req.PeriodStart)
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}
	periodEnd, err := parseTime(req.PeriodEnd)
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	result, err := h.allocationService.Allocate(c.Request.Context(), ledger.AllocateParams{
		DriverID:    driverID,
		LeaseID:     leaseID,
		Amount:      req.Amount,
		Source:      shared.PaymentSource(req.Source),
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		Actor:       req.Actor,
	})
	if err != nil {
		if errors.Is(err, lease.ErrLeaseNotFound{}) {
			RespondNotFound(c, "Lease not found")
			return
		}
		if errors.Is(err, lease.ErrDriverMismatch{}) {
			RespondBadRequest(c, "Driver does not hold this lease")
			return
		}
		h.logger.Error("Failed to allocate payment", "lease_id", req.LeaseID, "error", err)
		RespondInternalError(c)
		return
	}

	RespondCreated(c, mapPaymentToResponse(result.Payment, result.Details))
}

// GetByID retrieves a payment together with its allocation details
func (h *PaymentHandler) GetByID(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		RespondBadRequest(c, "Invalid payment ID")
		return
	}

	p, details, err := h.queryService.GetPaymentByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, payment.ErrPaymentNotFound{}) {
			RespondNotFound(c, "Payment not found")
			return
		}
		h.logger.Error("Failed to get payment", "payment_id", idParam, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapPaymentToResponse(p, details))
}
