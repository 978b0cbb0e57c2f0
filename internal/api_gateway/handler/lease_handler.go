package handler

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/medallion-fleet-ledger/internal/api_gateway/service"
	"github.com/medallion-fleet-ledger/internal/domain/lease"
)

// LeaseHandler handles HTTP requests for the lease registry
type LeaseHandler struct {
	leaseService service.LeaseService
	logger       *slog.Logger
}

// NewLeaseHandler creates a new lease handler
func NewLeaseHandler(logger *slog.Logger, leaseService service.LeaseService) *LeaseHandler {
	return &LeaseHandler{
		leaseService: leaseService,
		logger:       logger,
	}
}

// Create registers a new lease
func (h *LeaseHandler) Create(c *gin.Context) {
	var req CreateLeaseRequest
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

	var vehicleID, medallionID *uuid.UUID
	if req.VehicleID != nil {
		id, err := uuid.Parse(*req.VehicleID)
		if err != nil {
			RespondBadRequest(c, "Invalid vehicle ID")
			return
		}
		vehicleID = &id
	}
	if req.MedallionID != nil {
		id, err := uuid.Parse(*req.MedallionID)
		if err != nil {
			RespondBadRequest(c, "Invalid medallion ID")
			return
		}
		medallionID = &id
	}

	startDate, err := parseTime(req.StartDate)
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	l, err := h.leaseService.CreateLease(c.Request.Context(), driverID, vehicleID, medallionID, startDate)
	if err != nil {
		h.logger.Error("Failed to create lease", "error", err)
		RespondInternalError(c)
		return
	}

	RespondCreated(c, mapLeaseToResponse(l))
}

// GetByID retrieves a lease by its ID, returning 404 if not found
func (h *LeaseHandler) GetByID(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid lease ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid lease ID")
		return
	}

	l, err := h.leaseService.GetLeaseByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, lease.ErrLeaseNotFound{}) {
			RespondNotFound(c, "Lease not found")
			return
		}
		h.logger.Error("Failed to get lease", "id", idParam, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapLeaseToResponse(l))
}
