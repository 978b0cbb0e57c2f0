package handler

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/medallion-fleet-ledger/internal/api_gateway/service"
	"github.com/medallion-fleet-ledger/internal/domain/lease"
	"github.com/medallion-fleet-ledger/internal/domain/settlement"
	"github.com/medallion-fleet-ledger/internal/ledger"
)

// SettlementHandler handles HTTP requests for weekly settlements
type SettlementHandler struct {
	settlementService ledger.SettlementService
	queryService      service.QueryService
	logger            *slog.Logger
}

// NewSettlementHandler creates a new settlement handler
func NewSettlementHandler(logger *slog.Logger, settlementService ledger.SettlementService, queryService service.QueryService) *SettlementHandler {
	return &SettlementHandler{
		settlementService: settlementService,
		queryService:      queryService,
		logger:            logger,
	}
}

// Generate runs settlement for one lease and payment week, on demand. The
// period is normalized to the Sunday-to-Saturday week containing PeriodStart.
func (h *SettlementHandler) Generate(c *gin.Context) {
	var req GenerateSettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
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
	period := ledger.WeekOf(periodStart)

	actor := req.Actor
	if actor == "" {
		actor = "api"
	}

	s, err := h.settlementService.GenerateSettlement(c.Request.Context(), ledger.GenerateSettlementParams{
		LeaseID:     leaseID,
		PeriodStart: period.Start,
		PeriodEnd:   period.End,
		Actor:       actor,
		Regenerate:  req.Regenerate,
	})
	if err != nil {
		if errors.Is(err, lease.ErrLeaseNotFound{}) {
			RespondNotFound(c, "Lease not found")
			return
		}
		if errors.Is(err, settlement.ErrSettlementExists{}) {
			RespondConflict(c, "Settlement already exists for this period; set regenerate to supersede it")
			return
		}
		h.logger.Error("Failed to generate settlement", "lease_id", req.LeaseID, "error", err)
		RespondInternalError(c)
		return
	}

	RespondCreated(c, mapSettlementToResponse(s))
}

// GetByID retrieves a settlement by its ID
func (h *SettlementHandler) GetByID(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		RespondBadRequest(c, "Invalid settlement ID")
		return
	}

	s, err := h.queryService.GetSettlementByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, settlement.ErrSettlementNotFound{}) {
			RespondNotFound(c, "Settlement not found")
			return
		}
		h.logger.Error("Failed to get settlement", "settlement_id", idParam, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapSettlementToResponse(s))
}

// GetByLease retrieves paginated settlements for a lease, newest period first
func (h *SettlementHandler) GetByLease(c *gin.Context) {
	idParam := c.Param("id")
	leaseID, err := uuid.Parse(idParam)
	if err != nil {
		RespondBadRequest(c, "Invalid lease ID")
		return
	}

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters: "+err.Error())
		return
	}

	settlements, err := h.queryService.GetSettlementsByLease(c.Request.Context(), leaseID, pagination.Page, pagination.PerPage)
	if err != nil {
		h.logger.Error("Failed to get settlements", "lease_id", idParam, "error", err)
		RespondInternalError(c)
		return
	}

	list := SettlementListResponse{Settlements: make([]SettlementResponse, 0, len(settlements))}
	for _, s := range settlements {
		list.Settlements = append(list.Settlements, mapSettlementToResponse(s))
	}
	RespondOK(c, list)
}
