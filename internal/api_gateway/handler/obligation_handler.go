package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/medallion-fleet-ledger/internal/api_gateway/middleware"
	"github.com/medallion-fleet-ledger/internal/api_gateway/service"
	"github.com/medallion-fleet-ledger/internal/domain/balance"
	"github.com/medallion-fleet-ledger/internal/domain/lease"
	"github.com/medallion-fleet-ledger/internal/domain/posting"
	"github.com/medallion-fleet-ledger/internal/domain/shared"
	"github.com/medallion-fleet-ledger/internal/ledger"
)

// ObligationHandler handles HTTP requests for obligations, postings and
// balance reads
type ObligationHandler struct {
	obligationService ledger.ObligationService
	importService     service.ImportService
	queryService      service.QueryService
	logger            *slog.Logger
}

// NewObligationHandler creates a new obligation handler
func NewObligationHandler(
	logger *slog.Logger,
	obligationService ledger.ObligationService,
	importService service.ImportService,
	queryService service.QueryService,
) *ObligationHandler {
	return &ObligationHandler{
		obligationService: obligationService,
		importService:     importService,
		queryService:      queryService,
		logger:            logger,
	}
}

// Create records one charge synchronously: a DEBIT posting plus its balance
func (h *ObligationHandler) Create(c *gin.Context) {
	var req CreateObligationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	params, err := obligationParamsFromRequest(&req)
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	p, b, err := h.obligationService.CreateObligation(c.Request.Context(), *params)
	if err != nil {
		var dup balance.ErrDuplicateObligation
		if errors.As(err, &dup) {
			h.logger.Warn("Duplicate obligation rejected",
				"category", string(dup.Category),
				"reference", dup.ReferenceType+"/"+dup.ReferenceID,
			)
			RespondConflict(c, "An open obligation already exists for this reference")
			return
		}
		if errors.Is(err, lease.ErrLeaseNotFound{}) {
			RespondNotFound(c, "Lease not found")
			return
		}
		if errors.Is(err, lease.ErrDriverMismatch{}) {
			RespondBadRequest(c, "Driver does not hold this lease")
			return
		}
		if errors.Is(err, shared.ErrInvalidCategory) || errors.Is(err, posting.ErrInvalidAmount) {
			RespondBadRequest(c, err.Error())
			return
		}
		h.logger.Error("Failed to create obligation", "error", err)
		RespondInternalError(c)
		return
	}

	RespondCreated(c, ObligationResponse{
		Posting: mapPostingToResponse(p),
		Balance: mapBalanceToResponse(b),
	})
}

// Import accepts a batch of obligations for asynchronous recording
func (h *ObligationHandler) Import(c *gin.Context) {
	var req ImportObligationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	correlationID := middleware.GetCorrelationID(c)
	requests := make([]*shared.ObligationRequest, 0, len(req.Items))
	for i := range req.Items {
		or, err := importRequestFromItem(&req.Items[i])
		if err != nil {
			RespondBadRequest(c, err.Error())
			return
		}
		or.CorrelationID = correlationID
		requests = append(requests, or)
	}

	ids, err := h.importService.SubmitObligations(c.Request.Context(), requests)
	if err != nil {
		h.logger.Error("Failed to submit obligation batch", "accepted", len(ids), "error", err)
		RespondInternalError(c)
		return
	}

	resp := ImportObligationsResponse{RequestIDs: make([]string, 0, len(ids))}
	for _, id := range ids {
		resp.RequestIDs = append(resp.RequestIDs, id.String())
	}
	RespondAccepted(c, resp)
}

// Void reverses a posting with an equal-and-opposite posting
func (h *ObligationHandler) Void(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		RespondBadRequest(c, "Invalid posting ID")
		return
	}

	var req VoidPostingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	reversal, b, err := h.obligationService.VoidPosting(c.Request.Context(), id, req.Reason, req.Actor)
	if err != nil {
		if errors.Is(err, posting.ErrPostingNotFound{}) {
			RespondNotFound(c, "Posting not found")
			return
		}
		var voided posting.ErrAlreadyVoided
		if errors.As(err, &voided) {
			RespondConflict(c, "Posting was already voided by "+voided.ReversalID.String())
			return
		}
		if errors.Is(err, ledger.ErrVoidReversal) {
			RespondBadRequest(c, "Reversal postings cannot be voided")
			return
		}
		h.logger.Error("Failed to void posting", "posting_id", idParam, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, ObligationResponse{
		Posting: mapPostingToResponse(reversal),
		Balance: mapBalanceToResponse(b),
	})
}

// GetPosting retrieves a posting by its ID
func (h *ObligationHandler) GetPosting(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		RespondBadRequest(c, "Invalid posting ID")
		return
	}

	p, err := h.queryService.GetPostingByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, posting.ErrPostingNotFound{}) {
			RespondNotFound(c, "Posting not found")
			return
		}
		h.logger.Error("Failed to get posting", "posting_id", idParam, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapPostingToResponse(p))
}

// GetPostingsByLease retrieves paginated postings for a lease
func (h *ObligationHandler) GetPostingsByLease(c *gin.Context) {
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

	postings, total, err := h.queryService.GetPostingsByLease(c.Request.Context(), leaseID, pagination.Page, pagination.PerPage)
	if err != nil {
		h.logger.Error("Failed to get postings", "lease_id", idParam, "error", err)
		RespondInternalError(c)
		return
	}

	list := PostingListResponse{Postings: make([]PostingResponse, 0, len(postings))}
	for _, p := range postings {
		list.Postings = append(list.Postings, mapPostingToResponse(p))
	}
	RespondWithPaginatedData(c, http.StatusOK, list, pagination.Page, pagination.PerPage, int(total))
}

// GetBalance retrieves a balance by its ID
func (h *ObligationHandler) GetBalance(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		RespondBadRequest(c, "Invalid balance ID")
		return
	}

	b, err := h.queryService.GetBalanceByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, balance.ErrBalanceNotFound{}) {
			RespondNotFound(c, "Balance not found")
			return
		}
		h.logger.Error("Failed to get balance", "balance_id", idParam, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapBalanceToResponse(b))
}

// GetBalancesByLease lists a lease's open balances in allocation order
func (h *ObligationHandler) GetBalancesByLease(c *gin.Context) {
	idParam := c.Param("id")
	leaseID, err := uuid.Parse(idParam)
	if err != nil {
		RespondBadRequest(c, "Invalid lease ID")
		return
	}

	balances, err := h.queryService.GetOutstandingBalances(c.Request.Context(), leaseID)
	if err != nil {
		h.logger.Error("Failed to get balances", "lease_id", idParam, "error", err)
		RespondInternalError(c)
		return
	}

	list := BalanceListResponse{Balances: make([]BalanceResponse, 0, len(balances))}
	for _, b := range balances {
		list.Balances = append(list.Balances, mapBalanceToResponse(b))
	}
	RespondOK(c, list)
}

func obligationParamsFromRequest(req *CreateObligationRequest) (*ledger.CreateObligationParams, error) {
	driverID, err := uuid.Parse(req.DriverID)
	if err != nil {
		return nil, errors.New("invalid driver ID")
	}
	leaseID, err := uuid.Parse(req.LeaseID)
	if err != nil {
		return nil, errors.New("invalid lease ID")
	}

	params := &ledger.CreateObligationParams{
		Category:      shared.Category(req.Category),
		Amount:        req.Amount,
		ReferenceType: req.ReferenceType,
		ReferenceID:   req.ReferenceID,
		DriverID:      driverID,
		LeaseID:       leaseID,
		Description:   req.Description,
		Actor:         req.Actor,
	}

	if req.VehicleID != "" {
		id, err := uuid.Parse(req.VehicleID)
		if err != nil {
			return nil, errors.New("invalid vehicle ID")
		}
		params.VehicleID = &id
	}
	if req.MedallionID != "" {
		id, err := uuid.Parse(req.MedallionID)
		if err != nil {
			return nil, errors.New("invalid medallion ID")
		}
		params.MedallionID = &id
	}
	if params.PeriodStart, err = parseOptionalTime(req.PeriodStart); err != nil {
		return nil, err
	}
	if params.PeriodEnd, err = parseOptionalTime(req.PeriodEnd); err != nil {
		return nil, err
	}
	if params.DueDate, err = parseOptionalTime(req.DueDate); err != nil {
		return nil, err
	}

	return params, nil
}

func importRequestFromItem(item *CreateObligationRequest) (*shared.ObligationRequest, error) {
	params, err := obligationParamsFromRequest(item)
	if err != nil {
		return nil, err
	}

	return &shared.ObligationRequest{
		RequestID:     uuid.New(),
		Category:      params.Category,
		Amount:        params.Amount,
		ReferenceType: params.ReferenceType,
		ReferenceID:   params.ReferenceID,
		DriverID:      params.DriverID,
		LeaseID:       params.LeaseID,
		VehicleID:     params.VehicleID,
		MedallionID:   params.MedallionID,
		PeriodStart:   params.PeriodStart,
		PeriodEnd:     params.PeriodEnd,
		DueDate:       params.DueDate,
		Description:   params.Description,
	}, nil
}
