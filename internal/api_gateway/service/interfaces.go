package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/medallion-fleet-ledger/internal/domain/balance"
	"github.com/medallion-fleet-ledger/internal/domain/lease"
	"github.com/medallion-fleet-ledger/internal/domain/payment"
	"github.com/medallion-fleet-ledger/internal/domain/posting"
	"github.com/medallion-fleet-ledger/internal/domain/settlement"
	"github.com/medallion-fleet-ledger/internal/domain/shared"
)

// LeaseService defines the interface for lease registry operations
type LeaseService interface {
	// CreateLease registers a new driver/vehicle lease
	CreateLease(ctx context.Context, driverID uuid.UUID, vehicleID, medallionID *uuid.UUID, startDate time.Time) (*lease.Lease, error)

	// GetLeaseByID retrieves a lease by its ID
	// Returns ErrLeaseNotFound if the lease doesn't exist
	GetLeaseByID(ctx context.Context, id uuid.UUID) (*lease.Lease, error)
}

// ImportService accepts batches of obligation requests and hands them to the
// settlement worker over Kafka, one message per item so a bad item never
// aborts its siblings.
type ImportService interface {
	// SubmitObligations publishes each request and returns the request IDs in
	// submission order
	SubmitObligations(ctx context.Context, requests []*shared.ObligationRequest) ([]uuid.UUID, error)
}

// QueryService defines the read surface of the ledger
type QueryService interface {
	// GetPostingByID retrieves a posting by its ID
	// Returns ErrPostingNotFound if the posting doesn't exist
	GetPostingByID(ctx context.Context, id uuid.UUID) (*posting.Posting, error)

	// GetPostingsByLease retrieves a paginated list of postings for a lease
	// Returns postings, total count, and any error
	GetPostingsByLease(ctx context.Context, leaseID uuid.UUID, page, perPage int) ([]*posting.Posting, int64, error)

	// GetBalanceByID retrieves a balance by its ID
	// Returns ErrBalanceNotFound if the balance doesn't exist
	GetBalanceByID(ctx context.Context, id uuid.UUID) (*balance.Balance, error)

	// GetOutstandingBalances lists a lease's OPEN and PARTIALLY_PAID balances
	// in allocation priority order
	GetOutstandingBalances(ctx context.Context, leaseID uuid.UUID) ([]*balance.Balance, error)

	// GetPaymentByID retrieves a payment together with its allocation details
	GetPaymentByID(ctx context.Context, id uuid.UUID) (*payment.Payment, []*payment.AllocationDetail, error)

	// GetSettlementByID retrieves a settlement by its ID
	GetSettlementByID(ctx context.Context, id uuid.UUID) (*settlement.Settlement, error)

	// GetSettlementsByLease retrieves a paginated list of settlements for a
	// lease, newest period first, superseded generations included
	GetSettlementsByLease(ctx context.Context, leaseID uuid.UUID, page, perPage int) ([]*settlement.Settlement, error)
}
