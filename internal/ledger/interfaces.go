package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/medallion-fleet-ledger/internal/domain/balance"
	"github.com/medallion-fleet-ledger/internal/domain/payment"
	"github.com/medallion-fleet-ledger/internal/domain/posting"
	"github.com/medallion-fleet-ledger/internal/domain/settlement"
	"github.com/medallion-fleet-ledger/internal/domain/shared"
)

// TxRunner executes a function inside one database transaction, committing on
// nil and rolling back otherwise. persistence.PostgresDB satisfies it.
type TxRunner interface {
	ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// CreateObligationParams carries everything needed to record one charge.
type CreateObligationParams struct {
	Category      shared.Category
	Amount        int64 // Cents/minor units, must be positive
	ReferenceType string
	ReferenceID   string
	DriverID      uuid.UUID
	LeaseID       uuid.UUID
	VehicleID     *uuid.UUID
	MedallionID   *uuid.UUID
	PeriodStart   *time.Time
	PeriodEnd     *time.Time
	DueDate       *time.Time
	Description   string
	Actor         string
}

// ObligationService is the contract source modules use to create charges and
// correct prior postings. Side effects are limited to the posting store and
// balance tracker; it never calls back into source modules.
type ObligationService interface {
	// CreateObligation writes one DEBIT posting and one OPEN balance
	// atomically. Returns ErrDuplicateObligation when a non-voided balance
	// already exists for the (category, reference_type, reference_id) triple.
	CreateObligation(ctx context.Context, params CreateObligationParams) (*posting.Posting, *balance.Balance, error)

	// VoidPosting reverses a posting with an equal-and-opposite posting and
	// settles the owning balance. The original posting is never edited or
	// deleted; both stay readable.
	VoidPosting(ctx context.Context, postingID uuid.UUID, reason, actor string) (*posting.Posting, *balance.Balance, error)
}

// AllocateParams describes one incoming payment to distribute.
type AllocateParams struct {
	DriverID    uuid.UUID
	LeaseID     uuid.UUID
	Amount      int64
	Source      shared.PaymentSource
	PeriodStart time.Time
	PeriodEnd   time.Time
	Actor       string
}

// AllocationResult reports how a payment was spread across balances. Any
// unallocated remainder is returned to the caller, never silently discarded.
type AllocationResult struct {
	Payment *payment.Payment
	Details []*payment.AllocationDetail
}

// AllocationService distributes incoming payments across a lease's open
// balances in fixed category priority order, due date ascending within a
// category. Running out of funds mid-way is expected, not a failure.
type AllocationService interface {
	Allocate(ctx context.Context, params AllocateParams) (*AllocationResult, error)
}

// GenerateSettlementParams identifies one lease/period aggregation run.
type GenerateSettlementParams struct {
	LeaseID     uuid.UUID
	PeriodStart time.Time
	PeriodEnd   time.Time
	Actor       string
	Regenerate  bool
}

// SettlementService aggregates a week's postings into the immutable DTR.
type SettlementService interface {
	// GenerateSettlement fails with ErrSettlementExists unless Regenerate is
	// set; a regeneration writes a new record and flags the prior one
	// superseded, preserving the full audit trail of recomputations.
	GenerateSettlement(ctx context.Context, params GenerateSettlementParams) (*settlement.Settlement, error)
}
