package settlement

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository persists settlements. Records are append-only and generation
// sequenced; MarkSuperseded is the single permitted mutation and only flips
// the superseded flag when a regeneration commits.
type Repository interface {
	Create(ctx context.Context, s *Settlement) error
	GetByID(ctx context.Context, id uuid.UUID) (*Settlement, error)

	// GetCurrent returns the latest non-superseded settlement for the lease
	// and period start, or nil when none exists.
	GetCurrent(ctx context.Context, leaseID uuid.UUID, periodStart time.Time) (*Settlement, error)

	// GetLatestBefore returns the most recent non-superseded settlement whose
	// period ended before the given period start; its TotalDue is the prior
	// balance carried forward.
	GetLatestBefore(ctx context.Context, leaseID uuid.UUID, periodStart time.Time) (*Settlement, error)

	GetByLease(ctx context.Context, leaseID uuid.UUID, limit, offset int) ([]*Settlement, error)
	MarkSuperseded(ctx context.Context, id uuid.UUID) error
	WithTx(tx pgx.Tx) Repository
}

// EarningsSource supplies gross weekly earnings per lease and period. The
// figures are owned by the external trip-revenue module; the ledger core only
// reads them.
type EarningsSource interface {
	GrossEarnings(ctx context.Context, leaseID uuid.UUID, periodStart time.Time) (int64, error)
}

// ErrSettlementNotFound indicates a missing settlement
type ErrSettlementNotFound struct {
	SettlementID uuid.UUID
}

func (e ErrSettlementNotFound) Error() string {
	return "settlement not found: " + e.SettlementID.String()
}

// Is implements the errors.Is interface for ErrSettlementNotFound
func (e ErrSettlementNotFound) Is(target error) bool {
	t, ok := target.(ErrSettlementNotFound)
	if !ok {
		return false
	}
	if t.SettlementID == uuid.Nil {
		return true
	}
	return e.SettlementID == t.SettlementID
}

// ErrSettlementExists indicates a settlement already covers the lease/period
// and regeneration was not explicitly requested.
type ErrSettlementExists struct {
	LeaseID     uuid.UUID
	PeriodStart time.Time
}

func (e ErrSettlementExists) Error() string {
	return "settlement already exists for lease " + e.LeaseID.String() + " period " + e.PeriodStart.Format("2006-01-02")
}

// Is implements the errors.Is interface for ErrSettlementExists
func (e ErrSettlementExists) Is(target error) bool {
	t, ok := target.(ErrSettlementExists)
	if !ok {
		return false
	}
	if t.LeaseID == uuid.Nil {
		return true
	}
	return e.LeaseID == t.LeaseID && e.PeriodStart.Equal(t.PeriodStart)
}
