package balance

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/medallion-fleet-ledger/internal/domain/shared"
)

// Repository defines balance persistence operations. Balances mutate only
// through the defined transitions; Update persists the entity state produced
// by ApplyCredit, ApplyVoid or RestoreCredit.
type Repository interface {
	Create(ctx context.Context, b *Balance) error
	GetByID(ctx context.Context, id uuid.UUID) (*Balance, error)
	GetByPostingID(ctx context.Context, postingID uuid.UUID) (*Balance, error)

	// GetOpenByReference returns the non-voided OPEN/PARTIALLY_PAID balance for
	// the reference triple, or nil when none exists. At most one such balance
	// can exist; the database enforces it.
	GetOpenByReference(ctx context.Context, category shared.Category, referenceType, referenceID string) (*Balance, error)

	// GetOutstandingByLease returns OPEN/PARTIALLY_PAID balances for a lease
	// ordered by allocation priority, then due date ascending.
	GetOutstandingByLease(ctx context.Context, leaseID uuid.UUID) ([]*Balance, error)

	Update(ctx context.Context, b *Balance) error

	// LockForUpdate acquires a pessimistic lock on the balance row for void
	// and allocation processing.
	LockForUpdate(ctx context.Context, id uuid.UUID) (*Balance, error)

	WithTx(tx pgx.Tx) Repository
}

// ErrBalanceNotFound indicates a missing balance
type ErrBalanceNotFound struct {
	BalanceID uuid.UUID
}

func (e ErrBalanceNotFound) Error() string {
	return "balance not found: " + e.BalanceID.String()
}

// Is implements the errors.Is interface for ErrBalanceNotFound
func (e ErrBalanceNotFound) Is(target error) bool {
	t, ok := target.(ErrBalanceNotFound)
	if !ok {
		return false
	}
	if t.BalanceID == uuid.Nil {
		return true
	}
	return e.BalanceID == t.BalanceID
}

// ErrDuplicateObligation indicates the idempotency guard fired: a non-voided
// balance already exists for the (category, reference_type, reference_id)
// triple. Callers should treat the charge as already handled, not retry.
type ErrDuplicateObligation struct {
	Category      shared.Category
	ReferenceType string
	ReferenceID   string
}

func (e ErrDuplicateObligation) Error() string {
	return "obligation already posted for " + string(e.Category) + "/" + e.ReferenceType + "/" + e.ReferenceID
}

// Is implements the errors.Is interface for ErrDuplicateObligation
func (e ErrDuplicateObligation) Is(target error) bool {
	t, ok := target.(ErrDuplicateObligation)
	if !ok {
		return false
	}
	if t.ReferenceID == "" {
		return true
	}
	return e.Category == t.Category && e.ReferenceType == t.ReferenceType && e.ReferenceID == t.ReferenceID
}
