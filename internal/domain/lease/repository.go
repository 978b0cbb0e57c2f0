package lease

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository defines lease persistence operations.
type Repository interface {
	Create(ctx context.Context, l *Lease) error
	GetByID(ctx context.Context, id uuid.UUID) (*Lease, error)

	// GetActive lists every active lease, the work list of the weekly
	// settlement scheduler.
	GetActive(ctx context.Context) ([]*Lease, error)

	// LockForUpdate takes a pessimistic lock on the lease row. Obligation
	// creation and payment allocation both acquire it so an obligation created
	// mid-allocation lands in the next pass, never the current one.
	LockForUpdate(ctx context.Context, id uuid.UUID) (*Lease, error)

	WithTx(tx pgx.Tx) Repository
}

// ErrDriverMismatch indicates the driver is not the one on the lease
type ErrDriverMismatch struct {
	LeaseID  uuid.UUID
	DriverID uuid.UUID
}

func (e ErrDriverMismatch) Error() string {
	return "driver " + e.DriverID.String() + " does not hold lease " + e.LeaseID.String()
}

// Is implements the errors.Is interface for ErrDriverMismatch
func (e ErrDriverMismatch) Is(target error) bool {
	t, ok := target.(ErrDriverMismatch)
	if !ok {
		return false
	}
	if t.LeaseID == uuid.Nil {
		return true
	}
	return e.LeaseID == t.LeaseID && e.DriverID == t.DriverID
}

// ErrLeaseNotFound indicates the driver/lease pair is unknown to the ledger
type ErrLeaseNotFound struct {
	LeaseID uuid.UUID
}

func (e ErrLeaseNotFound) Error() string {
	return "lease not found: " + e.LeaseID.String()
}

// Is implements the errors.Is interface for ErrLeaseNotFound
func (e ErrLeaseNotFound) Is(target error) bool {
	t, ok := target.(ErrLeaseNotFound)
	if !ok {
		return false
	}
	if t.LeaseID == uuid.Nil {
		return true
	}
	return e.LeaseID == t.LeaseID
}
