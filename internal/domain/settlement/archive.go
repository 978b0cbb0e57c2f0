package settlement

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ArchiveRepository manages the document archive of settlement receipts.
// Downstream consumers (statement rendering, ACH export) read from the
// archive, never from the relational store.
type ArchiveRepository interface {
	Create(ctx context.Context, s *Settlement) error
	GetBySettlementID(ctx context.Context, settlementID uuid.UUID) (*Settlement, error)
	GetByLease(ctx context.Context, leaseID uuid.UUID, limit, offset int) ([]*Settlement, error)
	GetByPeriod(ctx context.Context, leaseID uuid.UUID, periodStart time.Time) ([]*Settlement, error)
	CountByLease(ctx context.Context, leaseID uuid.UUID) (int64, error)
	MarkSuperseded(ctx context.Context, settlementID uuid.UUID) error
}

// ErrArchiveEntryNotFound indicates a missing archive document
type ErrArchiveEntryNotFound struct {
	SettlementID uuid.UUID
}

func (e ErrArchiveEntryNotFound) Error() string {
	return "settlement archive entry not found: " + e.SettlementID.String()
}

func (e ErrArchiveEntryNotFound) Is(target error) bool {
	_, ok := target.(ErrArchiveEntryNotFound)
	return ok
}

// ErrDuplicateArchiveEntry indicates the settlement was already archived.
// The archive poller treats it as success when retrying a delivery.
type ErrDuplicateArchiveEntry struct {
	SettlementID uuid.UUID
}

func (e ErrDuplicateArchiveEntry) Error() string {
	return "settlement already archived: " + e.SettlementID.String()
}

func (e ErrDuplicateArchiveEntry) Is(target error) bool {
	_, ok := target.(ErrDuplicateArchiveEntry)
	return ok
}
