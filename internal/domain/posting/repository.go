package posting

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository defines posting persistence operations. Postings are append-only:
// there is deliberately no Update or Delete.
type Repository interface {
	Create(ctx context.Context, p *Posting) error
	GetByID(ctx context.Context, id uuid.UUID) (*Posting, error)

	// GetReversalOf returns the posting that reverses the given posting,
	// or nil if the posting has not been voided.
	GetReversalOf(ctx context.Context, postingID uuid.UUID) (*Posting, error)

	GetByLeaseID(ctx context.Context, leaseID uuid.UUID, limit, offset int) ([]*Posting, error)
	CountByLeaseID(ctx context.Context, leaseID uuid.UUID) (int64, error)

	// GetByLeaseAndPeriod returns every posting for the lease effective within
	// [periodStart, periodEnd], the input of weekly settlement aggregation.
	GetByLeaseAndPeriod(ctx context.Context, leaseID uuid.UUID, periodStart, periodEnd time.Time) ([]*Posting, error)

	WithTx(tx pgx.Tx) Repository
}

// ErrPostingNotFound indicates a missing posting
type ErrPostingNotFound struct {
	PostingID uuid.UUID
}

func (e ErrPostingNotFound) Error() string {
	return "posting not found: " + e.PostingID.String()
}

// Is implements the errors.Is interface for ErrPostingNotFound
func (e ErrPostingNotFound) Is(target error) bool {
	t, ok := target.(ErrPostingNotFound)
	if !ok {
		return false
	}
	if t.PostingID == uuid.Nil {
		return true
	}
	return e.PostingID == t.PostingID
}

// ErrAlreadyVoided indicates a void attempted on a posting that already has a reversal
type ErrAlreadyVoided struct {
	PostingID  uuid.UUID
	ReversalID uuid.UUID
}

func (e ErrAlreadyVoided) Error() string {
	return "posting already voided: " + e.PostingID.String()
}

// Is implements the errors.Is interface for ErrAlreadyVoided
func (e ErrAlreadyVoided) Is(target error) bool {
	t, ok := target.(ErrAlreadyVoided)
	if !ok {
		return false
	}
	if t.PostingID == uuid.Nil {
		return true
	}
	return e.PostingID == t.PostingID
}
