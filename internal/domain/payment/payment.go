package payment

import (
	"time"

	"github.com/google/uuid"
	"github.com/medallion-fleet-ledger/internal/domain/shared"
)

// Payment records one incoming amount (weekly earnings or an ad-hoc interim
// payment) distributed across a lease's open balances. The allocation rows it
// produced cascade with it.
type Payment struct {
	ID          uuid.UUID            `json:"id"`
	DriverID    uuid.UUID            `json:"driver_id"`
	LeaseID     uuid.UUID            `json:"lease_id"`
	Source      shared.PaymentSource `json:"source"`
	Amount      int64                `json:"amount"`      // Incoming amount, cents/minor units
	Applied     int64                `json:"applied"`     // Sum of allocation amounts
	Unallocated int64                `json:"unallocated"` // Leftover reported back to the caller
	PeriodStart time.Time            `json:"period_start"`
	PeriodEnd   time.Time            `json:"period_end"`
	CreatedAt   time.Time            `json:"created_at"`
	CreatedBy   string               `json:"created_by,omitempty"`
}

// AllocationDetail is one row per balance touched by a payment, recording the
// amount applied and the balance remaining afterwards.
type AllocationDetail struct {
	ID               uuid.UUID       `json:"id"`
	PaymentID        uuid.UUID       `json:"payment_id"`
	BalanceID        uuid.UUID       `json:"balance_id"`
	PostingID        uuid.UUID       `json:"posting_id"` // The CREDIT posting created for this slice
	Category         shared.Category `json:"category"`
	Amount           int64           `json:"amount"`
	RemainingBalance int64           `json:"remaining_balance"`
	CreatedAt        time.Time       `json:"created_at"`
}
