package balance

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/medallion-fleet-ledger/internal/domain/shared"
)

// Common errors
var (
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrExceedsOutstanding = errors.New("credit exceeds outstanding balance")
	ErrExceedsOriginal    = errors.New("restore exceeds original amount")
	ErrNotOutstanding     = errors.New("balance is not open for payments")
)

// Balance is the live outstanding-amount view of one obligation. It is derived
// from the originating DEBIT posting and mutated only by applying further
// postings against it; current_balance never goes below zero and the invariant
// current_balance + sum(applied credits) == original_amount holds throughout.
type Balance struct {
	ID             uuid.UUID            `json:"id"`
	PostingID      uuid.UUID            `json:"posting_id"` // Originating DEBIT
	Category       shared.Category      `json:"category"`
	ReferenceType  string               `json:"reference_type"`
	ReferenceID    string               `json:"reference_id"`
	DriverID       uuid.UUID            `json:"driver_id"`
	LeaseID        uuid.UUID            `json:"lease_id"`
	OriginalAmount int64                `json:"original_amount"` // Stored in cents/minor units
	CurrentBalance int64                `json:"current_balance"` // >= 0, never negative
	Status         shared.BalanceStatus `json:"status"`
	DueDate        *time.Time           `json:"due_date,omitempty"`
	PeriodStart    *time.Time           `json:"period_start,omitempty"`
	PeriodEnd      *time.Time           `json:"period_end,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

// ApplyCredit reduces the outstanding amount by a payment. The caller caps the
// amount at CurrentBalance; applying more than is outstanding is rejected so
// the balance can never go negative.
func (b *Balance) ApplyCredit(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if !b.Status.Outstanding() {
		return ErrNotOutstanding
	}
	if amount > b.CurrentBalance {
		return ErrExceedsOutstanding
	}

	b.CurrentBalance -= amount
	if b.CurrentBalance == 0 {
		b.Status = shared.BalanceStatusClosed
	} else {
		b.Status = shared.BalanceStatusPartiallyPaid
	}
	b.UpdatedAt = time.Now()
	return nil
}

// ApplyVoid settles the balance after its originating DEBIT is reversed.
// The outstanding amount clamps to zero via the reversal, never by deletion.
// A never-paid balance terminates as VOIDED; one that already absorbed
// payments closes instead, keeping the paid history intact.
func (b *Balance) ApplyVoid() {
	if b.CurrentBalance == b.OriginalAmount {
		b.Status = shared.BalanceStatusVoided
	} else {
		b.Status = shared.BalanceStatusClosed
	}
	b.CurrentBalance = 0
	b.UpdatedAt = time.Now()
}

// RestoreCredit reinstates outstanding amount after an allocation CREDIT is
// reversed. The balance never grows past its original amount.
func (b *Balance) RestoreCredit(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if b.CurrentBalance+amount > b.OriginalAmount {
		return ErrExceedsOriginal
	}

	b.CurrentBalance += amount
	if b.CurrentBalance == b.OriginalAmount {
		b.Status = shared.BalanceStatusOpen
	} else {
		b.Status = shared.BalanceStatusPartiallyPaid
	}
	b.UpdatedAt = time.Now()
	return nil
}

// AppliedAmount returns how much has been paid against the obligation.
func (b *Balance) AppliedAmount() int64 {
	return b.OriginalAmount - b.CurrentBalance
}
