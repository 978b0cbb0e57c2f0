package posting

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/medallion-fleet-ledger/internal/domain/shared"
)

// Common errors
var (
	ErrInvalidAmount = errors.New("posting amount must be positive")
)

// Posting is an immutable financial movement against a driver/lease. Once
// written its amount, entry type and reference are never altered; corrections
// are made exclusively by creating a new reversing posting linked through
// ReversesPostingID.
type Posting struct {
	ID                uuid.UUID        `json:"id"`
	Category          shared.Category  `json:"category"`
	EntryType         shared.EntryType `json:"entry_type"`
	Amount            int64            `json:"amount"` // Stored in cents/minor units, always >= 0
	ReferenceType     string           `json:"reference_type"`
	ReferenceID       string           `json:"reference_id"`
	DriverID          uuid.UUID        `json:"driver_id"`
	LeaseID           uuid.UUID        `json:"lease_id"`
	VehicleID         *uuid.UUID       `json:"vehicle_id,omitempty"`
	MedallionID       *uuid.UUID       `json:"medallion_id,omitempty"`
	BalanceID         uuid.UUID        `json:"balance_id"`
	ReversesPostingID *uuid.UUID       `json:"reverses_posting_id,omitempty"`
	Description       string           `json:"description,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	CreatedBy         string           `json:"created_by,omitempty"`
}

// NewReversal builds the equal-and-opposite posting that voids p. The original
// posting stays readable; both movements remain visible for audit.
func NewReversal(p *Posting, reason string, actor string) *Posting {
	original := p.ID
	return &Posting{
		ID:                uuid.New(),
		Category:          p.Category,
		EntryType:         p.EntryType.Opposite(),
		Amount:            p.Amount,
		ReferenceType:     p.ReferenceType,
		ReferenceID:       p.ReferenceID,
		DriverID:          p.DriverID,
		LeaseID:           p.LeaseID,
		VehicleID:         p.VehicleID,
		MedallionID:       p.MedallionID,
		BalanceID:         p.BalanceID,
		ReversesPostingID: &original,
		Description:       reason,
		CreatedAt:         time.Now(),
		CreatedBy:         actor,
	}
}

// IsReversal reports whether the posting corrects a prior posting.
func (p *Posting) IsReversal() bool {
	return p.ReversesPostingID != nil
}
