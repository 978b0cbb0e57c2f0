package shared

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidCategory  = errors.New("invalid obligation category")
	ErrInvalidEntryType = errors.New("invalid entry type")
)

// ObligationRequest defines a Kafka message asking the ledger to record one
// charge. Batch importers (EZPass, PVB/TLC violations, loans, repairs) publish
// one message per external item so a failure on one never aborts its siblings.
type ObligationRequest struct {
	RequestID     uuid.UUID  `json:"request_id"`
	Category      Category   `json:"category"`
	Amount        int64      `json:"amount"` // Stored in cents/minor units
	ReferenceType string     `json:"reference_type"`
	ReferenceID   string     `json:"reference_id"`
	DriverID      uuid.UUID  `json:"driver_id"`
	LeaseID       uuid.UUID  `json:"lease_id"`
	VehicleID     *uuid.UUID `json:"vehicle_id,omitempty"`
	MedallionID   *uuid.UUID `json:"medallion_id,omitempty"`
	PeriodStart   *time.Time `json:"period_start,omitempty"`
	PeriodEnd     *time.Time `json:"period_end,omitempty"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	Description   string     `json:"description,omitempty"`
	CorrelationID string     `json:"correlation_id,omitempty"`
	Timestamp     time.Time  `json:"timestamp"`
}
