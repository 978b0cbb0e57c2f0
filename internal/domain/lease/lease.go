package lease

import (
	"time"

	"github.com/google/uuid"
)

// Lease ties a driver to a vehicle/medallion for a period of time. The ledger
// core treats it as the unit every obligation and settlement hangs off; the
// row also serves as the per-lease serialization gate for ledger mutations.
type Lease struct {
	ID          uuid.UUID  `json:"id"`
	DriverID    uuid.UUID  `json:"driver_id"`
	VehicleID   *uuid.UUID `json:"vehicle_id,omitempty"`
	MedallionID *uuid.UUID `json:"medallion_id,omitempty"`
	Active      bool       `json:"active"`
	StartDate   time.Time  `json:"start_date"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
