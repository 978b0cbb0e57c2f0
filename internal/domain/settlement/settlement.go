package settlement

import (
	"time"

	"github.com/google/uuid"
	"github.com/medallion-fleet-ledger/internal/domain/shared"
)

// CategoryTotals holds the net obligation amount per category for one period,
// in cents/minor units. Net means DEBIT minus CREDIT of every posting
// effective in the window, so reversals and payments inside the period are
// already accounted for.
type CategoryTotals struct {
	Lease   int64 `json:"lease" bson:"lease"`
	Taxes   int64 `json:"taxes" bson:"taxes"`
	EZPass  int64 `json:"ezpass" bson:"ezpass"`
	PVB     int64 `json:"pvb" bson:"pvb"`
	TLC     int64 `json:"tlc" bson:"tlc"`
	Repairs int64 `json:"repairs" bson:"repairs"`
	Loans   int64 `json:"loans" bson:"loans"`
	Misc    int64 `json:"misc" bson:"misc"`
}

// Add accumulates a signed amount into the category's bucket.
func (t *CategoryTotals) Add(c shared.Category, amount int64) {
	switch c {
	case shared.CategoryLease:
		t.Lease += amount
	case shared.CategoryTaxes:
		t.Taxes += amount
	case shared.CategoryEZPass:
		t.EZPass += amount
	case shared.CategoryPVB:
		t.PVB += amount
	case shared.CategoryTLC:
		t.TLC += amount
	case shared.CategoryRepairs:
		t.Repairs += amount
	case shared.CategoryLoans:
		t.Loans += amount
	case shared.CategoryMisc:
		t.Misc += amount
	}
}

// Sum returns the combined net obligations across every category.
func (t *CategoryTotals) Sum() int64 {
	return t.Lease + t.Taxes + t.EZPass + t.PVB + t.TLC + t.Repairs + t.Loans + t.Misc
}

// Settlement is the weekly receipt (DTR) for one lease and payment period.
// It is immutable after creation; a regeneration writes a new record with the
// next generation number and flags this one superseded, it never edits it.
// TotalDue keeps its sign: negative means the driver is owed money.
type Settlement struct {
	ID            uuid.UUID      `json:"id" bson:"settlement_id"`
	LeaseID       uuid.UUID      `json:"lease_id" bson:"lease_id"`
	DriverID      uuid.UUID      `json:"driver_id" bson:"driver_id"`
	PeriodStart   time.Time      `json:"period_start" bson:"period_start"` // Sunday
	PeriodEnd     time.Time      `json:"period_end" bson:"period_end"`     // Saturday
	Generation    int            `json:"generation" bson:"generation"`
	Totals        CategoryTotals `json:"totals" bson:"totals"`
	GrossEarnings int64          `json:"gross_earnings" bson:"gross_earnings"`
	PriorBalance  int64          `json:"prior_balance" bson:"prior_balance"`
	NetEarnings   int64          `json:"net_earnings" bson:"net_earnings"`
	TotalDue      int64          `json:"total_due" bson:"total_due"`
	Superseded    bool           `json:"superseded" bson:"superseded"`
	GeneratedAt   time.Time      `json:"generated_at" bson:"generated_at"`
	GeneratedBy   string         `json:"generated_by" bson:"generated_by"`
}
