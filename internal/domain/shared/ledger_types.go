package shared

// Category identifies the obligation bucket a posting belongs to.
// The declaration order below is also the fixed payment-allocation
// priority: lease fees are satisfied first, miscellaneous charges last.
type Category string

const (
	CategoryLease   Category = "LEASE"
	CategoryTaxes   Category = "TAXES"
	CategoryEZPass  Category = "EZPASS"
	CategoryPVB     Category = "PVB"
	CategoryTLC     Category = "TLC"
	CategoryRepairs Category = "REPAIRS"
	CategoryLoans   Category = "LOANS"
	CategoryMisc    Category = "MISC"
)

// AllocationOrder lists every category in payment-allocation priority order.
var AllocationOrder = []Category{
	CategoryLease,
	CategoryTaxes,
	CategoryEZPass,
	CategoryPVB,
	CategoryTLC,
	CategoryRepairs,
	CategoryLoans,
	CategoryMisc,
}

// Priority returns the allocation rank of the category (lower is paid first).
// Unknown categories sort last.
func (c Category) Priority() int {
	for i, known := range AllocationOrder {
		if c == known {
			return i
		}
	}
	return len(AllocationOrder)
}

// Valid reports whether the category is one of the closed set.
func (c Category) Valid() bool {
	return c.Priority() < len(AllocationOrder)
}

// EntryType defines the direction of a posting. A DEBIT increases what the
// driver owes, a CREDIT decreases it. Amounts are always stored non-negative;
// the sign is conveyed solely by the entry type.
type EntryType string

const (
	EntryTypeDebit  EntryType = "DEBIT"
	EntryTypeCredit EntryType = "CREDIT"
)

// Opposite returns the reversing entry type.
func (t EntryType) Opposite() EntryType {
	if t == EntryTypeDebit {
		return EntryTypeCredit
	}
	return EntryTypeDebit
}

// BalanceStatus defines the lifecycle states of an obligation balance.
// Payments drive OPEN -> PARTIALLY_PAID -> CLOSED monotonically forward;
// VOIDED is terminal and reachable only by voiding a never-paid obligation.
type BalanceStatus string

const (
	BalanceStatusOpen          BalanceStatus = "OPEN"
	BalanceStatusPartiallyPaid BalanceStatus = "PARTIALLY_PAID"
	BalanceStatusClosed        BalanceStatus = "CLOSED"
	BalanceStatusVoided        BalanceStatus = "VOIDED"
)

// Outstanding reports whether the balance can still absorb payments.
func (s BalanceStatus) Outstanding() bool {
	return s == BalanceStatusOpen || s == BalanceStatusPartiallyPaid
}

// PaymentSource identifies where an incoming payment came from.
type PaymentSource string

const (
	PaymentSourceWeeklyEarnings PaymentSource = "WEEKLY_EARNINGS"
	PaymentSourceInterim        PaymentSource = "INTERIM"
)

// OutboxStatus defines settlement archive publishing states.
type OutboxStatus string

const (
	OutboxStatusPending         OutboxStatus = "PENDING"
	OutboxStatusProcessed       OutboxStatus = "PROCESSED"
	OutboxStatusFailedToPublish OutboxStatus = "FAILED_TO_PUBLISH"
)
