package handler

// CreateLeaseRequest represents a request to register a new lease
type CreateLeaseRequest struct {
	DriverID    string  `json:"driver_id" binding:"required,uuid"`
	VehicleID   *string `json:"vehicle_id,omitempty" binding:"omitempty,uuid"`
	MedallionID *string `json:"medallion_id,omitempty" binding:"omitempty,uuid"`
	StartDate   string  `json:"start_date" binding:"required"`
}

// LeaseResponse represents a lease in API responses
type LeaseResponse struct {
	ID          string  `json:"id"`
	DriverID    string  `json:"driver_id"`
	VehicleID   *string `json:"vehicle_id,omitempty"`
	MedallionID *string `json:"medallion_id,omitempty"`
	Active      bool    `json:"active"`
	StartDate   string  `json:"start_date"`
	EndDate     string  `json:"end_date,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

// CreateObligationRequest represents a request to record one charge
type CreateObligationRequest struct {
	Category      string `json:"category" binding:"required,oneof=LEASE TAXES EZPASS PVB TLC REPAIRS LOANS MISC"`
	Amount        int64  `json:"amount" binding:"required,gt=0"`
	ReferenceType string `json:"reference_type" binding:"required"`
	ReferenceID   string `json:"reference_id" binding:"required"`
	DriverID      string `json:"driver_id" binding:"required,uuid"`
	LeaseID       string `json:"lease_id" binding:"required,uuid"`
	VehicleID     string `json:"vehicle_id,omitempty" binding:"omitempty,uuid"`
	MedallionID   string `json:"medallion_id,omitempty" binding:"omitempty,uuid"`
	PeriodStart   string `json:"period_start,omitempty"`
	PeriodEnd     string `json:"period_end,omitempty"`
	DueDate       string `json:"due_date,omitempty"`
	Description   string `json:"description,omitempty"`
	Actor         string `json:"actor,omitempty"`
}

// ImportObligationsRequest represents a batch of obligations submitted for
// asynchronous recording via the import pipeline
type ImportObligationsRequest struct {
	Items []CreateObligationRequest `json:"items" binding:"required,min=1,dive"`
}

// ImportObligationsResponse reports the accepted request IDs
type ImportObligationsResponse struct {
	RequestIDs []string `json:"request_ids"`
}

// VoidPostingRequest represents a request to reverse a posting
type VoidPostingRequest struct {
	Reason string `json:"reason" binding:"required"`
	Actor  string `json:"actor,omitempty"`
}

// PostingResponse represents a posting in API responses
type PostingResponse struct {
	ID                string `json:"id"`
	Category          string `json:"category"`
	EntryType         string `json:"entry_type"`
	Amount            int64  `json:"amount"`
	ReferenceType     string `json:"reference_type"`
	ReferenceID       string `json:"reference_id"`
	DriverID          string `json:"driver_id"`
	LeaseID           string `json:"lease_id"`
	BalanceID         string `json:"balance_id"`
	ReversesPostingID string `json:"reverses_posting_id,omitempty"`
	Description       string `json:"description,omitempty"`
	CreatedAt         string `json:"created_at"`
	CreatedBy         string `json:"created_by,omitempty"`
}

// PostingListResponse represents a list of postings in API responses
type PostingListResponse struct {
	Postings []PostingResponse `json:"postings"`
}

// BalanceResponse represents an obligation balance in API responses
type BalanceResponse struct {
	ID             string `json:"id"`
	PostingID      string `json:"posting_id"`
	Category       string `json:"category"`
	ReferenceType  string `json:"reference_type"`
	ReferenceID    string `json:"reference_id"`
	DriverID       string `json:"driver_id"`
	LeaseID        string `json:"lease_id"`
	OriginalAmount int64  `json:"original_amount"`
	CurrentBalance int64  `json:"current_balance"`
	Status         string `json:"status"`
	DueDate        string `json:"due_date,omitempty"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

// BalanceListResponse represents a list of balances in API responses
type BalanceListResponse struct {
	Balances []BalanceResponse `json:"balances"`
}

// ObligationResponse pairs the created posting with its balance
type ObligationResponse struct {
	Posting PostingResponse `json:"posting"`
	Balance BalanceResponse `json:"balance"`
}

// AllocatePaymentRequest represents a payment to distribute across balances
type AllocatePaymentRequest struct {
	DriverID    string `json:"driver_id" binding:"required,uuid"`
	LeaseID     string `json:"lease_id" binding:"required,uuid"`
	Amount      int64  `json:"amount" binding:"required,gt=0"`
	Source      string `json:"source" binding:"required,oneof=WEEKLY_EARNINGS INTERIM"`
	PeriodStart string `json:"period_start" binding:"required"`
	PeriodEnd   string `json:"period_end" binding:"required"`
	Actor       string `json:"actor,omitempty"`
}

// AllocationDetailResponse represents one allocation slice in API responses
type AllocationDetailResponse struct {
	ID               string `json:"id"`
	BalanceID        string `json:"balance_id"`
	PostingID        string `json:"posting_id"`
	Category         string `json:"category"`
	Amount           int64  `json:"amount"`
	RemainingBalance int64  `json:"remaining_balance"`
}

// PaymentResponse represents a payment and how it was applied
type PaymentResponse struct {
	ID          string                     `json:"id"`
	DriverID    string                     `json:"driver_id"`
	LeaseID     string                     `json:"lease_id"`
	Source      string                     `json:"source"`
	Amount      int64                      `json:"amount"`
	Applied     int64                      `json:"applied"`
	Unallocated int64                      `json:"unallocated"`
	PeriodStart string                     `json:"period_start"`
	PeriodEnd   string                     `json:"period_end"`
	Details     []AllocationDetailResponse `json:"details"`
	CreatedAt   string                     `json:"created_at"`
}

// GenerateSettlementRequest asks for a weekly settlement run for one lease.
// PeriodStart must be the Sunday opening a payment week.
type GenerateSettlementRequest struct {
	LeaseID     string `json:"lease_id" binding:"required,uuid"`
	PeriodStart string `json:"period_start" binding:"required"`
	Regenerate  bool   `json:"regenerate,omitempty"`
	Actor       string `json:"actor,omitempty"`
}

// CategoryTotalsResponse represents per-category settlement totals
type CategoryTotalsResponse struct {
	Lease   int64 `json:"lease"`
	Taxes   int64 `json:"taxes"`
	EZPass  int64 `json:"ezpass"`
	PVB     int64 `json:"pvb"`
	TLC     int64 `json:"tlc"`
	Repairs int64 `json:"repairs"`
	Loans   int64 `json:"loans"`
	Misc    int64 `json:"misc"`
}

// SettlementResponse represents a settlement (DTR) in API responses
type SettlementResponse struct {
	ID            string                 `json:"id"`
	LeaseID       string                 `json:"lease_id"`
	DriverID      string                 `json:"driver_id"`
	PeriodStart   string                 `json:"period_start"`
	PeriodEnd     string                 `json:"period_end"`
	Generation    int                    `json:"generation"`
	Totals        CategoryTotalsResponse `json:"totals"`
	GrossEarnings int64                  `json:"gross_earnings"`
	PriorBalance  int64                  `json:"prior_balance"`
	NetEarnings   int64                  `json:"net_earnings"`
	TotalDue      int64                  `json:"total_due"`
	Superseded    bool                   `json:"superseded"`
	GeneratedAt   string                 `json:"generated_at"`
	GeneratedBy   string                 `json:"generated_by"`
}

// SettlementListResponse represents a list of settlements in API responses
type SettlementListResponse struct {
	Settlements []SettlementResponse `json:"settlements"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=10" binding:"min=1,max=100"`
}
