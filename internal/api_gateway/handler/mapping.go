package handler

import (
	"fmt"
	"time"

	"github.com/medallion-fleet-ledger/internal/domain/balance"
	"github.com/medallion-fleet-ledger/internal/domain/lease"
	"github.com/medallion-fleet-ledger/internal/domain/payment"
	"github.com/medallion-fleet-ledger/internal/domain/posting"
	"github.com/medallion-fleet-ledger/internal/domain/settlement"
)

// parseTime accepts RFC3339 timestamps or bare dates (2006-01-02)
func parseTime(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q, expected RFC3339 or YYYY-MM-DD", value)
	}
	return t, nil
}

// parseOptionalTime returns nil for an empty string
func parseOptionalTime(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := parseTime(value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func mapLeaseToResponse(l *lease.Lease) LeaseResponse {
	resp := LeaseResponse{
		ID:        l.ID.String(),
		DriverID:  l.DriverID.String(),
		Active:    l.Active,
		StartDate: l.StartDate.Format(time.RFC3339),
		CreatedAt: l.CreatedAt.Format(time.RFC3339),
	}
	if l.VehicleID != nil {
		v := l.VehicleID.String()
		resp.VehicleID = &v
	}
	if l.MedallionID != nil {
		m := l.MedallionID.String()
		resp.MedallionID = &m
	}
	if l.EndDate != nil {
		resp.EndDate = l.EndDate.Format(time.RFC3339)
	}
	return resp
}

func mapPostingToResponse(p *posting.Posting) PostingResponse {
	resp := PostingResponse{
		ID:            p.ID.String(),
		Category:      string(p.Category),
		EntryType:     string(p.EntryType),
		Amount:        p.Amount,
		ReferenceType: p.ReferenceType,
		ReferenceID:   p.ReferenceID,
		DriverID:      p.DriverID.String(),
		LeaseID:       p.LeaseID.String(),
		BalanceID:     p.BalanceID.String(),
		Description:   p.Description,
		CreatedAt:     p.CreatedAt.Format(time.RFC3339),
		CreatedBy:     p.CreatedBy,
	}
	if p.ReversesPostingID != nil {
		resp.ReversesPostingID = p.ReversesPostingID.String()
	}
	return resp
}

func mapBalanceToResponse(b *balance.Balance) BalanceResponse {
	resp := BalanceResponse{
		ID:             b.ID.String(),
		PostingID:      b.PostingID.String(),
		Category:       string(b.Category),
		ReferenceType:  b.ReferenceType,
		ReferenceID:    b.ReferenceID,
		DriverID:       b.DriverID.String(),
		LeaseID:        b.LeaseID.String(),
		OriginalAmount: b.OriginalAmount,
		CurrentBalance: b.CurrentBalance,
		Status:         string(b.Status),
		CreatedAt:      b.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      b.UpdatedAt.Format(time.RFC3339),
	}
	if b.DueDate != nil {
		resp.DueDate = b.DueDate.Format(time.RFC3339)
	}
	return resp
}

func mapPaymentToResponse(p *payment.Payment, details []*payment.AllocationDetail) PaymentResponse {
	resp := PaymentResponse{
		ID:          p.ID.String(),
		DriverID:    p.DriverID.String(),
		LeaseID:     p.LeaseID.String(),
		Source:      string(p.Source),
		Amount:      p.Amount,
		Applied:     p.Applied,
		Unallocated: p.Unallocated,
		PeriodStart: p.PeriodStart.Format(time.RFC3339),
		PeriodEnd:   p.PeriodEnd.Format(time.RFC3339),
		Details:     make([]AllocationDetailResponse, 0, len(details)),
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
	}
	for _, d := range details {
		resp.Details = append(resp.Details, AllocationDetailResponse{
			ID:               d.ID.String(),
			BalanceID:        d.BalanceID.String(),
			PostingID:        d.PostingID.String(),
			Category:         string(d.Category),
			Amount:           d.Amount,
			RemainingBalance: d.RemainingBalance,
		})
	}
	return resp
}

func mapSettlementToResponse(s *settlement.Settlement) SettlementResponse {
	return SettlementResponse{
		ID:          s.ID.String(),
		LeaseID:     s.LeaseID.String(),
		DriverID:    s.DriverID.String(),
		PeriodStart: s.PeriodStart.Format(time.RFC3339),
		PeriodEnd:   s.PeriodEnd.Format(time.RFC3339),
		Generation:  s.Generation,
		Totals: CategoryTotalsResponse{
			Lease:   s.Totals.Lease,
			Taxes:   s.Totals.Taxes,
			EZPass:  s.Totals.EZPass,
			PVB:     s.Totals.PVB,
			TLC:     s.Totals.TLC,
			Repairs: s.Totals.Repairs,
			Loans:   s.Totals.Loans,
			Misc:    s.Totals.Misc,
		},
		GrossEarnings: s.GrossEarnings,
		PriorBalance:  s.PriorBalance,
		NetEarnings:   s.NetEarnings,
		TotalDue:      s.TotalDue,
		Superseded:    s.Superseded,
		GeneratedAt:   s.GeneratedAt.Format(time.RFC3339),
		GeneratedBy:   s.GeneratedBy,
	}
}
