package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/medallion-fleet-ledger/internal/domain/balance"
	"github.com/medallion-fleet-ledger/internal/domain/payment"
	"github.com/medallion-fleet-ledger/internal/domain/posting"
	"github.com/medallion-fleet-ledger/internal/domain/settlement"
)

// QueryServiceImpl implements the QueryService interface
type QueryServiceImpl struct {
	postingRepo    posting.Repository
	balanceRepo    balance.Repository
	paymentRepo    payment.Repository
	settlementRepo settlement.Repository
}

// NewQueryService creates a new ledger query service
func NewQueryService(
	postingRepo posting.Repository,
	balanceRepo balance.Repository,
	paymentRepo payment.Repository,
	settlementRepo settlement.Repository,
) QueryService {
	return &QueryServiceImpl{
		postingRepo:    postingRepo,
		balanceRepo:    balanceRepo,
		paymentRepo:    paymentRepo,
		settlementRepo: settlementRepo,
	}
}

// GetPostingByID retrieves a posting by its ID
func (s *QueryServiceImpl) GetPostingByID(ctx context.Context, id uuid.UUID) (*posting.Posting, error) {
	return s.postingRepo.GetByID(ctx, id)
}

// GetPostingsByLease retrieves a paginated list of postings for a lease.
// Returns postings, total count, and any error
func (s *QueryServiceImpl) GetPostingsByLease(ctx context.Context, leaseID uuid.UUID, page, perPage int) ([]*posting.Posting, int64, error) {
	offset := (page - 1) * perPage

	postings, err := s.postingRepo.GetByLeaseID(ctx, leaseID, perPage, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.postingRepo.CountByLeaseID(ctx, leaseID)
	if err != nil {
		return nil, 0, err
	}

	return postings, total, nil
}

// GetBalanceByID retrieves a balance by its ID
func (s *QueryServiceImpl) GetBalanceByID(ctx context.Context, id uuid.UUID) (*balance.Balance, error) {
	return s.balanceRepo.GetByID(ctx, id)
}

// GetOutstandingBalances lists a lease's open balances in allocation order
func (s *QueryServiceImpl) GetOutstandingBalances(ctx context.Context, leaseID uuid.UUID) ([]*balance.Balance, error) {
	return s.balanceRepo.GetOutstandingByLease(ctx, leaseID)
}

// GetPaymentByID retrieves a payment together with its allocation details
func (s *QueryServiceImpl) GetPaymentByID(ctx context.Context, id uuid.UUID) (*payment.Payment, []*payment.AllocationDetail, error) {
	p, err := s.paymentRepo.GetPaymentByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	details, err := s.paymentRepo.GetDetailsByPaymentID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	return p, details, nil
}

// GetSettlementByID retrieves a settlement by its ID
func (s *QueryServiceImpl) GetSettlementByID(ctx context.Context, id uuid.UUID) (*settlement.Settlement, error) {
	return s.settlementRepo.GetByID(ctx, id)
}

// GetSettlementsByLease retrieves a paginated list of settlements for a lease
func (s *QueryServiceImpl) GetSettlementsByLease(ctx context.Context, leaseID uuid.UUID, page, perPage int) ([]*settlement.Settlement, error) {
	offset := (page - 1) * perPage
	return s.settlementRepo.GetByLease(ctx, leaseID, perPage, offset)
}
