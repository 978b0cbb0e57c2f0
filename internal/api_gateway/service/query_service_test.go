package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/medallion-fleet-ledger/internal/domain/balance"
	"github.com/medallion-fleet-ledger/internal/domain/payment"
	"github.com/medallion-fleet-ledger/internal/domain/posting"
	"github.com/medallion-fleet-ledger/internal/domain/settlement"
	"github.com/medallion-fleet-ledger/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPostingRepository struct {
	mock.Mock
}

func (m *MockPostingRepository) Create(ctx context.Context, p *posting.Posting) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPostingRepository) GetByID(ctx context.Context, id uuid.UUID) (*posting.Posting, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*posting.Posting), args.Error(1)
}

func (m *MockPostingRepository) GetReversalOf(ctx context.Context, postingID uuid.UUID) (*posting.Posting, error) {
	args := m.Called(ctx, postingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*posting.Posting), args.Error(1)
}

func (m *MockPostingRepository) GetByLeaseID(ctx context.Context, leaseID uuid.UUID, limit, offset int) ([]*posting.Posting, error) {
	args := m.Called(ctx, leaseID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*posting.Posting), args.Error(1)
}

func (m *MockPostingRepository) CountByLeaseID(ctx context.Context, leaseID uuid.UUID) (int64, error) {
	args := m.Called(ctx, leaseID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPostingRepository) GetByLeaseAndPeriod(ctx context.Context, leaseID uuid.UUID, periodStart, periodEnd time.Time) ([]*posting.Posting, error) {
	args := m.Called(ctx, leaseID, periodStart, periodEnd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*posting.Posting), args.Error(1)
}

func (m *MockPostingRepository) WithTx(tx pgx.Tx) posting.Repository {
	args := m.Called(tx)
	return args.Get(0).(posting.Repository)
}

type MockBalanceRepository struct {
	mock.Mock
}

func (m *MockBalanceRepository) Create(ctx context.Context, b *balance.Balance) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockBalanceRepository) GetByID(ctx context.Context, id uuid.UUID) (*balance.Balance, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*balance.Balance), args.Error(1)
}

func (m *MockBalanceRepository) GetByPostingID(ctx context.Context, postingID uuid.UUID) (*balance.Balance, error) {
	args := m.Called(ctx, postingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*balance.Balance), args.Error(1)
}

func (m *MockBalanceRepository) GetOpenByReference(ctx context.Context, category shared.Category, referenceType, referenceID string) (*balance.Balance, error) {
	args := m.Called(ctx, category, referenceType, referenceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*balance.Balance), args.Error(1)
}

func (m *MockBalanceRepository) GetOutstandingByLease(ctx context.Context, leaseID uuid.UUID) ([]*balance.Balance, error) {
	args := m.Called(ctx, leaseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*balance.Balance), args.Error(1)
}

func (m *MockBalanceRepository) Update(ctx context.Context, b *balance.Balance) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockBalanceRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*balance.Balance, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*balance.Balance), args.Error(1)
}

func (m *MockBalanceRepository) WithTx(tx pgx.Tx) balance.Repository {
	args := m.Called(tx)
	return args.Get(0).(balance.Repository)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) CreatePayment(ctx context.Context, p *payment.Payment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPaymentRepository) CreateDetail(ctx context.Context, d *payment.AllocationDetail) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockPaymentRepository) GetPaymentByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockPaymentRepository) GetDetailsByPaymentID(ctx context.Context, paymentID uuid.UUID) ([]*payment.AllocationDetail, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*payment.AllocationDetail), args.Error(1)
}

func (m *MockPaymentRepository) GetPaymentsByLease(ctx context.Context, leaseID uuid.UUID, limit, offset int) ([]*payment.Payment, error) {
	args := m.Called(ctx, leaseID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*payment.Payment), args.Error(1)
}

func (m *MockPaymentRepository) WithTx(tx pgx.Tx) payment.Repository {
	args := m.Called(tx)
	return args.Get(0).(payment.Repository)
}

type MockSettlementRepository struct {
	mock.Mock
}

func (m *MockSettlementRepository) Create(ctx context.Context, s *settlement.Settlement) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockSettlementRepository) GetByID(ctx context.Context, id uuid.UUID) (*settlement.Settlement, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settlement.Settlement), args.Error(1)
}

func (m *MockSettlementRepository) GetCurrent(ctx context.Context, leaseID uuid.UUID, periodStart time.Time) (*settlement.Settlement, error) {
	args := m.Called(ctx, leaseID, periodStart)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settlement.Settlement), args.Error(1)
}

func (m *MockSettlementRepository) GetLatestBefore(ctx context.Context, leaseID uuid.UUID, periodStart time.Time) (*settlement.Settlement, error) {
	args := m.Called(ctx, leaseID, periodStart)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settlement.Settlement), args.Error(1)
}

func (m *MockSettlementRepository) GetByLease(ctx context.Context, leaseID uuid.UUID, limit, offset int) ([]*settlement.Settlement, error) {
	args := m.Called(ctx, leaseID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*settlement.Settlement), args.Error(1)
}

func (m *MockSettlementRepository) MarkSuperseded(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSettlementRepository) GrossEarnings(ctx context.Context, leaseID uuid.UUID, periodStart time.Time) (int64, error) {
	args := m.Called(ctx, leaseID, periodStart)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSettlementRepository) WithTx(tx pgx.Tx) settlement.Repository {
	args := m.Called(tx)
	return args.Get(0).(settlement.Repository)
}

func newQueryServiceWithMocks() (QueryService, *MockPostingRepository, *MockBalanceRepository, *MockPaymentRepository, *MockSettlementRepository) {
	postingRepo := new(MockPostingRepository)
	balanceRepo := new(MockBalanceRepository)
	paymentRepo := new(MockPaymentRepository)
	settlementRepo := new(MockSettlementRepository)
	svc := NewQueryService(postingRepo, balanceRepo, paymentRepo, settlementRepo)
	return svc, postingRepo, balanceRepo, paymentRepo, settlementRepo
}

func TestQueryService_GetPostingsByLease(t *testing.T) {
	ctx := context.Background()

	t.Run("PaginationOffsets", func(t *testing.T) {
		svc, postingRepo, _, _, _ := newQueryServiceWithMocks()

		leaseID := uuid.New()
		postings := []*posting.Posting{
			{ID: uuid.New(), LeaseID: leaseID, Category: shared.CategoryEZPass, Amount: 1450},
		}

		// Page 3 at 10 per page translates to offset 20
		postingRepo.On("GetByLeaseID", ctx, leaseID, 10, 20).Return(postings, nil)
		postingRepo.On("CountByLeaseID", ctx, leaseID).Return(int64(21), nil)

		got, total, err := svc.GetPostingsByLease(ctx, leaseID, 3, 10)
		require.NoError(t, err)
		assert.Equal(t, postings, got)
		assert.Equal(t, int64(21), total)
		postingRepo.AssertExpectations(t)
	})

	t.Run("ListError", func(t *testing.T) {
		svc, postingRepo, _, _, _ := newQueryServiceWithMocks()

		leaseID := uuid.New()
		repoErr := errors.New("query failed")
		postingRepo.On("GetByLeaseID", ctx, leaseID, 10, 0).Return(nil, repoErr)

		got, total, err := svc.GetPostingsByLease(ctx, leaseID, 1, 10)
		assert.Nil(t, got)
		assert.Zero(t, total)
		assert.ErrorIs(t, err, repoErr)
		postingRepo.AssertNotCalled(t, "CountByLeaseID")
	})

	t.Run("CountError", func(t *testing.T) {
		svc, postingRepo, _, _, _ := newQueryServiceWithMocks()

		leaseID := uuid.New()
		repoErr := errors.New("count failed")
		postingRepo.On("GetByLeaseID", ctx, leaseID, 10, 0).Return([]*posting.Posting{}, nil)
		postingRepo.On("CountByLeaseID", ctx, leaseID).Return(int64(0), repoErr)

		got, total, err := svc.GetPostingsByLease(ctx, leaseID, 1, 10)
		assert.Nil(t, got)
		assert.Zero(t, total)
		assert.ErrorIs(t, err, repoErr)
		postingRepo.AssertExpectations(t)
	})
}

func TestQueryService_GetOutstandingBalances(t *testing.T) {
	ctx := context.Background()

	svc, _, balanceRepo, _, _ := newQueryServiceWithMocks()

	leaseID := uuid.New()
	balances := []*balance.Balance{
		{ID: uuid.New(), LeaseID: leaseID, Category: shared.CategoryLease, Status: shared.BalanceStatusOpen},
		{ID: uuid.New(), LeaseID: leaseID, Category: shared.CategoryEZPass, Status: shared.BalanceStatusPartiallyPaid},
	}
	balanceRepo.On("GetOutstandingByLease", ctx, leaseID).Return(balances, nil)

	got, err := svc.GetOutstandingBalances(ctx, leaseID)
	require.NoError(t, err)
	assert.Equal(t, balances, got)
	balanceRepo.AssertExpectations(t)
}

func TestQueryService_GetPaymentByID(t *testing.T) {
	ctx := context.Background()

	t.Run("PaymentWithDetails", func(t *testing.T) {
		svc, _, _, paymentRepo, _ := newQueryServiceWithMocks()

		p := &payment.Payment{ID: uuid.New(), Amount: 95000, Applied: 42075}
		details := []*payment.AllocationDetail{
			{ID: uuid.New(), PaymentID: p.ID, Category: shared.CategoryLease, Amount: 40000},
		}
		paymentRepo.On("GetPaymentByID", ctx, p.ID).Return(p, nil)
		paymentRepo.On("GetDetailsByPaymentID", ctx, p.ID).Return(details, nil)

		gotPayment, gotDetails, err := svc.GetPaymentByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, p, gotPayment)
		assert.Equal(t, details, gotDetails)
		paymentRepo.AssertExpectations(t)
	})

	t.Run("PaymentNotFound", func(t *testing.T) {
		svc, _, _, paymentRepo, _ := newQueryServiceWithMocks()

		paymentID := uuid.New()
		paymentRepo.On("GetPaymentByID", ctx, paymentID).
			Return(nil, payment.ErrPaymentNotFound{PaymentID: paymentID})

		gotPayment, gotDetails, err := svc.GetPaymentByID(ctx, paymentID)
		assert.Nil(t, gotPayment)
		assert.Nil(t, gotDetails)
		assert.ErrorIs(t, err, payment.ErrPaymentNotFound{})
		paymentRepo.AssertNotCalled(t, "GetDetailsByPaymentID")
	})
}

func TestQueryService_GetSettlementsByLease(t *testing.T) {
	ctx := context.Background()

	svc, _, _, _, settlementRepo := newQueryServiceWithMocks()

	leaseID := uuid.New()
	settlements := []*settlement.Settlement{
		{ID: uuid.New(), LeaseID: leaseID, Generation: 2},
		{ID: uuid.New(), LeaseID: leaseID, Generation: 1, Superseded: true},
	}

	// Page 2 at 5 per page translates to offset 5
	settlementRepo.On("GetByLease", ctx, leaseID, 5, 5).Return(settlements, nil)

	got, err := svc.GetSettlementsByLease(ctx, leaseID, 2, 5)
	require.NoError(t, err)
	assert.Equal(t, settlements, got)
	settlementRepo.AssertExpectations(t)
}

var (
	_ posting.Repository    = (*MockPostingRepository)(nil)
	_ balance.Repository    = (*MockBalanceRepository)(nil)
	_ payment.Repository    = (*MockPaymentRepository)(nil)
	_ settlement.Repository = (*MockSettlementRepository)(nil)
)
