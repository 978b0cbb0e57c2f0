package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/medallion-fleet-ledger/internal/domain/balance"
	"github.com/medallion-fleet-ledger/internal/domain/lease"
	"github.com/medallion-fleet-ledger/internal/domain/payment"
	"github.com/medallion-fleet-ledger/internal/domain/posting"
	"github.com/medallion-fleet-ledger/internal/domain/shared"
)

// PaymentReferenceType marks the CREDIT postings an allocation writes; their
// reference id is the payment id.
const PaymentReferenceType = "PAYMENT"

// AllocationServiceImpl implements the AllocationService interface
type AllocationServiceImpl struct {
	db          TxRunner
	leaseRepo   lease.Repository
	postingRepo posting.Repository
	balanceRepo balance.Repository
	paymentRepo payment.Repository
	logger      *slog.Logger
}

// NewAllocationService creates a new payment allocation service
func NewAllocationService(
	logger *slog.Logger,
	db TxRunner,
	leaseRepo lease.Repository,
	postingRepo posting.Repository,
	balanceRepo balance.Repository,
	paymentRepo payment.Repository,
) AllocationService {
	return &AllocationServiceImpl{
		db:          db,
		leaseRepo:   leaseRepo,
		postingRepo: postingRepo,
		balanceRepo: balanceRepo,
		paymentRepo: paymentRepo,
		logger:      logger,
	}
}

// Allocate distributes one incoming payment across the lease's open balances.
// Balances are consumed in fixed category priority order, due date ascending
// within a category; each slice caps at the balance's remaining amount. The
// whole pass runs inside one transaction holding the lease row lock, so an
// obligation created mid-allocation lands in the next pass, never this one.
func (s *AllocationServiceImpl) Allocate(ctx context.Context, params AllocateParams) (*AllocationResult, error) {
	if params.Amount <= 0 {
		return nil, balance.ErrInvalidAmount
	}

	var result *AllocationResult

	err := s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		leaseRepoTx := s.leaseRepo.WithTx(tx)
		postingRepoTx := s.postingRepo.WithTx(tx)
		balanceRepoTx := s.balanceRepo.WithTx(tx)
		paymentRepoTx := s.paymentRepo.WithTx(tx)

		l, err := leaseRepoTx.LockForUpdate(ctx, params.LeaseID)
		if err != nil {
			return err
		}
		if l.DriverID != params.DriverID {
			return lease.ErrDriverMismatch{LeaseID: params.LeaseID, DriverID: params.DriverID}
		}

		balances, err := balanceRepoTx.GetOutstandingByLease(ctx, params.LeaseID)
		if err != nil {
			return err
		}

		now := time.Now()
		remaining := params.Amount

		// Plan the split before writing anything so the payment row can be
		// inserted with its final applied/unallocated amounts.
		type slice struct {
			bal    *balance.Balance
			amount int64
		}
		var plan []slice
		for _, b := range balances {
			if remaining == 0 {
				break
			}
			applied := b.CurrentBalance
			if applied > remaining {
				applied = remaining
			}
			if applied == 0 {
				continue
			}
			plan = append(plan, slice{bal: b, amount: applied})
			remaining -= applied
		}

		pay := &payment.Payment{
			ID:          uuid.New(),
			DriverID:    params.DriverID,
			LeaseID:     params.LeaseID,
			Source:      params.Source,
			Amount:      params.Amount,
			Applied:     params.Amount - remaining,
			Unallocated: remaining,
			PeriodStart: params.PeriodStart,
			PeriodEnd:   params.PeriodEnd,
			CreatedAt:   now,
			CreatedBy:   params.Actor,
		}
		if err := paymentRepoTx.CreatePayment(ctx, pay); err != nil {
			return err
		}

		details := make([]*payment.AllocationDetail, 0, len(plan))
		for _, sl := range plan {
			credit := &posting.Posting{
				ID:            uuid.New(),
				Category:      sl.bal.Category,
				EntryType:     shared.EntryTypeCredit,
				Amount:        sl.amount,
				ReferenceType: PaymentReferenceType,
				ReferenceID:   pay.ID.String(),
				DriverID:      params.DriverID,
				LeaseID:       params.LeaseID,
				BalanceID:     sl.bal.ID,
				Description:   "payment allocation",
				CreatedAt:     now,
				CreatedBy:     params.Actor,
			}
			if err := postingRepoTx.Create(ctx, credit); err != nil {
				return err
			}

			if err := sl.bal.ApplyCredit(sl.amount); err != nil {
				return err
			}
			if err := balanceRepoTx.Update(ctx, sl.bal); err != nil {
				return err
			}

			detail := &payment.AllocationDetail{
				ID:               uuid.New(),
				PaymentID:        pay.ID,
				BalanceID:        sl.bal.ID,
				PostingID:        credit.ID,
				Category:         sl.bal.Category,
				Amount:           sl.amount,
				RemainingBalance: sl.bal.CurrentBalance,
				CreatedAt:        now,
			}
			if err := paymentRepoTx.CreateDetail(ctx, detail); err != nil {
				return err
			}
			details = append(details, detail)
		}

		result = &AllocationResult{Payment: pay, Details: details}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Payment allocated",
		"payment_id", result.Payment.ID.String(),
		"lease_id", params.LeaseID.String(),
		"amount", params.Amount,
		"applied", result.Payment.Applied,
		"unallocated", result.Payment.Unallocated,
		"balances_touched", len(result.Details),
	)

	return result, nil
}
