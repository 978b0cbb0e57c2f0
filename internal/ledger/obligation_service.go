package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/medallion-fleet-ledger/internal/domain/balance"
	"github.com/medallion-fleet-ledger/internal/domain/lease"
	"github.com/medallion-fleet-ledger/internal/domain/posting"
	"github.com/medallion-fleet-ledger/internal/domain/shared"
)

// ErrVoidReversal rejects voiding a posting that is itself a reversal;
// corrections of corrections are re-posted, not unwound.
var ErrVoidReversal = errors.New("reversal postings cannot be voided")

// ObligationServiceImpl implements the ObligationService interface
type ObligationServiceImpl struct {
	db          TxRunner
	leaseRepo   lease.Repository
	postingRepo posting.Repository
	balanceRepo balance.Repository
	logger      *slog.Logger
}

// NewObligationService creates a new obligation service
func NewObligationService(
	logger *slog.Logger,
	db TxRunner,
	leaseRepo lease.Repository,
	postingRepo posting.Repository,
	balanceRepo balance.Repository,
) ObligationService {
	return &ObligationServiceImpl{
		db:          db,
		leaseRepo:   leaseRepo,
		postingRepo: postingRepo,
		balanceRepo: balanceRepo,
		logger:      logger,
	}
}

// CreateObligation records one charge as a DEBIT posting plus its OPEN balance
// in a single database transaction, so a crash can never leave a posting
// without its balance. The lease row is locked first, which serializes
// obligation creation against a concurrent allocation pass for the same lease.
func (s *ObligationServiceImpl) CreateObligation(ctx context.Context, params CreateObligationParams) (*posting.Posting, *balance.Balance, error) {
	if !params.Category.Valid() {
		return nil, nil, shared.ErrInvalidCategory
	}
	if params.Amount <= 0 {
		return nil, nil, posting.ErrInvalidAmount
	}
	if params.ReferenceType == "" || params.ReferenceID == "" {
		return nil, nil, fmt.Errorf("obligation reference is required")
	}

	var (
		newPosting *posting.Posting
		newBalance *balance.Balance
	)

	err := s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		leaseRepoTx := s.leaseRepo.WithTx(tx)
		postingRepoTx := s.postingRepo.WithTx(tx)
		balanceRepoTx := s.balanceRepo.WithTx(tx)

		l, err := leaseRepoTx.LockForUpdate(ctx, params.LeaseID)
		if err != nil {
			return err
		}
		if l.DriverID != params.DriverID {
			return lease.ErrDriverMismatch{LeaseID: params.LeaseID, DriverID: params.DriverID}
		}

		// Friendly pre-check; the partial unique index on balances is the
		// authoritative gate when two importers race the same reference.
		existing, err := balanceRepoTx.GetOpenByReference(ctx, params.Category, params.ReferenceType, params.ReferenceID)
		if err != nil {
			return err
		}
		if existing != nil {
			return balance.ErrDuplicateObligation{
				Category:      params.Category,
				ReferenceType: params.ReferenceType,
				ReferenceID:   params.ReferenceID,
			}
		}

		now := time.Now()
		balanceID := uuid.New()

		newPosting = &posting.Posting{
			ID:            uuid.New(),
			Category:      params.Category,
			EntryType:     shared.EntryTypeDebit,
			Amount:        params.Amount,
			ReferenceType: params.ReferenceType,
			ReferenceID:   params.ReferenceID,
			DriverID:      params.DriverID,
			LeaseID:       params.LeaseID,
			VehicleID:     params.VehicleID,
			MedallionID:   params.MedallionID,
			BalanceID:     balanceID,
			Description:   params.Description,
			CreatedAt:     now,
			CreatedBy:     params.Actor,
		}
		if err := postingRepoTx.Create(ctx, newPosting); err != nil {
			return err
		}

		newBalance = &balance.Balance{
			ID:             balanceID,
			PostingID:      newPosting.ID,
			Category:       params.Category,
			ReferenceType:  params.ReferenceType,
			ReferenceID:    params.ReferenceID,
			DriverID:       params.DriverID,
			LeaseID:        params.LeaseID,
			OriginalAmount: params.Amount,
			CurrentBalance: params.Amount,
			Status:         shared.BalanceStatusOpen,
			DueDate:        params.DueDate,
			PeriodStart:    params.PeriodStart,
			PeriodEnd:      params.PeriodEnd,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		return balanceRepoTx.Create(ctx, newBalance)
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("Obligation created",
		"posting_id", newPosting.ID.String(),
		"balance_id", newBalance.ID.String(),
		"category", string(params.Category),
		"reference", params.ReferenceType+"/"+params.ReferenceID,
		"amount", params.Amount,
		"lease_id", params.LeaseID.String(),
	)

	return newPosting, newBalance, nil
}

// VoidPosting writes the equal-and-opposite reversal for a posting and settles
// the owning balance. Voiding an originating DEBIT clamps the balance to zero
// (VOIDED if nothing was ever paid against it, CLOSED otherwise); voiding an
// allocation CREDIT restores the amount onto the balance, unless the
// originating DEBIT was itself already voided, in which case the balance
// stays settled.
func (s *ObligationServiceImpl) VoidPosting(ctx context.Context, postingID uuid.UUID, reason, actor string) (*posting.Posting, *balance.Balance, error) {
	var (
		reversal *posting.Posting
		bal      *balance.Balance
	)

	err := s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		postingRepoTx := s.postingRepo.WithTx(tx)
		balanceRepoTx := s.balanceRepo.WithTx(tx)

		target, err := postingRepoTx.GetByID(ctx, postingID)
		if err != nil {
			return err
		}
		if target.IsReversal() {
			return ErrVoidReversal
		}

		// Lock the owning balance before inspecting reversals so two
		// concurrent voids of the same posting serialize here.
		bal, err = balanceRepoTx.LockForUpdate(ctx, target.BalanceID)
		if err != nil {
			return err
		}

		existing, err := postingRepoTx.GetReversalOf(ctx, postingID)
		if err != nil {
			return err
		}
		if existing != nil {
			return posting.ErrAlreadyVoided{PostingID: postingID, ReversalID: existing.ID}
		}

		reversal = posting.NewReversal(target, reason, actor)
		if err := postingRepoTx.Create(ctx, reversal); err != nil {
			return err
		}

		if target.ID == bal.PostingID {
			bal.ApplyVoid()
		} else {
			// Restoring a credit onto a balance whose originating DEBIT was
			// itself voided would reopen a cancelled obligation. The balance
			// stays settled; only the reversal posting is recorded.
			debitReversal, err := postingRepoTx.GetReversalOf(ctx, bal.PostingID)
			if err != nil {
				return err
			}
			if debitReversal != nil {
				return nil
			}
			if err := bal.RestoreCredit(target.Amount); err != nil {
				return err
			}
		}
		return balanceRepoTx.Update(ctx, bal)
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("Posting voided",
		"posting_id", postingID.String(),
		"reversal_id", reversal.ID.String(),
		"balance_id", bal.ID.String(),
		"balance_status", string(bal.Status),
		"reason", reason,
		"actor", actor,
	)

	return reversal, bal, nil
}
