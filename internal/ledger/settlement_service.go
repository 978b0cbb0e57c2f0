package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/medallion-fleet-ledger/internal/domain/lease"
	"github.com/medallion-fleet-ledger/internal/domain/outbox"
	"github.com/medallion-fleet-ledger/internal/domain/posting"
	"github.com/medallion-fleet-ledger/internal/domain/settlement"
	"github.com/medallion-fleet-ledger/internal/domain/shared"
)

// SettlementServiceImpl implements the SettlementService interface
type SettlementServiceImpl struct {
	db             TxRunner
	leaseRepo      lease.Repository
	postingRepo    posting.Repository
	settlementRepo settlement.Repository
	outboxRepo     outbox.Repository
	earnings       settlement.EarningsSource
	logger         *slog.Logger
}

// NewSettlementService creates a new weekly settlement aggregator
func NewSettlementService(
	logger *slog.Logger,
	db TxRunner,
	leaseRepo lease.Repository,
	postingRepo posting.Repository,
	settlementRepo settlement.Repository,
	outboxRepo outbox.Repository,
	earnings settlement.EarningsSource,
) SettlementService {
	return &SettlementServiceImpl{
		db:             db,
		leaseRepo:      leaseRepo,
		postingRepo:    postingRepo,
		settlementRepo: settlementRepo,
		outboxRepo:     outboxRepo,
		earnings:       earnings,
		logger:         logger,
	}
}

// GenerateSettlement aggregates every posting effective in the period into the
// immutable DTR for the lease. The settlement row and its archive outbox entry
// commit in one transaction; the unique (lease, period, generation) constraint
// serializes a manual regeneration racing the scheduled run. TotalDue keeps
// its sign: negative means the driver is owed money, and it is never clamped.
func (s *SettlementServiceImpl) GenerateSettlement(ctx context.Context, params GenerateSettlementParams) (*settlement.Settlement, error) {
	if !params.PeriodEnd.After(params.PeriodStart) {
		return nil, fmt.Errorf("settlement period end %s is not after start %s",
			params.PeriodEnd.Format(time.RFC3339), params.PeriodStart.Format(time.RFC3339))
	}

	gross, err := s.earnings.GrossEarnings(ctx, params.LeaseID, params.PeriodStart)
	if err != nil {
		return nil, fmt.Errorf("failed to read gross earnings for lease %s: %w", params.LeaseID.String(), err)
	}

	var record *settlement.Settlement

	err = s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		leaseRepoTx := s.leaseRepo.WithTx(tx)
		postingRepoTx := s.postingRepo.WithTx(tx)
		settlementRepoTx := s.settlementRepo.WithTx(tx)
		outboxRepoTx := s.outboxRepo.WithTx(tx)

		l, err := leaseRepoTx.GetByID(ctx, params.LeaseID)
		if err != nil {
			return err
		}

		current, err := settlementRepoTx.GetCurrent(ctx, params.LeaseID, params.PeriodStart)
		if err != nil {
			return err
		}
		generation := 1
		if current != nil {
			if !params.Regenerate {
				return settlement.ErrSettlementExists{LeaseID: params.LeaseID, PeriodStart: params.PeriodStart}
			}
			generation = current.Generation + 1
		}

		postings, err := postingRepoTx.GetByLeaseAndPeriod(ctx, params.LeaseID, params.PeriodStart, params.PeriodEnd)
		if err != nil {
			return err
		}

		var totals settlement.CategoryTotals
		for _, p := range postings {
			if p.EntryType == shared.EntryTypeDebit {
				totals.Add(p.Category, p.Amount)
			} else {
				totals.Add(p.Category, -p.Amount)
			}
		}

		var priorBalance int64
		prior, err := settlementRepoTx.GetLatestBefore(ctx, params.LeaseID, params.PeriodStart)
		if err != nil {
			return err
		}
		if prior != nil {
			priorBalance = prior.TotalDue
		}

		obligations := totals.Sum()
		record = &settlement.Settlement{
			ID:            uuid.New(),
			LeaseID:       params.LeaseID,
			DriverID:      l.DriverID,
			PeriodStart:   params.PeriodStart,
			PeriodEnd:     params.PeriodEnd,
			Generation:    generation,
			Totals:        totals,
			GrossEarnings: gross,
			PriorBalance:  priorBalance,
			NetEarnings:   gross - obligations,
			TotalDue:      obligations + priorBalance - gross,
			GeneratedAt:   time.Now(),
			GeneratedBy:   params.Actor,
		}
		if err := settlementRepoTx.Create(ctx, record); err != nil {
			return err
		}

		if current != nil {
			if err := settlementRepoTx.MarkSuperseded(ctx, current.ID); err != nil {
				return err
			}
		}

		message, err := outbox.NewMessage(record)
		if err != nil {
			return fmt.Errorf("failed to build archive outbox message for settlement %s: %w", record.ID.String(), err)
		}
		return outboxRepoTx.Create(ctx, message)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Settlement generated",
		"settlement_id", record.ID.String(),
		"lease_id", params.LeaseID.String(),
		"period_start", params.PeriodStart.Format("2006-01-02"),
		"generation", record.Generation,
		"gross", record.GrossEarnings,
		"total_due", record.TotalDue,
		"actor", params.Actor,
	)

	return record, nil
}
