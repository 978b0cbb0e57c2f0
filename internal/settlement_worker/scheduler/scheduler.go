// Package scheduler drives the weekly settlement run. Once a payment week has
// closed and the grace delay has passed, every active lease gets its DTR
// generated by a bounded worker pool.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/medallion-fleet-ledger/internal/config"
	"github.com/medallion-fleet-ledger/internal/domain/lease"
	"github.com/medallion-fleet-ledger/internal/domain/settlement"
	"github.com/medallion-fleet-ledger/internal/ledger"
)

// Scheduler periodically settles the most recent closed payment week
type Scheduler struct {
	leaseRepo         lease.Repository
	settlementRepo    settlement.Repository
	settlementService ledger.SettlementService
	pool              *ants.Pool
	logger            *slog.Logger
	checkInterval     time.Duration
	graceDelay        time.Duration
	actor             string
}

func NewScheduler(
	cfg *config.Config,
	leaseRepo lease.Repository,
	settlementRepo settlement.Repository,
	settlementService ledger.SettlementService,
	logger *slog.Logger,
) (*Scheduler, error) {
	pool, err := ants.NewPool(cfg.WorkerPool.Size)
	if err != nil {
		return nil, err
	}

	return &Scheduler{
		leaseRepo:         leaseRepo,
		settlementRepo:    settlementRepo,
		settlementService: settlementService,
		pool:              pool,
		logger:            logger,
		checkInterval:     cfg.Settlement.CheckInterval,
		graceDelay:        cfg.Settlement.GraceDelay,
		actor:             cfg.Settlement.Actor,
	}, nil
}

// Start runs the scheduler loop until the context is canceled.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting settlement scheduler",
		"check_interval", s.checkInterval.String(),
		"grace_delay", s.graceDelay.String(),
		"pool_size", s.pool.Cap(),
	)
	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Settlement scheduler stopping due to context cancellation.")
			return
		case <-ticker.C:
			if err := s.RunOnce(ctx, time.Now()); err != nil {
				s.logger.Error("Settlement run finished with errors", "error", err)
			}
		}
	}
}

// Shutdown releases the worker pool.
func (s *Scheduler) Shutdown() {
	s.logger.Info("Shutting down settlement scheduler pool", "running_workers", s.pool.Running())
	s.pool.Release()
}

// RunOnce settles the most recent closed week for every active lease that is
// not settled yet. Leases are processed independently so one failure never
// blocks the rest of the fleet; the combined error is returned for logging.
func (s *Scheduler) RunOnce(ctx context.Context, now time.Time) error {
	period := ledger.PreviousWeek(now)
	if now.Before(period.End.Add(s.graceDelay)) {
		s.logger.Debug("Grace delay not elapsed, skipping settlement run",
			"period_end", period.End.Format(time.RFC3339),
		)
		return nil
	}

	leases, err := s.leaseRepo.GetActive(ctx)
	if err != nil {
		return err
	}
	if len(leases) == 0 {
		return nil
	}

	s.logger.Info("Settlement run starting",
		"period_start", period.Start.Format("2006-01-02"),
		"active_leases", len(leases),
	)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	for _, l := range leases {
		current, err := s.settlementRepo.GetCurrent(ctx, l.ID, period.Start)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if current != nil {
			continue // Already settled
		}

		leaseID := l.ID
		wg.Add(1)
		submitErr := s.pool.Submit(func() {
			defer wg.Done()
			_, err := s.settlementService.GenerateSettlement(ctx, ledger.GenerateSettlementParams{
				LeaseID:     leaseID,
				PeriodStart: period.Start,
				PeriodEnd:   period.End,
				Actor:       s.actor,
			})
			if err != nil {
				// Another worker got there first, that is a success for us
				if errors.Is(err, settlement.ErrSettlementExists{}) {
					return
				}
				s.logger.Error("Failed to settle lease",
					"lease_id", leaseID.String(),
					"period_start", period.Start.Format("2006-01-02"),
					"error", err,
				)
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			errs = append(errs, submitErr)
			mu.Unlock()
		}
	}

	wg.Wait()

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	s.logger.Info("Settlement run complete", "period_start", period.Start.Format("2006-01-02"))
	return nil
}
