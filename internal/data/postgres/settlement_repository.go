package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/medallion-fleet-ledger/internal/domain/settlement"
	"github.com/medallion-fleet-ledger/internal/platform/persistence"
)

// SettlementRepository implements the settlement.Repository interface for
// PostgreSQL. Settlements are append-only and generation sequenced; the
// unique (lease_id, period_start, generation) constraint serializes
// concurrent generation attempts for the same lease/period.
type SettlementRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewSettlementRepository creates a new PostgreSQL settlement repository.
func NewSettlementRepository(logger *slog.Logger, db *persistence.PostgresDB) settlement.Repository {
	return &SettlementRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction
func (r *SettlementRepository) WithTx(tx pgx.Tx) settlement.Repository {
	return &SettlementRepository{
		querier: tx,
		logger:  r.logger,
	}
}

const settlementColumns = `id, lease_id, driver_id, period_start, period_end, generation,
		lease_total, taxes_total, ezpass_total, pvb_total, tlc_total, repairs_total,
		loans_total, misc_total, gross_earnings, prior_balance, net_earnings, total_due,
		superseded, generated_at, generated_by`

// Create appends a new settlement record. A concurrent generation attempt for
// the same lease/period/generation loses on the unique constraint and
// surfaces as ErrSettlementExists.
func (r *SettlementRepository) Create(ctx context.Context, s *settlement.Settlement) error {
	query := `
		INSERT INTO settlements (` + settlementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`

	_, err := r.querier.Exec(ctx, query,
		s.ID,
		s.LeaseID,
		s.DriverID,
		s.PeriodStart,
		s.PeriodEnd,
		s.Generation,
		s.Totals.Lease,
		s.Totals.Taxes,
		s.Totals.EZPass,
		s.Totals.PVB,
		s.Totals.TLC,
		s.Totals.Repairs,
		s.Totals.Loans,
		s.Totals.Misc,
		s.GrossEarnings,
		s.PriorBalance,
		s.NetEarnings,
		s.TotalDue,
		s.Superseded,
		s.GeneratedAt,
		s.GeneratedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return settlement.ErrSettlementExists{LeaseID: s.LeaseID, PeriodStart: s.PeriodStart}
		}
		r.logger.Error("Failed to create settlement", "settlement_id", s.ID.String(), "error", err)
		return fmt.Errorf("failed to create settlement: %w", err)
	}

	return nil
}

func scanSettlement(row pgx.Row) (*settlement.Settlement, error) {
	var s settlement.Settlement
	err := row.Scan(
		&s.ID,
		&s.LeaseID,
		&s.DriverID,
		&s.PeriodStart,
		&s.PeriodEnd,
		&s.Generation,
		&s.Totals.Lease,
		&s.Totals.Taxes,
		&s.Totals.EZPass,
		&s.Totals.PVB,
		&s.Totals.TLC,
		&s.Totals.Repairs,
		&s.Totals.Loans,
		&s.Totals.Misc,
		&s.GrossEarnings,
		&s.PriorBalance,
		&s.NetEarnings,
		&s.TotalDue,
		&s.Superseded,
		&s.GeneratedAt,
		&s.GeneratedBy,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetByID retrieves a settlement by its ID
func (r *SettlementRepository) GetByID(ctx context.Context, id uuid.UUID) (*settlement.Settlement, error) {
	query := `
		SELECT ` + settlementColumns + `
		FROM settlements
		WHERE id = $1
	`

	s, err := scanSettlement(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, settlement.ErrSettlementNotFound{SettlementID: id}
		}
		r.logger.Error("Failed to get settlement", "settlement_id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get settlement: %w", err)
	}

	return s, nil
}

// GetCurrent returns the latest non-superseded settlement for the lease and
// period start, or nil when the period has not been settled.
func (r *SettlementRepository) GetCurrent(ctx context.Context, leaseID uuid.UUID, periodStart time.Time) (*settlement.Settlement, error) {
	query := `
		SELECT ` + settlementColumns + `
		FROM settlements
		WHERE lease_id = $1 AND period_start = $2 AND superseded = FALSE
		ORDER BY generation DESC
		LIMIT 1
	`

	s, err := scanSettlement(r.querier.QueryRow(ctx, query, leaseID, periodStart))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Period not settled yet
		}
		r.logger.Error("Failed to get current settlement", "lease_id", leaseID.String(), "error", err)
		return nil, fmt.Errorf("failed to get current settlement: %w", err)
	}

	return s, nil
}

// GetLatestBefore returns the most recent non-superseded settlement whose
// period ended before the given period start; its total due is the prior
// balance carried forward.
func (r *SettlementRepository) GetLatestBefore(ctx context.Context, leaseID uuid.UUID, periodStart time.Time) (*settlement.Settlement, error) {
	query := `
		SELECT ` + settlementColumns + `
		FROM settlements
		WHERE lease_id = $1 AND period_end < $2 AND superseded = FALSE
		ORDER BY period_start DESC, generation DESC
		LIMIT 1
	`

	s, err := scanSettlement(r.querier.QueryRow(ctx, query, leaseID, periodStart))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // First settlement for this lease
		}
		r.logger.Error("Failed to get prior settlement", "lease_id", leaseID.String(), "error", err)
		return nil, fmt.Errorf("failed to get prior settlement: %w", err)
	}

	return s, nil
}

// GetByLease retrieves paginated settlements for a lease, newest period first.
func (r *SettlementRepository) GetByLease(ctx context.Context, leaseID uuid.UUID, limit, offset int) ([]*settlement.Settlement, error) {
	query := `
		SELECT ` + settlementColumns + `
		FROM settlements
		WHERE lease_id = $1
		ORDER BY period_start DESC, generation DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.querier.Query(ctx, query, leaseID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to get settlements", "lease_id", leaseID.String(), "error", err)
		return nil, fmt.Errorf("failed to get settlements: %w", err)
	}
	defer rows.Close()

	var settlements []*settlement.Settlement
	for rows.Next() {
		s, err := scanSettlement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		settlements = append(settlements, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read settlements: %w", err)
	}

	return settlements, nil
}

// MarkSuperseded flips the superseded flag when a regeneration commits; it is
// the single permitted mutation of a settlement row.
func (r *SettlementRepository) MarkSuperseded(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE settlements
		SET superseded = TRUE
		WHERE id = $1
	`

	result, err := r.querier.Exec(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to mark settlement superseded", "settlement_id", id.String(), "error", err)
		return fmt.Errorf("failed to mark settlement superseded: %w", err)
	}

	if result.RowsAffected() == 0 {
		return settlement.ErrSettlementNotFound{SettlementID: id}
	}

	return nil
}
