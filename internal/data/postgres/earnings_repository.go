package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/medallion-fleet-ledger/internal/domain/settlement"
	"github.com/medallion-fleet-ledger/internal/platform/persistence"
)

// EarningsRepository implements settlement.EarningsSource over the
// lease_earnings table. The trip revenue system writes one row per lease and
// week; the settlement engine only ever reads it.
type EarningsRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewEarningsRepository creates a new PostgreSQL earnings source.
func NewEarningsRepository(logger *slog.Logger, db *persistence.PostgresDB) settlement.EarningsSource {
	return &EarningsRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// GrossEarnings returns the gross fare revenue recorded for the lease's week,
// in cents. A missing row means no revenue was reported and counts as zero.
func (r *EarningsRepository) GrossEarnings(ctx context.Context, leaseID uuid.UUID, periodStart time.Time) (int64, error) {
	query := `
		SELECT gross_amount
		FROM lease_earnings
		WHERE lease_id = $1 AND period_start = $2
	`

	var gross int64
	err := r.querier.QueryRow(ctx, query, leaseID, periodStart).Scan(&gross)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil // No revenue reported for this week
		}
		r.logger.Error("Failed to get gross earnings", "lease_id", leaseID.String(), "error", err)
		return 0, fmt.Errorf("failed to get gross earnings: %w", err)
	}

	return gross, nil
}
