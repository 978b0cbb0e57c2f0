package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/medallion-fleet-ledger/internal/domain/lease"
	"github.com/medallion-fleet-ledger/internal/platform/persistence"
)

// LeaseRepository implements the lease.Repository interface for PostgreSQL
type LeaseRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewLeaseRepository creates a new PostgreSQL lease repository.
func NewLeaseRepository(logger *slog.Logger, db *persistence.PostgresDB) lease.Repository {
	return &LeaseRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction
func (r *LeaseRepository) WithTx(tx pgx.Tx) lease.Repository {
	return &LeaseRepository{
		querier: tx,
		logger:  r.logger,
	}
}

const leaseColumns = `id, driver_id, vehicle_id, medallion_id, active, start_date, end_date, created_at, updated_at`

// Create stores a new lease
func (r *LeaseRepository) Create(ctx context.Context, l *lease.Lease) error {
	query := `
		INSERT INTO leases (` + leaseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.querier.Exec(ctx, query,
		l.ID,
		l.DriverID,
		l.VehicleID,
		l.MedallionID,
		l.Active,
		l.StartDate,
		l.EndDate,
		l.CreatedAt,
		l.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create lease", "lease_id", l.ID.String(), "error", err)
		return fmt.Errorf("failed to create lease: %w", err)
	}

	return nil
}

func scanLease(row pgx.Row) (*lease.Lease, error) {
	var l lease.Lease
	err := row.Scan(
		&l.ID,
		&l.DriverID,
		&l.VehicleID,
		&l.MedallionID,
		&l.Active,
		&l.StartDate,
		&l.EndDate,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// GetByID retrieves a lease by its ID
func (r *LeaseRepository) GetByID(ctx context.Context, id uuid.UUID) (*lease.Lease, error) {
	query := `
		SELECT ` + leaseColumns + `
		FROM leases
		WHERE id = $1
	`

	l, err := scanLease(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, lease.ErrLeaseNotFound{LeaseID: id}
		}
		r.logger.Error("Failed to get lease", "lease_id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get lease: %w", err)
	}

	return l, nil
}

// GetActive lists every active lease, oldest first, for the weekly
// settlement scheduler.
func (r *LeaseRepository) GetActive(ctx context.Context) ([]*lease.Lease, error) {
	query := `
		SELECT ` + leaseColumns + `
		FROM leases
		WHERE active = TRUE
		ORDER BY created_at ASC
	`

	rows, err := r.querier.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to get active leases", "error", err)
		return nil, fmt.Errorf("failed to get active leases: %w", err)
	}
	defer rows.Close()

	var leases []*lease.Lease
	for rows.Next() {
		l, err := scanLease(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lease: %w", err)
		}
		leases = append(leases, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read leases: %w", err)
	}

	return leases, nil
}

// LockForUpdate obtains a pessimistic lock on the lease row. Obligation
// creation and payment allocation both take it, giving per-lease mutual
// exclusion across worker processes.
func (r *LeaseRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*lease.Lease, error) {
	query := `
		SELECT ` + leaseColumns + `
		FROM leases
		WHERE id = $1
		FOR UPDATE
	`

	l, err := scanLease(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, lease.ErrLeaseNotFound{LeaseID: id}
		}
		r.logger.Error("Failed to lock lease for update", "lease_id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to lock lease for update: %w", err)
	}

	return l, nil
}
