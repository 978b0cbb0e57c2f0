package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/medallion-fleet-ledger/internal/domain/balance"
	"github.com/medallion-fleet-ledger/internal/domain/shared"
	"github.com/medallion-fleet-ledger/internal/platform/persistence"
)

// uniqueViolation is the PostgreSQL error code raised by the partial unique
// index on open balances; it is the race gate for duplicate obligations.
const uniqueViolation = "23505"

// BalanceRepository implements the balance.Repository interface for PostgreSQL
type BalanceRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewBalanceRepository creates a new PostgreSQL balance repository.
func NewBalanceRepository(logger *slog.Logger, db *persistence.PostgresDB) balance.Repository {
	return &BalanceRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction so a balance is written
// atomically with its originating posting.
func (r *BalanceRepository) WithTx(tx pgx.Tx) balance.Repository {
	return &BalanceRepository{
		querier: tx,
		logger:  r.logger,
	}
}

const balanceColumns = `id, posting_id, category, reference_type, reference_id, driver_id,
		lease_id, original_amount, current_balance, status, due_date, period_start,
		period_end, created_at, updated_at`

// Create stores a new balance. When two importers race the same external
// reference, the partial unique index lets exactly one insert through; the
// loser gets ErrDuplicateObligation.
func (r *BalanceRepository) Create(ctx context.Context, b *balance.Balance) error {
	query := `
		INSERT INTO balances (` + balanceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.querier.Exec(ctx, query,
		b.ID,
		b.PostingID,
		b.Category,
		b.ReferenceType,
		b.ReferenceID,
		b.DriverID,
		b.LeaseID,
		b.OriginalAmount,
		b.CurrentBalance,
		b.Status,
		b.DueDate,
		b.PeriodStart,
		b.PeriodEnd,
		b.CreatedAt,
		b.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return balance.ErrDuplicateObligation{
				Category:      b.Category,
				ReferenceType: b.ReferenceType,
				ReferenceID:   b.ReferenceID,
			}
		}
		r.logger.Error("Failed to create balance", "balance_id", b.ID.String(), "error", err)
		return fmt.Errorf("failed to create balance: %w", err)
	}

	return nil
}

func scanBalance(row pgx.Row) (*balance.Balance, error) {
	var b balance.Balance
	err := row.Scan(
		&b.ID,
		&b.PostingID,
		&b.Category,
		&b.ReferenceType,
		&b.ReferenceID,
		&b.DriverID,
		&b.LeaseID,
		&b.OriginalAmount,
		&b.CurrentBalance,
		&b.Status,
		&b.DueDate,
		&b.PeriodStart,
		&b.PeriodEnd,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// GetByID retrieves a balance by its ID
func (r *BalanceRepository) GetByID(ctx context.Context, id uuid.UUID) (*balance.Balance, error) {
	query := `
		SELECT ` + balanceColumns + `
		FROM balances
		WHERE id = $1
	`

	b, err := scanBalance(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, balance.ErrBalanceNotFound{BalanceID: id}
		}
		r.logger.Error("Failed to get balance", "balance_id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}

	return b, nil
}

// GetByPostingID retrieves the balance owned by an originating posting
func (r *BalanceRepository) GetByPostingID(ctx context.Context, postingID uuid.UUID) (*balance.Balance, error) {
	query := `
		SELECT ` + balanceColumns + `
		FROM balances
		WHERE posting_id = $1
	`

	b, err := scanBalance(r.querier.QueryRow(ctx, query, postingID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, balance.ErrBalanceNotFound{}
		}
		r.logger.Error("Failed to get balance by posting", "posting_id", postingID.String(), "error", err)
		return nil, fmt.Errorf("failed to get balance by posting: %w", err)
	}

	return b, nil
}

// GetOpenByReference returns the non-voided OPEN/PARTIALLY_PAID balance for
// the reference triple, or nil when none exists.
func (r *BalanceRepository) GetOpenByReference(ctx context.Context, category shared.Category, referenceType, referenceID string) (*balance.Balance, error) {
	query := `
		SELECT ` + balanceColumns + `
		FROM balances
		WHERE category = $1 AND reference_type = $2 AND reference_id = $3
		  AND status IN ('OPEN', 'PARTIALLY_PAID')
	`

	b, err := scanBalance(r.querier.QueryRow(ctx, query, category, referenceType, referenceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // No open balance for this reference
		}
		r.logger.Error("Failed to get balance by reference",
			"category", string(category),
			"reference", referenceType+"/"+referenceID,
			"error", err)
		return nil, fmt.Errorf("failed to get balance by reference: %w", err)
	}

	return b, nil
}

// GetOutstandingByLease returns OPEN/PARTIALLY_PAID balances for a lease in
// allocation order: fixed category priority first, due date ascending within
// a category, oldest first as the final tiebreak.
func (r *BalanceRepository) GetOutstandingByLease(ctx context.Context, leaseID uuid.UUID) ([]*balance.Balance, error) {
	query := `
		SELECT ` + balanceColumns + `
		FROM balances
		WHERE lease_id = $1 AND status IN ('OPEN', 'PARTIALLY_PAID')
		ORDER BY
			CASE category
				WHEN 'LEASE' THEN 0
				WHEN 'TAXES' THEN 1
				WHEN 'EZPASS' THEN 2
				WHEN 'PVB' THEN 3
				WHEN 'TLC' THEN 4
				WHEN 'REPAIRS' THEN 5
				WHEN 'LOANS' THEN 6
				ELSE 7
			END,
			due_date ASC NULLS LAST,
			created_at ASC
	`

	rows, err := r.querier.Query(ctx, query, leaseID)
	if err != nil {
		r.logger.Error("Failed to get outstanding balances", "lease_id", leaseID.String(), "error", err)
		return nil, fmt.Errorf("failed to get outstanding balances: %w", err)
	}
	defer rows.Close()

	var balances []*balance.Balance
	for rows.Next() {
		b, err := scanBalance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan balance: %w", err)
		}
		balances = append(balances, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read balances: %w", err)
	}

	return balances, nil
}

// Update persists the state produced by the balance's defined transitions
func (r *BalanceRepository) Update(ctx context.Context, b *balance.Balance) error {
	query := `
		UPDATE balances
		SET current_balance = $1, status = $2, updated_at = $3
		WHERE id = $4
	`

	result, err := r.querier.Exec(ctx, query, b.CurrentBalance, b.Status, b.UpdatedAt, b.ID)
	if err != nil {
		r.logger.Error("Failed to update balance", "balance_id", b.ID.String(), "error", err)
		return fmt.Errorf("failed to update balance: %w", err)
	}

	if result.RowsAffected() == 0 {
		return balance.ErrBalanceNotFound{BalanceID: b.ID}
	}

	return nil
}

// LockForUpdate obtains a pessimistic lock on the balance and returns its
// current state. Used inside void and allocation transactions.
func (r *BalanceRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*balance.Balance, error) {
	query := `
		SELECT ` + balanceColumns + `
		FROM balances
		WHERE id = $1
		FOR UPDATE
	`

	b, err := scanBalance(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, balance.ErrBalanceNotFound{BalanceID: id}
		}
		r.logger.Error("Failed to lock balance for update", "balance_id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to lock balance for update: %w", err)
	}

	return b, nil
}
