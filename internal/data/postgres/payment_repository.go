package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/medallion-fleet-ledger/internal/domain/payment"
	"github.com/medallion-fleet-ledger/internal/platform/persistence"
)

// PaymentRepository implements the payment.Repository interface for PostgreSQL.
// Allocation detail rows belong to their payment; the schema cascades them.
type PaymentRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewPaymentRepository creates a new PostgreSQL payment repository.
func NewPaymentRepository(logger *slog.Logger, db *persistence.PostgresDB) payment.Repository {
	return &PaymentRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction
func (r *PaymentRepository) WithTx(tx pgx.Tx) payment.Repository {
	return &PaymentRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// CreatePayment stores a new payment event
func (r *PaymentRepository) CreatePayment(ctx context.Context, p *payment.Payment) error {
	query := `
		INSERT INTO payments (id, driver_id, lease_id, source, amount, applied, unallocated,
			period_start, period_end, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.querier.Exec(ctx, query,
		p.ID,
		p.DriverID,
		p.LeaseID,
		p.Source,
		p.Amount,
		p.Applied,
		p.Unallocated,
		p.PeriodStart,
		p.PeriodEnd,
		p.CreatedAt,
		p.CreatedBy,
	)
	if err != nil {
		r.logger.Error("Failed to create payment", "payment_id", p.ID.String(), "error", err)
		return fmt.Errorf("failed to create payment: %w", err)
	}

	return nil
}

// CreateDetail stores one allocation row for a payment
func (r *PaymentRepository) CreateDetail(ctx context.Context, d *payment.AllocationDetail) error {
	query := `
		INSERT INTO allocation_details (id, payment_id, balance_id, posting_id, category,
			amount, remaining_balance, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.querier.Exec(ctx, query,
		d.ID,
		d.PaymentID,
		d.BalanceID,
		d.PostingID,
		d.Category,
		d.Amount,
		d.RemainingBalance,
		d.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create allocation detail", "detail_id", d.ID.String(), "error", err)
		return fmt.Errorf("failed to create allocation detail: %w", err)
	}

	return nil
}

// GetPaymentByID retrieves a payment by its ID
func (r *PaymentRepository) GetPaymentByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	query := `
		SELECT id, driver_id, lease_id, source, amount, applied, unallocated,
			period_start, period_end, created_at, created_by
		FROM payments
		WHERE id = $1
	`

	var p payment.Payment
	err := r.querier.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.DriverID,
		&p.LeaseID,
		&p.Source,
		&p.Amount,
		&p.Applied,
		&p.Unallocated,
		&p.PeriodStart,
		&p.PeriodEnd,
		&p.CreatedAt,
		&p.CreatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, payment.ErrPaymentNotFound{PaymentID: id}
		}
		r.logger.Error("Failed to get payment", "payment_id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	return &p, nil
}

// GetDetailsByPaymentID returns the allocation rows of one payment in the
// order they were applied.
func (r *PaymentRepository) GetDetailsByPaymentID(ctx context.Context, paymentID uuid.UUID) ([]*payment.AllocationDetail, error) {
	query := `
		SELECT id, payment_id, balance_id, posting_id, category, amount, remaining_balance, created_at
		FROM allocation_details
		WHERE payment_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.querier.Query(ctx, query, paymentID)
	if err != nil {
		r.logger.Error("Failed to get allocation details", "payment_id", paymentID.String(), "error", err)
		return nil, fmt.Errorf("failed to get allocation details: %w", err)
	}
	defer rows.Close()

	var details []*payment.AllocationDetail
	for rows.Next() {
		var d payment.AllocationDetail
		if err := rows.Scan(
			&d.ID,
			&d.PaymentID,
			&d.BalanceID,
			&d.PostingID,
			&d.Category,
			&d.Amount,
			&d.RemainingBalance,
			&d.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan allocation detail: %w", err)
		}
		details = append(details, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read allocation details: %w", err)
	}

	return details, nil
}

// GetPaymentsByLease retrieves paginated payments for a lease, newest first.
func (r *PaymentRepository) GetPaymentsByLease(ctx context.Context, leaseID uuid.UUID, limit, offset int) ([]*payment.Payment, error) {
	query := `
		SELECT id, driver_id, lease_id, source, amount, applied, unallocated,
			period_start, period_end, created_at, created_by
		FROM payments
		WHERE lease_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.querier.Query(ctx, query, leaseID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to get payments", "lease_id", leaseID.String(), "error", err)
		return nil, fmt.Errorf("failed to get payments: %w", err)
	}
	defer rows.Close()

	var payments []*payment.Payment
	for rows.Next() {
		var p payment.Payment
		if err := rows.Scan(
			&p.ID,
			&p.DriverID,
			&p.LeaseID,
			&p.Source,
			&p.Amount,
			&p.Applied,
			&p.Unallocated,
			&p.PeriodStart,
			&p.PeriodEnd,
			&p.CreatedAt,
			&p.CreatedBy,
		); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read payments: %w", err)
	}

	return payments, nil
}
