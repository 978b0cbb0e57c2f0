// Package postgres provides PostgreSQL implementations of the domain repositories.
// It handles all database operations while maintaining transaction safety and
// proper error handling for the fleet ledger core.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/medallion-fleet-ledger/internal/domain/posting"
	"github.com/medallion-fleet-ledger/internal/platform/persistence"
)

// PostingRepository implements the posting.Repository interface for PostgreSQL.
// The postings table is append-only: the repository exposes no update or
// delete and the schema has no mutable columns.
type PostingRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewPostingRepository creates a new PostgreSQL posting repository.
func NewPostingRepository(logger *slog.Logger, db *persistence.PostgresDB) posting.Repository {
	return &PostingRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction, allowing atomic writes of a
// posting together with its balance.
func (r *PostingRepository) WithTx(tx pgx.Tx) posting.Repository {
	return &PostingRepository{
		querier: tx,
		logger:  r.logger,
	}
}

const postingColumns = `id, category, entry_type, amount, reference_type, reference_id,
		driver_id, lease_id, vehicle_id, medallion_id, balance_id, reverses_posting_id,
		description, created_at, created_by`

// Create appends a new posting. Postings are never updated afterwards.
func (r *PostingRepository) Create(ctx context.Context, p *posting.Posting) error {
	query := `
		INSERT INTO postings (` + postingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.querier.Exec(ctx, query,
		p.ID,
		p.Category,
		p.EntryType,
		p.Amount,
		p.ReferenceType,
		p.ReferenceID,
		p.DriverID,
		p.LeaseID,
		p.VehicleID,
		p.MedallionID,
		p.BalanceID,
		p.ReversesPostingID,
		p.Description,
		p.CreatedAt,
		p.CreatedBy,
	)
	if err != nil {
		r.logger.Error("Failed to create posting", "posting_id", p.ID.String(), "error", err)
		return fmt.Errorf("failed to create posting: %w", err)
	}

	return nil
}

func scanPosting(row pgx.Row) (*posting.Posting, error) {
	var p posting.Posting
	err := row.Scan(
		&p.ID,
		&p.Category,
		&p.EntryType,
		&p.Amount,
		&p.ReferenceType,
		&p.ReferenceID,
		&p.DriverID,
		&p.LeaseID,
		&p.VehicleID,
		&p.MedallionID,
		&p.BalanceID,
		&p.ReversesPostingID,
		&p.Description,
		&p.CreatedAt,
		&p.CreatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByID retrieves a posting by its ID
func (r *PostingRepository) GetByID(ctx context.Context, id uuid.UUID) (*posting.Posting, error) {
	query := `
		SELECT ` + postingColumns + `
		FROM postings
		WHERE id = $1
	`

	p, err := scanPosting(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, posting.ErrPostingNotFound{PostingID: id}
		}
		r.logger.Error("Failed to get posting", "posting_id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get posting: %w", err)
	}

	return p, nil
}

// GetReversalOf returns the posting that reverses the given posting, or nil
// when the posting has not been voided.
func (r *PostingRepository) GetReversalOf(ctx context.Context, postingID uuid.UUID) (*posting.Posting, error) {
	query := `
		SELECT ` + postingColumns + `
		FROM postings
		WHERE reverses_posting_id = $1
	`

	p, err := scanPosting(r.querier.QueryRow(ctx, query, postingID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not voided
		}
		r.logger.Error("Failed to get reversal", "posting_id", postingID.String(), "error", err)
		return nil, fmt.Errorf("failed to get reversal: %w", err)
	}

	return p, nil
}

// GetByLeaseID retrieves paginated postings for a lease, newest first.
func (r *PostingRepository) GetByLeaseID(ctx context.Context, leaseID uuid.UUID, limit, offset int) ([]*posting.Posting, error) {
	query := `
		SELECT ` + postingColumns + `
		FROM postings
		WHERE lease_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.querier.Query(ctx, query, leaseID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to get postings", "lease_id", leaseID.String(), "error", err)
		return nil, fmt.Errorf("failed to get postings: %w", err)
	}
	defer rows.Close()

	return collectPostings(rows)
}

// CountByLeaseID counts the total number of postings for a lease
func (r *PostingRepository) CountByLeaseID(ctx context.Context, leaseID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM postings WHERE lease_id = $1`

	var count int64
	if err := r.querier.QueryRow(ctx, query, leaseID).Scan(&count); err != nil {
		r.logger.Error("Failed to count postings", "lease_id", leaseID.String(), "error", err)
		return 0, fmt.Errorf("failed to count postings: %w", err)
	}

	return count, nil
}

// GetByLeaseAndPeriod returns every posting for the lease effective within the
// window, oldest first, the input of weekly settlement aggregation.
func (r *PostingRepository) GetByLeaseAndPeriod(ctx context.Context, leaseID uuid.UUID, periodStart, periodEnd time.Time) ([]*posting.Posting, error) {
	query := `
		SELECT ` + postingColumns + `
		FROM postings
		WHERE lease_id = $1 AND created_at >= $2 AND created_at <= $3
		ORDER BY created_at ASC
	`

	rows, err := r.querier.Query(ctx, query, leaseID, periodStart, periodEnd)
	if err != nil {
		r.logger.Error("Failed to get postings by period", "lease_id", leaseID.String(), "error", err)
		return nil, fmt.Errorf("failed to get postings by period: %w", err)
	}
	defer rows.Close()

	return collectPostings(rows)
}

func collectPostings(rows pgx.Rows) ([]*posting.Posting, error) {
	var postings []*posting.Posting
	for rows.Next() {
		p, err := scanPosting(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan posting: %w", err)
		}
		postings = append(postings, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read postings: %w", err)
	}
	return postings, nil
}
