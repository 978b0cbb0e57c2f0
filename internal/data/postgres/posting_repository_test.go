package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/medallion-fleet-ledger/internal/domain/posting"
	"github.com/medallion-fleet-ledger/internal/domain/shared"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var postingTestColumns = []string{
	"id", "category", "entry_type", "amount", "reference_type", "reference_id",
	"driver_id", "lease_id", "vehicle_id", "medallion_id", "balance_id", "reverses_posting_id",
	"description", "created_at", "created_by",
}

func newTestPosting() *posting.Posting {
	return &posting.Posting{
		ID:            uuid.New(),
		Category:      shared.CategoryPVB,
		EntryType:     shared.EntryTypeDebit,
		Amount:        11500,
		ReferenceType: "PVB_VIOLATION",
		ReferenceID:   "NYC-PVB-7781234",
		DriverID:      uuid.New(),
		LeaseID:       uuid.New(),
		BalanceID:     uuid.New(),
		Description:   "No standing violation",
		CreatedAt:     time.Now(),
		CreatedBy:     "obligation-importer",
	}
}

func postingRow(p *posting.Posting) *pgxmock.Rows {
	return pgxmock.NewRows(postingTestColumns).
		AddRow(p.ID, p.Category, p.EntryType, p.Amount, p.ReferenceType, p.ReferenceID,
			p.DriverID, p.LeaseID, p.VehicleID, p.MedallionID, p.BalanceID, p.ReversesPostingID,
			p.Description, p.CreatedAt, p.CreatedBy)
}

func TestPostingRepository_Create(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &PostingRepository{querier: mock, logger: logger}
	p := newTestPosting()

	query := `INSERT INTO postings \(id, category, entry_type, amount, reference_type, reference_id,`

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(p.ID, p.Category, p.EntryType, p.Amount, p.ReferenceType, p.ReferenceID,
				p.DriverID, p.LeaseID, p.VehicleID, p.MedallionID, p.BalanceID, p.ReversesPostingID,
				p.Description, p.CreatedAt, p.CreatedBy).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		err := repo.Create(ctx, p)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failure", func(t *testing.T) {
		expectedErr := errors.New("db error")
		mock.ExpectExec(query).
			WithArgs(p.ID, p.Category, p.EntryType, p.Amount, p.ReferenceType, p.ReferenceID,
				p.DriverID, p.LeaseID, p.VehicleID, p.MedallionID, p.BalanceID, p.ReversesPostingID,
				p.Description, p.CreatedAt, p.CreatedBy).
			WillReturnError(expectedErr)

		err := repo.Create(ctx, p)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create posting")
		assert.ErrorIs(t, err, expectedErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostingRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &PostingRepository{querier: mock, logger: logger}
	p := newTestPosting()

	query := `FROM postings\s+WHERE id = \$1`

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs(p.ID).
			WillReturnRows(postingRow(p))

		got, err := repo.GetByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, p.ID, got.ID)
		assert.Equal(t, p.EntryType, got.EntryType)
		assert.Equal(t, p.Amount, got.Amount)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		missing := uuid.New()
		mock.ExpectQuery(query).
			WithArgs(missing).
			WillReturnError(pgx.ErrNoRows)

		got, err := repo.GetByID(ctx, missing)
		assert.Nil(t, got)
		assert.ErrorIs(t, err, posting.ErrPostingNotFound{PostingID: missing})
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostingRepository_GetReversalOf(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &PostingRepository{querier: mock, logger: logger}
	original := newTestPosting()

	query := `WHERE reverses_posting_id = \$1`

	t.Run("voided posting has a reversal", func(t *testing.T) {
		rev := posting.NewReversal(original, "charged to wrong driver", "ops-admin")

		mock.ExpectQuery(query).
			WithArgs(original.ID).
			WillReturnRows(postingRow(rev))

		got, err := repo.GetReversalOf(ctx, original.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, shared.EntryTypeCredit, got.EntryType)
		require.NotNil(t, got.ReversesPostingID)
		assert.Equal(t, original.ID, *got.ReversesPostingID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unvoided posting returns nil without error", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs(original.ID).
			WillReturnError(pgx.ErrNoRows)

		got, err := repo.GetReversalOf(ctx, original.ID)
		assert.NoError(t, err)
		assert.Nil(t, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostingRepository_GetByLeaseAndPeriod(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &PostingRepository{querier: mock, logger: logger}
	leaseID := uuid.New()
	periodStart := time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC)
	periodEnd := periodStart.AddDate(0, 0, 7).Add(-time.Nanosecond)

	query := `WHERE lease_id = \$1 AND created_at >= \$2 AND created_at <= \$3`

	t.Run("returns postings inside the window", func(t *testing.T) {
		p1 := newTestPosting()
		p1.LeaseID = leaseID
		p1.CreatedAt = periodStart.Add(24 * time.Hour)
		p2 := newTestPosting()
		p2.LeaseID = leaseID
		p2.EntryType = shared.EntryTypeCredit
		p2.CreatedAt = periodStart.Add(48 * time.Hour)

		rows := pgxmock.NewRows(postingTestColumns).
			AddRow(p1.ID, p1.Category, p1.EntryType, p1.Amount, p1.ReferenceType, p1.ReferenceID,
				p1.DriverID, p1.LeaseID, p1.VehicleID, p1.MedallionID, p1.BalanceID, p1.ReversesPostingID,
				p1.Description, p1.CreatedAt, p1.CreatedBy).
			AddRow(p2.ID, p2.Category, p2.EntryType, p2.Amount, p2.ReferenceType, p2.ReferenceID,
				p2.DriverID, p2.LeaseID, p2.VehicleID, p2.MedallionID, p2.BalanceID, p2.ReversesPostingID,
				p2.Description, p2.CreatedAt, p2.CreatedBy)

		mock.ExpectQuery(query).
			WithArgs(leaseID, periodStart, periodEnd).
			WillReturnRows(rows)

		got, err := repo.GetByLeaseAndPeriod(ctx, leaseID, periodStart, periodEnd)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, p1.ID, got[0].ID)
		assert.Equal(t, p2.ID, got[1].ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty window", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs(leaseID, periodStart, periodEnd).
			WillReturnRows(pgxmock.NewRows(postingTestColumns))

		got, err := repo.GetByLeaseAndPeriod(ctx, leaseID, periodStart, periodEnd)
		assert.NoError(t, err)
		assert.Empty(t, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
