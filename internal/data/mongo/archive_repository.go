// Package mongo provides the MongoDB implementation of the settlement
// archive. Archived receipts are immutable documents keyed by settlement ID.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/medallion-fleet-ledger/internal/domain/settlement"
)

const (
	// ArchiveCollectionName is the name of the settlement archive collection in MongoDB
	ArchiveCollectionName = "settlement_archive"
)

// ArchiveRepository implements the settlement.ArchiveRepository interface for MongoDB
type ArchiveRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewArchiveRepository creates a new MongoDB settlement archive repository
func NewArchiveRepository(logger *slog.Logger, db *mongo.Database) settlement.ArchiveRepository {
	return &ArchiveRepository{
		db:     db,
		logger: logger,
	}
}

// Create archives a settlement receipt after checking for duplicates.
// Returns ErrDuplicateArchiveEntry if the settlement was already delivered,
// which lets the poller retry publishes safely.
func (r *ArchiveRepository) Create(ctx context.Context, s *settlement.Settlement) error {
	collection := r.db.Collection(ArchiveCollectionName)

	existing, err := r.GetBySettlementID(ctx, s.ID)
	if err != nil && !errors.Is(err, settlement.ErrArchiveEntryNotFound{}) {
		r.logger.Error("Failed to check for existing archive entry",
			"settlement_id", s.ID.String(),
			"error", err)
		return fmt.Errorf("failed to check for existing archive entry: %w", err)
	}

	if existing != nil {
		return settlement.ErrDuplicateArchiveEntry{SettlementID: s.ID}
	}

	_, err = collection.InsertOne(ctx, s)
	if err != nil {
		r.logger.Error("Failed to archive settlement",
			"settlement_id", s.ID.String(),
			"error", err)
		return fmt.Errorf("failed to archive settlement: %w", err)
	}

	return nil
}

// GetBySettlementID retrieves an archived receipt by its settlement ID.
// Returns ErrArchiveEntryNotFound if the settlement has not been archived.
func (r *ArchiveRepository) GetBySettlementID(ctx context.Context, settlementID uuid.UUID) (*settlement.Settlement, error) {
	collection := r.db.Collection(ArchiveCollectionName)

	filter := bson.M{"settlement_id": settlementID}
	var s settlement.Settlement
	err := collection.FindOne(ctx, filter).Decode(&s)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, settlement.ErrArchiveEntryNotFound{SettlementID: settlementID}
		}
		r.logger.Error("Failed to get archived settlement",
			"settlement_id", settlementID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get archived settlement: %w", err)
	}

	return &s, nil
}

// GetByLease retrieves paginated archived receipts for a lease.
// Results are sorted by period start in descending order (newest first).
func (r *ArchiveRepository) GetByLease(ctx context.Context, leaseID uuid.UUID, limit, offset int) ([]*settlement.Settlement, error) {
	collection := r.db.Collection(ArchiveCollectionName)

	filter := bson.M{"lease_id": leaseID}
	opts := options.Find().
		SetSort(bson.D{{Key: "period_start", Value: -1}, {Key: "generation", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to get archived settlements",
			"lease_id", leaseID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get archived settlements: %w", err)
	}
	defer cursor.Close(ctx)

	var settlements []*settlement.Settlement
	if err := cursor.All(ctx, &settlements); err != nil {
		r.logger.Error("Failed to decode archived settlements",
			"lease_id", leaseID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to decode archived settlements: %w", err)
	}

	return settlements, nil
}

// GetByPeriod retrieves every archived generation for one lease and period,
// newest generation first.
func (r *ArchiveRepository) GetByPeriod(ctx context.Context, leaseID uuid.UUID, periodStart time.Time) ([]*settlement.Settlement, error) {
	collection := r.db.Collection(ArchiveCollectionName)

	filter := bson.M{"lease_id": leaseID, "period_start": periodStart}
	opts := options.Find().SetSort(bson.D{{Key: "generation", Value: -1}})

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to get archived settlements by period",
			"lease_id", leaseID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get archived settlements by period: %w", err)
	}
	defer cursor.Close(ctx)

	var settlements []*settlement.Settlement
	if err := cursor.All(ctx, &settlements); err != nil {
		r.logger.Error("Failed to decode archived settlements",
			"lease_id", leaseID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to decode archived settlements: %w", err)
	}

	return settlements, nil
}

// CountByLease counts the total number of archived receipts for a lease
func (r *ArchiveRepository) CountByLease(ctx context.Context, leaseID uuid.UUID) (int64, error) {
	collection := r.db.Collection(ArchiveCollectionName)

	filter := bson.M{"lease_id": leaseID}
	count, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		r.logger.Error("Failed to count archived settlements",
			"lease_id", leaseID.String(),
			"error", err)
		return 0, fmt.Errorf("failed to count archived settlements: %w", err)
	}

	return count, nil
}

// MarkSuperseded flags an archived receipt after a regeneration replaces it.
// Returns ErrArchiveEntryNotFound if the settlement has not been archived.
func (r *ArchiveRepository) MarkSuperseded(ctx context.Context, settlementID uuid.UUID) error {
	collection := r.db.Collection(ArchiveCollectionName)

	filter := bson.M{"settlement_id": settlementID}
	update := bson.M{
		"$set": bson.M{
			"superseded": true,
		},
	}

	result, err := collection.UpdateOne(ctx, filter, update)
	if err != nil {
		r.logger.Error("Failed to mark archived settlement superseded",
			"settlement_id", settlementID.String(),
			"error", err)
		return fmt.Errorf("failed to mark archived settlement superseded: %w", err)
	}

	if result.MatchedCount == 0 {
		return settlement.ErrArchiveEntryNotFound{SettlementID: settlementID}
	}

	return nil
}
