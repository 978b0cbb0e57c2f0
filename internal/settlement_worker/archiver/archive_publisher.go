// Package archiver moves committed settlements from the relational outbox to
// the MongoDB document archive that statement rendering and ACH export read.
package archiver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/medallion-fleet-ledger/internal/domain/outbox"
	"github.com/medallion-fleet-ledger/internal/domain/settlement"
	"github.com/medallion-fleet-ledger/internal/domain/shared"
)

// ArchivePublisher publishes outbox messages to the settlement archive
type ArchivePublisher interface {
	PublishToArchive(ctx context.Context, message *outbox.Message) error
}

// ArchivePublisherImpl implements ArchivePublisher
type ArchivePublisherImpl struct {
	outboxRepo  outbox.Repository
	archiveRepo settlement.ArchiveRepository
	logger      *slog.Logger
}

// NewArchivePublisher creates a new publisher
func NewArchivePublisher(
	outboxRepo outbox.Repository,
	archiveRepo settlement.ArchiveRepository,
	logger *slog.Logger,
) ArchivePublisher {
	return &ArchivePublisherImpl{
		outboxRepo:  outboxRepo,
		archiveRepo: archiveRepo,
		logger:      logger,
	}
}

// PublishToArchive delivers one settlement receipt to the archive. A payload
// that cannot be decoded is parked as FAILED_TO_PUBLISH; an already-archived
// settlement counts as delivered so retries stay idempotent.
func (p *ArchivePublisherImpl) PublishToArchive(ctx context.Context, message *outbox.Message) error {
	record, err := message.GetSettlement()
	if err != nil {
		p.logger.Error("Failed to unmarshal settlement from outbox payload",
			"outbox_id", message.ID, "settlement_id", message.SettlementID, "error", err,
		)
		if updateErr := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusFailedToPublish); updateErr != nil {
			p.logger.Error("Also failed to update outbox status to FAILED_TO_PUBLISH after unmarshal error", "outbox_id", message.ID, "update_error", updateErr)
		}
		return fmt.Errorf("unmarshal payload for outbox %d failed: %w", message.ID, err)
	}

	p.logger.Info("Attempting to publish settlement to archive",
		"outbox_id", message.ID, "settlement_id", message.SettlementID,
	)

	err = p.archiveRepo.Create(ctx, record)
	if err != nil {
		if errors.Is(err, settlement.ErrDuplicateArchiveEntry{}) {
			p.logger.Info("Settlement already archived", "settlement_id", message.SettlementID)
		} else {
			p.logger.Error("Failed to archive settlement", "settlement_id", message.SettlementID, "error", err)
			return fmt.Errorf("failed to archive settlement %s: %w", message.SettlementID, err)
		}
	}

	// A regenerated receipt replaces the prior generation: flag every older
	// archived generation for this lease/period superseded.
	if record.Generation > 1 {
		if err := p.supersedePriorGenerations(ctx, record); err != nil {
			p.logger.Error("Failed to supersede prior archived generations",
				"settlement_id", message.SettlementID, "error", err,
			)
			return err
		}
	}

	if err := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusProcessed); err != nil {
		p.logger.Error("Failed to update outbox message status to PROCESSED",
			"outbox_id", message.ID, "settlement_id", message.SettlementID, "error", err,
		)
		return fmt.Errorf("archive write for %s OK, but failed to mark outbox %d as PROCESSED: %w", message.SettlementID, message.ID, err)
	}

	p.logger.Info("Outbox message successfully processed and marked as PROCESSED",
		"outbox_id", message.ID, "settlement_id", message.SettlementID,
	)
	return nil
}

func (p *ArchivePublisherImpl) supersedePriorGenerations(ctx context.Context, record *settlement.Settlement) error {
	prior, err := p.archiveRepo.GetByPeriod(ctx, record.LeaseID, record.PeriodStart)
	if err != nil {
		return fmt.Errorf("failed to list archived settlements for lease %s: %w", record.LeaseID, err)
	}

	for _, s := range prior {
		if s.ID == record.ID || s.Superseded {
			continue
		}
		if err := p.archiveRepo.MarkSuperseded(ctx, s.ID); err != nil {
			return fmt.Errorf("failed to mark archived settlement %s superseded: %w", s.ID, err)
		}
	}
	return nil
}
