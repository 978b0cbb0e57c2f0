package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/medallion-fleet-ledger/internal/domain/shared"
	"github.com/medallion-fleet-ledger/internal/platform/messaging/producers"
)

// ImportServiceImpl implements the ImportService interface
type ImportServiceImpl struct {
	producer producers.MessagePublisher
	logger   *slog.Logger
}

// NewImportService creates a new obligation import service
func NewImportService(logger *slog.Logger, producer producers.MessagePublisher) ImportService {
	return &ImportServiceImpl{
		producer: producer,
		logger:   logger,
	}
}

// SubmitObligations publishes one Kafka message per obligation request. The
// worker records each charge independently, so a rejected item surfaces on the
// DLQ without aborting the rest of the batch.
func (s *ImportServiceImpl) SubmitObligations(ctx context.Context, requests []*shared.ObligationRequest) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(requests))

	for _, req := range requests {
		if req.RequestID == uuid.Nil {
			req.RequestID = uuid.New()
		}
		req.Timestamp = time.Now()

		if err := s.producer.Publish(ctx, req.RequestID.String(), req); err != nil {
			s.logger.Error("Failed to publish obligation request",
				"request_id", req.RequestID.String(),
				"category", string(req.Category),
				"reference", req.ReferenceType+"/"+req.ReferenceID,
				"error", err,
			)
			return ids, err
		}
		ids = append(ids, req.RequestID)

		s.logger.Info("Obligation request published",
			"request_id", req.RequestID.String(),
			"category", string(req.Category),
			"reference", req.ReferenceType+"/"+req.ReferenceID,
			"amount", req.Amount,
		)
	}

	return ids, nil
}
