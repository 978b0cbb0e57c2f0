// Package consumer handles obligation request messages arriving from the
// batch importers (EZPass, violations, loans, repairs) over Kafka.
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/medallion-fleet-ledger/internal/domain/balance"
	"github.com/medallion-fleet-ledger/internal/domain/lease"
	"github.com/medallion-fleet-ledger/internal/domain/posting"
	"github.com/medallion-fleet-ledger/internal/domain/shared"
	"github.com/medallion-fleet-ledger/internal/ledger"
	"github.com/medallion-fleet-ledger/internal/platform/messaging/producers"
)

// ObligationEventHandler handles incoming obligation request messages from Kafka
type ObligationEventHandler struct {
	obligationService ledger.ObligationService
	producer          producers.DeadLetterPublisher
	logger            *slog.Logger
}

// NewObligationEventHandler creates a new handler
func NewObligationEventHandler(
	logger *slog.Logger,
	obligationService ledger.ObligationService,
	producer producers.DeadLetterPublisher,
) *ObligationEventHandler {
	return &ObligationEventHandler{
		obligationService: obligationService,
		producer:          producer,
		logger:            logger,
	}
}

// HandleMessage processes one obligation request. A duplicate reference is
// acknowledged as success so importer replays stay idempotent; a request that
// can never succeed goes to the DLQ; anything transient is left to Kafka
// redelivery.
func (h *ObligationEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var request shared.ObligationRequest
	if err := json.Unmarshal(value, &request); err != nil {
		unmarshalErrorMsg := "Failed to unmarshal obligation request from Kafka message"
		h.logger.Error(unmarshalErrorMsg,
			"error", err,
			"message_key", string(key),
		)

		if h.producer != nil {
			dlqReason := fmt.Sprintf("%s: %s", unmarshalErrorMsg, err.Error())
			if dlqErr := h.producer.PublishToDLQ(ctx, string(key), value, dlqReason); dlqErr != nil {
				h.logger.Error("Failed to publish message to DLQ after unmarshal error",
					"dlq_error", dlqErr,
					"original_error", err,
					"message_key", string(key),
				)
			} else {
				h.logger.Info("Successfully published unprocessable message to DLQ", "message_key", string(key), "reason", dlqReason)
				// Message handled, commit offset
				return nil
			}
		}
		// Allow Kafka retries
		return fmt.Errorf("failed to unmarshal message value: %w", err)
	}

	logger := h.logger
	if request.CorrelationID != "" {
		logger = h.logger.With("correlation_id", request.CorrelationID)
	}

	logger.Info("Received obligation request",
		"request_id", request.RequestID.String(),
		"category", string(request.Category),
		"reference", request.ReferenceType+"/"+request.ReferenceID,
		"amount", request.Amount,
		"lease_id", request.LeaseID.String(),
	)

	p, _, err := h.obligationService.CreateObligation(ctx, ledger.CreateObligationParams{
		Category:      request.Category,
		Amount:        request.Amount,
		ReferenceType: request.ReferenceType,
		ReferenceID:   request.ReferenceID,
		DriverID:      request.DriverID,
		LeaseID:       request.LeaseID,
		VehicleID:     request.VehicleID,
		MedallionID:   request.MedallionID,
		PeriodStart:   request.PeriodStart,
		PeriodEnd:     request.PeriodEnd,
		DueDate:       request.DueDate,
		Description:   request.Description,
		Actor:         "obligation-importer",
	})
	if err != nil {
		if errors.Is(err, balance.ErrDuplicateObligation{}) {
			// The charge already exists, a replayed batch is not an error
			logger.Info("Obligation already recorded, acknowledging duplicate",
				"request_id", request.RequestID.String(),
				"reference", request.ReferenceType+"/"+request.ReferenceID,
			)
			return nil
		}

		if isPermanentFailure(err) {
			reason := fmt.Sprintf("obligation request rejected: %s", err.Error())
			logger.Error("Obligation request can never succeed, sending to DLQ",
				"request_id", request.RequestID.String(),
				"error", err,
			)
			if h.producer != nil {
				if dlqErr := h.producer.PublishToDLQ(ctx, string(key), value, reason); dlqErr != nil {
					logger.Error("Failed to publish rejected request to DLQ",
						"dlq_error", dlqErr,
						"original_error", err,
						"request_id", request.RequestID.String(),
					)
					return fmt.Errorf("processing obligation %s failed: %w", request.RequestID.String(), err)
				}
				return nil
			}
			return fmt.Errorf("processing obligation %s failed: %w", request.RequestID.String(), err)
		}

		logger.Error("Failed to process obligation request",
			"request_id", request.RequestID.String(),
			"error", err,
		)
		return fmt.Errorf("processing obligation %s failed: %w", request.RequestID.String(), err)
	}

	logger.Info("Successfully recorded obligation",
		"request_id", request.RequestID.String(),
		"posting_id", p.ID.String(),
	)
	return nil // Success, commit offset
}

// isPermanentFailure reports whether retrying the request could ever help.
func isPermanentFailure(err error) bool {
	return errors.Is(err, shared.ErrInvalidCategory) ||
		errors.Is(err, posting.ErrInvalidAmount) ||
		errors.Is(err, lease.ErrLeaseNotFound{}) ||
		errors.Is(err, lease.ErrDriverMismatch{})
}
