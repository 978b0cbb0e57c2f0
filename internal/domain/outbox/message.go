package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/medallion-fleet-ledger/internal/domain/settlement"
	"github.com/medallion-fleet-ledger/internal/domain/shared"
)

// Message stores a committed settlement for reliable publishing to the
// archive. It is written in the same database transaction as the settlement
// row so a crash can never lose a receipt between the two stores.
type Message struct {
	ID            int64               `json:"id"`
	SettlementID  uuid.UUID           `json:"settlement_id"`
	LeaseID       uuid.UUID           `json:"lease_id"`
	Payload       json.RawMessage     `json:"payload"`
	Status        shared.OutboxStatus `json:"status"`
	Attempts      int                 `json:"attempts"`
	CreatedAt     time.Time           `json:"created_at"`
	LastAttemptAt *time.Time          `json:"last_attempt_at,omitempty"`
}

func NewMessage(s *settlement.Settlement) (*Message, error) {
	payload, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}

	return &Message{
		SettlementID: s.ID,
		LeaseID:      s.LeaseID,
		Payload:      payload,
		Status:       shared.OutboxStatusPending,
		Attempts:     0,
		CreatedAt:    time.Now(),
	}, nil
}

func (m *Message) IncrementAttempts() {
	m.Attempts++
	now := time.Now()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsProcessed() {
	m.Status = shared.OutboxStatusProcessed
	now := time.Now()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsFailed() {
	m.Status = shared.OutboxStatusFailedToPublish
	now := time.Now()
	m.LastAttemptAt = &now
}

// GetSettlement extracts the settlement record from the payload
func (m *Message) GetSettlement() (*settlement.Settlement, error) {
	var s settlement.Settlement
	if err := json.Unmarshal(m.Payload, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
