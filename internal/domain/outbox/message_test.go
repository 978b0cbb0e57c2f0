package outbox

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/medallion-fleet-ledger/internal/domain/settlement"
	"github.com/medallion-fleet-ledger/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSettlement() *settlement.Settlement {
	periodStart := time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC)
	return &settlement.Settlement{
		ID:          uuid.New(),
		LeaseID:     uuid.New(),
		DriverID:    uuid.New(),
		PeriodStart: periodStart,
		PeriodEnd:   periodStart.AddDate(0, 0, 7).Add(-time.Nanosecond),
		Generation:  1,
		Totals: settlement.CategoryTotals{
			Lease:  40000,
			EZPass: 2075,
		},
		GrossEarnings: 95000,
		PriorBalance:  1200,
		NetEarnings:   52925,
		TotalDue:      -51725,
		GeneratedAt:   time.Now().Truncate(time.Millisecond),
		GeneratedBy:   "settlement-scheduler",
	}
}

func TestNewMessage(t *testing.T) {
	t.Run("SuccessfulCreation", func(t *testing.T) {
		s := sampleSettlement()

		beforeCreation := time.Now()
		msg, err := NewMessage(s)
		afterCreation := time.Now()

		require.NoError(t, err)
		require.NotNil(t, msg)

		assert.Equal(t, s.ID, msg.SettlementID)
		assert.Equal(t, s.LeaseID, msg.LeaseID)
		assert.Equal(t, shared.OutboxStatusPending, msg.Status)
		assert.Equal(t, 0, msg.Attempts)
		assert.Nil(t, msg.LastAttemptAt)
		assert.WithinDuration(t, beforeCreation, msg.CreatedAt, afterCreation.Sub(beforeCreation)+time.Millisecond)

		// Check payload
		var decoded settlement.Settlement
		err = json.Unmarshal(msg.Payload, &decoded)
		require.NoError(t, err)
		assert.Equal(t, s.ID, decoded.ID)
		assert.Equal(t, s.TotalDue, decoded.TotalDue)
		assert.Equal(t, s.Totals, decoded.Totals)
	})
}

func TestMessage_IncrementAttempts(t *testing.T) {
	t.Run("SuccessfulIncrement", func(t *testing.T) {
		initialTime := time.Now().Add(-time.Hour)
		msg := &Message{
			Attempts:      1,
			LastAttemptAt: &initialTime,
		}
		initialAttempts := msg.Attempts

		time.Sleep(10 * time.Millisecond) // Ensure time changes
		beforeUpdate := time.Now()
		msg.IncrementAttempts()
		afterUpdate := time.Now()

		assert.Equal(t, initialAttempts+1, msg.Attempts)
		require.NotNil(t, msg.LastAttemptAt)
		assert.True(t, msg.LastAttemptAt.After(initialTime))
		assert.WithinDuration(t, beforeUpdate, *msg.LastAttemptAt, afterUpdate.Sub(beforeUpdate)+time.Millisecond)
	})
}

func TestMessage_MarkAsProcessed(t *testing.T) {
	t.Run("SuccessfulMarkAsProcessed", func(t *testing.T) {
		initialTime := time.Now().Add(-time.Hour)
		msg := &Message{
			Status:        shared.OutboxStatusPending,
			LastAttemptAt: &initialTime,
		}
		time.Sleep(10 * time.Millisecond) // Ensure time changes
		beforeUpdate := time.Now()
		msg.MarkAsProcessed()
		afterUpdate := time.Now()

		assert.Equal(t, shared.OutboxStatusProcessed, msg.Status)
		require.NotNil(t, msg.LastAttemptAt)
		assert.True(t, msg.LastAttemptAt.After(initialTime))
		assert.WithinDuration(t, beforeUpdate, *msg.LastAttemptAt, afterUpdate.Sub(beforeUpdate)+time.Millisecond)
	})
}

func TestMessage_MarkAsFailed(t *testing.T) {
	t.Run("SuccessfulMarkAsFailed", func(t *testing.T) {
		initialTime := time.Now().Add(-time.Hour)
		msg := &Message{
			Status:        shared.OutboxStatusPending,
			LastAttemptAt: &initialTime,
		}
		time.Sleep(10 * time.Millisecond) // Ensure time changes
		beforeUpdate := time.Now()
		msg.MarkAsFailed()
		afterUpdate := time.Now()

		assert.Equal(t, shared.OutboxStatusFailedToPublish, msg.Status)
		require.NotNil(t, msg.LastAttemptAt)
		assert.True(t, msg.LastAttemptAt.After(initialTime))
		assert.WithinDuration(t, beforeUpdate, *msg.LastAttemptAt, afterUpdate.Sub(beforeUpdate)+time.Millisecond)
	})
}

func TestMessage_GetSettlement(t *testing.T) {
	t.Run("SuccessfulGetSettlement", func(t *testing.T) {
		original := sampleSettlement()
		payload, err := json.Marshal(original)
		require.NoError(t, err)

		msg := &Message{Payload: payload}
		decoded, err := msg.GetSettlement()

		require.NoError(t, err)
		require.NotNil(t, decoded)
		assert.Equal(t, original.ID, decoded.ID)
		assert.Equal(t, original.LeaseID, decoded.LeaseID)
		assert.Equal(t, original.Generation, decoded.Generation)
		assert.Equal(t, original.GrossEarnings, decoded.GrossEarnings)
		assert.Equal(t, original.TotalDue, decoded.TotalDue)
		assert.True(t, original.GeneratedAt.Equal(decoded.GeneratedAt), "GeneratedAt should match")
	})

	t.Run("MalformedPayload", func(t *testing.T) {
		msg := &Message{Payload: []byte(`{"settlement_id": not-json`)}

		decoded, err := msg.GetSettlement()

		assert.Error(t, err)
		assert.Nil(t, decoded)
	})
}
