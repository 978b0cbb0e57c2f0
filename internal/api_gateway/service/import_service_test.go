package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/medallion-fleet-ledger/internal/domain/shared"
	"github.com/medallion-fleet-ledger/internal/platform/messaging/producers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockMessagePublisher struct {
	mock.Mock
}

func (m *MockMessagePublisher) Publish(ctx context.Context, key string, value interface{}) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockMessagePublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

func newImportRequest(category shared.Category, referenceID string) *shared.ObligationRequest {
	return &shared.ObligationRequest{
		Category:      category,
		Amount:        1450,
		ReferenceType: "TOLL",
		ReferenceID:   referenceID,
		DriverID:      uuid.New(),
		LeaseID:       uuid.New(),
	}
}

func TestImportService_SubmitObligations(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	t.Run("PublishesOneMessagePerItem", func(t *testing.T) {
		mockPublisher := new(MockMessagePublisher)
		svc := NewImportService(logger, mockPublisher)

		first := newImportRequest(shared.CategoryEZPass, "TOLL-2026-08-1234")
		second := newImportRequest(shared.CategoryPVB, "NYC-SUMMONS-443")

		mockPublisher.On("Publish", ctx, mock.AnythingOfType("string"), first).Return(nil).Once()
		mockPublisher.On("Publish", ctx, mock.AnythingOfType("string"), second).Return(nil).Once()

		ids, err := svc.SubmitObligations(ctx, []*shared.ObligationRequest{first, second})
		require.NoError(t, err)
		require.Len(t, ids, 2)
		assert.Equal(t, first.RequestID, ids[0])
		assert.Equal(t, second.RequestID, ids[1])
		assert.NotEqual(t, uuid.Nil, first.RequestID)
		assert.False(t, first.Timestamp.IsZero())

		mockPublisher.AssertExpectations(t)
	})

	t.Run("PreservesCallerRequestID", func(t *testing.T) {
		mockPublisher := new(MockMessagePublisher)
		svc := NewImportService(logger, mockPublisher)

		req := newImportRequest(shared.CategoryEZPass, "TOLL-2026-08-1234")
		req.RequestID = uuid.New()
		wantID := req.RequestID

		mockPublisher.On("Publish", ctx, wantID.String(), req).Return(nil).Once()

		ids, err := svc.SubmitObligations(ctx, []*shared.ObligationRequest{req})
		require.NoError(t, err)
		require.Len(t, ids, 1)
		assert.Equal(t, wantID, ids[0])
		mockPublisher.AssertExpectations(t)
	})

	t.Run("StopsOnPublishErrorReturningAcceptedIDs", func(t *testing.T) {
		mockPublisher := new(MockMessagePublisher)
		svc := NewImportService(logger, mockPublisher)

		first := newImportRequest(shared.CategoryEZPass, "TOLL-2026-08-1234")
		second := newImportRequest(shared.CategoryPVB, "NYC-SUMMONS-443")
		publishErr := errors.New("kafka unavailable")

		mockPublisher.On("Publish", ctx, mock.AnythingOfType("string"), first).Return(nil).Once()
		mockPublisher.On("Publish", ctx, mock.AnythingOfType("string"), second).Return(publishErr).Once()

		ids, err := svc.SubmitObligations(ctx, []*shared.ObligationRequest{first, second})
		assert.ErrorIs(t, err, publishErr)
		require.Len(t, ids, 1, "IDs accepted before the failure should still be reported")
		assert.Equal(t, first.RequestID, ids[0])
		mockPublisher.AssertExpectations(t)
	})

	t.Run("EmptyBatch", func(t *testing.T) {
		mockPublisher := new(MockMessagePublisher)
		svc := NewImportService(logger, mockPublisher)

		ids, err := svc.SubmitObligations(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, ids)
		mockPublisher.AssertNotCalled(t, "Publish")
	})
}

var _ producers.MessagePublisher = (*MockMessagePublisher)(nil)
