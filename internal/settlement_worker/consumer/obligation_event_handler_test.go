package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/medallion-fleet-ledger/internal/domain/balance"
	"github.com/medallion-fleet-ledger/internal/domain/lease"
	"github.com/medallion-fleet-ledger/internal/domain/posting"
	"github.com/medallion-fleet-ledger/internal/domain/shared"
	"github.com/medallion-fleet-ledger/internal/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockObligationService mocks ledger.ObligationService
type MockObligationService struct {
	mock.Mock
}

func (m *MockObligationService) CreateObligation(ctx context.Context, params ledger.CreateObligationParams) (*posting.Posting, *balance.Balance, error) {
	args := m.Called(ctx, params)
	var p *posting.Posting
	if args.Get(0) != nil {
		p = args.Get(0).(*posting.Posting)
	}
	var b *balance.Balance
	if args.Get(1) != nil {
		b = args.Get(1).(*balance.Balance)
	}
	return p, b, args.Error(2)
}

func (m *MockObligationService) VoidPosting(ctx context.Context, postingID uuid.UUID, reason, actor string) (*posting.Posting, *balance.Balance, error) {
	args := m.Called(ctx, postingID, reason, actor)
	var p *posting.Posting
	if args.Get(0) != nil {
		p = args.Get(0).(*posting.Posting)
	}
	var b *balance.Balance
	if args.Get(1) != nil {
		b = args.Get(1).(*balance.Balance)
	}
	return p, b, args.Error(2)
}

// MockDLQProducer mocks producers.DeadLetterPublisher
type MockDLQProducer struct {
	mock.Mock
}

func (m *MockDLQProducer) PublishToDLQ(ctx context.Context, key string, originalMessageValue []byte, reason string) error {
	args := m.Called(ctx, key, originalMessageValue, reason)
	return args.Error(0)
}

func (m *MockDLQProducer) Close() error {
	args := m.Called()
	return args.Error(0)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func newTestRequest() *shared.ObligationRequest {
	return &shared.ObligationRequest{
		RequestID:     uuid.New(),
		Category:      shared.CategoryEZPass,
		Amount:        1450,
		ReferenceType: "EZPASS_TOLL",
		ReferenceID:   "TOLL-2026-08-1234",
		DriverID:      uuid.New(),
		LeaseID:       uuid.New(),
		Timestamp:     time.Now(),
	}
}

func TestObligationEventHandler_HandleMessage(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()

	t.Run("successful obligation commits offset", func(t *testing.T) {
		svc := new(MockObligationService)
		dlq := new(MockDLQProducer)
		handler := NewObligationEventHandler(logger, svc, dlq)

		request := newTestRequest()
		value, err := json.Marshal(request)
		require.NoError(t, err)

		p := &posting.Posting{ID: uuid.New()}
		svc.On("CreateObligation", ctx, mock.MatchedBy(func(params ledger.CreateObligationParams) bool {
			return params.Category == request.Category &&
				params.Amount == request.Amount &&
				params.ReferenceID == request.ReferenceID &&
				params.Actor == "obligation-importer"
		})).Return(p, &balance.Balance{ID: uuid.New()}, nil)

		err = handler.HandleMessage(ctx, []byte(request.RequestID.String()), value)

		assert.NoError(t, err)
		svc.AssertExpectations(t)
		dlq.AssertNotCalled(t, "PublishToDLQ", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("duplicate obligation is acknowledged", func(t *testing.T) {
		svc := new(MockObligationService)
		dlq := new(MockDLQProducer)
		handler := NewObligationEventHandler(logger, svc, dlq)

		request := newTestRequest()
		value, err := json.Marshal(request)
		require.NoError(t, err)

		svc.On("CreateObligation", ctx, mock.Anything).
			Return(nil, nil, balance.ErrDuplicateObligation{
				Category:      request.Category,
				ReferenceType: request.ReferenceType,
				ReferenceID:   request.ReferenceID,
			})

		err = handler.HandleMessage(ctx, []byte(request.RequestID.String()), value)

		assert.NoError(t, err)
		svc.AssertExpectations(t)
		dlq.AssertNotCalled(t, "PublishToDLQ", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("malformed payload goes to DLQ and is acknowledged", func(t *testing.T) {
		svc := new(MockObligationService)
		dlq := new(MockDLQProducer)
		handler := NewObligationEventHandler(logger, svc, dlq)

		value := []byte(`{"category": not-json`)
		dlq.On("PublishToDLQ", ctx, "bad-key", value, mock.AnythingOfType("string")).Return(nil)

		err := handler.HandleMessage(ctx, []byte("bad-key"), value)

		assert.NoError(t, err)
		dlq.AssertExpectations(t)
		svc.AssertNotCalled(t, "CreateObligation", mock.Anything, mock.Anything)
	})

	t.Run("malformed payload with DLQ failure is retried", func(t *testing.T) {
		svc := new(MockObligationService)
		dlq := new(MockDLQProducer)
		handler := NewObligationEventHandler(logger, svc, dlq)

		value := []byte(`{"category": not-json`)
		dlq.On("PublishToDLQ", ctx, "bad-key", value, mock.AnythingOfType("string")).
			Return(errors.New("kafka unavailable"))

		err := handler.HandleMessage(ctx, []byte("bad-key"), value)

		assert.Error(t, err)
		dlq.AssertExpectations(t)
	})

	t.Run("permanent rejection goes to DLQ and is acknowledged", func(t *testing.T) {
		svc := new(MockObligationService)
		dlq := new(MockDLQProducer)
		handler := NewObligationEventHandler(logger, svc, dlq)

		request := newTestRequest()
		value, err := json.Marshal(request)
		require.NoError(t, err)

		svc.On("CreateObligation", ctx, mock.Anything).
			Return(nil, nil, lease.ErrLeaseNotFound{LeaseID: request.LeaseID})
		dlq.On("PublishToDLQ", ctx, request.RequestID.String(), value, mock.AnythingOfType("string")).Return(nil)

		err = handler.HandleMessage(ctx, []byte(request.RequestID.String()), value)

		assert.NoError(t, err)
		svc.AssertExpectations(t)
		dlq.AssertExpectations(t)
	})

	t.Run("invalid amount is a permanent rejection", func(t *testing.T) {
		svc := new(MockObligationService)
		dlq := new(MockDLQProducer)
		handler := NewObligationEventHandler(logger, svc, dlq)

		request := newTestRequest()
		request.Amount = -500
		value, err := json.Marshal(request)
		require.NoError(t, err)

		svc.On("CreateObligation", ctx, mock.Anything).
			Return(nil, nil, posting.ErrInvalidAmount)
		dlq.On("PublishToDLQ", ctx, request.RequestID.String(), value, mock.AnythingOfType("string")).Return(nil)

		err = handler.HandleMessage(ctx, []byte(request.RequestID.String()), value)

		assert.NoError(t, err)
		svc.AssertExpectations(t)
		dlq.AssertExpectations(t)
	})

	t.Run("transient error is left for redelivery", func(t *testing.T) {
		svc := new(MockObligationService)
		dlq := new(MockDLQProducer)
		handler := NewObligationEventHandler(logger, svc, dlq)

		request := newTestRequest()
		value, err := json.Marshal(request)
		require.NoError(t, err)

		svc.On("CreateObligation", ctx, mock.Anything).
			Return(nil, nil, errors.New("connection refused"))

		err = handler.HandleMessage(ctx, []byte(request.RequestID.String()), value)

		assert.Error(t, err)
		svc.AssertExpectations(t)
		dlq.AssertNotCalled(t, "PublishToDLQ", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestIsPermanentFailure(t *testing.T) {
	assert.True(t, isPermanentFailure(shared.ErrInvalidCategory))
	assert.True(t, isPermanentFailure(posting.ErrInvalidAmount))
	assert.True(t, isPermanentFailure(lease.ErrLeaseNotFound{LeaseID: uuid.New()}))
	assert.True(t, isPermanentFailure(lease.ErrDriverMismatch{LeaseID: uuid.New(), DriverID: uuid.New()}))

	assert.False(t, isPermanentFailure(errors.New("connection refused")))
	assert.False(t, isPermanentFailure(context.DeadlineExceeded))
}
