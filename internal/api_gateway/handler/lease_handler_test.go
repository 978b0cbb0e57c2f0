package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/medallion-fleet-ledger/internal/api_gateway/service"
	"github.com/medallion-fleet-ledger/internal/domain/lease"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockLeaseService struct {
	mock.Mock
}

func (m *MockLeaseService) CreateLease(ctx context.Context, driverID uuid.UUID, vehicleID, medallionID *uuid.UUID, startDate time.Time) (*lease.Lease, error) {
	args := m.Called(ctx, driverID, vehicleID, medallionID, startDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*lease.Lease), args.Error(1)
}

func (m *MockLeaseService) GetLeaseByID(ctx context.Context, id uuid.UUID) (*lease.Lease, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*lease.Lease), args.Error(1)
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.Default()
	return r
}

func TestLeaseHandler_Create(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockLeaseService)
		handler := NewLeaseHandler(logger, mockService)

		driverID := uuid.New()
		vehicleID := uuid.New()
		startDate := time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC)
		now := time.Now()
		expectedLease := &lease.Lease{
			ID:        uuid.New(),
			DriverID:  driverID,
			VehicleID: &vehicleID,
			Active:    true,
			StartDate: startDate,
			CreatedAt: now,
			UpdatedAt: now,
		}
		mockService.On("CreateLease", mock.Anything, driverID, &vehicleID, (*uuid.UUID)(nil), startDate).Return(expectedLease, nil)

		router := setupTestRouter()
		router.POST("/leases", handler.Create)

		vehicleIDStr := vehicleID.String()
		reqBody := CreateLeaseRequest{
			DriverID:  driverID.String(),
			VehicleID: &vehicleIDStr,
			StartDate: "2026-08-23",
		}
		jsonBody, _ := json.Marshal(reqBody)

		req, _ := http.NewRequest(http.MethodPost, "/leases", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)

		var topLevelResponse Response
		err := json.Unmarshal(rr.Body.Bytes(), &topLevelResponse)
		assert.NoError(t, err, "Failed to unmarshal top-level response")

		require.NotNil(t, topLevelResponse.Data, "'data' field should not be nil")

		var responseBody LeaseResponse
		dataBytes, marshalErr := json.Marshal(topLevelResponse.Data)
		require.NoError(t, marshalErr, "Failed to marshal topLevelResponse.Data")
		unmarshalErr := json.Unmarshal(dataBytes, &responseBody)
		require.NoError(t, unmarshalErr, "Failed to unmarshal data field into LeaseResponse")

		assert.Equal(t, expectedLease.ID.String(), responseBody.ID)
		assert.Equal(t, driverID.String(), responseBody.DriverID)
		require.NotNil(t, responseBody.VehicleID)
		assert.Equal(t, vehicleID.String(), *responseBody.VehicleID)
		assert.Nil(t, responseBody.MedallionID)
		assert.True(t, responseBody.Active)
		assert.Equal(t, startDate.Format(time.RFC3339), responseBody.StartDate)

		mockService.AssertExpectations(t)
	})

	t.Run("InvalidRequestBody", func(t *testing.T) {
		mockService := new(MockLeaseService)
		handler := NewLeaseHandler(logger, mockService)

		router := setupTestRouter()
		router.POST("/leases", handler.Create)

		req, _ := http.NewRequest(http.MethodPost, "/leases", bytes.NewBufferString(`{"invalid`)) // Malformed JSON
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertExpectations(t) // Ensure no service methods were called
	})

	t.Run("InvalidStartDate", func(t *testing.T) {
		mockService := new(MockLeaseService)
		handler := NewLeaseHandler(logger, mockService)

		router := setupTestRouter()
		router.POST("/leases", handler.Create)

		reqBody := CreateLeaseRequest{
			DriverID:  uuid.New().String(),
			StartDate: "not-a-date",
		}
		jsonBody, _ := json.Marshal(reqBody)

		req, _ := http.NewRequest(http.MethodPost, "/leases", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertNotCalled(t, "CreateLease")
	})

	t.Run("ServiceError", func(t *testing.T) {
		mockService := new(MockLeaseService)
		handler := NewLeaseHandler(logger, mockService)

		driverID := uuid.New()
		startDate := time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC)
		mockService.On("CreateLease", mock.Anything, driverID, (*uuid.UUID)(nil), (*uuid.UUID)(nil), startDate).
			Return(nil, errors.New("service unavailable"))

		router := setupTestRouter()
		router.POST("/leases", handler.Create)

		reqBody := CreateLeaseRequest{
			DriverID:  driverID.String(),
			StartDate: "2026-08-23",
		}
		jsonBody, _ := json.Marshal(reqBody)

		req, _ := http.NewRequest(http.MethodPost, "/leases", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		mockService.AssertExpectations(t)
	})
}

func TestLeaseHandler_GetByID(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockLeaseService)
		handler := NewLeaseHandler(logger, mockService)

		leaseID := uuid.New()
		now := time.Now()
		expectedLease := &lease.Lease{
			ID:        leaseID,
			DriverID:  uuid.New(),
			Active:    true,
			StartDate: time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC),
			CreatedAt: now,
			UpdatedAt: now,
		}
		mockService.On("GetLeaseByID", mock.Anything, leaseID).Return(expectedLease, nil)

		router := setupTestRouter()
		router.GET("/leases/:id", handler.GetByID)

		req, _ := http.NewRequest(http.MethodGet, "/leases/"+leaseID.String(), nil)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var topLevelResponse Response
		err := json.Unmarshal(rr.Body.Bytes(), &topLevelResponse)
		assert.NoError(t, err)

		require.NotNil(t, topLevelResponse.Data)

		var responseBody LeaseResponse
		dataBytes, marshalErr := json.Marshal(topLevelResponse.Data)
		require.NoError(t, marshalErr, "Failed to marshal topLevelResponse.Data")
		unmarshalErr := json.Unmarshal(dataBytes, &responseBody)
		require.NoError(t, unmarshalErr, "Failed to unmarshal data field into LeaseResponse")

		assert.Equal(t, expectedLease.ID.String(), responseBody.ID)
		assert.Equal(t, expectedLease.DriverID.String(), responseBody.DriverID)
		assert.True(t, responseBody.Active)

		mockService.AssertExpectations(t)
	})

	t.Run("InvalidUUID", func(t *testing.T) {
		mockService := new(MockLeaseService)
		handler := NewLeaseHandler(logger, mockService)

		router := setupTestRouter()
		router.GET("/leases/:id", handler.GetByID)

		req, _ := http.NewRequest(http.MethodGet, "/leases/not-a-uuid", nil)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertExpectations(t) // No service calls expected
	})

	t.Run("LeaseNotFound", func(t *testing.T) {
		mockService := new(MockLeaseService)
		handler := NewLeaseHandler(logger, mockService)

		leaseID := uuid.New()
		mockService.On("GetLeaseByID", mock.Anything, leaseID).Return(nil, lease.ErrLeaseNotFound{LeaseID: leaseID})

		router := setupTestRouter()
		router.GET("/leases/:id", handler.GetByID)

		req, _ := http.NewRequest(http.MethodGet, "/leases/"+leaseID.String(), nil)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("ServiceError", func(t *testing.T) {
		mockService := new(MockLeaseService)
		handler := NewLeaseHandler(logger, mockService)

		leaseID := uuid.New()
		mockService.On("GetLeaseByID", mock.Anything, leaseID).Return(nil, errors.New("database connection lost"))

		router := setupTestRouter()
		router.GET("/leases/:id", handler.GetByID)

		req, _ := http.NewRequest(http.MethodGet, "/leases/"+leaseID.String(), nil)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		mockService.AssertExpectations(t)
	})
}

var _ service.LeaseService = (*MockLeaseService)(nil)
