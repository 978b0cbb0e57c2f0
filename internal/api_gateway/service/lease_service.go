package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/medallion-fleet-ledger/internal/domain/lease"
)

// LeaseServiceImpl implements the LeaseService interface
type LeaseServiceImpl struct {
	leaseRepo lease.Repository
}

// NewLeaseService creates a new lease service
func NewLeaseService(leaseRepo lease.Repository) LeaseService {
	return &LeaseServiceImpl{
		leaseRepo: leaseRepo,
	}
}

// CreateLease registers a new driver/vehicle lease
func (s *LeaseServiceImpl) CreateLease(ctx context.Context, driverID uuid.UUID, vehicleID, medallionID *uuid.UUID, startDate time.Time) (*lease.Lease, error) {
	now := time.Now()
	l := &lease.Lease{
		ID:          uuid.New(),
		DriverID:    driverID,
		VehicleID:   vehicleID,
		MedallionID: medallionID,
		Active:      true,
		StartDate:   startDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.leaseRepo.Create(ctx, l); err != nil {
		return nil, err
	}

	return l, nil
}

// GetLeaseByID retrieves a lease by its ID, returns ErrLeaseNotFound if not found
func (s *LeaseServiceImpl) GetLeaseByID(ctx context.Context, id uuid.UUID) (*lease.Lease, error) {
	return s.leaseRepo.GetByID(ctx, id)
}
