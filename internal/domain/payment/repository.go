package payment

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository persists payments and their allocation details.
type Repository interface {
	CreatePayment(ctx context.Context, p *Payment) error
	CreateDetail(ctx context.Context, d *AllocationDetail) error
	GetPaymentByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	GetDetailsByPaymentID(ctx context.Context, paymentID uuid.UUID) ([]*AllocationDetail, error)
	GetPaymentsByLease(ctx context.Context, leaseID uuid.UUID, limit, offset int) ([]*Payment, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrPaymentNotFound indicates a missing payment
type ErrPaymentNotFound struct {
	PaymentID uuid.UUID
}

func (e ErrPaymentNotFound) Error() string {
	return "payment not found: " + e.PaymentID.String()
}

// Is implements the errors.Is interface for ErrPaymentNotFound
func (e ErrPaymentNotFound) Is(target error) bool {
	t, ok := target.(ErrPaymentNotFound)
	if !ok {
		return false
	}
	if t.PaymentID == uuid.Nil {
		return true
	}
	return e.PaymentID == t.PaymentID
}
