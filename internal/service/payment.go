package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/flicky/cocktail-api/internal/model"
)

type PaymentRequest struct {
	UserID int64
	Amount decimal.Decimal
}

type PaymentResult struct {
	Status    string
	Reference string
}

// PaymentAuthorizer approves or declines a checkout before anything is
// written. A decline is reported as an error wrapping ErrPaymentDeclined.
type PaymentAuthorizer interface {
	Authorize(ctx context.Context, req PaymentRequest) (PaymentResult, error)
}

// SimulatedPayments approves every request immediately.
type SimulatedPayments struct{}

func (SimulatedPayments) Authorize(_ context.Context, _ PaymentRequest) (PaymentResult, error) {
	return PaymentResult{Status: model.PaymentStatusPaid, Reference: uuid.NewString()}, nil
}
