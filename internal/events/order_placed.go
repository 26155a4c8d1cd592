package events

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/flicky/cocktail-api/internal/logging"
	"github.com/flicky/cocktail-api/internal/model"
)

const EventOrderPlaced = "OrderPlaced"

type OrderPlaced struct {
	EventType     string          `json:"eventType"`
	EventID       string          `json:"eventId"`
	CorrelationID string          `json:"correlationId,omitempty"`
	OccurredAt    time.Time       `json:"occurredAt"`
	OrderID       int64           `json:"orderId"`
	UserID        int64           `json:"userId"`
	InvoiceID     int64           `json:"invoiceId"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	PaymentStatus string          `json:"paymentStatus"`
	Items         []OrderLine     `json:"items"`
}

type OrderLine struct {
	ProductID int64           `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// NewOrderPlaced builds the event for a committed order, picking up the
// request correlation id from ctx.
func NewOrderPlaced(ctx context.Context, order *model.Order, invoice *model.Invoice) OrderPlaced {
	ev := OrderPlaced{
		EventType:     EventOrderPlaced,
		EventID:       uuid.NewString(),
		CorrelationID: logging.CorrelationID(ctx),
		OccurredAt:    time.Now().UTC(),
		OrderID:       order.ID,
		UserID:        order.UserID,
		InvoiceID:     invoice.ID,
		TotalAmount:   order.TotalAmount,
		PaymentStatus: order.PaymentStatus,
		Items:         make([]OrderLine, 0, len(order.Items)),
	}
	for _, it := range order.Items {
		ev.Items = append(ev.Items, OrderLine{ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: it.UnitPrice})
	}
	return ev
}

func (e OrderPlaced) Validate() error {
	if e.EventType != EventOrderPlaced {
		return errors.New("unexpected eventType: " + e.EventType)
	}
	if e.OrderID <= 0 {
		return errors.New("missing orderId")
	}
	return nil
}
