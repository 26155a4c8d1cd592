package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/flicky/cocktail-api/internal/events"
	"github.com/flicky/cocktail-api/internal/model"
)

// InvoiceStore is the slice of the order repository the worker touches.
type InvoiceStore interface {
	GetInvoiceByOrderID(ctx context.Context, orderID int64) (*model.Invoice, error)
	MarkInvoiceDelivered(ctx context.Context, invoiceID int64) error
}

// Mailer delivers an invoice to its customer.
type Mailer interface {
	SendInvoice(ctx context.Context, invoice *model.Invoice) error
}

// InvoiceWorker consumes OrderPlaced events and delivers the order's invoice
// exactly once per event id. Poison messages and delivery failures go to the
// dead-letter queue; idempotency-store failures are requeued.
type InvoiceWorker struct {
	channel    *amqp.Channel
	invoices   InvoiceStore
	deduper    Deduper
	mailer     Mailer
	deliveries *prometheus.CounterVec
	log        *slog.Logger
	done       chan struct{}
}

func NewInvoiceWorker(
	ch *amqp.Channel,
	invoices InvoiceStore,
	deduper Deduper,
	mailer Mailer,
	deliveries *prometheus.CounterVec,
	log *slog.Logger,
) *InvoiceWorker {
	return &InvoiceWorker{
		channel:    ch,
		invoices:   invoices,
		deduper:    deduper,
		mailer:     mailer,
		deliveries: deliveries,
		log:        log,
		done:       make(chan struct{}),
	}
}

func (w *InvoiceWorker) Start(ctx context.Context) error {
	if err := w.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set QoS: %w", err)
	}
	msgs, err := w.channel.Consume(events.OrderQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				w.handle(ctx, msg)
			case <-w.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	w.log.Info("invoice worker started", "queue", events.OrderQueue)
	return nil
}

func (w *InvoiceWorker) Stop() { close(w.done) }

func (w *InvoiceWorker) handle(ctx context.Context, msg amqp.Delivery) {
	var ev events.OrderPlaced
	if err := json.Unmarshal(msg.Body, &ev); err != nil {
		w.log.Error("unmarshal order placed", "error", err)
		w.finish("malformed", msg.Nack(false, false))
		return
	}
	if err := ev.Validate(); err != nil {
		w.log.Error("invalid order placed", "error", err)
		w.finish("malformed", msg.Nack(false, false))
		return
	}

	log := w.log.With("order_id", ev.OrderID, "event_id", ev.EventID, "correlation_id", ev.CorrelationID)

	key := "invoice_delivered:" + ev.EventID
	seen, err := w.deduper.Seen(ctx, key)
	if err != nil {
		log.Error("check idempotency key", "error", err)
		w.finish("requeued", msg.Nack(false, true))
		return
	}
	if seen {
		log.Info("invoice already delivered, skipping")
		w.finish("duplicate", msg.Ack(false))
		return
	}

	if err := w.deliver(ctx, ev.OrderID); err != nil {
		log.Error("deliver invoice failed", "error", err)
		w.finish("failed", msg.Nack(false, false))
		return
	}

	if err := w.deduper.Mark(ctx, key); err != nil {
		log.Error("set idempotency key", "error", err)
	}

	w.finish("delivered", msg.Ack(false))
	log.Info("invoice delivered")
}

func (w *InvoiceWorker) deliver(ctx context.Context, orderID int64) error {
	invoice, err := w.invoices.GetInvoiceByOrderID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("get invoice: %w", err)
	}
	if invoice == nil {
		return fmt.Errorf("invoice for order %d not found", orderID)
	}
	if invoice.DeliveredAt != nil {
		return nil
	}
	if err := w.mailer.SendInvoice(ctx, invoice); err != nil {
		return fmt.Errorf("send invoice: %w", err)
	}
	if err := w.invoices.MarkInvoiceDelivered(ctx, invoice.ID); err != nil {
		return fmt.Errorf("mark delivered: %w", err)
	}
	return nil
}

func (w *InvoiceWorker) finish(outcome string, ackErr error) {
	if ackErr != nil {
		w.log.Error("acknowledge message", "outcome", outcome, "error", ackErr)
	}
	if w.deliveries != nil {
		w.deliveries.WithLabelValues(outcome).Inc()
	}
}

// LogMailer stands in for an email provider and only logs the invoice.
type LogMailer struct {
	Log *slog.Logger
}

func (m LogMailer) SendInvoice(_ context.Context, invoice *model.Invoice) error {
	m.Log.Info("invoice sent",
		"invoice_id", invoice.ID,
		"order_id", invoice.OrderID,
		"customer", invoice.CustomerName,
		"total", invoice.TotalAmount.StringFixed(2),
	)
	return nil
}
