package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/flicky/cocktail-api/internal/model"
)

const publishTimeout = 3 * time.Second

// Channel is the part of *amqp.Channel the publisher needs.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type Publisher struct {
	ch Channel
}

func NewPublisher(ch Channel) *Publisher {
	return &Publisher{ch: ch}
}

func (p *Publisher) PublishOrderPlaced(ctx context.Context, order *model.Order, invoice *model.Invoice) error {
	ev := NewOrderPlaced(ctx, order, invoice)
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", EventOrderPlaced, err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = p.ch.PublishWithContext(pubCtx, "", OrderQueue, false, false, amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		MessageId:     ev.EventID,
		CorrelationId: ev.CorrelationID,
		Timestamp:     ev.OccurredAt,
		Type:          EventOrderPlaced,
		Body:          body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", EventOrderPlaced, err)
	}
	return nil
}
