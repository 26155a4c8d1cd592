package events

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	OrderQueue  = "orders"
	DLXExchange = "orders.dlx"
	DLQueue     = "orders.dlq"
)

// SetupRabbitMQ declares the order queue and its dead-letter exchange and
// queue. It is safe to call on every start.
func SetupRabbitMQ(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(DLXExchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLX: %w", err)
	}
	if _, err := ch.QueueDeclare(DLQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLQ: %w", err)
	}
	if err := ch.QueueBind(DLQueue, OrderQueue, DLXExchange, false, nil); err != nil {
		return fmt.Errorf("bind DLQ: %w", err)
	}
	if _, err := ch.QueueDeclare(OrderQueue, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    DLXExchange,
		"x-dead-letter-routing-key": OrderQueue,
	}); err != nil {
		return fmt.Errorf("declare order queue: %w", err)
	}
	return nil
}
