package rabbitmq

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/YelzhanWeb/restopos/internal/interfaces"
)

type consumer struct {
	conn Connection
}

func NewConsumer(conn Connection) interfaces.EventConsumer {
	return &consumer{conn: conn}
}

// ConsumeOrderEvents binds an exclusive queue to the order_events exchange
// and feeds every event into the handler. Reconnects with a fixed backoff
// when the channel drops.
func (c *consumer) ConsumeOrderEvents(ctx context.Context, handler interfaces.EventHandler) error {
	for {
		err := c.consumeWithReconnect(ctx, handler)

		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err == nil {
			return nil
		}

		log.Printf("Event consumer disconnected: %v. Reconnecting in 5 seconds...", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Second):
		}
	}
}

func (c *consumer) consumeWithReconnect(ctx context.Context, handler interfaces.EventHandler) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	closeChan := ch.NotifyClose()

	if err := ch.ExchangeDeclare(eventsExchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, "order.#", eventsExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	msgs, err := ch.Consume(q.Name, "", true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-closeChan:
			if err != nil {
				return fmt.Errorf("channel closed: %w", err)
			}
			return fmt.Errorf("channel closed gracefully")

		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("messages channel closed")
			}

			// Notifications are fire-and-forget; handler errors are the
			// handler's to log.
			_ = handler(ctx, msg.RoutingKey, msg.Body)
		}
	}
}
