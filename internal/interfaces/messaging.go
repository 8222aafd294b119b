package interfaces

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/YelzhanWeb/restopos/internal/domain"
)

// RabbitMQ event payloads. One topic exchange, routing keys
// order.created and order.status_changed.<new_status>.

type OrderCreatedMessage struct {
	OrderNumber  string           `json:"order_number"`
	OrderKind    domain.OrderKind `json:"order_kind"`
	CustomerName string           `json:"customer_name,omitempty"`
	Total        decimal.Decimal  `json:"total"`
	CreatedAt    time.Time        `json:"created_at"`
}

type StatusUpdateMessage struct {
	OrderNumber string             `json:"order_number"`
	OldStatus   domain.OrderStatus `json:"old_status"`
	NewStatus   domain.OrderStatus `json:"new_status"`
	ChangedBy   string             `json:"changed_by"`
	Timestamp   time.Time          `json:"timestamp"`
}

type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, msg OrderCreatedMessage) error
	PublishStatusUpdate(ctx context.Context, msg StatusUpdateMessage) error
}

// EventHandler receives the routing key alongside the body so one
// subscriber can dispatch on event type.
type EventHandler func(ctx context.Context, routingKey string, body []byte) error

type EventConsumer interface {
	ConsumeOrderEvents(ctx context.Context, handler EventHandler) error
}
