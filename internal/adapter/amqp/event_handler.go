package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/YelzhanWeb/restopos/internal/adapter/logger"
	"github.com/YelzhanWeb/restopos/internal/interfaces"
)

// EventHandler turns order events into console notifications. It stands in
// for the screens that used to get these over a WebSocket push.
type EventHandler struct {
	logger logger.Logger
}

func NewEventHandler(logger logger.Logger) *EventHandler {
	return &EventHandler{logger: logger}
}

func (h *EventHandler) HandleEvent(ctx context.Context, routingKey string, body []byte) error {
	switch {
	case routingKey == "order.created":
		return h.handleOrderCreated(body)
	case strings.HasPrefix(routingKey, "order.status_changed."):
		return h.handleStatusUpdate(body)
	default:
		h.logger.Debug("event_skipped", "Unknown routing key", "", map[string]interface{}{
			"routing_key": routingKey,
		})
		return nil
	}
}

func (h *EventHandler) handleOrderCreated(body []byte) error {
	var msg interfaces.OrderCreatedMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		h.logger.Error("message_parse_failed", "Failed to parse order created event", "", nil, err)
		return err
	}

	h.logger.Info("order_created", fmt.Sprintf("New %s order %s", msg.OrderKind, msg.OrderNumber),
		msg.OrderNumber, map[string]interface{}{
			"order_number": msg.OrderNumber,
			"order_kind":   msg.OrderKind,
			"total":        msg.Total,
		})

	fmt.Printf("New order %s (%s): total %s\n", msg.OrderNumber, msg.OrderKind, msg.Total)
	return nil
}

func (h *EventHandler) handleStatusUpdate(body []byte) error {
	var msg interfaces.StatusUpdateMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		h.logger.Error("message_parse_failed", "Failed to parse status update event", "", nil, err)
		return err
	}

	h.logger.Debug("notification_received", fmt.Sprintf("Status update for order %s", msg.OrderNumber),
		msg.OrderNumber, map[string]interface{}{
			"order_number": msg.OrderNumber,
			"new_status":   msg.NewStatus,
		})

	fmt.Printf("Order %s: status changed from '%s' to '%s' by %s\n",
		msg.OrderNumber, msg.OldStatus, msg.NewStatus, msg.ChangedBy)
	return nil
}
