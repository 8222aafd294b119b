// Package view runs one polling client over the order store: cashier,
// kitchen display and admin are all the same loop with different filters
// and intervals. Each instance owns a lifecycle.Controller and never treats
// its local snapshot as more than a cache.
package view

import (
	"context"
	"time"

	"github.com/YelzhanWeb/restopos/internal/adapter/logger"
	"github.com/YelzhanWeb/restopos/internal/domain"
	"github.com/YelzhanWeb/restopos/internal/interfaces"
	"github.com/YelzhanWeb/restopos/internal/lifecycle"
)

type Service struct {
	name     string
	store    interfaces.OrderStore
	ctrl     *lifecycle.Controller
	filter   lifecycle.Filter
	interval time.Duration
	logger   logger.Logger
}

func NewService(name string, store interfaces.OrderStore, filter lifecycle.Filter, interval time.Duration, logger logger.Logger) *Service {
	return &Service{
		name:     name,
		store:    store,
		ctrl:     lifecycle.NewController(),
		filter:   filter,
		interval: interval,
		logger:   logger,
	}
}

// Run polls the store on the configured interval until the context is
// cancelled. Poll failures are logged and retried on the next tick; the
// merged view simply stays one cycle older.
func (s *Service) Run(ctx context.Context) error {
	s.logger.Info("poller_started", "Polling order store", "", map[string]interface{}{
		"view":             s.name,
		"interval_seconds": s.interval.Seconds(),
	})

	// First poll immediately so the view is not empty for a full interval.
	s.poll(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.poll(ctx)
		}
	}
}

func (s *Service) poll(ctx context.Context) {
	orders, err := s.store.ListOrders(ctx, interfaces.ListFilter{})
	if err != nil {
		s.logger.Error("poll_failed", "Failed to list orders", "", map[string]interface{}{
			"view": s.name,
		}, err)
		return
	}

	s.ctrl.Observe(orders)

	s.logger.Debug("poll_completed", "Order snapshot merged", "", map[string]interface{}{
		"view":   s.name,
		"orders": len(orders),
	})
}

// Orders returns this view's bucket of the merged snapshot.
func (s *Service) Orders() []*domain.Order {
	return s.ctrl.Orders(s.filter)
}

// Transition sends a status command to the store. The local table is
// checked first so an obviously illegal request never leaves the client;
// the store re-validates anyway and its verdict wins. On success the new
// status is confirmed so the next stale poll cannot regress it; on
// rejection nothing is changed locally and the next poll re-syncs the view.
func (s *Service) Transition(ctx context.Context, number string, target domain.OrderStatus) (*domain.Order, error) {
	if current, ok := s.ctrl.Status(number); ok {
		if _, err := lifecycle.RequestTransition(current, target); err != nil {
			s.logger.Error("transition_blocked", "Transition rejected locally", number, map[string]interface{}{
				"view": s.name,
				"from": current,
				"to":   target,
			}, err)
			return nil, err
		}
	}

	order, err := s.store.UpdateOrderStatus(ctx, number, target, s.name)
	if err != nil {
		s.logger.Error("transition_rejected", "Store rejected transition", number, map[string]interface{}{
			"view": s.name,
			"to":   target,
		}, err)
		return nil, err
	}

	s.ctrl.Confirm(number, order.Status)

	s.logger.Info("status_changed", "Transition confirmed by store", number, map[string]interface{}{
		"view":         s.name,
		"order_number": number,
		"status":       order.Status,
	})

	return order, nil
}

// CashierFilter lists every non-terminal order regardless of kind.
func CashierFilter() lifecycle.Filter {
	return lifecycle.Filter{ActiveOnly: true}
}

// KitchenFilter lists the orders the kitchen still has to act on.
func KitchenFilter() lifecycle.Filter {
	return lifecycle.Filter{Statuses: []domain.OrderStatus{domain.StatusPending, domain.StatusPreparing}}
}

// AdminFilter lists everything, terminal orders included.
func AdminFilter() lifecycle.Filter {
	return lifecycle.Filter{}
}
