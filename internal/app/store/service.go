// Package store implements the authoritative order store. It is the only
// writer of order state; polling clients see its snapshots and send
// transition commands back here, where the transition table is enforced a
// second time regardless of what the client predicted.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/YelzhanWeb/restopos/internal/adapter/logger"
	"github.com/YelzhanWeb/restopos/internal/adapter/metrics"
	"github.com/YelzhanWeb/restopos/internal/domain"
	"github.com/YelzhanWeb/restopos/internal/interfaces"
	"github.com/YelzhanWeb/restopos/internal/lifecycle"
	"github.com/YelzhanWeb/restopos/internal/pricing"
)

type Service struct {
	orders    interfaces.OrderRepository
	coupons   interfaces.CouponRepository
	publisher interfaces.EventPublisher
	logger    logger.Logger
	metrics   *metrics.Metrics

	deliveryRule  domain.FeeRule
	packagingRule domain.FeeRule

	now func() time.Time
}

func NewService(
	orders interfaces.OrderRepository,
	coupons interfaces.CouponRepository,
	publisher interfaces.EventPublisher,
	logger logger.Logger,
	m *metrics.Metrics,
	deliveryRule, packagingRule domain.FeeRule,
) *Service {
	return &Service{
		orders:        orders,
		coupons:       coupons,
		publisher:     publisher,
		logger:        logger,
		metrics:       m,
		deliveryRule:  deliveryRule,
		packagingRule: packagingRule,
		now:           time.Now,
	}
}

// CreateOrder accepts a priced submission. The submitted breakdown is never
// trusted: the store recomputes it from the lines, its own fee rules and
// the coupon on file, and rejects the order when the totals disagree.
func (s *Service) CreateOrder(ctx context.Context, cmd interfaces.CreateOrderCommand) (*domain.Order, error) {
	order := &domain.Order{
		Kind:            cmd.Kind,
		Lines:           cmd.Lines,
		Breakdown:       cmd.Breakdown,
		Status:          domain.StatusPending,
		PaymentMethod:   cmd.PaymentMethod,
		Split:           cmd.Split,
		CouponCode:      cmd.CouponCode,
		TableID:         cmd.TableID,
		CustomerName:    cmd.CustomerName,
		CustomerPhone:   cmd.CustomerPhone,
		DeliveryAddress: cmd.DeliveryAddress,
		IdempotencyKey:  cmd.IdempotencyKey,
	}

	if err := order.Validate(); err != nil {
		s.logger.Error("validation_failed", "Order validation failed", "", nil, err)
		return nil, err
	}

	// A retried submission returns the order the first attempt created.
	if cmd.IdempotencyKey != "" {
		existing, err := s.orders.FindByIdempotencyKey(ctx, cmd.IdempotencyKey)
		if err == nil {
			s.logger.Debug("order_deduplicated", "Duplicate submission ignored", "", map[string]interface{}{
				"order_number": existing.Number,
			})
			return existing, nil
		}
		if !errors.Is(err, domain.ErrOrderNotFound) {
			return nil, err
		}
	}

	recomputed, err := s.revalidateBreakdown(ctx, cmd)
	if err != nil {
		s.logger.Error("breakdown_rejected", "Submitted breakdown failed re-validation", "", map[string]interface{}{
			"submitted_total": cmd.Breakdown.Total,
		}, err)
		return nil, err
	}
	// What gets persisted is the store's own computation, never the
	// client's numbers.
	order.Breakdown = recomputed

	if cmd.PaymentMethod == domain.PaymentSplit {
		if cmd.Split == nil || !pricing.ValidateSplit(order.Breakdown.Total, *cmd.Split) {
			return nil, domain.ErrSplitMismatch
		}
	}

	if cmd.CouponCode != nil {
		ok, err := s.coupons.IncrementUsage(ctx, *cmd.CouponCode)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &domain.CouponIneligibleError{Code: *cmd.CouponCode, Reason: domain.CouponExhausted}
		}
	}

	number, err := s.orders.GenerateOrderNumber(ctx)
	if err != nil {
		s.releaseCouponUsage(ctx, cmd.CouponCode)
		return nil, fmt.Errorf("failed to generate order number: %w", err)
	}
	order.Number = number
	order.CreatedAt = s.now()
	order.UpdatedAt = order.CreatedAt

	if err := s.orders.Create(ctx, order); err != nil {
		s.releaseCouponUsage(ctx, cmd.CouponCode)
		s.logger.Error("db_transaction_failed", "Failed to create order", "", nil, err)
		return nil, err
	}

	s.metrics.OrdersCreated.Inc()
	s.logger.Info("order_created", "Order created", order.Number, map[string]interface{}{
		"order_number": order.Number,
		"order_kind":   order.Kind,
		"total":        order.Breakdown.Total,
	})

	msg := interfaces.OrderCreatedMessage{
		OrderNumber:  order.Number,
		OrderKind:    order.Kind,
		CustomerName: order.CustomerName,
		Total:        order.Breakdown.Total,
		CreatedAt:    order.CreatedAt,
	}
	if err := s.publisher.PublishOrderCreated(ctx, msg); err != nil {
		// The order is already persisted; the event stream is best effort.
		s.logger.Error("publish_failed", "Failed to publish order created event", order.Number, nil, err)
	}

	return order, nil
}

// releaseCouponUsage gives back a counted coupon use when order creation
// fails after the increment, so a failed insert does not burn the use.
func (s *Service) releaseCouponUsage(ctx context.Context, code *string) {
	if code == nil {
		return
	}
	if err := s.coupons.ReleaseUsage(ctx, *code); err != nil {
		s.logger.Error("coupon_release_failed", "Failed to release coupon usage", "", map[string]interface{}{
			"code": *code,
		}, err)
	}
}

// revalidateBreakdown recomputes the charge from scratch and compares it
// component by component, so fabricated numbers cannot hide behind a total
// that happens to balance. The client's tip is the one value taken at face
// value (it is a free choice, only clamped to be non-negative). The
// recomputation, not the submission, is what gets persisted.
func (s *Service) revalidateBreakdown(ctx context.Context, cmd interfaces.CreateOrderCommand) (domain.ChargeBreakdown, error) {
	var coupon *domain.Coupon
	if cmd.CouponCode != nil {
		c, err := s.coupons.FindByCode(ctx, *cmd.CouponCode)
		if err != nil {
			return domain.ChargeBreakdown{}, err
		}
		coupon = c
	}

	if cmd.Breakdown.Tip.IsNegative() {
		return domain.ChargeBreakdown{}, domain.ErrBreakdownMismatch
	}

	recomputed, err := pricing.ComputeBreakdown(pricing.BreakdownInput{
		Lines:         cmd.Lines,
		Kind:          cmd.Kind,
		DeliveryRule:  s.deliveryRule,
		PackagingRule: s.packagingRule,
		Coupon:        coupon,
		Tip:           &domain.TipSpec{Kind: domain.TipFixed, Value: cmd.Breakdown.Tip},
		SplitCount:    cmd.Breakdown.SplitCount,
		Now:           s.now(),
	})
	if err != nil {
		return domain.ChargeBreakdown{}, err
	}

	if !recomputed.Subtotal.Equal(cmd.Breakdown.Subtotal) ||
		!recomputed.DeliveryFee.Equal(cmd.Breakdown.DeliveryFee) ||
		!recomputed.PackagingFee.Equal(cmd.Breakdown.PackagingFee) ||
		!recomputed.CouponDiscount.Equal(cmd.Breakdown.CouponDiscount) {
		return domain.ChargeBreakdown{}, fmt.Errorf("%w: submitted components disagree with recomputation",
			domain.ErrBreakdownMismatch)
	}

	diff := recomputed.Total.Sub(cmd.Breakdown.Total).Abs()
	if !diff.LessThan(pricing.SplitEpsilon) {
		return domain.ChargeBreakdown{}, fmt.Errorf("%w: submitted %s, recomputed %s",
			domain.ErrBreakdownMismatch, cmd.Breakdown.Total, recomputed.Total)
	}
	return recomputed, nil
}

// UpdateStatus applies one transition command. The guarded UPDATE makes
// concurrent commands race safely: the loser observes the winner's status
// and either turns into a no-op or gets a rejection, never a compounded
// write.
func (s *Service) UpdateStatus(ctx context.Context, number string, target domain.OrderStatus, changedBy string) (*domain.Order, error) {
	if !domain.ValidStatus(target) {
		return nil, fmt.Errorf("unknown status: %s", target)
	}

	order, err := s.orders.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}

	next, err := lifecycle.RequestTransition(order.Status, target)
	if err != nil {
		s.metrics.RejectedTransitions.Inc()
		s.logger.Error("transition_rejected", "Illegal status transition", number, map[string]interface{}{
			"from": order.Status,
			"to":   target,
		}, err)
		return nil, err
	}
	if next == order.Status {
		// Duplicate command; the caller already has what it asked for.
		return order, nil
	}

	applied, err := s.orders.UpdateStatusGuarded(ctx, order.ID, order.Status, next)
	if err != nil {
		return nil, err
	}
	if !applied {
		// A concurrent writer advanced the order first. Reload and decide:
		// if it landed on the requested status the command is a duplicate,
		// otherwise the edge is now illegal.
		current, err := s.orders.FindByNumber(ctx, number)
		if err != nil {
			return nil, err
		}
		if current.Status == target {
			return current, nil
		}
		s.metrics.RejectedTransitions.Inc()
		return nil, &domain.InvalidTransitionError{From: current.Status, To: target}
	}

	oldStatus := order.Status
	order.Status = next
	order.UpdatedAt = s.now()

	if err := s.orders.LogStatus(ctx, order.ID, next, changedBy); err != nil {
		s.logger.Error("status_log_failed", "Failed to append status log", number, nil, err)
	}

	s.metrics.StatusTransitions.WithLabelValues(string(next)).Inc()
	s.logger.Info("status_changed", fmt.Sprintf("Order %s: %s -> %s", number, oldStatus, next),
		number, map[string]interface{}{
			"order_number": number,
			"old_status":   oldStatus,
			"new_status":   next,
			"changed_by":   changedBy,
		})

	msg := interfaces.StatusUpdateMessage{
		OrderNumber: number,
		OldStatus:   oldStatus,
		NewStatus:   next,
		ChangedBy:   changedBy,
		Timestamp:   order.UpdatedAt,
	}
	if err := s.publisher.PublishStatusUpdate(ctx, msg); err != nil {
		s.logger.Error("publish_failed", "Failed to publish status update event", number, nil, err)
	}

	return order, nil
}

func (s *Service) ListOrders(ctx context.Context, filter interfaces.ListFilter) ([]*domain.Order, error) {
	return s.orders.List(ctx, filter)
}

func (s *Service) GetOrder(ctx context.Context, number string) (*domain.Order, error) {
	return s.orders.FindByNumber(ctx, number)
}

func (s *Service) StatusHistory(ctx context.Context, number string) ([]*domain.StatusLog, error) {
	order, err := s.orders.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	return s.orders.GetStatusHistory(ctx, order.ID)
}

// ValidateCoupon checks a code against the pre-fee subtotal. Ineligibility
// is part of the normal result, with the failed rule spelled out, so the
// UI can tell "not found" from "below minimum" from "expired".
func (s *Service) ValidateCoupon(ctx context.Context, code string, subtotal decimal.Decimal) (*interfaces.CouponValidationResult, error) {
	coupon, err := s.coupons.FindByCode(ctx, code)
	if err != nil {
		var ineligible *domain.CouponIneligibleError
		if errors.As(err, &ineligible) {
			return &interfaces.CouponValidationResult{Valid: false, Reason: ineligible.Reason}, nil
		}
		return nil, err
	}

	discount, err := pricing.ApplyCoupon(subtotal, coupon, s.now())
	if err != nil {
		var ineligible *domain.CouponIneligibleError
		if errors.As(err, &ineligible) {
			return &interfaces.CouponValidationResult{Valid: false, Reason: ineligible.Reason}, nil
		}
		return nil, err
	}

	return &interfaces.CouponValidationResult{
		Valid:    true,
		Coupon:   coupon,
		Discount: discount.Round(2),
	}, nil
}
