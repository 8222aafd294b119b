// Package checkout builds a priced order submission on the cashier side:
// cart in, breakdown out, order posted to the store once every precondition
// holds.
package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/YelzhanWeb/restopos/internal/adapter/logger"
	"github.com/YelzhanWeb/restopos/internal/domain"
	"github.com/YelzhanWeb/restopos/internal/interfaces"
	"github.com/YelzhanWeb/restopos/internal/pricing"
)

type Service struct {
	store  interfaces.OrderStore
	logger logger.Logger

	deliveryRule  domain.FeeRule
	packagingRule domain.FeeRule

	now func() time.Time
}

var _ interfaces.CheckoutService = (*Service)(nil)

func NewService(store interfaces.OrderStore, logger logger.Logger, deliveryRule, packagingRule domain.FeeRule) *Service {
	return &Service{
		store:         store,
		logger:        logger,
		deliveryRule:  deliveryRule,
		packagingRule: packagingRule,
		now:           time.Now,
	}
}

// Checkout prices the cart and submits the order. A split payment that does
// not add up blocks the submission; a coupon that fails validation is
// reported to the caller rather than silently dropped.
func (s *Service) Checkout(ctx context.Context, cmd interfaces.CheckoutCommand) (*domain.Order, error) {
	subtotal, err := pricing.ComputeSubtotal(cmd.Lines)
	if err != nil {
		return nil, err
	}

	var (
		coupon     *domain.Coupon
		couponCode *string
	)
	if cmd.CouponCode != "" {
		result, err := s.store.ValidateCoupon(ctx, cmd.CouponCode, subtotal)
		if err != nil {
			return nil, fmt.Errorf("coupon validation failed: %w", err)
		}
		if !result.Valid {
			return nil, &domain.CouponIneligibleError{Code: cmd.CouponCode, Reason: result.Reason}
		}
		coupon = result.Coupon
		code := coupon.Code
		couponCode = &code
	}

	breakdown, err := pricing.ComputeBreakdown(pricing.BreakdownInput{
		Lines:         cmd.Lines,
		Kind:          cmd.Kind,
		DeliveryRule:  s.deliveryRule,
		PackagingRule: s.packagingRule,
		Coupon:        coupon,
		Tip:           cmd.Tip,
		SplitCount:    cmd.SplitCount,
		Now:           s.now(),
	})
	if err != nil {
		return nil, err
	}

	if cmd.PaymentMethod == domain.PaymentSplit {
		if cmd.Split == nil || !pricing.ValidateSplit(breakdown.Total, *cmd.Split) {
			return nil, domain.ErrSplitMismatch
		}
	}

	create := interfaces.CreateOrderCommand{
		Kind:            cmd.Kind,
		Lines:           cmd.Lines,
		Breakdown:       breakdown,
		PaymentMethod:   cmd.PaymentMethod,
		Split:           cmd.Split,
		CouponCode:      couponCode,
		TableID:         cmd.TableID,
		CustomerName:    cmd.CustomerName,
		CustomerPhone:   cmd.CustomerPhone,
		DeliveryAddress: cmd.DeliveryAddress,
		IdempotencyKey:  uuid.NewString(),
	}

	order, err := s.store.CreateOrder(ctx, create)
	if err != nil {
		s.logger.Error("order_submission_failed", "Store rejected the order", "", nil, err)
		return nil, err
	}

	s.logger.Info("order_submitted", fmt.Sprintf("Order %s submitted", order.Number), order.Number,
		map[string]interface{}{
			"order_number": order.Number,
			"total":        order.Breakdown.Total,
		})

	return order, nil
}

// Preview prices the cart without submitting anything. The cashier screen
// calls this on every cart edit.
func (s *Service) Preview(ctx context.Context, cmd interfaces.CheckoutCommand) (domain.ChargeBreakdown, error) {
	var coupon *domain.Coupon
	if cmd.CouponCode != "" {
		subtotal, err := pricing.ComputeSubtotal(cmd.Lines)
		if err != nil {
			return domain.ChargeBreakdown{}, err
		}
		result, err := s.store.ValidateCoupon(ctx, cmd.CouponCode, subtotal)
		if err != nil {
			return domain.ChargeBreakdown{}, err
		}
		if !result.Valid {
			return domain.ChargeBreakdown{}, &domain.CouponIneligibleError{Code: cmd.CouponCode, Reason: result.Reason}
		}
		coupon = result.Coupon
	}

	return pricing.ComputeBreakdown(pricing.BreakdownInput{
		Lines:         cmd.Lines,
		Kind:          cmd.Kind,
		DeliveryRule:  s.deliveryRule,
		PackagingRule: s.packagingRule,
		Coupon:        coupon,
		Tip:           cmd.Tip,
		SplitCount:    cmd.SplitCount,
		Now:           s.now(),
	})
}
