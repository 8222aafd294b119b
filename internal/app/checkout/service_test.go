package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YelzhanWeb/restopos/internal/domain"
	"github.com/YelzhanWeb/restopos/internal/interfaces"
)

type nopLogger struct{}

func (nopLogger) Info(action, message, requestID string, details map[string]interface{})  {}
func (nopLogger) Debug(action, message, requestID string, details map[string]interface{}) {}
func (nopLogger) Error(action, message, requestID string, details map[string]interface{}, err error) {
}

type fakeStore struct {
	coupons  map[string]*interfaces.CouponValidationResult
	received []interfaces.CreateOrderCommand
	orderSeq int
}

func (s *fakeStore) CreateOrder(ctx context.Context, cmd interfaces.CreateOrderCommand) (*domain.Order, error) {
	s.received = append(s.received, cmd)
	s.orderSeq++
	return &domain.Order{
		Number:        "ORD_20250615_001",
		Kind:          cmd.Kind,
		Lines:         cmd.Lines,
		Breakdown:     cmd.Breakdown,
		Status:        domain.StatusPending,
		PaymentMethod: cmd.PaymentMethod,
		CreatedAt:     time.Now(),
	}, nil
}

func (s *fakeStore) ListOrders(ctx context.Context, filter interfaces.ListFilter) ([]*domain.Order, error) {
	return nil, nil
}

func (s *fakeStore) GetOrder(ctx context.Context, number string) (*domain.Order, error) {
	return nil, domain.ErrOrderNotFound
}

func (s *fakeStore) UpdateOrderStatus(ctx context.Context, number string, target domain.OrderStatus, changedBy string) (*domain.Order, error) {
	return nil, domain.ErrOrderNotFound
}

func (s *fakeStore) ValidateCoupon(ctx context.Context, code string, subtotal decimal.Decimal) (*interfaces.CouponValidationResult, error) {
	result, ok := s.coupons[code]
	if !ok {
		return &interfaces.CouponValidationResult{Valid: false, Reason: domain.CouponNotFound}, nil
	}
	return result, nil
}

func newTestService() (*Service, *fakeStore) {
	store := &fakeStore{coupons: make(map[string]*interfaces.CouponValidationResult)}
	svc := NewService(store, nopLogger{},
		domain.FeeRule{
			Active:        true,
			Amount:        decimal.NewFromFloat(5.00),
			FreeThreshold: decimal.NewFromFloat(60.00),
		},
		domain.FeeRule{Active: true, Amount: decimal.NewFromFloat(2.50)},
	)
	svc.now = func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) }
	return svc, store
}

func strPtr(s string) *string { return &s }

func cartLines() []domain.CartLine {
	return []domain.CartLine{
		{ItemID: 1, Name: "Pepperoni", UnitPrice: decimal.NewFromFloat(25.00), Quantity: 2},
	}
}

func TestCheckout(t *testing.T) {
	svc, store := newTestService()

	order, err := svc.Checkout(context.Background(), interfaces.CheckoutCommand{
		Kind:            domain.KindDelivery,
		Lines:           cartLines(),
		PaymentMethod:   domain.PaymentCard,
		DeliveryAddress: strPtr("12 Abay Ave"),
		Tip: &domain.TipSpec{
			Kind:  domain.TipPercentage,
			Value: decimal.NewFromInt(10),
		},
	})
	require.NoError(t, err)

	require.Len(t, store.received, 1)
	sent := store.received[0]
	assert.NotEmpty(t, sent.IdempotencyKey)

	// 50.00 subtotal + 5.00 delivery + 2.50 packaging, 10% tip on 57.50.
	assert.True(t, sent.Breakdown.Tip.Equal(decimal.NewFromFloat(5.75)),
		"tip = %s", sent.Breakdown.Tip)
	assert.True(t, sent.Breakdown.Total.Equal(decimal.NewFromFloat(63.25)),
		"total = %s", sent.Breakdown.Total)

	assert.Equal(t, domain.StatusPending, order.Status)
}

func TestCheckoutFreshIdempotencyKeyPerAttempt(t *testing.T) {
	svc, store := newTestService()
	cmd := interfaces.CheckoutCommand{
		Kind:          domain.KindTakeaway,
		Lines:         cartLines(),
		PaymentMethod: domain.PaymentCash,
	}

	_, err := svc.Checkout(context.Background(), cmd)
	require.NoError(t, err)
	_, err = svc.Checkout(context.Background(), cmd)
	require.NoError(t, err)

	require.Len(t, store.received, 2)
	assert.NotEqual(t, store.received[0].IdempotencyKey, store.received[1].IdempotencyKey)
}

func TestCheckoutSplitMismatchBlocksSubmission(t *testing.T) {
	svc, store := newTestService()

	cmd := interfaces.CheckoutCommand{
		Kind:          domain.KindTakeaway,
		Lines:         cartLines(),
		PaymentMethod: domain.PaymentSplit,
		Split: &domain.SplitPayment{
			CardAmount: decimal.NewFromFloat(30.00),
			CashAmount: decimal.NewFromFloat(10.00),
		},
	}

	_, err := svc.Checkout(context.Background(), cmd)
	require.ErrorIs(t, err, domain.ErrSplitMismatch)
	assert.Empty(t, store.received)

	// 50.00 + 2.50 packaging covered exactly.
	cmd.Split = &domain.SplitPayment{
		CardAmount: decimal.NewFromFloat(30.00),
		CashAmount: decimal.NewFromFloat(22.50),
	}
	_, err = svc.Checkout(context.Background(), cmd)
	require.NoError(t, err)
	require.Len(t, store.received, 1)
}

func TestCheckoutMissingSplitAmounts(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Checkout(context.Background(), interfaces.CheckoutCommand{
		Kind:          domain.KindTakeaway,
		Lines:         cartLines(),
		PaymentMethod: domain.PaymentSplit,
	})
	require.ErrorIs(t, err, domain.ErrSplitMismatch)
}

func TestCheckoutIneligibleCouponSurfaces(t *testing.T) {
	svc, store := newTestService()
	store.coupons["EXPIRED"] = &interfaces.CouponValidationResult{
		Valid:  false,
		Reason: domain.CouponExpired,
	}

	_, err := svc.Checkout(context.Background(), interfaces.CheckoutCommand{
		Kind:          domain.KindTakeaway,
		Lines:         cartLines(),
		PaymentMethod: domain.PaymentCash,
		CouponCode:    "EXPIRED",
	})

	var ineligible *domain.CouponIneligibleError
	require.ErrorAs(t, err, &ineligible)
	assert.Equal(t, domain.CouponExpired, ineligible.Reason)
	assert.Empty(t, store.received)
}

func TestCheckoutAppliesValidCoupon(t *testing.T) {
	svc, store := newTestService()
	store.coupons["SAVE10"] = &interfaces.CouponValidationResult{
		Valid: true,
		Coupon: &domain.Coupon{
			Code:           "SAVE10",
			DiscountKind:   domain.DiscountPercentage,
			DiscountValue:  decimal.NewFromInt(10),
			MinOrderAmount: decimal.NewFromFloat(20.00),
			Active:         true,
		},
		Discount: decimal.NewFromFloat(5.00),
	}

	_, err := svc.Checkout(context.Background(), interfaces.CheckoutCommand{
		Kind:          domain.KindTakeaway,
		Lines:         cartLines(),
		PaymentMethod: domain.PaymentCash,
		CouponCode:    "SAVE10",
	})
	require.NoError(t, err)

	require.Len(t, store.received, 1)
	sent := store.received[0]
	require.NotNil(t, sent.CouponCode)
	assert.Equal(t, "SAVE10", *sent.CouponCode)
	// 50.00 + 2.50 packaging - 5.00 discount
	assert.True(t, sent.Breakdown.Total.Equal(decimal.NewFromFloat(47.50)),
		"total = %s", sent.Breakdown.Total)
}

func TestPreview(t *testing.T) {
	svc, _ := newTestService()

	breakdown, err := svc.Preview(context.Background(), interfaces.CheckoutCommand{
		Kind:       domain.KindDineIn,
		Lines:      cartLines(),
		SplitCount: 4,
	})
	require.NoError(t, err)

	// Dine-in pays no fees.
	assert.True(t, breakdown.DeliveryFee.IsZero())
	assert.True(t, breakdown.PackagingFee.IsZero())
	assert.True(t, breakdown.Total.Equal(decimal.NewFromFloat(50.00)))
	assert.True(t, breakdown.PerPerson.Equal(decimal.NewFromFloat(12.50)))
}
