package interfaces

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/YelzhanWeb/restopos/internal/domain"
)

// CheckoutCommand is what a cashier screen submits: the raw cart plus the
// modifiers the user picked. Pricing happens inside the checkout service.
type CheckoutCommand struct {
	Kind            domain.OrderKind     `json:"order_kind"`
	Lines           []domain.CartLine    `json:"lines"`
	TableID         *int                 `json:"table_id,omitempty"`
	CustomerName    string               `json:"customer_name,omitempty"`
	CustomerPhone   *string              `json:"customer_phone,omitempty"`
	DeliveryAddress *string              `json:"delivery_address,omitempty"`
	PaymentMethod   domain.PaymentMethod `json:"payment_method"`
	CouponCode      string               `json:"coupon_code,omitempty"`
	Tip             *domain.TipSpec      `json:"tip,omitempty"`
	Split           *domain.SplitPayment `json:"split,omitempty"`
	SplitCount      int                  `json:"split_count,omitempty"`
}

// CreateOrderCommand is the wire-level order submission: a priced cart with
// its breakdown. The store re-validates the breakdown before accepting it.
type CreateOrderCommand struct {
	Kind            domain.OrderKind       `json:"order_kind"`
	Lines           []domain.CartLine      `json:"lines"`
	Breakdown       domain.ChargeBreakdown `json:"breakdown"`
	PaymentMethod   domain.PaymentMethod   `json:"payment_method"`
	Split           *domain.SplitPayment   `json:"split,omitempty"`
	CouponCode      *string                `json:"coupon_code,omitempty"`
	TableID         *int                   `json:"table_id,omitempty"`
	CustomerName    string                 `json:"customer_name,omitempty"`
	CustomerPhone   *string                `json:"customer_phone,omitempty"`
	DeliveryAddress *string                `json:"delivery_address,omitempty"`
	IdempotencyKey  string                 `json:"idempotency_key"`
}

// CouponValidationResult mirrors the coupon validate endpoint: failures are
// part of the normal response, each with a distinct reason, never a silent
// zero discount.
type CouponValidationResult struct {
	Valid    bool                `json:"valid"`
	Reason   domain.CouponReason `json:"reason,omitempty"`
	Coupon   *domain.Coupon      `json:"coupon,omitempty"`
	Discount decimal.Decimal     `json:"discount"`
}

type StoreService interface {
	CreateOrder(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error)
	UpdateStatus(ctx context.Context, number string, target domain.OrderStatus, changedBy string) (*domain.Order, error)
	ListOrders(ctx context.Context, filter ListFilter) ([]*domain.Order, error)
	GetOrder(ctx context.Context, number string) (*domain.Order, error)
	StatusHistory(ctx context.Context, number string) ([]*domain.StatusLog, error)
	ValidateCoupon(ctx context.Context, code string, subtotal decimal.Decimal) (*CouponValidationResult, error)
}

type CheckoutService interface {
	Checkout(ctx context.Context, cmd CheckoutCommand) (*domain.Order, error)
	// Preview prices the cart without submitting; the cashier screen calls
	// it on every edit.
	Preview(ctx context.Context, cmd CheckoutCommand) (domain.ChargeBreakdown, error)
}
