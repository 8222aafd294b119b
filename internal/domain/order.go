package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentCash  PaymentMethod = "cash"
	PaymentCard  PaymentMethod = "card"
	PaymentSplit PaymentMethod = "split"
)

// CartLine is one cart entry. Lines are immutable once submitted with an
// order.
type CartLine struct {
	ItemID     int             `json:"item_id"`
	Name       string          `json:"name"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Quantity   int             `json:"quantity"`
	Addons     []string        `json:"addons,omitempty"`
	Parameters []string        `json:"parameters,omitempty"`
	Comment    string          `json:"comment,omitempty"`
}

// Order is the shared entity every view observes. The order store is the
// sole authority over it; clients hold snapshots, never the source of truth.
// Status is the only field mutated after creation.
type Order struct {
	ID              int             `json:"id"`
	Number          string          `json:"number"`
	Kind            OrderKind       `json:"order_kind"`
	Lines           []CartLine      `json:"lines"`
	Breakdown       ChargeBreakdown `json:"breakdown"`
	Status          OrderStatus     `json:"status"`
	PaymentMethod   PaymentMethod   `json:"payment_method"`
	Split           *SplitPayment   `json:"split,omitempty"`
	CouponCode      *string         `json:"coupon_code,omitempty"`
	TableID         *int            `json:"table_id,omitempty"`
	CustomerName    string          `json:"customer_name,omitempty"`
	CustomerPhone   *string         `json:"customer_phone,omitempty"`
	DeliveryAddress *string         `json:"delivery_address,omitempty"`
	IdempotencyKey  string          `json:"idempotency_key,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ValidateLines applies the cart invariants: positive quantity,
// non-negative unit price.
func ValidateLines(lines []CartLine) error {
	if len(lines) == 0 {
		return &InvalidCartError{Line: 0, Reason: "cart is empty"}
	}
	for i, l := range lines {
		if l.Quantity <= 0 {
			return &InvalidCartError{Line: i, Reason: "quantity must be positive"}
		}
		if l.UnitPrice.IsNegative() {
			return &InvalidCartError{Line: i, Reason: "unit price must not be negative"}
		}
	}
	return nil
}

// Validate applies the kind-conditional business rules to order metadata.
func (o *Order) Validate() error {
	if !ValidKind(o.Kind) {
		return &InvalidCartError{Line: 0, Reason: "invalid order kind"}
	}
	if err := ValidateLines(o.Lines); err != nil {
		return err
	}
	switch o.Kind {
	case KindDineIn:
		if o.TableID == nil {
			return &InvalidCartError{Line: 0, Reason: "table is required for dine-in orders"}
		}
	case KindDelivery:
		if o.DeliveryAddress == nil || len(strings.TrimSpace(*o.DeliveryAddress)) == 0 {
			return &InvalidCartError{Line: 0, Reason: "delivery address is required for delivery orders"}
		}
	}
	return nil
}

// LinesSubtotal sums unit price times quantity over all lines without
// validation. Pricing uses ComputeSubtotal, which validates first.
func (o *Order) LinesSubtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range o.Lines {
		sum = sum.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return sum
}
