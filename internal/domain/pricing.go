package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// FeeRule configures one surcharge (packaging or delivery). Rules are read
// from configuration and passed into the pricing engine explicitly; the
// engine never reads settings on its own.
type FeeRule struct {
	Active bool
	Amount decimal.Decimal
	// FreeThreshold only applies to the delivery rule: a positive value
	// waives the fee once the cart subtotal reaches it.
	FreeThreshold decimal.Decimal
}

type DiscountKind string

const (
	DiscountPercentage DiscountKind = "percentage"
	DiscountFixed      DiscountKind = "fixed"
)

type Coupon struct {
	Code              string
	DiscountKind      DiscountKind
	DiscountValue     decimal.Decimal
	MinOrderAmount    decimal.Decimal
	MaxDiscountAmount *decimal.Decimal
	UsageLimit        *int
	UsageCount        int
	ValidFrom         *time.Time
	ValidUntil        *time.Time
	Active            bool
}

// CheckEligibility applies the coupon eligibility rules against the pre-fee
// subtotal. Each failure carries a distinct reason.
func (c *Coupon) CheckEligibility(subtotal decimal.Decimal, now time.Time) error {
	if !c.Active {
		return &CouponIneligibleError{Code: c.Code, Reason: CouponInactive}
	}
	if c.ValidFrom != nil && c.ValidFrom.After(now) {
		return &CouponIneligibleError{Code: c.Code, Reason: CouponNotStarted}
	}
	if c.ValidUntil != nil && c.ValidUntil.Before(now) {
		return &CouponIneligibleError{Code: c.Code, Reason: CouponExpired}
	}
	if c.UsageLimit != nil && c.UsageCount >= *c.UsageLimit {
		return &CouponIneligibleError{Code: c.Code, Reason: CouponExhausted}
	}
	if subtotal.LessThan(c.MinOrderAmount) {
		return &CouponIneligibleError{Code: c.Code, Reason: CouponBelowMinimum}
	}
	return nil
}

type TipKind string

const (
	TipPercentage TipKind = "percentage"
	TipFixed      TipKind = "fixed"
)

// TipSpec is either a percentage of the post-discount total or an explicit
// amount.
type TipSpec struct {
	Kind  TipKind         `json:"kind"`
	Value decimal.Decimal `json:"value"`
}

type SplitPayment struct {
	CardAmount decimal.Decimal `json:"card_amount"`
	CashAmount decimal.Decimal `json:"cash_amount"`
}

// ChargeBreakdown is the itemized monetary result of pricing one order.
// All fields are rounded to 2 fraction digits; rounding happens once, at
// breakdown boundary, never inside intermediate arithmetic.
type ChargeBreakdown struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	DeliveryFee    decimal.Decimal `json:"delivery_fee"`
	PackagingFee   decimal.Decimal `json:"packaging_fee"`
	CouponDiscount decimal.Decimal `json:"coupon_discount"`
	Tip            decimal.Decimal `json:"tip"`
	Total          decimal.Decimal `json:"total"`
	SplitCount     int             `json:"split_count"`
	PerPerson      decimal.Decimal `json:"per_person"`
}

// Consistent reports whether the breakdown satisfies
// total = subtotal + fees - discount + tip and total >= 0.
func (b ChargeBreakdown) Consistent() bool {
	sum := b.Subtotal.Add(b.DeliveryFee).Add(b.PackagingFee).Sub(b.CouponDiscount).Add(b.Tip)
	return b.Total.Equal(sum) && !b.Total.IsNegative()
}
