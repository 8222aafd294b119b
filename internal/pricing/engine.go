// Package pricing turns a cart plus a bundle of modifiers (fee rules,
// coupon, tip, split payment) into a charge breakdown. Every function is
// pure: same inputs, same breakdown. The only clock dependence is coupon
// validity, and the caller supplies that clock.
package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/YelzhanWeb/restopos/internal/domain"
)

var (
	hundred = decimal.NewFromInt(100)

	// SplitEpsilon is the tolerance for card + cash vs total comparison.
	SplitEpsilon = decimal.NewFromFloat(0.01)
)

// ComputeSubtotal sums unit price times quantity over all lines. Rejects
// malformed lines with InvalidCartError. Invariant under line reordering.
func ComputeSubtotal(lines []domain.CartLine) (decimal.Decimal, error) {
	if err := domain.ValidateLines(lines); err != nil {
		return decimal.Zero, err
	}
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return sum, nil
}

// ComputeDeliveryFee returns the delivery fee for the given kind and
// pre-discount subtotal. Dine-in and takeaway never pay it; delivery is
// waived once the subtotal reaches the free threshold.
func ComputeDeliveryFee(kind domain.OrderKind, subtotal decimal.Decimal, rule domain.FeeRule) decimal.Decimal {
	if kind != domain.KindDelivery || !rule.Active {
		return decimal.Zero
	}
	if rule.FreeThreshold.IsPositive() && subtotal.GreaterThanOrEqual(rule.FreeThreshold) {
		return decimal.Zero
	}
	return rule.Amount
}

// ComputePackagingFee returns the packaging fee for the given kind.
// Dine-in is always exempt; this is a business invariant, not a default.
func ComputePackagingFee(kind domain.OrderKind, rule domain.FeeRule) decimal.Decimal {
	if !rule.Active {
		return decimal.Zero
	}
	if kind != domain.KindTakeaway && kind != domain.KindDelivery {
		return decimal.Zero
	}
	return rule.Amount
}

// ApplyCoupon checks eligibility against the pre-fee subtotal and computes
// the discount. The discount never exceeds MaxDiscountAmount when set and
// never exceeds the subtotal it is applied to.
func ApplyCoupon(subtotal decimal.Decimal, coupon *domain.Coupon, now time.Time) (decimal.Decimal, error) {
	if err := coupon.CheckEligibility(subtotal, now); err != nil {
		return decimal.Zero, err
	}

	var discount decimal.Decimal
	switch coupon.DiscountKind {
	case domain.DiscountPercentage:
		discount = subtotal.Mul(coupon.DiscountValue).Div(hundred)
		if coupon.MaxDiscountAmount != nil {
			discount = decimal.Min(discount, *coupon.MaxDiscountAmount)
		}
	default:
		discount = coupon.DiscountValue
	}

	return decimal.Min(discount, subtotal), nil
}

// ApplyTip computes the tip over the post-discount base
// (subtotal + fees - discount). Negative inputs are clamped to zero rather
// than rejected; tip widgets feed raw user input through here.
func ApplyTip(base decimal.Decimal, tip domain.TipSpec) decimal.Decimal {
	var amount decimal.Decimal
	switch tip.Kind {
	case domain.TipPercentage:
		amount = base.Mul(tip.Value).Div(hundred)
	default:
		amount = tip.Value
	}
	if amount.IsNegative() {
		return decimal.Zero
	}
	return amount
}

// ValidateSplit reports whether card + cash equals the total within
// SplitEpsilon. It is a predicate, not an error: the check runs on every
// keystroke while a user edits amounts, and a mismatch is a normal state.
func ValidateSplit(total decimal.Decimal, split domain.SplitPayment) bool {
	diff := split.CardAmount.Add(split.CashAmount).Sub(total).Abs()
	return diff.LessThan(SplitEpsilon)
}

// BreakdownInput carries everything ComputeBreakdown needs. Coupon and Tip
// are optional; SplitCount below 1 is treated as 1.
type BreakdownInput struct {
	Lines         []domain.CartLine
	Kind          domain.OrderKind
	DeliveryRule  domain.FeeRule
	PackagingRule domain.FeeRule
	Coupon        *domain.Coupon
	Tip           *domain.TipSpec
	SplitCount    int
	Now           time.Time
}

// ComputeBreakdown orchestrates the pricing steps in their fixed order:
// subtotal, delivery fee, packaging fee, coupon discount, tip, total,
// per-person amount. Fees are computed against the pre-discount subtotal
// (fees are not discounted); the tip is computed against the discounted
// total (nobody tips on money they saved). Each component is rounded to
// 2 fraction digits once, and the total is derived from the rounded
// components so the breakdown identity holds exactly.
func ComputeBreakdown(in BreakdownInput) (domain.ChargeBreakdown, error) {
	subtotal, err := ComputeSubtotal(in.Lines)
	if err != nil {
		return domain.ChargeBreakdown{}, err
	}

	deliveryFee := ComputeDeliveryFee(in.Kind, subtotal, in.DeliveryRule)
	packagingFee := ComputePackagingFee(in.Kind, in.PackagingRule)

	discount := decimal.Zero
	if in.Coupon != nil {
		discount, err = ApplyCoupon(subtotal, in.Coupon, in.Now)
		if err != nil {
			return domain.ChargeBreakdown{}, err
		}
	}

	subtotal = subtotal.Round(2)
	deliveryFee = deliveryFee.Round(2)
	packagingFee = packagingFee.Round(2)
	discount = discount.Round(2)

	tip := decimal.Zero
	if in.Tip != nil {
		tipBase := subtotal.Add(deliveryFee).Add(packagingFee).Sub(discount)
		tip = ApplyTip(tipBase, *in.Tip).Round(2)
	}

	total := subtotal.Add(deliveryFee).Add(packagingFee).Sub(discount).Add(tip)

	splitCount := in.SplitCount
	if splitCount < 1 {
		splitCount = 1
	}

	return domain.ChargeBreakdown{
		Subtotal:       subtotal,
		DeliveryFee:    deliveryFee,
		PackagingFee:   packagingFee,
		CouponDiscount: discount,
		Tip:            tip,
		Total:          total,
		SplitCount:     splitCount,
		PerPerson:      total.Div(decimal.NewFromInt(int64(splitCount))).Round(2),
	}, nil
}
