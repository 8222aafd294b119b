package domain

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound = errors.New("order not found")

	// ErrSplitMismatch blocks submission when card + cash does not add up to
	// the order total. It is a precondition check, not a pricing failure:
	// the engine exposes ValidateSplit as a predicate and only the
	// submission path turns a failed check into this error.
	ErrSplitMismatch = errors.New("split payment amounts do not equal order total")

	// ErrBreakdownMismatch is returned by the store when the submitted
	// charge breakdown disagrees with the server-side recomputation.
	ErrBreakdownMismatch = errors.New("submitted breakdown does not match recomputed total")
)

// InvalidCartError reports a malformed cart line.
type InvalidCartError struct {
	Line   int
	Reason string
}

func (e *InvalidCartError) Error() string {
	return fmt.Sprintf("invalid cart line %d: %s", e.Line, e.Reason)
}

// CouponReason identifies which eligibility rule a coupon failed, so the
// caller can render a specific message instead of silently zeroing the
// discount.
type CouponReason string

const (
	CouponNotFound     CouponReason = "not_found"
	CouponInactive     CouponReason = "inactive"
	CouponNotStarted   CouponReason = "not_started"
	CouponExpired      CouponReason = "expired"
	CouponExhausted    CouponReason = "exhausted"
	CouponBelowMinimum CouponReason = "below_minimum"
)

type CouponIneligibleError struct {
	Code   string
	Reason CouponReason
}

func (e *CouponIneligibleError) Error() string {
	return fmt.Sprintf("coupon %s ineligible: %s", e.Code, e.Reason)
}

// InvalidTransitionError reports an illegal status edge. It carries both
// ends of the attempted transition for diagnostics.
type InvalidTransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition: %s -> %s", e.From, e.To)
}
