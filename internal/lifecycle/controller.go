// Package lifecycle owns the order status state machine and the
// reconciliation of repeated, possibly stale observations of shared orders.
// Cashier, kitchen and admin views each run their own Controller over the
// same store; the pure functions here are what keeps them from disagreeing.
package lifecycle

import (
	"sort"
	"sync"

	"github.com/YelzhanWeb/restopos/internal/domain"
)

// RequestTransition validates the edge (current, target) against the
// transition table. A request for the status the order already has is a
// no-op, not an error: independent clients may issue the same command
// concurrently and duplicates must never compound. Any exit from a terminal
// state fails with InvalidTransitionError.
func RequestTransition(current, target domain.OrderStatus) (domain.OrderStatus, error) {
	if current == target {
		return current, nil
	}
	if !domain.CanTransition(current, target) {
		return current, &domain.InvalidTransitionError{From: current, To: target}
	}
	return target, nil
}

// Merge reconciles one poll observation with the locally held status.
// The remote status comes from the order store and is authoritative, with
// these exceptions:
//
//   - a remote status behind a locally store-confirmed one is a stale read
//     (the poll response predates the write) and is ignored until a later
//     poll catches up;
//   - cancellation, once observed, overrides everything except a
//     store-confirmed completed order;
//   - a terminal status already held locally is sticky against a
//     non-terminal remote, confirmed or not: a stale poll must never
//     resurrect a cancelled or completed order as active. The one exit out
//     of a local cancelled is a remote completed, which means the store in
//     fact finished the order and the cancellation we saw was the stale
//     read.
func Merge(local, remote domain.OrderStatus, localConfirmed bool) domain.OrderStatus {
	if local == remote {
		return remote
	}
	if remote == domain.StatusCancelled {
		if localConfirmed && local == domain.StatusCompleted {
			return local
		}
		return remote
	}
	if local == domain.StatusCancelled {
		if remote == domain.StatusCompleted {
			return remote
		}
		return local
	}
	if local == domain.StatusCompleted {
		return local
	}
	if !localConfirmed || remote.Rank() >= local.Rank() {
		return remote
	}
	return local
}

// Filter selects orders for one view's bucket. Zero value matches
// everything.
type Filter struct {
	Kinds      []domain.OrderKind
	Statuses   []domain.OrderStatus
	ActiveOnly bool
}

// Classify reports whether the order belongs in the filtered bucket. Every
// consuming view uses this one predicate, so "active" means the same thing
// on the cashier screen, the kitchen display and the admin dashboard.
func Classify(o *domain.Order, f Filter) bool {
	if f.ActiveOnly && o.Status.IsTerminal() {
		return false
	}
	if len(f.Kinds) > 0 && !containsKind(f.Kinds, o.Kind) {
		return false
	}
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, o.Status) {
		return false
	}
	return true
}

func containsKind(ks []domain.OrderKind, k domain.OrderKind) bool {
	for _, v := range ks {
		if v == k {
			return true
		}
	}
	return false
}

func containsStatus(ss []domain.OrderStatus, s domain.OrderStatus) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

type orderView struct {
	order *domain.Order
	// confirmed marks a status the client received directly in a store
	// command response, as opposed to one adopted from a poll. Confirmed
	// statuses survive stale reads.
	confirmed bool
}

// Controller is one client's merged view of the order collection. It is a
// cache over the store, never a source of truth: every poll cycle feeds a
// full snapshot through Observe, and command responses feed Confirm.
type Controller struct {
	mu    sync.Mutex
	views map[string]*orderView
}

func NewController() *Controller {
	return &Controller{views: make(map[string]*orderView)}
}

// Observe merges a full poll snapshot into the view. Known orders go
// through Merge; unknown orders are adopted as-is. Orders missing from the
// snapshot are kept; the store returns full collections, so absence only
// happens on filtered polls.
func (c *Controller) Observe(orders []*domain.Order) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, remote := range orders {
		v, ok := c.views[remote.Number]
		if !ok {
			o := *remote
			c.views[remote.Number] = &orderView{order: &o}
			continue
		}

		merged := Merge(v.order.Status, remote.Status, v.confirmed)
		o := *remote
		o.Status = merged
		v.order = &o
		// Once the store catches up with a confirmed transition the flag
		// has done its job.
		v.confirmed = v.confirmed && merged != remote.Status
	}
}

// Confirm records a status returned by a successful updateOrderStatus call.
// The next stale poll must not regress it.
func (c *Controller) Confirm(number string, status domain.OrderStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.views[number]
	if !ok {
		return
	}
	o := *v.order
	o.Status = status
	v.order = &o
	v.confirmed = true
}

// Status returns the merged status of one order.
func (c *Controller) Status(number string) (domain.OrderStatus, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.views[number]
	if !ok {
		return "", false
	}
	return v.order.Status, true
}

// Orders lists the merged view through the given filter, oldest first.
func (c *Controller) Orders(f Filter) []*domain.Order {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []*domain.Order
	for _, v := range c.views {
		if Classify(v.order, f) {
			o := *v.order
			out = append(out, &o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
