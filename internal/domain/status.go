package domain

import "time"

type OrderKind string

const (
	KindDineIn   OrderKind = "dine_in"
	KindTakeaway OrderKind = "takeaway"
	KindDelivery OrderKind = "delivery"
)

// ValidKind reports whether k is one of the known order kinds.
func ValidKind(k OrderKind) bool {
	switch k {
	case KindDineIn, KindTakeaway, KindDelivery:
		return true
	}
	return false
}

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusCompleted OrderStatus = "completed"
	StatusCancelled OrderStatus = "cancelled"
)

// validTransitions is the single transition table shared by every view and
// by the order store. Terminal states have no exits.
var validTransitions = map[OrderStatus][]OrderStatus{
	StatusPending:   {StatusPreparing, StatusCancelled},
	StatusPreparing: {StatusReady, StatusCancelled},
	StatusReady:     {StatusCompleted},
	StatusCompleted: {},
	StatusCancelled: {},
}

// CanTransition reports whether the edge (from, to) is in the table.
func CanTransition(from, to OrderStatus) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition is permitted out of s.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Rank places a status on the linear lifecycle axis
// pending < preparing < ready < completed. Cancelled is an independent
// terminal branch and has no rank; callers must handle it explicitly.
func (s OrderStatus) Rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusPreparing:
		return 1
	case StatusReady:
		return 2
	case StatusCompleted:
		return 3
	}
	return -1
}

// ValidStatus reports whether s is one of the known order statuses.
func ValidStatus(s OrderStatus) bool {
	_, ok := validTransitions[s]
	return ok
}

// StatusLog represents a log entry for order status changes
type StatusLog struct {
	ID        int
	OrderID   int
	Status    OrderStatus
	ChangedBy string
	ChangedAt time.Time
	Notes     *string
}
