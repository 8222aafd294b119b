package interfaces

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/YelzhanWeb/restopos/internal/domain"
)

// OrderStore is the boundary contract every polling client depends on.
// In this repo it is implemented twice: by the store service directly and
// by the HTTP client the view binaries use. Clients treat whatever they get
// back as a snapshot; the store is the sole authority.
type OrderStore interface {
	CreateOrder(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error)
	ListOrders(ctx context.Context, filter ListFilter) ([]*domain.Order, error)
	GetOrder(ctx context.Context, number string) (*domain.Order, error)
	// UpdateOrderStatus asks the store to apply a transition. The store
	// re-validates it server-side; its rejection is authoritative even when
	// the local controller predicted success.
	UpdateOrderStatus(ctx context.Context, number string, target domain.OrderStatus, changedBy string) (*domain.Order, error)
	ValidateCoupon(ctx context.Context, code string, subtotal decimal.Decimal) (*CouponValidationResult, error)
}
