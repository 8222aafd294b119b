package interfaces

import (
	"context"

	"github.com/YelzhanWeb/restopos/internal/domain"
)

// ListFilter narrows a repository listing. Zero value lists everything.
type ListFilter struct {
	Statuses   []domain.OrderStatus
	Kinds      []domain.OrderKind
	ActiveOnly bool
}

type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	FindByNumber(ctx context.Context, number string) (*domain.Order, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error)
	List(ctx context.Context, filter ListFilter) ([]*domain.Order, error)
	GenerateOrderNumber(ctx context.Context) (string, error)
	// UpdateStatusGuarded flips the status only if the row still holds
	// `from`. Returns false when a concurrent writer got there first.
	UpdateStatusGuarded(ctx context.Context, orderID int, from, to domain.OrderStatus) (bool, error)
	LogStatus(ctx context.Context, orderID int, status domain.OrderStatus, changedBy string) error
	GetStatusHistory(ctx context.Context, orderID int) ([]*domain.StatusLog, error)
}

type CouponRepository interface {
	FindByCode(ctx context.Context, code string) (*domain.Coupon, error)
	// IncrementUsage bumps usage_count atomically, respecting the usage
	// limit. Returns false when the coupon is already exhausted.
	IncrementUsage(ctx context.Context, code string) (bool, error)
	// ReleaseUsage undoes one IncrementUsage when the order it was counted
	// for never got created.
	ReleaseUsage(ctx context.Context, code string) error
}
