package view

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
	snapshot    []*domain.Order
	updated     *domain.Order
	updateErr   error
	updateCalls int
}

func (s *fakeStore) CreateOrder(ctx context.Context, cmd interfaces.CreateOrderCommand) (*domain.Order, error) {
	return nil, nil
}

func (s *fakeStore) ListOrders(ctx context.Context, filter interfaces.ListFilter) ([]*domain.Order, error) {
	return s.snapshot, nil
}

func (s *fakeStore) GetOrder(ctx context.Context, number string) (*domain.Order, error) {
	return nil, domain.ErrOrderNotFound
}

func (s *fakeStore) UpdateOrderStatus(ctx context.Context, number string, target domain.OrderStatus, changedBy string) (*domain.Order, error) {
	s.updateCalls++
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	return s.updated, nil
}

func (s *fakeStore) ValidateCoupon(ctx context.Context, code string, subtotal decimal.Decimal) (*interfaces.CouponValidationResult, error) {
	return nil, nil
}

func order(number string, status domain.OrderStatus, createdAt time.Time) *domain.Order {
	return &domain.Order{
		Number:    number,
		Kind:      domain.KindDineIn,
		Status:    status,
		CreatedAt: createdAt,
	}
}

func TestServiceConfirmedTransitionSurvivesStalePoll(t *testing.T) {
	t0 := time.Now()
	store := &fakeStore{
		snapshot: []*domain.Order{order("ORD_1", domain.StatusPreparing, t0)},
		updated:  order("ORD_1", domain.StatusReady, t0),
	}
	svc := NewService("kitchen-display", store, KitchenFilter(), time.Second, nopLogger{})

	svc.poll(context.Background())

	updated, err := svc.Transition(context.Background(), "ORD_1", domain.StatusReady)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReady, updated.Status)

	// The next poll still carries the pre-write snapshot. The confirmed
	// status must win, so a ready order never reappears on the kitchen list.
	svc.poll(context.Background())

	assert.Empty(t, svc.Orders())
}

func TestServiceBlocksIllegalTransitionLocally(t *testing.T) {
	t0 := time.Now()
	store := &fakeStore{
		snapshot: []*domain.Order{order("ORD_1", domain.StatusCompleted, t0)},
	}
	svc := NewService("admin", store, AdminFilter(), time.Second, nopLogger{})
	svc.poll(context.Background())

	_, err := svc.Transition(context.Background(), "ORD_1", domain.StatusPreparing)
	var invalid *domain.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)

	// An obviously illegal request never reaches the store.
	assert.Zero(t, store.updateCalls)
}

func TestServiceStoreRejectionLeavesViewUntouched(t *testing.T) {
	t0 := time.Now()
	store := &fakeStore{
		snapshot:  []*domain.Order{order("ORD_1", domain.StatusPending, t0)},
		updateErr: &domain.InvalidTransitionError{From: domain.StatusCancelled, To: domain.StatusPreparing},
	}
	svc := NewService("cashier", store, CashierFilter(), time.Second, nopLogger{})
	svc.poll(context.Background())

	// The local table allows pending -> preparing, but the store knows the
	// order was cancelled in the meantime. Its verdict wins.
	_, err := svc.Transition(context.Background(), "ORD_1", domain.StatusPreparing)
	var invalid *domain.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)

	status, ok := svc.ctrl.Status("ORD_1")
	require.True(t, ok)
	assert.Equal(t, domain.StatusPending, status)

	// The following poll re-syncs the truth.
	store.snapshot = []*domain.Order{order("ORD_1", domain.StatusCancelled, t0)}
	svc.poll(context.Background())

	status, ok = svc.ctrl.Status("ORD_1")
	require.True(t, ok)
	assert.Equal(t, domain.StatusCancelled, status)
}

func TestViewFilters(t *testing.T) {
	t0 := time.Now()
	store := &fakeStore{snapshot: []*domain.Order{
		order("ORD_1", domain.StatusPending, t0),
		order("ORD_2", domain.StatusPreparing, t0.Add(time.Minute)),
		order("ORD_3", domain.StatusReady, t0.Add(2*time.Minute)),
		order("ORD_4", domain.StatusCompleted, t0.Add(3*time.Minute)),
		order("ORD_5", domain.StatusCancelled, t0.Add(4*time.Minute)),
	}}

	kitchen := NewService("kitchen-display", store, KitchenFilter(), time.Second, nopLogger{})
	kitchen.poll(context.Background())
	assert.Len(t, kitchen.Orders(), 2)

	cashier := NewService("cashier", store, CashierFilter(), time.Second, nopLogger{})
	cashier.poll(context.Background())
	assert.Len(t, cashier.Orders(), 3)

	admin := NewService("admin", store, AdminFilter(), time.Second, nopLogger{})
	admin.poll(context.Background())
	assert.Len(t, admin.Orders(), 5)
}
