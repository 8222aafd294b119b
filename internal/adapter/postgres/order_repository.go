package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/YelzhanWeb/restopos/internal/domain"
	"github.com/YelzhanWeb/restopos/internal/interfaces"
)

type orderRepository struct {
	db DB
}

func NewOrderRepository(db DB) interfaces.OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `id, number, kind, status, payment_method, card_amount, cash_amount,
       coupon_code, table_id, customer_name, customer_phone, delivery_address,
       idempotency_key, subtotal, delivery_fee, packaging_fee, coupon_discount,
       tip, total, split_count, per_person, created_at, updated_at`

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var cardAmount, cashAmount decimal.NullDecimal
	if order.Split != nil {
		cardAmount = decimal.NullDecimal{Decimal: order.Split.CardAmount, Valid: true}
		cashAmount = decimal.NullDecimal{Decimal: order.Split.CashAmount, Valid: true}
	}

	query := `
		INSERT INTO orders (number, kind, status, payment_method, card_amount, cash_amount,
		                    coupon_code, table_id, customer_name, customer_phone, delivery_address,
		                    idempotency_key, subtotal, delivery_fee, packaging_fee, coupon_discount,
		                    tip, total, split_count, per_person, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
		        $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
		RETURNING id
	`
	b := order.Breakdown
	err = tx.QueryRow(ctx, query,
		order.Number, order.Kind, order.Status, order.PaymentMethod, cardAmount, cashAmount,
		order.CouponCode, order.TableID, order.CustomerName, order.CustomerPhone, order.DeliveryAddress,
		order.IdempotencyKey, b.Subtotal, b.DeliveryFee, b.PackagingFee, b.CouponDiscount,
		b.Tip, b.Total, b.SplitCount, b.PerPerson, order.CreatedAt, order.UpdatedAt,
	).Scan(&order.ID)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for i := range order.Lines {
		lineQuery := `
			INSERT INTO order_lines (order_id, item_id, name, unit_price, quantity, addons, parameters, comment)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`
		l := order.Lines[i]
		_, err = tx.Exec(ctx, lineQuery,
			order.ID, l.ItemID, l.Name, l.UnitPrice, l.Quantity, l.Addons, l.Parameters, l.Comment,
		)
		if err != nil {
			return fmt.Errorf("failed to insert order line: %w", err)
		}
	}

	logQuery := `
		INSERT INTO order_status_log (order_id, status, changed_by, changed_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err = tx.Exec(ctx, logQuery, order.ID, order.Status, "order-store", time.Now())
	if err != nil {
		return fmt.Errorf("failed to log status: %w", err)
	}

	return tx.Commit(ctx)
}

func (r *orderRepository) FindByNumber(ctx context.Context, number string) (*domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE number = $1`, orderColumns)
	return r.findOne(ctx, query, number)
}

func (r *orderRepository) FindByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE idempotency_key = $1`, orderColumns)
	return r.findOne(ctx, query, key)
}

func (r *orderRepository) findOne(ctx context.Context, query string, arg any) (*domain.Order, error) {
	order, err := scanOrder(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	if err := r.loadLines(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) List(ctx context.Context, filter interfaces.ListFilter) ([]*domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders`, orderColumns)
	var args []any
	where := ""

	if filter.ActiveOnly {
		where = ` WHERE status NOT IN ('completed', 'cancelled')`
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		args = append(args, statuses)
		where = appendCondition(where, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	if len(filter.Kinds) > 0 {
		kinds := make([]string, len(filter.Kinds))
		for i, k := range filter.Kinds {
			kinds[i] = string(k)
		}
		args = append(args, kinds)
		where = appendCondition(where, fmt.Sprintf("kind = ANY($%d)", len(args)))
	}

	rows, err := r.db.Query(ctx, query+where+` ORDER BY created_at ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	for _, order := range orders {
		if err := r.loadLines(ctx, order); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func appendCondition(where, cond string) string {
	if where == "" {
		return " WHERE " + cond
	}
	return where + " AND " + cond
}

func (r *orderRepository) GenerateOrderNumber(ctx context.Context) (string, error) {
	day := time.Now().UTC().Format("20060102")

	// The per-day counter row is advanced in one atomic statement, so two
	// concurrent creates can never be handed the same number.
	query := `
		INSERT INTO order_number_counters (day, counter)
		VALUES ($1, 1)
		ON CONFLICT (day) DO UPDATE SET counter = order_number_counters.counter + 1
		RETURNING counter
	`

	var counter int
	if err := r.db.QueryRow(ctx, query, day).Scan(&counter); err != nil {
		return "", fmt.Errorf("failed to advance order number counter: %w", err)
	}

	return fmt.Sprintf("ORD_%s_%03d", day, counter), nil
}

func (r *orderRepository) UpdateStatusGuarded(ctx context.Context, orderID int, from, to domain.OrderStatus) (bool, error) {
	query := `
		UPDATE orders
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`
	tag, err := r.db.Exec(ctx, query, to, time.Now(), orderID, from)
	if err != nil {
		return false, fmt.Errorf("failed to update order status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *orderRepository) LogStatus(ctx context.Context, orderID int, status domain.OrderStatus, changedBy string) error {
	query := `
		INSERT INTO order_status_log (order_id, status, changed_by, changed_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.db.Exec(ctx, query, orderID, status, changedBy, time.Now()); err != nil {
		return fmt.Errorf("failed to log status: %w", err)
	}
	return nil
}

func (r *orderRepository) GetStatusHistory(ctx context.Context, orderID int) ([]*domain.StatusLog, error) {
	query := `
		SELECT id, order_id, status, changed_by, changed_at, notes
		FROM order_status_log
		WHERE order_id = $1
		ORDER BY changed_at ASC
	`

	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query status history: %w", err)
	}
	defer rows.Close()

	var logs []*domain.StatusLog
	for rows.Next() {
		var log domain.StatusLog
		if err := rows.Scan(&log.ID, &log.OrderID, &log.Status, &log.ChangedBy, &log.ChangedAt, &log.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan status log: %w", err)
		}
		logs = append(logs, &log)
	}

	return logs, nil
}

func (r *orderRepository) loadLines(ctx context.Context, order *domain.Order) error {
	query := `
		SELECT item_id, name, unit_price, quantity, addons, parameters, comment
		FROM order_lines
		WHERE order_id = $1
		ORDER BY id ASC
	`
	rows, err := r.db.Query(ctx, query, order.ID)
	if err != nil {
		return fmt.Errorf("failed to load order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l domain.CartLine
		if err := rows.Scan(&l.ItemID, &l.Name, &l.UnitPrice, &l.Quantity, &l.Addons, &l.Parameters, &l.Comment); err != nil {
			return fmt.Errorf("failed to scan order line: %w", err)
		}
		order.Lines = append(order.Lines, l)
	}
	return nil
}

func scanOrder(row Row) (*domain.Order, error) {
	var (
		order                  domain.Order
		cardAmount, cashAmount decimal.NullDecimal
	)
	err := row.Scan(
		&order.ID, &order.Number, &order.Kind, &order.Status, &order.PaymentMethod,
		&cardAmount, &cashAmount, &order.CouponCode, &order.TableID,
		&order.CustomerName, &order.CustomerPhone, &order.DeliveryAddress,
		&order.IdempotencyKey,
		&order.Breakdown.Subtotal, &order.Breakdown.DeliveryFee, &order.Breakdown.PackagingFee,
		&order.Breakdown.CouponDiscount, &order.Breakdown.Tip, &order.Breakdown.Total,
		&order.Breakdown.SplitCount, &order.Breakdown.PerPerson,
		&order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if cardAmount.Valid || cashAmount.Valid {
		order.Split = &domain.SplitPayment{
			CardAmount: cardAmount.Decimal,
			CashAmount: cashAmount.Decimal,
		}
	}
	return &order, nil
}
