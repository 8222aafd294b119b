package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/YelzhanWeb/restopos/internal/domain"
	"github.com/YelzhanWeb/restopos/internal/interfaces"
)

type couponRepository struct {
	db DB
}

func NewCouponRepository(db DB) interfaces.CouponRepository {
	return &couponRepository{db: db}
}

func (r *couponRepository) FindByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	query := `
		SELECT code, discount_kind, discount_value, min_order_amount, max_discount_amount,
		       usage_limit, usage_count, valid_from, valid_until, active
		FROM coupons
		WHERE code = $1
	`

	var (
		c           domain.Coupon
		maxDiscount decimal.NullDecimal
	)
	err := r.db.QueryRow(ctx, query, strings.ToUpper(code)).Scan(
		&c.Code, &c.DiscountKind, &c.DiscountValue, &c.MinOrderAmount, &maxDiscount,
		&c.UsageLimit, &c.UsageCount, &c.ValidFrom, &c.ValidUntil, &c.Active,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.CouponIneligibleError{Code: code, Reason: domain.CouponNotFound}
		}
		return nil, fmt.Errorf("failed to load coupon: %w", err)
	}

	if maxDiscount.Valid {
		c.MaxDiscountAmount = &maxDiscount.Decimal
	}
	return &c, nil
}

func (r *couponRepository) IncrementUsage(ctx context.Context, code string) (bool, error) {
	// The usage_limit guard keeps two concurrent checkouts from spending
	// the last use twice.
	query := `
		UPDATE coupons
		SET usage_count = usage_count + 1
		WHERE code = $1 AND (usage_limit IS NULL OR usage_count < usage_limit)
	`
	tag, err := r.db.Exec(ctx, query, strings.ToUpper(code))
	if err != nil {
		return false, fmt.Errorf("failed to increment coupon usage: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *couponRepository) ReleaseUsage(ctx context.Context, code string) error {
	query := `
		UPDATE coupons
		SET usage_count = usage_count - 1
		WHERE code = $1 AND usage_count > 0
	`
	if _, err := r.db.Exec(ctx, query, strings.ToUpper(code)); err != nil {
		return fmt.Errorf("failed to release coupon usage: %w", err)
	}
	return nil
}
