package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func intPtr(v int) *int       { return &v }
func strPtr(s string) *string { return &s }

func validLines() []CartLine {
	return []CartLine{
		{ItemID: 1, Name: "Margherita", UnitPrice: dec("12.50"), Quantity: 2},
		{ItemID: 7, Name: "Lemonade", UnitPrice: dec("3.00"), Quantity: 1},
	}
}

func TestValidateLines(t *testing.T) {
	require.NoError(t, ValidateLines(validLines()))

	tests := []struct {
		name   string
		lines  []CartLine
		line   int
		reason string
	}{
		{"empty cart", nil, 0, "cart is empty"},
		{
			"zero quantity",
			[]CartLine{{ItemID: 1, UnitPrice: dec("5.00"), Quantity: 0}},
			0, "quantity must be positive",
		},
		{
			"negative quantity",
			[]CartLine{{ItemID: 1, UnitPrice: dec("5.00"), Quantity: -1}},
			0, "quantity must be positive",
		},
		{
			"negative price on second line",
			[]CartLine{
				{ItemID: 1, UnitPrice: dec("5.00"), Quantity: 1},
				{ItemID: 2, UnitPrice: dec("-0.01"), Quantity: 1},
			},
			1, "unit price must not be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLines(tt.lines)
			var invalid *InvalidCartError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, tt.line, invalid.Line)
			assert.Equal(t, tt.reason, invalid.Reason)
		})
	}
}

func TestOrderValidateKindRules(t *testing.T) {
	t.Run("dine-in requires table", func(t *testing.T) {
		o := &Order{Kind: KindDineIn, Lines: validLines()}
		require.Error(t, o.Validate())

		o.TableID = intPtr(4)
		require.NoError(t, o.Validate())
	})

	t.Run("delivery requires address", func(t *testing.T) {
		o := &Order{Kind: KindDelivery, Lines: validLines()}
		require.Error(t, o.Validate())

		o.DeliveryAddress = strPtr("   ")
		require.Error(t, o.Validate())

		o.DeliveryAddress = strPtr("12 Abay Ave")
		require.NoError(t, o.Validate())
	})

	t.Run("takeaway needs neither", func(t *testing.T) {
		o := &Order{Kind: KindTakeaway, Lines: validLines()}
		require.NoError(t, o.Validate())
	})

	t.Run("unknown kind rejected", func(t *testing.T) {
		o := &Order{Kind: OrderKind("drive_thru"), Lines: validLines()}
		require.Error(t, o.Validate())
	})
}

func TestCouponCheckEligibility(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	base := Coupon{
		Code:           "SAVE10",
		DiscountKind:   DiscountPercentage,
		DiscountValue:  dec("10"),
		MinOrderAmount: dec("20.00"),
		Active:         true,
	}

	t.Run("eligible", func(t *testing.T) {
		c := base
		require.NoError(t, c.CheckEligibility(dec("25.00"), now))
	})

	t.Run("minimum is inclusive", func(t *testing.T) {
		c := base
		require.NoError(t, c.CheckEligibility(dec("20.00"), now))
	})

	tests := []struct {
		name   string
		mutate func(*Coupon)
		reason CouponReason
	}{
		{"inactive", func(c *Coupon) { c.Active = false }, CouponInactive},
		{"not started", func(c *Coupon) {
			from := now.Add(time.Hour)
			c.ValidFrom = &from
		}, CouponNotStarted},
		{"expired", func(c *Coupon) {
			until := now.Add(-time.Hour)
			c.ValidUntil = &until
		}, CouponExpired},
		{"exhausted", func(c *Coupon) {
			limit := 3
			c.UsageLimit = &limit
			c.UsageCount = 3
		}, CouponExhausted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			err := c.CheckEligibility(dec("25.00"), now)
			var ineligible *CouponIneligibleError
			require.ErrorAs(t, err, &ineligible)
			assert.Equal(t, tt.reason, ineligible.Reason)
			assert.Equal(t, "SAVE10", ineligible.Code)
		})
	}

	t.Run("below minimum", func(t *testing.T) {
		c := base
		err := c.CheckEligibility(dec("19.99"), now)
		var ineligible *CouponIneligibleError
		require.ErrorAs(t, err, &ineligible)
		assert.Equal(t, CouponBelowMinimum, ineligible.Reason)
	})
}

func TestChargeBreakdownConsistent(t *testing.T) {
	b := ChargeBreakdown{
		Subtotal:       dec("55.00"),
		DeliveryFee:    dec("5.00"),
		CouponDiscount: dec("10.00"),
		Tip:            dec("5.00"),
		Total:          dec("55.00"),
	}
	assert.True(t, b.Consistent())

	b.Total = dec("56.00")
	assert.False(t, b.Consistent())
}
