package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Coupon grants an order-level percentage reduction when its code is entered
// at checkout. UsedCount only ever grows and never exceeds UsageLimit.
type Coupon struct {
	ID                 uuid.UUID        `json:"id" db:"id"`
	Code               string           `json:"code" db:"code"`
	DiscountPercentage decimal.Decimal  `json:"discount_percentage" db:"discount_percentage"`
	ExpiryDate         time.Time        `json:"expiry_date" db:"expiry_date"`
	IsActive           bool             `json:"is_active" db:"is_active"`
	UsageLimit         *int             `json:"usage_limit,omitempty" db:"usage_limit"`
	UsedCount          int              `json:"used_count" db:"used_count"`
	MinimumOrderAmount *decimal.Decimal `json:"minimum_order_amount,omitempty" db:"minimum_order_amount"`
	CreatedAt          time.Time        `json:"created_at" db:"created_at"`
}

// Exhausted reports whether the coupon's usage cap has been reached.
func (c *Coupon) Exhausted() bool {
	return c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit
}

// ExpiredAt reports whether the coupon is past its expiry at the given instant.
func (c *Coupon) ExpiredAt(now time.Time) bool {
	return c.ExpiryDate.Before(now)
}

// DiscountFor returns the coupon's discount amount for an order total,
// rounded to two decimal places.
func (c *Coupon) DiscountFor(orderAmount decimal.Decimal) decimal.Decimal {
	return orderAmount.Mul(c.DiscountPercentage).Div(decimal.NewFromInt(100)).Round(2)
}
