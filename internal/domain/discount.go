package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Discount is a percentage price reduction scoped to exactly one product or
// one category, active within a date window. Storage may hold many historical
// or future discounts for the same target; at most one is effective at any
// instant as far as pricing is concerned (first-registered wins on overlap).
type Discount struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	Name       string          `json:"name" db:"name"`
	Percentage decimal.Decimal `json:"percentage" db:"percentage"`
	StartDate  time.Time       `json:"start_date" db:"start_date"`
	EndDate    time.Time       `json:"end_date" db:"end_date"`
	IsActive   bool            `json:"is_active" db:"is_active"`
	ProductID  *uuid.UUID      `json:"product_id,omitempty" db:"product_id"`
	CategoryID *uuid.UUID      `json:"category_id,omitempty" db:"category_id"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}

// EffectiveAt reports whether the discount applies at the given instant.
func (d *Discount) EffectiveAt(now time.Time) bool {
	return d.IsActive && !now.Before(d.StartDate) && !now.After(d.EndDate)
}

// Apply returns the discounted unit price for a list price, rounded to
// two decimal places.
func (d *Discount) Apply(listPrice decimal.Decimal) decimal.Decimal {
	factor := decimal.NewFromInt(1).Sub(d.Percentage.Div(decimal.NewFromInt(100)))
	return listPrice.Mul(factor).Round(2)
}
