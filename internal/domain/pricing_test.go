package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
)

func testProduct(price string) Product {
	return Product{
		ID:         uuid.New(),
		Name:       "Walnut shelf",
		Price:      decimal.RequireFromString(price),
		CategoryID: uuid.New(),
		Status:     ProductActive,
	}
}

func productDiscount(productID uuid.UUID, pct string, start, end time.Time, active bool) *Discount {
	return &Discount{
		ID:         uuid.New(),
		Name:       "product promo",
		Percentage: decimal.RequireFromString(pct),
		StartDate:  start,
		EndDate:    end,
		IsActive:   active,
		ProductID:  &productID,
	}
}

func categoryDiscount(categoryID uuid.UUID, pct string, start, end time.Time, active bool) *Discount {
	return &Discount{
		ID:         uuid.New(),
		Name:       "category promo",
		Percentage: decimal.RequireFromString(pct),
		StartDate:  start,
		EndDate:    end,
		IsActive:   active,
		CategoryID: &categoryID,
	}
}

func TestResolve_ProductBeatsCategory(t *testing.T) {
	now := time.Now()
	p := testProduct("100.00")

	prodD := productDiscount(p.ID, "20", now.Add(-time.Hour), now.Add(time.Hour), true)
	catD := categoryDiscount(p.CategoryID, "50", now.Add(-time.Hour), now.Add(time.Hour), true)

	idx := NewDiscountIndex([]*Discount{catD, prodD})

	got := idx.Resolve(&p, now)
	if got == nil {
		t.Fatal("expected a discount, got nil")
	}
	if got.ID != prodD.ID {
		t.Errorf("expected product discount %s to win, got %s", prodD.ID, got.ID)
	}
}

func TestResolve_FallsBackToCategory(t *testing.T) {
	now := time.Now()
	p := testProduct("100.00")

	expired := productDiscount(p.ID, "20", now.Add(-2*time.Hour), now.Add(-time.Hour), true)
	catD := categoryDiscount(p.CategoryID, "10", now.Add(-time.Hour), now.Add(time.Hour), true)

	idx := NewDiscountIndex([]*Discount{expired, catD})

	got := idx.Resolve(&p, now)
	if got == nil {
		t.Fatal("expected category discount, got nil")
	}
	if got.ID != catD.ID {
		t.Errorf("expected category discount %s, got %s", catD.ID, got.ID)
	}
}

func TestResolve_WindowEdges(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	p := testProduct("50.00")
	d := productDiscount(p.ID, "15", start, end, true)
	idx := NewDiscountIndex([]*Discount{d})

	cases := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"one tick before start", start.Add(-time.Nanosecond), false},
		{"exactly at start", start, true},
		{"inside window", start.AddDate(0, 0, 15), true},
		{"exactly at end", end, true},
		{"one tick after end", end.Add(time.Nanosecond), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := idx.Resolve(&p, tc.at)
			if (got != nil) != tc.want {
				t.Errorf("at %v: resolved=%v, want %v", tc.at, got != nil, tc.want)
			}
		})
	}
}

func TestResolve_InactiveFlagDisables(t *testing.T) {
	now := time.Now()
	p := testProduct("50.00")
	d := productDiscount(p.ID, "15", now.Add(-time.Hour), now.Add(time.Hour), false)
	idx := NewDiscountIndex([]*Discount{d})

	if got := idx.Resolve(&p, now); got != nil {
		t.Errorf("inactive discount resolved: %v", got.ID)
	}
}

func TestResolve_FirstRegisteredWinsOnOverlap(t *testing.T) {
	now := time.Now()
	p := testProduct("80.00")

	first := productDiscount(p.ID, "10", now.Add(-time.Hour), now.Add(time.Hour), true)
	second := productDiscount(p.ID, "30", now.Add(-time.Hour), now.Add(time.Hour), true)

	// Index preserves registration order.
	idx := NewDiscountIndex([]*Discount{first, second})

	got := idx.Resolve(&p, now)
	if got == nil || got.ID != first.ID {
		t.Errorf("expected first-registered discount to win")
	}
}

func TestValuateCart_ConcreteScenario(t *testing.T) {
	// Product price 100.00, active 20% product discount, quantity 2:
	// discounted unit price 80.00, line total 160.00, savings 40.00.
	now := time.Now()
	p := testProduct("100.00")
	d := productDiscount(p.ID, "20", now.Add(-time.Hour), now.Add(time.Hour), true)
	idx := NewDiscountIndex([]*Discount{d})

	lines := []CartLine{{
		Item:    CartItem{ID: uuid.New(), ProductID: p.ID, Quantity: 2},
		Product: &p,
	}}

	v := ValuateCart(lines, idx, now)

	if len(v.Lines) != 1 {
		t.Fatalf("expected 1 priced line, got %d", len(v.Lines))
	}
	line := v.Lines[0]
	if line.DiscountedUnitPrice == nil {
		t.Fatal("expected a discounted unit price")
	}
	if want := "80"; !line.DiscountedUnitPrice.Equal(decimal.RequireFromString(want)) {
		t.Errorf("discounted unit price = %s, want %s", line.DiscountedUnitPrice, want)
	}
	if want := "160"; !line.LineTotal.Equal(decimal.RequireFromString(want)) {
		t.Errorf("line total = %s, want %s", line.LineTotal, want)
	}
	if want := "160"; !v.TotalAmount.Equal(decimal.RequireFromString(want)) {
		t.Errorf("total amount = %s, want %s", v.TotalAmount, want)
	}
	if want := "40"; !v.ProductDiscountAmount.Equal(decimal.RequireFromString(want)) {
		t.Errorf("product discount amount = %s, want %s", v.ProductDiscountAmount, want)
	}
	if v.TotalItems != 2 {
		t.Errorf("total items = %d, want 2", v.TotalItems)
	}
}

func TestValuateCart_NoDiscountUsesListPrice(t *testing.T) {
	now := time.Now()
	p := testProduct("19.99")
	idx := NewDiscountIndex(nil)

	lines := []CartLine{{
		Item:    CartItem{ID: uuid.New(), ProductID: p.ID, Quantity: 3},
		Product: &p,
	}}

	v := ValuateCart(lines, idx, now)

	if v.Lines[0].DiscountedUnitPrice != nil {
		t.Error("expected no discounted unit price")
	}
	if want := "59.97"; !v.TotalAmount.Equal(decimal.RequireFromString(want)) {
		t.Errorf("total amount = %s, want %s", v.TotalAmount, want)
	}
	if !v.ProductDiscountAmount.IsZero() {
		t.Errorf("product discount amount = %s, want 0", v.ProductDiscountAmount)
	}
}

// Property: for any active product- and category-level discount pair on the
// same product at the same instant, the product-level one always resolves.
func TestProperty_ProductDiscountAlwaysBeatsCategory(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("product scope wins regardless of percentages", prop.ForAll(
		func(prodPct, catPct int) bool {
			now := time.Now()
			p := testProduct("100.00")

			prodD := productDiscount(p.ID, decimal.NewFromInt(int64(prodPct)).String(),
				now.Add(-time.Hour), now.Add(time.Hour), true)
			catD := categoryDiscount(p.CategoryID, decimal.NewFromInt(int64(catPct)).String(),
				now.Add(-time.Hour), now.Add(time.Hour), true)

			idx := NewDiscountIndex([]*Discount{catD, prodD})
			got := idx.Resolve(&p, now)
			return got != nil && got.ID == prodD.ID
		},
		gen.IntRange(1, 100),
		gen.IntRange(1, 100),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Property: the cart total always equals the sum over lines of effective
// unit price times quantity.
func TestProperty_TotalIsSumOfLineTotals(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("total amount equals sum of line totals", prop.ForAll(
		func(quantities []int) bool {
			now := time.Now()
			idx := NewDiscountIndex(nil)

			lines := make([]CartLine, 0, len(quantities))
			for _, q := range quantities {
				if q < 1 {
					q = 1
				}
				p := testProduct("10.50")
				lines = append(lines, CartLine{
					Item:    CartItem{ID: uuid.New(), ProductID: p.ID, Quantity: q},
					Product: &p,
				})
			}

			v := ValuateCart(lines, idx, now)

			sum := decimal.Zero
			for _, l := range v.Lines {
				sum = sum.Add(l.LineTotal)
			}
			return v.TotalAmount.Equal(sum.Round(2))
		},
		gen.SliceOf(gen.IntRange(1, 20)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
