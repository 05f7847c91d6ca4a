package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DiscountIndex holds discount candidates bucketed by their target, in
// first-registered order (created_at, id). Built by the repository for the
// set of products being priced.
type DiscountIndex struct {
	ByProduct  map[uuid.UUID][]*Discount
	ByCategory map[uuid.UUID][]*Discount
}

// NewDiscountIndex buckets a flat discount list by target, preserving the
// order the discounts arrive in.
func NewDiscountIndex(discounts []*Discount) *DiscountIndex {
	idx := &DiscountIndex{
		ByProduct:  make(map[uuid.UUID][]*Discount),
		ByCategory: make(map[uuid.UUID][]*Discount),
	}
	for _, d := range discounts {
		switch {
		case d.ProductID != nil:
			idx.ByProduct[*d.ProductID] = append(idx.ByProduct[*d.ProductID], d)
		case d.CategoryID != nil:
			idx.ByCategory[*d.CategoryID] = append(idx.ByCategory[*d.CategoryID], d)
		}
	}
	return idx
}

// Resolve returns the single discount applicable to a product at the given
// instant, or nil. A product-scoped discount always beats a category-scoped
// one; within a scope the first effective candidate wins.
func (idx *DiscountIndex) Resolve(p *Product, now time.Time) *Discount {
	if d := firstEffective(idx.ByProduct[p.ID], now); d != nil {
		return d
	}
	return firstEffective(idx.ByCategory[p.CategoryID], now)
}

func firstEffective(candidates []*Discount, now time.Time) *Discount {
	for _, d := range candidates {
		if d.EffectiveAt(now) {
			return d
		}
	}
	return nil
}

// PricedLine is the result of pricing one cart line. DiscountedUnitPrice is
// set only when a discount applied; LineTotal uses the effective price.
type PricedLine struct {
	Item                CartItem
	Product             Product
	UnitPrice           decimal.Decimal
	DiscountedUnitPrice *decimal.Decimal
	Discount            *Discount
	LineTotal           decimal.Decimal
}

// CartValuation aggregates the priced lines of a cart. ProductDiscountAmount
// is the total saved through product and category discounts; a coupon, when
// applied later, stacks on top of TotalAmount, never on the pre-discount
// subtotal.
type CartValuation struct {
	Lines                 []PricedLine
	TotalAmount           decimal.Decimal
	ProductDiscountAmount decimal.Decimal
	TotalItems            int
}

// PriceLine prices a single product line at the given instant.
func PriceLine(item CartItem, product Product, idx *DiscountIndex, now time.Time) PricedLine {
	line := PricedLine{
		Item:      item,
		Product:   product,
		UnitPrice: product.Price,
	}

	qty := decimal.NewFromInt(int64(item.Quantity))
	effective := product.Price

	if d := idx.Resolve(&product, now); d != nil {
		discounted := d.Apply(product.Price)
		line.Discount = d
		line.DiscountedUnitPrice = &discounted
		effective = discounted
	}

	line.LineTotal = effective.Mul(qty).Round(2)
	return line
}

// ValuateCart prices every line of a cart against the discount index. It is
// a pure pricing pass: inactive products are not filtered here (checkout
// re-validates), and callers must have resolved every product beforehand.
func ValuateCart(lines []CartLine, idx *DiscountIndex, now time.Time) CartValuation {
	v := CartValuation{Lines: make([]PricedLine, 0, len(lines))}
	v.TotalAmount = decimal.Zero
	v.ProductDiscountAmount = decimal.Zero

	for _, l := range lines {
		priced := PriceLine(l.Item, *l.Product, idx, now)
		v.Lines = append(v.Lines, priced)
		v.TotalAmount = v.TotalAmount.Add(priced.LineTotal)
		v.TotalItems += l.Item.Quantity

		if priced.DiscountedUnitPrice != nil {
			saved := priced.UnitPrice.Sub(*priced.DiscountedUnitPrice).
				Mul(decimal.NewFromInt(int64(l.Item.Quantity)))
			v.ProductDiscountAmount = v.ProductDiscountAmount.Add(saved)
		}
	}

	v.TotalAmount = v.TotalAmount.Round(2)
	v.ProductDiscountAmount = v.ProductDiscountAmount.Round(2)
	return v
}
