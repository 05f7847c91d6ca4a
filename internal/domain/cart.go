package domain

import (
	"time"

	"github.com/google/uuid"
)

// Cart is a user's mutable pre-checkout selection. One cart per user,
// created lazily on first access.
type Cart struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CartItem is a single product line in a cart. At most one item per
// (cart, product); quantity zero means the item is removed.
type CartItem struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CartID    uuid.UUID `json:"cart_id" db:"cart_id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	AddedAt   time.Time `json:"added_at" db:"added_at"`
}

// CartLine joins a cart item with its product for pricing. Product is nil
// when the referenced product no longer exists, which is a data-integrity
// fault the checkout path must surface.
type CartLine struct {
	Item    CartItem
	Product *Product
}
