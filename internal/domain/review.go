package domain

import (
	"time"

	"github.com/google/uuid"
)

// Review is a product rating left by a user, one per (user, product).
type Review struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	UserID    uuid.UUID  `json:"user_id" db:"user_id"`
	ProductID uuid.UUID  `json:"product_id" db:"product_id"`
	Rating    int        `json:"rating" db:"rating"`
	Comment   string     `json:"comment" db:"comment"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

// WishlistItem marks a product a user wants to keep an eye on,
// unique per (user, product).
type WishlistItem struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
