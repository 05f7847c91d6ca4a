package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductStatus controls whether a product can be browsed and purchased.
type ProductStatus string

const (
	ProductActive   ProductStatus = "active"
	ProductInactive ProductStatus = "inactive"
)

// ErrInvalidProductStatus is returned when a status string does not name a
// known product status.
var ErrInvalidProductStatus = errors.New("invalid product status")

// ParseProductStatus parses a status string case-insensitively.
func ParseProductStatus(s string) (ProductStatus, error) {
	switch strings.ToLower(s) {
	case string(ProductActive):
		return ProductActive, nil
	case string(ProductInactive):
		return ProductInactive, nil
	default:
		return "", ErrInvalidProductStatus
	}
}

// Product represents a catalog item. Price is the list price; discounted
// prices are derived, never stored on the product.
type Product struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	Name          string          `json:"name" db:"name"`
	Description   string          `json:"description" db:"description"`
	Price         decimal.Decimal `json:"price" db:"price"`
	StockQuantity int             `json:"stock_quantity" db:"stock_quantity"`
	CategoryID    uuid.UUID       `json:"category_id" db:"category_id"`
	Status        ProductStatus   `json:"status" db:"status"`
	ImageURL      string          `json:"image_url" db:"image_url"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// Category represents a product category. Categories form a tree via
// ParentCategoryID; discounts attached to a category apply to its direct
// products only.
type Category struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	Name             string     `json:"name" db:"name"`
	Description      string     `json:"description" db:"description"`
	ParentCategoryID *uuid.UUID `json:"parent_category_id,omitempty" db:"parent_category_id"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
}
