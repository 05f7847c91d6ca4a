package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ashnest/internal/domain"

	"github.com/google/uuid"
)

var ErrCartItemNotFound = errors.New("cart item not found")

// CartRepository defines the interface for cart data access
type CartRepository interface {
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*domain.Cart, error)
	Lines(ctx context.Context, cartID uuid.UUID) ([]domain.CartLine, error)
	UpsertItem(ctx context.Context, cartID, productID uuid.UUID, quantity int) error
	SetItemQuantity(ctx context.Context, cartID, productID uuid.UUID, quantity int) error
	RemoveItem(ctx context.Context, cartID, productID uuid.UUID) error
	Clear(ctx context.Context, cartID uuid.UUID) error
}

type cartRepository struct {
	db *sql.DB
}

// NewCartRepository creates a new instance of CartRepository
func NewCartRepository(db *sql.DB) CartRepository {
	return &cartRepository{db: db}
}

// GetOrCreate returns the user's cart, creating one lazily on first use.
func (r *cartRepository) GetOrCreate(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	query := `
		INSERT INTO carts (id, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (user_id) DO UPDATE SET updated_at = carts.updated_at
		RETURNING id, user_id, created_at, updated_at
	`

	now := time.Now()
	cart := &domain.Cart{}
	err := r.db.QueryRowContext(ctx, query, uuid.New(), userID, now).Scan(
		&cart.ID,
		&cart.UserID,
		&cart.CreatedAt,
		&cart.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create cart: %w", err)
	}

	return cart, nil
}

// Lines returns the cart's items joined against the product catalog.
// A line's Product is nil when the product has been removed since the
// item was added.
func (r *cartRepository) Lines(ctx context.Context, cartID uuid.UUID) ([]domain.CartLine, error) {
	query := `
		SELECT ci.id, ci.cart_id, ci.product_id, ci.quantity, ci.added_at,
		       p.id, p.name, p.description, p.price, p.stock_quantity, p.category_id, p.status, p.image_url, p.created_at, p.updated_at
		FROM cart_items ci
		LEFT JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.added_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, cartID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart lines: %w", err)
	}
	defer rows.Close()

	lines := []domain.CartLine{}
	for rows.Next() {
		var line domain.CartLine
		var (
			pID          sql.Null[uuid.UUID]
			pName        sql.NullString
			pDescription sql.NullString
			pPrice       sql.NullString
			pStock       sql.NullInt64
			pCategoryID  sql.Null[uuid.UUID]
			pStatus      sql.NullString
			pImageURL    sql.NullString
			pCreatedAt   sql.NullTime
			pUpdatedAt   sql.NullTime
		)

		err := rows.Scan(
			&line.Item.ID,
			&line.Item.CartID,
			&line.Item.ProductID,
			&line.Item.Quantity,
			&line.Item.AddedAt,
			&pID,
			&pName,
			&pDescription,
			&pPrice,
			&pStock,
			&pCategoryID,
			&pStatus,
			&pImageURL,
			&pCreatedAt,
			&pUpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}

		if pID.Valid {
			product := &domain.Product{
				ID:            pID.V,
				Name:          pName.String,
				Description:   pDescription.String,
				StockQuantity: int(pStock.Int64),
				CategoryID:    pCategoryID.V,
				Status:        domain.ProductStatus(pStatus.String),
				ImageURL:      pImageURL.String,
				CreatedAt:     pCreatedAt.Time,
				UpdatedAt:     pUpdatedAt.Time,
			}
			if err := product.Price.Scan(pPrice.String); err != nil {
				return nil, fmt.Errorf("failed to scan product price: %w", err)
			}
			line.Product = product
		}

		lines = append(lines, line)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart lines: %w", err)
	}

	return lines, nil
}

// UpsertItem adds quantity to an existing line or inserts a new one.
func (r *cartRepository) UpsertItem(ctx context.Context, cartID, productID uuid.UUID, quantity int) error {
	query := `
		INSERT INTO cart_items (id, cart_id, product_id, quantity, added_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
	`

	_, err := r.db.ExecContext(ctx, query, uuid.New(), cartID, productID, quantity, time.Now())
	if err != nil {
		return fmt.Errorf("failed to upsert cart item: %w", err)
	}

	return nil
}

func (r *cartRepository) SetItemQuantity(ctx context.Context, cartID, productID uuid.UUID, quantity int) error {
	query := `
		UPDATE cart_items
		SET quantity = $3
		WHERE cart_id = $1 AND product_id = $2
	`

	result, err := r.db.ExecContext(ctx, query, cartID, productID, quantity)
	if err != nil {
		return fmt.Errorf("failed to update cart item quantity: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrCartItemNotFound
	}

	return nil
}

func (r *cartRepository) RemoveItem(ctx context.Context, cartID, productID uuid.UUID) error {
	query := `DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2`

	result, err := r.db.ExecContext(ctx, query, cartID, productID)
	if err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrCartItemNotFound
	}

	return nil
}

func (r *cartRepository) Clear(ctx context.Context, cartID uuid.UUID) error {
	query := `DELETE FROM cart_items WHERE cart_id = $1`

	_, err := r.db.ExecContext(ctx, query, cartID)
	if err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	return nil
}
