package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ashnest/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrCouponExhausted   = errors.New("coupon usage limit reached")
)

// CheckoutRepository exposes the order placement and cancellation writes as
// a single unit of work. Every step of a checkout either commits together
// or not at all: the order and item inserts, the stock decrements, the
// coupon usage increment and the cart clear all share one transaction.
type CheckoutRepository interface {
	WithinTx(ctx context.Context, fn func(tx CheckoutTx) error) error
}

// CheckoutTx is the set of operations available inside a checkout
// transaction.
type CheckoutTx interface {
	CartForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, []domain.CartLine, error)
	DiscountsFor(ctx context.Context, productIDs, categoryIDs []uuid.UUID) ([]*domain.Discount, error)
	AddressBelongsTo(ctx context.Context, addressID, userID uuid.UUID) (bool, error)
	CouponByCode(ctx context.Context, code string) (*domain.Coupon, error)
	CreateOrder(ctx context.Context, order *domain.Order, items []domain.OrderItem) error
	DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) error
	RestoreStock(ctx context.Context, productID uuid.UUID, quantity int) error
	IncrementCouponUsage(ctx context.Context, couponID uuid.UUID) error
	ClearCart(ctx context.Context, cartID uuid.UUID) error
	OrderForUpdate(ctx context.Context, orderID uuid.UUID) (*domain.Order, error)
	OrderItems(ctx context.Context, orderID uuid.UUID) ([]domain.OrderItem, error)
	SetOrderStatus(ctx context.Context, order *domain.Order) error
}

type checkoutRepository struct {
	db *sql.DB
}

// NewCheckoutRepository creates a new instance of CheckoutRepository
func NewCheckoutRepository(db *sql.DB) CheckoutRepository {
	return &checkoutRepository{db: db}
}

func (r *checkoutRepository) WithinTx(ctx context.Context, fn func(tx CheckoutTx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(&checkoutTx{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

type checkoutTx struct {
	tx *sql.Tx
}

func (t *checkoutTx) CartForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, []domain.CartLine, error) {
	var cartID uuid.UUID
	err := t.tx.QueryRowContext(ctx, `SELECT id FROM carts WHERE user_id = $1`, userID).Scan(&cartID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, nil, nil
		}
		return uuid.Nil, nil, fmt.Errorf("failed to find cart: %w", err)
	}

	query := `
		SELECT ci.id, ci.cart_id, ci.product_id, ci.quantity, ci.added_at,
		       p.id, p.name, p.description, p.price, p.stock_quantity, p.category_id, p.status, p.image_url, p.created_at, p.updated_at
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.added_at ASC
	`

	rows, err := t.tx.QueryContext(ctx, query, cartID)
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("failed to load cart lines: %w", err)
	}
	defer rows.Close()

	lines := []domain.CartLine{}
	for rows.Next() {
		var line domain.CartLine
		product := &domain.Product{}
		err := rows.Scan(
			&line.Item.ID,
			&line.Item.CartID,
			&line.Item.ProductID,
			&line.Item.Quantity,
			&line.Item.AddedAt,
			&product.ID,
			&product.Name,
			&product.Description,
			&product.Price,
			&product.StockQuantity,
			&product.CategoryID,
			&product.Status,
			&product.ImageURL,
			&product.CreatedAt,
			&product.UpdatedAt,
		)
		if err != nil {
			return uuid.Nil, nil, fmt.Errorf("failed to scan cart line: %w", err)
		}
		line.Product = product
		lines = append(lines, line)
	}

	if err = rows.Err(); err != nil {
		return uuid.Nil, nil, fmt.Errorf("error iterating cart lines: %w", err)
	}

	return cartID, lines, nil
}

func (t *checkoutTx) DiscountsFor(ctx context.Context, productIDs, categoryIDs []uuid.UUID) ([]*domain.Discount, error) {
	if len(productIDs) == 0 && len(categoryIDs) == 0 {
		return []*domain.Discount{}, nil
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM discounts
		WHERE product_id = ANY($1) OR category_id = ANY($2)
		ORDER BY created_at ASC, id ASC
	`, discountColumns)

	rows, err := t.tx.QueryContext(ctx, query, productIDs, categoryIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to find discounts: %w", err)
	}
	defer rows.Close()

	discounts := []*domain.Discount{}
	for rows.Next() {
		discount, err := scanDiscount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan discount: %w", err)
		}
		discounts = append(discounts, discount)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating discounts: %w", err)
	}

	return discounts, nil
}

func (t *checkoutTx) AddressBelongsTo(ctx context.Context, addressID, userID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM addresses WHERE id = $1 AND user_id = $2)`

	var exists bool
	err := t.tx.QueryRowContext(ctx, query, addressID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check address ownership: %w", err)
	}

	return exists, nil
}

func (t *checkoutTx) CouponByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	query := fmt.Sprintf(`SELECT %s FROM coupons WHERE code = $1 FOR UPDATE`, couponColumns)

	coupon, err := scanCoupon(t.tx.QueryRowContext(ctx, query, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCouponNotFound
		}
		return nil, fmt.Errorf("failed to find coupon by code: %w", err)
	}

	return coupon, nil
}

func (t *checkoutTx) CreateOrder(ctx context.Context, order *domain.Order, items []domain.OrderItem) error {
	orderQuery := `
		INSERT INTO orders (id, user_id, address_id, order_number, order_total, product_discount_amount,
			coupon_code, coupon_discount_percentage, coupon_discount_amount, final_amount,
			status, payment_method, shipping_notes, order_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := t.tx.ExecContext(
		ctx,
		orderQuery,
		order.ID,
		order.UserID,
		order.AddressID,
		order.OrderNumber,
		order.OrderTotal,
		order.ProductDiscountAmount,
		order.CouponCode,
		order.CouponDiscountPercentage,
		order.CouponDiscountAmount,
		order.FinalAmount,
		order.Status,
		order.PaymentMethod,
		order.ShippingNotes,
		order.OrderDate,
	)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (id, order_id, product_id, quantity, unit_price, discounted_unit_price)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	for _, item := range items {
		_, err := t.tx.ExecContext(
			ctx,
			itemQuery,
			item.ID,
			item.OrderID,
			item.ProductID,
			item.Quantity,
			item.UnitPrice,
			item.DiscountedUnitPrice,
		)
		if err != nil {
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	return nil
}

// DecrementStock takes quantity units off a product's stock. The WHERE
// clause guards the floor: zero rows affected means the product no longer
// has enough stock and the whole checkout must roll back.
func (t *checkoutTx) DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) error {
	query := `
		UPDATE products
		SET stock_quantity = stock_quantity - $2, updated_at = now()
		WHERE id = $1 AND stock_quantity >= $2
	`

	result, err := t.tx.ExecContext(ctx, query, productID, quantity)
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrInsufficientStock
	}

	return nil
}

func (t *checkoutTx) RestoreStock(ctx context.Context, productID uuid.UUID, quantity int) error {
	query := `
		UPDATE products
		SET stock_quantity = stock_quantity + $2, updated_at = now()
		WHERE id = $1
	`

	_, err := t.tx.ExecContext(ctx, query, productID, quantity)
	if err != nil {
		return fmt.Errorf("failed to restore stock: %w", err)
	}

	return nil
}

// IncrementCouponUsage bumps used_count, refusing to pass the usage limit.
func (t *checkoutTx) IncrementCouponUsage(ctx context.Context, couponID uuid.UUID) error {
	query := `
		UPDATE coupons
		SET used_count = used_count + 1
		WHERE id = $1 AND (usage_limit IS NULL OR used_count < usage_limit)
	`

	result, err := t.tx.ExecContext(ctx, query, couponID)
	if err != nil {
		return fmt.Errorf("failed to increment coupon usage: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrCouponExhausted
	}

	return nil
}

func (t *checkoutTx) ClearCart(ctx context.Context, cartID uuid.UUID) error {
	_, err := t.tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID)
	if err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	return nil
}

// OrderForUpdate locks the order row for the rest of the transaction so a
// cancellation cannot race a concurrent status change.
func (t *checkoutTx) OrderForUpdate(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE id = $1 FOR UPDATE`, orderColumns)

	order, err := scanOrder(t.tx.QueryRowContext(ctx, query, orderID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to lock order: %w", err)
	}

	return order, nil
}

func (t *checkoutTx) OrderItems(ctx context.Context, orderID uuid.UUID) ([]domain.OrderItem, error) {
	query := `
		SELECT id, order_id, product_id, quantity, unit_price, discounted_unit_price
		FROM order_items
		WHERE order_id = $1
	`

	rows, err := t.tx.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	items := []domain.OrderItem{}
	for rows.Next() {
		var item domain.OrderItem
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.Quantity,
			&item.UnitPrice,
			&item.DiscountedUnitPrice,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return items, nil
}

func (t *checkoutTx) SetOrderStatus(ctx context.Context, order *domain.Order) error {
	query := `
		UPDATE orders
		SET status = $2, shipped_date = $3, delivered_date = $4
		WHERE id = $1
	`

	result, err := t.tx.ExecContext(ctx, query, order.ID, order.Status, order.ShippedDate, order.DeliveredDate)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrOrderNotFound
	}

	return nil
}
