package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ashnest/internal/domain"

	"github.com/google/uuid"
)

var ErrOrderNotFound = errors.New("order not found")

const orderColumns = `id, user_id, address_id, order_number, order_total, product_discount_amount,
	coupon_code, coupon_discount_percentage, coupon_discount_amount, final_amount,
	status, payment_method, shipping_notes, order_date, shipped_date, delivered_date`

// OrderRepository is the read side of order data access. Writes that need
// transactional guarantees (checkout, cancellation) live on
// CheckoutRepository instead.
type OrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	FindDetail(ctx context.Context, orderID uuid.UUID, userID *uuid.UUID) (*domain.OrderDetail, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error)
	ListAll(ctx context.Context, status *domain.OrderStatus, page, pageSize int) ([]*domain.Order, int, error)
	UpdateStatus(ctx context.Context, order *domain.Order) error
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

func scanOrder(scanner interface{ Scan(...any) error }) (*domain.Order, error) {
	order := &domain.Order{}
	err := scanner.Scan(
		&order.ID,
		&order.UserID,
		&order.AddressID,
		&order.OrderNumber,
		&order.OrderTotal,
		&order.ProductDiscountAmount,
		&order.CouponCode,
		&order.CouponDiscountPercentage,
		&order.CouponDiscountAmount,
		&order.FinalAmount,
		&order.Status,
		&order.PaymentMethod,
		&order.ShippingNotes,
		&order.OrderDate,
		&order.ShippedDate,
		&order.DeliveredDate,
	)
	return order, err
}

func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE id = $1`, orderColumns)

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order by ID: %w", err)
	}

	return order, nil
}

// FindDetail loads the full order projection: the order row, the owner's
// display name, the shipping address and the items joined against the
// current catalog. When userID is non-nil the lookup is scoped to that
// owner; admins pass nil. Items whose product has since been deleted come
// back with an empty ProductName.
func (r *orderRepository) FindDetail(ctx context.Context, orderID uuid.UUID, userID *uuid.UUID) (*domain.OrderDetail, error) {
	query := `
		SELECT o.id, o.user_id, o.address_id, o.order_number, o.order_total, o.product_discount_amount,
		       o.coupon_code, o.coupon_discount_percentage, o.coupon_discount_amount, o.final_amount,
		       o.status, o.payment_method, o.shipping_notes, o.order_date, o.shipped_date, o.delivered_date,
		       u.first_name, u.last_name,
		       a.id, a.user_id, a.full_name, a.phone_number, a.street, a.city, a.region, a.postal_code, a.country, a.is_default, a.created_at
		FROM orders o
		JOIN users u ON u.id = o.user_id
		JOIN addresses a ON a.id = o.address_id
		WHERE o.id = $1 AND ($2::uuid IS NULL OR o.user_id = $2)
	`

	detail := &domain.OrderDetail{}
	var firstName, lastName string
	err := r.db.QueryRowContext(ctx, query, orderID, userID).Scan(
		&detail.Order.ID,
		&detail.Order.UserID,
		&detail.Order.AddressID,
		&detail.Order.OrderNumber,
		&detail.Order.OrderTotal,
		&detail.Order.ProductDiscountAmount,
		&detail.Order.CouponCode,
		&detail.Order.CouponDiscountPercentage,
		&detail.Order.CouponDiscountAmount,
		&detail.Order.FinalAmount,
		&detail.Order.Status,
		&detail.Order.PaymentMethod,
		&detail.Order.ShippingNotes,
		&detail.Order.OrderDate,
		&detail.Order.ShippedDate,
		&detail.Order.DeliveredDate,
		&firstName,
		&lastName,
		&detail.Address.ID,
		&detail.Address.UserID,
		&detail.Address.FullName,
		&detail.Address.PhoneNumber,
		&detail.Address.Street,
		&detail.Address.City,
		&detail.Address.Region,
		&detail.Address.PostalCode,
		&detail.Address.Country,
		&detail.Address.IsDefault,
		&detail.Address.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order detail: %w", err)
	}
	detail.UserName = firstName + " " + lastName

	items, err := r.itemDetails(ctx, orderID)
	if err != nil {
		return nil, err
	}
	detail.Items = items

	return detail, nil
}

func (r *orderRepository) itemDetails(ctx context.Context, orderID uuid.UUID) ([]domain.OrderItemDetail, error) {
	query := `
		SELECT oi.id, oi.order_id, oi.product_id, oi.quantity, oi.unit_price, oi.discounted_unit_price,
		       p.name, p.image_url
		FROM order_items oi
		LEFT JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY oi.id
	`

	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	items := []domain.OrderItemDetail{}
	for rows.Next() {
		var item domain.OrderItemDetail
		var name, imageURL sql.NullString

		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.Quantity,
			&item.UnitPrice,
			&item.DiscountedUnitPrice,
			&name,
			&imageURL,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}

		item.ProductName = name.String
		item.ImageURL = imageURL.String
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return items, nil
}

func (r *orderRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE user_id = $1 ORDER BY order_date DESC`, orderColumns)

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, nil
}

// ListAll retrieves every order with optional status filtering and pagination.
func (r *orderRepository) ListAll(ctx context.Context, status *domain.OrderStatus, page, pageSize int) ([]*domain.Order, int, error) {
	whereClause := ""
	args := []interface{}{}
	argIndex := 1

	if status != nil {
		whereClause = fmt.Sprintf("WHERE status = $%d", argIndex)
		args = append(args, *status)
		argIndex++
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM orders %s", whereClause)
	var total int
	err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	offset := (page - 1) * pageSize

	query := fmt.Sprintf(`
		SELECT %s
		FROM orders
		%s
		ORDER BY order_date DESC
		LIMIT $%d OFFSET $%d
	`, orderColumns, whereClause, argIndex, argIndex+1)

	args = append(args, pageSize, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, total, nil
}

// UpdateStatus persists a lifecycle change along with the shipped and
// delivered stamps. Transition legality is the service's concern.
func (r *orderRepository) UpdateStatus(ctx context.Context, order *domain.Order) error {
	query := `
		UPDATE orders
		SET status = $2, shipped_date = $3, delivered_date = $4
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, order.ID, order.Status, order.ShippedDate, order.DeliveredDate)
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
