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
	ErrCouponNotFound      = errors.New("coupon not found")
	ErrCouponAlreadyExists = errors.New("coupon code already exists")
)

const couponColumns = `id, code, discount_percentage, expiry_date, is_active, usage_limit, used_count, minimum_order_amount, created_at`

// CouponRepository defines the interface for coupon data access
type CouponRepository interface {
	Create(ctx context.Context, coupon *domain.Coupon) error
	Update(ctx context.Context, coupon *domain.Coupon) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Coupon, error)
	FindByCode(ctx context.Context, code string) (*domain.Coupon, error)
	List(ctx context.Context, activeOnly bool) ([]*domain.Coupon, error)
}

type couponRepository struct {
	db *sql.DB
}

// NewCouponRepository creates a new instance of CouponRepository
func NewCouponRepository(db *sql.DB) CouponRepository {
	return &couponRepository{db: db}
}

func scanCoupon(scanner interface{ Scan(...any) error }) (*domain.Coupon, error) {
	coupon := &domain.Coupon{}
	err := scanner.Scan(
		&coupon.ID,
		&coupon.Code,
		&coupon.DiscountPercentage,
		&coupon.ExpiryDate,
		&coupon.IsActive,
		&coupon.UsageLimit,
		&coupon.UsedCount,
		&coupon.MinimumOrderAmount,
		&coupon.CreatedAt,
	)
	return coupon, err
}

func (r *couponRepository) Create(ctx context.Context, coupon *domain.Coupon) error {
	query := `
		INSERT INTO coupons (id, code, discount_percentage, expiry_date, is_active, usage_limit, used_count, minimum_order_amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		coupon.ID,
		coupon.Code,
		coupon.DiscountPercentage,
		coupon.ExpiryDate,
		coupon.IsActive,
		coupon.UsageLimit,
		coupon.UsedCount,
		coupon.MinimumOrderAmount,
		coupon.CreatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrCouponAlreadyExists
		}
		return fmt.Errorf("failed to create coupon: %w", err)
	}

	return nil
}

func (r *couponRepository) Update(ctx context.Context, coupon *domain.Coupon) error {
	query := `
		UPDATE coupons
		SET code = $2, discount_percentage = $3, expiry_date = $4,
		    is_active = $5, usage_limit = $6, minimum_order_amount = $7
		WHERE id = $1
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		coupon.ID,
		coupon.Code,
		coupon.DiscountPercentage,
		coupon.ExpiryDate,
		coupon.IsActive,
		coupon.UsageLimit,
		coupon.MinimumOrderAmount,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrCouponAlreadyExists
		}
		return fmt.Errorf("failed to update coupon: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrCouponNotFound
	}

	return nil
}

func (r *couponRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM coupons WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete coupon: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrCouponNotFound
	}

	return nil
}

func (r *couponRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Coupon, error) {
	query := fmt.Sprintf(`SELECT %s FROM coupons WHERE id = $1`, couponColumns)

	coupon, err := scanCoupon(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCouponNotFound
		}
		return nil, fmt.Errorf("failed to find coupon by ID: %w", err)
	}

	return coupon, nil
}

// FindByCode matches the stored code exactly, including case.
func (r *couponRepository) FindByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	query := fmt.Sprintf(`SELECT %s FROM coupons WHERE code = $1`, couponColumns)

	coupon, err := scanCoupon(r.db.QueryRowContext(ctx, query, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCouponNotFound
		}
		return nil, fmt.Errorf("failed to find coupon by code: %w", err)
	}

	return coupon, nil
}

func (r *couponRepository) List(ctx context.Context, activeOnly bool) ([]*domain.Coupon, error) {
	query := fmt.Sprintf(`SELECT %s FROM coupons ORDER BY created_at DESC`, couponColumns)
	if activeOnly {
		query = fmt.Sprintf(`SELECT %s FROM coupons WHERE is_active = TRUE ORDER BY created_at DESC`, couponColumns)
	}

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list coupons: %w", err)
	}
	defer rows.Close()

	coupons := []*domain.Coupon{}
	for rows.Next() {
		coupon, err := scanCoupon(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan coupon: %w", err)
		}
		coupons = append(coupons, coupon)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating coupons: %w", err)
	}

	return coupons, nil
}
