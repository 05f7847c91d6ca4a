package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ashnest/internal/domain"

	"github.com/google/uuid"
)

var ErrDiscountNotFound = errors.New("discount not found")

const discountColumns = `id, name, percentage, start_date, end_date, is_active, product_id, category_id, created_at`

// DiscountRepository defines the interface for discount data access
type DiscountRepository interface {
	Create(ctx context.Context, discount *domain.Discount) error
	Update(ctx context.Context, discount *domain.Discount) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Discount, error)
	List(ctx context.Context, activeOnly bool) ([]*domain.Discount, error)
	ListForProduct(ctx context.Context, productID uuid.UUID) ([]*domain.Discount, error)
	ListForCategory(ctx context.Context, categoryID uuid.UUID) ([]*domain.Discount, error)
	FindForProducts(ctx context.Context, productIDs, categoryIDs []uuid.UUID) ([]*domain.Discount, error)
}

type discountRepository struct {
	db *sql.DB
}

// NewDiscountRepository creates a new instance of DiscountRepository
func NewDiscountRepository(db *sql.DB) DiscountRepository {
	return &discountRepository{db: db}
}

func scanDiscount(scanner interface{ Scan(...any) error }) (*domain.Discount, error) {
	discount := &domain.Discount{}
	err := scanner.Scan(
		&discount.ID,
		&discount.Name,
		&discount.Percentage,
		&discount.StartDate,
		&discount.EndDate,
		&discount.IsActive,
		&discount.ProductID,
		&discount.CategoryID,
		&discount.CreatedAt,
	)
	return discount, err
}

func (r *discountRepository) Create(ctx context.Context, discount *domain.Discount) error {
	query := `
		INSERT INTO discounts (id, name, percentage, start_date, end_date, is_active, product_id, category_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		discount.ID,
		discount.Name,
		discount.Percentage,
		discount.StartDate,
		discount.EndDate,
		discount.IsActive,
		discount.ProductID,
		discount.CategoryID,
		discount.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create discount: %w", err)
	}

	return nil
}

func (r *discountRepository) Update(ctx context.Context, discount *domain.Discount) error {
	query := `
		UPDATE discounts
		SET name = $2, percentage = $3, start_date = $4, end_date = $5,
		    is_active = $6, product_id = $7, category_id = $8
		WHERE id = $1
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		discount.ID,
		discount.Name,
		discount.Percentage,
		discount.StartDate,
		discount.EndDate,
		discount.IsActive,
		discount.ProductID,
		discount.CategoryID,
	)

	if err != nil {
		return fmt.Errorf("failed to update discount: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrDiscountNotFound
	}

	return nil
}

func (r *discountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM discounts WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete discount: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrDiscountNotFound
	}

	return nil
}

func (r *discountRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Discount, error) {
	query := fmt.Sprintf(`SELECT %s FROM discounts WHERE id = $1`, discountColumns)

	discount, err := scanDiscount(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDiscountNotFound
		}
		return nil, fmt.Errorf("failed to find discount by ID: %w", err)
	}

	return discount, nil
}

func (r *discountRepository) List(ctx context.Context, activeOnly bool) ([]*domain.Discount, error) {
	query := fmt.Sprintf(`SELECT %s FROM discounts ORDER BY created_at DESC`, discountColumns)
	if activeOnly {
		query = fmt.Sprintf(`
			SELECT %s FROM discounts
			WHERE is_active = TRUE AND start_date <= NOW() AND end_date >= NOW()
			ORDER BY created_at DESC
		`, discountColumns)
	}

	return r.queryDiscounts(ctx, query)
}

func (r *discountRepository) ListForProduct(ctx context.Context, productID uuid.UUID) ([]*domain.Discount, error) {
	query := fmt.Sprintf(`SELECT %s FROM discounts WHERE product_id = $1 ORDER BY created_at DESC`, discountColumns)
	return r.queryDiscounts(ctx, query, productID)
}

func (r *discountRepository) ListForCategory(ctx context.Context, categoryID uuid.UUID) ([]*domain.Discount, error) {
	query := fmt.Sprintf(`SELECT %s FROM discounts WHERE category_id = $1 ORDER BY created_at DESC`, discountColumns)
	return r.queryDiscounts(ctx, query, categoryID)
}

func (r *discountRepository) queryDiscounts(ctx context.Context, query string, args ...any) ([]*domain.Discount, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list discounts: %w", err)
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

// FindForProducts fetches every discount that targets one of the given
// products or categories. Rows come back in creation order, with id as a
// tie-break on equal timestamps, so callers resolving conflicts keep the
// earliest registered discount deterministically.
func (r *discountRepository) FindForProducts(ctx context.Context, productIDs, categoryIDs []uuid.UUID) ([]*domain.Discount, error) {
	if len(productIDs) == 0 && len(categoryIDs) == 0 {
		return []*domain.Discount{}, nil
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM discounts
		WHERE product_id = ANY($1) OR category_id = ANY($2)
		ORDER BY created_at ASC, id ASC
	`, discountColumns)

	return r.queryDiscounts(ctx, query, productIDs, categoryIDs)
}
