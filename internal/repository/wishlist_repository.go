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
	ErrWishlistItemNotFound = errors.New("wishlist item not found")
	ErrAlreadyInWishlist    = errors.New("product already in wishlist")
)

// WishlistEntry pairs a wishlist item with the product it points at.
// Product is nil when the product has been removed from the catalog.
type WishlistEntry struct {
	Item    domain.WishlistItem
	Product *domain.Product
}

// WishlistRepository defines the interface for wishlist data access
type WishlistRepository interface {
	Add(ctx context.Context, item *domain.WishlistItem) error
	Remove(ctx context.Context, userID, productID uuid.UUID) error
	ListForUser(ctx context.Context, userID uuid.UUID) ([]WishlistEntry, error)
	Contains(ctx context.Context, userID, productID uuid.UUID) (bool, error)
}

type wishlistRepository struct {
	db *sql.DB
}

// NewWishlistRepository creates a new instance of WishlistRepository
func NewWishlistRepository(db *sql.DB) WishlistRepository {
	return &wishlistRepository{db: db}
}

func (r *wishlistRepository) Add(ctx context.Context, item *domain.WishlistItem) error {
	query := `
		INSERT INTO wishlist_items (id, user_id, product_id, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.ExecContext(ctx, query, item.ID, item.UserID, item.ProductID, item.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyInWishlist
		}
		return fmt.Errorf("failed to add wishlist item: %w", err)
	}

	return nil
}

func (r *wishlistRepository) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	query := `DELETE FROM wishlist_items WHERE user_id = $1 AND product_id = $2`

	result, err := r.db.ExecContext(ctx, query, userID, productID)
	if err != nil {
		return fmt.Errorf("failed to remove wishlist item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrWishlistItemNotFound
	}

	return nil
}

func (r *wishlistRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]WishlistEntry, error) {
	query := `
		SELECT wi.id, wi.user_id, wi.product_id, wi.created_at,
		       p.id, p.name, p.description, p.price, p.stock_quantity, p.category_id, p.status, p.image_url, p.created_at, p.updated_at
		FROM wishlist_items wi
		LEFT JOIN products p ON p.id = wi.product_id
		WHERE wi.user_id = $1
		ORDER BY wi.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list wishlist: %w", err)
	}
	defer rows.Close()

	entries := []WishlistEntry{}
	for rows.Next() {
		var entry WishlistEntry
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
			&entry.Item.ID,
			&entry.Item.UserID,
			&entry.Item.ProductID,
			&entry.Item.CreatedAt,
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
			return nil, fmt.Errorf("failed to scan wishlist entry: %w", err)
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
			entry.Product = product
		}

		entries = append(entries, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wishlist: %w", err)
	}

	return entries, nil
}

func (r *wishlistRepository) Contains(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM wishlist_items WHERE user_id = $1 AND product_id = $2)`

	var exists bool
	err := r.db.QueryRowContext(ctx, query, userID, productID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check wishlist: %w", err)
	}

	return exists, nil
}
