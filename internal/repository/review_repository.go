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
	ErrReviewNotFound      = errors.New("review not found")
	ErrReviewAlreadyExists = errors.New("review already exists")
)

// ReviewRepository defines the interface for review data access
type ReviewRepository interface {
	Create(ctx context.Context, review *domain.Review) error
	Update(ctx context.Context, review *domain.Review) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Review, error)
	ListForProduct(ctx context.Context, productID uuid.UUID) ([]*domain.Review, error)
	AverageRating(ctx context.Context, productID uuid.UUID) (float64, int, error)
	HasPurchased(ctx context.Context, userID, productID uuid.UUID) (bool, error)
}

type reviewRepository struct {
	db *sql.DB
}

// NewReviewRepository creates a new instance of ReviewRepository
func NewReviewRepository(db *sql.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Create(ctx context.Context, review *domain.Review) error {
	query := `
		INSERT INTO reviews (id, user_id, product_id, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		review.ID,
		review.UserID,
		review.ProductID,
		review.Rating,
		review.Comment,
		review.CreatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrReviewAlreadyExists
		}
		return fmt.Errorf("failed to create review: %w", err)
	}

	return nil
}

// Update is owner-scoped; a review can only be edited by its author.
func (r *reviewRepository) Update(ctx context.Context, review *domain.Review) error {
	query := `
		UPDATE reviews
		SET rating = $3, comment = $4, updated_at = $5
		WHERE id = $1 AND user_id = $2
	`

	result, err := r.db.ExecContext(ctx, query, review.ID, review.UserID, review.Rating, review.Comment, review.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update review: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrReviewNotFound
	}

	return nil
}

func (r *reviewRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	query := `DELETE FROM reviews WHERE id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrReviewNotFound
	}

	return nil
}

func (r *reviewRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Review, error) {
	query := `
		SELECT id, user_id, product_id, rating, comment, created_at, updated_at
		FROM reviews
		WHERE id = $1
	`

	review := &domain.Review{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&review.ID,
		&review.UserID,
		&review.ProductID,
		&review.Rating,
		&review.Comment,
		&review.CreatedAt,
		&review.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to find review by ID: %w", err)
	}

	return review, nil
}

func (r *reviewRepository) ListForProduct(ctx context.Context, productID uuid.UUID) ([]*domain.Review, error) {
	query := `
		SELECT id, user_id, product_id, rating, comment, created_at, updated_at
		FROM reviews
		WHERE product_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	reviews := []*domain.Review{}
	for rows.Next() {
		review := &domain.Review{}
		err := rows.Scan(
			&review.ID,
			&review.UserID,
			&review.ProductID,
			&review.Rating,
			&review.Comment,
			&review.CreatedAt,
			&review.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, review)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reviews: %w", err)
	}

	return reviews, nil
}

// AverageRating returns the mean rating and review count for a product.
func (r *reviewRepository) AverageRating(ctx context.Context, productID uuid.UUID) (float64, int, error) {
	query := `SELECT COALESCE(AVG(rating), 0), COUNT(*) FROM reviews WHERE product_id = $1`

	var avg float64
	var count int
	err := r.db.QueryRowContext(ctx, query, productID).Scan(&avg, &count)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to compute average rating: %w", err)
	}

	return avg, count, nil
}

// HasPurchased reports whether the user has a non-cancelled order
// containing the product.
func (r *reviewRepository) HasPurchased(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM order_items oi
			JOIN orders o ON o.id = oi.order_id
			WHERE o.user_id = $1 AND oi.product_id = $2 AND o.status <> $3
		)
	`

	var purchased bool
	err := r.db.QueryRowContext(ctx, query, userID, productID, domain.OrderCancelled).Scan(&purchased)
	if err != nil {
		return false, fmt.Errorf("failed to check purchase history: %w", err)
	}

	return purchased, nil
}
