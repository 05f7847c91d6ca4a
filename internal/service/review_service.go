package service

import (
	"context"
	"errors"
	"time"

	"ashnest/internal/domain"
	"ashnest/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrInvalidRating  = errors.New("rating must be between 1 and 5")
	ErrNotPurchased   = errors.New("only purchased products can be reviewed")
	ErrNotReviewOwner = errors.New("review belongs to another user")
)

// ProductReviews is the read model for a product's review section.
type ProductReviews struct {
	Reviews       []*domain.Review
	AverageRating float64
	ReviewCount   int
}

// ReviewService defines the interface for review business logic
type ReviewService interface {
	Create(ctx context.Context, userID, productID uuid.UUID, rating int, comment string) (*domain.Review, error)
	Update(ctx context.Context, userID, reviewID uuid.UUID, rating int, comment string) (*domain.Review, error)
	Delete(ctx context.Context, userID, reviewID uuid.UUID) error
	ListForProduct(ctx context.Context, productID uuid.UUID) (*ProductReviews, error)
}

type reviewService struct {
	reviewRepo  repository.ReviewRepository
	productRepo repository.ProductRepository
}

// NewReviewService creates a new instance of ReviewService
func NewReviewService(reviewRepo repository.ReviewRepository, productRepo repository.ProductRepository) ReviewService {
	return &reviewService{
		reviewRepo:  reviewRepo,
		productRepo: productRepo,
	}
}

// Create adds a review for a product the user has actually bought.
func (s *reviewService) Create(ctx context.Context, userID, productID uuid.UUID, rating int, comment string) (*domain.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}

	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return nil, err
	}

	purchased, err := s.reviewRepo.HasPurchased(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	if !purchased {
		return nil, ErrNotPurchased
	}

	review := &domain.Review{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: productID,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: time.Now(),
	}

	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, err
	}

	return review, nil
}

func (s *reviewService) Update(ctx context.Context, userID, reviewID uuid.UUID, rating int, comment string) (*domain.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}

	review, err := s.reviewRepo.FindByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if review.UserID != userID {
		return nil, ErrNotReviewOwner
	}

	now := time.Now()
	review.Rating = rating
	review.Comment = comment
	review.UpdatedAt = &now

	if err := s.reviewRepo.Update(ctx, review); err != nil {
		return nil, err
	}

	return review, nil
}

func (s *reviewService) Delete(ctx context.Context, userID, reviewID uuid.UUID) error {
	return s.reviewRepo.Delete(ctx, reviewID, userID)
}

func (s *reviewService) ListForProduct(ctx context.Context, productID uuid.UUID) (*ProductReviews, error) {
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return nil, err
	}

	reviews, err := s.reviewRepo.ListForProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	avg, count, err := s.reviewRepo.AverageRating(ctx, productID)
	if err != nil {
		return nil, err
	}

	return &ProductReviews{
		Reviews:       reviews,
		AverageRating: avg,
		ReviewCount:   count,
	}, nil
}
