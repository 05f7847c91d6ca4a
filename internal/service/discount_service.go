package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ashnest/internal/domain"
	"ashnest/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrDiscountTarget     = errors.New("discount must target exactly one product or one category")
	ErrDiscountWindow     = errors.New("start date must be before end date")
	ErrDiscountPercentage = errors.New("percentage must be between 0 and 100")
)

// DiscountInput carries the writable discount fields. Exactly one of
// ProductID and CategoryID must be set.
type DiscountInput struct {
	Name       string
	Percentage decimal.Decimal
	StartDate  time.Time
	EndDate    time.Time
	IsActive   bool
	ProductID  *uuid.UUID
	CategoryID *uuid.UUID
}

// DiscountService defines the interface for discount administration
type DiscountService interface {
	Create(ctx context.Context, input DiscountInput) (*domain.Discount, error)
	Update(ctx context.Context, id uuid.UUID, input DiscountInput) (*domain.Discount, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Discount, error)
	List(ctx context.Context, activeOnly bool) ([]*domain.Discount, error)
	ListForProduct(ctx context.Context, productID uuid.UUID) ([]*domain.Discount, error)
	ListForCategory(ctx context.Context, categoryID uuid.UUID) ([]*domain.Discount, error)
}

type discountService struct {
	discountRepo repository.DiscountRepository
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
}

// NewDiscountService creates a new instance of DiscountService
func NewDiscountService(
	discountRepo repository.DiscountRepository,
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
) DiscountService {
	return &discountService{
		discountRepo: discountRepo,
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
	}
}

func (s *discountService) Create(ctx context.Context, input DiscountInput) (*domain.Discount, error) {
	if err := s.validate(ctx, input); err != nil {
		return nil, err
	}

	discount := &domain.Discount{
		ID:         uuid.New(),
		Name:       input.Name,
		Percentage: input.Percentage,
		StartDate:  input.StartDate,
		EndDate:    input.EndDate,
		IsActive:   input.IsActive,
		ProductID:  input.ProductID,
		CategoryID: input.CategoryID,
		CreatedAt:  time.Now(),
	}

	if err := s.discountRepo.Create(ctx, discount); err != nil {
		return nil, err
	}

	return discount, nil
}

func (s *discountService) Update(ctx context.Context, id uuid.UUID, input DiscountInput) (*domain.Discount, error) {
	if err := s.validate(ctx, input); err != nil {
		return nil, err
	}

	discount, err := s.discountRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	discount.Name = input.Name
	discount.Percentage = input.Percentage
	discount.StartDate = input.StartDate
	discount.EndDate = input.EndDate
	discount.IsActive = input.IsActive
	discount.ProductID = input.ProductID
	discount.CategoryID = input.CategoryID

	if err := s.discountRepo.Update(ctx, discount); err != nil {
		return nil, err
	}

	return discount, nil
}

func (s *discountService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.discountRepo.Delete(ctx, id)
}

func (s *discountService) Get(ctx context.Context, id uuid.UUID) (*domain.Discount, error) {
	return s.discountRepo.FindByID(ctx, id)
}

func (s *discountService) List(ctx context.Context, activeOnly bool) ([]*domain.Discount, error) {
	return s.discountRepo.List(ctx, activeOnly)
}

func (s *discountService) ListForProduct(ctx context.Context, productID uuid.UUID) ([]*domain.Discount, error) {
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return nil, err
	}
	return s.discountRepo.ListForProduct(ctx, productID)
}

func (s *discountService) ListForCategory(ctx context.Context, categoryID uuid.UUID) ([]*domain.Discount, error) {
	if _, err := s.categoryRepo.FindByID(ctx, categoryID); err != nil {
		return nil, err
	}
	return s.discountRepo.ListForCategory(ctx, categoryID)
}

func (s *discountService) validate(ctx context.Context, input DiscountInput) error {
	if (input.ProductID == nil) == (input.CategoryID == nil) {
		return ErrDiscountTarget
	}
	if !input.StartDate.Before(input.EndDate) {
		return ErrDiscountWindow
	}
	hundred := decimal.NewFromInt(100)
	if !input.Percentage.IsPositive() || input.Percentage.GreaterThan(hundred) {
		return ErrDiscountPercentage
	}

	if input.ProductID != nil {
		if _, err := s.productRepo.FindByID(ctx, *input.ProductID); err != nil {
			if errors.Is(err, repository.ErrProductNotFound) {
				return err
			}
			return fmt.Errorf("failed to check product: %w", err)
		}
	}
	if input.CategoryID != nil {
		if _, err := s.categoryRepo.FindByID(ctx, *input.CategoryID); err != nil {
			if errors.Is(err, repository.ErrCategoryNotFound) {
				return err
			}
			return fmt.Errorf("failed to check category: %w", err)
		}
	}

	return nil
}
