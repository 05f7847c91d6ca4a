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
	ErrInvalidPrice    = errors.New("price must be greater than zero")
	ErrNegativeStock   = errors.New("stock quantity cannot be negative")
	ErrCategoryInUse   = errors.New("category has products and cannot be deleted")
	ErrCategoryMissing = errors.New("category does not exist")
)

// ProductInput carries the writable product fields.
type ProductInput struct {
	Name          string
	Description   string
	Price         decimal.Decimal
	StockQuantity int
	CategoryID    uuid.UUID
	Status        domain.ProductStatus
	ImageURL      string
}

// CategoryInput carries the writable category fields.
type CategoryInput struct {
	Name             string
	Description      string
	ParentCategoryID *uuid.UUID
}

// PricedProduct is a catalog product together with its resolved discount,
// if one is effective right now.
type PricedProduct struct {
	Product         *domain.Product
	DiscountedPrice *decimal.Decimal
	DiscountName    string
}

// ProductPage is one page of priced products.
type ProductPage struct {
	Products   []PricedProduct
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

// CatalogService defines the interface for product and category business
// logic. Read paths price every product against the currently effective
// discounts so listings always show the discounted price.
type CatalogService interface {
	CreateProduct(ctx context.Context, input ProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	GetProduct(ctx context.Context, id uuid.UUID) (*PricedProduct, error)
	ListProducts(ctx context.Context, categoryID *uuid.UUID, page, pageSize int, sortBy string, sortOrder repository.SortOrder) (*ProductPage, error)
	SearchProducts(ctx context.Context, query string, page, pageSize int) (*ProductPage, error)

	CreateCategory(ctx context.Context, input CategoryInput) (*domain.Category, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, input CategoryInput) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error
	GetCategory(ctx context.Context, id uuid.UUID) (*domain.Category, error)
	ListCategories(ctx context.Context) ([]*domain.Category, error)
}

type catalogService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	discountRepo repository.DiscountRepository
	now          func() time.Time
}

// NewCatalogService creates a new instance of CatalogService
func NewCatalogService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	discountRepo repository.DiscountRepository,
) CatalogService {
	return &catalogService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		discountRepo: discountRepo,
		now:          time.Now,
	}
}

func (s *catalogService) CreateProduct(ctx context.Context, input ProductInput) (*domain.Product, error) {
	if err := s.validateProductInput(input); err != nil {
		return nil, err
	}

	if _, err := s.categoryRepo.FindByID(ctx, input.CategoryID); err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, ErrCategoryMissing
		}
		return nil, fmt.Errorf("failed to check category: %w", err)
	}

	product := &domain.Product{
		ID:            uuid.New(),
		Name:          input.Name,
		Description:   input.Description,
		Price:         input.Price.Round(2),
		StockQuantity: input.StockQuantity,
		CategoryID:    input.CategoryID,
		Status:        input.Status,
		ImageURL:      input.ImageURL,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}

	return product, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) (*domain.Product, error) {
	if err := s.validateProductInput(input); err != nil {
		return nil, err
	}

	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if product.CategoryID != input.CategoryID {
		if _, err := s.categoryRepo.FindByID(ctx, input.CategoryID); err != nil {
			if errors.Is(err, repository.ErrCategoryNotFound) {
				return nil, ErrCategoryMissing
			}
			return nil, fmt.Errorf("failed to check category: %w", err)
		}
	}

	product.Name = input.Name
	product.Description = input.Description
	product.Price = input.Price.Round(2)
	product.StockQuantity = input.StockQuantity
	product.CategoryID = input.CategoryID
	product.Status = input.Status
	product.ImageURL = input.ImageURL
	product.UpdatedAt = time.Now()

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}

	return product, nil
}

func (s *catalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return s.productRepo.Delete(ctx, id)
}

func (s *catalogService) GetProduct(ctx context.Context, id uuid.UUID) (*PricedProduct, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	priced, err := s.priceProducts(ctx, []*domain.Product{product})
	if err != nil {
		return nil, err
	}

	return &priced[0], nil
}

func (s *catalogService) ListProducts(ctx context.Context, categoryID *uuid.UUID, page, pageSize int, sortBy string, sortOrder repository.SortOrder) (*ProductPage, error) {
	page, pageSize = normalizePage(page, pageSize)

	products, total, err := s.productRepo.List(ctx, categoryID, page, pageSize, sortBy, sortOrder)
	if err != nil {
		return nil, err
	}

	priced, err := s.priceProducts(ctx, products)
	if err != nil {
		return nil, err
	}

	return &ProductPage{
		Products:   priced,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + pageSize - 1) / pageSize,
	}, nil
}

func (s *catalogService) SearchProducts(ctx context.Context, query string, page, pageSize int) (*ProductPage, error) {
	page, pageSize = normalizePage(page, pageSize)

	products, total, err := s.productRepo.Search(ctx, query, page, pageSize)
	if err != nil {
		return nil, err
	}

	priced, err := s.priceProducts(ctx, products)
	if err != nil {
		return nil, err
	}

	return &ProductPage{
		Products:   priced,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + pageSize - 1) / pageSize,
	}, nil
}

// priceProducts resolves the effective discount for each product in one
// batched lookup.
func (s *catalogService) priceProducts(ctx context.Context, products []*domain.Product) ([]PricedProduct, error) {
	productIDs := make([]uuid.UUID, 0, len(products))
	categoryIDs := make([]uuid.UUID, 0, len(products))
	for _, p := range products {
		productIDs = append(productIDs, p.ID)
		categoryIDs = append(categoryIDs, p.CategoryID)
	}

	discounts, err := s.discountRepo.FindForProducts(ctx, productIDs, categoryIDs)
	if err != nil {
		return nil, err
	}

	idx := domain.NewDiscountIndex(discounts)
	now := s.now()

	priced := make([]PricedProduct, 0, len(products))
	for _, p := range products {
		pp := PricedProduct{Product: p}
		if d := idx.Resolve(p, now); d != nil {
			discounted := d.Apply(p.Price)
			pp.DiscountedPrice = &discounted
			pp.DiscountName = d.Name
		}
		priced = append(priced, pp)
	}

	return priced, nil
}

func (s *catalogService) CreateCategory(ctx context.Context, input CategoryInput) (*domain.Category, error) {
	if input.ParentCategoryID != nil {
		if _, err := s.categoryRepo.FindByID(ctx, *input.ParentCategoryID); err != nil {
			if errors.Is(err, repository.ErrCategoryNotFound) {
				return nil, ErrCategoryMissing
			}
			return nil, fmt.Errorf("failed to check parent category: %w", err)
		}
	}

	category := &domain.Category{
		ID:               uuid.New(),
		Name:             input.Name,
		Description:      input.Description,
		ParentCategoryID: input.ParentCategoryID,
		CreatedAt:        time.Now(),
	}

	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}

	return category, nil
}

func (s *catalogService) UpdateCategory(ctx context.Context, id uuid.UUID, input CategoryInput) (*domain.Category, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.ParentCategoryID != nil {
		if *input.ParentCategoryID == id {
			return nil, ErrCategoryMissing
		}
		if _, err := s.categoryRepo.FindByID(ctx, *input.ParentCategoryID); err != nil {
			if errors.Is(err, repository.ErrCategoryNotFound) {
				return nil, ErrCategoryMissing
			}
			return nil, fmt.Errorf("failed to check parent category: %w", err)
		}
	}

	category.Name = input.Name
	category.Description = input.Description
	category.ParentCategoryID = input.ParentCategoryID

	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return nil, err
	}

	return category, nil
}

func (s *catalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	// Refuse to orphan products.
	_, total, err := s.productRepo.List(ctx, &id, 1, 1, "created_at", repository.SortOrderDesc)
	if err != nil {
		return err
	}
	if total > 0 {
		return ErrCategoryInUse
	}

	return s.categoryRepo.Delete(ctx, id)
}

func (s *catalogService) GetCategory(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	return s.categoryRepo.FindByID(ctx, id)
}

func (s *catalogService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	return s.categoryRepo.List(ctx)
}

func (s *catalogService) validateProductInput(input ProductInput) error {
	if !input.Price.IsPositive() {
		return ErrInvalidPrice
	}
	if input.StockQuantity < 0 {
		return ErrNegativeStock
	}
	return nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
