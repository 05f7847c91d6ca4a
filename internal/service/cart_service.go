package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ashnest/internal/domain"
	"ashnest/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrProductUnavailable = errors.New("Product not found or not available")
	ErrCartCorrupted      = errors.New("cart references a missing product")
)

// InsufficientStockError carries the available quantity so the message can
// tell the shopper how many units are left.
type InsufficientStockError struct {
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Insufficient stock. Only %d available.", e.Available)
}

// CartView is the valuated cart returned by every cart operation.
type CartView struct {
	CartID    uuid.UUID
	Valuation domain.CartValuation
}

// CartService defines the interface for shopping cart business logic. Every
// mutation returns the full valuated cart so clients always see current
// discounted prices.
type CartService interface {
	Get(ctx context.Context, userID uuid.UUID) (*CartView, error)
	AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*CartView, error)
	UpdateItemQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*CartView, error)
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*CartView, error)
	Clear(ctx context.Context, userID uuid.UUID) (*CartView, error)
}

type cartService struct {
	cartRepo     repository.CartRepository
	productRepo  repository.ProductRepository
	discountRepo repository.DiscountRepository
	now          func() time.Time
}

// NewCartService creates a new instance of CartService
func NewCartService(
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	discountRepo repository.DiscountRepository,
) CartService {
	return &cartService{
		cartRepo:     cartRepo,
		productRepo:  productRepo,
		discountRepo: discountRepo,
		now:          time.Now,
	}
}

func (s *cartService) Get(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	cart, err := s.cartRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, cart.ID)
}

// AddItem puts quantity units of a product in the cart, merging with an
// existing line. The product must be active and the resulting line quantity
// must not exceed current stock.
func (s *cartService) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*CartView, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("quantity must be at least 1")
	}

	product, err := s.productRepo.FindActiveByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductUnavailable
		}
		return nil, err
	}

	cart, err := s.cartRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	existing := 0
	lines, err := s.cartRepo.Lines(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	for _, l := range lines {
		if l.Item.ProductID == productID {
			existing = l.Item.Quantity
			break
		}
	}

	if existing+quantity > product.StockQuantity {
		return nil, &InsufficientStockError{Available: product.StockQuantity}
	}

	if err := s.cartRepo.UpsertItem(ctx, cart.ID, productID, quantity); err != nil {
		return nil, err
	}

	return s.view(ctx, cart.ID)
}

// UpdateItemQuantity sets a line's quantity. Zero removes the line.
func (s *cartService) UpdateItemQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*CartView, error) {
	if quantity < 0 {
		return nil, fmt.Errorf("quantity cannot be negative")
	}

	cart, err := s.cartRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	if quantity == 0 {
		if err := s.cartRepo.RemoveItem(ctx, cart.ID, productID); err != nil {
			return nil, err
		}
		return s.view(ctx, cart.ID)
	}

	product, err := s.productRepo.FindActiveByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductUnavailable
		}
		return nil, err
	}

	if quantity > product.StockQuantity {
		return nil, &InsufficientStockError{Available: product.StockQuantity}
	}

	if err := s.cartRepo.SetItemQuantity(ctx, cart.ID, productID, quantity); err != nil {
		return nil, err
	}

	return s.view(ctx, cart.ID)
}

func (s *cartService) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*CartView, error) {
	cart, err := s.cartRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.cartRepo.RemoveItem(ctx, cart.ID, productID); err != nil {
		return nil, err
	}

	return s.view(ctx, cart.ID)
}

func (s *cartService) Clear(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	cart, err := s.cartRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.cartRepo.Clear(ctx, cart.ID); err != nil {
		return nil, err
	}

	return s.view(ctx, cart.ID)
}

// view loads and prices the cart. A line whose product has been deleted is
// a data integrity fault, not a business condition.
func (s *cartService) view(ctx context.Context, cartID uuid.UUID) (*CartView, error) {
	lines, err := s.cartRepo.Lines(ctx, cartID)
	if err != nil {
		return nil, err
	}

	productIDs := make([]uuid.UUID, 0, len(lines))
	categoryIDs := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		if l.Product == nil {
			return nil, ErrCartCorrupted
		}
		productIDs = append(productIDs, l.Product.ID)
		categoryIDs = append(categoryIDs, l.Product.CategoryID)
	}

	discounts, err := s.discountRepo.FindForProducts(ctx, productIDs, categoryIDs)
	if err != nil {
		return nil, err
	}

	idx := domain.NewDiscountIndex(discounts)
	valuation := domain.ValuateCart(lines, idx, s.now())

	return &CartView{CartID: cartID, Valuation: valuation}, nil
}
