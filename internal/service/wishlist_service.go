package service

import (
	"context"
	"errors"
	"time"

	"ashnest/internal/domain"
	"ashnest/internal/repository"

	"github.com/google/uuid"
)

// WishlistService defines the interface for wishlist business logic
type WishlistService interface {
	Add(ctx context.Context, userID, productID uuid.UUID) (*domain.WishlistItem, error)
	Remove(ctx context.Context, userID, productID uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID) ([]repository.WishlistEntry, error)
	MoveToCart(ctx context.Context, userID, productID uuid.UUID) (*CartView, error)
}

type wishlistService struct {
	wishlistRepo repository.WishlistRepository
	productRepo  repository.ProductRepository
	cartService  CartService
}

// NewWishlistService creates a new instance of WishlistService
func NewWishlistService(
	wishlistRepo repository.WishlistRepository,
	productRepo repository.ProductRepository,
	cartService CartService,
) WishlistService {
	return &wishlistService{
		wishlistRepo: wishlistRepo,
		productRepo:  productRepo,
		cartService:  cartService,
	}
}

func (s *wishlistService) Add(ctx context.Context, userID, productID uuid.UUID) (*domain.WishlistItem, error) {
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return nil, err
	}

	item := &domain.WishlistItem{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: productID,
		CreatedAt: time.Now(),
	}

	if err := s.wishlistRepo.Add(ctx, item); err != nil {
		return nil, err
	}

	return item, nil
}

func (s *wishlistService) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	return s.wishlistRepo.Remove(ctx, userID, productID)
}

func (s *wishlistService) List(ctx context.Context, userID uuid.UUID) ([]repository.WishlistEntry, error) {
	return s.wishlistRepo.ListForUser(ctx, userID)
}

// MoveToCart adds one unit of the wished product to the cart and removes
// the wishlist entry. The wishlist entry stays if the cart rejects the
// product.
func (s *wishlistService) MoveToCart(ctx context.Context, userID, productID uuid.UUID) (*CartView, error) {
	contains, err := s.wishlistRepo.Contains(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	if !contains {
		return nil, repository.ErrWishlistItemNotFound
	}

	view, err := s.cartService.AddItem(ctx, userID, productID, 1)
	if err != nil {
		return nil, err
	}

	if err := s.wishlistRepo.Remove(ctx, userID, productID); err != nil {
		if !errors.Is(err, repository.ErrWishlistItemNotFound) {
			return nil, err
		}
	}

	return view, nil
}
