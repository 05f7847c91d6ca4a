package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ashnest/internal/domain"
	"ashnest/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Checkout and lifecycle rejections, worded exactly as shown to shoppers.
var (
	ErrCartEmpty              = errors.New("Cart is empty")
	ErrCheckoutAddress        = errors.New("Address not found")
	ErrPaymentMethod          = errors.New("Invalid payment method")
	ErrStockShort             = errors.New("Insufficient stock")
	ErrOnlyPendingCancellable = errors.New("Only pending orders can be cancelled")
)

// PlaceholderProductName substitutes for products deleted after the order
// was placed. Order history must render even when the catalog moved on.
const PlaceholderProductName = "Unavailable Product"

// CouponRejectedError aborts a checkout with the coupon validator's message.
type CouponRejectedError struct {
	Message string
}

func (e *CouponRejectedError) Error() string {
	return e.Message
}

// CheckoutInput is a checkout request for the authenticated user's cart.
type CheckoutInput struct {
	AddressID     uuid.UUID
	PaymentMethod string
	CouponCode    string
	ShippingNotes string
}

// OrderService defines the interface for order business logic
type OrderService interface {
	Checkout(ctx context.Context, userID uuid.UUID, input CheckoutInput) (*domain.OrderDetail, error)
	Cancel(ctx context.Context, userID, orderID uuid.UUID) error
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status string) (*domain.Order, error)
	Get(ctx context.Context, orderID uuid.UUID, userID *uuid.UUID) (*domain.OrderDetail, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error)
	ListAll(ctx context.Context, status string, page, pageSize int) ([]*domain.Order, int, error)
}

type orderService struct {
	checkoutRepo repository.CheckoutRepository
	orderRepo    repository.OrderRepository
	logger       *zap.Logger
	now          func() time.Time
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(
	checkoutRepo repository.CheckoutRepository,
	orderRepo repository.OrderRepository,
	logger *zap.Logger,
) OrderService {
	return &orderService{
		checkoutRepo: checkoutRepo,
		orderRepo:    orderRepo,
		logger:       logger,
		now:          time.Now,
	}
}

// Checkout turns the user's cart into an order. Pricing, coupon validation,
// the order insert, stock decrements, coupon usage recording and the cart
// clear all run inside one transaction; any rejection leaves every table
// untouched.
func (s *orderService) Checkout(ctx context.Context, userID uuid.UUID, input CheckoutInput) (*domain.OrderDetail, error) {
	paymentMethod, err := domain.ParsePaymentMethod(input.PaymentMethod)
	if err != nil {
		return nil, ErrPaymentMethod
	}

	var orderID uuid.UUID

	err = s.checkoutRepo.WithinTx(ctx, func(tx repository.CheckoutTx) error {
		cartID, lines, err := tx.CartForUser(ctx, userID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return ErrCartEmpty
		}

		owned, err := tx.AddressBelongsTo(ctx, input.AddressID, userID)
		if err != nil {
			return err
		}
		if !owned {
			return ErrCheckoutAddress
		}

		productIDs := make([]uuid.UUID, 0, len(lines))
		categoryIDs := make([]uuid.UUID, 0, len(lines))
		for _, l := range lines {
			productIDs = append(productIDs, l.Product.ID)
			categoryIDs = append(categoryIDs, l.Product.CategoryID)
		}

		discounts, err := tx.DiscountsFor(ctx, productIDs, categoryIDs)
		if err != nil {
			return err
		}

		now := s.now()
		valuation := domain.ValuateCart(lines, domain.NewDiscountIndex(discounts), now)

		order := &domain.Order{
			ID:                    uuid.New(),
			UserID:                userID,
			AddressID:             input.AddressID,
			OrderNumber:           domain.NewOrderNumber(),
			OrderTotal:            valuation.TotalAmount,
			ProductDiscountAmount: valuation.ProductDiscountAmount,
			FinalAmount:           valuation.TotalAmount,
			Status:                domain.OrderPending,
			PaymentMethod:         paymentMethod,
			OrderDate:             now,
		}
		if input.ShippingNotes != "" {
			notes := input.ShippingNotes
			order.ShippingNotes = &notes
		}

		var coupon *domain.Coupon
		if input.CouponCode != "" {
			coupon, err = tx.CouponByCode(ctx, input.CouponCode)
			if err != nil {
				if errors.Is(err, repository.ErrCouponNotFound) {
					return &CouponRejectedError{Message: "Invalid coupon code"}
				}
				return err
			}

			validation := validateCoupon(coupon, valuation.TotalAmount, now)
			if !validation.IsValid {
				return &CouponRejectedError{Message: validation.Message}
			}

			order.CouponCode = &coupon.Code
			pct := validation.DiscountPercentage
			amount := validation.DiscountAmount
			order.CouponDiscountPercentage = &pct
			order.CouponDiscountAmount = &amount
			order.FinalAmount = valuation.TotalAmount.Sub(amount)
		}

		items := make([]domain.OrderItem, 0, len(valuation.Lines))
		for _, line := range valuation.Lines {
			items = append(items, domain.OrderItem{
				ID:                  uuid.New(),
				OrderID:             order.ID,
				ProductID:           line.Product.ID,
				Quantity:            line.Item.Quantity,
				UnitPrice:           line.UnitPrice,
				DiscountedUnitPrice: line.DiscountedUnitPrice,
			})
		}

		if err := tx.CreateOrder(ctx, order, items); err != nil {
			return err
		}

		for _, line := range valuation.Lines {
			if err := tx.DecrementStock(ctx, line.Product.ID, line.Item.Quantity); err != nil {
				if errors.Is(err, repository.ErrInsufficientStock) {
					return ErrStockShort
				}
				return err
			}
		}

		if coupon != nil {
			if err := tx.IncrementCouponUsage(ctx, coupon.ID); err != nil {
				if errors.Is(err, repository.ErrCouponExhausted) {
					return &CouponRejectedError{Message: "Coupon usage limit reached"}
				}
				return err
			}
		}

		if err := tx.ClearCart(ctx, cartID); err != nil {
			return err
		}

		orderID = order.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order placed",
		zap.String("order_id", orderID.String()),
		zap.String("user_id", userID.String()),
	)

	return s.Get(ctx, orderID, &userID)
}

// Cancel aborts a Pending order on the owner's request and puts the
// reserved stock back. Lock, check, restore and status write share one
// transaction so the restore happens exactly once.
func (s *orderService) Cancel(ctx context.Context, userID, orderID uuid.UUID) error {
	err := s.checkoutRepo.WithinTx(ctx, func(tx repository.CheckoutTx) error {
		order, err := tx.OrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order.UserID != userID {
			return repository.ErrOrderNotFound
		}
		if order.Status != domain.OrderPending {
			return ErrOnlyPendingCancellable
		}

		items, err := tx.OrderItems(ctx, orderID)
		if err != nil {
			return err
		}
		for _, item := range items {
			if err := tx.RestoreStock(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		order.Status = domain.OrderCancelled
		return tx.SetOrderStatus(ctx, order)
	})
	if err != nil {
		return err
	}

	s.logger.Info("order cancelled",
		zap.String("order_id", orderID.String()),
		zap.String("user_id", userID.String()),
	)

	return nil
}

// UpdateStatus moves an order along its lifecycle. Shipped stamps the
// shipped date, Delivered the delivered date.
func (s *orderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, status string) (*domain.Order, error) {
	next, err := domain.ParseOrderStatus(status)
	if err != nil {
		return nil, err
	}

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !order.Status.CanTransition(next) {
		return nil, fmt.Errorf("%w: %s to %s", domain.ErrIllegalTransition, order.Status, next)
	}

	now := s.now()
	order.Status = next
	switch next {
	case domain.OrderShipped:
		order.ShippedDate = &now
	case domain.OrderDelivered:
		order.DeliveredDate = &now
	}

	if err := s.orderRepo.UpdateStatus(ctx, order); err != nil {
		return nil, err
	}

	return order, nil
}

// Get loads the order projection. Items whose product has been removed
// come back with a placeholder name instead of failing the read.
func (s *orderService) Get(ctx context.Context, orderID uuid.UUID, userID *uuid.UUID) (*domain.OrderDetail, error) {
	detail, err := s.orderRepo.FindDetail(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}

	for i := range detail.Items {
		if detail.Items[i].ProductName == "" {
			detail.Items[i].ProductName = PlaceholderProductName
		}
	}

	return detail, nil
}

func (s *orderService) ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	return s.orderRepo.ListForUser(ctx, userID)
}

func (s *orderService) ListAll(ctx context.Context, status string, page, pageSize int) ([]*domain.Order, int, error) {
	page, pageSize = normalizePage(page, pageSize)

	var filter *domain.OrderStatus
	if status != "" {
		parsed, err := domain.ParseOrderStatus(status)
		if err != nil {
			return nil, 0, err
		}
		filter = &parsed
	}

	return s.orderRepo.ListAll(ctx, filter, page, pageSize)
}
