package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ashnest/internal/domain"
	"ashnest/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrCouponPercentage = errors.New("discount percentage must be between 1 and 100")

// CouponInput carries the writable coupon fields.
type CouponInput struct {
	Code               string
	DiscountPercentage decimal.Decimal
	ExpiryDate         time.Time
	IsActive           bool
	UsageLimit         *int
	MinimumOrderAmount *decimal.Decimal
}

// CouponValidation is the outcome of validating a coupon against an order
// amount. A business-invalid coupon is a normal result, not an error.
type CouponValidation struct {
	IsValid            bool            `json:"isValid"`
	Message            string          `json:"message"`
	DiscountPercentage decimal.Decimal `json:"discountPercentage"`
	DiscountAmount     decimal.Decimal `json:"discountAmount"`
}

// CouponService defines the interface for coupon business logic. Validate
// never mutates usage counts; recording happens inside the checkout
// transaction.
type CouponService interface {
	Create(ctx context.Context, input CouponInput) (*domain.Coupon, error)
	Update(ctx context.Context, id uuid.UUID, input CouponInput) (*domain.Coupon, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Coupon, error)
	List(ctx context.Context, activeOnly bool) ([]*domain.Coupon, error)
	Validate(ctx context.Context, code string, orderAmount decimal.Decimal) (*CouponValidation, error)
}

type couponService struct {
	couponRepo repository.CouponRepository
	now        func() time.Time
}

// NewCouponService creates a new instance of CouponService
func NewCouponService(couponRepo repository.CouponRepository) CouponService {
	return &couponService{
		couponRepo: couponRepo,
		now:        time.Now,
	}
}

func (s *couponService) Create(ctx context.Context, input CouponInput) (*domain.Coupon, error) {
	if err := validateCouponInput(input); err != nil {
		return nil, err
	}

	coupon := &domain.Coupon{
		ID:                 uuid.New(),
		Code:               strings.TrimSpace(input.Code),
		DiscountPercentage: input.DiscountPercentage,
		ExpiryDate:         input.ExpiryDate,
		IsActive:           input.IsActive,
		UsageLimit:         input.UsageLimit,
		UsedCount:          0,
		MinimumOrderAmount: input.MinimumOrderAmount,
		CreatedAt:          time.Now(),
	}

	if err := s.couponRepo.Create(ctx, coupon); err != nil {
		return nil, err
	}

	return coupon, nil
}

func (s *couponService) Update(ctx context.Context, id uuid.UUID, input CouponInput) (*domain.Coupon, error) {
	if err := validateCouponInput(input); err != nil {
		return nil, err
	}

	coupon, err := s.couponRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	coupon.Code = strings.TrimSpace(input.Code)
	coupon.DiscountPercentage = input.DiscountPercentage
	coupon.ExpiryDate = input.ExpiryDate
	coupon.IsActive = input.IsActive
	coupon.UsageLimit = input.UsageLimit
	coupon.MinimumOrderAmount = input.MinimumOrderAmount

	if err := s.couponRepo.Update(ctx, coupon); err != nil {
		return nil, err
	}

	return coupon, nil
}

func (s *couponService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.couponRepo.Delete(ctx, id)
}

func (s *couponService) Get(ctx context.Context, id uuid.UUID) (*domain.Coupon, error) {
	return s.couponRepo.FindByID(ctx, id)
}

func (s *couponService) List(ctx context.Context, activeOnly bool) ([]*domain.Coupon, error) {
	return s.couponRepo.List(ctx, activeOnly)
}

// Validate runs the coupon checks in order, stopping at the first failure.
// An unknown or inactive code, an expired coupon, an exhausted usage limit
// and an unmet minimum order amount each produce their own message.
func (s *couponService) Validate(ctx context.Context, code string, orderAmount decimal.Decimal) (*CouponValidation, error) {
	coupon, err := s.couponRepo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrCouponNotFound) {
			return invalidCoupon("Invalid coupon code"), nil
		}
		return nil, fmt.Errorf("failed to look up coupon: %w", err)
	}

	return validateCoupon(coupon, orderAmount, s.now()), nil
}

// validateCoupon is the shared check sequence, also run inside the
// checkout transaction against a locked coupon row.
func validateCoupon(coupon *domain.Coupon, orderAmount decimal.Decimal, now time.Time) *CouponValidation {
	if !coupon.IsActive {
		return invalidCoupon("Invalid coupon code")
	}

	if coupon.ExpiredAt(now) {
		return invalidCoupon("Coupon has expired")
	}

	if coupon.Exhausted() {
		return invalidCoupon("Coupon usage limit reached")
	}

	if coupon.MinimumOrderAmount != nil && orderAmount.LessThan(*coupon.MinimumOrderAmount) {
		return invalidCoupon(fmt.Sprintf("Minimum order amount of %s required", coupon.MinimumOrderAmount.StringFixed(2)))
	}

	return &CouponValidation{
		IsValid:            true,
		Message:            "Coupon applied successfully",
		DiscountPercentage: coupon.DiscountPercentage,
		DiscountAmount:     coupon.DiscountFor(orderAmount),
	}
}

func invalidCoupon(message string) *CouponValidation {
	return &CouponValidation{
		IsValid:            false,
		Message:            message,
		DiscountPercentage: decimal.Zero,
		DiscountAmount:     decimal.Zero,
	}
}

func validateCouponInput(input CouponInput) error {
	one := decimal.NewFromInt(1)
	hundred := decimal.NewFromInt(100)
	if input.DiscountPercentage.LessThan(one) || input.DiscountPercentage.GreaterThan(hundred) {
		return ErrCouponPercentage
	}
	return nil
}
