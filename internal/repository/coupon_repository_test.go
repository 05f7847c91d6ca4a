package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"ashnest/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestCouponRepository_FindByCodeMatchesExactly(t *testing.T) {
	repo := NewCouponRepository(testDB)
	ctx := context.Background()

	coupon := &domain.Coupon{
		ID:                 uuid.New(),
		Code:               "Welcome15",
		DiscountPercentage: decimal.RequireFromString("15"),
		ExpiryDate:         time.Now().Add(24 * time.Hour),
		IsActive:           true,
		CreatedAt:          time.Now(),
	}
	if err := repo.Create(ctx, coupon); err != nil {
		t.Fatalf("failed to create coupon: %v", err)
	}
	t.Cleanup(func() { testDB.Exec("DELETE FROM coupons WHERE id = $1", coupon.ID) })

	found, err := repo.FindByCode(ctx, "Welcome15")
	if err != nil {
		t.Fatalf("FindByCode failed: %v", err)
	}
	if found.ID != coupon.ID {
		t.Errorf("FindByCode returned wrong coupon")
	}

	for _, code := range []string{"WELCOME15", "welcome15", "NOSUCH"} {
		if _, err := repo.FindByCode(ctx, code); !errors.Is(err, ErrCouponNotFound) {
			t.Errorf("FindByCode(%q): codes match as stored, expected ErrCouponNotFound, got %v", code, err)
		}
	}
}

func TestCouponRepository_DuplicateCodeRejected(t *testing.T) {
	repo := NewCouponRepository(testDB)
	ctx := context.Background()

	coupon := &domain.Coupon{
		ID:                 uuid.New(),
		Code:               "ONCE",
		DiscountPercentage: decimal.RequireFromString("5"),
		ExpiryDate:         time.Now().Add(24 * time.Hour),
		IsActive:           true,
		CreatedAt:          time.Now(),
	}
	if err := repo.Create(ctx, coupon); err != nil {
		t.Fatalf("failed to create coupon: %v", err)
	}
	t.Cleanup(func() { testDB.Exec("DELETE FROM coupons WHERE id = $1", coupon.ID) })

	duplicate := *coupon
	duplicate.ID = uuid.New()
	if err := repo.Create(ctx, &duplicate); !errors.Is(err, ErrCouponAlreadyExists) {
		t.Errorf("expected ErrCouponAlreadyExists, got %v", err)
	}
}
