package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ashnest/internal/domain"
	"ashnest/internal/repository"
	"ashnest/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type mockCouponRepository struct {
	coupons map[string]*domain.Coupon
}

func newMockCouponRepository() *mockCouponRepository {
	return &mockCouponRepository{coupons: make(map[string]*domain.Coupon)}
}

func (m *mockCouponRepository) Create(ctx context.Context, coupon *domain.Coupon) error {
	m.coupons[coupon.Code] = coupon
	return nil
}

func (m *mockCouponRepository) Update(ctx context.Context, coupon *domain.Coupon) error {
	m.coupons[coupon.Code] = coupon
	return nil
}

func (m *mockCouponRepository) Delete(ctx context.Context, id uuid.UUID) error {
	for code, c := range m.coupons {
		if c.ID == id {
			delete(m.coupons, code)
			return nil
		}
	}
	return repository.ErrCouponNotFound
}

func (m *mockCouponRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Coupon, error) {
	for _, c := range m.coupons {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, repository.ErrCouponNotFound
}

func (m *mockCouponRepository) FindByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	if c, ok := m.coupons[code]; ok {
		return c, nil
	}
	return nil, repository.ErrCouponNotFound
}

func (m *mockCouponRepository) List(ctx context.Context, activeOnly bool) ([]*domain.Coupon, error) {
	out := make([]*domain.Coupon, 0, len(m.coupons))
	for _, c := range m.coupons {
		if activeOnly && !c.IsActive {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func TestValidateCoupon_VerdictAlwaysHTTP200(t *testing.T) {
	repo := newMockCouponRepository()
	minimum := decimal.RequireFromString("150.00")
	repo.coupons["SAVE10"] = &domain.Coupon{
		ID:                 uuid.New(),
		Code:               "SAVE10",
		DiscountPercentage: decimal.RequireFromString("10"),
		ExpiryDate:         time.Now().Add(24 * time.Hour),
		IsActive:           true,
		MinimumOrderAmount: &minimum,
	}
	handler := NewCouponHandler(service.NewCouponService(repo), zap.NewNop())

	cases := []struct {
		name        string
		code        string
		orderAmount string
		wantValid   bool
		wantMessage string
	}{
		{"unknown code", "NOPE", "200.00", false, "Invalid coupon code"},
		{"below minimum", "SAVE10", "100.00", false, "Minimum order amount of 150.00 required"},
		{"valid", "SAVE10", "160.00", true, "Coupon applied successfully"},
		{"wrong case", "save10", "160.00", false, "Invalid coupon code"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body, _ := json.Marshal(ValidateCouponRequest{
				Code:        tc.code,
				OrderAmount: decimal.RequireFromString(tc.orderAmount),
			})
			req := httptest.NewRequest(http.MethodPost, "/api/coupons/validate", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler.Validate(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", w.Code)
			}

			var result service.CouponValidation
			if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
				t.Fatalf("failed to decode validation result: %v", err)
			}

			if result.IsValid != tc.wantValid {
				t.Errorf("isValid: want %v, got %v", tc.wantValid, result.IsValid)
			}
			if result.Message != tc.wantMessage {
				t.Errorf("message: want %q, got %q", tc.wantMessage, result.Message)
			}
		})
	}
}

func TestValidateCoupon_DiscountAmountComputed(t *testing.T) {
	repo := newMockCouponRepository()
	repo.coupons["SAVE10"] = &domain.Coupon{
		ID:                 uuid.New(),
		Code:               "SAVE10",
		DiscountPercentage: decimal.RequireFromString("10"),
		ExpiryDate:         time.Now().Add(24 * time.Hour),
		IsActive:           true,
	}
	handler := NewCouponHandler(service.NewCouponService(repo), zap.NewNop())

	body, _ := json.Marshal(ValidateCouponRequest{
		Code:        "SAVE10",
		OrderAmount: decimal.RequireFromString("160.00"),
	})
	req := httptest.NewRequest(http.MethodPost, "/api/coupons/validate", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	handler.Validate(w, req)

	var result service.CouponValidation
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode validation result: %v", err)
	}

	if want := decimal.RequireFromString("16.00"); !result.DiscountAmount.Equal(want) {
		t.Errorf("discount amount: want %s, got %s", want, result.DiscountAmount)
	}
	if want := decimal.RequireFromString("10"); !result.DiscountPercentage.Equal(want) {
		t.Errorf("discount percentage: want %s, got %s", want, result.DiscountPercentage)
	}
}
