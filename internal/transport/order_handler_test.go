package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"ashnest/internal/domain"
	"ashnest/internal/middleware"
	"ashnest/internal/service"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type stubOrderService struct {
	checkoutErr error
}

func (s *stubOrderService) Checkout(ctx context.Context, userID uuid.UUID, input service.CheckoutInput) (*domain.OrderDetail, error) {
	return nil, s.checkoutErr
}

func (s *stubOrderService) Cancel(ctx context.Context, userID, orderID uuid.UUID) error {
	return nil
}

func (s *stubOrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, status string) (*domain.Order, error) {
	return nil, nil
}

func (s *stubOrderService) Get(ctx context.Context, orderID uuid.UUID, userID *uuid.UUID) (*domain.OrderDetail, error) {
	return nil, nil
}

func (s *stubOrderService) ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	return nil, nil
}

func (s *stubOrderService) ListAll(ctx context.Context, status string, page, pageSize int) ([]*domain.Order, int, error) {
	return nil, 0, nil
}

func checkoutWith(t *testing.T, svcErr error) *httptest.ResponseRecorder {
	t.Helper()

	handler := NewOrderHandler(&stubOrderService{checkoutErr: svcErr}, zap.NewNop())

	body, err := json.Marshal(map[string]string{
		"address_id":     uuid.New().String(),
		"payment_method": "cash_on_delivery",
	})
	if err != nil {
		t.Fatalf("failed to marshal checkout body: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	ctx := context.WithValue(req.Context(), middleware.UserIDKey, uuid.New())
	ctx = context.WithValue(ctx, middleware.UserRoleKey, domain.RoleCustomer)

	rec := httptest.NewRecorder()
	handler.Checkout(rec, req.WithContext(ctx))
	return rec
}

func TestCheckout_PreconditionFailuresReturn400(t *testing.T) {
	tests := []struct {
		name        string
		svcErr      error
		wantMessage string
	}{
		{"empty cart", service.ErrCartEmpty, "Cart is empty"},
		{"foreign address", service.ErrCheckoutAddress, "Address not found"},
		{"unknown payment method", service.ErrPaymentMethod, "Invalid payment method"},
		{"stock shortfall", service.ErrStockShort, "Insufficient stock"},
		{"rejected coupon", &service.CouponRejectedError{Message: "Coupon has expired"}, "Coupon has expired"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := checkoutWith(t, tt.svcErr)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d", rec.Code)
			}

			var body struct {
				Error struct {
					Message string `json:"message"`
				} `json:"error"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode error body: %v", err)
			}
			if body.Error.Message != tt.wantMessage {
				t.Errorf("expected message %q, got %q", tt.wantMessage, body.Error.Message)
			}
		})
	}
}

func TestCheckout_InternalErrorReturns500(t *testing.T) {
	rec := checkoutWith(t, fmt.Errorf("begin tx: connection refused"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
}
