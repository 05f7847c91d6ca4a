package transport

import (
	"errors"
	"net/http"

	"ashnest/internal/domain"
	"ashnest/internal/middleware"
	"ashnest/internal/repository"
	"ashnest/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CheckoutRequest represents the checkout payload
type CheckoutRequest struct {
	AddressID     uuid.UUID `json:"address_id" validate:"required"`
	PaymentMethod string    `json:"payment_method" validate:"required"`
	CouponCode    string    `json:"coupon_code"`
	ShippingNotes string    `json:"shipping_notes"`
}

// UpdateOrderStatusRequest represents the admin status change payload
type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// OrderItemResponse is one immutable line of an order
type OrderItemResponse struct {
	ProductID           uuid.UUID        `json:"product_id"`
	ProductName         string           `json:"product_name"`
	ImageURL            string           `json:"image_url,omitempty"`
	Quantity            int              `json:"quantity"`
	UnitPrice           decimal.Decimal  `json:"unit_price"`
	DiscountedUnitPrice *decimal.Decimal `json:"discounted_unit_price,omitempty"`
	LineTotal           decimal.Decimal  `json:"line_total"`
}

// OrderDetailResponse is the full order read model
type OrderDetailResponse struct {
	domain.Order
	UserName string              `json:"user_name"`
	Address  domain.Address      `json:"address"`
	Items    []OrderItemResponse `json:"items"`
}

// OrderListResponse is one page of orders with paging metadata
type OrderListResponse struct {
	Orders []*domain.Order `json:"orders"`
	Total  int             `json:"total"`
}

func toOrderDetailResponse(detail *domain.OrderDetail) OrderDetailResponse {
	resp := OrderDetailResponse{
		Order:    detail.Order,
		UserName: detail.UserName,
		Address:  detail.Address,
		Items:    make([]OrderItemResponse, 0, len(detail.Items)),
	}
	for _, item := range detail.Items {
		resp.Items = append(resp.Items, OrderItemResponse{
			ProductID:           item.ProductID,
			ProductName:         item.ProductName,
			ImageURL:            item.ImageURL,
			Quantity:            item.Quantity,
			UnitPrice:           item.UnitPrice,
			DiscountedUnitPrice: item.DiscountedUnitPrice,
			LineTotal:           item.LineTotal(),
		})
	}
	return resp
}

// OrderHandler handles HTTP requests for checkout and orders
type OrderHandler struct {
	orderService service.OrderService
	logger       *zap.Logger
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		logger:       logger,
	}
}

// RegisterRoutes registers all order routes
func (h *OrderHandler) RegisterRoutes(r chi.Router, authMiddleware, adminMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/orders", func(r chi.Router) {
		r.Use(authMiddleware)

		r.Post("/", h.Checkout)
		r.Get("/", h.ListMine)
		r.Get("/{id}", h.Get)
		r.Post("/{id}/cancel", h.Cancel)

		r.Group(func(r chi.Router) {
			r.Use(adminMiddleware)
			r.Get("/all", h.ListAll)
			r.Put("/{id}/status", h.UpdateStatus)
		})
	})
}

// Checkout turns the caller's cart into an order
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CheckoutRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	detail, err := h.orderService.Checkout(r.Context(), userID, service.CheckoutInput{
		AddressID:     req.AddressID,
		PaymentMethod: req.PaymentMethod,
		CouponCode:    req.CouponCode,
		ShippingNotes: req.ShippingNotes,
	})
	if err != nil {
		var couponErr *service.CouponRejectedError
		switch {
		case errors.Is(err, service.ErrCartEmpty),
			errors.Is(err, service.ErrCheckoutAddress),
			errors.Is(err, service.ErrPaymentMethod),
			errors.Is(err, service.ErrStockShort):
			middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		case errors.As(err, &couponErr):
			middleware.RespondWithError(w, http.StatusBadRequest, couponErr.Message)
		default:
			h.logger.Error("Checkout failed", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to place order")
		}
		return
	}

	h.logger.Info("Order placed",
		zap.String("order_id", detail.Order.ID.String()),
		zap.String("order_number", detail.Order.OrderNumber),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, toOrderDetailResponse(detail))
}

// ListMine returns the caller's orders, newest first
func (h *OrderHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orders, err := h.orderService.ListForUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list orders", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, orders)
}

// Get returns one order. Admins can read any order; customers only their own.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orderID, err := pathID(r, "id")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	scope := &userID
	if role, _ := middleware.GetUserRole(r.Context()); role == domain.RoleAdmin {
		scope = nil
	}

	detail, err := h.orderService.Get(r.Context(), orderID, scope)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "order not found")
			return
		}

		h.logger.Error("Failed to get order", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to get order")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, toOrderDetailResponse(detail))
}

// Cancel cancels a pending order owned by the caller and restores stock
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orderID, err := pathID(r, "id")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	if err := h.orderService.Cancel(r.Context(), userID, orderID); err != nil {
		switch {
		case errors.Is(err, repository.ErrOrderNotFound):
			middleware.RespondWithError(w, http.StatusNotFound, "order not found")
		case errors.Is(err, service.ErrOnlyPendingCancellable):
			middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("Failed to cancel order", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to cancel order")
		}
		return
	}

	h.logger.Info("Order cancelled", zap.String("order_id", orderID.String()))
	middleware.RespondWithMessage(w, http.StatusOK, "order cancelled")
}

// ListAll returns a page of all orders, optionally filtered by status
func (h *OrderHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	page, pageSize := queryPage(r)

	orders, total, err := h.orderService.ListAll(r.Context(), r.URL.Query().Get("status"), page, pageSize)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidOrderStatus) {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid status")
			return
		}

		h.logger.Error("Failed to list all orders", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, OrderListResponse{Orders: orders, Total: total})
}

// UpdateStatus moves an order along its lifecycle
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathID(r, "id")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var req UpdateOrderStatusRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.orderService.UpdateStatus(r.Context(), orderID, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrOrderNotFound):
			middleware.RespondWithError(w, http.StatusNotFound, "order not found")
		case errors.Is(err, domain.ErrInvalidOrderStatus),
			errors.Is(err, domain.ErrIllegalTransition):
			middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("Failed to update order status", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update order status")
		}
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, order)
}
