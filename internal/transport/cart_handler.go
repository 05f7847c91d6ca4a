package transport

import (
	"errors"
	"net/http"

	"ashnest/internal/middleware"
	"ashnest/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AddCartItemRequest represents the add-to-cart payload
type AddCartItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

// UpdateCartItemRequest represents the quantity update payload.
// Quantity zero removes the line.
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

// CartLineResponse is one priced line of the cart
type CartLineResponse struct {
	ProductID           uuid.UUID        `json:"product_id"`
	ProductName         string           `json:"product_name"`
	ImageURL            string           `json:"image_url"`
	Quantity            int              `json:"quantity"`
	UnitPrice           decimal.Decimal  `json:"unit_price"`
	DiscountedUnitPrice *decimal.Decimal `json:"discounted_unit_price,omitempty"`
	DiscountName        string           `json:"discount_name,omitempty"`
	LineTotal           decimal.Decimal  `json:"line_total"`
}

// CartResponse is the fully valuated cart
type CartResponse struct {
	CartID                uuid.UUID          `json:"cart_id"`
	Items                 []CartLineResponse `json:"items"`
	TotalAmount           decimal.Decimal    `json:"total_amount"`
	ProductDiscountAmount decimal.Decimal    `json:"product_discount_amount"`
	TotalItems            int                `json:"total_items"`
}

func toCartResponse(view *service.CartView) CartResponse {
	resp := CartResponse{
		CartID:                view.CartID,
		Items:                 make([]CartLineResponse, 0, len(view.Valuation.Lines)),
		TotalAmount:           view.Valuation.TotalAmount,
		ProductDiscountAmount: view.Valuation.ProductDiscountAmount,
		TotalItems:            view.Valuation.TotalItems,
	}
	for _, line := range view.Valuation.Lines {
		item := CartLineResponse{
			ProductID:           line.Product.ID,
			ProductName:         line.Product.Name,
			ImageURL:            line.Product.ImageURL,
			Quantity:            line.Item.Quantity,
			UnitPrice:           line.UnitPrice,
			DiscountedUnitPrice: line.DiscountedUnitPrice,
			LineTotal:           line.LineTotal,
		}
		if line.Discount != nil {
			item.DiscountName = line.Discount.Name
		}
		resp.Items = append(resp.Items, item)
	}
	return resp
}

// CartHandler handles HTTP requests for the shopping cart
type CartHandler struct {
	cartService service.CartService
	logger      *zap.Logger
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(cartService service.CartService, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		logger:      logger,
	}
}

// RegisterRoutes registers all cart routes. The cart is always the
// authenticated user's own.
func (h *CartHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/cart", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.Get)
		r.Post("/items", h.AddItem)
		r.Put("/items/{productID}", h.UpdateItem)
		r.Delete("/items/{productID}", h.RemoveItem)
		r.Delete("/", h.Clear)
	})
}

// Get returns the caller's valuated cart
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	view, err := h.cartService.Get(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to get cart", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to get cart")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, toCartResponse(view))
}

// AddItem adds a product to the caller's cart, merging with any existing line
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req AddCartItemRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := h.cartService.AddItem(r.Context(), userID, req.ProductID, req.Quantity)
	if err != nil {
		h.respondCartError(w, err, "failed to add item to cart")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, toCartResponse(view))
}

// UpdateItem sets the quantity of a cart line
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	productID, err := pathID(r, "productID")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var req UpdateCartItemRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := h.cartService.UpdateItemQuantity(r.Context(), userID, productID, req.Quantity)
	if err != nil {
		h.respondCartError(w, err, "failed to update cart item")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, toCartResponse(view))
}

// RemoveItem deletes a cart line
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	productID, err := pathID(r, "productID")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	view, err := h.cartService.RemoveItem(r.Context(), userID, productID)
	if err != nil {
		h.respondCartError(w, err, "failed to remove cart item")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, toCartResponse(view))
}

// Clear empties the caller's cart
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	view, err := h.cartService.Clear(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to clear cart", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to clear cart")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, toCartResponse(view))
}

func (h *CartHandler) respondCartError(w http.ResponseWriter, err error, fallback string) {
	var stockErr *service.InsufficientStockError
	switch {
	case errors.Is(err, service.ErrProductUnavailable):
		middleware.RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &stockErr):
		middleware.RespondWithError(w, http.StatusBadRequest, stockErr.Error())
	default:
		h.logger.Error("Cart operation failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, fallback)
	}
}
