package transport

import (
	"errors"
	"net/http"
	"time"

	"ashnest/internal/domain"
	"ashnest/internal/middleware"
	"ashnest/internal/repository"
	"ashnest/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AddWishlistItemRequest represents the add-to-wishlist payload
type AddWishlistItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
}

// WishlistEntryResponse pairs a wishlist item with its product. Product is
// null when the product has since been removed from the catalog.
type WishlistEntryResponse struct {
	ProductID uuid.UUID       `json:"product_id"`
	AddedAt   time.Time       `json:"added_at"`
	Product   *domain.Product `json:"product"`
}

// WishlistHandler handles HTTP requests for the user's wishlist
type WishlistHandler struct {
	wishlistService service.WishlistService
	logger          *zap.Logger
}

// NewWishlistHandler creates a new WishlistHandler
func NewWishlistHandler(wishlistService service.WishlistService, logger *zap.Logger) *WishlistHandler {
	return &WishlistHandler{
		wishlistService: wishlistService,
		logger:          logger,
	}
}

// RegisterRoutes registers all wishlist routes. The wishlist is always the
// authenticated user's own.
func (h *WishlistHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/wishlist", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.List)
		r.Post("/", h.Add)
		r.Delete("/{productID}", h.Remove)
		r.Post("/{productID}/move-to-cart", h.MoveToCart)
	})
}

// List returns the caller's wishlist
func (h *WishlistHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	entries, err := h.wishlistService.List(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list wishlist", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list wishlist")
		return
	}

	resp := make([]WishlistEntryResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, WishlistEntryResponse{
			ProductID: entry.Item.ProductID,
			AddedAt:   entry.Item.CreatedAt,
			Product:   entry.Product,
		})
	}

	middleware.RespondWithJSON(w, http.StatusOK, resp)
}

// Add puts a product on the caller's wishlist
func (h *WishlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req AddWishlistItemRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.wishlistService.Add(r.Context(), userID, req.ProductID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrProductNotFound), errors.Is(err, service.ErrProductUnavailable):
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
		case errors.Is(err, repository.ErrAlreadyInWishlist):
			middleware.RespondWithError(w, http.StatusConflict, err.Error())
		default:
			h.logger.Error("Failed to add wishlist item", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to add wishlist item")
		}
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, item)
}

// Remove takes a product off the caller's wishlist
func (h *WishlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
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

	if err := h.wishlistService.Remove(r.Context(), userID, productID); err != nil {
		if errors.Is(err, repository.ErrWishlistItemNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "wishlist item not found")
			return
		}

		h.logger.Error("Failed to remove wishlist item", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to remove wishlist item")
		return
	}

	middleware.RespondWithMessage(w, http.StatusOK, "wishlist item removed")
}

// MoveToCart moves a wishlisted product into the cart with quantity one
func (h *WishlistHandler) MoveToCart(w http.ResponseWriter, r *http.Request) {
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

	view, err := h.wishlistService.MoveToCart(r.Context(), userID, productID)
	if err != nil {
		var stockErr *service.InsufficientStockError
		switch {
		case errors.Is(err, repository.ErrWishlistItemNotFound):
			middleware.RespondWithError(w, http.StatusNotFound, "wishlist item not found")
		case errors.Is(err, service.ErrProductUnavailable):
			middleware.RespondWithError(w, http.StatusNotFound, err.Error())
		case errors.As(err, &stockErr):
			middleware.RespondWithError(w, http.StatusBadRequest, stockErr.Error())
		default:
			h.logger.Error("Failed to move wishlist item to cart", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to move item to cart")
		}
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, toCartResponse(view))
}
