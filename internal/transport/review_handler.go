package transport

import (
	"errors"
	"net/http"

	"ashnest/internal/domain"
	"ashnest/internal/middleware"
	"ashnest/internal/repository"
	"ashnest/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ReviewRequest represents the review create and update payload
type ReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment string `json:"comment"`
}

// ProductReviewsResponse is a product's review section
type ProductReviewsResponse struct {
	Reviews       []*domain.Review `json:"reviews"`
	AverageRating float64          `json:"average_rating"`
	ReviewCount   int              `json:"review_count"`
}

// ReviewHandler handles HTTP requests for product reviews
type ReviewHandler struct {
	reviewService service.ReviewService
	logger        *zap.Logger
}

// NewReviewHandler creates a new ReviewHandler
func NewReviewHandler(reviewService service.ReviewService, logger *zap.Logger) *ReviewHandler {
	return &ReviewHandler{
		reviewService: reviewService,
		logger:        logger,
	}
}

// RegisterRoutes registers all review routes. Reading is public; writing
// requires authentication and a prior purchase.
func (h *ReviewHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Get("/api/products/{productID}/reviews", h.ListForProduct)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/api/products/{productID}/reviews", h.Create)
		r.Put("/api/reviews/{id}", h.Update)
		r.Delete("/api/reviews/{id}", h.Delete)
	})
}

// ListForProduct returns a product's reviews with the aggregate rating
func (h *ReviewHandler) ListForProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := pathID(r, "productID")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	reviews, err := h.reviewService.ListForProduct(r.Context(), productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}

		h.logger.Error("Failed to list reviews", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list reviews")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, ProductReviewsResponse{
		Reviews:       reviews.Reviews,
		AverageRating: reviews.AverageRating,
		ReviewCount:   reviews.ReviewCount,
	})
}

// Create adds a review for a product the caller has purchased
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
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

	var req ReviewRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	review, err := h.reviewService.Create(r.Context(), userID, productID, req.Rating, req.Comment)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrProductNotFound):
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
		case errors.Is(err, service.ErrNotPurchased):
			middleware.RespondWithError(w, http.StatusForbidden, err.Error())
		case errors.Is(err, repository.ErrReviewAlreadyExists):
			middleware.RespondWithError(w, http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrInvalidRating):
			middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("Failed to create review", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create review")
		}
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, review)
}

// Update modifies the caller's own review
func (h *ReviewHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	reviewID, err := pathID(r, "id")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid review id")
		return
	}

	var req ReviewRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	review, err := h.reviewService.Update(r.Context(), userID, reviewID, req.Rating, req.Comment)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrReviewNotFound):
			middleware.RespondWithError(w, http.StatusNotFound, "review not found")
		case errors.Is(err, service.ErrNotReviewOwner):
			middleware.RespondWithError(w, http.StatusForbidden, err.Error())
		case errors.Is(err, service.ErrInvalidRating):
			middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("Failed to update review", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update review")
		}
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, review)
}

// Delete removes the caller's own review
func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	reviewID, err := pathID(r, "id")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid review id")
		return
	}

	if err := h.reviewService.Delete(r.Context(), userID, reviewID); err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "review not found")
			return
		}

		h.logger.Error("Failed to delete review", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to delete review")
		return
	}

	middleware.RespondWithMessage(w, http.StatusOK, "review deleted")
}
