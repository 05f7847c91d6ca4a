package transport

import (
	"errors"
	"net/http"
	"time"

	"ashnest/internal/middleware"
	"ashnest/internal/repository"
	"ashnest/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DiscountRequest represents the discount create and update payload.
// Exactly one of product_id and category_id must be set.
type DiscountRequest struct {
	Name       string          `json:"name" validate:"required"`
	Percentage decimal.Decimal `json:"percentage" validate:"required"`
	StartDate  time.Time       `json:"start_date" validate:"required"`
	EndDate    time.Time       `json:"end_date" validate:"required"`
	IsActive   bool            `json:"is_active"`
	ProductID  *uuid.UUID      `json:"product_id,omitempty"`
	CategoryID *uuid.UUID      `json:"category_id,omitempty"`
}

func (req DiscountRequest) toInput() service.DiscountInput {
	return service.DiscountInput{
		Name:       req.Name,
		Percentage: req.Percentage,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		IsActive:   req.IsActive,
		ProductID:  req.ProductID,
		CategoryID: req.CategoryID,
	}
}

// DiscountHandler handles HTTP requests for discount administration
type DiscountHandler struct {
	discountService service.DiscountService
	logger          *zap.Logger
}

// NewDiscountHandler creates a new DiscountHandler
func NewDiscountHandler(discountService service.DiscountService, logger *zap.Logger) *DiscountHandler {
	return &DiscountHandler{
		discountService: discountService,
		logger:          logger,
	}
}

// RegisterRoutes registers all discount routes. Discounts are managed by
// admins; customers only ever see their effect on prices.
func (h *DiscountHandler) RegisterRoutes(r chi.Router, authMiddleware, adminMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/discounts", func(r chi.Router) {
		r.Use(authMiddleware, adminMiddleware)
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/product/{productID}", h.ListForProduct)
		r.Get("/category/{categoryID}", h.ListForCategory)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

// List returns all discounts, or the currently effective ones when
// ?active=true is set
func (h *DiscountHandler) List(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"

	discounts, err := h.discountService.List(r.Context(), activeOnly)
	if err != nil {
		h.logger.Error("Failed to list discounts", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list discounts")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, discounts)
}

// ListForProduct returns every discount targeting the given product
func (h *DiscountHandler) ListForProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := pathID(r, "productID")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	discounts, err := h.discountService.ListForProduct(r.Context(), productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}

		h.logger.Error("Failed to list product discounts", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list discounts")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, discounts)
}

// ListForCategory returns every discount targeting the given category
func (h *DiscountHandler) ListForCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, err := pathID(r, "categoryID")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid category id")
		return
	}

	discounts, err := h.discountService.ListForCategory(r.Context(), categoryID)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "category not found")
			return
		}

		h.logger.Error("Failed to list category discounts", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list discounts")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, discounts)
}

// Get returns a single discount
func (h *DiscountHandler) Get(w http.ResponseWriter, r *http.Request) {
	discountID, err := pathID(r, "id")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid discount id")
		return
	}

	discount, err := h.discountService.Get(r.Context(), discountID)
	if err != nil {
		if errors.Is(err, repository.ErrDiscountNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "discount not found")
			return
		}

		h.logger.Error("Failed to get discount", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to get discount")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, discount)
}

// Create registers a new discount
func (h *DiscountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req DiscountRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	discount, err := h.discountService.Create(r.Context(), req.toInput())
	if err != nil {
		h.respondDiscountWriteError(w, err, "failed to create discount")
		return
	}

	h.logger.Info("Discount created", zap.String("discount_id", discount.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, discount)
}

// Update modifies an existing discount
func (h *DiscountHandler) Update(w http.ResponseWriter, r *http.Request) {
	discountID, err := pathID(r, "id")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid discount id")
		return
	}

	var req DiscountRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	discount, err := h.discountService.Update(r.Context(), discountID, req.toInput())
	if err != nil {
		h.respondDiscountWriteError(w, err, "failed to update discount")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, discount)
}

// Delete removes a discount
func (h *DiscountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	discountID, err := pathID(r, "id")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid discount id")
		return
	}

	if err := h.discountService.Delete(r.Context(), discountID); err != nil {
		if errors.Is(err, repository.ErrDiscountNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "discount not found")
			return
		}

		h.logger.Error("Failed to delete discount", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to delete discount")
		return
	}

	middleware.RespondWithMessage(w, http.StatusOK, "discount deleted")
}

func (h *DiscountHandler) respondDiscountWriteError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, repository.ErrDiscountNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "discount not found")
	case errors.Is(err, service.ErrDiscountTarget),
		errors.Is(err, service.ErrDiscountWindow),
		errors.Is(err, service.ErrDiscountPercentage):
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrProductNotFound),
		errors.Is(err, repository.ErrCategoryNotFound):
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("Discount write failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, fallback)
	}
}
