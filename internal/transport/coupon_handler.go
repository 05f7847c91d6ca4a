package transport

import (
	"errors"
	"net/http"
	"time"

	"ashnest/internal/middleware"
	"ashnest/internal/repository"
	"ashnest/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CouponRequest represents the coupon create and update payload
type CouponRequest struct {
	Code               string           `json:"code" validate:"required"`
	DiscountPercentage decimal.Decimal  `json:"discount_percentage" validate:"required"`
	ExpiryDate         time.Time        `json:"expiry_date" validate:"required"`
	IsActive           bool             `json:"is_active"`
	UsageLimit         *int             `json:"usage_limit,omitempty"`
	MinimumOrderAmount *decimal.Decimal `json:"minimum_order_amount,omitempty"`
}

func (req CouponRequest) toInput() service.CouponInput {
	return service.CouponInput{
		Code:               req.Code,
		DiscountPercentage: req.DiscountPercentage,
		ExpiryDate:         req.ExpiryDate,
		IsActive:           req.IsActive,
		UsageLimit:         req.UsageLimit,
		MinimumOrderAmount: req.MinimumOrderAmount,
	}
}

// ValidateCouponRequest represents the coupon validation payload
type ValidateCouponRequest struct {
	Code        string          `json:"code" validate:"required"`
	OrderAmount decimal.Decimal `json:"order_amount" validate:"required"`
}

// CouponHandler handles HTTP requests for coupons
type CouponHandler struct {
	couponService service.CouponService
	logger        *zap.Logger
}

// NewCouponHandler creates a new CouponHandler
func NewCouponHandler(couponService service.CouponService, logger *zap.Logger) *CouponHandler {
	return &CouponHandler{
		couponService: couponService,
		logger:        logger,
	}
}

// RegisterRoutes registers all coupon routes. Validation is available to any
// authenticated user; management requires an admin.
func (h *CouponHandler) RegisterRoutes(r chi.Router, authMiddleware, adminMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/coupons", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Post("/validate", h.Validate)
		})

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware, adminMiddleware)
			r.Get("/", h.List)
			r.Post("/", h.Create)
			r.Get("/{id}", h.Get)
			r.Put("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
		})
	})
}

// Validate checks a coupon against an order amount. A business-invalid
// coupon is still a 200; the body carries the verdict and message.
func (h *CouponHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req ValidateCouponRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.couponService.Validate(r.Context(), req.Code, req.OrderAmount)
	if err != nil {
		h.logger.Error("Coupon validation failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to validate coupon")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, result)
}

// List returns all coupons, or the active ones when ?active=true is set
func (h *CouponHandler) List(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"

	coupons, err := h.couponService.List(r.Context(), activeOnly)
	if err != nil {
		h.logger.Error("Failed to list coupons", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list coupons")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, coupons)
}

// Get returns a single coupon
func (h *CouponHandler) Get(w http.ResponseWriter, r *http.Request) {
	couponID, err := pathID(r, "id")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid coupon id")
		return
	}

	coupon, err := h.couponService.Get(r.Context(), couponID)
	if err != nil {
		if errors.Is(err, repository.ErrCouponNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "coupon not found")
			return
		}

		h.logger.Error("Failed to get coupon", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to get coupon")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, coupon)
}

// Create registers a new coupon
func (h *CouponHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CouponRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	coupon, err := h.couponService.Create(r.Context(), req.toInput())
	if err != nil {
		h.respondCouponWriteError(w, err, "failed to create coupon")
		return
	}

	h.logger.Info("Coupon created", zap.String("coupon_id", coupon.ID.String()), zap.String("code", coupon.Code))
	middleware.RespondWithJSON(w, http.StatusCreated, coupon)
}

// Update modifies an existing coupon
func (h *CouponHandler) Update(w http.ResponseWriter, r *http.Request) {
	couponID, err := pathID(r, "id")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid coupon id")
		return
	}

	var req CouponRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	coupon, err := h.couponService.Update(r.Context(), couponID, req.toInput())
	if err != nil {
		h.respondCouponWriteError(w, err, "failed to update coupon")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, coupon)
}

// Delete removes a coupon
func (h *CouponHandler) Delete(w http.ResponseWriter, r *http.Request) {
	couponID, err := pathID(r, "id")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid coupon id")
		return
	}

	if err := h.couponService.Delete(r.Context(), couponID); err != nil {
		if errors.Is(err, repository.ErrCouponNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "coupon not found")
			return
		}

		h.logger.Error("Failed to delete coupon", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to delete coupon")
		return
	}

	middleware.RespondWithMessage(w, http.StatusOK, "coupon deleted")
}

func (h *CouponHandler) respondCouponWriteError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, repository.ErrCouponNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "coupon not found")
	case errors.Is(err, repository.ErrCouponAlreadyExists):
		middleware.RespondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrCouponPercentage):
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("Coupon write failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, fallback)
	}
}
