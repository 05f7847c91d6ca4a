package transport

import (
	"errors"
	"net/http"

	"ashnest/internal/middleware"
	"ashnest/internal/repository"
	"ashnest/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CategoryRequest represents the category create and update payload
type CategoryRequest struct {
	Name             string     `json:"name" validate:"required"`
	Description      string     `json:"description"`
	ParentCategoryID *uuid.UUID `json:"parent_category_id,omitempty"`
}

// CategoryHandler handles HTTP requests for product categories
type CategoryHandler struct {
	catalogService service.CatalogService
	logger         *zap.Logger
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(catalogService service.CatalogService, logger *zap.Logger) *CategoryHandler {
	return &CategoryHandler{
		catalogService: catalogService,
		logger:         logger,
	}
}

// RegisterRoutes registers all category routes. Browsing is public;
// mutations require an admin.
func (h *CategoryHandler) RegisterRoutes(r chi.Router, authMiddleware, adminMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/categories", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware, adminMiddleware)
			r.Post("/", h.Create)
			r.Put("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
		})
	})
}

// List returns all categories
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalogService.ListCategories(r.Context())
	if err != nil {
		h.logger.Error("Failed to list categories", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list categories")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, categories)
}

// Get returns a single category
func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	categoryID, err := pathID(r, "id")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid category id")
		return
	}

	category, err := h.catalogService.GetCategory(r.Context(), categoryID)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "category not found")
			return
		}

		h.logger.Error("Failed to get category", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to get category")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, category)
}

// Create adds a new category
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	category, err := h.catalogService.CreateCategory(r.Context(), service.CategoryInput{
		Name:             req.Name,
		Description:      req.Description,
		ParentCategoryID: req.ParentCategoryID,
	})
	if err != nil {
		h.respondCategoryWriteError(w, err, "failed to create category")
		return
	}

	h.logger.Info("Category created", zap.String("category_id", category.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, category)
}

// Update modifies an existing category
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	categoryID, err := pathID(r, "id")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid category id")
		return
	}

	var req CategoryRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	category, err := h.catalogService.UpdateCategory(r.Context(), categoryID, service.CategoryInput{
		Name:             req.Name,
		Description:      req.Description,
		ParentCategoryID: req.ParentCategoryID,
	})
	if err != nil {
		h.respondCategoryWriteError(w, err, "failed to update category")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, category)
}

// Delete removes a category. Categories with products are refused.
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	categoryID, err := pathID(r, "id")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid category id")
		return
	}

	if err := h.catalogService.DeleteCategory(r.Context(), categoryID); err != nil {
		switch {
		case errors.Is(err, repository.ErrCategoryNotFound):
			middleware.RespondWithError(w, http.StatusNotFound, "category not found")
		case errors.Is(err, service.ErrCategoryInUse):
			middleware.RespondWithError(w, http.StatusConflict, err.Error())
		default:
			h.logger.Error("Failed to delete category", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to delete category")
		}
		return
	}

	middleware.RespondWithMessage(w, http.StatusOK, "category deleted")
}

func (h *CategoryHandler) respondCategoryWriteError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, repository.ErrCategoryNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "category not found")
	case errors.Is(err, repository.ErrCategoryAlreadyExists):
		middleware.RespondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrCategoryMissing):
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("Category write failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, fallback)
	}
}
