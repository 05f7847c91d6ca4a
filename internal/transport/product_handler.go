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

// ProductRequest represents the product create and update payload
type ProductRequest struct {
	Name          string          `json:"name" validate:"required"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price" validate:"required"`
	StockQuantity int             `json:"stock_quantity" validate:"gte=0"`
	CategoryID    uuid.UUID       `json:"category_id" validate:"required"`
	Status        string          `json:"status"`
	ImageURL      string          `json:"image_url"`
}

// ProductResponse is a catalog product with its currently effective
// discounted price, when one applies.
type ProductResponse struct {
	*domain.Product
	DiscountedPrice *decimal.Decimal `json:"discounted_price,omitempty"`
	DiscountName    string           `json:"discount_name,omitempty"`
}

// ProductPageResponse is one page of products with paging metadata
type ProductPageResponse struct {
	Products   []ProductResponse `json:"products"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalPages int               `json:"total_pages"`
}

func toProductResponse(p service.PricedProduct) ProductResponse {
	return ProductResponse{
		Product:         p.Product,
		DiscountedPrice: p.DiscountedPrice,
		DiscountName:    p.DiscountName,
	}
}

func toProductPageResponse(page *service.ProductPage) ProductPageResponse {
	resp := ProductPageResponse{
		Products:   make([]ProductResponse, 0, len(page.Products)),
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
	}
	for _, p := range page.Products {
		resp.Products = append(resp.Products, toProductResponse(p))
	}
	return resp
}

// ProductHandler handles HTTP requests for catalog products
type ProductHandler struct {
	catalogService service.CatalogService
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(catalogService service.CatalogService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		catalogService: catalogService,
		logger:         logger,
	}
}

// RegisterRoutes registers all product routes. Browsing is public;
// mutations require an admin.
func (h *ProductHandler) RegisterRoutes(r chi.Router, authMiddleware, adminMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/search", h.Search)
		r.Get("/{id}", h.Get)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware, adminMiddleware)
			r.Post("/", h.Create)
			r.Put("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
		})
	})
}

// List returns a page of products, optionally filtered by category and
// sorted by name, price, created_at or stock_quantity.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var categoryID *uuid.UUID
	if raw := q.Get("category_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid category id")
			return
		}
		categoryID = &id
	}

	page, pageSize := queryPage(r)

	sortOrder := repository.SortOrderAsc
	if q.Get("sort_order") == "desc" {
		sortOrder = repository.SortOrderDesc
	}

	result, err := h.catalogService.ListProducts(r.Context(), categoryID, page, pageSize, q.Get("sort_by"), sortOrder)
	if err != nil {
		h.logger.Error("Failed to list products", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, toProductPageResponse(result))
}

// Search returns a page of products matching the q query parameter
func (h *ProductHandler) Search(w http.ResponseWriter, r *http.Request) {
	page, pageSize := queryPage(r)

	result, err := h.catalogService.SearchProducts(r.Context(), r.URL.Query().Get("q"), page, pageSize)
	if err != nil {
		h.logger.Error("Failed to search products", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to search products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, toProductPageResponse(result))
}

// Get returns a single product with its effective discount
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	productID, err := pathID(r, "id")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	product, err := h.catalogService.GetProduct(r.Context(), productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}

		h.logger.Error("Failed to get product", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to get product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, toProductResponse(*product))
}

func (h *ProductHandler) decodeInput(w http.ResponseWriter, r *http.Request) (service.ProductInput, bool) {
	var req ProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return service.ProductInput{}, false
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return service.ProductInput{}, false
	}

	status := domain.ProductActive
	if req.Status != "" {
		parsed, err := domain.ParseProductStatus(req.Status)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid product status")
			return service.ProductInput{}, false
		}
		status = parsed
	}

	return service.ProductInput{
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
		CategoryID:    req.CategoryID,
		Status:        status,
		ImageURL:      req.ImageURL,
	}, true
}

// Create adds a new product
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	product, err := h.catalogService.CreateProduct(r.Context(), input)
	if err != nil {
		h.respondProductWriteError(w, err, "failed to create product")
		return
	}

	h.logger.Info("Product created", zap.String("product_id", product.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

// Update modifies an existing product
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	productID, err := pathID(r, "id")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	input, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	product, err := h.catalogService.UpdateProduct(r.Context(), productID, input)
	if err != nil {
		h.respondProductWriteError(w, err, "failed to update product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// Delete removes a product
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	productID, err := pathID(r, "id")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	if err := h.catalogService.DeleteProduct(r.Context(), productID); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}

		h.logger.Error("Failed to delete product", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to delete product")
		return
	}

	middleware.RespondWithMessage(w, http.StatusOK, "product deleted")
}

func (h *ProductHandler) respondProductWriteError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, repository.ErrProductNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "product not found")
	case errors.Is(err, service.ErrInvalidPrice),
		errors.Is(err, service.ErrNegativeStock),
		errors.Is(err, service.ErrCategoryMissing):
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("Product write failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, fallback)
	}
}
