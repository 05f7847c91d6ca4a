package transport

import (
	"errors"
	"net/http"

	"ashnest/internal/middleware"
	"ashnest/internal/repository"
	"ashnest/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AddressRequest represents the address create and update payload
type AddressRequest struct {
	FullName    string `json:"full_name" validate:"required"`
	PhoneNumber string `json:"phone_number" validate:"required"`
	Street      string `json:"street" validate:"required"`
	City        string `json:"city" validate:"required"`
	Region      string `json:"region"`
	PostalCode  string `json:"postal_code" validate:"required"`
	Country     string `json:"country" validate:"required"`
	IsDefault   bool   `json:"is_default"`
}

func (req AddressRequest) toInput() service.AddressInput {
	return service.AddressInput{
		FullName:    req.FullName,
		PhoneNumber: req.PhoneNumber,
		Street:      req.Street,
		City:        req.City,
		Region:      req.Region,
		PostalCode:  req.PostalCode,
		Country:     req.Country,
		IsDefault:   req.IsDefault,
	}
}

// AddressHandler handles HTTP requests for the user's address book
type AddressHandler struct {
	addressService service.AddressService
	logger         *zap.Logger
}

// NewAddressHandler creates a new AddressHandler
func NewAddressHandler(addressService service.AddressService, logger *zap.Logger) *AddressHandler {
	return &AddressHandler{
		addressService: addressService,
		logger:         logger,
	}
}

// RegisterRoutes registers all address routes. Every route requires
// authentication; addresses are always scoped to the caller.
func (h *AddressHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/addresses", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

// List returns all of the caller's addresses
func (h *AddressHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	addresses, err := h.addressService.List(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list addresses", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list addresses")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, addresses)
}

// Create adds a new address for the caller
func (h *AddressHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req AddressRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	address, err := h.addressService.Create(r.Context(), userID, req.toInput())
	if err != nil {
		h.logger.Error("Failed to create address", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create address")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, address)
}

// Get returns a single address owned by the caller
func (h *AddressHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	addressID, err := pathID(r, "id")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid address id")
		return
	}

	address, err := h.addressService.Get(r.Context(), userID, addressID)
	if err != nil {
		if errors.Is(err, repository.ErrAddressNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "address not found")
			return
		}

		h.logger.Error("Failed to get address", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to get address")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, address)
}

// Update modifies an address owned by the caller
func (h *AddressHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	addressID, err := pathID(r, "id")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid address id")
		return
	}

	var req AddressRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	address, err := h.addressService.Update(r.Context(), userID, addressID, req.toInput())
	if err != nil {
		if errors.Is(err, repository.ErrAddressNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "address not found")
			return
		}

		h.logger.Error("Failed to update address", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update address")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, address)
}

// Delete removes an address owned by the caller
func (h *AddressHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	addressID, err := pathID(r, "id")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid address id")
		return
	}

	if err := h.addressService.Delete(r.Context(), userID, addressID); err != nil {
		if errors.Is(err, repository.ErrAddressNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "address not found")
			return
		}

		h.logger.Error("Failed to delete address", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to delete address")
		return
	}

	middleware.RespondWithMessage(w, http.StatusOK, "address deleted")
}
