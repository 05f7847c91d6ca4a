package service

import (
	"context"
	"fmt"
	"time"

	"ashnest/internal/domain"
	"ashnest/internal/repository"

	"github.com/google/uuid"
)

// AddressInput carries the writable address fields.
type AddressInput struct {
	FullName    string
	PhoneNumber string
	Street      string
	City        string
	Region      string
	PostalCode  string
	Country     string
	IsDefault   bool
}

// AddressService defines the interface for address book business logic
type AddressService interface {
	Create(ctx context.Context, userID uuid.UUID, input AddressInput) (*domain.Address, error)
	Update(ctx context.Context, userID, addressID uuid.UUID, input AddressInput) (*domain.Address, error)
	Delete(ctx context.Context, userID, addressID uuid.UUID) error
	Get(ctx context.Context, userID, addressID uuid.UUID) (*domain.Address, error)
	List(ctx context.Context, userID uuid.UUID) ([]*domain.Address, error)
}

type addressService struct {
	addressRepo repository.AddressRepository
}

// NewAddressService creates a new instance of AddressService
func NewAddressService(addressRepo repository.AddressRepository) AddressService {
	return &addressService{addressRepo: addressRepo}
}

func (s *addressService) Create(ctx context.Context, userID uuid.UUID, input AddressInput) (*domain.Address, error) {
	// At most one default address per user.
	if input.IsDefault {
		if err := s.addressRepo.ClearDefault(ctx, userID); err != nil {
			return nil, fmt.Errorf("failed to clear default address: %w", err)
		}
	}

	address := &domain.Address{
		ID:          uuid.New(),
		UserID:      userID,
		FullName:    input.FullName,
		PhoneNumber: input.PhoneNumber,
		Street:      input.Street,
		City:        input.City,
		Region:      input.Region,
		PostalCode:  input.PostalCode,
		Country:     input.Country,
		IsDefault:   input.IsDefault,
		CreatedAt:   time.Now(),
	}

	if err := s.addressRepo.Create(ctx, address); err != nil {
		return nil, fmt.Errorf("failed to create address: %w", err)
	}

	return address, nil
}

func (s *addressService) Update(ctx context.Context, userID, addressID uuid.UUID, input AddressInput) (*domain.Address, error) {
	address, err := s.addressRepo.FindByID(ctx, addressID, userID)
	if err != nil {
		return nil, err
	}

	if input.IsDefault && !address.IsDefault {
		if err := s.addressRepo.ClearDefault(ctx, userID); err != nil {
			return nil, fmt.Errorf("failed to clear default address: %w", err)
		}
	}

	address.FullName = input.FullName
	address.PhoneNumber = input.PhoneNumber
	address.Street = input.Street
	address.City = input.City
	address.Region = input.Region
	address.PostalCode = input.PostalCode
	address.Country = input.Country
	address.IsDefault = input.IsDefault

	if err := s.addressRepo.Update(ctx, address); err != nil {
		return nil, err
	}

	return address, nil
}

func (s *addressService) Delete(ctx context.Context, userID, addressID uuid.UUID) error {
	return s.addressRepo.Delete(ctx, addressID, userID)
}

func (s *addressService) Get(ctx context.Context, userID, addressID uuid.UUID) (*domain.Address, error) {
	return s.addressRepo.FindByID(ctx, addressID, userID)
}

func (s *addressService) List(ctx context.Context, userID uuid.UUID) ([]*domain.Address, error) {
	addresses, err := s.addressRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list addresses: %w", err)
	}
	return addresses, nil
}
