package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ashnest/internal/domain"

	"github.com/google/uuid"
)

var ErrAddressNotFound = errors.New("address not found")

// AddressRepository defines the interface for address data access. All
// lookups are owner-scoped; an address belonging to another user behaves as
// if it does not exist.
type AddressRepository interface {
	Create(ctx context.Context, address *domain.Address) error
	Update(ctx context.Context, address *domain.Address) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
	FindByID(ctx context.Context, id, userID uuid.UUID) (*domain.Address, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Address, error)
	ClearDefault(ctx context.Context, userID uuid.UUID) error
}

type addressRepository struct {
	db *sql.DB
}

// NewAddressRepository creates a new instance of AddressRepository
func NewAddressRepository(db *sql.DB) AddressRepository {
	return &addressRepository{db: db}
}

func (r *addressRepository) Create(ctx context.Context, address *domain.Address) error {
	query := `
		INSERT INTO addresses (id, user_id, full_name, phone_number, street, city, region, postal_code, country, is_default, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		address.ID,
		address.UserID,
		address.FullName,
		address.PhoneNumber,
		address.Street,
		address.City,
		address.Region,
		address.PostalCode,
		address.Country,
		address.IsDefault,
		address.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create address: %w", err)
	}

	return nil
}

func (r *addressRepository) Update(ctx context.Context, address *domain.Address) error {
	query := `
		UPDATE addresses
		SET full_name = $3, phone_number = $4, street = $5, city = $6,
		    region = $7, postal_code = $8, country = $9, is_default = $10
		WHERE id = $1 AND user_id = $2
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		address.ID,
		address.UserID,
		address.FullName,
		address.PhoneNumber,
		address.Street,
		address.City,
		address.Region,
		address.PostalCode,
		address.Country,
		address.IsDefault,
	)

	if err != nil {
		return fmt.Errorf("failed to update address: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrAddressNotFound
	}

	return nil
}

func (r *addressRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	query := `DELETE FROM addresses WHERE id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete address: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrAddressNotFound
	}

	return nil
}

func (r *addressRepository) FindByID(ctx context.Context, id, userID uuid.UUID) (*domain.Address, error) {
	query := `
		SELECT id, user_id, full_name, phone_number, street, city, region, postal_code, country, is_default, created_at
		FROM addresses
		WHERE id = $1 AND user_id = $2
	`

	address := &domain.Address{}
	err := r.db.QueryRowContext(ctx, query, id, userID).Scan(
		&address.ID,
		&address.UserID,
		&address.FullName,
		&address.PhoneNumber,
		&address.Street,
		&address.City,
		&address.Region,
		&address.PostalCode,
		&address.Country,
		&address.IsDefault,
		&address.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAddressNotFound
		}
		return nil, fmt.Errorf("failed to find address: %w", err)
	}

	return address, nil
}

func (r *addressRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Address, error) {
	query := `
		SELECT id, user_id, full_name, phone_number, street, city, region, postal_code, country, is_default, created_at
		FROM addresses
		WHERE user_id = $1
		ORDER BY is_default DESC, created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list addresses: %w", err)
	}
	defer rows.Close()

	addresses := []*domain.Address{}
	for rows.Next() {
		address := &domain.Address{}
		err := rows.Scan(
			&address.ID,
			&address.UserID,
			&address.FullName,
			&address.PhoneNumber,
			&address.Street,
			&address.City,
			&address.Region,
			&address.PostalCode,
			&address.Country,
			&address.IsDefault,
			&address.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan address: %w", err)
		}
		addresses = append(addresses, address)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating addresses: %w", err)
	}

	return addresses, nil
}

// ClearDefault unsets the default flag on all of a user's addresses,
// called before marking another address as the default.
func (r *addressRepository) ClearDefault(ctx context.Context, userID uuid.UUID) error {
	query := `UPDATE addresses SET is_default = FALSE WHERE user_id = $1`

	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to clear default address: %w", err)
	}

	return nil
}
