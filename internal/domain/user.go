package domain

import (
	"time"

	"github.com/google/uuid"
)

// User roles recognised by the authorization layer.
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// User represents a registered storefront account
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	FirstName    string    `json:"first_name" db:"first_name"`
	LastName     string    `json:"last_name" db:"last_name"`
	Phone        string    `json:"phone" db:"phone"`
	Role         string    `json:"role" db:"role"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Address is a shipping address owned by a user. Orders reference an
// address by id rather than copying it.
type Address struct {
	ID          uuid.UUID `json:"id" db:"id"`
	UserID      uuid.UUID `json:"user_id" db:"user_id"`
	FullName    string    `json:"full_name" db:"full_name"`
	PhoneNumber string    `json:"phone_number" db:"phone_number"`
	Street      string    `json:"street" db:"street"`
	City        string    `json:"city" db:"city"`
	Region      string    `json:"region" db:"region"`
	PostalCode  string    `json:"postal_code" db:"postal_code"`
	Country     string    `json:"country" db:"country"`
	IsDefault   bool      `json:"is_default" db:"is_default"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
