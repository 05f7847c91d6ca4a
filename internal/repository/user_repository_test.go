package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"ashnest/internal/domain"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"golang.org/x/crypto/bcrypt"
)

func TestProperty_StoredPasswordsAreBcryptHashes(t *testing.T) {
	repo := NewUserRepository(testDB)
	ctx := context.Background()

	properties := gopter.NewProperties(nil)

	properties.Property("passwords are stored hashed, never as plaintext", prop.ForAll(
		func(email string, password string, firstName string, lastName string) bool {
			_, _ = testDB.Exec("DELETE FROM users WHERE email = $1", email)

			hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				t.Logf("Failed to hash password: %v", err)
				return false
			}

			user := &domain.User{
				ID:           uuid.New(),
				Email:        email,
				PasswordHash: string(hashedPassword),
				FirstName:    firstName,
				LastName:     lastName,
				Role:         domain.RoleCustomer,
				CreatedAt:    time.Now(),
				UpdatedAt:    time.Now(),
			}

			if err := repo.Create(ctx, user); err != nil {
				t.Logf("Failed to create user: %v", err)
				return false
			}

			retrieved, err := repo.FindByEmail(ctx, email)
			if err != nil {
				t.Logf("Failed to find user: %v", err)
				return false
			}

			if retrieved.PasswordHash == password {
				t.Logf("Password was stored as plaintext!")
				return false
			}

			if err := bcrypt.CompareHashAndPassword([]byte(retrieved.PasswordHash), []byte(password)); err != nil {
				t.Logf("Stored password is not a valid bcrypt hash: %v", err)
				return false
			}

			_, _ = testDB.Exec("DELETE FROM users WHERE email = $1", email)

			return true
		},
		gen.RegexMatch(`[a-z]{5,10}@[a-z]{3,8}\.(com|org|net)`),
		gen.RegexMatch(`[A-Za-z0-9!@#$%]{8,20}`),
		gen.RegexMatch(`[A-Z][a-z]{2,15}`),
		gen.RegexMatch(`[A-Z][a-z]{2,15}`),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestUserRepository_DuplicateEmailRejected(t *testing.T) {
	repo := NewUserRepository(testDB)
	ctx := context.Background()

	user := &domain.User{
		ID:           uuid.New(),
		Email:        "dup@example.com",
		PasswordHash: "hash",
		FirstName:    "First",
		LastName:     "User",
		Role:         domain.RoleCustomer,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	t.Cleanup(func() { testDB.Exec("DELETE FROM users WHERE email = $1", user.Email) })

	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	second := *user
	second.ID = uuid.New()
	if err := repo.Create(ctx, &second); !errors.Is(err, ErrUserAlreadyExists) {
		t.Errorf("expected ErrUserAlreadyExists, got %v", err)
	}
}
