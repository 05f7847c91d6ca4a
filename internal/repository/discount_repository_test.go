package repository

import (
	"bytes"
	"context"
	"testing"
	"time"

	"ashnest/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func createDiscount(t *testing.T, d *domain.Discount) {
	t.Helper()

	if err := NewDiscountRepository(testDB).Create(context.Background(), d); err != nil {
		t.Fatalf("failed to create discount: %v", err)
	}
	t.Cleanup(func() { testDB.Exec("DELETE FROM discounts WHERE id = $1", d.ID) })
}

func TestDiscountRepository_FindForProducts(t *testing.T) {
	repo := NewDiscountRepository(testDB)
	ctx := context.Background()
	category := createTestCategory(t, "disc-"+uuid.New().String())

	product := &domain.Product{
		ID:            uuid.New(),
		Name:          "Rattan chair",
		Price:         decimal.RequireFromString("120.00"),
		StockQuantity: 4,
		CategoryID:    category.ID,
		Status:        domain.ProductActive,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	if err := NewProductRepository(testDB).Create(ctx, product); err != nil {
		t.Fatalf("failed to create product: %v", err)
	}
	t.Cleanup(func() { testDB.Exec("DELETE FROM products WHERE id = $1", product.ID) })

	now := time.Now()
	older := &domain.Discount{
		ID:         uuid.New(),
		Name:       "spring sale",
		Percentage: decimal.RequireFromString("10"),
		StartDate:  now.Add(-time.Hour),
		EndDate:    now.Add(time.Hour),
		IsActive:   true,
		ProductID:  &product.ID,
		CreatedAt:  now.Add(-2 * time.Hour),
	}
	newer := &domain.Discount{
		ID:         uuid.New(),
		Name:       "flash sale",
		Percentage: decimal.RequireFromString("30"),
		StartDate:  now.Add(-time.Hour),
		EndDate:    now.Add(time.Hour),
		IsActive:   true,
		ProductID:  &product.ID,
		CreatedAt:  now.Add(-time.Hour),
	}
	forCategory := &domain.Discount{
		ID:         uuid.New(),
		Name:       "category sale",
		Percentage: decimal.RequireFromString("5"),
		StartDate:  now.Add(-time.Hour),
		EndDate:    now.Add(time.Hour),
		IsActive:   true,
		CategoryID: &category.ID,
		CreatedAt:  now,
	}
	// Insertion order deliberately differs from created_at order.
	createDiscount(t, newer)
	createDiscount(t, older)
	createDiscount(t, forCategory)

	discounts, err := repo.FindForProducts(ctx, []uuid.UUID{product.ID}, []uuid.UUID{category.ID})
	if err != nil {
		t.Fatalf("FindForProducts failed: %v", err)
	}
	if len(discounts) != 3 {
		t.Fatalf("expected 3 discounts, got %d", len(discounts))
	}

	// Results come back in registration order so that the pricing index
	// resolves ties in favor of the first-registered discount.
	if discounts[0].ID != older.ID {
		t.Errorf("expected first-registered discount first, got %s", discounts[0].Name)
	}

	idx := domain.NewDiscountIndex(discounts)
	winner := idx.Resolve(product, now)
	if winner == nil {
		t.Fatal("expected an effective discount")
	}
	if winner.ID != older.ID {
		t.Errorf("expected first-registered product discount to win, got %s", winner.Name)
	}
}

func TestDiscountRepository_FindForProductsBreaksTimestampTiesByID(t *testing.T) {
	repo := NewDiscountRepository(testDB)
	ctx := context.Background()
	category := createTestCategory(t, "tie-"+uuid.New().String())

	product := &domain.Product{
		ID:            uuid.New(),
		Name:          "Oak stool",
		Price:         decimal.RequireFromString("45.00"),
		StockQuantity: 8,
		CategoryID:    category.ID,
		Status:        domain.ProductActive,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	if err := NewProductRepository(testDB).Create(ctx, product); err != nil {
		t.Fatalf("failed to create product: %v", err)
	}
	t.Cleanup(func() { testDB.Exec("DELETE FROM products WHERE id = $1", product.ID) })

	// Same created_at on both rows; ordering must still be stable.
	now := time.Now()
	registeredAt := now.Add(-time.Hour).Truncate(time.Second)
	for _, name := range []string{"tie one", "tie two"} {
		createDiscount(t, &domain.Discount{
			ID:         uuid.New(),
			Name:       name,
			Percentage: decimal.RequireFromString("20"),
			StartDate:  now.Add(-time.Hour),
			EndDate:    now.Add(time.Hour),
			IsActive:   true,
			ProductID:  &product.ID,
			CreatedAt:  registeredAt,
		})
	}

	first, err := repo.FindForProducts(ctx, []uuid.UUID{product.ID}, nil)
	if err != nil {
		t.Fatalf("FindForProducts failed: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("expected 2 discounts, got %d", len(first))
	}
	if bytes.Compare(first[0].ID[:], first[1].ID[:]) >= 0 {
		t.Errorf("equal timestamps must order by id, got %s before %s", first[0].ID, first[1].ID)
	}

	for i := 0; i < 5; i++ {
		again, err := repo.FindForProducts(ctx, []uuid.UUID{product.ID}, nil)
		if err != nil {
			t.Fatalf("FindForProducts failed: %v", err)
		}
		if again[0].ID != first[0].ID || again[1].ID != first[1].ID {
			t.Fatalf("ordering not deterministic across reads")
		}
	}
}

func TestDiscountRepository_FindForProductsEmptyInput(t *testing.T) {
	repo := NewDiscountRepository(testDB)

	discounts, err := repo.FindForProducts(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("FindForProducts with empty input failed: %v", err)
	}
	if len(discounts) != 0 {
		t.Errorf("expected no discounts for empty input, got %d", len(discounts))
	}
}
