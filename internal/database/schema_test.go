package database

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMigrationFilesExist(t *testing.T) {
	migrationsDir := "../../migrations"

	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		t.Fatal("Migrations directory does not exist")
	}

	expectedMigrations := []string{
		"00001_create_users_table.sql",
		"00002_create_addresses_table.sql",
		"00003_create_categories_table.sql",
		"00004_create_products_table.sql",
		"00005_create_discounts_table.sql",
		"00006_create_coupons_table.sql",
		"00007_create_carts_table.sql",
		"00008_create_orders_table.sql",
		"00009_create_reviews_table.sql",
	}

	for _, migration := range expectedMigrations {
		path := filepath.Join(migrationsDir, migration)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			t.Errorf("Migration file %s does not exist", migration)
		}
	}
}

func TestMigrationFilesHaveUpAndDown(t *testing.T) {
	migrationsDir := "../../migrations"

	files, err := os.ReadDir(migrationsDir)
	if err != nil {
		t.Fatalf("Failed to read migrations directory: %v", err)
	}

	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}

		content, err := os.ReadFile(filepath.Join(migrationsDir, file.Name()))
		if err != nil {
			t.Errorf("Failed to read migration file %s: %v", file.Name(), err)
			continue
		}

		contentStr := string(content)

		for _, directive := range []string{
			"-- +goose Up",
			"-- +goose Down",
			"-- +goose StatementBegin",
			"-- +goose StatementEnd",
		} {
			if !strings.Contains(contentStr, directive) {
				t.Errorf("Migration file %s missing %q directive", file.Name(), directive)
			}
		}
	}
}

func TestDiscountSchemaEnforcesExclusiveScope(t *testing.T) {
	content, err := os.ReadFile("../../migrations/00005_create_discounts_table.sql")
	if err != nil {
		t.Fatalf("Failed to read discounts migration: %v", err)
	}

	// Exactly one of product_id / category_id must be set.
	if !strings.Contains(string(content), "(product_id IS NULL) <> (category_id IS NULL)") {
		t.Error("discounts table must enforce exclusive product/category scope")
	}
}

func TestStockSchemaForbidsNegativeStock(t *testing.T) {
	content, err := os.ReadFile("../../migrations/00004_create_products_table.sql")
	if err != nil {
		t.Fatalf("Failed to read products migration: %v", err)
	}

	if !strings.Contains(string(content), "stock_quantity >= 0") {
		t.Error("products table must forbid negative stock")
	}
}
