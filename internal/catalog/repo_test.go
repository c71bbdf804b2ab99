package catalog

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/velora-dev/storefront-backend/pkg/db/models"
	"github.com/velora-dev/storefront-backend/pkg/enums"
	"github.com/velora-dev/storefront-backend/pkg/pagination"
)

func setupCatalogTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE IF NOT EXISTS categories (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS brands (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE,
  description TEXT,
  base_price INTEGER NOT NULL,
  brand_id TEXT,
  category_id TEXT,
  status TEXT NOT NULL DEFAULT 'active',
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS product_variants (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  sku TEXT NOT NULL UNIQUE,
  size TEXT NOT NULL,
  color TEXT NOT NULL,
  price_override INTEGER,
  stock_quantity INTEGER NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'active',
  created_at DATETIME,
  updated_at DATETIME
);`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, name string, mutate func(*models.Product)) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:      name,
		Slug:      name + "-" + uuid.NewString(),
		BasePrice: 100_000,
		Status:    enums.ProductStatusActive,
	}
	if mutate != nil {
		mutate(product)
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func TestListProductsSkipsInactive(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seedProduct(t, db, "visible", nil)
	seedProduct(t, db, "hidden", func(p *models.Product) {
		p.Status = enums.ProductStatusInactive
	})

	products, _, err := repo.ListProducts(ctx, ListFilter{}, pagination.Params{Limit: 10})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "visible", products[0].Name)
}

func TestListProductsFiltersByTaxonomy(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	category := &models.Category{Name: "Shirts", Slug: "shirts"}
	require.NoError(t, db.Create(category).Error)
	brand := &models.Brand{Name: "Velora", Slug: "velora"}
	require.NoError(t, db.Create(brand).Error)

	seedProduct(t, db, "categorized", func(p *models.Product) {
		p.CategoryID = &category.ID
	})
	seedProduct(t, db, "branded", func(p *models.Product) {
		p.BrandID = &brand.ID
	})
	seedProduct(t, db, "bare", nil)

	byCategory, _, err := repo.ListProducts(ctx, ListFilter{Category: "shirts"}, pagination.Params{Limit: 10})
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, "categorized", byCategory[0].Name)

	byBrand, _, err := repo.ListProducts(ctx, ListFilter{Brand: "velora"}, pagination.Params{Limit: 10})
	require.NoError(t, err)
	require.Len(t, byBrand, 1)
	assert.Equal(t, "branded", byBrand[0].Name)

	none, _, err := repo.ListProducts(ctx, ListFilter{Category: "no-such-slug"}, pagination.Params{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDecrementStockGuardsAgainstOversell(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	product := seedProduct(t, db, "scarce", nil)
	variant := &models.ProductVariant{
		ProductID:     product.ID,
		SKU:           "SKU-" + uuid.NewString(),
		Size:          "S",
		Color:         "black",
		StockQuantity: 3,
		Status:        enums.ProductStatusActive,
	}
	require.NoError(t, db.Create(variant).Error)

	ok, err := repo.DecrementStock(ctx, variant.ID, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	// Only one unit left, taking two must fail without touching the counter.
	ok, err = repo.DecrementStock(ctx, variant.ID, 2)
	require.NoError(t, err)
	assert.False(t, ok)

	var stored models.ProductVariant
	require.NoError(t, db.Where("id = ?", variant.ID).First(&stored).Error)
	assert.Equal(t, 1, stored.StockQuantity)

	require.NoError(t, repo.RestoreStock(ctx, variant.ID, 2))
	require.NoError(t, db.Where("id = ?", variant.ID).First(&stored).Error)
	assert.Equal(t, 3, stored.StockQuantity)
}
