package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/velora-dev/storefront-backend/pkg/enums"
)

// Product is the sellable catalog entry; purchasable stock lives on its variants.
type Product struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string              `gorm:"column:name;not null"`
	Slug        string              `gorm:"column:slug;uniqueIndex;not null"`
	Description *string             `gorm:"column:description"`
	BasePrice   int64               `gorm:"column:base_price;not null"`
	BrandID     *uuid.UUID          `gorm:"column:brand_id;type:uuid"`
	CategoryID  *uuid.UUID          `gorm:"column:category_id;type:uuid"`
	Status      enums.ProductStatus `gorm:"column:status;type:text;not null;default:'active'"`
	Variants    []ProductVariant    `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// ProductVariant is a purchasable size/color combination with its own stock
// counter and optional price override.
type ProductVariant struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID     uuid.UUID           `gorm:"column:product_id;type:uuid;not null;index"`
	SKU           string              `gorm:"column:sku;uniqueIndex;not null"`
	Size          string              `gorm:"column:size;not null"`
	Color         string              `gorm:"column:color;not null"`
	PriceOverride *int64              `gorm:"column:price_override"`
	StockQuantity int                 `gorm:"column:stock_quantity;not null;default:0"`
	Status        enums.ProductStatus `gorm:"column:status;type:text;not null;default:'active'"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// UnitPrice resolves the effective price for the variant.
func (v ProductVariant) UnitPrice(basePrice int64) int64 {
	if v.PriceOverride != nil {
		return *v.PriceOverride
	}
	return basePrice
}
