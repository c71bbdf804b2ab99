package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/velora-dev/storefront-backend/pkg/db/models"
	"github.com/velora-dev/storefront-backend/pkg/pagination"
)

// ListFilter narrows the product listing by taxonomy slugs. Empty fields
// match everything.
type ListFilter struct {
	Category string
	Brand    string
}

// Repository exposes catalog reads plus the two stock mutations the order
// lifecycle performs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListProducts(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Product, string, error)
	FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindProductBySlug(ctx context.Context, slug string) (*models.Product, error)
	FindVariant(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error)
	DecrementStock(ctx context.Context, variantID uuid.UUID, qty int) (bool, error)
	RestoreStock(ctx context.Context, variantID uuid.UUID, qty int) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListProducts(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Product, string, error) {
	limit := pagination.LimitWithBuffer(params.Limit)

	query := r.db.WithContext(ctx).
		Preload("Variants").
		Where("status = ?", "active").
		Order("created_at DESC, id DESC").
		Limit(limit)

	if filter.Category != "" {
		query = query.Where("category_id IN (?)",
			r.db.Model(&models.Category{}).Select("id").Where("slug = ?", filter.Category))
	}
	if filter.Brand != "" {
		query = query.Where("brand_id IN (?)",
			r.db.Model(&models.Brand{}).Select("id").Where("slug = ?", filter.Brand))
	}

	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, "", err
		}
		if cursor != nil {
			query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
		}
	}

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, "", err
	}

	next := ""
	if pageSize := pagination.NormalizeLimit(params.Limit); len(products) > pageSize {
		products = products[:pageSize]
		last := products[len(products)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return products, next, nil
}

func (r *repository) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Variants").
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) FindProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Variants").
		Where("slug = ?", slug).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) FindVariant(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&variant).Error; err != nil {
		return nil, err
	}
	return &variant, nil
}

// DecrementStock conditionally takes qty units off the variant's counter.
// The guard makes concurrent checkouts racing for the last units safe: at
// most one caller wins and the loser sees false.
func (r *repository) DecrementStock(ctx context.Context, variantID uuid.UUID, qty int) (bool, error) {
	if qty <= 0 {
		return false, gorm.ErrInvalidValue
	}
	res := r.db.WithContext(ctx).Exec(`
		UPDATE product_variants
		SET stock_quantity = stock_quantity - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND stock_quantity >= ?
	`, qty, variantID, qty)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// RestoreStock gives back exactly the quantity originally taken, regardless
// of how the counter moved in between.
func (r *repository) RestoreStock(ctx context.Context, variantID uuid.UUID, qty int) error {
	if qty <= 0 {
		return nil
	}
	return r.db.WithContext(ctx).Exec(`
		UPDATE product_variants
		SET stock_quantity = stock_quantity + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, qty, variantID).Error
}
