package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/velora-dev/storefront-backend/pkg/db/models"
)

// CheckoutLine is a cart line joined with the live product/variant data the
// order assembler validates against. UnitPrice is already resolved to the
// variant override or the product base price.
type CheckoutLine struct {
	LineID        uuid.UUID `gorm:"column:line_id"`
	VariantID     uuid.UUID `gorm:"column:variant_id"`
	Quantity      int       `gorm:"column:quantity"`
	ProductName   string    `gorm:"column:product_name"`
	Size          string    `gorm:"column:size"`
	Color         string    `gorm:"column:color"`
	UnitPrice     int64     `gorm:"column:unit_price"`
	StockQuantity int       `gorm:"column:stock_quantity"`
	ProductStatus string    `gorm:"column:product_status"`
	VariantStatus string    `gorm:"column:variant_status"`
}

// Repository persists cart lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListLines(ctx context.Context, userID uuid.UUID) ([]models.CartLine, error)
	ListCheckoutLines(ctx context.Context, userID uuid.UUID) ([]CheckoutLine, error)
	FindLine(ctx context.Context, userID, variantID uuid.UUID) (*models.CartLine, error)
	UpsertLine(ctx context.Context, line *models.CartLine) error
	UpdateQuantity(ctx context.Context, userID, variantID uuid.UUID, quantity int) (int64, error)
	RemoveLine(ctx context.Context, userID, variantID uuid.UUID) (int64, error)
	ClearForUser(ctx context.Context, userID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListLines(ctx context.Context, userID uuid.UUID) ([]models.CartLine, error) {
	var lines []models.CartLine
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *repository) ListCheckoutLines(ctx context.Context, userID uuid.UUID) ([]CheckoutLine, error) {
	var lines []CheckoutLine
	err := r.db.WithContext(ctx).Raw(`
		SELECT cl.id AS line_id,
			cl.variant_id,
			cl.quantity,
			p.name AS product_name,
			v.size,
			v.color,
			COALESCE(v.price_override, p.base_price) AS unit_price,
			v.stock_quantity,
			p.status AS product_status,
			v.status AS variant_status
		FROM cart_lines cl
		JOIN product_variants v ON v.id = cl.variant_id
		JOIN products p ON p.id = v.product_id
		WHERE cl.user_id = ?
		ORDER BY cl.created_at ASC
	`, userID).Scan(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *repository) FindLine(ctx context.Context, userID, variantID uuid.UUID) (*models.CartLine, error) {
	var line models.CartLine
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND variant_id = ?", userID, variantID).
		First(&line).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

func (r *repository) UpsertLine(ctx context.Context, line *models.CartLine) error {
	return r.db.WithContext(ctx).Create(line).Error
}

func (r *repository) UpdateQuantity(ctx context.Context, userID, variantID uuid.UUID, quantity int) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.CartLine{}).
		Where("user_id = ? AND variant_id = ?", userID, variantID).
		Update("quantity", quantity)
	return res.RowsAffected, res.Error
}

func (r *repository) RemoveLine(ctx context.Context, userID, variantID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND variant_id = ?", userID, variantID).
		Delete(&models.CartLine{})
	return res.RowsAffected, res.Error
}

func (r *repository) ClearForUser(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.CartLine{}).Error
}
