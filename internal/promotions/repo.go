package promotions

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/velora-dev/storefront-backend/pkg/db/models"
)

// Repository exposes promotion persistence. Redeem is the only mutating
// operation the checkout path uses; it is a conditional increment so the
// usage limit holds under concurrent redemption.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, promo *models.Promotion) (*models.Promotion, error)
	Update(ctx context.Context, promo *models.Promotion) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Promotion, error)
	FindByCode(ctx context.Context, code string) (*models.Promotion, error)
	List(ctx context.Context) ([]models.Promotion, error)
	Redeem(ctx context.Context, id uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a promotions repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, promo *models.Promotion) (*models.Promotion, error) {
	if err := r.db.WithContext(ctx).Create(promo).Error; err != nil {
		return nil, err
	}
	return promo, nil
}

func (r *repository) Update(ctx context.Context, promo *models.Promotion) error {
	return r.db.WithContext(ctx).Save(promo).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Promotion{}, "id = ?", id).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Promotion, error) {
	var promo models.Promotion
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&promo).Error; err != nil {
		return nil, err
	}
	return &promo, nil
}

func (r *repository) FindByCode(ctx context.Context, code string) (*models.Promotion, error) {
	var promo models.Promotion
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&promo).Error; err != nil {
		return nil, err
	}
	return &promo, nil
}

func (r *repository) List(ctx context.Context) ([]models.Promotion, error) {
	var promos []models.Promotion
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&promos).Error; err != nil {
		return nil, err
	}
	return promos, nil
}

// Redeem increments used_count once, guarded so the counter can never pass
// usage_limit. The false return means the promotion was exhausted or
// deactivated between evaluation and commit.
func (r *repository) Redeem(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE promotions
		SET used_count = used_count + 1,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
		  AND status = 'active'
		  AND (usage_limit IS NULL OR used_count < usage_limit)
	`, id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
