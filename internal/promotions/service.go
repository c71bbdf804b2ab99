package promotions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/velora-dev/storefront-backend/pkg/db/models"
	"github.com/velora-dev/storefront-backend/pkg/enums"
	pkgerrors "github.com/velora-dev/storefront-backend/pkg/errors"
)

// Service exposes promotion evaluation for checkout plus the admin CRUD
// surface.
type Service interface {
	Evaluate(ctx context.Context, code string, subtotal int64, now time.Time) (*Evaluation, error)
	Redeem(ctx context.Context, tx *gorm.DB, promotionID uuid.UUID) (bool, error)
	Create(ctx context.Context, input CreateInput) (*models.Promotion, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Promotion, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*models.Promotion, error)
	List(ctx context.Context) ([]models.Promotion, error)
}

// CreateInput carries a new promotion definition.
type CreateInput struct {
	Code              string
	Description       *string
	DiscountType      enums.DiscountType
	DiscountValue     int64
	MinOrderAmount    int64
	MaxDiscountAmount *int64
	StartDate         time.Time
	EndDate           time.Time
	UsageLimit        *int
}

// UpdateInput carries the mutable promotion fields. Nil means leave as-is.
type UpdateInput struct {
	Description       *string
	DiscountValue     *int64
	MinOrderAmount    *int64
	MaxDiscountAmount *int64
	StartDate         *time.Time
	EndDate           *time.Time
	UsageLimit        *int
	Status            *enums.PromotionStatus
}

type service struct {
	repo Repository
}

// NewService wires the promotions dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("promotions repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Evaluate(ctx context.Context, code string, subtotal int64, now time.Time) (*Evaluation, error) {
	code = strings.TrimSpace(strings.ToUpper(code))
	if code == "" {
		return notApplicable(ReasonNotFound), nil
	}

	promo, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notApplicable(ReasonNotFound), nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load promotion")
	}
	return evaluate(promo, subtotal, now), nil
}

func (s *service) Redeem(ctx context.Context, tx *gorm.DB, promotionID uuid.UUID) (bool, error) {
	if promotionID == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "promotion id required")
	}
	ok, err := s.repo.WithTx(tx).Redeem(ctx, promotionID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redeem promotion")
	}
	return ok, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Promotion, error) {
	code := strings.TrimSpace(strings.ToUpper(input.Code))
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "promotion code required")
	}
	if !input.DiscountType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid discount type")
	}
	if input.DiscountValue < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount value must not be negative")
	}
	if input.DiscountType == enums.DiscountTypePercentage && input.DiscountValue > 100 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "percentage discount cannot exceed 100")
	}
	if !input.EndDate.After(input.StartDate) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "end date must be after start date")
	}
	if input.UsageLimit != nil && *input.UsageLimit <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "usage limit must be positive")
	}

	promo := &models.Promotion{
		Code:              code,
		Description:       input.Description,
		DiscountType:      input.DiscountType,
		DiscountValue:     input.DiscountValue,
		MinOrderAmount:    input.MinOrderAmount,
		MaxDiscountAmount: input.MaxDiscountAmount,
		StartDate:         input.StartDate,
		EndDate:           input.EndDate,
		UsageLimit:        input.UsageLimit,
		Status:            enums.PromotionStatusActive,
	}
	created, err := s.repo.Create(ctx, promo)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create promotion")
	}
	return created, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Promotion, error) {
	promo, err := s.findByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Description != nil {
		promo.Description = input.Description
	}
	if input.DiscountValue != nil {
		if *input.DiscountValue < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount value must not be negative")
		}
		promo.DiscountValue = *input.DiscountValue
	}
	if input.MinOrderAmount != nil {
		promo.MinOrderAmount = *input.MinOrderAmount
	}
	if input.MaxDiscountAmount != nil {
		promo.MaxDiscountAmount = input.MaxDiscountAmount
	}
	if input.StartDate != nil {
		promo.StartDate = *input.StartDate
	}
	if input.EndDate != nil {
		promo.EndDate = *input.EndDate
	}
	if !promo.EndDate.After(promo.StartDate) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "end date must be after start date")
	}
	if input.UsageLimit != nil {
		if *input.UsageLimit < promo.UsedCount {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "usage limit cannot be below the current used count")
		}
		promo.UsageLimit = input.UsageLimit
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid promotion status")
		}
		promo.Status = *input.Status
	}

	if err := s.repo.Update(ctx, promo); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update promotion")
	}
	return promo, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.findByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete promotion")
	}
	return nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Promotion, error) {
	return s.findByID(ctx, id)
}

func (s *service) List(ctx context.Context) ([]models.Promotion, error) {
	promos, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list promotions")
	}
	return promos, nil
}

func (s *service) findByID(ctx context.Context, id uuid.UUID) (*models.Promotion, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "promotion id required")
	}
	promo, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "promotion not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load promotion")
	}
	return promo, nil
}
