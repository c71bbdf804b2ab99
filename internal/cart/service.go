package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/velora-dev/storefront-backend/pkg/db/models"
	"github.com/velora-dev/storefront-backend/pkg/enums"
	pkgerrors "github.com/velora-dev/storefront-backend/pkg/errors"
)

type variantLoader interface {
	FindVariant(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error)
	FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service exposes cart mutation and the view used by the storefront.
type Service interface {
	View(ctx context.Context, userID uuid.UUID) (*View, error)
	AddItem(ctx context.Context, userID, variantID uuid.UUID, quantity int) error
	UpdateItem(ctx context.Context, userID, variantID uuid.UUID, quantity int) error
	RemoveItem(ctx context.Context, userID, variantID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
}

// View is a priced rendering of the user's cart.
type View struct {
	Lines       []ViewLine `json:"lines"`
	TotalAmount int64      `json:"total_amount"`
}

type ViewLine struct {
	VariantID   uuid.UUID `json:"variant_id"`
	ProductName string    `json:"product_name"`
	Size        string    `json:"size"`
	Color       string    `json:"color"`
	UnitPrice   int64     `json:"unit_price"`
	Quantity    int       `json:"quantity"`
	Subtotal    int64     `json:"subtotal"`
	InStock     bool      `json:"in_stock"`
}

type service struct {
	repo    Repository
	catalog variantLoader
}

// NewService wires the cart dependencies.
func NewService(repo Repository, catalog variantLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog loader required")
	}
	return &service{repo: repo, catalog: catalog}, nil
}

func (s *service) View(ctx context.Context, userID uuid.UUID) (*View, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	lines, err := s.repo.ListCheckoutLines(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart lines")
	}

	view := &View{Lines: make([]ViewLine, 0, len(lines))}
	for _, line := range lines {
		subtotal := line.UnitPrice * int64(line.Quantity)
		view.Lines = append(view.Lines, ViewLine{
			VariantID:   line.VariantID,
			ProductName: line.ProductName,
			Size:        line.Size,
			Color:       line.Color,
			UnitPrice:   line.UnitPrice,
			Quantity:    line.Quantity,
			Subtotal:    subtotal,
			InStock:     line.StockQuantity >= line.Quantity,
		})
		view.TotalAmount += subtotal
	}
	return view, nil
}

func (s *service) AddItem(ctx context.Context, userID, variantID uuid.UUID, quantity int) error {
	if err := validateLineInput(userID, variantID, quantity); err != nil {
		return err
	}

	variant, err := s.loadActiveVariant(ctx, variantID)
	if err != nil {
		return err
	}

	existing, err := s.repo.FindLine(ctx, userID, variantID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
	}

	// Adding an already-carted variant accumulates quantity.
	target := quantity
	if existing != nil {
		target += existing.Quantity
	}
	if variant.StockQuantity < target {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("only %d units available", variant.StockQuantity))
	}

	if existing != nil {
		if _, err := s.repo.UpdateQuantity(ctx, userID, variantID, target); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart line")
		}
		return nil
	}

	line := &models.CartLine{UserID: userID, VariantID: variantID, Quantity: quantity}
	if err := s.repo.UpsertLine(ctx, line); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart line")
	}
	return nil
}

func (s *service) UpdateItem(ctx context.Context, userID, variantID uuid.UUID, quantity int) error {
	if err := validateLineInput(userID, variantID, quantity); err != nil {
		return err
	}

	variant, err := s.loadActiveVariant(ctx, variantID)
	if err != nil {
		return err
	}
	if variant.StockQuantity < quantity {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("only %d units available", variant.StockQuantity))
	}

	affected, err := s.repo.UpdateQuantity(ctx, userID, variantID, quantity)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart line")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}
	return nil
}

func (s *service) RemoveItem(ctx context.Context, userID, variantID uuid.UUID) error {
	if userID == uuid.Nil || variantID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id and variant id required")
	}

	affected, err := s.repo.RemoveLine(ctx, userID, variantID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart line")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}
	return nil
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if err := s.repo.ClearForUser(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

func (s *service) loadActiveVariant(ctx context.Context, variantID uuid.UUID) (*models.ProductVariant, error) {
	variant, err := s.catalog.FindVariant(ctx, variantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product variant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variant")
	}
	if variant.Status != enums.ProductStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product variant is unavailable")
	}

	product, err := s.catalog.FindProduct(ctx, variant.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if product.Status != enums.ProductStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is unavailable")
	}
	return variant, nil
}

func validateLineInput(userID, variantID uuid.UUID, quantity int) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if variantID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "variant id required")
	}
	if quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	return nil
}
