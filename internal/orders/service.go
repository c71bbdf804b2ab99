package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/velora-dev/storefront-backend/internal/cart"
	"github.com/velora-dev/storefront-backend/internal/catalog"
	"github.com/velora-dev/storefront-backend/internal/promotions"
	"github.com/velora-dev/storefront-backend/pkg/config"
	"github.com/velora-dev/storefront-backend/pkg/db/models"
	"github.com/velora-dev/storefront-backend/pkg/enums"
	pkgerrors "github.com/velora-dev/storefront-backend/pkg/errors"
	"github.com/velora-dev/storefront-backend/pkg/logger"
	"github.com/velora-dev/storefront-backend/pkg/pagination"
)

// defaultCancelReason is recorded when a cancellation arrives without one.
const defaultCancelReason = "no reason provided"

// txRunner runs a function inside a single database transaction.
type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// notifier records in-app notifications for order events. Failures here
// never fail the order operation that triggered them.
type notifier interface {
	OrderCreated(ctx context.Context, order *models.Order) error
	OrderStatusChanged(ctx context.Context, order *models.Order, from enums.OrderStatus) error
}

// Service owns the order lifecycle: checkout assembly, status transitions
// and cancellations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Order, error)
	Get(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error)
	GetAny(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderPage, error)
	Transition(ctx context.Context, input TransitionInput) (*models.Order, error)
	Cancel(ctx context.Context, input CancelInput) (*models.Order, error)
}

type service struct {
	tx       txRunner
	orders   Repository
	carts    cart.Repository
	catalog  catalog.Repository
	promos   promotions.Service
	notify   notifier
	shipping config.ShippingConfig
	logg     *logger.Logger
	now      func() time.Time
}

// NewService wires the order lifecycle dependencies. The notifier may be nil
// when notifications are disabled.
func NewService(
	tx txRunner,
	orders Repository,
	carts cart.Repository,
	catalogRepo catalog.Repository,
	promos promotions.Service,
	notify notifier,
	shipping config.ShippingConfig,
	logg *logger.Logger,
) (Service, error) {
	if tx == nil || orders == nil || carts == nil || catalogRepo == nil || promos == nil || logg == nil {
		return nil, fmt.Errorf("order service missing dependencies")
	}
	return &service{
		tx:       tx,
		orders:   orders,
		carts:    carts,
		catalog:  catalogRepo,
		promos:   promos,
		notify:   notify,
		shipping: shipping,
		logg:     logg,
		now:      time.Now,
	}, nil
}

// Create turns the user's cart into an order. Everything from the stock
// decrements to the cart wipe happens in one transaction; an insufficient
// stock race or an exhausted promotion rolls the whole checkout back.
func (s *service) Create(ctx context.Context, input CreateInput) (*models.Order, error) {
	if err := validateCreateInput(input); err != nil {
		return nil, err
	}
	now := s.now()

	var created *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cartRepo := s.carts.WithTx(tx)
		orderRepo := s.orders.WithTx(tx)
		stockRepo := s.catalog.WithTx(tx)

		lines, err := cartRepo.ListCheckoutLines(ctx, input.UserID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart for checkout")
		}
		if len(lines) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}

		// Validate every line before any mutation so a rejection never
		// leaves a half-reserved cart behind.
		var total int64
		for _, line := range lines {
			if err := validateCheckoutLine(line); err != nil {
				return err
			}
			total += line.UnitPrice * int64(line.Quantity)
		}

		shippingFee := s.shippingFee(total)

		var discount int64
		var promotionID *uuid.UUID
		if code := strings.TrimSpace(input.PromotionCode); code != "" {
			eval, err := s.promos.Evaluate(ctx, code, total, now)
			if err != nil {
				return err
			}
			// An inapplicable code is dropped without failing the
			// checkout; the order simply prices without it.
			if eval.Applicable {
				discount = eval.DiscountAmount
				if discount > total {
					discount = total
				}
				if eval.FreeShipping {
					shippingFee = 0
				}
				id := eval.Promotion.ID
				promotionID = &id
			}
		}

		code, err := GenerateOrderCode(now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate order code")
		}

		order := &models.Order{
			OrderCode:       code,
			UserID:          input.UserID,
			Status:          enums.OrderStatusPending,
			TotalAmount:     total,
			DiscountAmount:  discount,
			ShippingFee:     shippingFee,
			FinalAmount:     total - discount + shippingFee,
			PromotionID:     promotionID,
			PaymentMethod:   input.PaymentMethod,
			PaymentStatus:   enums.PaymentStatusPending,
			ShippingName:    input.ShippingName,
			ShippingPhone:   input.ShippingPhone,
			ShippingAddress: input.ShippingAddress,
			Notes:           input.Notes,
		}
		if err := orderRepo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		orderLines := make([]models.OrderLine, 0, len(lines))
		for _, line := range lines {
			variantID := line.VariantID
			orderLines = append(orderLines, models.OrderLine{
				OrderID:     order.ID,
				VariantID:   &variantID,
				ProductName: line.ProductName,
				Size:        line.Size,
				Color:       line.Color,
				UnitPrice:   line.UnitPrice,
				Quantity:    line.Quantity,
				Subtotal:    line.UnitPrice * int64(line.Quantity),
			})

			ok, err := stockRepo.DecrementStock(ctx, line.VariantID, line.Quantity)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve stock")
			}
			if !ok {
				// Lost the race after validation passed. Re-read so the
				// client learns how many units are actually left.
				available := 0
				if variant, lookupErr := stockRepo.FindVariant(ctx, line.VariantID); lookupErr == nil {
					available = variant.StockQuantity
				}
				return insufficientStock(line, available)
			}
		}
		if err := orderRepo.CreateLines(ctx, orderLines); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order lines")
		}
		order.Lines = orderLines

		if promotionID != nil {
			ok, err := s.promos.Redeem(ctx, tx, *promotionID)
			if err != nil {
				return err
			}
			if !ok {
				return pkgerrors.New(pkgerrors.CodeConflict, "promotion usage limit reached")
			}
		}

		if err := cartRepo.ClearForUser(ctx, input.UserID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}

		created = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyCreated(ctx, created)
	return created, nil
}

func (s *service) Get(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	order, err := s.orders.FindByIDForUser(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) GetAny(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderPage, error) {
	orders, cursor, err := s.orders.ListByUser(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return &OrderPage{Items: orders, Cursor: cursor}, nil
}

// Transition moves an order along the lifecycle on behalf of staff. Stock
// flows back when the destination is cancelled or returned.
func (s *service) Transition(ctx context.Context, input TransitionInput) (*models.Order, error) {
	if !input.To.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
	}

	var updated *models.Order
	var previous enums.OrderStatus
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, from, err := s.applyTransition(ctx, tx, input.OrderID, input.To, func(changes map[string]any) {
			changes["processed_by"] = input.ActorID
			if input.To == enums.OrderStatusCancelled && input.CancelReason != nil {
				changes["cancel_reason"] = *input.CancelReason
			}
		})
		if err != nil {
			return err
		}
		order.ProcessedBy = &input.ActorID
		updated = order
		previous = from
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyStatusChanged(ctx, updated, previous)
	return updated, nil
}

// Cancel lets a customer withdraw their own order while it is still pending
// or confirmed. Later stages require staff involvement.
func (s *service) Cancel(ctx context.Context, input CancelInput) (*models.Order, error) {
	var updated *models.Order
	var previous enums.OrderStatus
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		orderRepo := s.orders.WithTx(tx)

		order, err := orderRepo.FindByIDForUser(ctx, input.OrderID, input.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.Status != enums.OrderStatusPending && order.Status != enums.OrderStatusConfirmed {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("order in status %s can no longer be cancelled", order.Status)).
				WithDetails(map[string]any{"status": order.Status})
		}

		result, from, err := s.applyTransition(ctx, tx, order.ID, enums.OrderStatusCancelled, func(changes map[string]any) {
			if input.Reason != nil {
				changes["cancel_reason"] = *input.Reason
			}
		})
		if err != nil {
			return err
		}
		updated = result
		previous = from
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyStatusChanged(ctx, updated, previous)
	return updated, nil
}

// applyTransition is the shared core of Transition and Cancel. It checks the
// lifecycle graph, performs the guarded status update, stamps the timestamp
// column and restores stock when the move requires it. The guarded update is
// what makes concurrent transitions on the same order safe.
func (s *service) applyTransition(
	ctx context.Context,
	tx *gorm.DB,
	orderID uuid.UUID,
	to enums.OrderStatus,
	decorate func(changes map[string]any),
) (*models.Order, enums.OrderStatus, error) {
	orderRepo := s.orders.WithTx(tx)
	stockRepo := s.catalog.WithTx(tx)

	order, err := orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	from := order.Status
	if !CanTransition(from, to) {
		return nil, "", pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move order from %s to %s", from, to)).
			WithDetails(map[string]any{"from": from, "to": to})
	}

	now := s.now()
	changes := map[string]any{
		"status":     to,
		"updated_at": now,
	}
	switch to {
	case enums.OrderStatusConfirmed:
		changes["confirmed_at"] = now
	case enums.OrderStatusShipped:
		changes["shipped_at"] = now
	case enums.OrderStatusDelivered:
		changes["delivered_at"] = now
		// Delivery settles the payment for both supported methods.
		changes["payment_status"] = enums.PaymentStatusCompleted
	case enums.OrderStatusCancelled:
		changes["cancelled_at"] = now
		// Callers overwrite this through decorate when a reason was given.
		changes["cancel_reason"] = defaultCancelReason
	case enums.OrderStatusReturned:
		changes["returned_at"] = now
	}
	if decorate != nil {
		decorate(changes)
	}

	ok, err := orderRepo.UpdateStatus(ctx, order.ID, from, changes)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	if !ok {
		return nil, "", pkgerrors.New(pkgerrors.CodeStateConflict,
			"order status changed concurrently").
			WithDetails(map[string]any{"from": from, "to": to})
	}

	if restoresStock(to) {
		for _, line := range order.Lines {
			if line.VariantID == nil {
				continue
			}
			if err := stockRepo.RestoreStock(ctx, *line.VariantID, line.Quantity); err != nil {
				return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore stock")
			}
		}
	}

	order.Status = to
	applyTimestamp(order, to, now)
	if to == enums.OrderStatusDelivered {
		order.PaymentStatus = enums.PaymentStatusCompleted
	}
	if to == enums.OrderStatusCancelled {
		if reason, ok := changes["cancel_reason"].(string); ok {
			order.CancelReason = &reason
		}
	}
	order.UpdatedAt = now
	return order, from, nil
}

func (s *service) shippingFee(total int64) int64 {
	if total >= s.shipping.FreeThreshold {
		return 0
	}
	return s.shipping.FlatFee
}

func (s *service) notifyCreated(ctx context.Context, order *models.Order) {
	if s.notify == nil || order == nil {
		return
	}
	if err := s.notify.OrderCreated(ctx, order); err != nil {
		s.logg.Warn(s.logg.WithOrderID(ctx, order.ID.String()), "order created notification failed")
	}
}

func (s *service) notifyStatusChanged(ctx context.Context, order *models.Order, from enums.OrderStatus) {
	if s.notify == nil || order == nil {
		return
	}
	if err := s.notify.OrderStatusChanged(ctx, order, from); err != nil {
		s.logg.Warn(s.logg.WithOrderID(ctx, order.ID.String()), "order status notification failed")
	}
}

func validateCreateInput(input CreateInput) error {
	details := map[string]string{}
	if input.UserID == uuid.Nil {
		details["user_id"] = "required"
	}
	if !input.PaymentMethod.IsValid() {
		details["payment_method"] = "must be one of cod, bank_transfer"
	}
	if strings.TrimSpace(input.ShippingName) == "" {
		details["shipping_name"] = "required"
	}
	if strings.TrimSpace(input.ShippingPhone) == "" {
		details["shipping_phone"] = "required"
	}
	if strings.TrimSpace(input.ShippingAddress) == "" {
		details["shipping_address"] = "required"
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid checkout request").WithDetails(details)
	}
	return nil
}

func validateCheckoutLine(line cart.CheckoutLine) error {
	if line.ProductStatus != string(enums.ProductStatusActive) || line.VariantStatus != string(enums.ProductStatusActive) {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("%s (%s/%s) is no longer available", line.ProductName, line.Size, line.Color))
	}
	if line.Quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart line has invalid quantity")
	}
	if line.StockQuantity < line.Quantity {
		return insufficientStock(line, line.StockQuantity)
	}
	return nil
}

func insufficientStock(line cart.CheckoutLine, available int) error {
	return pkgerrors.New(pkgerrors.CodeConflict,
		fmt.Sprintf("insufficient stock for %s (%s/%s): %d available", line.ProductName, line.Size, line.Color, available)).
		WithDetails(map[string]any{"product": line.ProductName, "available": available})
}
