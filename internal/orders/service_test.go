package orders

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/velora-dev/storefront-backend/internal/cart"
	"github.com/velora-dev/storefront-backend/internal/catalog"
	"github.com/velora-dev/storefront-backend/internal/notifications"
	"github.com/velora-dev/storefront-backend/internal/promotions"
	"github.com/velora-dev/storefront-backend/pkg/config"
	"github.com/velora-dev/storefront-backend/pkg/db/models"
	"github.com/velora-dev/storefront-backend/pkg/enums"
	pkgerrors "github.com/velora-dev/storefront-backend/pkg/errors"
	"github.com/velora-dev/storefront-backend/pkg/logger"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
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
		`CREATE TABLE IF NOT EXISTS cart_lines (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  variant_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (user_id, variant_id)
);`,
		`CREATE TABLE IF NOT EXISTS promotions (
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL UNIQUE,
  description TEXT,
  discount_type TEXT NOT NULL,
  discount_value INTEGER NOT NULL,
  min_order_amount INTEGER NOT NULL DEFAULT 0,
  max_discount_amount INTEGER,
  start_date DATETIME NOT NULL,
  end_date DATETIME NOT NULL,
  usage_limit INTEGER,
  used_count INTEGER NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'active',
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  order_code TEXT NOT NULL UNIQUE,
  user_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  total_amount INTEGER NOT NULL,
  discount_amount INTEGER NOT NULL DEFAULT 0,
  shipping_fee INTEGER NOT NULL DEFAULT 0,
  final_amount INTEGER NOT NULL,
  promotion_id TEXT,
  payment_method TEXT NOT NULL,
  payment_status TEXT NOT NULL DEFAULT 'pending',
  shipping_name TEXT NOT NULL,
  shipping_phone TEXT NOT NULL,
  shipping_address TEXT NOT NULL,
  notes TEXT,
  cancel_reason TEXT,
  processed_by TEXT,
  confirmed_at DATETIME,
  shipped_at DATETIME,
  delivered_at DATETIME,
  cancelled_at DATETIME,
  returned_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS order_lines (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  variant_id TEXT,
  product_name TEXT NOT NULL,
  size TEXT NOT NULL,
  color TEXT NOT NULL,
  unit_price INTEGER NOT NULL,
  quantity INTEGER NOT NULL,
  subtotal INTEGER NOT NULL,
  created_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS notifications (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  type TEXT NOT NULL,
  title TEXT NOT NULL,
  message TEXT NOT NULL,
  reference_id TEXT,
  read_at DATETIME,
  created_at DATETIME
);`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func newTestOrderService(t *testing.T, db *gorm.DB) Service {
	t.Helper()

	promoService, err := promotions.NewService(promotions.NewRepository(db))
	require.NoError(t, err)

	notifService, err := notifications.NewService(notifications.NewRepository(db))
	require.NoError(t, err)

	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})

	svc, err := NewService(
		gormTxRunner{db: db},
		NewRepository(db),
		cart.NewRepository(db),
		catalog.NewRepository(db),
		promoService,
		notifService,
		config.ShippingConfig{FlatFee: 30000, FreeThreshold: 1_000_000},
		logg,
	)
	require.NoError(t, err)
	return svc
}

func seedVariant(t *testing.T, db *gorm.DB, price int64, stock int) *models.ProductVariant {
	t.Helper()

	product := &models.Product{
		Name:      "Linen Shirt",
		Slug:      "linen-shirt-" + uuid.NewString(),
		BasePrice: price,
		Status:    enums.ProductStatusActive,
	}
	require.NoError(t, db.Create(product).Error)

	variant := &models.ProductVariant{
		ProductID:     product.ID,
		SKU:           "SKU-" + uuid.NewString(),
		Size:          "M",
		Color:         "white",
		StockQuantity: stock,
		Status:        enums.ProductStatusActive,
	}
	require.NoError(t, db.Create(variant).Error)
	return variant
}

func seedCartLine(t *testing.T, db *gorm.DB, userID, variantID uuid.UUID, qty int) {
	t.Helper()
	require.NoError(t, db.Create(&models.CartLine{
		UserID:    userID,
		VariantID: variantID,
		Quantity:  qty,
	}).Error)
}

func checkoutInput(userID uuid.UUID) CreateInput {
	return CreateInput{
		UserID:          userID,
		PaymentMethod:   enums.PaymentMethodCOD,
		ShippingName:    "Mai Tran",
		ShippingPhone:   "0900000000",
		ShippingAddress: "12 Rue des Halles",
	}
}

func variantStock(t *testing.T, db *gorm.DB, id uuid.UUID) int {
	t.Helper()
	var variant models.ProductVariant
	require.NoError(t, db.Where("id = ?", id).First(&variant).Error)
	return variant.StockQuantity
}

func TestCreateOrderAssemblesFromCart(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newTestOrderService(t, db)
	ctx := context.Background()

	userID := uuid.New()
	variant := seedVariant(t, db, 500_000, 10)
	seedCartLine(t, db, userID, variant.ID, 2)

	order, err := svc.Create(ctx, checkoutInput(userID))
	require.NoError(t, err)

	assert.Equal(t, enums.OrderStatusPending, order.Status)
	assert.Equal(t, int64(1_000_000), order.TotalAmount)
	assert.Zero(t, order.DiscountAmount)
	// At the free-shipping threshold exactly.
	assert.Zero(t, order.ShippingFee)
	assert.Equal(t, int64(1_000_000), order.FinalAmount)
	assert.NotEmpty(t, order.OrderCode)

	require.Len(t, order.Lines, 1)
	assert.Equal(t, "Linen Shirt", order.Lines[0].ProductName)
	assert.Equal(t, int64(500_000), order.Lines[0].UnitPrice)
	assert.Equal(t, 2, order.Lines[0].Quantity)
	assert.Equal(t, int64(1_000_000), order.Lines[0].Subtotal)

	assert.Equal(t, 8, variantStock(t, db, variant.ID))

	var cartCount int64
	require.NoError(t, db.Model(&models.CartLine{}).Where("user_id = ?", userID).Count(&cartCount).Error)
	assert.Zero(t, cartCount, "cart must be empty after checkout")

	var notif models.Notification
	require.NoError(t, db.Where("user_id = ?", userID).First(&notif).Error)
	assert.Equal(t, enums.NotificationTypeOrderCreated, notif.Type)
}

func TestCreateOrderChargesFlatShippingBelowThreshold(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newTestOrderService(t, db)
	ctx := context.Background()

	userID := uuid.New()
	variant := seedVariant(t, db, 100_000, 5)
	seedCartLine(t, db, userID, variant.ID, 2)

	order, err := svc.Create(ctx, checkoutInput(userID))
	require.NoError(t, err)

	assert.Equal(t, int64(200_000), order.TotalAmount)
	assert.Equal(t, int64(30_000), order.ShippingFee)
	assert.Equal(t, int64(230_000), order.FinalAmount)
}

func TestCreateOrderEmptyCart(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newTestOrderService(t, db)

	_, err := svc.Create(context.Background(), checkoutInput(uuid.New()))
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestCreateOrderInsufficientStockRollsBack(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newTestOrderService(t, db)
	ctx := context.Background()

	userID := uuid.New()
	variant := seedVariant(t, db, 100_000, 1)
	seedCartLine(t, db, userID, variant.ID, 3)

	_, err := svc.Create(ctx, checkoutInput(userID))
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
	assert.Contains(t, typed.Message(), "1 available")

	var orderCount int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orderCount).Error)
	assert.Zero(t, orderCount, "no order row may survive the rollback")

	assert.Equal(t, 1, variantStock(t, db, variant.ID), "stock must be untouched")

	var cartCount int64
	require.NoError(t, db.Model(&models.CartLine{}).Where("user_id = ?", userID).Count(&cartCount).Error)
	assert.Equal(t, int64(1), cartCount, "cart must be intact")
}

func TestCreateOrderAppliesPromotion(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newTestOrderService(t, db)
	ctx := context.Background()

	userID := uuid.New()
	variant := seedVariant(t, db, 500_000, 10)
	seedCartLine(t, db, userID, variant.ID, 2)

	maxDiscount := int64(50_000)
	promo := &models.Promotion{
		Code:              "SUMMER10",
		DiscountType:      enums.DiscountTypePercentage,
		DiscountValue:     10,
		MaxDiscountAmount: &maxDiscount,
		StartDate:         time.Now().Add(-time.Hour),
		EndDate:           time.Now().Add(24 * time.Hour),
		Status:            enums.PromotionStatusActive,
	}
	require.NoError(t, db.Create(promo).Error)

	input := checkoutInput(userID)
	input.PromotionCode = "summer10"

	order, err := svc.Create(ctx, input)
	require.NoError(t, err)

	assert.Equal(t, int64(1_000_000), order.TotalAmount)
	assert.Equal(t, int64(50_000), order.DiscountAmount)
	assert.Zero(t, order.ShippingFee)
	assert.Equal(t, int64(950_000), order.FinalAmount)
	require.NotNil(t, order.PromotionID)
	assert.Equal(t, promo.ID, *order.PromotionID)

	var stored models.Promotion
	require.NoError(t, db.Where("id = ?", promo.ID).First(&stored).Error)
	assert.Equal(t, 1, stored.UsedCount)
}

func TestCreateOrderIgnoresInapplicablePromotion(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newTestOrderService(t, db)
	ctx := context.Background()

	userID := uuid.New()
	variant := seedVariant(t, db, 100_000, 5)
	seedCartLine(t, db, userID, variant.ID, 1)

	promo := &models.Promotion{
		Code:          "EXPIRED",
		DiscountType:  enums.DiscountTypeFixedAmount,
		DiscountValue: 20_000,
		StartDate:     time.Now().Add(-48 * time.Hour),
		EndDate:       time.Now().Add(-24 * time.Hour),
		Status:        enums.PromotionStatusActive,
	}
	require.NoError(t, db.Create(promo).Error)

	input := checkoutInput(userID)
	input.PromotionCode = "EXPIRED"

	order, err := svc.Create(ctx, input)
	require.NoError(t, err)

	assert.Zero(t, order.DiscountAmount)
	assert.Nil(t, order.PromotionID)

	var stored models.Promotion
	require.NoError(t, db.Where("id = ?", promo.ID).First(&stored).Error)
	assert.Zero(t, stored.UsedCount)
}

func TestCreateOrderClampsFixedDiscountToSubtotal(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newTestOrderService(t, db)
	ctx := context.Background()

	userID := uuid.New()
	variant := seedVariant(t, db, 50_000, 5)
	seedCartLine(t, db, userID, variant.ID, 1)

	promo := &models.Promotion{
		Code:          "BIGCUT",
		DiscountType:  enums.DiscountTypeFixedAmount,
		DiscountValue: 75_000,
		StartDate:     time.Now().Add(-time.Hour),
		EndDate:       time.Now().Add(24 * time.Hour),
		Status:        enums.PromotionStatusActive,
	}
	require.NoError(t, db.Create(promo).Error)

	input := checkoutInput(userID)
	input.PromotionCode = "BIGCUT"

	order, err := svc.Create(ctx, input)
	require.NoError(t, err)

	assert.Equal(t, int64(50_000), order.TotalAmount)
	assert.Equal(t, int64(50_000), order.DiscountAmount, "discount never exceeds the subtotal")
	assert.Equal(t, int64(30_000), order.ShippingFee)
	assert.Equal(t, int64(30_000), order.FinalAmount)
}

func TestCreateOrderFreeShippingPromotion(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newTestOrderService(t, db)
	ctx := context.Background()

	userID := uuid.New()
	variant := seedVariant(t, db, 100_000, 5)
	seedCartLine(t, db, userID, variant.ID, 1)

	promo := &models.Promotion{
		Code:          "SHIPFREE",
		DiscountType:  enums.DiscountTypeFreeShipping,
		DiscountValue: 0,
		StartDate:     time.Now().Add(-time.Hour),
		EndDate:       time.Now().Add(24 * time.Hour),
		Status:        enums.PromotionStatusActive,
	}
	require.NoError(t, db.Create(promo).Error)

	input := checkoutInput(userID)
	input.PromotionCode = "SHIPFREE"

	order, err := svc.Create(ctx, input)
	require.NoError(t, err)

	assert.Equal(t, int64(100_000), order.TotalAmount)
	assert.Zero(t, order.DiscountAmount)
	assert.Zero(t, order.ShippingFee)
	assert.Equal(t, int64(100_000), order.FinalAmount)
}

func TestCancelRestoresStock(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newTestOrderService(t, db)
	ctx := context.Background()

	userID := uuid.New()
	variant := seedVariant(t, db, 100_000, 5)
	seedCartLine(t, db, userID, variant.ID, 2)

	order, err := svc.Create(ctx, checkoutInput(userID))
	require.NoError(t, err)
	assert.Equal(t, 3, variantStock(t, db, variant.ID))

	reason := "changed my mind"
	cancelled, err := svc.Cancel(ctx, CancelInput{OrderID: order.ID, UserID: userID, Reason: &reason})
	require.NoError(t, err)

	assert.Equal(t, enums.OrderStatusCancelled, cancelled.Status)
	assert.NotNil(t, cancelled.CancelledAt)
	require.NotNil(t, cancelled.CancelReason)
	assert.Equal(t, reason, *cancelled.CancelReason)
	assert.Equal(t, 5, variantStock(t, db, variant.ID), "cancelled units must return to stock")

	var notifCount int64
	require.NoError(t, db.Model(&models.Notification{}).
		Where("user_id = ? AND type = ?", userID, enums.NotificationTypeOrderStatus).
		Count(&notifCount).Error)
	assert.Equal(t, int64(1), notifCount)
}

func TestCancelWithoutReasonStoresDefaultText(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newTestOrderService(t, db)
	ctx := context.Background()

	userID := uuid.New()
	variant := seedVariant(t, db, 100_000, 5)
	seedCartLine(t, db, userID, variant.ID, 1)

	order, err := svc.Create(ctx, checkoutInput(userID))
	require.NoError(t, err)

	cancelled, err := svc.Cancel(ctx, CancelInput{OrderID: order.ID, UserID: userID})
	require.NoError(t, err)
	require.NotNil(t, cancelled.CancelReason)
	assert.Equal(t, "no reason provided", *cancelled.CancelReason)

	var stored models.Order
	require.NoError(t, db.Where("id = ?", order.ID).First(&stored).Error)
	require.NotNil(t, stored.CancelReason)
	assert.Equal(t, "no reason provided", *stored.CancelReason)
}

func TestCancelRejectedOnceProcessing(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newTestOrderService(t, db)
	ctx := context.Background()

	userID := uuid.New()
	variant := seedVariant(t, db, 100_000, 5)
	seedCartLine(t, db, userID, variant.ID, 1)

	order, err := svc.Create(ctx, checkoutInput(userID))
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.Order{}).
		Where("id = ?", order.ID).
		Update("status", enums.OrderStatusProcessing).Error)

	_, err = svc.Cancel(ctx, CancelInput{OrderID: order.ID, UserID: userID})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())

	assert.Equal(t, 4, variantStock(t, db, variant.ID), "stock stays reserved")
}

func TestCancelSomeoneElsesOrder(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newTestOrderService(t, db)
	ctx := context.Background()

	userID := uuid.New()
	variant := seedVariant(t, db, 100_000, 5)
	seedCartLine(t, db, userID, variant.ID, 1)

	order, err := svc.Create(ctx, checkoutInput(userID))
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, CancelInput{OrderID: order.ID, UserID: uuid.New()})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestTransitionIllegalJump(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newTestOrderService(t, db)
	ctx := context.Background()

	userID := uuid.New()
	variant := seedVariant(t, db, 100_000, 5)
	seedCartLine(t, db, userID, variant.ID, 1)

	order, err := svc.Create(ctx, checkoutInput(userID))
	require.NoError(t, err)

	_, err = svc.Transition(ctx, TransitionInput{
		OrderID: order.ID,
		ActorID: uuid.New(),
		To:      enums.OrderStatusShipped,
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func TestTransitionFullLifecycleAndReturn(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newTestOrderService(t, db)
	ctx := context.Background()

	userID := uuid.New()
	staffID := uuid.New()
	variant := seedVariant(t, db, 100_000, 5)
	seedCartLine(t, db, userID, variant.ID, 2)

	order, err := svc.Create(ctx, checkoutInput(userID))
	require.NoError(t, err)
	assert.Equal(t, 3, variantStock(t, db, variant.ID))

	steps := []enums.OrderStatus{
		enums.OrderStatusConfirmed,
		enums.OrderStatusProcessing,
		enums.OrderStatusShipped,
		enums.OrderStatusDelivered,
	}
	for _, step := range steps {
		order, err = svc.Transition(ctx, TransitionInput{OrderID: order.ID, ActorID: staffID, To: step})
		require.NoError(t, err)
		assert.Equal(t, step, order.Status)
	}
	// Delivery alone never returns stock.
	assert.Equal(t, 3, variantStock(t, db, variant.ID))
	assert.NotNil(t, order.ConfirmedAt)
	assert.NotNil(t, order.ShippedAt)
	assert.NotNil(t, order.DeliveredAt)
	assert.Equal(t, enums.PaymentStatusCompleted, order.PaymentStatus)

	var stored models.Order
	require.NoError(t, db.Where("id = ?", order.ID).First(&stored).Error)
	assert.Equal(t, enums.PaymentStatusCompleted, stored.PaymentStatus, "delivery settles the payment")

	order, err = svc.Transition(ctx, TransitionInput{OrderID: order.ID, ActorID: staffID, To: enums.OrderStatusReturned})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusReturned, order.Status)
	assert.NotNil(t, order.ReturnedAt)
	assert.Equal(t, 5, variantStock(t, db, variant.ID), "returned units go back to stock")
}

func TestTransitionReturnFromShipped(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newTestOrderService(t, db)
	ctx := context.Background()

	userID := uuid.New()
	staffID := uuid.New()
	variant := seedVariant(t, db, 100_000, 5)
	seedCartLine(t, db, userID, variant.ID, 2)

	order, err := svc.Create(ctx, checkoutInput(userID))
	require.NoError(t, err)

	for _, step := range []enums.OrderStatus{
		enums.OrderStatusConfirmed,
		enums.OrderStatusProcessing,
		enums.OrderStatusShipped,
	} {
		order, err = svc.Transition(ctx, TransitionInput{OrderID: order.ID, ActorID: staffID, To: step})
		require.NoError(t, err)
	}

	// A shipment refused at the door comes back without ever being delivered.
	order, err = svc.Transition(ctx, TransitionInput{OrderID: order.ID, ActorID: staffID, To: enums.OrderStatusReturned})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusReturned, order.Status)
	assert.NotNil(t, order.ReturnedAt)
	assert.Nil(t, order.DeliveredAt)
	assert.Equal(t, enums.PaymentStatusPending, order.PaymentStatus)
	assert.Equal(t, 5, variantStock(t, db, variant.ID), "refused units go back to stock")
}
