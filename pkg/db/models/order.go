package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/velora-dev/storefront-backend/pkg/enums"
)

// Order is the immutable record of a completed checkout. Line items never
// change after creation; only status, payment status and the transition
// timestamps mutate.
type Order struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderCode       string              `gorm:"column:order_code;uniqueIndex;not null"`
	UserID          uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	Status          enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'pending'"`
	TotalAmount     int64               `gorm:"column:total_amount;not null"`
	DiscountAmount  int64               `gorm:"column:discount_amount;not null;default:0"`
	ShippingFee     int64               `gorm:"column:shipping_fee;not null;default:0"`
	FinalAmount     int64               `gorm:"column:final_amount;not null"`
	PromotionID     *uuid.UUID          `gorm:"column:promotion_id;type:uuid"`
	PaymentMethod   enums.PaymentMethod `gorm:"column:payment_method;type:text;not null"`
	PaymentStatus   enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'pending'"`
	ShippingName    string              `gorm:"column:shipping_name;not null"`
	ShippingPhone   string              `gorm:"column:shipping_phone;not null"`
	ShippingAddress string              `gorm:"column:shipping_address;not null"`
	Notes           *string             `gorm:"column:notes"`
	CancelReason    *string             `gorm:"column:cancel_reason"`
	ProcessedBy     *uuid.UUID          `gorm:"column:processed_by;type:uuid"`
	ConfirmedAt     *time.Time          `gorm:"column:confirmed_at"`
	ShippedAt       *time.Time          `gorm:"column:shipped_at"`
	DeliveredAt     *time.Time          `gorm:"column:delivered_at"`
	CancelledAt     *time.Time          `gorm:"column:cancelled_at"`
	ReturnedAt      *time.Time          `gorm:"column:returned_at"`
	Lines           []OrderLine         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderLine is a frozen snapshot of a cart line captured at order creation.
// Product name, size, color and price are copied, not referenced, so later
// catalog edits cannot rewrite purchase history. VariantID is retained only
// to restore stock on cancellation.
type OrderLine struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID  `gorm:"column:order_id;type:uuid;not null;index"`
	VariantID   *uuid.UUID `gorm:"column:variant_id;type:uuid"`
	ProductName string     `gorm:"column:product_name;not null"`
	Size        string     `gorm:"column:size;not null"`
	Color       string     `gorm:"column:color;not null"`
	UnitPrice   int64      `gorm:"column:unit_price;not null"`
	Quantity    int        `gorm:"column:quantity;not null"`
	Subtotal    int64      `gorm:"column:subtotal;not null"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
}
