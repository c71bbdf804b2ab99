package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/velora-dev/storefront-backend/pkg/enums"
)

// Promotion is a coupon definition. UsedCount only moves forward and never
// exceeds UsageLimit when a limit is set.
type Promotion struct {
	ID                uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code              string                `gorm:"column:code;uniqueIndex;not null"`
	Description       *string               `gorm:"column:description"`
	DiscountType      enums.DiscountType    `gorm:"column:discount_type;type:text;not null"`
	DiscountValue     int64                 `gorm:"column:discount_value;not null"`
	MinOrderAmount    int64                 `gorm:"column:min_order_amount;not null;default:0"`
	MaxDiscountAmount *int64                `gorm:"column:max_discount_amount"`
	StartDate         time.Time             `gorm:"column:start_date;not null"`
	EndDate           time.Time             `gorm:"column:end_date;not null"`
	UsageLimit        *int                  `gorm:"column:usage_limit"`
	UsedCount         int                   `gorm:"column:used_count;not null;default:0"`
	Status            enums.PromotionStatus `gorm:"column:status;type:text;not null;default:'active'"`
	CreatedAt         time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
