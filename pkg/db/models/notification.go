package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/velora-dev/storefront-backend/pkg/enums"
)

// Notification is a per-user message created as a side effect of order
// lifecycle events. Delivery is best-effort; rows are written after the
// owning transaction commits.
type Notification struct {
	ID          uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID              `gorm:"column:user_id;type:uuid;not null;index"`
	Type        enums.NotificationType `gorm:"column:type;type:text;not null"`
	Title       string                 `gorm:"column:title;not null"`
	Message     string                 `gorm:"column:message;not null"`
	ReferenceID *uuid.UUID             `gorm:"column:reference_id;type:uuid"`
	ReadAt      *time.Time             `gorm:"column:read_at"`
	CreatedAt   time.Time              `gorm:"column:created_at;autoCreateTime"`
}
