package enums

type NotificationType string

const (
	NotificationTypeOrderCreated NotificationType = "order_created"
	NotificationTypeOrderStatus  NotificationType = "order_status"
	NotificationTypePromotion    NotificationType = "promotion"
)
