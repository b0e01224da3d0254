package models

import "time"

// NotificationType classifies admin notifications.
type NotificationType string

const (
	NotificationNewOrder       NotificationType = "new_order"
	NotificationLowStock       NotificationType = "low_stock"
	NotificationPaymentPending NotificationType = "payment_pending"
	NotificationSystemAlert    NotificationType = "system_alert"
)

// Notification is an alert shown on the admin dashboard.
type Notification struct {
	ID        string           `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Type      NotificationType `json:"type" gorm:"type:varchar(20);not null"`
	Title     string           `json:"title" gorm:"type:varchar(200);not null"`
	Message   string           `json:"message"`
	IsRead    bool             `json:"is_read" gorm:"index;not null"`
	CreatedAt time.Time        `json:"created_at" gorm:"index"`
}

// AuditAction is what happened to an audited entity.
type AuditAction string

const (
	AuditCreated AuditAction = "CREATED"
	AuditUpdated AuditAction = "UPDATED"
	AuditDeleted AuditAction = "DELETED"
)

// AuditEvent is an append-only record of an administrative change.
type AuditEvent struct {
	ID          string      `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Actor       string      `json:"actor" gorm:"type:varchar(36)"`
	Action      AuditAction `json:"action" gorm:"type:varchar(10);not null"`
	Entity      string      `json:"entity" gorm:"index;type:varchar(50);not null"`
	EntityID    string      `json:"entity_id" gorm:"type:varchar(36)"`
	Description string      `json:"description"`
	CreatedAt   time.Time   `json:"created_at" gorm:"index"`
}

// Event routing keys published on the message broker.
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
	EventOrderPaymentChange = "order.payment_changed"
)

// OrderEvent is the payload of every order.* message.
type OrderEvent struct {
	Type           string        `json:"type"`
	OrderID        string        `json:"order_id"`
	OrderNumber    string        `json:"order_number"`
	CustomerID     string        `json:"customer_id"`
	Status         OrderStatus   `json:"status"`
	PreviousStatus OrderStatus   `json:"previous_status,omitempty"`
	PaymentStatus  PaymentStatus `json:"payment_status"`
	Total          string        `json:"total"`
	OccurredAt     time.Time     `json:"occurred_at"`
}
