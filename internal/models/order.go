package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the fulfilment state of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// OrderStatuses lists every status in forward order, cancelled last.
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// Valid reports whether s is a recognized status.
func (s OrderStatus) Valid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is allowed out of s.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// PaymentStatus is the settlement state of an order.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// Valid reports whether s is a recognized payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// Order represents one customer purchase.
// Total is derived from the line items and charges and is never accepted from clients.
type Order struct {
	ID                 string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderNumber        string          `json:"order_number" gorm:"uniqueIndex;type:varchar(32);not null"`
	CustomerID         string          `json:"customer_id" gorm:"index;type:varchar(36);not null"`
	Status             OrderStatus     `json:"status" gorm:"index;type:varchar(20);not null"`
	PaymentStatus      PaymentStatus   `json:"payment_status" gorm:"type:varchar(20);not null"`
	PaymentMethod      string          `json:"payment_method" gorm:"type:varchar(50)"`
	PaymentID          string          `json:"payment_id" gorm:"type:varchar(100)"`
	ShippingAddress    string          `json:"shipping_address"`
	ShippingCity       string          `json:"shipping_city" gorm:"type:varchar(100)"`
	ShippingPostalCode string          `json:"shipping_postal_code" gorm:"type:varchar(20)"`
	ShippingPhone      string          `json:"shipping_phone" gorm:"type:varchar(20)"`
	ShippingCost       decimal.Decimal `json:"shipping_cost" gorm:"type:decimal(10,2);not null"`
	TaxAmount          decimal.Decimal `json:"tax_amount" gorm:"type:decimal(10,2);not null"`
	Total              decimal.Decimal `json:"total" gorm:"type:decimal(12,2);not null"`
	Notes              string          `json:"notes"`
	EstimatedDelivery  *time.Time      `json:"estimated_delivery,omitempty"`
	Version            int             `json:"version" gorm:"not null"`
	CreatedAt          time.Time       `json:"created_at" gorm:"index"`
	UpdatedAt          time.Time       `json:"updated_at"`

	StandardItems []OrderDetail     `json:"standard_items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CardItems     []OrderDetailCard `json:"card_items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Tracking      []OrderTracking   `json:"tracking,omitempty" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// OrderDetail is a standard line item: one product at a fixed quantity and unit price.
type OrderDetail struct {
	ID        string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID   string          `json:"order_id" gorm:"index;type:varchar(36);not null"`
	ProductID string          `json:"product_id" gorm:"index;type:varchar(36);not null"`
	Quantity  int             `json:"quantity" gorm:"not null"`
	UnitPrice decimal.Decimal `json:"unit_price" gorm:"type:decimal(10,2);not null"`
	IsActive  bool            `json:"is_active" gorm:"not null"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// OrderDetailCard is a line item bought through a card installment plan.
// Cuotas is the number of installments the customer declared; Installments is
// the divisor used to price each payment.
type OrderDetailCard struct {
	ID           string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID      string          `json:"order_id" gorm:"index;type:varchar(36);not null"`
	ProductID    string          `json:"product_id" gorm:"index;type:varchar(36);not null"`
	CardInfoID   string          `json:"card_info_id" gorm:"index;type:varchar(36);not null"`
	Cuotas       int             `json:"cuotas" gorm:"not null"`
	Installments int             `json:"installments" gorm:"not null"`
	Quantity     int             `json:"quantity" gorm:"not null"`
	Offer        bool            `json:"offer" gorm:"not null"`
	Discount     decimal.Decimal `json:"discount" gorm:"type:decimal(10,2);not null"`
	UnitPrice    decimal.Decimal `json:"unit_price" gorm:"type:decimal(10,2);not null"`
	IsActive     bool            `json:"is_active" gorm:"not null"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// OrderTracking is an immutable record of one status change.
type OrderTracking struct {
	ID             string      `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID        string      `json:"order_id" gorm:"index;type:varchar(36);not null"`
	PreviousStatus OrderStatus `json:"previous_status" gorm:"type:varchar(20);not null"`
	NewStatus      OrderStatus `json:"new_status" gorm:"type:varchar(20);not null"`
	Actor          string      `json:"actor" gorm:"type:varchar(36)"`
	Note           string      `json:"note"`
	CreatedAt      time.Time   `json:"created_at"`
}

// OrderFilter narrows order listings. Zero values match everything.
type OrderFilter struct {
	CustomerID string
	Status     OrderStatus
	Search     string
	From       time.Time
	To         time.Time
	Limit      int
	Offset     int
}
