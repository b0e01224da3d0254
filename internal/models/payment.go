package models

import "time"

// PaymentMethod is a way of paying, e.g. a card issuer.
type PaymentMethod struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name      string    `json:"name" gorm:"uniqueIndex;type:varchar(100)" validate:"required,min=2,max=100"`
	IsActive  bool      `json:"is_active" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}

// CardInfo is a customer card referenced by installment line items.
// Only the last four digits of the card number are kept.
type CardInfo struct {
	ID              string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	PaymentMethodID string    `json:"payment_method_id" gorm:"index;type:varchar(36);not null" validate:"required"`
	CardHolder      string    `json:"card_holder" gorm:"type:varchar(100)" validate:"required,min=2,max=100"`
	Last4           string    `json:"last4" gorm:"type:varchar(4)" validate:"required,len=4,numeric"`
	Expiration      string    `json:"expiration" gorm:"type:varchar(7)" validate:"required"`
	IsActive        bool      `json:"is_active" gorm:"not null"`
	CreatedAt       time.Time `json:"created_at"`
}
