package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Category groups products in the catalog.
type Category struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name      string    `json:"name" gorm:"uniqueIndex;type:varchar(100)" validate:"required,min=2,max=100"`
	Active    bool      `json:"active" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}

// Brand is the manufacturer of a product.
type Brand struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name      string    `json:"name" gorm:"uniqueIndex;type:varchar(100)" validate:"required,min=2,max=100"`
	Active    bool      `json:"active" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}

// Product represents a product in the store.
type Product struct {
	ID          string          `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name        string          `json:"name" gorm:"type:varchar(100)" validate:"required,min=3,max=100"`
	Description string          `json:"description" validate:"omitempty,max=1000"`
	Image       string          `json:"image"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null" validate:"gt=0"`
	Stock       int             `json:"stock" gorm:"not null" validate:"gte=0"`
	MinStock    int             `json:"min_stock" gorm:"not null" validate:"gte=0"`
	BrandID     string          `json:"brand_id" gorm:"index;type:varchar(36)"`
	CategoryID  string          `json:"category_id" gorm:"index;type:varchar(36)"`
	Active      bool            `json:"active" gorm:"not null"`
	CreatedBy   string          `json:"created_by" gorm:"type:varchar(36)"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `json:"-" gorm:"index"`
}

// IsBelowMinStock reports whether the product needs restocking.
func (p *Product) IsBelowMinStock() bool {
	return p.Stock < p.MinStock
}
