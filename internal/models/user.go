package models

import "time"

// Role identifies what a user may do in the back office.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
)

// User represents a user of the store.
type User struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name      string    `json:"name" gorm:"type:varchar(100)" validate:"required,min=2,max=100"`
	Email     string    `json:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	Password  string    `json:"password,omitempty" gorm:"-" validate:"required,min=6"`
	Hash      string    `json:"-" gorm:"column:password_hash;type:varchar(255)"`
	Role      Role      `json:"role" gorm:"type:varchar(20);not null"`
	Address   string    `json:"address" gorm:"type:varchar(100)"`
	Phone     string    `json:"phone" gorm:"type:varchar(50)"`
	City      string    `json:"city" gorm:"type:varchar(100)"`
	Bio       string    `json:"bio"`
	IsActive  bool      `json:"is_active" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
