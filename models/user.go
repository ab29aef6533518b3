// models/user.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StoreUser is the storefront's local customer record. Balance must never go
// negative; the cancellation workflow only ever increments it.
type StoreUser struct {
	ID      string          `gorm:"primaryKey;type:uuid" json:"id"`
	Email   string          `gorm:"uniqueIndex;not null" json:"email"`
	Balance decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0" json:"balance"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
