// models/transaction.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeTopUp    TransactionType = "TOP_UP"
	TransactionTypePurchase TransactionType = "PURCHASE"
	TransactionTypeRefund   TransactionType = "REFUND"
)

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
)

// Transaction is a money movement. Rows are immutable once COMPLETED.
// Invariant: at most one COMPLETED REFUND per order.
type Transaction struct {
	ID       string            `gorm:"primaryKey;type:uuid" json:"id"`
	OrderID  *string           `gorm:"index" json:"order_id,omitempty"`
	UserID   string            `gorm:"index;not null" json:"user_id"`
	Type     TransactionType   `gorm:"not null" json:"type"`
	Amount   decimal.Decimal   `gorm:"type:numeric(20,2);not null" json:"amount"`
	Currency string            `gorm:"size:3;not null;default:'USD'" json:"currency"`
	Status   TransactionStatus `gorm:"not null" json:"status"`
	Note     string            `json:"note,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
