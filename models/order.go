// models/order.go
package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusCompleted  OrderStatus = "COMPLETED"
	OrderStatusFailed     OrderStatus = "FAILED"
	OrderStatusCancelled  OrderStatus = "CANCELLED" // terminal
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
)

type Order struct {
	ID            string          `gorm:"primaryKey;type:uuid" json:"id"`
	UserID        string          `gorm:"index;not null" json:"user_id"`
	Status        OrderStatus     `gorm:"not null;default:'PENDING'" json:"status"`
	PaymentStatus PaymentStatus   `gorm:"not null;default:'PENDING'" json:"payment_status"`
	Total         decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"total"`
	Currency      string          `gorm:"size:3;not null;default:'USD'" json:"currency"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty"`
	CancelReason  string          `json:"cancel_reason,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// allowedTransitions is the full legal move table. CANCELLED has no exits.
var allowedTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusCompleted, OrderStatusFailed, OrderStatusCancelled},
	OrderStatusCompleted:  {OrderStatusCancelled},
	OrderStatusFailed:     {OrderStatusPending, OrderStatusProcessing},
	OrderStatusCancelled:  {},
}

// AllowedTransitionsFrom returns the statuses reachable from s.
func AllowedTransitionsFrom(s OrderStatus) []OrderStatus {
	next := allowedTransitions[s]
	out := make([]OrderStatus, len(next))
	copy(out, next)
	return out
}

// CanTransitionTo reports whether moving from s to next is legal.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// InvalidTransitionError is returned when a requested status change is not in
// the transition table. The order is left untouched.
type InvalidTransitionError struct {
	Current   OrderStatus
	Requested OrderStatus
	Allowed   []OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid order status transition %s -> %s (allowed: %v)",
		e.Current, e.Requested, e.Allowed)
}
