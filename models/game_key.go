// models/game_key.go
package models

import "time"

// GameKey is a digital key held in inventory or bound to an order.
// A key bound to a COMPLETED order is never deleted; keys tied to an order
// that never completed are released by the cancellation workflow.
type GameKey struct {
	ID        string  `gorm:"primaryKey;type:uuid" json:"id"`
	GameID    string  `gorm:"index;not null" json:"game_id"`
	OrderID   *string `gorm:"index" json:"order_id,omitempty"`
	Key       string  `gorm:"not null" json:"-"` // never serialized
	Activated bool    `gorm:"not null;default:false" json:"activated"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
