// models/game.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	GameStatusDraft     = "draft"
	GameStatusPublished = "published"
)

// Game is a catalog entry. Items sourced from the upstream marketplace carry
// an ExternalProductID; price, stock and LastSyncAt on those rows are owned
// by the reconciliation jobs and must not be written from anywhere else.
type Game struct {
	ID               string  `gorm:"primaryKey;type:uuid" json:"id"`
	Name             string  `gorm:"not null" json:"name"`
	Slug             string  `gorm:"uniqueIndex;not null" json:"slug"`
	ShortDescription string  `gorm:"type:text" json:"short_description"`

	// Nil for games we stock ourselves; set for marketplace-sourced items.
	ExternalProductID *string `gorm:"uniqueIndex" json:"external_product_id,omitempty"`

	Price      decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0" json:"price"`
	InStock    bool            `gorm:"not null;default:false" json:"in_stock"`
	StockCount int             `gorm:"not null;default:0" json:"stock_count"`
	LastSyncAt *time.Time      `json:"last_sync_at,omitempty"`

	MainLogoURL string `json:"main_logo_url"`
	Status      string `gorm:"default:'draft'" json:"status"` // draft | published

	Categories []Category `gorm:"many2many:game_categories" json:"categories,omitempty"`
	Genres     []Genre    `gorm:"many2many:game_genres" json:"genres,omitempty"`
	Platforms  []Platform `gorm:"many2many:game_platforms" json:"platforms,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

type Category struct {
	ID   string `gorm:"primaryKey;type:uuid" json:"id"`
	Name string `gorm:"not null" json:"name"`
	Slug string `gorm:"uniqueIndex;not null" json:"slug"`
}

type Genre struct {
	ID   string `gorm:"primaryKey;type:uuid" json:"id"`
	Name string `gorm:"not null" json:"name"`
	Slug string `gorm:"uniqueIndex;not null" json:"slug"`
}

type Platform struct {
	ID   string `gorm:"primaryKey;type:uuid" json:"id"`
	Name string `gorm:"not null" json:"name"`
	Slug string `gorm:"uniqueIndex;not null" json:"slug"`
}

// StockChangeEvent records every availability flip observed by the
// stock/price reconciler.
type StockChangeEvent struct {
	ID            string    `gorm:"primaryKey;type:uuid" json:"id"`
	GameID        string    `gorm:"index;not null" json:"game_id"`
	PreviousStock bool      `json:"previous_stock"`
	NewStock      bool      `json:"new_stock"`
	StockCount    int       `json:"stock_count"`
	CreatedAt     time.Time `json:"created_at"`
}
