// storage/interfaces.go
package storage

import (
	"context"
	"errors"
	"time"

	"gamekey-storefront/models"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned by lookups when no row matches.
var ErrNotFound = errors.New("record not found")

// GameStore is the persistence surface used by the stock/price reconciler.
type GameStore interface {
	// ListExternallySourced returns all live games with an external product id.
	ListExternallySourced(ctx context.Context) ([]models.Game, error)

	// ApplyStockChange writes the observed availability plus last_sync_at and
	// records a StockChangeEvent, all in one transaction.
	ApplyStockChange(ctx context.Context, game *models.Game, inStock bool, stockCount int, syncedAt time.Time) error

	// TouchLastSync bumps last_sync_at without touching stock.
	TouchLastSync(ctx context.Context, gameID string, syncedAt time.Time) error

	// UpdatePrice writes a new price plus last_sync_at.
	UpdatePrice(ctx context.Context, gameID string, price decimal.Decimal, syncedAt time.Time) error
}

// CatalogStore is the persistence surface used by the full catalog syncer.
type CatalogStore interface {
	// ListUpstreamGames returns live upstream-sourced games keyed by external
	// product id.
	ListUpstreamGames(ctx context.Context) (map[string]models.Game, error)

	CreateGame(ctx context.Context, game *models.Game) error
	UpdateGameFromUpstream(ctx context.Context, game *models.Game) error

	// FindRetiredByExternalID returns the soft-deleted game previously sourced
	// from the given upstream product, or nil when none exists. Retired rows
	// keep their external product id, so a re-offered product must revive the
	// old row instead of inserting a duplicate.
	FindRetiredByExternalID(ctx context.Context, externalID string) (*models.Game, error)

	// RestoreGame clears the soft delete and writes the upstream fields back
	// onto the row.
	RestoreGame(ctx context.Context, game *models.Game) error

	// SoftDeleteMissingUpstream soft-deletes upstream-sourced games whose
	// external product id is not in keep. Returns the number removed.
	SoftDeleteMissingUpstream(ctx context.Context, keep []string) (int64, error)

	// EnsureCategory/Genre/Platform find-or-create by slug. The bool reports
	// whether a new row was created.
	EnsureCategory(ctx context.Context, name string) (*models.Category, bool, error)
	EnsureGenre(ctx context.Context, name string) (*models.Genre, bool, error)
	EnsurePlatform(ctx context.Context, name string) (*models.Platform, bool, error)

	ReplaceGameRelations(ctx context.Context, game *models.Game, categories []*models.Category, genres []*models.Genre, platforms []*models.Platform) error
}

// OrderTx groups the order/transaction/key/balance operations available
// inside one unit of work. Implementations run against a single database
// transaction; the order row is locked for the duration.
type OrderTx interface {
	// GetOrderForUpdate loads the order under a row lock (FOR UPDATE), so
	// concurrent cancellations of the same order serialize.
	GetOrderForUpdate(orderID string) (*models.Order, error)

	SaveOrder(order *models.Order) error

	// FindCompletedPurchase returns the COMPLETED PURCHASE transaction linked
	// to the order, or nil when there is none.
	FindCompletedPurchase(orderID string) (*models.Transaction, error)

	// HasCompletedRefund reports whether a COMPLETED REFUND already exists for
	// the order (idempotency guard).
	HasCompletedRefund(orderID string) (bool, error)

	CreateTransaction(txn *models.Transaction) error

	// CreditUserBalance increments the user's balance by amount.
	CreditUserBalance(userID string, amount decimal.Decimal) error

	// DeleteKeysForOrder removes all keys bound to the order. Returns the
	// number of keys released.
	DeleteKeysForOrder(orderID string) (int64, error)
}

// OrderStore opens units of work for the order lifecycle manager.
type OrderStore interface {
	WithinTx(ctx context.Context, fn func(tx OrderTx) error) error
}
