// storage/orders.go
package storage

import (
	"context"
	"errors"
	"fmt"

	"gamekey-storefront/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOrderStore implements OrderStore on Postgres. Every unit of work maps
// to one database transaction; the order row is taken FOR UPDATE so two
// concurrent cancellations of the same order cannot both pass the
// refund-idempotency check.
type GormOrderStore struct {
	DB *gorm.DB
}

func NewOrderStore(db *gorm.DB) *GormOrderStore {
	return &GormOrderStore{DB: db}
}

func (s *GormOrderStore) WithinTx(ctx context.Context, fn func(tx OrderTx) error) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormOrderTx{db: tx})
	})
}

type gormOrderTx struct {
	db *gorm.DB
}

func (t *gormOrderTx) GetOrderForUpdate(orderID string) (*models.Order, error) {
	var order models.Order
	err := t.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&order, "id = ?", orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock order %s: %w", orderID, err)
	}
	return &order, nil
}

func (t *gormOrderTx) SaveOrder(order *models.Order) error {
	if err := t.db.Save(order).Error; err != nil {
		return fmt.Errorf("save order %s: %w", order.ID, err)
	}
	return nil
}

func (t *gormOrderTx) FindCompletedPurchase(orderID string) (*models.Transaction, error) {
	var txn models.Transaction
	err := t.db.
		Where("order_id = ? AND type = ? AND status = ?",
			orderID, models.TransactionTypePurchase, models.TransactionStatusCompleted).
		First(&txn).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find completed purchase for order %s: %w", orderID, err)
	}
	return &txn, nil
}

func (t *gormOrderTx) HasCompletedRefund(orderID string) (bool, error) {
	var count int64
	err := t.db.Model(&models.Transaction{}).
		Where("order_id = ? AND type = ? AND status = ?",
			orderID, models.TransactionTypeRefund, models.TransactionStatusCompleted).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("count completed refunds for order %s: %w", orderID, err)
	}
	return count > 0, nil
}

func (t *gormOrderTx) CreateTransaction(txn *models.Transaction) error {
	if err := t.db.Create(txn).Error; err != nil {
		return fmt.Errorf("create %s transaction: %w", txn.Type, err)
	}
	return nil
}

func (t *gormOrderTx) CreditUserBalance(userID string, amount decimal.Decimal) error {
	res := t.db.Model(&models.StoreUser{}).
		Where("id = ?", userID).
		Update("balance", gorm.Expr("balance + ?", amount))
	if res.Error != nil {
		return fmt.Errorf("credit balance for user %s: %w", userID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("credit balance for user %s: %w", userID, ErrNotFound)
	}
	return nil
}

func (t *gormOrderTx) DeleteKeysForOrder(orderID string) (int64, error) {
	res := t.db.Where("order_id = ?", orderID).Delete(&models.GameKey{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete keys for order %s: %w", orderID, res.Error)
	}
	return res.RowsAffected, nil
}
