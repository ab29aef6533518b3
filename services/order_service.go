// services/order_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gamekey-storefront/models"
	"gamekey-storefront/storage"
	"gamekey-storefront/utils"

	"github.com/google/uuid"
)

var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrAlreadyCancelled = errors.New("order already cancelled")
)

// OrderService owns order status transitions and the cancellation/refund
// workflow. All mutations run inside one unit of work with the order row
// locked, so retried or concurrent cancellations cannot double-refund.
type OrderService struct {
	Orders  storage.OrderStore
	Gateway PaymentGateway
	Cache   CacheInvalidator
	Log     utils.Logger

	now func() time.Time
}

func NewOrderService(orders storage.OrderStore, gateway PaymentGateway, cache CacheInvalidator, log utils.Logger) *OrderService {
	return &OrderService{
		Orders:  orders,
		Gateway: gateway,
		Cache:   cache,
		Log:     log,
		now:     time.Now,
	}
}

// UpdateOrderStatus applies one validated transition. A move into CANCELLED
// goes through the full cancellation workflow so the refund and key
// bookkeeping can never be skipped.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID string, next models.OrderStatus) (*models.Order, error) {
	var updated *models.Order
	err := s.Orders.WithinTx(ctx, func(tx storage.OrderTx) error {
		order, err := tx.GetOrderForUpdate(orderID)
		if errors.Is(err, storage.ErrNotFound) {
			return ErrOrderNotFound
		}
		if err != nil {
			return err
		}

		if !order.Status.CanTransitionTo(next) {
			return &models.InvalidTransitionError{
				Current:   order.Status,
				Requested: next,
				Allowed:   models.AllowedTransitionsFrom(order.Status),
			}
		}

		if next == models.OrderStatusCancelled {
			if err := s.cancelLocked(ctx, tx, order, "status change"); err != nil {
				return err
			}
			updated = order
			return nil
		}

		order.Status = next
		switch next {
		case models.OrderStatusCompleted:
			completedAt := s.now()
			order.CompletedAt = &completedAt
			order.PaymentStatus = models.PaymentStatusCompleted
		default:
			order.CompletedAt = nil
		}
		if err := tx.SaveOrder(order); err != nil {
			return err
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateOrderCaches(ctx, updated)
	s.Log.Audit("order status updated",
		"order_id", updated.ID, "user_id", updated.UserID, "status", updated.Status)
	return updated, nil
}

// CancelOrder cancels the order and settles money and keys exactly once.
// Fails with ErrOrderNotFound or ErrAlreadyCancelled; any other failure
// rolls the whole unit of work back.
func (s *OrderService) CancelOrder(ctx context.Context, orderID, reason string) error {
	var cancelled *models.Order
	err := s.Orders.WithinTx(ctx, func(tx storage.OrderTx) error {
		order, err := tx.GetOrderForUpdate(orderID)
		if errors.Is(err, storage.ErrNotFound) {
			return ErrOrderNotFound
		}
		if err != nil {
			return err
		}
		if order.Status == models.OrderStatusCancelled {
			return ErrAlreadyCancelled
		}
		if err := s.cancelLocked(ctx, tx, order, reason); err != nil {
			return err
		}
		cancelled = order
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidateOrderCaches(ctx, cancelled)
	s.Log.Audit("order cancelled",
		"order_id", cancelled.ID, "user_id", cancelled.UserID, "reason", reason)
	return nil
}

// cancelLocked runs the cancellation workflow against an already-locked,
// not-yet-cancelled order. Caller owns the transaction.
func (s *OrderService) cancelLocked(ctx context.Context, tx storage.OrderTx, order *models.Order, reason string) error {
	prior := order.Status

	order.Status = models.OrderStatusCancelled
	order.PaymentStatus = models.PaymentStatusCancelled
	order.CancelReason = reason
	order.CompletedAt = nil
	if err := tx.SaveOrder(order); err != nil {
		return err
	}

	purchase, err := tx.FindCompletedPurchase(order.ID)
	if err != nil {
		return err
	}

	switch {
	case purchase != nil:
		// Payment was captured. Refund through the gateway at most once.
		refunded, err := tx.HasCompletedRefund(order.ID)
		if err != nil {
			return err
		}
		if refunded {
			break
		}
		if _, gwErr := s.Gateway.Refund(ctx, purchase.ID, order.Total, reason); gwErr != nil {
			// Gateway money may arrive later; the customer's balance is
			// correct now. The PENDING row flags manual reconciliation.
			s.Log.Warn("gateway refund failed, crediting balance and marking refund pending",
				"order_id", order.ID, "transaction_id", purchase.ID, "error", gwErr)
			if err := tx.CreateTransaction(s.refundTransaction(order, models.TransactionStatusPending, "gateway refund failed: "+gwErr.Error())); err != nil {
				return err
			}
			if err := tx.CreditUserBalance(order.UserID, order.Total); err != nil {
				return err
			}
		}

	case prior == models.OrderStatusPending || prior == models.OrderStatusProcessing:
		// Never captured by the gateway; the funds were only a balance hold.
		if err := tx.CreditUserBalance(order.UserID, order.Total); err != nil {
			return err
		}
		if err := tx.CreateTransaction(s.refundTransaction(order, models.TransactionStatusCompleted, reason)); err != nil {
			return err
		}
	}

	// Keys disclosed to the buyer on a completed order cannot be un-issued;
	// only payment is reversed. Anything earlier releases the keys.
	if prior != models.OrderStatusCompleted {
		released, err := tx.DeleteKeysForOrder(order.ID)
		if err != nil {
			return err
		}
		if released > 0 {
			s.Log.Info("released game keys for cancelled order",
				"order_id", order.ID, "count", released)
		}
	}

	return nil
}

func (s *OrderService) refundTransaction(order *models.Order, status models.TransactionStatus, note string) *models.Transaction {
	orderID := order.ID
	return &models.Transaction{
		ID:       uuid.NewString(),
		OrderID:  &orderID,
		UserID:   order.UserID,
		Type:     models.TransactionTypeRefund,
		Amount:   order.Total,
		Currency: order.Currency,
		Status:   status,
		Note:     note,
	}
}

func (s *OrderService) invalidateOrderCaches(ctx context.Context, order *models.Order) {
	if order == nil {
		return
	}
	patterns := []string{
		fmt.Sprintf("order:%s", order.ID),
		fmt.Sprintf("orders:user:%s:*", order.UserID),
	}
	for _, pattern := range patterns {
		if err := s.Cache.Invalidate(ctx, pattern); err != nil {
			s.Log.Warn("cache invalidation failed", "pattern", pattern, "error", err)
		}
	}
}
