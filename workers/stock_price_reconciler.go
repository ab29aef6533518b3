// workers/stock_price_reconciler.go
package workers

import (
	"context"
	"fmt"
	"time"

	"gamekey-storefront/models"
	"gamekey-storefront/services"
	"gamekey-storefront/storage"
	"gamekey-storefront/utils"

	"github.com/shopspring/decimal"
)

// ItemError is one per-item failure accumulated during a job run. Runs never
// abort on individual failures; the list is observability, not control flow.
type ItemError struct {
	GameID            string `json:"game_id,omitempty"`
	ExternalProductID string `json:"external_product_id,omitempty"`
	Err               string `json:"error"`
}

// ReconcileResult summarizes one stock/price reconciliation run.
type ReconcileResult struct {
	Checked      int         `json:"checked"`
	StockUpdated int         `json:"stock_updated"`
	PriceUpdated int         `json:"price_updated"`
	Errors       []ItemError `json:"errors"`
}

// StockPriceReconciler brings local stock/price in line with the upstream
// supplier. Processing is deliberately sequential: the pacing delays are the
// rate-limiting mechanism that keeps the run inside the upstream quota.
type StockPriceReconciler struct {
	Games       storage.GameStore
	Marketplace services.MarketplaceClient
	Cache       services.CacheInvalidator
	Log         utils.Logger

	BatchSize  int
	ItemPause  time.Duration
	BatchPause time.Duration

	StockAttempts  uint
	StockBaseDelay time.Duration
	PriceAttempts  uint
	PriceBaseDelay time.Duration

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewStockPriceReconciler(games storage.GameStore, marketplace services.MarketplaceClient, cache services.CacheInvalidator, log utils.Logger) *StockPriceReconciler {
	return &StockPriceReconciler{
		Games:       games,
		Marketplace: marketplace,
		Cache:       cache,
		Log:         log,

		BatchSize:  10,
		ItemPause:  100 * time.Millisecond,
		BatchPause: 500 * time.Millisecond,

		StockAttempts:  2,
		StockBaseDelay: 500 * time.Millisecond,
		PriceAttempts:  2,
		PriceBaseDelay: 1000 * time.Millisecond,

		now:   time.Now,
		sleep: sleepCtx,
	}
}

// Run executes one full reconciliation pass. The returned error covers only
// run-level failures (loading the worklist, context cancellation); per-item
// failures land in the result's error list.
func (r *StockPriceReconciler) Run(ctx context.Context) (*ReconcileResult, error) {
	games, err := r.Games.ListExternallySourced(ctx)
	if err != nil {
		return nil, fmt.Errorf("load reconciliation worklist: %w", err)
	}

	result := &ReconcileResult{}
	var changedGameIDs []string

	for start := 0; start < len(games); start += r.BatchSize {
		end := start + r.BatchSize
		if end > len(games) {
			end = len(games)
		}
		batch := games[start:end]

		for i := range batch {
			game := &batch[i]
			changed, err := r.reconcileStock(ctx, game, result)
			if err != nil {
				return result, err
			}
			if changed {
				changedGameIDs = append(changedGameIDs, game.ID)
			}

			if i < len(batch)-1 {
				if err := r.sleep(ctx, r.ItemPause); err != nil {
					return result, err
				}
			}
		}

		if end < len(games) {
			if err := r.sleep(ctx, r.BatchPause); err != nil {
				return result, err
			}
		}
	}

	priceChangedIDs := r.reconcilePrices(ctx, games, result)
	changedGameIDs = append(changedGameIDs, priceChangedIDs...)

	if len(changedGameIDs) > 0 {
		r.invalidateCatalogCaches(ctx, changedGameIDs)
	}

	r.Log.Info("stock/price reconciliation finished",
		"checked", result.Checked,
		"stock_updated", result.StockUpdated,
		"price_updated", result.PriceUpdated,
		"errors", len(result.Errors),
	)
	return result, nil
}

// reconcileStock checks one game against upstream and writes the delta.
// The bool reports whether stock actually changed.
func (r *StockPriceReconciler) reconcileStock(ctx context.Context, game *models.Game, result *ReconcileResult) (bool, error) {
	externalID := *game.ExternalProductID
	result.Checked++

	status, err := utils.Retry(ctx, func() (services.StockCheckResult, error) {
		return r.Marketplace.CheckStock(ctx, externalID)
	}, r.StockAttempts, r.StockBaseDelay)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		result.Errors = append(result.Errors, ItemError{
			GameID:            game.ID,
			ExternalProductID: externalID,
			Err:               err.Error(),
		})
		return false, nil
	}

	syncedAt := r.now()
	if game.InStock != status.Available {
		if err := r.Games.ApplyStockChange(ctx, game, status.Available, status.Stock, syncedAt); err != nil {
			result.Errors = append(result.Errors, ItemError{
				GameID:            game.ID,
				ExternalProductID: externalID,
				Err:               err.Error(),
			})
			return false, nil
		}
		result.StockUpdated++
		return true, nil
	}

	if err := r.Games.TouchLastSync(ctx, game.ID, syncedAt); err != nil {
		result.Errors = append(result.Errors, ItemError{
			GameID:            game.ID,
			ExternalProductID: externalID,
			Err:               err.Error(),
		})
	}
	return false, nil
}

// reconcilePrices fetches all prices in one bulk call (cheaper upstream than
// per-item lookups) and writes only exact-decimal deltas.
func (r *StockPriceReconciler) reconcilePrices(ctx context.Context, games []models.Game, result *ReconcileResult) []string {
	if len(games) == 0 {
		return nil
	}

	ids := make([]string, 0, len(games))
	for _, g := range games {
		ids = append(ids, *g.ExternalProductID)
	}

	priceByID, err := utils.Retry(ctx, func() (map[string]decimal.Decimal, error) {
		return r.Marketplace.GetBulkPrices(ctx, ids)
	}, r.PriceAttempts, r.PriceBaseDelay)
	if err != nil {
		result.Errors = append(result.Errors, ItemError{Err: fmt.Sprintf("bulk price fetch: %v", err)})
		return nil
	}

	var changed []string
	syncedAt := r.now()
	for _, g := range games {
		price, ok := priceByID[*g.ExternalProductID]
		if !ok {
			continue
		}
		if price.Equal(g.Price) {
			continue
		}
		if err := r.Games.UpdatePrice(ctx, g.ID, price, syncedAt); err != nil {
			result.Errors = append(result.Errors, ItemError{
				GameID:            g.ID,
				ExternalProductID: *g.ExternalProductID,
				Err:               err.Error(),
			})
			continue
		}
		result.PriceUpdated++
		changed = append(changed, g.ID)
	}
	return changed
}

func (r *StockPriceReconciler) invalidateCatalogCaches(ctx context.Context, gameIDs []string) {
	patterns := []string{"games:*"}
	for _, id := range gameIDs {
		patterns = append(patterns, "game:"+id)
	}
	for _, pattern := range patterns {
		if err := r.Cache.Invalidate(ctx, pattern); err != nil {
			r.Log.Warn("cache invalidation failed", "pattern", pattern, "error", err)
		}
	}
}

// sleepCtx pauses without outliving the context.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
