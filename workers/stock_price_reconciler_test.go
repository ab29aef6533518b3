// workers/stock_price_reconciler_test.go
package workers

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"gamekey-storefront/models"
	"gamekey-storefront/services"
	"gamekey-storefront/utils"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type fakeGameStore struct {
	games []models.Game

	stockChanges []string // game ids passed to ApplyStockChange
	touched      []string // game ids passed to TouchLastSync
	priceUpdates map[string]decimal.Decimal
}

func newFakeGameStore(games []models.Game) *fakeGameStore {
	return &fakeGameStore{games: games, priceUpdates: map[string]decimal.Decimal{}}
}

func (s *fakeGameStore) ListExternallySourced(context.Context) ([]models.Game, error) {
	return s.games, nil
}

func (s *fakeGameStore) ApplyStockChange(_ context.Context, game *models.Game, _ bool, _ int, _ time.Time) error {
	s.stockChanges = append(s.stockChanges, game.ID)
	return nil
}

func (s *fakeGameStore) TouchLastSync(_ context.Context, gameID string, _ time.Time) error {
	s.touched = append(s.touched, gameID)
	return nil
}

func (s *fakeGameStore) UpdatePrice(_ context.Context, gameID string, price decimal.Decimal, _ time.Time) error {
	s.priceUpdates[gameID] = price
	return nil
}

type fakeMarketplace struct {
	stock       map[string]services.StockCheckResult
	failStock   map[string]bool // product ids whose stock check always fails
	stockCalls  map[string]int
	prices      map[string]decimal.Decimal
	failPrices  bool
	priceCalls  int
	catalog     []services.UpstreamProduct
	failCatalog int // remaining FetchFullCatalog calls that fail
	fetchCalls  int
}

func newFakeMarketplace() *fakeMarketplace {
	return &fakeMarketplace{
		stock:      map[string]services.StockCheckResult{},
		failStock:  map[string]bool{},
		stockCalls: map[string]int{},
		prices:     map[string]decimal.Decimal{},
	}
}

func (m *fakeMarketplace) CheckStock(_ context.Context, productID string) (services.StockCheckResult, error) {
	m.stockCalls[productID]++
	if m.failStock[productID] {
		return services.StockCheckResult{}, errors.New("rate limited")
	}
	return m.stock[productID], nil
}

func (m *fakeMarketplace) GetBulkPrices(_ context.Context, _ []string) (map[string]decimal.Decimal, error) {
	m.priceCalls++
	if m.failPrices {
		return nil, errors.New("upstream price endpoint down")
	}
	return m.prices, nil
}

func (m *fakeMarketplace) FetchFullCatalog(context.Context) ([]services.UpstreamProduct, error) {
	m.fetchCalls++
	if m.failCatalog > 0 {
		m.failCatalog--
		return nil, errors.New("catalog export unavailable")
	}
	return m.catalog, nil
}

// --- helpers ---

func testGames(n int) []models.Game {
	games := make([]models.Game, 0, n)
	for i := 1; i <= n; i++ {
		extID := fmt.Sprintf("ext-%d", i)
		games = append(games, models.Game{
			ID:                fmt.Sprintf("game-%d", i),
			Name:              fmt.Sprintf("Game %d", i),
			ExternalProductID: &extID,
			Price:             decimal.RequireFromString("10.00"),
			InStock:           true,
		})
	}
	return games
}

func newTestReconciler(store *fakeGameStore, marketplace *fakeMarketplace) (*StockPriceReconciler, *[]time.Duration) {
	r := NewStockPriceReconciler(store, marketplace, services.NoopInvalidator{}, utils.NopLogger{})
	r.StockBaseDelay = time.Millisecond
	r.PriceBaseDelay = time.Millisecond
	r.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }

	var sleeps []time.Duration
	r.sleep = func(_ context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return nil
	}
	return r, &sleeps
}

// --- tests ---

func TestReconcilerProcessesAllBatchesDespiteItemFailure(t *testing.T) {
	games := testGames(23)
	store := newFakeGameStore(games)
	marketplace := newFakeMarketplace()
	for _, g := range games {
		marketplace.stock[*g.ExternalProductID] = services.StockCheckResult{Available: true, Stock: 5}
	}
	marketplace.failStock["ext-15"] = true
	r, sleeps := newTestReconciler(store, marketplace)

	result, err := r.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 23, result.Checked)

	require.Len(t, result.Errors, 1)
	assert.Equal(t, "ext-15", result.Errors[0].ExternalProductID)
	assert.Equal(t, "game-15", result.Errors[0].GameID)

	// The failing item is retried twice, everything else checked once.
	assert.Equal(t, 2, marketplace.stockCalls["ext-15"])
	for i := 16; i <= 23; i++ {
		assert.Equalf(t, 1, marketplace.stockCalls[fmt.Sprintf("ext-%d", i)],
			"item %d must still be processed after the failure", i)
	}

	// 23 games at batch size 10 is exactly 3 batches: two inter-batch
	// pauses, and 9+9+2 intra-batch pauses.
	var itemPauses, batchPauses int
	for _, d := range *sleeps {
		switch d {
		case r.ItemPause:
			itemPauses++
		case r.BatchPause:
			batchPauses++
		}
	}
	assert.Equal(t, 2, batchPauses)
	assert.Equal(t, 20, itemPauses)
}

func TestReconcilerTouchesLastSyncWhenStockUnchanged(t *testing.T) {
	games := testGames(2)
	store := newFakeGameStore(games)
	marketplace := newFakeMarketplace()
	marketplace.stock["ext-1"] = services.StockCheckResult{Available: true, Stock: 5}  // unchanged
	marketplace.stock["ext-2"] = services.StockCheckResult{Available: false, Stock: 0} // changed
	r, _ := newTestReconciler(store, marketplace)

	result, err := r.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, result.StockUpdated)
	assert.Equal(t, []string{"game-1"}, store.touched)
	assert.Equal(t, []string{"game-2"}, store.stockChanges)
}

func TestReconcilerComparesPricesAsExactDecimals(t *testing.T) {
	games := testGames(3)
	store := newFakeGameStore(games)
	marketplace := newFakeMarketplace()
	for _, g := range games {
		marketplace.stock[*g.ExternalProductID] = services.StockCheckResult{Available: true, Stock: 5}
	}
	marketplace.prices["ext-1"] = decimal.RequireFromString("10")    // same value, different scale
	marketplace.prices["ext-2"] = decimal.RequireFromString("12.49") // real change
	// ext-3 missing from the bulk response: left alone
	r, _ := newTestReconciler(store, marketplace)

	result, err := r.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, result.PriceUpdated)
	require.Contains(t, store.priceUpdates, "game-2")
	assert.True(t, store.priceUpdates["game-2"].Equal(decimal.RequireFromString("12.49")))
	assert.NotContains(t, store.priceUpdates, "game-1",
		"10 and 10.00 are the same decimal value; no spurious write")
	assert.NotContains(t, store.priceUpdates, "game-3")
}

func TestReconcilerRecordsBulkPriceFailureAndFinishes(t *testing.T) {
	games := testGames(2)
	store := newFakeGameStore(games)
	marketplace := newFakeMarketplace()
	for _, g := range games {
		marketplace.stock[*g.ExternalProductID] = services.StockCheckResult{Available: true, Stock: 5}
	}
	marketplace.failPrices = true
	r, _ := newTestReconciler(store, marketplace)

	result, err := r.Run(context.Background())

	require.NoError(t, err, "bulk price failure is observability, not a run failure")
	assert.Equal(t, 2, result.Checked)
	assert.Equal(t, 0, result.PriceUpdated)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Err, "bulk price fetch")
	assert.Equal(t, 2, marketplace.priceCalls, "bulk fetch retried once")
}

func TestReconcilerEmptyWorklist(t *testing.T) {
	store := newFakeGameStore(nil)
	marketplace := newFakeMarketplace()
	r, sleeps := newTestReconciler(store, marketplace)

	result, err := r.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, result.Checked)
	assert.Empty(t, *sleeps)
	assert.Equal(t, 0, marketplace.priceCalls)
}
