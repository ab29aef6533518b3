// workers/catalog_sync_worker.go
package workers

import (
	"context"
	"fmt"
	"time"

	"gamekey-storefront/models"
	"gamekey-storefront/services"
	"gamekey-storefront/storage"
	"gamekey-storefront/utils"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// SyncOptions tune one catalog sync run.
type SyncOptions struct {
	// FullSync also removes local items the supplier no longer offers.
	FullSync bool `json:"full_sync"`
	// IncludeRelationships creates missing categories/genres/platforms and
	// re-links games to them.
	IncludeRelationships bool `json:"include_relationships"`
}

// CatalogSyncResult summarizes one full catalog sync run.
type CatalogSyncResult struct {
	Added             int         `json:"added"`
	Updated           int         `json:"updated"`
	Removed           int         `json:"removed"`
	CategoriesCreated int         `json:"categories_created"`
	GenresCreated     int         `json:"genres_created"`
	PlatformsCreated  int         `json:"platforms_created"`
	Errors            []ItemError `json:"errors"`
}

// CatalogSyncWorker reconciles the entire local catalog against the upstream
// supplier twice a day. The whole run is retried as one operation; this job
// is infrequent enough that a full retry is cheaper than per-item retry
// bookkeeping.
type CatalogSyncWorker struct {
	Catalog     storage.CatalogStore
	Marketplace services.MarketplaceClient
	Cache       services.CacheInvalidator
	Log         utils.Logger

	Attempts  uint
	BaseDelay time.Duration

	now func() time.Time
}

func NewCatalogSyncWorker(catalog storage.CatalogStore, marketplace services.MarketplaceClient, cache services.CacheInvalidator, log utils.Logger) *CatalogSyncWorker {
	return &CatalogSyncWorker{
		Catalog:     catalog,
		Marketplace: marketplace,
		Cache:       cache,
		Log:         log,
		Attempts:    3,
		BaseDelay:   1000 * time.Millisecond,
		now:         time.Now,
	}
}

// Run executes one sync, retrying the whole operation on hard failure.
func (w *CatalogSyncWorker) Run(ctx context.Context, opts SyncOptions) (*CatalogSyncResult, error) {
	result, err := utils.Retry(ctx, func() (*CatalogSyncResult, error) {
		return w.runOnce(ctx, opts)
	}, w.Attempts, w.BaseDelay)
	if err != nil {
		return nil, fmt.Errorf("full catalog sync: %w", err)
	}

	w.Log.Info("full catalog sync finished",
		"added", result.Added,
		"updated", result.Updated,
		"removed", result.Removed,
		"categories_created", result.CategoriesCreated,
		"genres_created", result.GenresCreated,
		"platforms_created", result.PlatformsCreated,
		"errors", len(result.Errors),
	)
	return result, nil
}

func (w *CatalogSyncWorker) runOnce(ctx context.Context, opts SyncOptions) (*CatalogSyncResult, error) {
	products, err := w.Marketplace.FetchFullCatalog(ctx)
	if err != nil {
		return nil, err
	}

	local, err := w.Catalog.ListUpstreamGames(ctx)
	if err != nil {
		return nil, err
	}

	result := &CatalogSyncResult{}
	syncedAt := w.now()
	offered := make([]string, 0, len(products))

	for i := range products {
		p := products[i]
		offered = append(offered, p.ProductID)

		game, exists := local[p.ProductID]
		if exists {
			if w.upstreamDiffers(&game, &p) {
				game.Name = p.Name
				game.Price = p.Price
				game.InStock = p.Available
				game.StockCount = p.Stock
				game.LastSyncAt = &syncedAt
				if err := w.Catalog.UpdateGameFromUpstream(ctx, &game); err != nil {
					result.Errors = append(result.Errors, ItemError{
						GameID:            game.ID,
						ExternalProductID: p.ProductID,
						Err:               err.Error(),
					})
					continue
				}
				result.Updated++
			}
		} else {
			// A previously removed product keeps its soft-deleted row (and its
			// unique external product id), so a re-offer revives that row
			// rather than inserting a duplicate.
			retired, err := w.Catalog.FindRetiredByExternalID(ctx, p.ProductID)
			if err != nil {
				result.Errors = append(result.Errors, ItemError{
					ExternalProductID: p.ProductID,
					Err:               err.Error(),
				})
				continue
			}
			if retired != nil {
				retired.Name = p.Name
				retired.Price = p.Price
				retired.InStock = p.Available
				retired.StockCount = p.Stock
				retired.LastSyncAt = &syncedAt
				if err := w.Catalog.RestoreGame(ctx, retired); err != nil {
					result.Errors = append(result.Errors, ItemError{
						GameID:            retired.ID,
						ExternalProductID: p.ProductID,
						Err:               err.Error(),
					})
					continue
				}
				game = *retired
			} else {
				productID := p.ProductID
				game = models.Game{
					ID:                uuid.NewString(),
					Name:              p.Name,
					Slug:              slug.Make(p.Name),
					ExternalProductID: &productID,
					Price:             p.Price,
					InStock:           p.Available,
					StockCount:        p.Stock,
					Status:            models.GameStatusPublished,
					LastSyncAt:        &syncedAt,
				}
				if err := w.Catalog.CreateGame(ctx, &game); err != nil {
					result.Errors = append(result.Errors, ItemError{
						ExternalProductID: p.ProductID,
						Err:               err.Error(),
					})
					continue
				}
			}
			result.Added++
		}

		if opts.IncludeRelationships {
			if err := w.syncRelationships(ctx, &game, &p, result); err != nil {
				result.Errors = append(result.Errors, ItemError{
					GameID:            game.ID,
					ExternalProductID: p.ProductID,
					Err:               err.Error(),
				})
			}
		}
	}

	if opts.FullSync {
		removed, err := w.Catalog.SoftDeleteMissingUpstream(ctx, offered)
		if err != nil {
			return nil, err
		}
		result.Removed = int(removed)
	}

	if result.Added+result.Updated+result.Removed > 0 {
		if err := w.Cache.Invalidate(ctx, "games:*"); err != nil {
			w.Log.Warn("cache invalidation failed", "pattern", "games:*", "error", err)
		}
	}
	return result, nil
}

func (w *CatalogSyncWorker) upstreamDiffers(game *models.Game, p *services.UpstreamProduct) bool {
	return game.Name != p.Name ||
		!game.Price.Equal(p.Price) ||
		game.InStock != p.Available ||
		game.StockCount != p.Stock
}

func (w *CatalogSyncWorker) syncRelationships(ctx context.Context, game *models.Game, p *services.UpstreamProduct, result *CatalogSyncResult) error {
	categories := make([]*models.Category, 0, len(p.Categories))
	for _, name := range p.Categories {
		cat, created, err := w.Catalog.EnsureCategory(ctx, name)
		if err != nil {
			return err
		}
		if created {
			result.CategoriesCreated++
		}
		categories = append(categories, cat)
	}

	genres := make([]*models.Genre, 0, len(p.Genres))
	for _, name := range p.Genres {
		genre, created, err := w.Catalog.EnsureGenre(ctx, name)
		if err != nil {
			return err
		}
		if created {
			result.GenresCreated++
		}
		genres = append(genres, genre)
	}

	platforms := make([]*models.Platform, 0, len(p.Platforms))
	for _, name := range p.Platforms {
		platform, created, err := w.Catalog.EnsurePlatform(ctx, name)
		if err != nil {
			return err
		}
		if created {
			result.PlatformsCreated++
		}
		platforms = append(platforms, platform)
	}

	return w.Catalog.ReplaceGameRelations(ctx, game, categories, genres, platforms)
}
