// storage/games.go
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gamekey-storefront/models"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormGameStore implements GameStore and CatalogStore on top of Postgres.
type GormGameStore struct {
	DB *gorm.DB
}

func NewGameStore(db *gorm.DB) *GormGameStore {
	return &GormGameStore{DB: db}
}

func (s *GormGameStore) ListExternallySourced(ctx context.Context) ([]models.Game, error) {
	var games []models.Game
	err := s.DB.WithContext(ctx).
		Where("external_product_id IS NOT NULL").
		Order("created_at ASC").
		Find(&games).Error
	if err != nil {
		return nil, fmt.Errorf("list externally sourced games: %w", err)
	}
	return games, nil
}

func (s *GormGameStore) ApplyStockChange(ctx context.Context, game *models.Game, inStock bool, stockCount int, syncedAt time.Time) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.Game{}).
			Where("id = ?", game.ID).
			Updates(map[string]interface{}{
				"in_stock":     inStock,
				"stock_count":  stockCount,
				"last_sync_at": syncedAt,
			}).Error
		if err != nil {
			return fmt.Errorf("update stock for game %s: %w", game.ID, err)
		}

		event := models.StockChangeEvent{
			ID:            uuid.NewString(),
			GameID:        game.ID,
			PreviousStock: game.InStock,
			NewStock:      inStock,
			StockCount:    stockCount,
		}
		if err := tx.Create(&event).Error; err != nil {
			return fmt.Errorf("record stock change event for game %s: %w", game.ID, err)
		}
		return nil
	})
}

func (s *GormGameStore) TouchLastSync(ctx context.Context, gameID string, syncedAt time.Time) error {
	err := s.DB.WithContext(ctx).Model(&models.Game{}).
		Where("id = ?", gameID).
		Update("last_sync_at", syncedAt).Error
	if err != nil {
		return fmt.Errorf("touch last_sync_at for game %s: %w", gameID, err)
	}
	return nil
}

func (s *GormGameStore) UpdatePrice(ctx context.Context, gameID string, price decimal.Decimal, syncedAt time.Time) error {
	err := s.DB.WithContext(ctx).Model(&models.Game{}).
		Where("id = ?", gameID).
		Updates(map[string]interface{}{
			"price":        price,
			"last_sync_at": syncedAt,
		}).Error
	if err != nil {
		return fmt.Errorf("update price for game %s: %w", gameID, err)
	}
	return nil
}

// --- CatalogStore ---

func (s *GormGameStore) ListUpstreamGames(ctx context.Context) (map[string]models.Game, error) {
	var games []models.Game
	err := s.DB.WithContext(ctx).
		Where("external_product_id IS NOT NULL").
		Find(&games).Error
	if err != nil {
		return nil, fmt.Errorf("list upstream games: %w", err)
	}

	byExternalID := make(map[string]models.Game, len(games))
	for _, g := range games {
		byExternalID[*g.ExternalProductID] = g
	}
	return byExternalID, nil
}

func (s *GormGameStore) CreateGame(ctx context.Context, game *models.Game) error {
	if err := s.DB.WithContext(ctx).Create(game).Error; err != nil {
		return fmt.Errorf("create game %q: %w", game.Name, err)
	}
	return nil
}

func (s *GormGameStore) UpdateGameFromUpstream(ctx context.Context, game *models.Game) error {
	err := s.DB.WithContext(ctx).Model(&models.Game{}).
		Where("id = ?", game.ID).
		Updates(map[string]interface{}{
			"name":         game.Name,
			"price":        game.Price,
			"in_stock":     game.InStock,
			"stock_count":  game.StockCount,
			"last_sync_at": game.LastSyncAt,
		}).Error
	if err != nil {
		return fmt.Errorf("update game %s from upstream: %w", game.ID, err)
	}
	return nil
}

func (s *GormGameStore) FindRetiredByExternalID(ctx context.Context, externalID string) (*models.Game, error) {
	var game models.Game
	err := s.DB.WithContext(ctx).Unscoped().
		Where("external_product_id = ?", externalID).
		Where("deleted_at IS NOT NULL").
		First(&game).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup retired game for product %s: %w", externalID, err)
	}
	return &game, nil
}

func (s *GormGameStore) RestoreGame(ctx context.Context, game *models.Game) error {
	err := s.DB.WithContext(ctx).Unscoped().Model(&models.Game{}).
		Where("id = ?", game.ID).
		Updates(map[string]interface{}{
			"deleted_at":   nil,
			"name":         game.Name,
			"price":        game.Price,
			"in_stock":     game.InStock,
			"stock_count":  game.StockCount,
			"last_sync_at": game.LastSyncAt,
		}).Error
	if err != nil {
		return fmt.Errorf("restore game %s: %w", game.ID, err)
	}
	return nil
}

func (s *GormGameStore) SoftDeleteMissingUpstream(ctx context.Context, keep []string) (int64, error) {
	query := s.DB.WithContext(ctx).
		Where("external_product_id IS NOT NULL")
	if len(keep) > 0 {
		query = query.Where("external_product_id NOT IN ?", keep)
	}
	res := query.Delete(&models.Game{})
	if res.Error != nil {
		return 0, fmt.Errorf("soft delete missing upstream games: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *GormGameStore) EnsureCategory(ctx context.Context, name string) (*models.Category, bool, error) {
	var cat models.Category
	sl := slug.Make(name)
	err := s.DB.WithContext(ctx).Where("slug = ?", sl).First(&cat).Error
	if err == nil {
		return &cat, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("lookup category %q: %w", name, err)
	}
	cat = models.Category{ID: uuid.NewString(), Name: name, Slug: sl}
	if err := s.DB.WithContext(ctx).Create(&cat).Error; err != nil {
		return nil, false, fmt.Errorf("create category %q: %w", name, err)
	}
	return &cat, true, nil
}

func (s *GormGameStore) EnsureGenre(ctx context.Context, name string) (*models.Genre, bool, error) {
	var genre models.Genre
	sl := slug.Make(name)
	err := s.DB.WithContext(ctx).Where("slug = ?", sl).First(&genre).Error
	if err == nil {
		return &genre, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("lookup genre %q: %w", name, err)
	}
	genre = models.Genre{ID: uuid.NewString(), Name: name, Slug: sl}
	if err := s.DB.WithContext(ctx).Create(&genre).Error; err != nil {
		return nil, false, fmt.Errorf("create genre %q: %w", name, err)
	}
	return &genre, true, nil
}

func (s *GormGameStore) EnsurePlatform(ctx context.Context, name string) (*models.Platform, bool, error) {
	var platform models.Platform
	sl := slug.Make(name)
	err := s.DB.WithContext(ctx).Where("slug = ?", sl).First(&platform).Error
	if err == nil {
		return &platform, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("lookup platform %q: %w", name, err)
	}
	platform = models.Platform{ID: uuid.NewString(), Name: name, Slug: sl}
	if err := s.DB.WithContext(ctx).Create(&platform).Error; err != nil {
		return nil, false, fmt.Errorf("create platform %q: %w", name, err)
	}
	return &platform, true, nil
}

func (s *GormGameStore) ReplaceGameRelations(ctx context.Context, game *models.Game, categories []*models.Category, genres []*models.Genre, platforms []*models.Platform) error {
	db := s.DB.WithContext(ctx)
	if err := db.Model(game).Association("Categories").Replace(categories); err != nil {
		return fmt.Errorf("replace categories for game %s: %w", game.ID, err)
	}
	if err := db.Model(game).Association("Genres").Replace(genres); err != nil {
		return fmt.Errorf("replace genres for game %s: %w", game.ID, err)
	}
	if err := db.Model(game).Association("Platforms").Replace(platforms); err != nil {
		return fmt.Errorf("replace platforms for game %s: %w", game.ID, err)
	}
	return nil
}
