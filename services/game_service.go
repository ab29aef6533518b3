// services/game_service.go
package services

import (
	"errors"

	"gamekey-storefront/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// GameService serves the public catalog reads. Writes to price/stock fields
// belong to the reconciliation jobs, not here.
type GameService struct {
	DB *gorm.DB
}

func NewGameService(db *gorm.DB) *GameService {
	return &GameService{DB: db}
}

// MinimalGame is the lightweight listing shape.
type MinimalGame struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	MainLogoURL string `json:"main_logo_url"`
	Price       string `json:"price"`
	InStock     bool   `json:"in_stock"`
}

// GetAllGames lists published games with their relationships.
func (s *GameService) GetAllGames(c *fiber.Ctx) error {
	var games []models.Game
	err := s.DB.
		Preload("Categories").
		Preload("Genres").
		Preload("Platforms").
		Where("status = ?", models.GameStatusPublished).
		Order("created_at DESC").
		Find(&games).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load games"})
	}
	return c.JSON(games)
}

// GetMinimalGames lists published games without relationship preloads.
func (s *GameService) GetMinimalGames(c *fiber.Ctx) error {
	var games []models.Game
	err := s.DB.
		Where("status = ?", models.GameStatusPublished).
		Order("name ASC").
		Find(&games).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load games"})
	}

	minimal := make([]MinimalGame, 0, len(games))
	for _, g := range games {
		minimal = append(minimal, MinimalGame{
			ID:          g.ID,
			Name:        g.Name,
			Slug:        g.Slug,
			MainLogoURL: g.MainLogoURL,
			Price:       g.Price.StringFixed(2),
			InStock:     g.InStock,
		})
	}
	return c.JSON(minimal)
}

// GetGameByID returns one game with relationships.
func (s *GameService) GetGameByID(c *fiber.Ctx) error {
	id := c.Params("id")

	var game models.Game
	err := s.DB.
		Preload("Categories").
		Preload("Genres").
		Preload("Platforms").
		First(&game, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "game not found"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load game"})
	}
	return c.JSON(game)
}
