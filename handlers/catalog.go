// handlers/catalog.go
package handlers

import (
	"gamekey-storefront/middleware"
	"gamekey-storefront/services"
	"gamekey-storefront/workers"

	"github.com/gofiber/fiber/v2"
)

// SetupCatalogRoutes wires the public catalog reads plus the admin triggers
// for the two reconciliation jobs. Both jobs are safe to invoke manually;
// the scheduler calls the same entry points.
func SetupCatalogRoutes(app *fiber.App, gameService *services.GameService, reconciler *workers.StockPriceReconciler, syncer *workers.CatalogSyncWorker) {
	app.Get("/games", gameService.GetAllGames)
	app.Get("/games/minimal", gameService.GetMinimalGames)
	app.Get("/games/:id", gameService.GetGameByID)

	admin := app.Group("/s/admin", middleware.UserContextMiddleware(), middleware.RequireAdmin())

	admin.Post("/catalog/reconcile", func(c *fiber.Ctx) error {
		result, err := reconciler.Run(c.Context())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(result)
	})

	admin.Post("/catalog/sync", func(c *fiber.Ctx) error {
		opts := workers.SyncOptions{FullSync: true, IncludeRelationships: true}
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&opts); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid sync options"})
			}
		}
		result, err := syncer.Run(c.Context(), opts)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(result)
	})
}
