// handlers/order.go
package handlers

import (
	"errors"

	"gamekey-storefront/middleware"
	"gamekey-storefront/models"
	"gamekey-storefront/services"

	"github.com/gofiber/fiber/v2"
)

// SetupOrderRoutes wires the administrative order lifecycle endpoints.
func SetupOrderRoutes(app *fiber.App, orderService *services.OrderService) {
	admin := app.Group("/s/admin", middleware.UserContextMiddleware(), middleware.RequireAdmin())

	admin.Patch("/orders/:id/status", func(c *fiber.Ctx) error {
		var req struct {
			Status models.OrderStatus `json:"status"`
		}
		if err := c.BodyParser(&req); err != nil || req.Status == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "status is required"})
		}

		order, err := orderService.UpdateOrderStatus(c.Context(), c.Params("id"), req.Status)
		if err != nil {
			return orderErrorResponse(c, err)
		}
		return c.JSON(order)
	})

	admin.Post("/orders/:id/cancel", func(c *fiber.Ctx) error {
		var req struct {
			Reason string `json:"reason"`
		}
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
			}
		}

		if err := orderService.CancelOrder(c.Context(), c.Params("id"), req.Reason); err != nil {
			return orderErrorResponse(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

func orderErrorResponse(c *fiber.Ctx, err error) error {
	var invalid *models.InvalidTransitionError
	switch {
	case errors.Is(err, services.ErrOrderNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order not found"})
	case errors.Is(err, services.ErrAlreadyCancelled):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "order already cancelled"})
	case errors.As(err, &invalid):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":     invalid.Error(),
			"current":   invalid.Current,
			"requested": invalid.Requested,
			"allowed":   invalid.Allowed,
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
}
