package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/chineduopara/coursepay/handlers"
	"github.com/chineduopara/coursepay/middleware"
)

func PayoutRoutes(app *fiber.App, payouts *handlers.PayoutHandler) {
	admin := app.Group("/api/v1/admin/payouts", middleware.Protected(), middleware.AdminRequired())

	admin.Get("/pending", payouts.ListPending)
	admin.Post("/batch", payouts.CreateBatch)
	admin.Post("/:id/disburse", payouts.Disburse)
	admin.Post("/:id/requeue", payouts.Requeue)
}
