package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/chineduopara/coursepay/handlers"
	"github.com/chineduopara/coursepay/middleware"
)

func PaymentRoutes(app *fiber.App, webhooks *handlers.WebhookHandler, payments *handlers.PaymentHandler) {
	api := app.Group("/api/v1")

	// Gateways authenticate with signatures, not JWTs.
	api.Post("/payments/webhook/:gateway", webhooks.Handle)

	protected := api.Group("/payments", middleware.Protected())
	protected.Post("/initialize", payments.Initialize)
	protected.Get("/:reference/verify", payments.Verify)
}
