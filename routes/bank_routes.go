package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/chineduopara/coursepay/handlers"
	"github.com/chineduopara/coursepay/middleware"
)

func BankAccountRoutes(app *fiber.App, accounts *handlers.BankAccountHandler) {
	instructor := app.Group("/api/v1/instructors/bank-account", middleware.Protected(), middleware.InstructorRequired())
	instructor.Post("/", accounts.Register)
	instructor.Post("/verify", accounts.Verify)

	admin := app.Group("/api/v1/admin/bank-accounts", middleware.Protected(), middleware.AdminRequired())
	admin.Post("/:instructorId/reset-attempts", accounts.ResetAttempts)
}
