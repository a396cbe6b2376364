package main

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"

	"github.com/chineduopara/coursepay/cache"
	config "github.com/chineduopara/coursepay/configs"
	"github.com/chineduopara/coursepay/database"
	"github.com/chineduopara/coursepay/handlers"
	"github.com/chineduopara/coursepay/jobs"
	"github.com/chineduopara/coursepay/notifications"
	"github.com/chineduopara/coursepay/payments"
	"github.com/chineduopara/coursepay/routes"
	"github.com/chineduopara/coursepay/services"
)

func main() {
	database.ConnectDB()
	database.Migrate()
	database.SeedAdmin()
	database.SeedGateways()
	database.SeedRatePolicy()
	cache.ConnectRedis()
	notifications.InitEmailService()
	notifications.InitProducer()

	gatewayConfigs := database.LoadGatewayConfigs()
	registry := payments.NewRegistry(gatewayConfigs)

	webhookSecrets := make(map[string]string)
	for _, cfg := range gatewayConfigs {
		webhookSecrets[cfg.Name] = cfg.WebhookSecret
	}
	verifier := payments.NewVerifier(webhookSecrets)

	paymentRepo := database.NewPaymentRepo(database.DB)
	payoutRepo := database.NewPayoutRepo(database.DB)
	earningsRepo := database.NewEarningsRepo(database.DB)
	rateRepo := database.NewRatePolicyRepo(database.DB)
	bankRepo := database.NewBankAccountRepo(database.DB)
	webhookRepo := database.NewWebhookEventRepo(database.DB)

	notifier := notifications.NewService()

	toleranceMinor := int64(config.ConfigInt("AMOUNT_TOLERANCE_MINOR", 0))
	paymentLedger := services.NewPaymentLedger(paymentRepo, registry, rateRepo, notifier, toleranceMinor)

	settlementCurrency := config.ConfigOr("SETTLEMENT_CURRENCY", "NGN")
	calculator := services.NewPayoutCalculator(earningsRepo, rateRepo, settlementCurrency)

	autoCeiling, err := decimal.NewFromString(config.ConfigOr("AUTO_PAYOUT_CEILING", "500000"))
	if err != nil {
		log.Fatalf("🔥 Invalid AUTO_PAYOUT_CEILING: %v", err)
	}
	minTransfer, err := decimal.NewFromString(config.ConfigOr("MIN_TRANSFER_AMOUNT", "100"))
	if err != nil {
		log.Fatalf("🔥 Invalid MIN_TRANSFER_AMOUNT: %v", err)
	}
	payoutLedger := services.NewPayoutLedger(payoutRepo, calculator, bankRepo, registry, notifier, autoCeiling, minTransfer)

	maxVerifyAttempts := config.ConfigInt("BANK_VERIFY_MAX_ATTEMPTS", 5)
	bankRegistry := services.NewBankAccountRegistry(bankRepo, registry, maxVerifyAttempts)

	reconciliation := jobs.NewReconciliation(paymentLedger, payoutLedger, bankRegistry, notifier)
	runner := jobs.NewRunner()

	c := cron.New()
	for _, job := range reconciliation.Jobs() {
		job := job
		schedule := jobSchedule(job.Name)
		c.AddFunc(schedule, func() { runner.Execute(job) })
	}
	monthly := reconciliation.MonthlyJob()
	c.AddFunc("0 2 1 * *", func() { runner.Execute(monthly) })
	go c.Start()
	log.Println("✅ Reconciliation jobs scheduled successfully.")

	app := fiber.New(fiber.Config{
		Prefork:           false,
		AppName:           "CoursePay",
		CaseSensitive:     true,
		StrictRouting:     false,
		EnablePrintRoutes: true,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}

			log.Printf("[ERROR] %v | Path: %s | Method: %s", err, c.Path(), c.Method())
			return c.Status(code).JSON(fiber.Map{
				"status":  "error",
				"code":    code,
				"message": err.Error(),
			})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization",
		AllowMethods:  "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length, Authorization",
		MaxAge:        86400,
	}))

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Africa/Lagos",
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "success",
			"message": "Welcome to CoursePay API",
		})
	})

	webhookRateLimit := int64(config.ConfigInt("WEBHOOK_RATE_LIMIT", 600))
	webhookHandler := handlers.NewWebhookHandler(verifier, webhookRepo, paymentLedger, cache.WebhookStore{}, webhookRateLimit)
	paymentHandler := handlers.NewPaymentHandler(paymentLedger)
	payoutHandler := handlers.NewPayoutHandler(payoutLedger)
	bankHandler := handlers.NewBankAccountHandler(bankRegistry)

	routes.PaymentRoutes(app, webhookHandler, paymentHandler)
	routes.PayoutRoutes(app, payoutHandler)
	routes.BankAccountRoutes(app, bankHandler)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})

	log.Println("✅ Server is running on port 8080")
	if err := app.Listen(":8080"); err != nil {
		log.Fatalf("🔥 Server failed to start: %v", err)
	}
}

func jobSchedule(name string) string {
	switch name {
	case "ExpireStalePayments":
		return "0 * * * *"
	case "ReverifyPendingPayments":
		return "*/30 * * * *"
	case "ReconcileProcessingPayouts":
		return "*/15 * * * *"
	case "BankVerificationSweep":
		return "0 3 * * *"
	case "PayoutReminders":
		return "0 9 * * *"
	}
	return "@hourly"
}
