package database

import (
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	config "github.com/chineduopara/coursepay/configs"
	"github.com/chineduopara/coursepay/models"
)

var DB *gorm.DB

func ConnectDB() {
	var err error
	dsn := config.Config("DATABASE_URL")

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	if err != nil {
		log.Fatalf("🔥 Failed to connect to database: %v", err)
	}

	fmt.Println("✅ Database connected successfully")
}

func Migrate() {
	err := DB.AutoMigrate(
		&models.User{},
		&models.Course{},
		&models.Enrollment{},
		&models.Payment{},
		&models.InstructorPayout{},
		&models.InstructorBankAccount{},
		&models.PaymentGateway{},
		&models.PayoutRatePolicy{},
		&models.WebhookEvent{},
	)
	if err != nil {
		log.Fatalf("🔥 Failed to migrate database: %v", err)
	}
	fmt.Println("✅ Database migration successful")
}

func SeedAdmin() {
	adminEmail := config.Config("ADMIN_EMAIL")
	adminPassword := config.Config("ADMIN_PASSWORD")

	var count int64
	err := DB.Model(&models.User{}).Where("email = ?", adminEmail).Count(&count).Error
	if err != nil {
		log.Fatalf("🔥 Failed to check for admin user: %v", err)
		return
	}

	if count > 0 {
		log.Println("Admin user already exists.")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("🔥 Failed to hash admin password: %v", err)
		return
	}

	adminUser := models.User{
		FullName: config.Config("ADMIN_FULL_NAME"),
		Email:    adminEmail,
		Password: string(hashedPassword),
		Role:     "admin",
	}

	if err := DB.Create(&adminUser).Error; err != nil {
		log.Fatalf("🔥 Failed to seed admin user: %v", err)
		return
	}

	log.Println("✅ Admin user seeded successfully")
}

// SeedGateways writes the per-provider configuration rows from the
// environment. Existing rows keep their ids; credentials are refreshed on
// every boot so key rotation only needs a restart.
func SeedGateways() {
	gateways := []models.PaymentGateway{
		{
			Name:                "paystack",
			IsActive:            config.Config("PAYSTACK_SECRET_KEY") != "",
			IsDefault:           true,
			PublicKey:           config.Config("PAYSTACK_PUBLIC_KEY"),
			SecretKey:           config.Config("PAYSTACK_SECRET_KEY"),
			WebhookSecret:       config.Config("PAYSTACK_SECRET_KEY"),
			SupportedCurrencies: "NGN,GHS,KES,ZAR,USD",
			FeePercent:          decimal.NewFromFloat(0.015),
			FeeCap:              decimal.NewFromInt(2000),
			SupportsTransfers:   true,
			MinTransferAmount:   decimal.NewFromInt(100),
		},
		{
			Name:                "flutterwave",
			IsActive:            config.Config("FLUTTERWAVE_SECRET_KEY") != "",
			PublicKey:           config.Config("FLUTTERWAVE_PUBLIC_KEY"),
			SecretKey:           config.Config("FLUTTERWAVE_SECRET_KEY"),
			WebhookSecret:       config.Config("FLUTTERWAVE_WEBHOOK_HASH"),
			SupportedCurrencies: "NGN,GHS,KES,ZAR,USD",
			FeePercent:          decimal.NewFromFloat(0.014),
			SupportsTransfers:   false,
			MinTransferAmount:   decimal.NewFromInt(100),
		},
	}

	for _, gw := range gateways {
		var existing models.PaymentGateway
		err := DB.Where("name = ?", gw.Name).First(&existing).Error
		if err == gorm.ErrRecordNotFound {
			if err := DB.Create(&gw).Error; err != nil {
				log.Fatalf("🔥 Failed to seed gateway %s: %v", gw.Name, err)
			}
			continue
		}
		if err != nil {
			log.Fatalf("🔥 Failed to check gateway %s: %v", gw.Name, err)
		}
		existing.IsActive = gw.IsActive
		existing.IsDefault = gw.IsDefault
		existing.PublicKey = gw.PublicKey
		existing.SecretKey = gw.SecretKey
		existing.WebhookSecret = gw.WebhookSecret
		if err := DB.Save(&existing).Error; err != nil {
			log.Fatalf("🔥 Failed to refresh gateway %s: %v", gw.Name, err)
		}
	}
	log.Println("✅ Payment gateway configuration seeded")
}

// SeedRatePolicy inserts the initial 70/30 revenue split if no policy
// exists yet.
func SeedRatePolicy() {
	var count int64
	if err := DB.Model(&models.PayoutRatePolicy{}).Count(&count).Error; err != nil {
		log.Fatalf("🔥 Failed to check payout rate policies: %v", err)
	}
	if count > 0 {
		return
	}

	note := "initial platform split"
	policy := models.PayoutRatePolicy{
		InstructorShare: decimal.NewFromFloat(0.70),
		EffectiveFrom:   time.Now(),
		Note:            &note,
	}
	if err := DB.Create(&policy).Error; err != nil {
		log.Fatalf("🔥 Failed to seed payout rate policy: %v", err)
	}
	log.Println("✅ Payout rate policy seeded (instructor share 0.70)")
}

// LoadGatewayConfigs returns all configured gateways for the registry and
// webhook verifier.
func LoadGatewayConfigs() []models.PaymentGateway {
	var gateways []models.PaymentGateway
	if err := DB.Find(&gateways).Error; err != nil {
		log.Fatalf("🔥 Failed to load gateway configuration: %v", err)
	}
	return gateways
}
