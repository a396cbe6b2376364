package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/chineduopara/coursepay/database"
	"github.com/chineduopara/coursepay/models"
	"github.com/chineduopara/coursepay/payments"
	"github.com/chineduopara/coursepay/services"
	"github.com/chineduopara/coursepay/utils"
)

type PaymentHandler struct {
	ledger *services.PaymentLedger
}

func NewPaymentHandler(ledger *services.PaymentLedger) *PaymentHandler {
	return &PaymentHandler{ledger: ledger}
}

type InitializePaymentDTO struct {
	Amount   string `json:"amount" validate:"required"`
	Currency string `json:"currency" validate:"required,len=3"`
	Gateway  string `json:"gateway"`
	Method   string `json:"method" validate:"omitempty,oneof=card bank_transfer other"`
	CourseID string `json:"course_id" validate:"required,uuid4"`
	Email    string `json:"email" validate:"required,email"`
}

func (h *PaymentHandler) Initialize(c *fiber.Ctx) error {
	var dto InitializePaymentDTO
	if err := c.BodyParser(&dto); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(dto); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user token"})
	}
	courseID, _ := uuid.Parse(dto.CourseID)

	amount, err := models.MoneyFromString(dto.Amount, dto.Currency)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	reference, err := utils.GeneratePaymentReference(database.DB)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to allocate payment reference"})
	}

	method := models.PaymentMethod(dto.Method)
	if method == "" {
		method = models.PaymentMethodCard
	}
	if dto.Gateway == "" {
		dto.Gateway = payments.GatewayPaystack
	}

	payment, handle, err := h.ledger.Initialize(c.UserContext(), services.InitializePaymentRequest{
		Reference:     reference,
		Amount:        amount,
		Gateway:       dto.Gateway,
		Method:        method,
		UserID:        &userID,
		CourseID:      &courseID,
		CustomerEmail: dto.Email,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrValidation):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, services.ErrGatewayUnavailable), errors.Is(err, services.ErrGatewayTimeout):
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Payment gateway is unavailable, please retry"})
		}
		log.Printf("🔥 Payment initialization failed for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to initialize payment"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status": "success",
		"data": fiber.Map{
			"reference":         payment.Reference,
			"payment_status":    payment.Status,
			"authorization_url": handle.AuthorizationURL,
			"access_code":       handle.AccessCode,
		},
	})
}

// Verify lets a client poll a payment it initialized. The ledger asks the
// gateway directly, so a dropped webhook does not strand the payment.
func (h *PaymentHandler) Verify(c *fiber.Ctx) error {
	reference := c.Params("reference")
	if reference == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Payment reference is required"})
	}

	outcome, err := h.ledger.VerifyWithGateway(c.UserContext(), reference)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUnknownReference):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Payment not found"})
		case errors.Is(err, services.ErrGatewayUnavailable), errors.Is(err, services.ErrGatewayTimeout):
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Payment gateway is unavailable, please retry"})
		case errors.Is(err, services.ErrAmountMismatch):
			return c.JSON(fiber.Map{"status": "rejected", "payment_status": outcome.Status})
		}
		log.Printf("🔥 Verification failed for reference %s: %v", reference, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to verify payment"})
	}

	return c.JSON(fiber.Map{"status": "success", "payment_status": outcome.Status})
}
