package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/chineduopara/coursepay/services"
)

type BankAccountHandler struct {
	registry *services.BankAccountRegistry
}

func NewBankAccountHandler(registry *services.BankAccountRegistry) *BankAccountHandler {
	return &BankAccountHandler{registry: registry}
}

type RegisterBankAccountDTO struct {
	AccountNumber string `json:"account_number" validate:"required,len=10,numeric"`
	BankCode      string `json:"bank_code" validate:"required"`
	BankName      string `json:"bank_name" validate:"required"`
}

// Register records or replaces the instructor's payout destination.
// Replacing an account always drops verified status until re-verified.
func (h *BankAccountHandler) Register(c *fiber.Ctx) error {
	var dto RegisterBankAccountDTO
	if err := c.BodyParser(&dto); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(dto); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	instructorID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user token"})
	}

	account, err := h.registry.Register(c.UserContext(), instructorID, dto.AccountNumber, dto.BankCode, dto.BankName)
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		log.Printf("🔥 Bank account registration for instructor %s failed: %v", instructorID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to register bank account"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"status": "success", "data": account})
}

// Verify resolves the registered account against the gateway's bank
// directory. Every call counts against the attempt cap, matched or not.
func (h *BankAccountHandler) Verify(c *fiber.Ctx) error {
	instructorID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user token"})
	}

	result, err := h.registry.Verify(c.UserContext(), instructorID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "No bank account on file"})
		case errors.Is(err, services.ErrMaxAttemptsExceeded):
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Verification attempt limit reached, contact support"})
		case errors.Is(err, services.ErrGatewayUnavailable), errors.Is(err, services.ErrGatewayTimeout):
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Bank directory is unavailable, please retry"})
		}
		log.Printf("🔥 Bank verification for instructor %s failed: %v", instructorID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to verify bank account"})
	}

	return c.JSON(fiber.Map{"status": "success", "data": result})
}

// ResetAttempts clears the verification attempt counter after support has
// reviewed the instructor's case.
func (h *BankAccountHandler) ResetAttempts(c *fiber.Ctx) error {
	instructorID, err := uuid.Parse(c.Params("instructorId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid instructor ID format"})
	}

	if err := h.registry.ResetAttempts(c.UserContext(), instructorID); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "No bank account on file"})
		}
		log.Printf("🔥 Attempt reset for instructor %s failed: %v", instructorID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to reset verification attempts"})
	}

	return c.JSON(fiber.Map{"status": "success", "message": "Verification attempts reset"})
}
