package handlers

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/chineduopara/coursepay/services"
)

type PayoutHandler struct {
	ledger *services.PayoutLedger
}

func NewPayoutHandler(ledger *services.PayoutLedger) *PayoutHandler {
	return &PayoutHandler{ledger: ledger}
}

type CreateBatchDTO struct {
	Year  int `json:"year" validate:"required,min=2020"`
	Month int `json:"month" validate:"required,min=1,max=12"`
}

// CreateBatch builds payouts for one calendar month. Re-running a month is
// safe; instructors already covered by the period are skipped.
func (h *PayoutHandler) CreateBatch(c *fiber.Ctx) error {
	var dto CreateBatchDTO
	if err := c.BodyParser(&dto); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(dto); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	periodStart := time.Date(dto.Year, time.Month(dto.Month), 1, 0, 0, 0, 0, time.UTC)
	periodEnd := periodStart.AddDate(0, 1, 0).Add(-time.Second)
	if !periodEnd.Before(time.Now()) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Payout period must be a completed month"})
	}

	created, err := h.ledger.CreateMonthlyBatch(c.UserContext(), periodStart, periodEnd)
	if err != nil {
		log.Printf("🔥 Payout batch for %d-%02d failed: %v", dto.Year, dto.Month, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create payout batch"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status":  "success",
		"created": len(created),
		"data":    created,
	})
}

// Disburse pushes a single payout through the transfer gateway. The admin
// path bypasses the auto-payout ceiling, not the verification checks.
func (h *PayoutHandler) Disburse(c *fiber.Ctx) error {
	payoutID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payout ID format"})
	}

	payout, err := h.ledger.Disburse(c.UserContext(), payoutID, false)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Payout not found"})
		case errors.Is(err, services.ErrNotEligible):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, services.ErrValidation):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, services.ErrGatewayTimeout):
			// The transfer may or may not have gone through. Status stays
			// processing until reconciliation resolves it.
			return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
				"status":  "pending_confirmation",
				"message": "Transfer status is unconfirmed, reconciliation will resolve it",
			})
		case errors.Is(err, services.ErrGatewayUnavailable):
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Transfer gateway is unavailable, please retry"})
		}
		log.Printf("🔥 Disbursement of payout %s failed: %v", payoutID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to disburse payout"})
	}

	return c.JSON(fiber.Map{"status": "success", "data": payout})
}

// Requeue returns a failed payout to pending so it can be disbursed again.
func (h *PayoutHandler) Requeue(c *fiber.Ctx) error {
	payoutID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payout ID format"})
	}

	payout, err := h.ledger.Requeue(c.UserContext(), payoutID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Payout not found"})
		case errors.Is(err, services.ErrNotEligible):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		}
		log.Printf("🔥 Requeue of payout %s failed: %v", payoutID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to requeue payout"})
	}

	return c.JSON(fiber.Map{"status": "success", "data": payout})
}

func (h *PayoutHandler) ListPending(c *fiber.Ctx) error {
	payouts, err := h.ledger.ListPending(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list pending payouts"})
	}
	return c.JSON(fiber.Map{"status": "success", "data": payouts})
}
