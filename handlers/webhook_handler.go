package handlers

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/chineduopara/coursepay/models"
	"github.com/chineduopara/coursepay/payments"
	"github.com/chineduopara/coursepay/services"
)

const (
	webhookDedupTTL   = 72 * time.Hour
	webhookRateWindow = time.Minute
)

// WebhookEventStore is the slice of the webhook audit repo the handler
// needs: record a delivery, look a replay up, stamp the apply outcome.
type WebhookEventStore interface {
	Record(ctx context.Context, evt *models.WebhookEvent) (bool, error)
	FindByKey(ctx context.Context, gateway, eventKey string) (*models.WebhookEvent, error)
	MarkProcessed(ctx context.Context, evt *models.WebhookEvent, processingErr error)
}

// GatewayEventApplier is the payment ledger's webhook-facing surface.
type GatewayEventApplier interface {
	ApplyGatewayEvent(ctx context.Context, evt services.GatewayEvent) (services.Outcome, error)
}

// WebhookCache is the Redis fast path: best-effort delivery-key claims and
// the per-gateway delivery counter.
type WebhookCache interface {
	MarkEventSeen(ctx context.Context, gateway, eventKey string, ttl time.Duration) (bool, error)
	IncrementSourceCounter(ctx context.Context, gateway string, window time.Duration) (int64, error)
}

type WebhookHandler struct {
	verifier  *payments.Verifier
	events    WebhookEventStore
	ledger    GatewayEventApplier
	cache     WebhookCache
	rateLimit int64
}

func NewWebhookHandler(verifier *payments.Verifier, events WebhookEventStore, ledger GatewayEventApplier, deliveryCache WebhookCache, rateLimit int64) *WebhookHandler {
	return &WebhookHandler{verifier: verifier, events: events, ledger: ledger, cache: deliveryCache, rateLimit: rateLimit}
}

// Handle ingests one gateway webhook. Signature verification runs on the
// raw body before any parsing; an invalid signature is the only rejection
// the gateway is allowed to retry forever, everything else is acknowledged
// with 200 so providers stop redelivering. The exception is a failed apply:
// that answers 500 and the redelivery runs the apply again.
func (h *WebhookHandler) Handle(c *fiber.Ctx) error {
	gateway := c.Params("gateway")
	rawBody := c.Body()

	signature := c.Get(payments.SignatureHeader(gateway))
	if !h.verifier.Verify(gateway, rawBody, signature) {
		log.Printf("Rejected webhook with invalid signature from gateway %q", gateway)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid webhook signature"})
	}

	n, err := h.cache.IncrementSourceCounter(c.UserContext(), gateway, webhookRateWindow)
	if err != nil {
		log.Printf("Webhook rate counter unavailable: %v", err)
	} else if h.rateLimit > 0 && n > h.rateLimit {
		// The gateway redelivers on 429, so no event is lost by deferring.
		log.Printf("[WARN] webhook rate from %s exceeded %d per minute, deferring delivery", gateway, h.rateLimit)
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many webhook deliveries, retry later"})
	}

	evt, err := payments.ParseWebhookEvent(gateway, rawBody)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse webhook payload"})
	}
	if evt == nil {
		// Event type we do not act on. Acknowledge and move on.
		return c.JSON(fiber.Map{"status": "ignored"})
	}

	// Redis only observes the delivery key. A seen key alone never swallows
	// a delivery: the prior attempt may have failed mid-apply, and the
	// audit row below decides whether a replay still needs work.
	if fresh, err := h.cache.MarkEventSeen(c.UserContext(), gateway, evt.EventKey, webhookDedupTTL); err != nil {
		log.Printf("Webhook dedup cache unavailable: %v", err)
	} else if !fresh {
		log.Printf("Webhook %s/%s delivered again", gateway, evt.EventKey)
	}

	record := &models.WebhookEvent{
		Gateway:   gateway,
		EventKey:  evt.EventKey,
		EventType: evt.EventType,
		Reference: evt.Reference,
		Payload:   string(rawBody),
	}
	created, err := h.events.Record(c.UserContext(), record)
	if err != nil {
		log.Printf("🔥 Failed to record webhook event %s/%s: %v", gateway, evt.EventKey, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to record webhook"})
	}
	if !created {
		existing, err := h.events.FindByKey(c.UserContext(), gateway, evt.EventKey)
		if err != nil {
			log.Printf("🔥 Failed to load recorded webhook event %s/%s: %v", gateway, evt.EventKey, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load webhook record"})
		}
		if existing.ProcessedAt != nil && existing.ProcessingError == nil {
			return c.JSON(fiber.Map{"status": "duplicate"})
		}
		// The prior attempt never finished cleanly. Run the apply again;
		// the ledger's terminal-status check makes a second pass harmless.
		record = existing
	}

	outcome, err := h.ledger.ApplyGatewayEvent(c.UserContext(), services.GatewayEvent{
		Reference:      evt.Reference,
		ObservedStatus: evt.Status,
		GatewayTxnID:   evt.GatewayTxnID,
		Amount:         evt.Amount,
	})
	switch {
	case errors.Is(err, services.ErrUnknownReference):
		log.Printf("Webhook from %s referenced unknown payment %q, possible probe", gateway, evt.Reference)
		h.events.MarkProcessed(c.UserContext(), record, err)
		return c.JSON(fiber.Map{"status": "ignored"})
	case errors.Is(err, services.ErrAmountMismatch):
		// The forced failure already committed; acknowledge so the gateway
		// does not redeliver a payload we will never accept.
		h.events.MarkProcessed(c.UserContext(), record, err)
		return c.JSON(fiber.Map{"status": "rejected", "payment_status": outcome.Status})
	case err != nil:
		log.Printf("🔥 CRITICAL: Error processing webhook for reference %s: %v", evt.Reference, err)
		h.events.MarkProcessed(c.UserContext(), record, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process webhook"})
	}

	h.events.MarkProcessed(c.UserContext(), record, nil)
	if !outcome.Applied {
		return c.JSON(fiber.Map{"status": "already_processed", "payment_status": outcome.Status})
	}
	return c.JSON(fiber.Map{"status": "processed", "payment_status": outcome.Status})
}
