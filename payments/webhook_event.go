package payments

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/chineduopara/coursepay/models"
)

// WebhookEvent is the normalized form of a gateway webhook, ready to feed
// the payment ledger. EventKey identifies the delivery for deduplication.
type WebhookEvent struct {
	EventKey     string
	EventType    string
	Reference    string
	Status       string
	GatewayTxnID string
	Amount       models.Money
}

// Succeeded reports whether the gateway says the charge went through.
func (e *WebhookEvent) Succeeded() bool {
	return e.Status == "success"
}

// ParseWebhookEvent decodes a raw, already-authenticated webhook body into
// the normalized event. Only charge outcomes are of interest; other event
// types return (nil, nil) and the caller acknowledges without acting.
func ParseWebhookEvent(gatewayName string, rawBody []byte) (*WebhookEvent, error) {
	switch gatewayName {
	case GatewayPaystack:
		return parsePaystackEvent(rawBody)
	case GatewayFlutterwave:
		return parseFlutterwaveEvent(rawBody)
	}
	return nil, fmt.Errorf("unknown payment gateway: %s", gatewayName)
}

func parsePaystackEvent(rawBody []byte) (*WebhookEvent, error) {
	var payload struct {
		Event string `json:"event"`
		Data  struct {
			ID        int64  `json:"id"`
			Reference string `json:"reference"`
			Status    string `json:"status"`
			Amount    int64  `json:"amount"`
			Currency  string `json:"currency"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		return nil, fmt.Errorf("cannot parse paystack webhook payload: %v", err)
	}

	switch payload.Event {
	case "charge.success", "charge.failed":
	default:
		return nil, nil
	}
	if payload.Data.Reference == "" {
		return nil, fmt.Errorf("paystack webhook missing transaction reference")
	}

	status := "failed"
	if payload.Event == "charge.success" && payload.Data.Status == "success" {
		status = "success"
	}

	return &WebhookEvent{
		EventKey:     fmt.Sprintf("%s:%d", payload.Event, payload.Data.ID),
		EventType:    payload.Event,
		Reference:    payload.Data.Reference,
		Status:       status,
		GatewayTxnID: fmt.Sprintf("%d", payload.Data.ID),
		Amount:       models.MoneyFromMinorUnits(payload.Data.Amount, payload.Data.Currency),
	}, nil
}

func parseFlutterwaveEvent(rawBody []byte) (*WebhookEvent, error) {
	var payload struct {
		Event string `json:"event"`
		Data  struct {
			ID       int64           `json:"id"`
			TxRef    string          `json:"tx_ref"`
			Status   string          `json:"status"`
			Amount   decimal.Decimal `json:"amount"`
			Currency string          `json:"currency"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		return nil, fmt.Errorf("cannot parse flutterwave webhook payload: %v", err)
	}

	if payload.Event != "charge.completed" {
		return nil, nil
	}
	if payload.Data.TxRef == "" {
		return nil, fmt.Errorf("flutterwave webhook missing tx_ref")
	}

	status := "failed"
	if payload.Data.Status == "successful" {
		status = "success"
	}

	return &WebhookEvent{
		EventKey:     fmt.Sprintf("%s:%d", payload.Event, payload.Data.ID),
		EventType:    payload.Event,
		Reference:    payload.Data.TxRef,
		Status:       status,
		GatewayTxnID: fmt.Sprintf("%d", payload.Data.ID),
		// Flutterwave reports major units; no float arithmetic on money.
		Amount: models.NewMoney(payload.Data.Amount, payload.Data.Currency),
	}, nil
}
