package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/chineduopara/coursepay/models"
)

const flutterwaveBaseURL = "https://api.flutterwave.com/v3"

// FlutterwaveService is the secondary gateway adapter. Charges initialize
// through the hosted payment page; transfers and account resolution follow
// the same capability surface as the primary gateway.
type FlutterwaveService struct {
	secretKey string
	baseURL   string
	client    *http.Client
}

func NewFlutterwaveService(secretKey string) *FlutterwaveService {
	return &FlutterwaveService{
		secretKey: secretKey,
		baseURL:   flutterwaveBaseURL,
		client:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *FlutterwaveService) Name() string { return GatewayFlutterwave }

type flutterwaveEnvelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (s *FlutterwaveService) call(ctx context.Context, method, path string, payload any) (json.RawMessage, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal flutterwave payload: %v", err)
		}
		body = bytes.NewBuffer(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, classifyTransportErr(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read flutterwave response: %v", err)
	}

	var env flutterwaveEnvelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return nil, fmt.Errorf("flutterwave returned non-JSON response (status %d)", resp.StatusCode)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFoundAtGateway, env.Message)
	}
	if resp.StatusCode >= 400 || env.Status != "success" {
		return nil, fmt.Errorf("flutterwave API error (status %d): %s", resp.StatusCode, env.Message)
	}
	return env.Data, nil
}

func (s *FlutterwaveService) InitializeCharge(ctx context.Context, payment *models.Payment, customerEmail string) (*ChargeHandle, error) {
	payload := map[string]any{
		"tx_ref":   payment.Reference,
		"amount":   payment.Amount.StringFixed(2),
		"currency": payment.Currency,
		"customer": map[string]string{"email": customerEmail},
	}

	data, err := s.call(ctx, http.MethodPost, "/payments", payload)
	if err != nil {
		return nil, err
	}

	var out struct {
		Link string `json:"link"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payments response: %v", err)
	}

	return &ChargeHandle{AuthorizationURL: out.Link, ProviderRef: payment.Reference}, nil
}

func (s *FlutterwaveService) VerifyTransaction(ctx context.Context, reference string) (*TransactionStatus, error) {
	q := url.Values{}
	q.Set("tx_ref", reference)

	data, err := s.call(ctx, http.MethodGet, "/transactions/verify_by_reference?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var out struct {
		ID       int64           `json:"id"`
		Status   string          `json:"status"`
		Amount   decimal.Decimal `json:"amount"`
		Currency string          `json:"currency"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal verify response: %v", err)
	}

	// Flutterwave reports major units; no float arithmetic on money.
	amount := models.NewMoney(out.Amount, out.Currency)

	status := out.Status
	if status == "successful" {
		status = "success"
	}

	return &TransactionStatus{
		Status:       status,
		Amount:       amount,
		GatewayTxnID: fmt.Sprintf("%d", out.ID),
	}, nil
}

func (s *FlutterwaveService) InitiateTransfer(ctx context.Context, account *models.InstructorBankAccount, amount models.Money, transferRef, reason string) (*TransferResult, error) {
	payload := map[string]any{
		"account_bank":   account.BankCode,
		"account_number": account.AccountNumber,
		"amount":         amount.Amount.StringFixed(2),
		"currency":       amount.Currency,
		"reference":      transferRef,
		"narration":      reason,
	}

	data, err := s.call(ctx, http.MethodPost, "/transfers", payload)
	if err != nil {
		return nil, err
	}

	var out struct {
		ID     int64  `json:"id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transfer response: %v", err)
	}

	return &TransferResult{Status: normalizeTransferStatus(out.Status), TransferID: fmt.Sprintf("%d", out.ID)}, nil
}

func (s *FlutterwaveService) VerifyTransfer(ctx context.Context, transferRef string) (*TransferResult, error) {
	q := url.Values{}
	q.Set("reference", transferRef)

	data, err := s.call(ctx, http.MethodGet, "/transfers?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var out []struct {
		ID              int64  `json:"id"`
		Status          string `json:"status"`
		CompleteMessage string `json:"complete_message"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transfer list response: %v", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no transfer for reference %s", ErrNotFoundAtGateway, transferRef)
	}

	t := out[0]
	return &TransferResult{
		Status:     normalizeTransferStatus(t.Status),
		TransferID: fmt.Sprintf("%d", t.ID),
		Reason:     t.CompleteMessage,
	}, nil
}

func (s *FlutterwaveService) ResolveAccount(ctx context.Context, accountNumber, bankCode string) (*ResolvedAccount, error) {
	payload := map[string]string{
		"account_number": accountNumber,
		"account_bank":   bankCode,
	}

	data, err := s.call(ctx, http.MethodPost, "/accounts/resolve", payload)
	if err != nil {
		return nil, err
	}

	var out struct {
		AccountNumber string `json:"account_number"`
		AccountName   string `json:"account_name"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal resolve response: %v", err)
	}

	return &ResolvedAccount{AccountNumber: out.AccountNumber, AccountName: out.AccountName}, nil
}

func normalizeTransferStatus(status string) string {
	switch status {
	case "SUCCESSFUL", "successful":
		return "success"
	case "FAILED", "failed":
		return "failed"
	default:
		return "pending"
	}
}
