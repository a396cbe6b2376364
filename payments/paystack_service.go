package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/chineduopara/coursepay/models"
)

const paystackBaseURL = "https://api.paystack.co"

// PaystackService is the primary gateway adapter: card charges, NGN bank
// transfers and account-name resolution.
type PaystackService struct {
	secretKey string
	baseURL   string
	client    *http.Client
}

func NewPaystackService(secretKey string) *PaystackService {
	return &PaystackService{
		secretKey: secretKey,
		baseURL:   paystackBaseURL,
		client:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *PaystackService) Name() string { return GatewayPaystack }

type paystackEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (s *PaystackService) call(ctx context.Context, method, path string, payload any) (json.RawMessage, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal paystack payload: %v", err)
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
		return nil, fmt.Errorf("failed to read paystack response: %v", err)
	}

	var env paystackEnvelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return nil, fmt.Errorf("paystack returned non-JSON response (status %d)", resp.StatusCode)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFoundAtGateway, env.Message)
	}
	if resp.StatusCode >= 400 || !env.Status {
		return nil, fmt.Errorf("paystack API error (status %d): %s", resp.StatusCode, env.Message)
	}
	return env.Data, nil
}

func (s *PaystackService) InitializeCharge(ctx context.Context, payment *models.Payment, customerEmail string) (*ChargeHandle, error) {
	payload := map[string]any{
		"email":     customerEmail,
		"amount":    payment.Money().MinorUnits(),
		"currency":  payment.Currency,
		"reference": payment.Reference,
	}

	data, err := s.call(ctx, http.MethodPost, "/transaction/initialize", payload)
	if err != nil {
		return nil, err
	}

	var out struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal initialize response: %v", err)
	}

	return &ChargeHandle{
		AuthorizationURL: out.AuthorizationURL,
		AccessCode:       out.AccessCode,
		ProviderRef:      out.Reference,
	}, nil
}

func (s *PaystackService) VerifyTransaction(ctx context.Context, reference string) (*TransactionStatus, error) {
	data, err := s.call(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil)
	if err != nil {
		return nil, err
	}

	var out struct {
		ID       int64  `json:"id"`
		Status   string `json:"status"`
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal verify response: %v", err)
	}

	return &TransactionStatus{
		Status:       out.Status,
		Amount:       models.MoneyFromMinorUnits(out.Amount, out.Currency),
		GatewayTxnID: fmt.Sprintf("%d", out.ID),
	}, nil
}

func (s *PaystackService) InitiateTransfer(ctx context.Context, account *models.InstructorBankAccount, amount models.Money, transferRef, reason string) (*TransferResult, error) {
	recipientName := account.AccountNumber
	if account.VerifiedAccountName != nil {
		recipientName = *account.VerifiedAccountName
	}

	recipientPayload := map[string]any{
		"type":           "nuban",
		"name":           recipientName,
		"account_number": account.AccountNumber,
		"bank_code":      account.BankCode,
		"currency":       amount.Currency,
	}
	data, err := s.call(ctx, http.MethodPost, "/transferrecipient", recipientPayload)
	if err != nil {
		return nil, err
	}

	var recipient struct {
		RecipientCode string `json:"recipient_code"`
	}
	if err := json.Unmarshal(data, &recipient); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recipient response: %v", err)
	}

	transferPayload := map[string]any{
		"source":    "balance",
		"amount":    amount.MinorUnits(),
		"currency":  amount.Currency,
		"recipient": recipient.RecipientCode,
		"reference": transferRef,
		"reason":    reason,
	}
	data, err = s.call(ctx, http.MethodPost, "/transfer", transferPayload)
	if err != nil {
		return nil, err
	}

	var out struct {
		Status       string `json:"status"`
		TransferCode string `json:"transfer_code"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transfer response: %v", err)
	}

	return &TransferResult{Status: out.Status, TransferID: out.TransferCode}, nil
}

func (s *PaystackService) VerifyTransfer(ctx context.Context, transferRef string) (*TransferResult, error) {
	data, err := s.call(ctx, http.MethodGet, "/transfer/verify/"+url.PathEscape(transferRef), nil)
	if err != nil {
		return nil, err
	}

	var out struct {
		Status       string `json:"status"`
		TransferCode string `json:"transfer_code"`
		Reason       string `json:"reason"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transfer verify response: %v", err)
	}

	return &TransferResult{Status: out.Status, TransferID: out.TransferCode, Reason: out.Reason}, nil
}

func (s *PaystackService) ResolveAccount(ctx context.Context, accountNumber, bankCode string) (*ResolvedAccount, error) {
	q := url.Values{}
	q.Set("account_number", accountNumber)
	q.Set("bank_code", bankCode)

	data, err := s.call(ctx, http.MethodGet, "/bank/resolve?"+q.Encode(), nil)
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

// classifyTransportErr maps timeouts onto ErrGatewayTimeout so callers can
// tell "outcome unknown" apart from a definitive rejection.
func classifyTransportErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrGatewayTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrGatewayTimeout, err)
	}
	return err
}
