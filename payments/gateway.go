package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/chineduopara/coursepay/models"
)

const (
	GatewayPaystack    = "paystack"
	GatewayFlutterwave = "flutterwave"
)

// ErrGatewayTimeout marks a call whose outcome is unknown: the local entity
// must stay in its pre-call state and reconciliation resolves it later.
var ErrGatewayTimeout = errors.New("gateway call timed out")

// ErrNotFoundAtGateway marks a definitive "no such resource" answer from the
// provider, as opposed to a transport failure whose outcome is unknown.
var ErrNotFoundAtGateway = errors.New("resource not found at gateway")

type ChargeHandle struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	ProviderRef      string `json:"provider_ref"`
}

type TransactionStatus struct {
	Status       string
	Amount       models.Money
	GatewayTxnID string
}

type TransferResult struct {
	Status     string
	TransferID string
	Reason     string
}

type ResolvedAccount struct {
	AccountNumber string
	AccountName   string
}

// Gateway is the capability boundary to one external payment provider. All
// calls block on the network and carry explicit timeouts via ctx plus the
// adapter's own http.Client timeout.
type Gateway interface {
	Name() string
	InitializeCharge(ctx context.Context, payment *models.Payment, customerEmail string) (*ChargeHandle, error)
	VerifyTransaction(ctx context.Context, reference string) (*TransactionStatus, error)
	InitiateTransfer(ctx context.Context, account *models.InstructorBankAccount, amount models.Money, transferRef, reason string) (*TransferResult, error)
	VerifyTransfer(ctx context.Context, transferRef string) (*TransferResult, error)
	ResolveAccount(ctx context.Context, accountNumber, bankCode string) (*ResolvedAccount, error)
}

// Registry resolves gateways by name and knows which one is the default
// for new charges and which one disburses transfers.
type Registry struct {
	gateways map[string]Gateway
	configs  map[string]*models.PaymentGateway
	def      string
}

func NewRegistry(configs []models.PaymentGateway) *Registry {
	r := &Registry{
		gateways: make(map[string]Gateway),
		configs:  make(map[string]*models.PaymentGateway),
	}
	for i := range configs {
		cfg := configs[i]
		if !cfg.IsActive {
			continue
		}
		var gw Gateway
		switch cfg.Name {
		case GatewayPaystack:
			gw = NewPaystackService(cfg.SecretKey)
		case GatewayFlutterwave:
			gw = NewFlutterwaveService(cfg.SecretKey)
		default:
			continue
		}
		r.gateways[cfg.Name] = gw
		r.configs[cfg.Name] = &cfg
		if cfg.IsDefault {
			r.def = cfg.Name
		}
	}
	return r
}

func (r *Registry) Resolve(name string) (Gateway, error) {
	gw, ok := r.gateways[name]
	if !ok {
		return nil, fmt.Errorf("unknown payment gateway: %s", name)
	}
	return gw, nil
}

func (r *Registry) Config(name string) (*models.PaymentGateway, bool) {
	cfg, ok := r.configs[name]
	return cfg, ok
}

func (r *Registry) Default() (Gateway, error) {
	if r.def == "" {
		return nil, errors.New("no default payment gateway configured")
	}
	return r.Resolve(r.def)
}

// TransferGateway returns the first active gateway that supports transfers.
func (r *Registry) TransferGateway() (Gateway, error) {
	for name, cfg := range r.configs {
		if cfg.SupportsTransfers {
			return r.gateways[name], nil
		}
	}
	return nil, errors.New("no gateway with transfer support configured")
}
