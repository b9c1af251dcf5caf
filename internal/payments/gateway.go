package payments

import (
	"context"
	"errors"
	"fmt"
	"math"

	"creatorhub_backend/internal/config"
)

const (
	ProviderLedger = "ledger"
	ProviderStripe = "stripe"
)

var (
	ErrRefundUnsupported = errors.New("refund is not supported by this provider")
	ErrUnknownProvider   = errors.New("unknown payments provider")
)

// TransferRequest moves value from payer to payee. PaymentToken is whatever the
// client produced: a signed chain transaction for the ledger, a payment method id for stripe.
type TransferRequest struct {
	PayerID        string
	PayeeID        string
	PayeeAccount   string
	Amount         float64
	Currency       string
	PaymentToken   string
	IdempotencyKey string
	Description    string
}

// TransferResult: a declined transfer is Success=false with a reason, not an error.
// Errors are reserved for the provider being unreachable or misconfigured.
type TransferResult struct {
	Success       bool
	Reference     string
	FailureReason string
	Provider      string
}

type Gateway interface {
	Name() string
	Transfer(ctx context.Context, req TransferRequest) (*TransferResult, error)
	Refund(ctx context.Context, reference string) error
}

// NewGateway picks the provider from config.
func NewGateway(cfg config.PaymentsConfig) (Gateway, error) {
	switch cfg.Provider {
	case "", ProviderLedger:
		return NewLedgerGateway(), nil
	case ProviderStripe:
		if cfg.StripeSecretKey == "" {
			return nil, fmt.Errorf("stripe provider selected but STRIPE_SECRET_KEY is empty")
		}
		return NewStripeGateway(cfg.StripeSecretKey, cfg.PlatformFeePercent), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Provider)
	}
}

// minorUnits converts 10.5 into 1050.
func minorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
