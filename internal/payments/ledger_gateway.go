package payments

import (
	"context"
	"strings"
)

const maxLedgerTokenLength = 512

// LedgerGateway accepts transfers the user's wallet already signed and
// broadcast. The signed transaction is opaque here and doubles as the reference.
type LedgerGateway struct{}

func NewLedgerGateway() *LedgerGateway {
	return &LedgerGateway{}
}

func (g *LedgerGateway) Name() string { return ProviderLedger }

func (g *LedgerGateway) Transfer(ctx context.Context, req TransferRequest) (*TransferResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &TransferResult{Provider: ProviderLedger}
	token := strings.TrimSpace(req.PaymentToken)
	switch {
	case token == "":
		result.FailureReason = "signed transaction is missing"
	case len(token) > maxLedgerTokenLength:
		result.FailureReason = "signed transaction is too long"
	case req.Amount <= 0:
		result.FailureReason = "amount must be positive"
	case req.PayeeAccount == "":
		result.FailureReason = "creator has no wallet address"
	default:
		result.Success = true
		result.Reference = token
	}
	return result, nil
}

// Refund: chain transfers cannot be pulled back by the platform.
func (g *LedgerGateway) Refund(ctx context.Context, reference string) error {
	return ErrRefundUnsupported
}
