package payments

import (
	"context"
	"errors"
	"strings"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
	"github.com/stripe/stripe-go/v82/refund"
)

// StripeGateway charges the payer's card and routes the money to the creator's
// connected account, keeping the platform fee.
type StripeGateway struct {
	feePercent float64
}

func NewStripeGateway(secretKey string, feePercent float64) *StripeGateway {
	stripe.Key = secretKey
	return &StripeGateway{feePercent: feePercent}
}

func (g *StripeGateway) Name() string { return ProviderStripe }

func (g *StripeGateway) Transfer(ctx context.Context, req TransferRequest) (*TransferResult, error) {
	result := &TransferResult{Provider: ProviderStripe}
	if req.PaymentToken == "" {
		result.FailureReason = "payment method is missing"
		return result, nil
	}
	if req.PayeeAccount == "" {
		result.FailureReason = "creator has no payout account"
		return result, nil
	}

	amount := minorUnits(req.Amount)
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(amount),
		Currency:           stripe.String(strings.ToLower(req.Currency)),
		PaymentMethod:      stripe.String(req.PaymentToken),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Confirm:            stripe.Bool(true),
		Description:        stripe.String(req.Description),
		TransferData: &stripe.PaymentIntentTransferDataParams{
			Destination: stripe.String(req.PayeeAccount),
		},
	}
	if fee := int64(float64(amount) * g.feePercent / 100); fee > 0 {
		params.ApplicationFeeAmount = stripe.Int64(fee)
	}
	params.Context = ctx
	params.AddMetadata("payer_id", req.PayerID)
	params.AddMetadata("payee_id", req.PayeeID)
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeCard {
			result.FailureReason = stripeErr.Msg
			return result, nil
		}
		return nil, err
	}

	result.Reference = pi.ID
	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		result.FailureReason = "payment intent status: " + string(pi.Status)
		return result, nil
	}
	result.Success = true
	return result, nil
}

func (g *StripeGateway) Refund(ctx context.Context, reference string) error {
	params := &stripe.RefundParams{
		PaymentIntent:        stripe.String(reference),
		ReverseTransfer:      stripe.Bool(true),
		RefundApplicationFee: stripe.Bool(true),
	}
	params.Context = ctx
	_, err := refund.New(params)
	return err
}
