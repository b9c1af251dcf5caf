package services

import (
	"context"
	"errors"

	"creatorhub_backend/internal/logger"
	"creatorhub_backend/internal/models"
	"creatorhub_backend/internal/payments"
	"creatorhub_backend/internal/services/dto"
	"creatorhub_backend/pkg/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentService reconciles gateway charges with subscription rows.
type PaymentService interface {
	PurchaseSubscription(ctx context.Context, db *gorm.DB, subscriberID string, req *dto.SubscribeRequest) (*models.Subscription, error)
	RenewSubscription(ctx context.Context, db *gorm.DB, subscriptionID, requesterID string, req *dto.RenewRequest) (*models.Subscription, error)
}

type paymentService struct {
	gateway       payments.Gateway
	subscriptions SubscriptionService
}

func NewPaymentService(gateway payments.Gateway, subscriptions SubscriptionService) PaymentService {
	return &paymentService{
		gateway:       gateway,
		subscriptions: subscriptions,
	}
}

// PurchaseSubscription: preflight, charge, then subscribe with the charge's
// reference. If subscribe fails after a successful charge the money goes back.
func (s *paymentService) PurchaseSubscription(ctx context.Context, db *gorm.DB, subscriberID string, req *dto.SubscribeRequest) (*models.Subscription, error) {
	creator, err := s.subscriptions.CheckCanSubscribe(ctx, db, subscriberID, req)
	if err != nil {
		return nil, err
	}

	result, err := s.gateway.Transfer(ctx, payments.TransferRequest{
		PayerID:        subscriberID,
		PayeeID:        creator.ID,
		PayeeAccount:   creator.PayeeAccount(),
		Amount:         req.Amount,
		Currency:       req.Currency,
		PaymentToken:   req.PaymentToken,
		IdempotencyKey: uuid.NewString(),
		Description:    "subscription " + req.Type,
	})
	if err != nil {
		logger.CtxWithError(ctx, "payment gateway unavailable", err, "provider", s.gateway.Name())
		return nil, apperrors.ExternalServiceError(err, "payment", "Payment provider is unavailable")
	}
	if !result.Success {
		logger.CtxWarn(ctx, "payment declined", "provider", s.gateway.Name(), "reason", result.FailureReason)
		return nil, apperrors.PaymentFailed(result.FailureReason)
	}

	sub, err := s.subscriptions.Subscribe(ctx, db, subscriberID, req, &dto.PaymentRecord{
		TransactionRef: result.Reference,
		Provider:       s.gateway.Name(),
	})
	if err != nil {
		s.refund(ctx, result.Reference, err)
		return nil, err
	}
	return sub, nil
}

func (s *paymentService) RenewSubscription(ctx context.Context, db *gorm.DB, subscriptionID, requesterID string, req *dto.RenewRequest) (*models.Subscription, error) {
	current, err := s.subscriptions.GetSubscription(ctx, db, requesterID, subscriptionID)
	if err != nil {
		return nil, err
	}
	if current.SubscriberID != requesterID {
		return nil, apperrors.ErrNotSubscriptionOwner
	}
	if current.Type == models.SubscriptionTypeOneTime {
		return nil, apperrors.Validation("subscription", "One-time subscriptions do not renew")
	}

	amount, currency := current.Amount, current.Currency
	if req.Amount > 0 {
		amount = req.Amount
	}
	if req.Currency != "" {
		currency = req.Currency
	}

	creator, err := s.subscriptions.CheckCreator(ctx, db, current.CreatorID)
	if err != nil {
		return nil, err
	}

	result, err := s.gateway.Transfer(ctx, payments.TransferRequest{
		PayerID:        requesterID,
		PayeeID:        creator.ID,
		PayeeAccount:   creator.PayeeAccount(),
		Amount:         amount,
		Currency:       currency,
		PaymentToken:   req.PaymentToken,
		IdempotencyKey: uuid.NewString(),
		Description:    "renewal " + current.ID,
	})
	if err != nil {
		logger.CtxWithError(ctx, "payment gateway unavailable", err, "provider", s.gateway.Name())
		return nil, apperrors.ExternalServiceError(err, "payment", "Payment provider is unavailable")
	}
	if !result.Success {
		logger.CtxWarn(ctx, "renewal payment declined", "subscription_id", subscriptionID, "reason", result.FailureReason)
		return nil, apperrors.PaymentFailed(result.FailureReason)
	}

	sub, err := s.subscriptions.Renew(ctx, db, subscriptionID, requesterID, &dto.RenewalData{
		Amount:   amount,
		Currency: currency,
		Payment: dto.PaymentRecord{
			TransactionRef: result.Reference,
			Provider:       s.gateway.Name(),
		},
	})
	if err != nil {
		s.refund(ctx, result.Reference, err)
		return nil, err
	}
	return sub, nil
}

// refund is best-effort. Whatever cannot be refunded is logged with its
// reference so it can be reconciled by hand.
func (s *paymentService) refund(ctx context.Context, reference string, cause error) {
	err := s.gateway.Refund(ctx, reference)
	switch {
	case err == nil:
		logger.CtxWarn(ctx, "payment refunded after failed subscription write", "reference", reference, "cause", cause.Error())
	case errors.Is(err, payments.ErrRefundUnsupported):
		logger.CtxError(ctx, "payment needs manual reconciliation", "reference", reference, "provider", s.gateway.Name(), "cause", cause.Error())
	default:
		logger.CtxWithError(ctx, "refund failed, payment needs manual reconciliation", err, "reference", reference, "cause", cause.Error())
	}
}
