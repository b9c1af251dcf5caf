package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"creatorhub_backend/internal/logger"
	"creatorhub_backend/internal/models"
	"creatorhub_backend/internal/repositories"
	"creatorhub_backend/internal/services/dto"
	"creatorhub_backend/pkg/apperrors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const manualPaymentProvider = "manual"

// SubscriptionService is the only writer of subscription and follow rows.
type SubscriptionService interface {
	Subscribe(ctx context.Context, db *gorm.DB, subscriberID string, req *dto.SubscribeRequest, payment *dto.PaymentRecord) (*models.Subscription, error)
	Renew(ctx context.Context, db *gorm.DB, subscriptionID, requesterID string, renewal *dto.RenewalData) (*models.Subscription, error)
	Cancel(ctx context.Context, db *gorm.DB, subscriberID, creatorID string) error
	ExpireOverdue(ctx context.Context, db *gorm.DB) (int64, error)

	Follow(ctx context.Context, db *gorm.DB, subscriberID, creatorID string) error
	Unfollow(ctx context.Context, db *gorm.DB, subscriberID, creatorID string) error
	GetFollowing(ctx context.Context, db *gorm.DB, subscriberID string) ([]models.Follow, error)

	// CheckCanSubscribe runs the subscribe preconditions without writing anything.
	CheckCanSubscribe(ctx context.Context, db *gorm.DB, subscriberID string, req *dto.SubscribeRequest) (*models.User, error)
	CheckCreator(ctx context.Context, db *gorm.DB, creatorID string) (*models.User, error)
	GetSubscription(ctx context.Context, db *gorm.DB, requesterID, subscriptionID string) (*models.Subscription, error)
	GetMySubscriptions(ctx context.Context, db *gorm.DB, subscriberID string) ([]models.Subscription, error)
	GetSubscribers(ctx context.Context, db *gorm.DB, creatorID string, query dto.SubscribersQuery) (*dto.SubscriptionListResponse, error)
	GetPayments(ctx context.Context, db *gorm.DB, requesterID, subscriptionID string) ([]models.SubscriptionPayment, error)
}

type subscriptionService struct {
	subscriptionRepo repositories.SubscriptionRepository
	followRepo       repositories.FollowRepository
	paymentRepo      repositories.PaymentRepository
	userRepo         repositories.UserRepository
	notifier         Notifier
	now              func() time.Time
}

func NewSubscriptionService(
	subscriptionRepo repositories.SubscriptionRepository,
	followRepo repositories.FollowRepository,
	paymentRepo repositories.PaymentRepository,
	userRepo repositories.UserRepository,
	notifier Notifier,
) SubscriptionService {
	return &subscriptionService{
		subscriptionRepo: subscriptionRepo,
		followRepo:       followRepo,
		paymentRepo:      paymentRepo,
		userRepo:         userRepo,
		notifier:         notifier,
		now:              time.Now,
	}
}

// ---------------- Subscribe ----------------

func (s *subscriptionService) CheckCanSubscribe(ctx context.Context, db *gorm.DB, subscriberID string, req *dto.SubscribeRequest) (*models.User, error) {
	if _, _, err := validateSubscribeInput(subscriberID, req); err != nil {
		return nil, err
	}
	creator, err := s.findCreator(db, req.CreatorID)
	if err != nil {
		return nil, err
	}

	existing, err := s.subscriptionRepo.FindActive(db, subscriberID, req.CreatorID)
	if err == nil && !existing.IsLapsed(s.now()) {
		return nil, apperrors.ErrAlreadySubscribed
	}
	if err != nil && !errors.Is(err, repositories.ErrSubscriptionNotFound) {
		return nil, apperrors.StoreError(err)
	}
	return creator, nil
}

func (s *subscriptionService) CheckCreator(ctx context.Context, db *gorm.DB, creatorID string) (*models.User, error) {
	return s.findCreator(db, creatorID)
}

// Subscribe inserts the active row (and the initial payment, when there is one)
// in one transaction. Two racing calls are settled by the unique index on the
// active pair key: the loser gets "already subscribed".
func (s *subscriptionService) Subscribe(ctx context.Context, db *gorm.DB, subscriberID string, req *dto.SubscribeRequest, payment *dto.PaymentRecord) (*models.Subscription, error) {
	subType, currency, err := validateSubscribeInput(subscriberID, req)
	if err != nil {
		return nil, err
	}

	now := s.now()
	expiresAt, _ := models.PeriodEnd(subType, now)

	sub := &models.Subscription{
		SubscriberID:       subscriberID,
		CreatorID:          req.CreatorID,
		Type:               subType,
		Amount:             req.Amount,
		Currency:           currency,
		Notes:              req.Notes,
		StartedAt:          now,
		CurrentPeriodStart: now,
		ExpiresAt:          expiresAt,
	}
	sub.Activate()

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.findCreator(tx, req.CreatorID); err != nil {
			return err
		}

		existing, err := s.subscriptionRepo.FindActive(tx, subscriberID, req.CreatorID)
		switch {
		case err == nil:
			if !existing.IsLapsed(now) {
				return apperrors.ErrAlreadySubscribed
			}
			// Строка истекла, но статус ещё active: освобождаем слот пары.
			// Ноль строк: параллельный subscribe уже освободил слот и занял его.
			if err := s.subscriptionRepo.MarkExpired(tx, existing.ID); err != nil {
				if errors.Is(err, repositories.ErrSubscriptionNotFound) {
					return apperrors.ErrAlreadySubscribed
				}
				return apperrors.StoreError(err)
			}
		case errors.Is(err, repositories.ErrSubscriptionNotFound):
		default:
			return apperrors.StoreError(err)
		}

		if err := s.subscriptionRepo.Create(tx, sub); err != nil {
			if errors.Is(err, repositories.ErrActiveSubscriptionExists) {
				return apperrors.ErrAlreadySubscribed
			}
			return apperrors.StoreError(err)
		}

		if payment != nil && payment.TransactionRef != "" {
			return s.recordPayment(tx, sub, models.PaymentKindInitial, payment)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.CtxInfo(ctx, "subscription created",
		"subscription_id", sub.ID, "subscriber_id", subscriberID, "creator_id", req.CreatorID,
		"type", sub.Type, "expires_at", sub.ExpiresAt)

	s.notify(ctx, db, &dto.NotificationMessage{
		UserID:  sub.CreatorID,
		Type:    models.NotificationTypeNewSubscriber,
		Title:   "New subscriber",
		Message: fmt.Sprintf("You have a new %s subscriber", sub.Type),
		Data: map[string]interface{}{
			"subscription_id": sub.ID,
			"subscriber_id":   sub.SubscriberID,
		},
	})
	return sub, nil
}

// ---------------- Renew ----------------

// Renew extends the period and appends the renewal payment atomically. The row
// is locked for the duration so two renewals cannot compute the same period.
func (s *subscriptionService) Renew(ctx context.Context, db *gorm.DB, subscriptionID, requesterID string, renewal *dto.RenewalData) (*models.Subscription, error) {
	var renewed *models.Subscription
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub, err := s.subscriptionRepo.FindByIDForUpdate(tx, subscriptionID)
		if err != nil {
			return handleSubscriptionError(err)
		}
		if sub.SubscriberID != requesterID {
			return apperrors.ErrNotSubscriptionOwner
		}
		if renewal == nil || renewal.Payment.TransactionRef == "" {
			return apperrors.Validation("subscription", "A payment reference is required to renew")
		}
		if renewal.Amount < 0 {
			return apperrors.ErrInvalidAmount
		}
		if sub.Type == models.SubscriptionTypeOneTime {
			return apperrors.Validation("subscription", "One-time subscriptions do not renew")
		}

		now := s.now()
		var start time.Time
		switch sub.Status {
		case models.SubscriptionStatusActive:
			start = now
			if sub.ExpiresAt.After(now) {
				start = sub.ExpiresAt
			}
		case models.SubscriptionStatusExpired:
			start = now
		default:
			return apperrors.Validation("subscription", "Only active or expired subscriptions can be renewed")
		}

		end, _ := models.PeriodEnd(sub.Type, start)
		if renewal.Amount > 0 {
			sub.Amount = renewal.Amount
		}
		if renewal.Currency != "" {
			sub.Currency = strings.ToUpper(renewal.Currency)
		}
		sub.CurrentPeriodStart = start
		sub.ExpiresAt = end
		sub.Activate()

		if err := s.subscriptionRepo.UpdatePeriod(tx, sub); err != nil {
			if errors.Is(err, repositories.ErrActiveSubscriptionExists) {
				return apperrors.ErrAlreadySubscribed
			}
			return handleSubscriptionError(err)
		}

		if err := s.recordPayment(tx, sub, models.PaymentKindRenewal, &renewal.Payment); err != nil {
			return err
		}
		renewed = sub
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.CtxInfo(ctx, "subscription renewed",
		"subscription_id", renewed.ID, "period_start", renewed.CurrentPeriodStart, "expires_at", renewed.ExpiresAt)

	s.notify(ctx, db, &dto.NotificationMessage{
		UserID:  renewed.SubscriberID,
		Type:    models.NotificationTypeSubscriptionRenewed,
		Title:   "Subscription renewed",
		Message: fmt.Sprintf("Your subscription now runs until %s", renewed.ExpiresAt.UTC().Format("2006-01-02")),
		Data: map[string]interface{}{
			"subscription_id": renewed.ID,
			"creator_id":      renewed.CreatorID,
			"expires_at":      renewed.ExpiresAt,
		},
	})
	return renewed, nil
}

// ---------------- Cancel / expire ----------------

// Cancel is idempotent: nothing active for the pair means nothing to do.
func (s *subscriptionService) Cancel(ctx context.Context, db *gorm.DB, subscriberID, creatorID string) error {
	affected, err := s.subscriptionRepo.CancelActive(db, subscriberID, creatorID, s.now())
	if err != nil {
		return apperrors.StoreError(err)
	}
	if affected == 0 {
		logger.CtxDebug(ctx, "cancel: no active subscription", "subscriber_id", subscriberID, "creator_id", creatorID)
		return nil
	}

	logger.CtxInfo(ctx, "subscription cancelled", "subscriber_id", subscriberID, "creator_id", creatorID)
	s.notify(ctx, db, &dto.NotificationMessage{
		UserID:  creatorID,
		Type:    models.NotificationTypeSubscriptionCancelled,
		Title:   "Subscription cancelled",
		Message: "A subscriber cancelled their subscription",
		Data:    map[string]interface{}{"subscriber_id": subscriberID},
	})
	return nil
}

func (s *subscriptionService) ExpireOverdue(ctx context.Context, db *gorm.DB) (int64, error) {
	n, err := s.subscriptionRepo.ExpireOverdue(db.WithContext(ctx), s.now())
	if err != nil {
		return 0, apperrors.StoreError(err)
	}
	if n > 0 {
		logger.CtxInfo(ctx, "overdue subscriptions expired", "count", n)
	}
	return n, nil
}

// ---------------- Follow ----------------

func (s *subscriptionService) Follow(ctx context.Context, db *gorm.DB, subscriberID, creatorID string) error {
	if subscriberID == creatorID {
		return apperrors.Validation("follow", "Cannot follow yourself")
	}
	if _, err := s.findCreator(db, creatorID); err != nil {
		return err
	}

	follow := &models.Follow{
		SubscriberID: subscriberID,
		CreatorID:    creatorID,
		Status:       models.FollowStatusActive,
	}
	if err := s.followRepo.Upsert(db, follow); err != nil {
		return apperrors.StoreError(err)
	}
	return nil
}

func (s *subscriptionService) Unfollow(ctx context.Context, db *gorm.DB, subscriberID, creatorID string) error {
	if _, err := s.followRepo.SetStatus(db, subscriberID, creatorID, models.FollowStatusInactive); err != nil {
		return apperrors.StoreError(err)
	}
	return nil
}

func (s *subscriptionService) GetFollowing(ctx context.Context, db *gorm.DB, subscriberID string) ([]models.Follow, error) {
	follows, err := s.followRepo.FindFollowing(db, subscriberID)
	if err != nil {
		return nil, apperrors.StoreError(err)
	}
	return follows, nil
}

// ---------------- Reads ----------------

// GetSubscription is visible to both sides of the relationship.
func (s *subscriptionService) GetSubscription(ctx context.Context, db *gorm.DB, requesterID, subscriptionID string) (*models.Subscription, error) {
	sub, err := s.subscriptionRepo.FindByID(db, subscriptionID)
	if err != nil {
		return nil, handleSubscriptionError(err)
	}
	if sub.SubscriberID != requesterID && sub.CreatorID != requesterID {
		return nil, apperrors.Forbidden("subscription", "Access denied")
	}
	return sub, nil
}

func (s *subscriptionService) GetMySubscriptions(ctx context.Context, db *gorm.DB, subscriberID string) ([]models.Subscription, error) {
	subs, err := s.subscriptionRepo.FindBySubscriber(db, subscriberID)
	if err != nil {
		return nil, apperrors.StoreError(err)
	}
	return subs, nil
}

func (s *subscriptionService) GetSubscribers(ctx context.Context, db *gorm.DB, creatorID string, query dto.SubscribersQuery) (*dto.SubscriptionListResponse, error) {
	page, pageSize := normalizePage(query.Page, query.PageSize)
	subs, total, err := s.subscriptionRepo.FindByCreator(db, creatorID, models.SubscriptionStatus(query.Status), page, pageSize)
	if err != nil {
		return nil, apperrors.StoreError(err)
	}
	return &dto.SubscriptionListResponse{
		Subscriptions: subs,
		Total:         total,
		Page:          page,
		PageSize:      pageSize,
		TotalPages:    dto.TotalPages(total, pageSize),
	}, nil
}

func (s *subscriptionService) GetPayments(ctx context.Context, db *gorm.DB, requesterID, subscriptionID string) ([]models.SubscriptionPayment, error) {
	if _, err := s.GetSubscription(ctx, db, requesterID, subscriptionID); err != nil {
		return nil, err
	}
	payments, err := s.paymentRepo.FindBySubscription(db, subscriptionID)
	if err != nil {
		return nil, apperrors.StoreError(err)
	}
	return payments, nil
}

// ---------------- Helpers ----------------

func validateSubscribeInput(subscriberID string, req *dto.SubscribeRequest) (models.SubscriptionType, string, error) {
	if req.CreatorID == "" {
		return "", "", apperrors.Validation("subscription", "creator_id is required")
	}
	if subscriberID == req.CreatorID {
		return "", "", apperrors.ErrSelfSubscription
	}
	subType, ok := models.ParseSubscriptionType(req.Type)
	if !ok {
		return "", "", apperrors.ErrInvalidSubscriptionType
	}
	if req.Amount <= 0 {
		return "", "", apperrors.ErrInvalidAmount
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if len(currency) != 3 {
		return "", "", apperrors.Validation("subscription", "Currency must be a 3-letter code")
	}
	return subType, currency, nil
}

func (s *subscriptionService) findCreator(db *gorm.DB, creatorID string) (*models.User, error) {
	creator, err := s.userRepo.FindByID(db, creatorID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.NotFound("user", "Creator not found")
		}
		return nil, apperrors.StoreError(err)
	}
	if !creator.IsCreator() {
		return nil, apperrors.Validation("subscription", "User is not a creator")
	}
	return creator, nil
}

func (s *subscriptionService) recordPayment(tx *gorm.DB, sub *models.Subscription, kind models.PaymentKind, payment *dto.PaymentRecord) error {
	provider := payment.Provider
	if provider == "" {
		provider = manualPaymentProvider
	}
	record := &models.SubscriptionPayment{
		SubscriptionID: sub.ID,
		PayerID:        sub.SubscriberID,
		PayeeID:        sub.CreatorID,
		Kind:           kind,
		Amount:         sub.Amount,
		Currency:       sub.Currency,
		TransactionRef: payment.TransactionRef,
		Provider:       provider,
		PeriodStart:    sub.CurrentPeriodStart,
		PeriodEnd:      sub.ExpiresAt,
	}
	if payment.Metadata != nil {
		raw, err := json.Marshal(payment.Metadata)
		if err != nil {
			return apperrors.InternalError(err)
		}
		record.Metadata = datatypes.JSON(raw)
	}

	if err := s.paymentRepo.Create(tx, record); err != nil {
		if errors.Is(err, repositories.ErrDuplicateTransactionRef) {
			return apperrors.Conflict("payment", "Transaction reference was already used")
		}
		return apperrors.StoreError(err)
	}
	return nil
}

// notify is fire-and-forget: a failed notice never fails the operation.
func (s *subscriptionService) notify(ctx context.Context, db *gorm.DB, msg *dto.NotificationMessage) {
	if s.notifier == nil {
		return
	}
	if _, err := s.notifier.Send(ctx, db, msg); err != nil {
		logger.CtxWithError(ctx, "side notification failed", err, "user_id", msg.UserID, "type", msg.Type)
	}
}

func handleSubscriptionError(err error) error {
	if errors.Is(err, repositories.ErrSubscriptionNotFound) {
		return apperrors.NotFound("subscription", "Subscription not found")
	}
	return apperrors.StoreError(err)
}
