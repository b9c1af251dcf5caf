package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"creatorhub_backend/internal/email"
	"creatorhub_backend/internal/logger"
	"creatorhub_backend/internal/models"
	"creatorhub_backend/internal/repositories"
	"creatorhub_backend/internal/services/dto"
	"creatorhub_backend/pkg/apperrors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const defaultExpiringWithinDays = 3

// Notifier is the sink other services hand notices to. The bool reports whether
// a new row was stored (false for a dedupe hit).
type Notifier interface {
	Send(ctx context.Context, db *gorm.DB, msg *dto.NotificationMessage) (bool, error)
}

// Pusher delivers a frame to a user's live connections. Implemented by ws.WebSocketManager.
type Pusher interface {
	PushToUser(userID string, message any) bool
}

type NotificationService interface {
	Notifier

	NotifyNewContent(ctx context.Context, db *gorm.DB, creatorID string, content *models.ContentMeta) (*dto.NotifySummary, error)
	NotifyExpiringSubscriptions(ctx context.Context, db *gorm.DB, withinDays int) (*dto.NotifySummary, error)

	GetUserNotifications(ctx context.Context, db *gorm.DB, userID string, criteria dto.NotificationCriteria) (*dto.NotificationListResponse, error)
	GetUnreadCount(ctx context.Context, db *gorm.DB, userID string) (int64, error)
	MarkAsRead(ctx context.Context, db *gorm.DB, userID, notificationID string) error
	MarkAllAsRead(ctx context.Context, db *gorm.DB, userID string) (int64, error)
}

type notificationService struct {
	notificationRepo repositories.NotificationRepository
	subscriptionRepo repositories.SubscriptionRepository
	followRepo       repositories.FollowRepository
	userRepo         repositories.UserRepository
	pusher           Pusher
	mailer           email.Provider
	now              func() time.Time
}

// NewNotificationService - pusher и mailer могут быть nil, тогда уведомления только сохраняются.
func NewNotificationService(
	notificationRepo repositories.NotificationRepository,
	subscriptionRepo repositories.SubscriptionRepository,
	followRepo repositories.FollowRepository,
	userRepo repositories.UserRepository,
	pusher Pusher,
	mailer email.Provider,
) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		subscriptionRepo: subscriptionRepo,
		followRepo:       followRepo,
		userRepo:         userRepo,
		pusher:           pusher,
		mailer:           mailer,
		now:              time.Now,
	}
}

// ---------------- Sink ----------------

func (s *notificationService) Send(ctx context.Context, db *gorm.DB, msg *dto.NotificationMessage) (bool, error) {
	if msg.UserID == "" || msg.Type == "" {
		return false, apperrors.Validation("notification", "user_id and type are required")
	}

	notification := &models.Notification{
		UserID:  msg.UserID,
		Type:    msg.Type,
		Title:   msg.Title,
		Message: msg.Message,
	}
	if msg.Data != nil {
		raw, err := json.Marshal(msg.Data)
		if err != nil {
			return false, apperrors.InternalError(fmt.Errorf("failed to marshal notification data: %w", err))
		}
		notification.Data = datatypes.JSON(raw)
	}
	if msg.DedupeKey != "" {
		key := msg.DedupeKey
		notification.DedupeKey = &key
	}

	created, err := s.notificationRepo.Create(db, notification)
	if err != nil {
		return false, apperrors.StoreError(err)
	}
	if !created {
		logger.CtxDebug(ctx, "notification deduplicated", "user_id", msg.UserID, "dedupe_key", msg.DedupeKey)
		return false, nil
	}

	if s.pusher != nil {
		s.pusher.PushToUser(msg.UserID, dto.PushEvent{
			Event:        "notification",
			Notification: buildNotificationResponse(notification),
		})
	}
	return true, nil
}

// ---------------- Fan-out ----------------

// NotifyNewContent sends one notice per distinct active follower or subscriber.
// A failing recipient is logged and counted; the loop goes on.
func (s *notificationService) NotifyNewContent(ctx context.Context, db *gorm.DB, creatorID string, content *models.ContentMeta) (*dto.NotifySummary, error) {
	followerIDs, err := s.followRepo.FindActiveFollowerIDs(db, creatorID)
	if err != nil {
		return nil, apperrors.StoreError(err)
	}
	subscriberIDs, err := s.subscriptionRepo.FindActiveSubscriberIDs(db, creatorID)
	if err != nil {
		return nil, apperrors.StoreError(err)
	}

	recipients := uniqueRecipients(creatorID, followerIDs, subscriberIDs)
	summary := &dto.NotifySummary{Matched: len(recipients)}

	for _, userID := range recipients {
		msg := &dto.NotificationMessage{
			UserID:  userID,
			Type:    models.NotificationTypeNewContent,
			Title:   "New " + string(content.Kind),
			Message: content.Title,
			Data: map[string]interface{}{
				"creator_id": creatorID,
				"content_id": content.ID,
				"kind":       content.Kind,
				"is_premium": content.IsPremium,
			},
			DedupeKey: fmt.Sprintf("%s:%s:%s", models.NotificationTypeNewContent, content.ID, userID),
		}
		s.deliver(ctx, db, msg, summary)
	}

	logger.CtxInfo(ctx, "new content notifications sent",
		"creator_id", creatorID, "content_id", content.ID,
		"matched", summary.Matched, "sent", summary.Sent, "skipped", summary.Skipped, "failed", summary.Failed)
	return summary, nil
}

// NotifyExpiringSubscriptions notifies both sides of every active subscription
// expiring within [now, now+withinDays]. Keys include the expiry date, so a rerun
// in the same window is a no-op and a renewal opens a fresh window.
func (s *notificationService) NotifyExpiringSubscriptions(ctx context.Context, db *gorm.DB, withinDays int) (*dto.NotifySummary, error) {
	if withinDays <= 0 {
		withinDays = defaultExpiringWithinDays
	}
	now := s.now()
	subs, err := s.subscriptionRepo.FindExpiring(db, now, now.AddDate(0, 0, withinDays))
	if err != nil {
		return nil, apperrors.StoreError(err)
	}

	summary := &dto.NotifySummary{}
	for i := range subs {
		sub := &subs[i]
		day := sub.ExpiresAt.UTC().Format("20060102")
		data := map[string]interface{}{
			"subscription_id": sub.ID,
			"subscriber_id":   sub.SubscriberID,
			"creator_id":      sub.CreatorID,
			"expires_at":      sub.ExpiresAt,
		}

		toSubscriber := &dto.NotificationMessage{
			UserID:    sub.SubscriberID,
			Type:      models.NotificationTypeSubscriptionExpiring,
			Title:     "Your subscription is expiring",
			Message:   fmt.Sprintf("Your subscription expires on %s", sub.ExpiresAt.UTC().Format("2006-01-02")),
			Data:      data,
			DedupeKey: fmt.Sprintf("%s:%s:subscriber:%s", models.NotificationTypeSubscriptionExpiring, sub.ID, day),
		}
		toCreator := &dto.NotificationMessage{
			UserID:    sub.CreatorID,
			Type:      models.NotificationTypeSubscriberExpiring,
			Title:     "A subscription is expiring",
			Message:   fmt.Sprintf("A subscriber's plan expires on %s", sub.ExpiresAt.UTC().Format("2006-01-02")),
			Data:      data,
			DedupeKey: fmt.Sprintf("%s:%s:creator:%s", models.NotificationTypeSubscriptionExpiring, sub.ID, day),
		}

		summary.Matched += 2
		if s.deliver(ctx, db, toSubscriber, summary) {
			s.emailExpiring(ctx, db, sub)
		}
		s.deliver(ctx, db, toCreator, summary)
	}

	logger.CtxInfo(ctx, "expiring subscription notifications sent",
		"within_days", withinDays, "subscriptions", len(subs),
		"sent", summary.Sent, "skipped", summary.Skipped, "failed", summary.Failed)
	return summary, nil
}

// deliver is the best-effort step shared by the fan-outs.
func (s *notificationService) deliver(ctx context.Context, db *gorm.DB, msg *dto.NotificationMessage, summary *dto.NotifySummary) bool {
	created, err := s.Send(ctx, db, msg)
	switch {
	case err != nil:
		summary.Failed++
		logger.CtxWithError(ctx, "notification delivery failed", err, "user_id", msg.UserID, "type", msg.Type)
		return false
	case !created:
		summary.Skipped++
		return false
	default:
		summary.Sent++
		return true
	}
}

func (s *notificationService) emailExpiring(ctx context.Context, db *gorm.DB, sub *models.Subscription) {
	if s.mailer == nil {
		return
	}
	user, err := s.userRepo.FindByID(db, sub.SubscriberID)
	if err != nil {
		logger.CtxWithError(ctx, "expiring email: subscriber lookup failed", err, "subscription_id", sub.ID)
		return
	}
	err = s.mailer.SendTemplate([]string{user.Email}, "Your subscription is expiring", email.TemplateSubscriptionExpiring, email.TemplateData{
		"Name":      user.DisplayName,
		"ExpiresAt": sub.ExpiresAt.UTC().Format("2006-01-02"),
		"Type":      string(sub.Type),
	})
	if err != nil {
		logger.CtxWithError(ctx, "expiring email failed", err, "subscription_id", sub.ID)
	}
}

func uniqueRecipients(exclude string, groups ...[]string) []string {
	seen := map[string]struct{}{exclude: {}}
	var out []string
	for _, group := range groups {
		for _, id := range group {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

// ---------------- User surface ----------------

func (s *notificationService) GetUserNotifications(ctx context.Context, db *gorm.DB, userID string, criteria dto.NotificationCriteria) (*dto.NotificationListResponse, error) {
	page, pageSize := normalizePage(criteria.Page, criteria.PageSize)
	notifications, total, err := s.notificationRepo.FindByUser(db, userID, repositories.NotificationCriteria{
		UnreadOnly: criteria.UnreadOnly,
		Type:       criteria.Type,
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		return nil, apperrors.StoreError(err)
	}

	responses := make([]*dto.NotificationResponse, 0, len(notifications))
	for i := range notifications {
		responses = append(responses, buildNotificationResponse(&notifications[i]))
	}

	return &dto.NotificationListResponse{
		Notifications: responses,
		Total:         total,
		Page:          page,
		PageSize:      pageSize,
		TotalPages:    dto.TotalPages(total, pageSize),
	}, nil
}

func (s *notificationService) GetUnreadCount(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	count, err := s.notificationRepo.CountUnread(db, userID)
	if err != nil {
		return 0, apperrors.StoreError(err)
	}
	return count, nil
}

func (s *notificationService) MarkAsRead(ctx context.Context, db *gorm.DB, userID, notificationID string) error {
	if err := s.notificationRepo.MarkAsRead(db, userID, notificationID, s.now()); err != nil {
		if errors.Is(err, repositories.ErrNotificationNotFound) {
			return apperrors.NotFound("notification", "Notification not found")
		}
		return apperrors.StoreError(err)
	}
	return nil
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	n, err := s.notificationRepo.MarkAllAsRead(db, userID, s.now())
	if err != nil {
		return 0, apperrors.StoreError(err)
	}
	return n, nil
}

// ---------------- Helpers ----------------

func buildNotificationResponse(n *models.Notification) *dto.NotificationResponse {
	resp := &dto.NotificationResponse{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		IsRead:    n.IsRead,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
	if len(n.Data) > 0 {
		var data map[string]interface{}
		if err := json.Unmarshal(n.Data, &data); err == nil {
			resp.Data = data
		}
	}
	return resp
}

func normalizePage(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}
