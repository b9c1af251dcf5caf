package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"creatorhub_backend/internal/auth"
	"creatorhub_backend/internal/middleware"
	"creatorhub_backend/internal/models"
	"creatorhub_backend/internal/services"
	"creatorhub_backend/internal/services/dto"
	"creatorhub_backend/internal/validator"
	"creatorhub_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
	auth.Configure("handlers-test-secret", time.Hour)
}

// Стабы встраивают интерфейс: невызываемые методы остаются nil.

type stubContent struct {
	services.ContentService
	getContent  func(viewerID string, ref services.ContentRef) (*dto.ContentResponse, error)
	checkAccess func(viewerID string, ref services.ContentRef, creatorID string) (*dto.AccessDecision, error)
}

func (s *stubContent) GetContent(_ context.Context, _ *gorm.DB, viewerID string, ref services.ContentRef) (*dto.ContentResponse, error) {
	return s.getContent(viewerID, ref)
}

func (s *stubContent) CheckAccess(_ context.Context, _ *gorm.DB, viewerID string, ref services.ContentRef, creatorID string) (*dto.AccessDecision, error) {
	return s.checkAccess(viewerID, ref, creatorID)
}

type stubSubscriptions struct {
	services.SubscriptionService
	expired     int64
	subscribers func(creatorID string, q dto.SubscribersQuery) (*dto.SubscriptionListResponse, error)
	granted     *dto.GrantSubscriptionRequest
}

func (s *stubSubscriptions) ExpireOverdue(context.Context, *gorm.DB) (int64, error) {
	return s.expired, nil
}

func (s *stubSubscriptions) GetSubscribers(_ context.Context, _ *gorm.DB, creatorID string, q dto.SubscribersQuery) (*dto.SubscriptionListResponse, error) {
	return s.subscribers(creatorID, q)
}

func (s *stubSubscriptions) Subscribe(_ context.Context, _ *gorm.DB, subscriberID string, req *dto.SubscribeRequest, payment *dto.PaymentRecord) (*models.Subscription, error) {
	s.granted = &dto.GrantSubscriptionRequest{SubscriberID: subscriberID, SubscribeRequest: *req}
	if payment != nil {
		return nil, apperrors.Validation("test", "grant must not carry a payment")
	}
	return &models.Subscription{SubscriberID: subscriberID, CreatorID: req.CreatorID, Status: models.SubscriptionStatusActive}, nil
}

type stubPayments struct {
	services.PaymentService
	lastSubscriber string
	lastReq        *dto.SubscribeRequest
	err            error
}

func (s *stubPayments) PurchaseSubscription(_ context.Context, _ *gorm.DB, subscriberID string, req *dto.SubscribeRequest) (*models.Subscription, error) {
	s.lastSubscriber, s.lastReq = subscriberID, req
	if s.err != nil {
		return nil, s.err
	}
	sub := &models.Subscription{SubscriberID: subscriberID, CreatorID: req.CreatorID, Status: models.SubscriptionStatusActive}
	sub.ID = "s1"
	return sub, nil
}

type stubNotifications struct {
	services.NotificationService
	withinDays int
	unread     int64
}

func (s *stubNotifications) NotifyExpiringSubscriptions(_ context.Context, _ *gorm.DB, withinDays int) (*dto.NotifySummary, error) {
	s.withinDays = withinDays
	return &dto.NotifySummary{Matched: 2, Sent: 2}, nil
}

func (s *stubNotifications) GetUnreadCount(context.Context, *gorm.DB, string) (int64, error) {
	return s.unread, nil
}

type fixture struct {
	router        *gin.Engine
	content       *stubContent
	subscriptions *stubSubscriptions
	payments      *stubPayments
	notifications *stubNotifications
}

func newFixture() *fixture {
	f := &fixture{
		content:       &stubContent{},
		subscriptions: &stubSubscriptions{},
		payments:      &stubPayments{},
		notifications: &stubNotifications{},
	}
	base := NewBaseHandler(validator.New())

	r := gin.New()
	r.Use(middleware.DBMiddleware(&gorm.DB{}))
	api := r.Group("/api/v1")
	NewContentHandler(base, f.content).RegisterRoutes(api)
	NewSubscriptionHandler(base, f.subscriptions, f.payments).RegisterRoutes(api)
	NewNotificationHandler(base, f.notifications).RegisterRoutes(api)
	NewAdminHandler(base, f.subscriptions, f.notifications).RegisterRoutes(api)
	f.router = r
	return f
}

func bearer(t *testing.T, userID string, role models.UserRole) string {
	t.Helper()
	tok, _, err := auth.GenerateToken(userID, string(role))
	require.NoError(t, err)
	return tok
}

func (f *fixture) do(method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestContentHandler_GetContent(t *testing.T) {
	f := newFixture()
	meta := models.ContentMeta{ID: "v1", OwnerID: "c1", Kind: models.ContentKindVideo, Title: "Premium", IsPremium: true, IsPublished: true}

	var seenViewer string
	f.content.getContent = func(viewerID string, ref services.ContentRef) (*dto.ContentResponse, error) {
		seenViewer = viewerID
		assert.Equal(t, services.ContentRef{Kind: models.ContentKindVideo, ID: "v1"}, ref)
		decision := &dto.AccessDecision{IsPremium: true, Reason: services.ReasonPremiumRequired}
		if viewerID == "u1" {
			return &dto.ContentResponse{ContentMeta: meta, Body: "secret", Access: &dto.AccessDecision{HasAccess: true, IsPremium: true}}, nil
		}
		return &dto.ContentResponse{ContentMeta: meta, Access: decision},
			apperrors.Forbidden("content", "Access denied").WithDetails(decision)
	}

	t.Run("anonymous viewer gets metadata with 403", func(t *testing.T) {
		w := f.do(http.MethodGet, "/api/v1/content/video/v1", "", "")
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "", seenViewer)

		body := decode(t, w)
		errBody := body["error"].(map[string]interface{})
		assert.Equal(t, string(apperrors.CodeForbidden), errBody["code"])
		content := body["content"].(map[string]interface{})
		assert.Equal(t, "v1", content["id"])
		assert.NotContains(t, content, "body")
	})

	t.Run("subscriber reads the body", func(t *testing.T) {
		w := f.do(http.MethodGet, "/api/v1/content/video/v1", bearer(t, "u1", models.UserRoleConsumer), "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "u1", seenViewer)
		assert.Equal(t, "secret", decode(t, w)["body"])
	})

	t.Run("unknown kind", func(t *testing.T) {
		w := f.do(http.MethodGet, "/api/v1/content/podcast/v1", "", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestContentHandler_CheckAccess(t *testing.T) {
	f := newFixture()
	f.content.checkAccess = func(viewerID string, ref services.ContentRef, creatorID string) (*dto.AccessDecision, error) {
		assert.Equal(t, "u1", viewerID)
		assert.Equal(t, "c1", creatorID)
		return &dto.AccessDecision{HasAccess: false, IsPremium: true, Reason: services.ReasonSubscriptionExpired}, nil
	}

	w := f.do(http.MethodGet, "/api/v1/content/article/a1/access?creator_id=c1", bearer(t, "u1", models.UserRoleConsumer), "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"has_access":false,"is_premium":true,"reason":"subscription expired"}`, w.Body.String())
}

func TestContentHandler_WriteRequiresPermission(t *testing.T) {
	f := newFixture()

	w := f.do(http.MethodPost, "/api/v1/content", "", `{"kind":"article","title":"x"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(http.MethodPost, "/api/v1/content", bearer(t, "u1", models.UserRoleConsumer), `{"kind":"article","title":"x"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSubscriptionHandler_Subscribe(t *testing.T) {
	f := newFixture()
	const payload = `{"creator_id":"c1","type":"monthly","amount":10,"currency":"USD","payment_token":"tok"}`

	t.Run("requires auth", func(t *testing.T) {
		w := f.do(http.MethodPost, "/api/v1/subscriptions", "", payload)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("validates the body", func(t *testing.T) {
		w := f.do(http.MethodPost, "/api/v1/subscriptions", bearer(t, "u1", models.UserRoleConsumer),
			`{"creator_id":"c1","type":"weekly","amount":0,"currency":"USD"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, string(apperrors.CodeValidationFailed), decode(t, w)["error"].(map[string]interface{})["code"])
	})

	t.Run("subscriber comes from the token", func(t *testing.T) {
		w := f.do(http.MethodPost, "/api/v1/subscriptions", bearer(t, "u1", models.UserRoleConsumer), payload)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.Equal(t, "u1", f.payments.lastSubscriber)
		assert.Equal(t, "c1", f.payments.lastReq.CreatorID)
		assert.Equal(t, "tok", f.payments.lastReq.PaymentToken)
		assert.Equal(t, "s1", decode(t, w)["id"])
	})

	t.Run("service errors keep their status", func(t *testing.T) {
		f.payments.err = apperrors.ErrAlreadySubscribed
		defer func() { f.payments.err = nil }()

		w := f.do(http.MethodPost, "/api/v1/subscriptions", bearer(t, "u1", models.UserRoleConsumer), payload)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("payment declined", func(t *testing.T) {
		f.payments.err = apperrors.PaymentFailed("card_declined")
		defer func() { f.payments.err = nil }()

		w := f.do(http.MethodPost, "/api/v1/subscriptions", bearer(t, "u1", models.UserRoleConsumer), payload)
		assert.Equal(t, http.StatusPaymentRequired, w.Code)
	})
}

func TestSubscriptionHandler_GetSubscribers(t *testing.T) {
	f := newFixture()
	f.subscriptions.subscribers = func(creatorID string, q dto.SubscribersQuery) (*dto.SubscriptionListResponse, error) {
		return &dto.SubscriptionListResponse{Total: 1, Page: 1, PageSize: 20, TotalPages: 1,
			Subscriptions: []models.Subscription{{CreatorID: creatorID, Status: models.SubscriptionStatus(q.Status)}}}, nil
	}

	w := f.do(http.MethodGet, "/api/v1/creators/c1/subscribers?status=active", bearer(t, "c1", models.UserRoleCreator), "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["total"])

	w = f.do(http.MethodGet, "/api/v1/creators/c2/subscribers", bearer(t, "c1", models.UserRoleCreator), "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(http.MethodGet, "/api/v1/creators/c2/subscribers", bearer(t, "admin", models.UserRoleAdmin), "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(http.MethodGet, "/api/v1/creators/c1/subscribers", bearer(t, "u1", models.UserRoleConsumer), "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(http.MethodGet, "/api/v1/creators/c1/subscribers?status=bogus", bearer(t, "c1", models.UserRoleCreator), "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminHandler(t *testing.T) {
	f := newFixture()
	f.subscriptions.expired = 2
	admin := bearer(t, "admin", models.UserRoleAdmin)

	t.Run("sweeps are admin only", func(t *testing.T) {
		w := f.do(http.MethodPost, "/api/v1/admin/subscriptions/expire", bearer(t, "c1", models.UserRoleCreator), "")
		assert.Equal(t, http.StatusForbidden, w.Code)
		w = f.do(http.MethodPost, "/api/v1/admin/notifications/expiring", bearer(t, "u1", models.UserRoleConsumer), "")
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("expire overdue", func(t *testing.T) {
		w := f.do(http.MethodPost, "/api/v1/admin/subscriptions/expire", admin, "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"expired":2}`, w.Body.String())
	})

	t.Run("expiring notices without a body use the default window", func(t *testing.T) {
		w := f.do(http.MethodPost, "/api/v1/admin/notifications/expiring", admin, "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 0, f.notifications.withinDays)
		assert.EqualValues(t, 2, decode(t, w)["sent"])
	})

	t.Run("expiring notices with a window", func(t *testing.T) {
		w := f.do(http.MethodPost, "/api/v1/admin/notifications/expiring", admin, `{"within_days":7}`)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 7, f.notifications.withinDays)

		w = f.do(http.MethodPost, "/api/v1/admin/notifications/expiring", admin, `{"within_days":365}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("manual grant carries no payment", func(t *testing.T) {
		w := f.do(http.MethodPost, "/api/v1/admin/subscriptions", admin,
			`{"subscriber_id":"u2","creator_id":"c1","type":"one-time","amount":5,"currency":"USD"}`)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.Equal(t, "u2", f.subscriptions.granted.SubscriberID)
		assert.Equal(t, "c1", f.subscriptions.granted.CreatorID)

		w = f.do(http.MethodPost, "/api/v1/admin/subscriptions", bearer(t, "c1", models.UserRoleCreator),
			`{"subscriber_id":"u2","creator_id":"c1","type":"monthly","amount":5,"currency":"USD"}`)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestNotificationHandler_UnreadCount(t *testing.T) {
	f := newFixture()
	f.notifications.unread = 4

	w := f.do(http.MethodGet, "/api/v1/notifications/unread-count", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(http.MethodGet, "/api/v1/notifications/unread-count", bearer(t, "u1", models.UserRoleConsumer), "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"unread_count":4}`, w.Body.String())
}
