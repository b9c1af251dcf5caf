package services

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"creatorhub_backend/internal/models"
	"creatorhub_backend/internal/repositories"
	"creatorhub_backend/internal/services/dto"
	"creatorhub_backend/internal/testutil"
	"creatorhub_backend/pkg/apperrors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var day0 = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

type subscriptionFixture struct {
	svc      *subscriptionService
	subs     *fakeSubscriptionRepo
	follows  *fakeFollowRepo
	payments *fakePaymentRepo
	notifier *recordingNotifier
}

func newSubscriptionFixture(now time.Time) *subscriptionFixture {
	f := &subscriptionFixture{
		subs:     newFakeSubscriptionRepo(),
		follows:  newFakeFollowRepo(),
		payments: &fakePaymentRepo{},
		notifier: &recordingNotifier{},
	}
	users := newFakeUserRepo(creator("c1"), creator("c2"), consumer("u1"), consumer("u2"))
	f.svc = NewSubscriptionService(f.subs, f.follows, f.payments, users, f.notifier).(*subscriptionService)
	f.svc.now = fixedClock(now)
	return f
}

func monthly(creatorID string) *dto.SubscribeRequest {
	return &dto.SubscribeRequest{CreatorID: creatorID, Type: "monthly", Amount: 10, Currency: "usd"}
}

func TestSubscribe_ExpiryByType(t *testing.T) {
	tests := []struct {
		subType string
		want    time.Time
	}{
		{"monthly", day0.AddDate(0, 1, 0)},
		{"yearly", day0.AddDate(1, 0, 0)},
		{"one-time", day0.AddDate(100, 0, 0)},
		{"one_time", day0.AddDate(100, 0, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.subType, func(t *testing.T) {
			f := newSubscriptionFixture(day0)
			db, mock := testutil.NewMockDB(t)
			mock.ExpectBegin()
			mock.ExpectCommit()

			req := monthly("c1")
			req.Type = tt.subType
			sub, err := f.svc.Subscribe(context.Background(), db, "u1", req, nil)
			require.NoError(t, err)

			assert.Equal(t, tt.want, sub.ExpiresAt)
			assert.Equal(t, day0, sub.StartedAt)
			assert.Equal(t, models.SubscriptionStatusActive, sub.Status)
			assert.Equal(t, "USD", sub.Currency)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSubscribe_ValidationFailures(t *testing.T) {
	f := newSubscriptionFixture(day0)
	db, mock := testutil.NewMockDB(t)

	tests := []struct {
		name       string
		subscriber string
		mutate     func(*dto.SubscribeRequest)
		want       error
	}{
		{"self subscription", "c1", nil, apperrors.ErrSelfSubscription},
		{"bad type", "u1", func(r *dto.SubscribeRequest) { r.Type = "weekly" }, apperrors.ErrInvalidSubscriptionType},
		{"zero amount", "u1", func(r *dto.SubscribeRequest) { r.Amount = 0 }, apperrors.ErrInvalidAmount},
		{"negative amount", "u1", func(r *dto.SubscribeRequest) { r.Amount = -5 }, apperrors.ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := monthly("c1")
			if tt.mutate != nil {
				tt.mutate(req)
			}
			_, err := f.svc.Subscribe(context.Background(), db, tt.subscriber, req, nil)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))
		})
	}
	// Validation never opens a transaction.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscribe_TwiceIsConflict(t *testing.T) {
	f := newSubscriptionFixture(day0)
	db, mock := testutil.NewMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := f.svc.Subscribe(context.Background(), db, "u1", monthly("c1"), nil)
	require.NoError(t, err)

	_, err = f.svc.Subscribe(context.Background(), db, "u1", monthly("c1"), nil)
	assert.ErrorIs(t, err, apperrors.ErrAlreadySubscribed)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscribe_ConcurrentRequestsOneWins(t *testing.T) {
	f := newSubscriptionFixture(day0)
	db, mock := testutil.NewMockDB(t)
	mock.MatchExpectationsInOrder(false)
	mock.ExpectBegin()
	mock.ExpectBegin()
	mock.ExpectCommit()
	mock.ExpectRollback()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Subscribe(context.Background(), db, "u1", monthly("c1"), nil)
		}(i)
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case apperrors.Is(err, apperrors.ErrAlreadySubscribed):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, conflicts)

	subs, _ := f.subs.FindBySubscriber(nil, "u1")
	assert.Len(t, subs, 1)
}

func TestSubscribe_ReplacesLapsedActiveRow(t *testing.T) {
	f := newSubscriptionFixture(day0)
	stale := f.subs.put(models.Subscription{
		SubscriberID: "u1",
		CreatorID:    "c1",
		Type:         models.SubscriptionTypeMonthly,
		Status:       models.SubscriptionStatusActive,
		ExpiresAt:    day0.Add(-time.Hour),
	})

	db, mock := testutil.NewMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	sub, err := f.svc.Subscribe(context.Background(), db, "u1", monthly("c1"), nil)
	require.NoError(t, err)
	assert.NotEqual(t, stale.ID, sub.ID)
	assert.Equal(t, models.SubscriptionStatusExpired, f.subs.get(stale.ID).Status)
}

// staleActiveRepo отдаёт снимок FindActive, прочитанный до того, как
// параллельный subscribe освободил слот пары.
type staleActiveRepo struct {
	*fakeSubscriptionRepo
	snapshot models.Subscription
}

func (r *staleActiveRepo) FindActive(db *gorm.DB, subscriberID, creatorID string) (*models.Subscription, error) {
	cp := r.snapshot
	return &cp, nil
}

func TestSubscribe_LapsedRowRaceLoserGetsConflict(t *testing.T) {
	f := newSubscriptionFixture(day0)
	stale := f.subs.put(models.Subscription{
		SubscriberID: "u1",
		CreatorID:    "c1",
		Type:         models.SubscriptionTypeMonthly,
		Status:       models.SubscriptionStatusActive,
		ExpiresAt:    day0.Add(-time.Hour),
	})
	snapshot := *stale

	db, mock := testutil.NewMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()
	winner, err := f.svc.Subscribe(context.Background(), db, "u1", monthly("c1"), nil)
	require.NoError(t, err)

	users := newFakeUserRepo(creator("c1"), consumer("u1"))
	loserSvc := NewSubscriptionService(&staleActiveRepo{fakeSubscriptionRepo: f.subs, snapshot: snapshot},
		f.follows, f.payments, users, &recordingNotifier{}).(*subscriptionService)
	loserSvc.now = fixedClock(day0)

	db, mock = testutil.NewMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err = loserSvc.Subscribe(context.Background(), db, "u1", monthly("c1"), nil)

	assert.ErrorIs(t, err, apperrors.ErrAlreadySubscribed)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
	assert.Equal(t, models.SubscriptionStatusActive, f.subs.get(winner.ID).Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscribe_RecordsInitialPaymentAndNotifiesCreator(t *testing.T) {
	f := newSubscriptionFixture(day0)
	db, mock := testutil.NewMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	sub, err := f.svc.Subscribe(context.Background(), db, "u1", monthly("c1"), &dto.PaymentRecord{TransactionRef: "0xabc", Provider: "ledger"})
	require.NoError(t, err)

	require.Len(t, f.payments.rows, 1)
	p := f.payments.rows[0]
	assert.Equal(t, sub.ID, p.SubscriptionID)
	assert.Equal(t, models.PaymentKindInitial, p.Kind)
	assert.Equal(t, "c1", p.PayeeID)
	assert.Equal(t, sub.ExpiresAt, p.PeriodEnd)
	assert.Equal(t, []string{models.NotificationTypeNewSubscriber}, f.notifier.types())
}

func TestSubscribe_UnknownCreator(t *testing.T) {
	f := newSubscriptionFixture(day0)
	db, mock := testutil.NewMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := f.svc.Subscribe(context.Background(), db, "u1", monthly("ghost"), nil)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestCancel_IsIdempotent(t *testing.T) {
	f := newSubscriptionFixture(day0)
	db, _ := testutil.NewMockDB(t)

	// Nothing to cancel: no error, no notice.
	require.NoError(t, f.svc.Cancel(context.Background(), db, "u1", "c1"))
	assert.Empty(t, f.notifier.types())

	active := f.subs.put(models.Subscription{
		SubscriberID: "u1", CreatorID: "c1", Status: models.SubscriptionStatusActive, ExpiresAt: day0.AddDate(0, 1, 0),
	})
	require.NoError(t, f.svc.Cancel(context.Background(), db, "u1", "c1"))
	row := f.subs.get(active.ID)
	assert.Equal(t, models.SubscriptionStatusCancelled, row.Status)
	require.NotNil(t, row.CancelledAt)
	assert.Equal(t, day0, *row.CancelledAt)

	// Second cancel is a no-op.
	require.NoError(t, f.svc.Cancel(context.Background(), db, "u1", "c1"))
	assert.Equal(t, []string{models.NotificationTypeSubscriptionCancelled}, f.notifier.types())
}

func TestCancel_StoreError(t *testing.T) {
	f := newSubscriptionFixture(day0)
	f.subs.err = assert.AnError
	db, _ := testutil.NewMockDB(t)

	err := f.svc.Cancel(context.Background(), db, "u1", "c1")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeDatabaseError))
	assert.ErrorIs(t, err, assert.AnError)
}

func TestRenew(t *testing.T) {
	payment := dto.PaymentRecord{TransactionRef: "ref-1", Provider: "ledger"}

	t.Run("active row extends from current expiry", func(t *testing.T) {
		f := newSubscriptionFixture(day0)
		sub := f.subs.put(models.Subscription{
			SubscriberID: "u1", CreatorID: "c1", Type: models.SubscriptionTypeMonthly,
			Status: models.SubscriptionStatusActive, Amount: 10, Currency: "USD",
			ExpiresAt: day0.AddDate(0, 0, 10),
		})
		db, mock := testutil.NewMockDB(t)
		mock.ExpectBegin()
		mock.ExpectCommit()

		renewed, err := f.svc.Renew(context.Background(), db, sub.ID, "u1", &dto.RenewalData{Payment: payment})
		require.NoError(t, err)
		assert.Equal(t, day0.AddDate(0, 0, 10), renewed.CurrentPeriodStart)
		assert.Equal(t, day0.AddDate(0, 0, 10).AddDate(0, 1, 0), renewed.ExpiresAt)

		require.Len(t, f.payments.rows, 1)
		assert.Equal(t, models.PaymentKindRenewal, f.payments.rows[0].Kind)
		assert.Equal(t, 10.0, f.payments.rows[0].Amount)
		assert.Contains(t, f.notifier.types(), models.NotificationTypeSubscriptionRenewed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("expired row restarts now", func(t *testing.T) {
		f := newSubscriptionFixture(day0)
		sub := f.subs.put(models.Subscription{
			SubscriberID: "u1", CreatorID: "c1", Type: models.SubscriptionTypeYearly,
			Status: models.SubscriptionStatusExpired, Amount: 100, Currency: "USD",
			ExpiresAt: day0.AddDate(0, -2, 0),
		})
		db, mock := testutil.NewMockDB(t)
		mock.ExpectBegin()
		mock.ExpectCommit()

		renewed, err := f.svc.Renew(context.Background(), db, sub.ID, "u1", &dto.RenewalData{Amount: 120, Payment: payment})
		require.NoError(t, err)
		assert.Equal(t, models.SubscriptionStatusActive, renewed.Status)
		assert.Equal(t, day0, renewed.CurrentPeriodStart)
		assert.Equal(t, day0.AddDate(1, 0, 0), renewed.ExpiresAt)
		assert.Equal(t, 120.0, f.subs.get(sub.ID).Amount)
	})

	t.Run("expired row cannot displace a newer active one", func(t *testing.T) {
		f := newSubscriptionFixture(day0)
		old := f.subs.put(models.Subscription{
			SubscriberID: "u1", CreatorID: "c1", Type: models.SubscriptionTypeMonthly,
			Status: models.SubscriptionStatusExpired, ExpiresAt: day0.AddDate(0, -2, 0),
		})
		f.subs.put(models.Subscription{
			SubscriberID: "u1", CreatorID: "c1", Type: models.SubscriptionTypeMonthly,
			Status: models.SubscriptionStatusActive, ExpiresAt: day0.AddDate(0, 1, 0),
		})
		db, mock := testutil.NewMockDB(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		_, err := f.svc.Renew(context.Background(), db, old.ID, "u1", &dto.RenewalData{Payment: payment})
		assert.ErrorIs(t, err, apperrors.ErrAlreadySubscribed)
		assert.Empty(t, f.payments.rows)
	})

	t.Run("only the subscriber may renew", func(t *testing.T) {
		f := newSubscriptionFixture(day0)
		sub := f.subs.put(models.Subscription{
			SubscriberID: "u1", CreatorID: "c1", Type: models.SubscriptionTypeMonthly,
			Status: models.SubscriptionStatusActive, ExpiresAt: day0.AddDate(0, 1, 0),
		})
		db, mock := testutil.NewMockDB(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		_, err := f.svc.Renew(context.Background(), db, sub.ID, "u2", &dto.RenewalData{Payment: payment})
		assert.ErrorIs(t, err, apperrors.ErrNotSubscriptionOwner)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
		assert.Empty(t, f.payments.rows)
	})

	t.Run("one-time does not renew", func(t *testing.T) {
		f := newSubscriptionFixture(day0)
		sub := f.subs.put(models.Subscription{
			SubscriberID: "u1", CreatorID: "c1", Type: models.SubscriptionTypeOneTime,
			Status: models.SubscriptionStatusActive, ExpiresAt: day0.AddDate(100, 0, 0),
		})
		db, mock := testutil.NewMockDB(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		_, err := f.svc.Renew(context.Background(), db, sub.ID, "u1", &dto.RenewalData{Payment: payment})
		assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))
	})

	t.Run("missing subscription", func(t *testing.T) {
		f := newSubscriptionFixture(day0)
		db, mock := testutil.NewMockDB(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		_, err := f.svc.Renew(context.Background(), db, "nope", "u1", &dto.RenewalData{Payment: payment})
		assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
	})

	t.Run("payment reference required", func(t *testing.T) {
		f := newSubscriptionFixture(day0)
		sub := f.subs.put(models.Subscription{
			SubscriberID: "u1", CreatorID: "c1", Type: models.SubscriptionTypeMonthly,
			Status: models.SubscriptionStatusActive, ExpiresAt: day0.AddDate(0, 1, 0),
		})
		db, mock := testutil.NewMockDB(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		_, err := f.svc.Renew(context.Background(), db, sub.ID, "u1", &dto.RenewalData{})
		assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))
		assert.Equal(t, day0.AddDate(0, 1, 0), f.subs.get(sub.ID).ExpiresAt)
	})

	t.Run("ownership is checked before the renewal input", func(t *testing.T) {
		f := newSubscriptionFixture(day0)
		sub := f.subs.put(models.Subscription{
			SubscriberID: "u1", CreatorID: "c1", Type: models.SubscriptionTypeMonthly,
			Status: models.SubscriptionStatusActive, ExpiresAt: day0.AddDate(0, 1, 0),
		})
		db, mock := testutil.NewMockDB(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		_, err := f.svc.Renew(context.Background(), db, sub.ID, "u2", &dto.RenewalData{Amount: -1})
		assert.ErrorIs(t, err, apperrors.ErrNotSubscriptionOwner)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

// Период и запись платежа пишутся одной транзакцией: повторный transaction_ref
// откатывает уже выполненный UPDATE.
func TestRenew_PaymentFailureRollsBackPeriod(t *testing.T) {
	notifier := &recordingNotifier{}
	users := newFakeUserRepo(creator("c1"), consumer("u1"))
	svc := NewSubscriptionService(repositories.NewSubscriptionRepository(), newFakeFollowRepo(),
		repositories.NewPaymentRepository(), users, notifier).(*subscriptionService)
	svc.now = fixedClock(day0)

	db, mock := testutil.NewMockDB(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "subscriptions" WHERE .* FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "subscriber_id", "creator_id", "type", "status", "amount", "currency", "started_at", "current_period_start", "expires_at"}).
			AddRow("s1", "u1", "c1", "monthly", "active", 10.0, "USD", day0.AddDate(0, -1, 0), day0.AddDate(0, -1, 0), day0.AddDate(0, 0, 5)))
	mock.ExpectExec(`UPDATE "subscriptions" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "subscription_payments"`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "idx_subscription_payments_transaction_ref"})
	mock.ExpectRollback()

	_, err := svc.Renew(context.Background(), db, "s1", "u1", &dto.RenewalData{Payment: dto.PaymentRecord{TransactionRef: "0xdup"}})

	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeConflict, appErr.Code)
	assert.Equal(t, http.StatusConflict, appErr.HTTPCode)
	assert.Empty(t, notifier.types())
	assert.NoError(t, mock.ExpectationsWereMet())
}

// U subscribes monthly on day 0; on day 31 the premium content of C is denied
// as expired even though the row still says active.
func TestScenario_MonthlySubscriptionLapsesAfterAMonth(t *testing.T) {
	f := newSubscriptionFixture(day0)
	db, mock := testutil.NewMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	sub, err := f.svc.Subscribe(context.Background(), db, "u1", monthly("c1"), nil)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC), sub.ExpiresAt)

	content := newFakeContentRepo(video("v1", "c1", true, true))
	resolver := NewAccessResolver(content, f.subs).(*accessResolver)
	ref := ContentRef{Kind: models.ContentKindVideo, ID: "v1"}

	resolver.now = fixedClock(day0.AddDate(0, 0, 15))
	decision, err := resolver.ResolveAccess(context.Background(), db, "u1", ref, "c1")
	require.NoError(t, err)
	assert.True(t, decision.HasAccess)

	resolver.now = fixedClock(day0.AddDate(0, 0, 31))
	decision, err = resolver.ResolveAccess(context.Background(), db, "u1", ref, "c1")
	require.NoError(t, err)
	assert.Equal(t, dto.AccessDecision{HasAccess: false, IsPremium: true, Reason: ReasonSubscriptionExpired}, *decision)
	assert.Equal(t, models.SubscriptionStatusActive, f.subs.get(sub.ID).Status, "the resolver must not write")
}

func TestExpireOverdue(t *testing.T) {
	f := newSubscriptionFixture(day0)
	overdue := f.subs.put(models.Subscription{SubscriberID: "u1", CreatorID: "c1", Status: models.SubscriptionStatusActive, ExpiresAt: day0.Add(-time.Minute)})
	current := f.subs.put(models.Subscription{SubscriberID: "u2", CreatorID: "c1", Status: models.SubscriptionStatusActive, ExpiresAt: day0.Add(time.Minute)})
	db, _ := testutil.NewMockDB(t)

	n, err := f.svc.ExpireOverdue(context.Background(), db)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Equal(t, models.SubscriptionStatusExpired, f.subs.get(overdue.ID).Status)
	assert.Equal(t, models.SubscriptionStatusActive, f.subs.get(current.ID).Status)
}

func TestFollowAndUnfollow(t *testing.T) {
	f := newSubscriptionFixture(day0)
	db, _ := testutil.NewMockDB(t)
	ctx := context.Background()

	err := f.svc.Follow(ctx, db, "u1", "u1")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))

	err = f.svc.Follow(ctx, db, "u1", "ghost")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	require.NoError(t, f.svc.Follow(ctx, db, "u1", "c1"))
	require.NoError(t, f.svc.Follow(ctx, db, "u1", "c1"))
	following, err := f.svc.GetFollowing(ctx, db, "u1")
	require.NoError(t, err)
	assert.Len(t, following, 1)

	require.NoError(t, f.svc.Unfollow(ctx, db, "u1", "c1"))
	require.NoError(t, f.svc.Unfollow(ctx, db, "u1", "c1"))
	following, err = f.svc.GetFollowing(ctx, db, "u1")
	require.NoError(t, err)
	assert.Empty(t, following)

	// Following is independent of paid state.
	_, err = f.subs.FindActive(nil, "u1", "c1")
	assert.ErrorIs(t, err, repositories.ErrSubscriptionNotFound)
}

func TestGetPayments_VisibleToBothSidesOnly(t *testing.T) {
	f := newSubscriptionFixture(day0)
	sub := f.subs.put(models.Subscription{SubscriberID: "u1", CreatorID: "c1", Status: models.SubscriptionStatusActive})
	require.NoError(t, f.payments.Create(nil, &models.SubscriptionPayment{SubscriptionID: sub.ID, TransactionRef: "r1"}))
	db, _ := testutil.NewMockDB(t)

	for _, who := range []string{"u1", "c1"} {
		list, err := f.svc.GetPayments(context.Background(), db, who, sub.ID)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	}

	_, err := f.svc.GetPayments(context.Background(), db, "u2", sub.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
}
