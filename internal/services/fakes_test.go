package services

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"creatorhub_backend/internal/models"
	"creatorhub_backend/internal/payments"
	"creatorhub_backend/internal/repositories"
	"creatorhub_backend/internal/services/dto"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ---------------- users ----------------

type fakeUserRepo struct {
	users map[string]*models.User
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	r := &fakeUserRepo{users: map[string]*models.User{}}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(db *gorm.DB, user *models.User) error {
	for _, u := range r.users {
		if u.Email == user.Email {
			return repositories.ErrDuplicateEmail
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) FindByID(db *gorm.DB, id string) (*models.User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) FindByEmail(db *gorm.DB, email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) FindByIDs(db *gorm.DB, ids []string) ([]models.User, error) {
	var out []models.User
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) UpdateWallet(db *gorm.DB, userID, walletAddress, payoutAccountID string) error {
	u, ok := r.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.WalletAddress, u.PayoutAccountID = walletAddress, payoutAccountID
	return nil
}

func creator(id string) *models.User {
	u := &models.User{Email: id + "@example.com", DisplayName: id, Role: models.UserRoleCreator, WalletAddress: "0x" + id}
	u.ID = id
	return u
}

func consumer(id string) *models.User {
	u := &models.User{Email: id + "@example.com", DisplayName: id, Role: models.UserRoleConsumer}
	u.ID = id
	return u
}

// ---------------- subscriptions ----------------

// fakeSubscriptionRepo enforces the one-active-row-per-pair rule the way the
// unique index does, under a mutex.
type fakeSubscriptionRepo struct {
	mu   sync.Mutex
	rows map[string]*models.Subscription
	err  error
}

func newFakeSubscriptionRepo() *fakeSubscriptionRepo {
	return &fakeSubscriptionRepo{rows: map[string]*models.Subscription{}}
}

func (r *fakeSubscriptionRepo) activeFor(subscriberID, creatorID, exceptID string) *models.Subscription {
	for _, s := range r.rows {
		if s.ID != exceptID && s.SubscriberID == subscriberID && s.CreatorID == creatorID && s.Status == models.SubscriptionStatusActive {
			return s
		}
	}
	return nil
}

func (r *fakeSubscriptionRepo) Create(db *gorm.DB, sub *models.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if r.activeFor(sub.SubscriberID, sub.CreatorID, "") != nil {
		return repositories.ErrActiveSubscriptionExists
	}
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	cp := *sub
	r.rows[sub.ID] = &cp
	return nil
}

func (r *fakeSubscriptionRepo) put(sub models.Subscription) *models.Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	r.rows[sub.ID] = &sub
	return &sub
}

func (r *fakeSubscriptionRepo) get(id string) models.Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.rows[id]
}

func (r *fakeSubscriptionRepo) FindByID(db *gorm.DB, id string) (*models.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	s, ok := r.rows[id]
	if !ok {
		return nil, repositories.ErrSubscriptionNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSubscriptionRepo) FindByIDForUpdate(db *gorm.DB, id string) (*models.Subscription, error) {
	return r.FindByID(db, id)
}

func (r *fakeSubscriptionRepo) FindActive(db *gorm.DB, subscriberID, creatorID string) (*models.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	s := r.activeFor(subscriberID, creatorID, "")
	if s == nil {
		return nil, repositories.ErrSubscriptionNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSubscriptionRepo) FindBySubscriber(db *gorm.DB, subscriberID string) ([]models.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Subscription
	for _, s := range r.rows {
		if s.SubscriberID == subscriberID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *fakeSubscriptionRepo) FindByCreator(db *gorm.DB, creatorID string, status models.SubscriptionStatus, page, pageSize int) ([]models.Subscription, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Subscription
	for _, s := range r.rows {
		if s.CreatorID == creatorID && (status == "" || s.Status == status) {
			out = append(out, *s)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeSubscriptionRepo) FindActiveSubscriberIDs(db *gorm.DB, creatorID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, s := range r.rows {
		if s.CreatorID == creatorID && s.Status == models.SubscriptionStatusActive {
			out = append(out, s.SubscriberID)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *fakeSubscriptionRepo) FindExpiring(db *gorm.DB, from, to time.Time) ([]models.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Subscription
	for _, s := range r.rows {
		if s.Status == models.SubscriptionStatusActive && !s.ExpiresAt.Before(from) && !s.ExpiresAt.After(to) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *fakeSubscriptionRepo) UpdatePeriod(db *gorm.DB, sub *models.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[sub.ID]; !ok {
		return repositories.ErrSubscriptionNotFound
	}
	if sub.Status == models.SubscriptionStatusActive && r.activeFor(sub.SubscriberID, sub.CreatorID, sub.ID) != nil {
		return repositories.ErrActiveSubscriptionExists
	}
	cp := *sub
	r.rows[sub.ID] = &cp
	return nil
}

func (r *fakeSubscriptionRepo) CancelActive(db *gorm.DB, subscriberID, creatorID string, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0, r.err
	}
	s := r.activeFor(subscriberID, creatorID, "")
	if s == nil {
		return 0, nil
	}
	s.Status = models.SubscriptionStatusCancelled
	s.CancelledAt = &at
	s.ActivePairKey = nil
	return 1, nil
}

func (r *fakeSubscriptionRepo) MarkExpired(db *gorm.DB, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[id]
	if !ok || s.Status != models.SubscriptionStatusActive {
		return repositories.ErrSubscriptionNotFound
	}
	s.Status = models.SubscriptionStatusExpired
	s.ActivePairKey = nil
	return nil
}

func (r *fakeSubscriptionRepo) ExpireOverdue(db *gorm.DB, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, s := range r.rows {
		if s.Status == models.SubscriptionStatusActive && s.ExpiresAt.Before(now) {
			s.Status = models.SubscriptionStatusExpired
			s.ActivePairKey = nil
			n++
		}
	}
	return n, nil
}

// ---------------- follows ----------------

type fakeFollowRepo struct {
	rows map[string]*models.Follow
}

func newFakeFollowRepo() *fakeFollowRepo {
	return &fakeFollowRepo{rows: map[string]*models.Follow{}}
}

func (r *fakeFollowRepo) Upsert(db *gorm.DB, follow *models.Follow) error {
	key := follow.SubscriberID + ":" + follow.CreatorID
	if existing, ok := r.rows[key]; ok {
		existing.Status = follow.Status
		return nil
	}
	cp := *follow
	r.rows[key] = &cp
	return nil
}

func (r *fakeFollowRepo) SetStatus(db *gorm.DB, subscriberID, creatorID string, status models.FollowStatus) (int64, error) {
	f, ok := r.rows[subscriberID+":"+creatorID]
	if !ok || f.Status == status {
		return 0, nil
	}
	f.Status = status
	return 1, nil
}

func (r *fakeFollowRepo) Find(db *gorm.DB, subscriberID, creatorID string) (*models.Follow, error) {
	f, ok := r.rows[subscriberID+":"+creatorID]
	if !ok {
		return nil, repositories.ErrFollowNotFound
	}
	return f, nil
}

func (r *fakeFollowRepo) FindActiveFollowerIDs(db *gorm.DB, creatorID string) ([]string, error) {
	var out []string
	for _, f := range r.rows {
		if f.CreatorID == creatorID && f.Status == models.FollowStatusActive {
			out = append(out, f.SubscriberID)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *fakeFollowRepo) FindFollowing(db *gorm.DB, subscriberID string) ([]models.Follow, error) {
	var out []models.Follow
	for _, f := range r.rows {
		if f.SubscriberID == subscriberID && f.Status == models.FollowStatusActive {
			out = append(out, *f)
		}
	}
	return out, nil
}

// ---------------- payments ----------------

type fakePaymentRepo struct {
	mu   sync.Mutex
	rows []models.SubscriptionPayment
}

func (r *fakePaymentRepo) Create(db *gorm.DB, payment *models.SubscriptionPayment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.rows {
		if p.TransactionRef == payment.TransactionRef {
			return repositories.ErrDuplicateTransactionRef
		}
	}
	r.rows = append(r.rows, *payment)
	return nil
}

func (r *fakePaymentRepo) FindBySubscription(db *gorm.DB, subscriptionID string) ([]models.SubscriptionPayment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.SubscriptionPayment
	for _, p := range r.rows {
		if p.SubscriptionID == subscriptionID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePaymentRepo) FindByTransactionRef(db *gorm.DB, ref string) (*models.SubscriptionPayment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.rows {
		if r.rows[i].TransactionRef == ref {
			return &r.rows[i], nil
		}
	}
	return nil, repositories.ErrPaymentNotFound
}

// ---------------- notifications ----------------

type fakeNotificationRepo struct {
	rows    []models.Notification
	keys    map[string]bool
	failFor map[string]bool
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{keys: map[string]bool{}, failFor: map[string]bool{}}
}

func (r *fakeNotificationRepo) Create(db *gorm.DB, n *models.Notification) (bool, error) {
	if r.failFor[n.UserID] {
		return false, errors.New("insert failed")
	}
	if n.DedupeKey != nil {
		if r.keys[*n.DedupeKey] {
			return false, nil
		}
		r.keys[*n.DedupeKey] = true
	}
	n.ID = uuid.NewString()
	r.rows = append(r.rows, *n)
	return true, nil
}

func (r *fakeNotificationRepo) FindByUser(db *gorm.DB, userID string, c repositories.NotificationCriteria) ([]models.Notification, int64, error) {
	var out []models.Notification
	for _, n := range r.rows {
		if n.UserID == userID && (!c.UnreadOnly || !n.IsRead) {
			out = append(out, n)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeNotificationRepo) CountUnread(db *gorm.DB, userID string) (int64, error) {
	var n int64
	for _, row := range r.rows {
		if row.UserID == userID && !row.IsRead {
			n++
		}
	}
	return n, nil
}

func (r *fakeNotificationRepo) MarkAsRead(db *gorm.DB, userID, id string, at time.Time) error {
	for i := range r.rows {
		if r.rows[i].ID == id && r.rows[i].UserID == userID {
			r.rows[i].IsRead = true
			r.rows[i].ReadAt = &at
			return nil
		}
	}
	return repositories.ErrNotificationNotFound
}

func (r *fakeNotificationRepo) MarkAllAsRead(db *gorm.DB, userID string, at time.Time) (int64, error) {
	var n int64
	for i := range r.rows {
		if r.rows[i].UserID == userID && !r.rows[i].IsRead {
			r.rows[i].IsRead = true
			n++
		}
	}
	return n, nil
}

func (r *fakeNotificationRepo) forUser(userID string) []models.Notification {
	var out []models.Notification
	for _, n := range r.rows {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []dto.NotificationMessage
}

func (n *recordingNotifier) Send(ctx context.Context, db *gorm.DB, msg *dto.NotificationMessage) (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, *msg)
	return true, nil
}

func (n *recordingNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, m := range n.sent {
		out = append(out, m.Type)
	}
	return out
}

type recordingPusher struct {
	pushed map[string]int
}

func (p *recordingPusher) PushToUser(userID string, message any) bool {
	if p.pushed == nil {
		p.pushed = map[string]int{}
	}
	p.pushed[userID]++
	return true
}

// ---------------- content ----------------

type fakeContentRepo struct {
	items map[string]models.ContentItem
	saves int
}

func newFakeContentRepo(items ...models.ContentItem) *fakeContentRepo {
	r := &fakeContentRepo{items: map[string]models.ContentItem{}}
	for _, it := range items {
		r.items[string(it.Kind())+":"+it.Base().ID] = it
	}
	return r
}

func (r *fakeContentRepo) CreateContent(db *gorm.DB, item models.ContentItem) error {
	if item.Base().ID == "" {
		item.Base().ID = uuid.NewString()
	}
	r.items[string(item.Kind())+":"+item.Base().ID] = item
	return nil
}

func (r *fakeContentRepo) SaveContent(db *gorm.DB, item models.ContentItem) error {
	r.saves++
	r.items[string(item.Kind())+":"+item.Base().ID] = item
	return nil
}

func (r *fakeContentRepo) FindArticle(db *gorm.DB, id string) (*models.Article, error) {
	if it, ok := r.items["article:"+id]; ok {
		return it.(*models.Article), nil
	}
	return nil, repositories.ErrContentNotFound
}

func (r *fakeContentRepo) FindVideo(db *gorm.DB, id string) (*models.Video, error) {
	if it, ok := r.items["video:"+id]; ok {
		return it.(*models.Video), nil
	}
	return nil, repositories.ErrContentNotFound
}

func (r *fakeContentRepo) FindAudio(db *gorm.DB, id string) (*models.Audio, error) {
	if it, ok := r.items["audio:"+id]; ok {
		return it.(*models.Audio), nil
	}
	return nil, repositories.ErrContentNotFound
}

func (r *fakeContentRepo) FindContent(db *gorm.DB, kind models.ContentKind, id string) (models.ContentItem, error) {
	if _, ok := models.NewContentItem(kind); !ok {
		return nil, repositories.ErrUnknownContentKind
	}
	if it, ok := r.items[string(kind)+":"+id]; ok {
		return it, nil
	}
	return nil, repositories.ErrContentNotFound
}

func (r *fakeContentRepo) FindContentMeta(db *gorm.DB, kind models.ContentKind, id string) (*models.ContentMeta, error) {
	it, err := r.FindContent(db, kind, id)
	if err != nil {
		return nil, err
	}
	m := it.Meta()
	return &m, nil
}

func (r *fakeContentRepo) ListByOwner(db *gorm.DB, kind models.ContentKind, ownerID string, publishedOnly bool, page, pageSize int) ([]models.ContentMeta, int64, error) {
	var out []models.ContentMeta
	for _, it := range r.items {
		m := it.Meta()
		if m.Kind == kind && m.OwnerID == ownerID && (!publishedOnly || m.IsPublished) {
			out = append(out, m)
		}
	}
	return out, int64(len(out)), nil
}

func video(id, owner string, premium, published bool) *models.Video {
	v := &models.Video{MediaPath: "content/video/" + owner + "/" + id + ".mp4", MimeType: "video/mp4"}
	v.ID = id
	v.OwnerID = owner
	v.Title = "Video " + id
	v.IsPremium = premium
	v.IsPublished = published
	return v
}

type publisherFunc func(ctx context.Context, db *gorm.DB, creatorID string, content *models.ContentMeta) (*dto.NotifySummary, error)

func (f publisherFunc) NotifyNewContent(ctx context.Context, db *gorm.DB, creatorID string, content *models.ContentMeta) (*dto.NotifySummary, error) {
	return f(ctx, db, creatorID, content)
}

type memStorage struct {
	files map[string][]byte
}

func newMemStorage() *memStorage { return &memStorage{files: map[string][]byte{}} }

func (s *memStorage) Save(ctx context.Context, key string, r io.Reader, contentType string) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.files[key] = b
	return nil
}

func (s *memStorage) Delete(ctx context.Context, key string) error {
	delete(s.files, key)
	return nil
}

func (s *memStorage) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := s.files[key]
	return ok, nil
}

func (s *memStorage) GetURL(ctx context.Context, key string) (string, error) {
	return "https://cdn.test/" + key, nil
}

func (s *memStorage) GetSignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return "https://cdn.test/" + key + "?sig=1", nil
}

// ---------------- gateway ----------------

type fakeGateway struct {
	result    *payments.TransferResult
	err       error
	transfers []payments.TransferRequest
	refunds   []string
}

func (g *fakeGateway) Name() string { return "fake" }

func (g *fakeGateway) Transfer(ctx context.Context, req payments.TransferRequest) (*payments.TransferResult, error) {
	g.transfers = append(g.transfers, req)
	if g.err != nil {
		return nil, g.err
	}
	return g.result, nil
}

func (g *fakeGateway) Refund(ctx context.Context, reference string) error {
	g.refunds = append(g.refunds, reference)
	return nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
