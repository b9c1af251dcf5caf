package models

import (
	"time"
)

// Subscription is a paid subscriber -> creator relationship. Rows are never
// hard-deleted.
//
// ActivePairKey is "<subscriber>:<creator>" while the row is active and NULL
// otherwise. Its unique index is what keeps at most one active row per pair:
// both postgres and mysql allow any number of NULLs in a unique index.
type Subscription struct {
	BaseModel
	SubscriberID       string             `gorm:"type:varchar(36);not null;index:idx_subscriptions_pair" json:"subscriber_id"`
	CreatorID          string             `gorm:"type:varchar(36);not null;index:idx_subscriptions_pair;index" json:"creator_id"`
	Type               SubscriptionType   `gorm:"type:varchar(20);not null" json:"type"`
	Status             SubscriptionStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Amount             float64            `gorm:"type:decimal(12,2);not null" json:"amount"`
	Currency           string             `gorm:"type:varchar(3);not null" json:"currency"`
	Notes              string             `gorm:"type:text" json:"notes,omitempty"`
	StartedAt          time.Time          `gorm:"not null" json:"started_at"`
	CurrentPeriodStart time.Time          `gorm:"not null" json:"current_period_start"`
	ExpiresAt          time.Time          `gorm:"not null;index" json:"expires_at"`
	CancelledAt        *time.Time         `json:"cancelled_at,omitempty"`
	ActivePairKey      *string            `gorm:"type:varchar(80);uniqueIndex:uq_subscriptions_active_pair" json:"-"`
}

func ActivePairKey(subscriberID, creatorID string) string {
	return subscriberID + ":" + creatorID
}

// Activate marks the row active and claims the pair slot.
func (s *Subscription) Activate() {
	key := ActivePairKey(s.SubscriberID, s.CreatorID)
	s.Status = SubscriptionStatusActive
	s.ActivePairKey = &key
	s.CancelledAt = nil
}

// IsLapsed reports whether the row is still stored as active but its period is over.
func (s *Subscription) IsLapsed(now time.Time) bool {
	return s.Status == SubscriptionStatusActive && s.ExpiresAt.Before(now)
}

// PeriodEnd computes the end of a period of the given type starting at start.
// one_time is "never" in practice: a hundred years out.
func PeriodEnd(t SubscriptionType, start time.Time) (time.Time, bool) {
	switch t {
	case SubscriptionTypeMonthly:
		return start.AddDate(0, 1, 0), true
	case SubscriptionTypeYearly:
		return start.AddDate(1, 0, 0), true
	case SubscriptionTypeOneTime:
		return start.AddDate(100, 0, 0), true
	}
	return time.Time{}, false
}
