package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	NotificationTypeNewContent            = "new_content"
	NotificationTypeSubscriptionExpiring  = "subscription_expiring"
	NotificationTypeSubscriberExpiring    = "subscriber_expiring"
	NotificationTypeNewSubscriber         = "new_subscriber"
	NotificationTypeSubscriptionCancelled = "subscription_cancelled"
	NotificationTypeSubscriptionRenewed   = "subscription_renewed"
)

type Notification struct {
	BaseModel
	UserID    string         `gorm:"type:varchar(36);not null;index" json:"user_id"`
	Type      string         `gorm:"type:varchar(50);not null" json:"type"`
	Title     string         `gorm:"type:varchar(255)" json:"title"`
	Message   string         `gorm:"type:text" json:"message"`
	Data      datatypes.JSON `json:"data,omitempty"`
	DedupeKey *string        `gorm:"type:varchar(191);uniqueIndex" json:"-"`
	IsRead    bool           `gorm:"not null" json:"is_read"`
	ReadAt    *time.Time     `json:"read_at,omitempty"`
}
