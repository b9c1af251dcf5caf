package dto

import (
	"time"
)

// NotificationMessage is what the notification sink accepts.
type NotificationMessage struct {
	UserID  string
	Type    string
	Title   string
	Message string
	Data    map[string]interface{}
	// DedupeKey makes repeated sends of the same notice a no-op. Empty means no dedupe.
	DedupeKey string
}

// NotifySummary - итог рассылки.
type NotifySummary struct {
	Matched int `json:"matched"`
	Sent    int `json:"sent"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

type ExpiringSweepRequest struct {
	WithinDays int `json:"within_days" validate:"omitempty,min=1,max=90"`
}

type NotificationCriteria struct {
	UnreadOnly bool   `form:"unread_only"`
	Type       string `form:"type" validate:"omitempty,max=50"`
	Page       int    `form:"page" validate:"omitempty,min=1"`
	PageSize   int    `form:"page_size" validate:"omitempty,min=1,max=100"`
}

type NotificationResponse struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data,omitempty"`
	IsRead    bool                   `json:"is_read"`
	ReadAt    *time.Time             `json:"read_at,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

type NotificationListResponse struct {
	Notifications []*NotificationResponse `json:"notifications"`
	Total         int64                   `json:"total"`
	Page          int                     `json:"page"`
	PageSize      int                     `json:"page_size"`
	TotalPages    int                     `json:"total_pages"`
}

// PushEvent is the frame sent to a user's websocket connections.
type PushEvent struct {
	Event        string                `json:"event"`
	Notification *NotificationResponse `json:"notification"`
}
