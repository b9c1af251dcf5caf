package dto

import (
	"creatorhub_backend/internal/models"
)

// SubscribeRequest - тело запроса на оформление подписки.
// PaymentToken нужен только когда подписка оплачивается через платёжный шлюз.
type SubscribeRequest struct {
	CreatorID    string  `json:"creator_id" validate:"required"`
	Type         string  `json:"type" validate:"required,is-subscription-type"`
	Amount       float64 `json:"amount" validate:"gt=0"`
	Currency     string  `json:"currency" validate:"required,len=3"`
	Notes        string  `json:"notes" validate:"omitempty,max=1000"`
	PaymentToken string  `json:"payment_token" validate:"omitempty,max=512"`
}

// RenewRequest - продление. Пустые Amount/Currency означают "как в прошлый период".
type RenewRequest struct {
	Amount       float64 `json:"amount" validate:"omitempty,gt=0"`
	Currency     string  `json:"currency" validate:"omitempty,len=3"`
	PaymentToken string  `json:"payment_token" validate:"required,max=512"`
}

// PaymentRecord is what the payment gateway handed back for a charge.
type PaymentRecord struct {
	TransactionRef string
	Provider       string
	Metadata       map[string]interface{}
}

// RenewalData is the lifecycle-level input of a renewal.
type RenewalData struct {
	Amount   float64
	Currency string
	Payment  PaymentRecord
}

type SubscribersQuery struct {
	Status   string `form:"status" validate:"omitempty,oneof=pending active cancelled expired"`
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"page_size" validate:"omitempty,min=1,max=100"`
}

type SubscriptionListResponse struct {
	Subscriptions []models.Subscription `json:"subscriptions"`
	Total         int64                 `json:"total"`
	Page          int                   `json:"page"`
	PageSize      int                   `json:"page_size"`
	TotalPages    int                   `json:"total_pages"`
}

type ExpireOverdueResponse struct {
	Expired int64 `json:"expired"`
}

func TotalPages(total int64, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}

// GrantSubscriptionRequest - ручная выдача подписки администратором, без оплаты.
type GrantSubscriptionRequest struct {
	SubscriberID string `json:"subscriber_id" validate:"required"`
	SubscribeRequest
}
