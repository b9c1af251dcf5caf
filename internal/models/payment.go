package models

import (
	"time"

	"gorm.io/datatypes"
)

// SubscriptionPayment is one entry of a subscription's payment history.
type SubscriptionPayment struct {
	BaseModel
	SubscriptionID string         `gorm:"type:varchar(36);not null;index" json:"subscription_id"`
	PayerID        string         `gorm:"type:varchar(36);not null;index" json:"payer_id"`
	PayeeID        string         `gorm:"type:varchar(36);not null;index" json:"payee_id"`
	Kind           PaymentKind    `gorm:"type:varchar(20);not null" json:"kind"`
	Amount         float64        `gorm:"type:decimal(12,2);not null" json:"amount"`
	Currency       string         `gorm:"type:varchar(3);not null" json:"currency"`
	TransactionRef string         `gorm:"type:varchar(191);not null;uniqueIndex" json:"transaction_ref"`
	Provider       string         `gorm:"type:varchar(20)" json:"provider"`
	PeriodStart    time.Time      `json:"period_start"`
	PeriodEnd      time.Time      `json:"period_end"`
	Metadata       datatypes.JSON `json:"metadata,omitempty"`
}
