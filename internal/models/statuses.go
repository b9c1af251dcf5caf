package models

import "strings"

type UserRole string
type SubscriptionType string
type SubscriptionStatus string
type FollowStatus string
type PaymentKind string

const (
	UserRoleCreator  UserRole = "creator"
	UserRoleConsumer UserRole = "consumer"
	UserRoleAdmin    UserRole = "admin"

	SubscriptionTypeMonthly SubscriptionType = "monthly"
	SubscriptionTypeYearly  SubscriptionType = "yearly"
	SubscriptionTypeOneTime SubscriptionType = "one_time"

	SubscriptionStatusPending   SubscriptionStatus = "pending"
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"

	FollowStatusActive   FollowStatus = "active"
	FollowStatusInactive FollowStatus = "inactive"

	PaymentKindInitial PaymentKind = "initial"
	PaymentKindRenewal PaymentKind = "renewal"
)

// ParseSubscriptionType accepts both "one_time" and "one-time".
func ParseSubscriptionType(s string) (SubscriptionType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "monthly":
		return SubscriptionTypeMonthly, true
	case "yearly":
		return SubscriptionTypeYearly, true
	case "one_time", "one-time":
		return SubscriptionTypeOneTime, true
	default:
		return "", false
	}
}

func (r UserRole) Valid() bool {
	switch r {
	case UserRoleCreator, UserRoleConsumer, UserRoleAdmin:
		return true
	}
	return false
}
