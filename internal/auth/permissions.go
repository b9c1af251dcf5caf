package auth

import "creatorhub_backend/internal/models"

const (
	PermContentWrite       = "content:write"
	PermSubscribersRead    = "subscribers:read"
	PermSubscriptionsWrite = "subscriptions:write"
	PermNotificationsSweep = "notifications:sweep"
	PermSubscriptionsSweep = "subscriptions:sweep"
)

// Permissions - разрешения по ролям.
var Permissions = map[models.UserRole][]string{
	models.UserRoleAdmin: {
		PermContentWrite,
		PermSubscribersRead,
		PermSubscriptionsWrite,
		PermNotificationsSweep,
		PermSubscriptionsSweep,
	},
	models.UserRoleCreator: {
		PermContentWrite,
		PermSubscribersRead,
		PermSubscriptionsWrite,
	},
	models.UserRoleConsumer: {
		PermSubscriptionsWrite,
	},
}

// HasPermission проверяет есть ли у роли указанное разрешение
func HasPermission(role models.UserRole, permission string) bool {
	for _, p := range Permissions[role] {
		if p == permission {
			return true
		}
	}
	return false
}

func IsAdmin(claims *Claims) bool {
	return models.UserRole(claims.Role) == models.UserRoleAdmin
}
