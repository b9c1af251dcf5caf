package middleware

import (
	"strings"

	"creatorhub_backend/internal/auth"
	"creatorhub_backend/internal/logger"
	"creatorhub_backend/internal/models"
	"creatorhub_backend/pkg/apperrors"
	"creatorhub_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
)

// tokenFromRequest берёт токен из заголовка Authorization или из ?access_token=
// (браузер не умеет ставить заголовки на websocket handshake).
func tokenFromRequest(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return c.Query("access_token")
}

func setIdentity(c *gin.Context, claims *auth.Claims) {
	c.Set(contextkeys.UserIDKey, claims.UserID)
	c.Set(contextkeys.RoleKey, claims.Role)
	c.Request = c.Request.WithContext(logger.WithUserID(c.Request.Context(), claims.UserID))
}

// AuthMiddleware - middleware проверки JWT
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFromRequest(c)
		if token == "" {
			apperrors.HandleError(c, apperrors.NewUnauthorizedError("Authorization header missing or invalid"))
			return
		}

		claims, err := auth.ParseToken(token)
		if err != nil {
			apperrors.HandleError(c, apperrors.ErrInvalidToken)
			return
		}

		setIdentity(c, claims)
		c.Next()
	}
}

// OptionalAuthMiddleware identifies the viewer when a valid token is present
// and lets anonymous requests through otherwise.
func OptionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := tokenFromRequest(c); token != "" {
			if claims, err := auth.ParseToken(token); err == nil {
				setIdentity(c, claims)
			} else {
				logger.CtxDebug(c.Request.Context(), "ignoring invalid token on optional auth route", "error", err)
			}
		}
		c.Next()
	}
}

// RoleMiddleware - middleware ограничения по одной роли
func RoleMiddleware(requiredRole models.UserRole) gin.HandlerFunc {
	return RequireRoles(requiredRole)
}

// RequireRoles - middleware для проверки нескольких возможных ролей
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	roleSet := make(map[models.UserRole]bool, len(roles))
	for _, r := range roles {
		roleSet[r] = true
	}

	return func(c *gin.Context) {
		role, ok := GetRole(c)
		if !ok {
			apperrors.HandleError(c, apperrors.NewForbiddenError("Access denied: no role"))
			return
		}
		if !roleSet[role] {
			apperrors.HandleError(c, apperrors.NewForbiddenError("Access denied: insufficient role"))
			return
		}
		c.Next()
	}
}

// RequirePermission checks the role against auth.Permissions.
func RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := GetRole(c)
		if !ok || !auth.HasPermission(role, permission) {
			apperrors.HandleError(c, apperrors.NewForbiddenError("Access denied: missing permission "+permission))
			return
		}
		c.Next()
	}
}

// GetUserID извлекает ID пользователя из контекста
func GetUserID(c *gin.Context) string {
	return c.GetString(contextkeys.UserIDKey)
}

func GetRole(c *gin.Context) (models.UserRole, bool) {
	roleVal, exists := c.Get(contextkeys.RoleKey)
	if !exists {
		return "", false
	}
	switch role := roleVal.(type) {
	case models.UserRole:
		return role, true
	case string:
		return models.UserRole(role), role != ""
	default:
		return "", false
	}
}
