package handlers

import (
	"errors"
	"fmt"
	"strconv"

	"creatorhub_backend/internal/logger"
	"creatorhub_backend/internal/models"
	"creatorhub_backend/internal/services"
	"creatorhub_backend/internal/validator"
	"creatorhub_backend/pkg/apperrors"
	"creatorhub_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ============================================================================
// 1. Базовая структура обработчика
// ============================================================================

type BaseHandler struct {
	validator *validator.Validator
}

func NewBaseHandler(v *validator.Validator) *BaseHandler {
	return &BaseHandler{
		validator: v,
	}
}

// ============================================================================
// 2. Доступ к БД
// ============================================================================

// GetDB извлекает *gorm.DB (пул или транзакцию) из gin.Context.
// Этот метод должен вызываться в каждом хендлере, который обращается к сервисам.
func (h *BaseHandler) GetDB(c *gin.Context) *gorm.DB {
	dbKey := string(contextkeys.DBContextKey)

	val, ok := c.Get(dbKey)
	if !ok {
		// Этого никогда не должно случиться, если DBMiddleware настроен
		logger.CtxError(c.Request.Context(), "critical error: db key not found in context", "key", dbKey)
		// Паника здесь уместна, т.к. приложение неверно сконфигурировано
		panic("critical error: DBMiddleware did not set the db key")
	}

	db, ok := val.(*gorm.DB)
	if !ok {
		// Этого тоже не должно случиться, если DBMiddleware настроен
		logger.CtxError(c.Request.Context(), "critical error: db in context is not *gorm.DB", "key", dbKey, "type", fmt.Sprintf("%T", val))
		panic("critical error: db in context has incorrect type")
	}

	return db
}

// ============================================================================
// 3. Привязка и валидация запросов
// ============================================================================

func (h *BaseHandler) BindAndValidate_JSON(c *gin.Context, obj interface{}) bool {
	return h.bindAndValidate(c, obj, "body", c.ShouldBind)
}

func (h *BaseHandler) BindAndValidate_Query(c *gin.Context, obj interface{}) bool {
	return h.bindAndValidate(c, obj, "query", c.ShouldBindQuery)
}

// bindAndValidate отвечает клиенту сам и возвращает false, если запрос не прошёл.
func (h *BaseHandler) bindAndValidate(c *gin.Context, obj interface{}, source string, bind func(interface{}) error) bool {
	ctx := c.Request.Context()
	path := c.Request.URL.Path

	if err := bind(obj); err != nil {
		logger.CtxWarn(ctx, "request binding failed", "source", source, "error", err.Error(), "path", path)
		apperrors.HandleError(c, apperrors.NewBadRequestError("Invalid request "+source+": "+err.Error()))
		return false
	}

	err := h.validator.Validate(obj)
	if err == nil {
		return true
	}

	var vErr *validator.ValidationError
	if errors.As(err, &vErr) {
		logger.CtxWarn(ctx, "request validation failed", "source", source, "errors", vErr.Errors, "path", path)
		apperrors.HandleError(c, apperrors.ValidationError(vErr.Errors))
		return false
	}

	logger.CtxWithError(ctx, "validator failure", err, "source", source, "path", path)
	apperrors.HandleError(c, apperrors.InternalError(err))
	return false
}

// ============================================================================
// 4. Обработчики ошибок (с контекстным логгированием)
// ============================================================================

func (h *BaseHandler) HandleServiceError(c *gin.Context, err error) {
	ctx := c.Request.Context()

	var appErr *apperrors.AppError
	if apperrors.As(err, &appErr) {
		logger.CtxWarn(ctx, "Service error",
			"error", appErr.Message,
			"details", appErr.Details,
			"path", c.Request.URL.Path,
		)
		apperrors.HandleError(c, appErr)
	} else {
		logger.CtxWithError(ctx, "Internal server error", err, "path", c.Request.URL.Path)
		apperrors.HandleError(c, apperrors.InternalError(err))
	}
}

// ============================================================================
// 5. Вспомогательные функции (с контекстным логгированием)
// ============================================================================

func (h *BaseHandler) GetAndAuthorizeUserID(c *gin.Context) (string, bool) {
	ctx := c.Request.Context()

	userIDVal, exists := c.Get(contextkeys.UserIDKey)
	if !exists {
		logger.CtxWarn(ctx, "Unauthorized access: userID not found in context",
			"path", c.Request.URL.Path,
			"ip", c.ClientIP(),
		)
		apperrors.HandleError(c, apperrors.NewUnauthorizedError("User not authenticated"))
		return "", false
	}

	userIDStr, ok := userIDVal.(string)
	if !ok || userIDStr == "" {
		logger.CtxWarn(ctx, "Unauthorized access: invalid userID in context",
			"path", c.Request.URL.Path,
			"ip", c.ClientIP(),
		)
		apperrors.HandleError(c, apperrors.NewUnauthorizedError("Invalid user ID in context"))
		return "", false
	}

	return userIDStr, true
}

// ViewerID returns the caller's ID on optional-auth routes, "" for anonymous viewers.
func (h *BaseHandler) ViewerID(c *gin.Context) string {
	return c.GetString(contextkeys.UserIDKey)
}

// IsAdmin reports whether the authenticated caller has the admin role.
func (h *BaseHandler) IsAdmin(c *gin.Context) bool {
	return models.UserRole(c.GetString(contextkeys.RoleKey)) == models.UserRoleAdmin
}

// ContentRef reads :kind and :id. An unknown kind is answered with 400 here.
func (h *BaseHandler) ContentRef(c *gin.Context) (services.ContentRef, bool) {
	kind, ok := models.ParseContentKind(c.Param("kind"))
	if !ok {
		apperrors.HandleError(c, apperrors.ErrInvalidContentKind)
		return services.ContentRef{}, false
	}
	return services.ContentRef{Kind: kind, ID: c.Param("id")}, true
}

// ============================================================================
// 6. Функции парсинга
// ============================================================================

func ParseQueryInt(c *gin.Context, key string, defaultValue int) int {
	valueStr := c.Query(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
