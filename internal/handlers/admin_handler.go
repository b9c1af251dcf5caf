package handlers

import (
	"net/http"

	"creatorhub_backend/internal/auth"
	"creatorhub_backend/internal/middleware"
	"creatorhub_backend/internal/models"
	"creatorhub_backend/internal/services"
	"creatorhub_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

// AdminHandler - служебные операции: рассылки и обслуживание подписок.
type AdminHandler struct {
	*BaseHandler
	subscriptionService services.SubscriptionService
	notificationService services.NotificationService
}

func NewAdminHandler(base *BaseHandler, subscriptionService services.SubscriptionService, notificationService services.NotificationService) *AdminHandler {
	return &AdminHandler{
		BaseHandler:         base,
		subscriptionService: subscriptionService,
		notificationService: notificationService,
	}
}

func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup) {
	admin := r.Group("/admin")
	admin.Use(middleware.AuthMiddleware())
	{
		admin.POST("/notifications/expiring", middleware.RequirePermission(auth.PermNotificationsSweep), h.NotifyExpiring)
		admin.POST("/subscriptions/expire", middleware.RequirePermission(auth.PermSubscriptionsSweep), h.ExpireOverdue)
		admin.POST("/subscriptions", middleware.RoleMiddleware(models.UserRoleAdmin), h.GrantSubscription)
	}
}

// NotifyExpiring - тело необязательно, по умолчанию окно берётся из сервиса.
func (h *AdminHandler) NotifyExpiring(c *gin.Context) {
	var req dto.ExpiringSweepRequest
	if c.Request.ContentLength > 0 && !h.BindAndValidate_JSON(c, &req) {
		return
	}

	summary, err := h.notificationService.NotifyExpiringSubscriptions(c.Request.Context(), h.GetDB(c), req.WithinDays)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (h *AdminHandler) ExpireOverdue(c *gin.Context) {
	n, err := h.subscriptionService.ExpireOverdue(c.Request.Context(), h.GetDB(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ExpireOverdueResponse{Expired: n})
}

// GrantSubscription creates a subscription without charging anyone.
func (h *AdminHandler) GrantSubscription(c *gin.Context) {
	var req dto.GrantSubscriptionRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	sub, err := h.subscriptionService.Subscribe(c.Request.Context(), h.GetDB(c), req.SubscriberID, &req.SubscribeRequest, nil)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, sub)
}
