package handlers

import (
	"net/http"

	"creatorhub_backend/internal/auth"
	"creatorhub_backend/internal/middleware"
	"creatorhub_backend/internal/services"
	"creatorhub_backend/internal/services/dto"
	"creatorhub_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

type SubscriptionHandler struct {
	*BaseHandler
	subscriptionService services.SubscriptionService
	paymentService      services.PaymentService
}

func NewSubscriptionHandler(base *BaseHandler, subscriptionService services.SubscriptionService, paymentService services.PaymentService) *SubscriptionHandler {
	return &SubscriptionHandler{
		BaseHandler:         base,
		subscriptionService: subscriptionService,
		paymentService:      paymentService,
	}
}

func (h *SubscriptionHandler) RegisterRoutes(r *gin.RouterGroup) {
	subscriptions := r.Group("/subscriptions")
	subscriptions.Use(middleware.AuthMiddleware())
	{
		subscriptions.POST("", middleware.RequirePermission(auth.PermSubscriptionsWrite), h.Subscribe)
		subscriptions.GET("", h.GetMySubscriptions)
		subscriptions.GET("/:subscriptionId", h.GetSubscription)
		subscriptions.POST("/:subscriptionId/renew", middleware.RequirePermission(auth.PermSubscriptionsWrite), h.Renew)
		subscriptions.GET("/:subscriptionId/payments", h.GetPayments)
	}

	creators := r.Group("/creators/:creatorId")
	creators.Use(middleware.AuthMiddleware())
	{
		creators.DELETE("/subscription", h.Cancel)
		creators.POST("/follow", h.Follow)
		creators.DELETE("/follow", h.Unfollow)
		creators.GET("/subscribers", middleware.RequirePermission(auth.PermSubscribersRead), h.GetSubscribers)
	}

	follows := r.Group("/follows")
	follows.Use(middleware.AuthMiddleware())
	{
		follows.GET("", h.GetFollowing)
	}
}

// Subscribe списывает оплату через шлюз и только после успеха создаёт подписку.
func (h *SubscriptionHandler) Subscribe(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.SubscribeRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	sub, err := h.paymentService.PurchaseSubscription(c.Request.Context(), h.GetDB(c), userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, sub)
}

func (h *SubscriptionHandler) Renew(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.RenewRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	sub, err := h.paymentService.RenewSubscription(c.Request.Context(), h.GetDB(c), c.Param("subscriptionId"), userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, sub)
}

func (h *SubscriptionHandler) GetMySubscriptions(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	subs, err := h.subscriptionService.GetMySubscriptions(c.Request.Context(), h.GetDB(c), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"subscriptions": subs,
		"total":         len(subs),
	})
}

func (h *SubscriptionHandler) GetSubscription(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	sub, err := h.subscriptionService.GetSubscription(c.Request.Context(), h.GetDB(c), userID, c.Param("subscriptionId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, sub)
}

func (h *SubscriptionHandler) GetPayments(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	payments, err := h.subscriptionService.GetPayments(c.Request.Context(), h.GetDB(c), userID, c.Param("subscriptionId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"payments": payments,
		"total":    len(payments),
	})
}

// Cancel идемпотентен: отсутствие активной подписки - тоже успех.
func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	if err := h.subscriptionService.Cancel(c.Request.Context(), h.GetDB(c), userID, c.Param("creatorId")); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Subscription cancelled"})
}

func (h *SubscriptionHandler) Follow(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	if err := h.subscriptionService.Follow(c.Request.Context(), h.GetDB(c), userID, c.Param("creatorId")); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Following"})
}

func (h *SubscriptionHandler) Unfollow(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	if err := h.subscriptionService.Unfollow(c.Request.Context(), h.GetDB(c), userID, c.Param("creatorId")); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Unfollowed"})
}

func (h *SubscriptionHandler) GetFollowing(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	follows, err := h.subscriptionService.GetFollowing(c.Request.Context(), h.GetDB(c), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"follows": follows,
		"total":   len(follows),
	})
}

// GetSubscribers - список подписчиков создателя. Видит сам создатель или админ.
func (h *SubscriptionHandler) GetSubscribers(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	creatorID := c.Param("creatorId")
	if creatorID != userID && !h.IsAdmin(c) {
		apperrors.HandleError(c, apperrors.NewForbiddenError("Only the creator can list their subscribers"))
		return
	}

	var query dto.SubscribersQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}

	list, err := h.subscriptionService.GetSubscribers(c.Request.Context(), h.GetDB(c), creatorID, query)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}
