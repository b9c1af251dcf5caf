package handlers

import (
	"net/http"

	"creatorhub_backend/internal/auth"
	"creatorhub_backend/internal/logger"
	"creatorhub_backend/internal/middleware"
	"creatorhub_backend/internal/models"
	"creatorhub_backend/internal/services"
	"creatorhub_backend/internal/services/dto"
	"creatorhub_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

type ContentHandler struct {
	*BaseHandler
	contentService services.ContentService
}

func NewContentHandler(base *BaseHandler, contentService services.ContentService) *ContentHandler {
	return &ContentHandler{
		BaseHandler:    base,
		contentService: contentService,
	}
}

func (h *ContentHandler) RegisterRoutes(r *gin.RouterGroup) {
	// Чтение доступно анонимно, но с токеном решение учитывает подписки.
	public := r.Group("")
	public.Use(middleware.OptionalAuthMiddleware())
	{
		public.GET("/content/:kind/:id", h.GetContent)
		public.GET("/content/:kind/:id/access", h.CheckAccess)
		public.GET("/creators/:creatorId/content/:kind", h.ListByCreator)
	}

	content := r.Group("/content")
	content.Use(middleware.AuthMiddleware(), middleware.RequirePermission(auth.PermContentWrite))
	{
		content.POST("", h.CreateContent)
		content.PATCH("/:kind/:id", h.UpdateContent)
		content.POST("/:kind/:id/media", h.UploadMedia)
	}
}

func (h *ContentHandler) CreateContent(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.CreateContentRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	content, err := h.contentService.CreateContent(c.Request.Context(), h.GetDB(c), userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, content)
}

func (h *ContentHandler) UpdateContent(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	ref, ok := h.ContentRef(c)
	if !ok {
		return
	}

	var req dto.UpdateContentRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	content, err := h.contentService.UpdateContent(c.Request.Context(), h.GetDB(c), userID, ref, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, content)
}

// GetContent answers 403 with the item metadata and the access decision when
// the viewer may not read the body.
func (h *ContentHandler) GetContent(c *gin.Context) {
	ref, ok := h.ContentRef(c)
	if !ok {
		return
	}

	content, err := h.contentService.GetContent(c.Request.Context(), h.GetDB(c), h.ViewerID(c), ref)
	if err != nil {
		if appErr, isApp := apperrors.AsAppError(err); isApp && content != nil && appErr.Code == apperrors.CodeForbidden {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   appErr,
				"content": content,
			})
			return
		}
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, content)
}

// CheckAccess - только решение, без содержимого. creator_id необязателен.
func (h *ContentHandler) CheckAccess(c *gin.Context) {
	ref, ok := h.ContentRef(c)
	if !ok {
		return
	}

	decision, err := h.contentService.CheckAccess(c.Request.Context(), h.GetDB(c), h.ViewerID(c), ref, c.Query("creator_id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, decision)
}

func (h *ContentHandler) ListByCreator(c *gin.Context) {
	kind, ok := models.ParseContentKind(c.Param("kind"))
	if !ok {
		apperrors.HandleError(c, apperrors.ErrInvalidContentKind)
		return
	}

	var query dto.ContentListQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}

	list, err := h.contentService.ListByCreator(c.Request.Context(), h.GetDB(c), h.ViewerID(c), c.Param("creatorId"), kind, query)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

// UploadMedia принимает multipart: поле "file" и необязательное "target" (media|cover).
func (h *ContentHandler) UploadMedia(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	ref, ok := h.ContentRef(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		apperrors.HandleError(c, apperrors.NewBadRequestError("file is required"))
		return
	}
	target := c.DefaultPostForm("target", services.UploadTargetMedia)
	if target != services.UploadTargetMedia && target != services.UploadTargetCover {
		apperrors.HandleError(c, apperrors.NewBadRequestError("target must be media or cover"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		logger.CtxWithError(c.Request.Context(), "Failed to open uploaded file", err, "filename", fileHeader.Filename)
		apperrors.HandleError(c, apperrors.InternalError(err))
		return
	}
	defer file.Close()

	upload := &dto.MediaUpload{
		Target:      target,
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Reader:      file,
	}

	result, err := h.contentService.UploadMedia(c.Request.Context(), h.GetDB(c), userID, ref, upload)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}
