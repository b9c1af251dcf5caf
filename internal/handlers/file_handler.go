package handlers

import (
	"os"
	"strings"

	"creatorhub_backend/internal/storage"
	"creatorhub_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// FileHandler раздаёт файлы локального хранилища. С S3/R2 не регистрируется:
// ссылки ведут прямо в бакет.
type FileHandler struct {
	*BaseHandler
	storage *storage.LocalStorage
}

func NewFileHandler(base *BaseHandler, storage *storage.LocalStorage) *FileHandler {
	return &FileHandler{
		BaseHandler: base,
		storage:     storage,
	}
}

// RegisterRoutes expects the root group: local URLs are "/files/<key>".
func (h *FileHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/files/*key", h.ServeFile)
	r.HEAD("/files/*key", h.ServeFile)
}

func (h *FileHandler) ServeFile(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if key == "" {
		apperrors.HandleError(c, apperrors.NotFound("file", "File not found"))
		return
	}

	path, err := h.storage.Path(key)
	if err != nil {
		apperrors.HandleError(c, apperrors.NewBadRequestError("Invalid file path"))
		return
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		apperrors.HandleError(c, apperrors.NotFound("file", "File not found"))
		return
	}

	c.Header("Cache-Control", "public, max-age=31536000")
	if c.Query("download") == "true" {
		c.FileAttachment(path, info.Name())
		return
	}
	c.Header("Content-Disposition", "inline")
	c.File(path)
}
