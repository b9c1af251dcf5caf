package dto

import (
	"io"
	"time"

	"creatorhub_backend/internal/models"
)

type CreateContentRequest struct {
	Kind            string   `json:"kind" validate:"required,is-content-kind"`
	Title           string   `json:"title" validate:"required,max=255"`
	Description     string   `json:"description" validate:"omitempty,max=5000"`
	Tags            []string `json:"tags" validate:"omitempty,max=20,dive,max=50"`
	IsPremium       bool     `json:"is_premium"`
	IsPublished     bool     `json:"is_published"`
	Body            string   `json:"body"`
	DurationSeconds int      `json:"duration_seconds" validate:"omitempty,min=0"`
}

// UpdateContentRequest - nil означает "не менять".
type UpdateContentRequest struct {
	Title       *string  `json:"title,omitempty" validate:"omitempty,max=255"`
	Description *string  `json:"description,omitempty" validate:"omitempty,max=5000"`
	Tags        []string `json:"tags,omitempty" validate:"omitempty,max=20,dive,max=50"`
	IsPremium   *bool    `json:"is_premium,omitempty"`
	IsPublished *bool    `json:"is_published,omitempty"`
	Body        *string  `json:"body,omitempty"`
}

type ContentListQuery struct {
	Page     int `form:"page" validate:"omitempty,min=1"`
	PageSize int `form:"page_size" validate:"omitempty,min=1,max=100"`
}

// ContentResponse carries the body and media links only when access was granted.
type ContentResponse struct {
	models.ContentMeta
	Slug            string          `json:"slug"`
	Description     string          `json:"description,omitempty"`
	Tags            []string        `json:"tags,omitempty"`
	PublishedAt     *time.Time      `json:"published_at,omitempty"`
	Body            string          `json:"body,omitempty"`
	MediaURL        string          `json:"media_url,omitempty"`
	CoverURL        string          `json:"cover_url,omitempty"`
	ThumbURL        string          `json:"thumb_url,omitempty"`
	DurationSeconds int             `json:"duration_seconds,omitempty"`
	Access          *AccessDecision `json:"access,omitempty"`
}

type ContentListResponse struct {
	Items      []models.ContentMeta `json:"items"`
	Total      int64                `json:"total"`
	Page       int                  `json:"page"`
	PageSize   int                  `json:"page_size"`
	TotalPages int                  `json:"total_pages"`
}

// MediaUploadResponse - результат загрузки медиа или обложки.
type MediaUploadResponse struct {
	Path     string `json:"path"`
	URL      string `json:"url"`
	ThumbURL string `json:"thumb_url,omitempty"`
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size"`
}

// MediaUpload is an already opened upload. Target is "media" or "cover".
type MediaUpload struct {
	Target      string
	Filename    string
	ContentType string
	Size        int64
	Reader      io.Reader
}
