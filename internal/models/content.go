package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

type ContentKind string

const (
	ContentKindArticle ContentKind = "article"
	ContentKindVideo   ContentKind = "video"
	ContentKindAudio   ContentKind = "audio"
)

func ParseContentKind(s string) (ContentKind, bool) {
	switch ContentKind(strings.ToLower(strings.TrimSpace(s))) {
	case ContentKindArticle:
		return ContentKindArticle, true
	case ContentKindVideo:
		return ContentKindVideo, true
	case ContentKindAudio:
		return ContentKindAudio, true
	}
	return "", false
}

// ContentMeta is the kind-agnostic view the access resolver works with.
type ContentMeta struct {
	ID          string      `json:"id"`
	OwnerID     string      `json:"owner_id"`
	Kind        ContentKind `json:"kind"`
	Title       string      `json:"title"`
	IsPremium   bool        `json:"is_premium"`
	IsPublished bool        `json:"is_published"`
	CreatedAt   time.Time   `json:"created_at"`
}

// ContentItem is implemented by Article, Video and Audio.
type ContentItem interface {
	Kind() ContentKind
	Meta() ContentMeta
	Base() *ContentBase
}

// ContentBase holds the columns every kind shares. The kind itself is the table.
type ContentBase struct {
	BaseModel
	OwnerID     string         `gorm:"type:varchar(36);not null;index" json:"owner_id"`
	Title       string         `gorm:"type:varchar(255);not null" json:"title"`
	Slug        string         `gorm:"type:varchar(255);index" json:"slug"`
	Description string         `gorm:"type:text" json:"description,omitempty"`
	Tags        datatypes.JSON `json:"tags,omitempty"`
	IsPremium   bool           `gorm:"not null" json:"is_premium"`
	IsPublished bool           `gorm:"not null;index" json:"is_published"`
	PublishedAt *time.Time     `json:"published_at,omitempty"`
	CoverPath   string         `gorm:"type:varchar(512)" json:"-"`
	ThumbPath   string         `gorm:"type:varchar(512)" json:"-"`
}

func (b *ContentBase) Base() *ContentBase { return b }

func (b *ContentBase) meta(kind ContentKind) ContentMeta {
	return ContentMeta{
		ID:          b.ID,
		OwnerID:     b.OwnerID,
		Kind:        kind,
		Title:       b.Title,
		IsPremium:   b.IsPremium,
		IsPublished: b.IsPublished,
		CreatedAt:   b.CreatedAt,
	}
}

type Article struct {
	ContentBase
	Body      string `gorm:"type:text" json:"body,omitempty"`
	ReadingMs int64  `json:"reading_ms,omitempty"`
}

func (Article) TableName() string { return "articles" }
func (a *Article) Kind() ContentKind { return ContentKindArticle }
func (a *Article) Meta() ContentMeta { return a.meta(ContentKindArticle) }

type Video struct {
	ContentBase
	MediaPath       string `gorm:"type:varchar(512)" json:"-"`
	MimeType        string `gorm:"type:varchar(100)" json:"mime_type,omitempty"`
	DurationSeconds int    `json:"duration_seconds,omitempty"`
}

func (Video) TableName() string { return "videos" }
func (v *Video) Kind() ContentKind { return ContentKindVideo }
func (v *Video) Meta() ContentMeta { return v.meta(ContentKindVideo) }

type Audio struct {
	ContentBase
	MediaPath       string `gorm:"type:varchar(512)" json:"-"`
	MimeType        string `gorm:"type:varchar(100)" json:"mime_type,omitempty"`
	DurationSeconds int    `json:"duration_seconds,omitempty"`
}

func (Audio) TableName() string { return "audio" }
func (a *Audio) Kind() ContentKind { return ContentKindAudio }
func (a *Audio) Meta() ContentMeta { return a.meta(ContentKindAudio) }

// NewContentItem returns an empty item of the given kind.
func NewContentItem(kind ContentKind) (ContentItem, bool) {
	switch kind {
	case ContentKindArticle:
		return &Article{}, true
	case ContentKindVideo:
		return &Video{}, true
	case ContentKindAudio:
		return &Audio{}, true
	}
	return nil, false
}
