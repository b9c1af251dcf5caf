package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"creatorhub_backend/internal/imageprocessor"
	"creatorhub_backend/internal/logger"
	"creatorhub_backend/internal/models"
	"creatorhub_backend/internal/repositories"
	"creatorhub_backend/internal/services/dto"
	"creatorhub_backend/internal/storage"
	"creatorhub_backend/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	UploadTargetMedia = "media"
	UploadTargetCover = "cover"
)

var coverTypes = []string{"image/jpeg", "image/png"}

// ContentConfig - ограничения загрузки и срок жизни подписанных ссылок.
type ContentConfig struct {
	MaxUploadSize int64
	AllowedTypes  map[string][]string // kind -> MIME
	SignedURLTTL  time.Duration
}

// NewContentPublisher is the part of NotificationService content needs.
type NewContentPublisher interface {
	NotifyNewContent(ctx context.Context, db *gorm.DB, creatorID string, content *models.ContentMeta) (*dto.NotifySummary, error)
}

type ContentService interface {
	CreateContent(ctx context.Context, db *gorm.DB, ownerID string, req *dto.CreateContentRequest) (*dto.ContentResponse, error)
	UpdateContent(ctx context.Context, db *gorm.DB, ownerID string, ref ContentRef, req *dto.UpdateContentRequest) (*dto.ContentResponse, error)
	GetContent(ctx context.Context, db *gorm.DB, viewerID string, ref ContentRef) (*dto.ContentResponse, error)
	CheckAccess(ctx context.Context, db *gorm.DB, viewerID string, ref ContentRef, creatorID string) (*dto.AccessDecision, error)
	ListByCreator(ctx context.Context, db *gorm.DB, viewerID, creatorID string, kind models.ContentKind, query dto.ContentListQuery) (*dto.ContentListResponse, error)
	UploadMedia(ctx context.Context, db *gorm.DB, ownerID string, ref ContentRef, upload *dto.MediaUpload) (*dto.MediaUploadResponse, error)
}

type contentService struct {
	contentRepo repositories.ContentRepository
	userRepo    repositories.UserRepository
	resolver    AccessResolver
	publisher   NewContentPublisher
	storage     storage.Storage
	processor   *imageprocessor.Processor
	config      ContentConfig
	now         func() time.Time
}

func NewContentService(
	contentRepo repositories.ContentRepository,
	userRepo repositories.UserRepository,
	resolver AccessResolver,
	publisher NewContentPublisher,
	store storage.Storage,
	processor *imageprocessor.Processor,
	config ContentConfig,
) ContentService {
	if config.SignedURLTTL <= 0 {
		config.SignedURLTTL = 15 * time.Minute
	}
	return &contentService{
		contentRepo: contentRepo,
		userRepo:    userRepo,
		resolver:    resolver,
		publisher:   publisher,
		storage:     store,
		processor:   processor,
		config:      config,
		now:         time.Now,
	}
}

// ---------------- Write ----------------

func (s *contentService) CreateContent(ctx context.Context, db *gorm.DB, ownerID string, req *dto.CreateContentRequest) (*dto.ContentResponse, error) {
	kind, ok := models.ParseContentKind(req.Kind)
	if !ok {
		return nil, apperrors.ErrInvalidContentKind
	}
	owner, err := s.userRepo.FindByID(db, ownerID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.NotFound("user", "User not found")
		}
		return nil, apperrors.StoreError(err)
	}
	if !owner.IsCreator() {
		return nil, apperrors.Forbidden("content", "Only creators can publish content")
	}

	item, _ := models.NewContentItem(kind)
	base := item.Base()
	base.OwnerID = ownerID
	base.Title = req.Title
	base.Slug = makeSlug(req.Title)
	base.Description = req.Description
	base.IsPremium = req.IsPremium
	if req.Tags != nil {
		base.Tags = tagsJSON(req.Tags)
	}
	if req.IsPublished {
		now := s.now()
		base.IsPublished = true
		base.PublishedAt = &now
	}

	switch v := item.(type) {
	case *models.Article:
		v.Body = req.Body
	case *models.Video:
		v.DurationSeconds = req.DurationSeconds
	case *models.Audio:
		v.DurationSeconds = req.DurationSeconds
	}

	if err := s.contentRepo.CreateContent(db, item); err != nil {
		return nil, apperrors.StoreError(err)
	}
	logger.CtxInfo(ctx, "content created", "content_id", base.ID, "kind", kind, "owner_id", ownerID, "published", base.IsPublished)

	if base.IsPublished {
		s.publish(ctx, db, item)
	}
	return s.buildResponse(ctx, item, &dto.AccessDecision{HasAccess: true, IsPremium: base.IsPremium}), nil
}

func (s *contentService) UpdateContent(ctx context.Context, db *gorm.DB, ownerID string, ref ContentRef, req *dto.UpdateContentRequest) (*dto.ContentResponse, error) {
	item, err := s.contentRepo.FindContent(db, ref.Kind, ref.ID)
	if err != nil {
		return nil, handleContentError(err)
	}
	base := item.Base()
	if base.OwnerID != ownerID {
		return nil, apperrors.ErrNotContentOwner
	}

	wasPublished := base.IsPublished
	if req.Title != nil {
		base.Title = *req.Title
	}
	if req.Description != nil {
		base.Description = *req.Description
	}
	if req.Tags != nil {
		base.Tags = tagsJSON(req.Tags)
	}
	if req.IsPremium != nil {
		base.IsPremium = *req.IsPremium
	}
	if req.IsPublished != nil {
		base.IsPublished = *req.IsPublished
		if base.IsPublished && base.PublishedAt == nil {
			now := s.now()
			base.PublishedAt = &now
		}
	}
	if req.Body != nil {
		article, ok := item.(*models.Article)
		if !ok {
			return nil, apperrors.Validation("content", "Only articles have a body")
		}
		article.Body = *req.Body
	}

	if err := s.contentRepo.SaveContent(db, item); err != nil {
		return nil, handleContentError(err)
	}

	if !wasPublished && base.IsPublished {
		s.publish(ctx, db, item)
	}
	return s.buildResponse(ctx, item, &dto.AccessDecision{HasAccess: true, IsPremium: base.IsPremium}), nil
}

// publish fans out new-content notices. Failures are logged only.
func (s *contentService) publish(ctx context.Context, db *gorm.DB, item models.ContentItem) {
	if s.publisher == nil {
		return
	}
	meta := item.Meta()
	if _, err := s.publisher.NotifyNewContent(ctx, db, meta.OwnerID, &meta); err != nil {
		logger.CtxWithError(ctx, "new content notification failed", err, "content_id", meta.ID)
	}
}

// ---------------- Read ----------------

// GetContent returns the full item when access is granted. Otherwise the
// response carries only metadata and the error is a 403 with the decision attached.
func (s *contentService) GetContent(ctx context.Context, db *gorm.DB, viewerID string, ref ContentRef) (*dto.ContentResponse, error) {
	item, err := s.contentRepo.FindContent(db, ref.Kind, ref.ID)
	if err != nil {
		return nil, handleContentError(err)
	}
	meta := item.Meta()

	decision, err := s.resolver.Decide(ctx, db, viewerID, &meta, "")
	if err != nil {
		return nil, err
	}

	// Владелец всегда видит своё содержимое, даже если подписки на себя нет.
	if !decision.HasAccess && viewerID != meta.OwnerID {
		resp := &dto.ContentResponse{ContentMeta: meta, Slug: item.Base().Slug, Access: decision}
		return resp, apperrors.Forbidden("content", "Access denied").WithDetails(decision)
	}
	return s.buildResponse(ctx, item, decision), nil
}

func (s *contentService) CheckAccess(ctx context.Context, db *gorm.DB, viewerID string, ref ContentRef, creatorID string) (*dto.AccessDecision, error) {
	return s.resolver.ResolveAccess(ctx, db, viewerID, ref, creatorID)
}

func (s *contentService) ListByCreator(ctx context.Context, db *gorm.DB, viewerID, creatorID string, kind models.ContentKind, query dto.ContentListQuery) (*dto.ContentListResponse, error) {
	page, pageSize := normalizePage(query.Page, query.PageSize)
	items, total, err := s.contentRepo.ListByOwner(db, kind, creatorID, viewerID != creatorID, page, pageSize)
	if err != nil {
		return nil, handleContentError(err)
	}
	return &dto.ContentListResponse{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: dto.TotalPages(total, pageSize),
	}, nil
}

// ---------------- Media ----------------

func (s *contentService) UploadMedia(ctx context.Context, db *gorm.DB, ownerID string, ref ContentRef, upload *dto.MediaUpload) (*dto.MediaUploadResponse, error) {
	item, err := s.contentRepo.FindContent(db, ref.Kind, ref.ID)
	if err != nil {
		return nil, handleContentError(err)
	}
	base := item.Base()
	if base.OwnerID != ownerID {
		return nil, apperrors.ErrNotContentOwner
	}

	var allowed []string
	switch upload.Target {
	case UploadTargetCover:
		allowed = coverTypes
	case UploadTargetMedia:
		if ref.Kind == models.ContentKindArticle {
			return nil, apperrors.Validation("upload", "Articles only accept a cover image")
		}
		allowed = s.config.AllowedTypes[string(ref.Kind)]
	default:
		return nil, apperrors.Validation("upload", "target must be media or cover")
	}
	if err := s.validateUpload(upload, allowed); err != nil {
		return nil, err
	}

	key := storage.ObjectKey(string(ref.Kind), ownerID, filepath.Ext(upload.Filename))
	resp := &dto.MediaUploadResponse{Path: key, MimeType: upload.ContentType, Size: upload.Size}

	// старые объекты удаляются только после сохранения новой записи
	var replaced []string
	if upload.Target == UploadTargetCover {
		if err := s.saveCover(ctx, key, upload, resp); err != nil {
			return nil, err
		}
		replaced = append(replaced, base.CoverPath, base.ThumbPath)
		base.CoverPath = key
		base.ThumbPath = storage.ThumbKey(key)
	} else {
		if err := s.storage.Save(ctx, key, upload.Reader, upload.ContentType); err != nil {
			return nil, apperrors.ExternalServiceError(err, "upload", "Failed to store file")
		}
		switch v := item.(type) {
		case *models.Video:
			replaced = append(replaced, v.MediaPath)
			v.MediaPath, v.MimeType = key, upload.ContentType
		case *models.Audio:
			replaced = append(replaced, v.MediaPath)
			v.MediaPath, v.MimeType = key, upload.ContentType
		}
	}

	if err := s.contentRepo.SaveContent(db, item); err != nil {
		// Файл без записи в БД никому не нужен.
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			logger.CtxWithError(ctx, "failed to roll back stored file", delErr, "path", key)
		}
		return nil, handleContentError(err)
	}
	s.removeReplaced(ctx, replaced, key)

	resp.URL, err = s.mediaURL(ctx, key, base.IsPremium && upload.Target == UploadTargetMedia)
	if err != nil {
		logger.CtxWithError(ctx, "media url failed", err, "path", key)
	}
	return resp, nil
}

// removeReplaced is best-effort: a leftover object costs storage, not correctness.
func (s *contentService) removeReplaced(ctx context.Context, keys []string, current string) {
	for _, old := range keys {
		if old == "" || old == current || old == storage.ThumbKey(current) {
			continue
		}
		if err := s.storage.Delete(ctx, old); err != nil {
			logger.CtxWithError(ctx, "failed to delete replaced file", err, "path", old)
		}
	}
}

func (s *contentService) saveCover(ctx context.Context, key string, upload *dto.MediaUpload, resp *dto.MediaUploadResponse) error {
	var raw bytes.Buffer
	if _, err := raw.ReadFrom(upload.Reader); err != nil {
		return apperrors.NewBadRequestError("Failed to read upload")
	}

	thumb, err := s.processor.Resize(bytes.NewReader(raw.Bytes()), imageprocessor.SizeThumbnail)
	if err != nil {
		return apperrors.ErrInvalidFileType
	}
	if err := s.storage.Save(ctx, key, bytes.NewReader(raw.Bytes()), upload.ContentType); err != nil {
		return apperrors.ExternalServiceError(err, "upload", "Failed to store file")
	}
	thumbKey := storage.ThumbKey(key)
	if err := s.storage.Save(ctx, thumbKey, bytes.NewReader(thumb.Data), "image/jpeg"); err != nil {
		logger.CtxWithError(ctx, "thumbnail save failed", err, "path", thumbKey)
		return nil
	}
	resp.ThumbURL, _ = s.storage.GetURL(ctx, thumbKey)
	return nil
}

func (s *contentService) validateUpload(upload *dto.MediaUpload, allowed []string) error {
	if s.config.MaxUploadSize > 0 && upload.Size > s.config.MaxUploadSize {
		return apperrors.ErrFileTooLarge
	}
	contentType := strings.ToLower(strings.TrimSpace(upload.ContentType))
	for _, t := range allowed {
		if contentType == t {
			return nil
		}
	}
	return apperrors.ErrInvalidFileType
}

// mediaURL: premium media only gets short-lived signed links.
func (s *contentService) mediaURL(ctx context.Context, key string, premium bool) (string, error) {
	if key == "" {
		return "", nil
	}
	if premium {
		return s.storage.GetSignedURL(ctx, key, s.config.SignedURLTTL)
	}
	return s.storage.GetURL(ctx, key)
}

// ---------------- Helpers ----------------

func (s *contentService) buildResponse(ctx context.Context, item models.ContentItem, decision *dto.AccessDecision) *dto.ContentResponse {
	base := item.Base()
	resp := &dto.ContentResponse{
		ContentMeta: item.Meta(),
		Slug:        base.Slug,
		Description: base.Description,
		PublishedAt: base.PublishedAt,
		Access:      decision,
	}
	if len(base.Tags) > 0 {
		_ = json.Unmarshal(base.Tags, &resp.Tags)
	}

	var mediaPath string
	switch v := item.(type) {
	case *models.Article:
		resp.Body = v.Body
	case *models.Video:
		mediaPath, resp.DurationSeconds = v.MediaPath, v.DurationSeconds
	case *models.Audio:
		mediaPath, resp.DurationSeconds = v.MediaPath, v.DurationSeconds
	}

	if s.storage == nil {
		return resp
	}
	var err error
	if resp.MediaURL, err = s.mediaURL(ctx, mediaPath, base.IsPremium); err != nil {
		logger.CtxWithError(ctx, "media url failed", err, "path", mediaPath)
	}
	if resp.CoverURL, err = s.mediaURL(ctx, base.CoverPath, false); err != nil {
		logger.CtxWithError(ctx, "cover url failed", err, "path", base.CoverPath)
	}
	if resp.ThumbURL, err = s.mediaURL(ctx, base.ThumbPath, false); err != nil {
		logger.CtxWithError(ctx, "thumb url failed", err, "path", base.ThumbPath)
	}
	return resp
}

// makeSlug: "My First Video" -> "my-first-video-1a2b3c4d".
func makeSlug(title string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	base := slug.Make(title)
	if base == "" {
		return suffix
	}
	return base + "-" + suffix
}

func tagsJSON(tags []string) datatypes.JSON {
	raw, _ := json.Marshal(tags)
	return datatypes.JSON(raw)
}
