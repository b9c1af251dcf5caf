package repositories

import (
	"errors"

	"creatorhub_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrContentNotFound    = errors.New("content not found")
	ErrUnknownContentKind = errors.New("unknown content kind")
)

// ContentRepository has one typed accessor per kind. FindContent / FindContentMeta
// dispatch on the kind enum so callers never pick a table by name.
type ContentRepository interface {
	CreateContent(db *gorm.DB, item models.ContentItem) error
	SaveContent(db *gorm.DB, item models.ContentItem) error

	FindArticle(db *gorm.DB, id string) (*models.Article, error)
	FindVideo(db *gorm.DB, id string) (*models.Video, error)
	FindAudio(db *gorm.DB, id string) (*models.Audio, error)

	FindContent(db *gorm.DB, kind models.ContentKind, id string) (models.ContentItem, error)
	FindContentMeta(db *gorm.DB, kind models.ContentKind, id string) (*models.ContentMeta, error)
	ListByOwner(db *gorm.DB, kind models.ContentKind, ownerID string, publishedOnly bool, page, pageSize int) ([]models.ContentMeta, int64, error)
}

type ContentRepositoryImpl struct{}

func NewContentRepository() ContentRepository {
	return &ContentRepositoryImpl{}
}

func (r *ContentRepositoryImpl) CreateContent(db *gorm.DB, item models.ContentItem) error {
	return db.Create(item).Error
}

func (r *ContentRepositoryImpl) SaveContent(db *gorm.DB, item models.ContentItem) error {
	result := db.Save(item)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrContentNotFound
	}
	return nil
}

func (r *ContentRepositoryImpl) FindArticle(db *gorm.DB, id string) (*models.Article, error) {
	return findContentByID[models.Article](db, id)
}

func (r *ContentRepositoryImpl) FindVideo(db *gorm.DB, id string) (*models.Video, error) {
	return findContentByID[models.Video](db, id)
}

func (r *ContentRepositoryImpl) FindAudio(db *gorm.DB, id string) (*models.Audio, error) {
	return findContentByID[models.Audio](db, id)
}

func (r *ContentRepositoryImpl) FindContent(db *gorm.DB, kind models.ContentKind, id string) (models.ContentItem, error) {
	var (
		item models.ContentItem
		err  error
	)
	switch kind {
	case models.ContentKindArticle:
		var a *models.Article
		a, err = r.FindArticle(db, id)
		item = a
	case models.ContentKindVideo:
		var v *models.Video
		v, err = r.FindVideo(db, id)
		item = v
	case models.ContentKindAudio:
		var a *models.Audio
		a, err = r.FindAudio(db, id)
		item = a
	default:
		return nil, ErrUnknownContentKind
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (r *ContentRepositoryImpl) FindContentMeta(db *gorm.DB, kind models.ContentKind, id string) (*models.ContentMeta, error) {
	item, err := r.FindContent(db, kind, id)
	if err != nil {
		return nil, err
	}
	meta := item.Meta()
	return &meta, nil
}

func (r *ContentRepositoryImpl) ListByOwner(db *gorm.DB, kind models.ContentKind, ownerID string, publishedOnly bool, page, pageSize int) ([]models.ContentMeta, int64, error) {
	switch kind {
	case models.ContentKindArticle:
		return listContentByOwner[models.Article](db, ownerID, publishedOnly, page, pageSize)
	case models.ContentKindVideo:
		return listContentByOwner[models.Video](db, ownerID, publishedOnly, page, pageSize)
	case models.ContentKindAudio:
		return listContentByOwner[models.Audio](db, ownerID, publishedOnly, page, pageSize)
	default:
		return nil, 0, ErrUnknownContentKind
	}
}

func findContentByID[T any](db *gorm.DB, id string) (*T, error) {
	var item T
	if err := db.First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContentNotFound
		}
		return nil, err
	}
	return &item, nil
}

func listContentByOwner[T any, PT interface {
	*T
	models.ContentItem
}](db *gorm.DB, ownerID string, publishedOnly bool, page, pageSize int) ([]models.ContentMeta, int64, error) {
	query := db.Model(new(T)).Where("owner_id = ?", ownerID)
	if publishedOnly {
		query = query.Where("is_published = ?", true)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset, limit := paginate(page, pageSize)
	var items []T
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return nil, 0, err
	}

	metas := make([]models.ContentMeta, 0, len(items))
	for i := range items {
		metas = append(metas, PT(&items[i]).Meta())
	}
	return metas, total, nil
}
