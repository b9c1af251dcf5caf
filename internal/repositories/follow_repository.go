package repositories

import (
	"errors"

	"creatorhub_backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrFollowNotFound = errors.New("follow not found")

type FollowRepository interface {
	Upsert(db *gorm.DB, follow *models.Follow) error
	SetStatus(db *gorm.DB, subscriberID, creatorID string, status models.FollowStatus) (int64, error)
	Find(db *gorm.DB, subscriberID, creatorID string) (*models.Follow, error)
	FindActiveFollowerIDs(db *gorm.DB, creatorID string) ([]string, error)
	FindFollowing(db *gorm.DB, subscriberID string) ([]models.Follow, error)
}

type FollowRepositoryImpl struct{}

func NewFollowRepository() FollowRepository {
	return &FollowRepositoryImpl{}
}

// Upsert inserts the pair or, when it already exists, overwrites its status.
func (r *FollowRepositoryImpl) Upsert(db *gorm.DB, follow *models.Follow) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "subscriber_id"}, {Name: "creator_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
	}).Create(follow).Error
}

func (r *FollowRepositoryImpl) SetStatus(db *gorm.DB, subscriberID, creatorID string, status models.FollowStatus) (int64, error) {
	result := db.Model(&models.Follow{}).
		Where("subscriber_id = ? AND creator_id = ? AND status <> ?", subscriberID, creatorID, status).
		Update("status", status)
	return result.RowsAffected, result.Error
}

func (r *FollowRepositoryImpl) Find(db *gorm.DB, subscriberID, creatorID string) (*models.Follow, error) {
	var follow models.Follow
	err := db.Where("subscriber_id = ? AND creator_id = ?", subscriberID, creatorID).First(&follow).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFollowNotFound
		}
		return nil, err
	}
	return &follow, nil
}

func (r *FollowRepositoryImpl) FindActiveFollowerIDs(db *gorm.DB, creatorID string) ([]string, error) {
	var ids []string
	err := db.Model(&models.Follow{}).
		Where("creator_id = ? AND status = ?", creatorID, models.FollowStatusActive).
		Pluck("subscriber_id", &ids).Error
	return ids, err
}

func (r *FollowRepositoryImpl) FindFollowing(db *gorm.DB, subscriberID string) ([]models.Follow, error) {
	var follows []models.Follow
	err := db.Where("subscriber_id = ? AND status = ?", subscriberID, models.FollowStatusActive).
		Order("updated_at DESC").
		Find(&follows).Error
	return follows, err
}
