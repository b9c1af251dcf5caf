package repositories

import (
	"errors"
	"time"

	"creatorhub_backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrNotificationNotFound = errors.New("notification not found")

type NotificationCriteria struct {
	UnreadOnly bool
	Type       string
	Page       int
	PageSize   int
}

type NotificationRepository interface {
	// Create reports false when a row with the same dedupe key already exists.
	Create(db *gorm.DB, notification *models.Notification) (bool, error)
	FindByUser(db *gorm.DB, userID string, criteria NotificationCriteria) ([]models.Notification, int64, error)
	CountUnread(db *gorm.DB, userID string) (int64, error)
	MarkAsRead(db *gorm.DB, userID, notificationID string, at time.Time) error
	MarkAllAsRead(db *gorm.DB, userID string, at time.Time) (int64, error)
}

type NotificationRepositoryImpl struct{}

func NewNotificationRepository() NotificationRepository {
	return &NotificationRepositoryImpl{}
}

func (r *NotificationRepositoryImpl) Create(db *gorm.DB, notification *models.Notification) (bool, error) {
	if notification.DedupeKey != nil {
		db = db.Clauses(clause.OnConflict{DoNothing: true})
	}
	result := db.Create(notification)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *NotificationRepositoryImpl) FindByUser(db *gorm.DB, userID string, criteria NotificationCriteria) ([]models.Notification, int64, error) {
	query := db.Model(&models.Notification{}).Where("user_id = ?", userID)
	if criteria.UnreadOnly {
		query = query.Where("is_read = ?", false)
	}
	if criteria.Type != "" {
		query = query.Where("type = ?", criteria.Type)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset, limit := paginate(criteria.Page, criteria.PageSize)
	var notifications []models.Notification
	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&notifications).Error
	return notifications, total, err
}

func (r *NotificationRepositoryImpl) CountUnread(db *gorm.DB, userID string) (int64, error) {
	var count int64
	err := db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// MarkAsRead is scoped to the owner: someone else's id looks like a missing row.
func (r *NotificationRepositoryImpl) MarkAsRead(db *gorm.DB, userID, notificationID string, at time.Time) error {
	result := db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Updates(map[string]interface{}{"is_read": true, "read_at": at})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (r *NotificationRepositoryImpl) MarkAllAsRead(db *gorm.DB, userID string, at time.Time) (int64, error) {
	result := db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": at})
	return result.RowsAffected, result.Error
}
