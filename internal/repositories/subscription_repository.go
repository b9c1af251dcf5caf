package repositories

import (
	"errors"
	"time"

	"creatorhub_backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrSubscriptionNotFound     = errors.New("subscription not found")
	ErrActiveSubscriptionExists = errors.New("active subscription already exists for this pair")
)

type SubscriptionRepository interface {
	Create(db *gorm.DB, sub *models.Subscription) error
	FindByID(db *gorm.DB, id string) (*models.Subscription, error)
	FindByIDForUpdate(db *gorm.DB, id string) (*models.Subscription, error)
	FindActive(db *gorm.DB, subscriberID, creatorID string) (*models.Subscription, error)
	FindBySubscriber(db *gorm.DB, subscriberID string) ([]models.Subscription, error)
	FindByCreator(db *gorm.DB, creatorID string, status models.SubscriptionStatus, page, pageSize int) ([]models.Subscription, int64, error)
	FindActiveSubscriberIDs(db *gorm.DB, creatorID string) ([]string, error)
	FindExpiring(db *gorm.DB, from, to time.Time) ([]models.Subscription, error)

	UpdatePeriod(db *gorm.DB, sub *models.Subscription) error
	CancelActive(db *gorm.DB, subscriberID, creatorID string, at time.Time) (int64, error)
	MarkExpired(db *gorm.DB, id string) error
	ExpireOverdue(db *gorm.DB, now time.Time) (int64, error)
}

type SubscriptionRepositoryImpl struct{}

func NewSubscriptionRepository() SubscriptionRepository {
	return &SubscriptionRepositoryImpl{}
}

// inactive clears the pair slot together with the status change.
func inactive(status models.SubscriptionStatus) map[string]interface{} {
	return map[string]interface{}{
		"status":          status,
		"active_pair_key": nil,
	}
}

func (r *SubscriptionRepositoryImpl) Create(db *gorm.DB, sub *models.Subscription) error {
	if err := db.Create(sub).Error; err != nil {
		if IsUniqueViolation(err) {
			return ErrActiveSubscriptionExists
		}
		return err
	}
	return nil
}

func (r *SubscriptionRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.Subscription, error) {
	var sub models.Subscription
	if err := db.First(&sub, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return &sub, nil
}

// FindByIDForUpdate row-locks the subscription for the rest of the transaction.
func (r *SubscriptionRepositoryImpl) FindByIDForUpdate(db *gorm.DB, id string) (*models.Subscription, error) {
	return r.FindByID(db.Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *SubscriptionRepositoryImpl) FindActive(db *gorm.DB, subscriberID, creatorID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := db.Where("subscriber_id = ? AND creator_id = ? AND status = ?",
		subscriberID, creatorID, models.SubscriptionStatusActive).
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return &sub, nil
}

func (r *SubscriptionRepositoryImpl) FindBySubscriber(db *gorm.DB, subscriberID string) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := db.Where("subscriber_id = ?", subscriberID).
		Order("created_at DESC").
		Find(&subs).Error
	return subs, err
}

func (r *SubscriptionRepositoryImpl) FindByCreator(db *gorm.DB, creatorID string, status models.SubscriptionStatus, page, pageSize int) ([]models.Subscription, int64, error) {
	query := db.Model(&models.Subscription{}).Where("creator_id = ?", creatorID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset, limit := paginate(page, pageSize)
	var subs []models.Subscription
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&subs).Error; err != nil {
		return nil, 0, err
	}
	return subs, total, nil
}

func (r *SubscriptionRepositoryImpl) FindActiveSubscriberIDs(db *gorm.DB, creatorID string) ([]string, error) {
	var ids []string
	err := db.Model(&models.Subscription{}).
		Where("creator_id = ? AND status = ?", creatorID, models.SubscriptionStatusActive).
		Distinct().
		Pluck("subscriber_id", &ids).Error
	return ids, err
}

// FindExpiring returns active rows whose expiry falls in [from, to].
func (r *SubscriptionRepositoryImpl) FindExpiring(db *gorm.DB, from, to time.Time) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := db.Where("status = ? AND expires_at >= ? AND expires_at <= ?",
		models.SubscriptionStatusActive, from, to).
		Order("expires_at ASC").
		Find(&subs).Error
	return subs, err
}

func (r *SubscriptionRepositoryImpl) UpdatePeriod(db *gorm.DB, sub *models.Subscription) error {
	result := db.Model(sub).
		Select("status", "amount", "currency", "current_period_start", "expires_at", "cancelled_at", "active_pair_key", "updated_at").
		Updates(sub)
	if result.Error != nil {
		if IsUniqueViolation(result.Error) {
			return ErrActiveSubscriptionExists
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

// CancelActive returns the number of rows moved to cancelled; zero is not an error.
func (r *SubscriptionRepositoryImpl) CancelActive(db *gorm.DB, subscriberID, creatorID string, at time.Time) (int64, error) {
	updates := inactive(models.SubscriptionStatusCancelled)
	updates["cancelled_at"] = at

	result := db.Model(&models.Subscription{}).
		Where("subscriber_id = ? AND creator_id = ? AND status = ?",
			subscriberID, creatorID, models.SubscriptionStatusActive).
		Updates(updates)
	return result.RowsAffected, result.Error
}

func (r *SubscriptionRepositoryImpl) MarkExpired(db *gorm.DB, id string) error {
	result := db.Model(&models.Subscription{}).
		Where("id = ? AND status = ?", id, models.SubscriptionStatusActive).
		Updates(inactive(models.SubscriptionStatusExpired))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

func (r *SubscriptionRepositoryImpl) ExpireOverdue(db *gorm.DB, now time.Time) (int64, error) {
	result := db.Model(&models.Subscription{}).
		Where("status = ? AND expires_at < ?", models.SubscriptionStatusActive, now).
		Updates(inactive(models.SubscriptionStatusExpired))
	return result.RowsAffected, result.Error
}
