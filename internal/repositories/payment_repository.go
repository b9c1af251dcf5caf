package repositories

import (
	"errors"

	"creatorhub_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrPaymentNotFound         = errors.New("payment not found")
	ErrDuplicateTransactionRef = errors.New("transaction reference already recorded")
)

type PaymentRepository interface {
	Create(db *gorm.DB, payment *models.SubscriptionPayment) error
	FindBySubscription(db *gorm.DB, subscriptionID string) ([]models.SubscriptionPayment, error)
	FindByTransactionRef(db *gorm.DB, ref string) (*models.SubscriptionPayment, error)
}

type PaymentRepositoryImpl struct{}

func NewPaymentRepository() PaymentRepository {
	return &PaymentRepositoryImpl{}
}

func (r *PaymentRepositoryImpl) Create(db *gorm.DB, payment *models.SubscriptionPayment) error {
	if err := db.Create(payment).Error; err != nil {
		if IsUniqueViolation(err) {
			return ErrDuplicateTransactionRef
		}
		return err
	}
	return nil
}

func (r *PaymentRepositoryImpl) FindBySubscription(db *gorm.DB, subscriptionID string) ([]models.SubscriptionPayment, error) {
	var payments []models.SubscriptionPayment
	err := db.Where("subscription_id = ?", subscriptionID).
		Order("created_at ASC").
		Find(&payments).Error
	return payments, err
}

func (r *PaymentRepositoryImpl) FindByTransactionRef(db *gorm.DB, ref string) (*models.SubscriptionPayment, error) {
	var payment models.SubscriptionPayment
	if err := db.Where("transaction_ref = ?", ref).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &payment, nil
}
