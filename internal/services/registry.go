package services

import (
	"creatorhub_backend/internal/email"
	"creatorhub_backend/internal/imageprocessor"
	"creatorhub_backend/internal/payments"
	"creatorhub_backend/internal/repositories"
	"creatorhub_backend/internal/storage"
)

// Repositories - все репозитории приложения.
type Repositories struct {
	Users         repositories.UserRepository
	Content       repositories.ContentRepository
	Subscriptions repositories.SubscriptionRepository
	Follows       repositories.FollowRepository
	Payments      repositories.PaymentRepository
	Notifications repositories.NotificationRepository
}

func NewRepositories() *Repositories {
	return &Repositories{
		Users:         repositories.NewUserRepository(),
		Content:       repositories.NewContentRepository(),
		Subscriptions: repositories.NewSubscriptionRepository(),
		Follows:       repositories.NewFollowRepository(),
		Payments:      repositories.NewPaymentRepository(),
		Notifications: repositories.NewNotificationRepository(),
	}
}

// Dependencies are the external collaborators. Pusher and Mailer may be nil.
type Dependencies struct {
	Storage   storage.Storage
	Processor *imageprocessor.Processor
	Gateway   payments.Gateway
	Pusher    Pusher
	Mailer    email.Provider
	Content   ContentConfig
}

// ServiceContainer содержит все сервисы приложения.
type ServiceContainer struct {
	AuthService         AuthService
	AccessResolver      AccessResolver
	SubscriptionService SubscriptionService
	NotificationService NotificationService
	ContentService      ContentService
	PaymentService      PaymentService
}

func NewServiceContainer(repos *Repositories, deps Dependencies) *ServiceContainer {
	notifications := NewNotificationService(
		repos.Notifications,
		repos.Subscriptions,
		repos.Follows,
		repos.Users,
		deps.Pusher,
		deps.Mailer,
	)
	resolver := NewAccessResolver(repos.Content, repos.Subscriptions)
	subscriptions := NewSubscriptionService(
		repos.Subscriptions,
		repos.Follows,
		repos.Payments,
		repos.Users,
		notifications,
	)

	return &ServiceContainer{
		AuthService:         NewAuthService(repos.Users),
		AccessResolver:      resolver,
		SubscriptionService: subscriptions,
		NotificationService: notifications,
		ContentService: NewContentService(
			repos.Content,
			repos.Users,
			resolver,
			notifications,
			deps.Storage,
			deps.Processor,
			deps.Content,
		),
		PaymentService: NewPaymentService(deps.Gateway, subscriptions),
	}
}
