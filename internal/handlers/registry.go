package handlers

// AppHandlers содержит все хэндлеры приложения.
type AppHandlers struct {
	AuthHandler         *AuthHandler
	ContentHandler      *ContentHandler
	SubscriptionHandler *SubscriptionHandler
	NotificationHandler *NotificationHandler
	AdminHandler        *AdminHandler
	// FileHandler is nil unless storage is local.
	FileHandler *FileHandler
}
