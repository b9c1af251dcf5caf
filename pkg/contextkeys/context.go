package contextkeys

type contextKey string

// DBContextKey - ключ для *gorm.DB (пул или транзакция) в gin/context
const DBContextKey = contextKey("db")

// UserIDKey and RoleKey are the gin context keys filled by the auth middleware.
const (
	UserIDKey = "userID"
	RoleKey   = "role"
)
