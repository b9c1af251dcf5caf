package dto

import (
	"time"

	"creatorhub_backend/internal/models"
)

// RegisterRequest - запрос регистрации. Роль admin через API не выдаётся.
type RegisterRequest struct {
	Email       string          `json:"email" validate:"required,email"`
	Password    string          `json:"password" validate:"required,min=8,max=72"`
	DisplayName string          `json:"display_name" validate:"required,max=120"`
	Role        models.UserRole `json:"role" validate:"required,is-user-role"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateWalletRequest sets where a creator gets paid.
type UpdateWalletRequest struct {
	WalletAddress   string `json:"wallet_address" validate:"omitempty,max=128"`
	PayoutAccountID string `json:"payout_account_id" validate:"omitempty,max=128"`
}

type AuthResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        UserDTO   `json:"user"`
}

type UserDTO struct {
	ID            string          `json:"id"`
	Email         string          `json:"email"`
	DisplayName   string          `json:"display_name"`
	Role          models.UserRole `json:"role"`
	WalletAddress string          `json:"wallet_address,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

func NewUserDTO(u *models.User) UserDTO {
	return UserDTO{
		ID:            u.ID,
		Email:         u.Email,
		DisplayName:   u.DisplayName,
		Role:          u.Role,
		WalletAddress: u.WalletAddress,
		CreatedAt:     u.CreatedAt,
	}
}
