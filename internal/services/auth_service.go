package services

import (
	"context"
	"errors"
	"strings"

	"creatorhub_backend/internal/auth"
	"creatorhub_backend/internal/logger"
	"creatorhub_backend/internal/models"
	"creatorhub_backend/internal/repositories"
	"creatorhub_backend/internal/services/dto"
	"creatorhub_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type AuthService interface {
	Register(ctx context.Context, db *gorm.DB, req *dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, db *gorm.DB, req *dto.LoginRequest) (*dto.AuthResponse, error)
	Me(ctx context.Context, db *gorm.DB, userID string) (*dto.UserDTO, error)
	UpdateWallet(ctx context.Context, db *gorm.DB, userID string, req *dto.UpdateWalletRequest) error
}

type authService struct {
	userRepo repositories.UserRepository
}

func NewAuthService(userRepo repositories.UserRepository) AuthService {
	return &authService{userRepo: userRepo}
}

// Register - регистрация. Администраторы создаются только вручную.
func (s *authService) Register(ctx context.Context, db *gorm.DB, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	if req.Role != models.UserRoleCreator && req.Role != models.UserRoleConsumer {
		return nil, apperrors.Validation("auth", "Role must be creator or consumer")
	}
	if err := auth.ValidatePassword(req.Password); err != nil {
		return nil, apperrors.Validation("auth", err.Error())
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	user := &models.User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		DisplayName:  req.DisplayName,
		Role:         req.Role,
	}
	if err := s.userRepo.Create(db, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateEmail) {
			return nil, apperrors.ErrEmailAlreadyExists
		}
		return nil, apperrors.StoreError(err)
	}

	logger.CtxInfo(ctx, "user registered", "user_id", user.ID, "role", user.Role)
	return issueToken(user)
}

// Login - аутентификация пользователя
func (s *authService) Login(ctx context.Context, db *gorm.DB, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.userRepo.FindByEmail(db, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.StoreError(err)
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		logger.CtxWarn(ctx, "failed login attempt", "user_id", user.ID)
		return nil, apperrors.ErrInvalidCredentials
	}
	return issueToken(user)
}

func (s *authService) Me(ctx context.Context, db *gorm.DB, userID string) (*dto.UserDTO, error) {
	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.NotFound("user", "User not found")
		}
		return nil, apperrors.StoreError(err)
	}
	out := dto.NewUserDTO(user)
	return &out, nil
}

func (s *authService) UpdateWallet(ctx context.Context, db *gorm.DB, userID string, req *dto.UpdateWalletRequest) error {
	if err := s.userRepo.UpdateWallet(db, userID, req.WalletAddress, req.PayoutAccountID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return apperrors.NotFound("user", "User not found")
		}
		return apperrors.StoreError(err)
	}
	return nil
}

func issueToken(user *models.User) (*dto.AuthResponse, error) {
	token, expiresAt, err := auth.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return &dto.AuthResponse{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		User:        dto.NewUserDTO(user),
	}, nil
}
