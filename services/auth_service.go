package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/bolao-system/models"
	"github.com/Dosada05/bolao-system/repositories"
	"github.com/Dosada05/bolao-system/utils"
)

const (
	minPasswordLength = 8
	defaultTokenTTL   = 24 * time.Hour
)

type AuthService interface {
	Login(ctx context.Context, input LoginInput) (*models.User, string, error)
	CreateUser(ctx context.Context, input CreateUserInput) (*models.User, error)
	// EnsureAdmin создаёт первого администратора, если в базе нет ни одного.
	EnsureAdmin(ctx context.Context, email, password string) (bool, error)
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type CreateUserInput struct {
	Name     string          `json:"name" validate:"required,max=120"`
	Email    string          `json:"email" validate:"required,email"`
	Password string          `json:"password" validate:"required"`
	Phone    *string         `json:"phone,omitempty" validate:"omitempty,max=40"`
	Role     models.UserRole `json:"role" validate:"omitempty,oneof=admin user"`
}

type authService struct {
	userRepo  repositories.UserRepository
	jwtSecret []byte
	tokenTTL  time.Duration
	logger    *slog.Logger
}

func NewAuthService(userRepo repositories.UserRepository, jwtSecret []byte, logger *slog.Logger) AuthService {
	return &authService{
		userRepo:  userRepo,
		jwtSecret: jwtSecret,
		tokenTTL:  defaultTokenTTL,
		logger:    logger,
	}
}

func (s *authService) Login(ctx context.Context, input LoginInput) (*models.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to find user by email: %w", err)
	}

	if !utils.CheckPasswordHash(input.Password, user.PasswordHash) {
		s.logger.WarnContext(ctx, "Failed login attempt", slog.Int("user_id", user.ID))
		return nil, "", ErrInvalidCredentials
	}

	token, err := utils.GenerateJWT(user.ID, string(user.Role), s.jwtSecret, s.tokenTTL)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}
	user.PasswordHash = ""
	return user, token, nil
}

func (s *authService) CreateUser(ctx context.Context, input CreateUserInput) (*models.User, error) {
	name := utils.NormalizeName(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if name == "" || email == "" {
		return nil, ErrValidationFailed
	}
	if len(input.Password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}
	role := input.Role
	if role == "" {
		role = models.RoleAdmin
	}
	if role != models.RoleAdmin && role != models.RoleUser {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidationFailed, role)
	}

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("ошибка хеширования пароля: %w", err)
	}
	user := &models.User{
		Name:         name,
		Email:        email,
		Phone:        input.Phone,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrUserEmailConflict) {
			return nil, ErrUserEmailConflict
		}
		return nil, fmt.Errorf("ошибка создания пользователя: %w", err)
	}
	user.PasswordHash = ""
	s.logger.InfoContext(ctx, "User created", slog.Int("user_id", user.ID), slog.String("role", string(role)))
	return user, nil
}

func (s *authService) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	count, err := s.userRepo.CountByRole(ctx, models.RoleAdmin)
	if err != nil {
		return false, fmt.Errorf("failed to count admins: %w", err)
	}
	if count > 0 {
		return false, nil
	}
	if email == "" || password == "" {
		s.logger.WarnContext(ctx, "No admin user exists and bootstrap credentials are not set")
		return false, nil
	}
	if _, err := s.CreateUser(ctx, CreateUserInput{
		Name:     "Admin",
		Email:    email,
		Password: password,
		Role:     models.RoleAdmin,
	}); err != nil {
		return false, err
	}
	return true, nil
}
