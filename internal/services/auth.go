package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"accountd/internal/logger"
	"accountd/internal/models"
	"accountd/internal/utils"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const defaultBio = "No bio yet."

type AuthService struct {
	repo       UserRepo
	bcryptCost int
}

func NewAuthService(repo UserRepo, bcryptCost int) *AuthService {
	return &AuthService{repo: repo, bcryptCost: bcryptCost}
}

type UserRepo interface {
	CreateUser(ctx context.Context, user *models.User) error
	IsEmailTaken(ctx context.Context, email string) (bool, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetAllUsers(ctx context.Context) ([]*models.User, error)
	UpdateUserFields(ctx context.Context, id int64, input *models.UpdateUserRequest) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	SetResetToken(ctx context.Context, id int64, tokenHash string, expiresAt time.Time) error
	ClearResetToken(ctx context.Context, id int64) error
	GetByValidResetToken(ctx context.Context, tokenHash string) (*models.User, error)
	ConsumeResetToken(ctx context.Context, id int64, tokenHash, passwordHash string) (bool, error)
	DeleteUserByID(ctx context.Context, id int64) (bool, error)
}

func (s *AuthService) Register(ctx context.Context, input *models.User, plainPassword string) (*models.User, error) {
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	logger.Log.Info("Регистрация пользователя (service)", zap.String("email", input.Email))

	if exists, err := s.repo.IsEmailTaken(ctx, input.Email); exists || err != nil {
		if err != nil {
			logger.Log.Error("Ошибка проверки email (service)", zap.Error(err))
			return nil, err
		}
		return nil, ErrEmailTaken
	}

	hashed, err := utils.HashPassword(plainPassword, s.bcryptCost)
	if err != nil {
		logger.Log.Error("Ошибка хеширования пароля (service)", zap.Error(err))
		return nil, err
	}
	input.PasswordHash = hashed

	if input.Bio == "" {
		input.Bio = defaultBio
	}

	if err := s.repo.CreateUser(ctx, input); err != nil {
		logger.Log.Error("Ошибка создания пользователя (service)", zap.Error(err))
		return nil, err
	}

	logger.Log.Info("Пользователь зарегистрирован (service)", zap.Int64("user_id", input.ID))
	return input, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	logger.Log.Info("Попытка входа (service)", zap.String("email", email))

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		logger.Log.Warn("Пользователь не найден (service)", zap.String("email", email), zap.Error(err))
		return nil, ErrInvalidCredentials
	}

	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		logger.Log.Warn("Неверный пароль (service)", zap.Int64("user_id", user.ID))
		return nil, ErrInvalidCredentials
	}

	logger.Log.Info("Вход выполнен (service)", zap.Int64("user_id", user.ID))
	return user, nil
}

func (s *AuthService) GetUsers(ctx context.Context) ([]*models.User, error) {
	return s.repo.GetAllUsers(ctx)
}

func (s *AuthService) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		logger.Log.Warn("Пользователь не найден по ID (service)", zap.Int64("user_id", id), zap.Error(err))
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// UpdateUser обновляет только профильные поля; пароль этим путём менять нельзя.
func (s *AuthService) UpdateUser(ctx context.Context, id int64, input *models.UpdateUserRequest) (*models.User, error) {
	logger.Log.Info("Обновление пользователя (service)", zap.Int64("user_id", id))

	if input.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*input.Email))
		input.Email = &email
		current, err := s.repo.GetUserByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if current.Email != email {
			if exists, err := s.repo.IsEmailTaken(ctx, email); exists || err != nil {
				if err != nil {
					return nil, err
				}
				return nil, ErrEmailTaken
			}
		}
	}

	if err := s.repo.UpdateUserFields(ctx, id, input); err != nil {
		logger.Log.Error("Ошибка при обновлении пользователя (service)", zap.Error(err), zap.Int64("user_id", id))
		return nil, err
	}
	return s.GetUserByID(ctx, id)
}

func (s *AuthService) DeleteUser(ctx context.Context, id int64) error {
	logger.Log.Info("Удаление пользователя (service)", zap.Int64("user_id", id))
	deleted, err := s.repo.DeleteUserByID(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrUserNotFound
	}
	return nil
}
