package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"accountd/internal/logger"
	"accountd/internal/models"
	"accountd/internal/utils"

	"go.uber.org/zap"
)

type PasswordService struct {
	repo        UserRepo
	emailSender EmailSender
	bcryptCost  int
	tokenTTL    time.Duration
}

type EmailSender interface {
	SendPasswordReset(ctx context.Context, to, token string, expiresAt time.Time) error
}

func NewPasswordService(repo UserRepo, emailSender EmailSender, bcryptCost int, tokenTTL time.Duration) *PasswordService {
	return &PasswordService{
		repo:        repo,
		emailSender: emailSender,
		bcryptCost:  bcryptCost,
		tokenTTL:    tokenTTL,
	}
}

// hashToken — детерминированный односторонний хеш токена сброса.
// В базе лежит только он, открытый токен уходит пользователю и больше нигде не появляется.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// RequestReset генерирует одноразовый токен, сохраняет его хеш со сроком действия
// и отдаёт открытый токен почтовому коллаборатору. При сбое доставки оба поля
// откатываются, чтобы не оставлять токен, который никто не получил.
func (s *PasswordService) RequestReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	logger.Log.Info("Запрос на сброс пароля (service)", zap.String("email", email))

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		logger.Log.Warn("Пользователь по email не найден при сбросе (service)", zap.Error(err))
		return ErrUserNotFound
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		logger.Log.Error("Ошибка генерации токена сброса (service)", zap.Error(err), zap.Int64("user_id", user.ID))
		return err
	}
	token := base64.RawURLEncoding.EncodeToString(raw)

	expires := time.Now().Add(s.tokenTTL)
	if err := s.repo.SetResetToken(ctx, user.ID, hashToken(token), expires); err != nil {
		logger.Log.Error("Ошибка сохранения токена сброса (service)", zap.Error(err), zap.Int64("user_id", user.ID))
		return err
	}

	if err := s.emailSender.SendPasswordReset(ctx, user.Email, token, expires); err != nil {
		logger.Log.Error("Ошибка отправки письма сброса, откатываем токен (service)",
			zap.Int64("user_id", user.ID),
			zap.Error(err),
		)
		if clearErr := s.repo.ClearResetToken(ctx, user.ID); clearErr != nil {
			logger.Log.Error("Не удалось откатить токен сброса (service)", zap.Error(clearErr), zap.Int64("user_id", user.ID))
		}
		return fmt.Errorf("send reset email: %w", err)
	}

	logger.Log.Info("Токен сброса выдан (service)",
		zap.Int64("user_id", user.ID),
		zap.Time("expires_at", expires),
	)
	return nil
}

// ResetPassword подтверждает токен и устанавливает новый пароль.
// Применение — один условный UPDATE: совпадение хеша и непросроченность
// проверяются там же, где очищаются оба поля.
func (s *PasswordService) ResetPassword(ctx context.Context, token, newPassword string) (*models.User, error) {
	logger.Log.Info("Попытка сброса пароля по токену (service)")

	user, err := s.repo.GetByValidResetToken(ctx, hashToken(token))
	if err != nil {
		// Не различаем «нет такого токена» и «токен истёк»
		logger.Log.Warn("Неверный или просроченный токен сброса (service)", zap.Error(err))
		return nil, ErrInvalidToken
	}

	pwHash, err := utils.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		logger.Log.Error("Ошибка хеширования нового пароля (service)", zap.Error(err), zap.Int64("user_id", user.ID))
		return nil, err
	}

	ok, err := s.repo.ConsumeResetToken(ctx, user.ID, hashToken(token), pwHash)
	if err != nil {
		logger.Log.Error("Ошибка применения токена сброса (service)", zap.Error(err), zap.Int64("user_id", user.ID))
		return nil, err
	}
	if !ok {
		logger.Log.Warn("Токен сброса израсходован или истёк (service)", zap.Int64("user_id", user.ID))
		return nil, ErrInvalidToken
	}

	logger.Log.Info("Пароль успешно сброшен (service)", zap.Int64("user_id", user.ID))
	return user, nil
}

// ChangePassword меняет пароль для авторизованного пользователя по текущему паролю.
// Новый пароль, совпадающий с текущим, отклоняется.
func (s *PasswordService) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	logger.Log.Info("Смена пароля (service)", zap.Int64("user_id", userID))

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		logger.Log.Warn("Пользователь не найден при смене пароля (service)", zap.Int64("user_id", userID), zap.Error(err))
		return ErrUserNotFound
	}

	if !utils.CheckPasswordHash(currentPassword, user.PasswordHash) {
		logger.Log.Warn("Текущий пароль не совпадает (service)", zap.Int64("user_id", userID))
		return ErrWrongPassword
	}

	if utils.CheckPasswordHash(newPassword, user.PasswordHash) {
		logger.Log.Warn("Новый пароль совпадает с текущим (service)", zap.Int64("user_id", userID))
		return ErrSamePassword
	}

	newHash, err := utils.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		logger.Log.Error("Ошибка хеширования нового пароля (service)", zap.Error(err), zap.Int64("user_id", userID))
		return err
	}

	if err := s.repo.UpdatePassword(ctx, userID, newHash); err != nil {
		logger.Log.Error("Ошибка обновления пароля (service)", zap.Error(err), zap.Int64("user_id", userID))
		return err
	}

	logger.Log.Info("Пароль успешно изменён (service)", zap.Int64("user_id", userID))
	return nil
}
