package services

import (
	"context"
	"errors"
	"os"
	"testing"

	"accountd/internal/logger"
	"accountd/internal/models"
	"accountd/internal/utils"

	"go.uber.org/zap"
)

const testBcryptCost = 4 // минимальная стоимость, чтобы тесты не тормозили

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	os.Exit(m.Run())
}

func TestRegister(t *testing.T) {
	repo := newMockUserRepo()
	service := NewAuthService(repo, testBcryptCost)

	user := &models.User{
		Email: "test@example.com",
		Name:  "Тестовый Пользователь",
	}

	created, err := service.Register(context.Background(), user, "Secr3t!pass")
	if err != nil {
		t.Fatalf("ошибка регистрации: %v", err)
	}

	if created.PasswordHash == "" {
		t.Fatal("пароль не захеширован")
	}
	if created.PasswordHash == "Secr3t!pass" {
		t.Fatal("пароль сохранён открытым текстом")
	}
	if !utils.CheckPasswordHash("Secr3t!pass", created.PasswordHash) {
		t.Fatal("хеш не сходится с исходным паролем")
	}
	if created.Bio == "" {
		t.Fatal("пустое bio не заполнено дефолтом")
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	repo := newMockUserRepo()
	service := NewAuthService(repo, testBcryptCost)

	_, err := service.Register(context.Background(), &models.User{Email: "a@x.com", Name: "Первый"}, "Secr3t!pass")
	if err != nil {
		t.Fatalf("ошибка первой регистрации: %v", err)
	}

	_, err = service.Register(context.Background(), &models.User{Email: "a@x.com", Name: "Второй"}, "An0ther!pass")
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("ожидалась ErrEmailTaken, получено: %v", err)
	}
	if len(repo.users) != 1 {
		t.Fatalf("дубликат создал новую запись: %d пользователей", len(repo.users))
	}
}

func TestLogin_Success(t *testing.T) {
	repo := newMockUserRepo()
	service := NewAuthService(repo, testBcryptCost)

	if _, err := service.Register(context.Background(), &models.User{Email: "login@x.com", Name: "Логин"}, "Secr3t!pass"); err != nil {
		t.Fatalf("ошибка регистрации: %v", err)
	}

	user, err := service.Login(context.Background(), "login@x.com", "Secr3t!pass")
	if err != nil {
		t.Fatalf("ошибка логина: %v", err)
	}
	if user.ID == 0 {
		t.Fatal("после логина не вернулся пользователь")
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	repo := newMockUserRepo()
	service := NewAuthService(repo, testBcryptCost)

	if _, err := service.Register(context.Background(), &models.User{Email: "login@x.com", Name: "Логин"}, "Secr3t!pass"); err != nil {
		t.Fatalf("ошибка регистрации: %v", err)
	}

	_, err := service.Login(context.Background(), "login@x.com", "wrong-password")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("ожидалась ErrInvalidCredentials, получено: %v", err)
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	repo := newMockUserRepo()
	service := NewAuthService(repo, testBcryptCost)

	_, err := service.Login(context.Background(), "nobody@x.com", "whatever1")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("ожидалась ErrInvalidCredentials, получено: %v", err)
	}
}

func TestDeleteUser_AlreadyDeleted(t *testing.T) {
	repo := newMockUserRepo()
	service := NewAuthService(repo, testBcryptCost)

	created, err := service.Register(context.Background(), &models.User{Email: "gone@x.com", Name: "Уходящий"}, "Secr3t!pass")
	if err != nil {
		t.Fatalf("ошибка регистрации: %v", err)
	}

	if err := service.DeleteUser(context.Background(), created.ID); err != nil {
		t.Fatalf("ошибка удаления: %v", err)
	}

	err = service.DeleteUser(context.Background(), created.ID)
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("повторное удаление: ожидалась ErrUserNotFound, получено: %v", err)
	}
}

func TestUpdateUser_EmailConflict(t *testing.T) {
	repo := newMockUserRepo()
	service := NewAuthService(repo, testBcryptCost)

	_, err := service.Register(context.Background(), &models.User{Email: "first@x.com", Name: "Первый"}, "Secr3t!pass")
	if err != nil {
		t.Fatalf("ошибка регистрации: %v", err)
	}
	second, err := service.Register(context.Background(), &models.User{Email: "second@x.com", Name: "Второй"}, "Secr3t!pass")
	if err != nil {
		t.Fatalf("ошибка регистрации: %v", err)
	}

	taken := "first@x.com"
	_, err = service.UpdateUser(context.Background(), second.ID, &models.UpdateUserRequest{Email: &taken})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("ожидалась ErrEmailTaken, получено: %v", err)
	}
}
