package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"accountd/internal/models"
	"accountd/internal/utils"
)

type mockEmailSender struct {
	sentTo    []string
	lastToken string
	fail      bool
}

func (m *mockEmailSender) SendPasswordReset(_ context.Context, to, token string, _ time.Time) error {
	if m.fail {
		return errors.New("smtp unavailable")
	}
	m.sentTo = append(m.sentTo, to)
	m.lastToken = token
	return nil
}

func newPasswordFixture(t *testing.T) (*mockUserRepo, *mockEmailSender, *PasswordService, *models.User) {
	t.Helper()
	repo := newMockUserRepo()
	sender := &mockEmailSender{}
	svc := NewPasswordService(repo, sender, testBcryptCost, 10*time.Minute)

	auth := NewAuthService(repo, testBcryptCost)
	user, err := auth.Register(context.Background(), &models.User{Email: "reset@x.com", Name: "Сброс"}, "Old!passw0rd")
	if err != nil {
		t.Fatalf("ошибка регистрации: %v", err)
	}
	return repo, sender, svc, user
}

func TestRequestReset(t *testing.T) {
	repo, sender, svc, user := newPasswordFixture(t)

	if err := svc.RequestReset(context.Background(), "reset@x.com"); err != nil {
		t.Fatalf("ошибка запроса сброса: %v", err)
	}

	stored := repo.users[user.ID]
	if stored.ResetTokenHash == nil || stored.ResetTokenExpiresAt == nil {
		t.Fatal("поля токена не заполнены вместе")
	}
	if !stored.ResetTokenExpiresAt.After(time.Now()) {
		t.Fatal("срок токена не в будущем")
	}
	if sender.lastToken == "" {
		t.Fatal("открытый токен не ушёл в доставку")
	}
	if *stored.ResetTokenHash == sender.lastToken {
		t.Fatal("в базе лежит открытый токен, а не хеш")
	}
	if hashToken(sender.lastToken) != *stored.ResetTokenHash {
		t.Fatal("хеш в базе не соответствует отправленному токену")
	}
}

func TestRequestReset_UnknownEmail(t *testing.T) {
	_, sender, svc, _ := newPasswordFixture(t)

	err := svc.RequestReset(context.Background(), "nobody@x.com")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("ожидалась ErrUserNotFound, получено: %v", err)
	}
	if len(sender.sentTo) != 0 {
		t.Fatal("письмо ушло несуществующему пользователю")
	}
}

func TestRequestReset_DeliveryFailureRollsBack(t *testing.T) {
	repo, sender, svc, user := newPasswordFixture(t)
	sender.fail = true

	err := svc.RequestReset(context.Background(), "reset@x.com")
	if err == nil {
		t.Fatal("ожидалась ошибка доставки")
	}

	stored := repo.users[user.ID]
	if stored.ResetTokenHash != nil || stored.ResetTokenExpiresAt != nil {
		t.Fatal("поля токена не откатились после сбоя доставки")
	}
}

func TestResetPassword_SingleUse(t *testing.T) {
	repo, sender, svc, user := newPasswordFixture(t)

	if err := svc.RequestReset(context.Background(), "reset@x.com"); err != nil {
		t.Fatalf("ошибка запроса сброса: %v", err)
	}
	token := sender.lastToken

	got, err := svc.ResetPassword(context.Background(), token, "New!passw0rd")
	if err != nil {
		t.Fatalf("ошибка сброса пароля: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("сброс вернул не того пользователя: %d", got.ID)
	}

	stored := repo.users[user.ID]
	if stored.ResetTokenHash != nil || stored.ResetTokenExpiresAt != nil {
		t.Fatal("поля токена не очищены после успешного сброса")
	}
	if !utils.CheckPasswordHash("New!passw0rd", stored.PasswordHash) {
		t.Fatal("новый пароль не сходится с хешем")
	}
	if utils.CheckPasswordHash("Old!passw0rd", stored.PasswordHash) {
		t.Fatal("старый пароль всё ещё подходит")
	}

	// Токен одноразовый
	if _, err := svc.ResetPassword(context.Background(), token, "Again!passw0rd"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("повторное использование токена: ожидалась ErrInvalidToken, получено: %v", err)
	}
}

func TestResetPassword_Expired(t *testing.T) {
	repo, sender, svc, user := newPasswordFixture(t)

	if err := svc.RequestReset(context.Background(), "reset@x.com"); err != nil {
		t.Fatalf("ошибка запроса сброса: %v", err)
	}

	// Сдвигаем срок в прошлое
	past := time.Now().Add(-time.Minute)
	repo.users[user.ID].ResetTokenExpiresAt = &past

	_, err := svc.ResetPassword(context.Background(), sender.lastToken, "New!passw0rd")
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("просроченный токен: ожидалась ErrInvalidToken, получено: %v", err)
	}
}

func TestResetPassword_GarbageToken(t *testing.T) {
	_, _, svc, _ := newPasswordFixture(t)

	_, err := svc.ResetPassword(context.Background(), "definitely-not-a-token", "New!passw0rd")
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("ожидалась ErrInvalidToken, получено: %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	repo, _, svc, user := newPasswordFixture(t)

	if err := svc.ChangePassword(context.Background(), user.ID, "Old!passw0rd", "New!passw0rd"); err != nil {
		t.Fatalf("ошибка смены пароля: %v", err)
	}
	if !utils.CheckPasswordHash("New!passw0rd", repo.users[user.ID].PasswordHash) {
		t.Fatal("новый пароль не сходится с хешем")
	}
}

func TestChangePassword_WrongCurrent(t *testing.T) {
	_, _, svc, user := newPasswordFixture(t)

	err := svc.ChangePassword(context.Background(), user.ID, "not-the-password", "New!passw0rd")
	if !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("ожидалась ErrWrongPassword, получено: %v", err)
	}
}

func TestChangePassword_SamePassword(t *testing.T) {
	_, _, svc, user := newPasswordFixture(t)

	err := svc.ChangePassword(context.Background(), user.ID, "Old!passw0rd", "Old!passw0rd")
	if !errors.Is(err, ErrSamePassword) {
		t.Fatalf("ожидалась ErrSamePassword, получено: %v", err)
	}
}
