package services

import (
	"testing"

	"accountd/internal/config"
)

func newTestSessions() *SessionService {
	cfg := &config.Config{JWTSecret: "test-secret", JWTTTL: "15m"}
	return NewSessionService(cfg)
}

func TestIssueAndParseToken(t *testing.T) {
	sessions := newTestSessions()

	token, err := sessions.IssueToken(42)
	if err != nil {
		t.Fatalf("ошибка выдачи токена: %v", err)
	}
	if token == "" {
		t.Fatal("пустой токен")
	}

	userID, err := sessions.ParseToken(token)
	if err != nil {
		t.Fatalf("ошибка разбора токена: %v", err)
	}
	if userID != 42 {
		t.Fatalf("в токене не тот user_id: %d", userID)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	sessions := newTestSessions()
	other := NewSessionService(&config.Config{JWTSecret: "other-secret", JWTTTL: "15m"})

	token, err := sessions.IssueToken(7)
	if err != nil {
		t.Fatalf("ошибка выдачи токена: %v", err)
	}

	if _, err := other.ParseToken(token); err == nil {
		t.Fatal("токен с чужой подписью принят")
	}
}

func TestParseToken_Garbage(t *testing.T) {
	sessions := newTestSessions()
	if _, err := sessions.ParseToken("not.a.jwt"); err == nil {
		t.Fatal("мусорный токен принят")
	}
}
