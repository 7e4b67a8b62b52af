package services

import (
	"fmt"
	"time"

	"accountd/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

// SessionService подписывает сессионные токены. Секрет и срок жизни
// задаются конфигом при создании, а не читаются на каждый запрос.
type SessionService struct {
	secret []byte
	ttl    time.Duration
}

func NewSessionService(cfg *config.Config) *SessionService {
	return &SessionService{
		secret: []byte(cfg.JWTSecret),
		ttl:    cfg.JWTExpiry(),
	}
}

// IssueToken создаёт JWT с единственным прикладным клеймом user_id.
// Состояние сессии на сервере не хранится.
func (s *SessionService) IssueToken(userID int64) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     now.Add(s.ttl).Unix(),
		"iat":     now.Unix(), // issued at — доп. уникальность
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ParseToken проверяет подпись и срок действия, возвращает user_id.
func (s *SessionService) ParseToken(tokenString string) (int64, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, fmt.Errorf("invalid token: %w", err)
	}

	userID, ok := claims["user_id"].(float64)
	if !ok {
		return 0, fmt.Errorf("invalid token payload")
	}
	return int64(userID), nil
}
