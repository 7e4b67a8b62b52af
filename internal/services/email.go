package services

import (
	"context"
	"fmt"
	"net/smtp"
	"time"

	"accountd/internal/config"
)

// EmailService — реальная доставка токена сброса. Токен уходит только адресату,
// в логи не попадает.
type EmailService struct {
	auth smtp.Auth
	from string
	host string
	port string
}

func NewEmailService(cfg *config.Config) *EmailService {
	auth := smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPHost)
	return &EmailService{
		auth: auth,
		from: cfg.MailFrom,
		host: cfg.SMTPHost,
		port: cfg.SMTPPort,
	}
}

func (s *EmailService) send(to []string, subject, body string) error {
	msg := []byte("Subject: " + subject + "\r\n" +
		"Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n" +
		body)

	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	return smtp.SendMail(addr, s.auth, s.from, to, msg)
}

func (s *EmailService) SendPasswordReset(_ context.Context, to, token string, expiresAt time.Time) error {
	body := fmt.Sprintf(
		"Your password reset token (valid until %s):\n\n%s\n\nIf you didn't request a reset, ignore this email.",
		expiresAt.UTC().Format(time.RFC3339),
		token,
	)
	return s.send([]string{to}, "Password reset", body)
}
