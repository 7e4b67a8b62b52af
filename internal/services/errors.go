package services

import "errors"

// Доменные ошибки. Хендлеры сопоставляют их со статус-кодами через errors.Is.
var (
	ErrEmailTaken         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidToken       = errors.New("token is invalid or has expired")
	ErrWrongPassword      = errors.New("current password is wrong")
	ErrSamePassword       = errors.New("new password must differ from the current one")
)
