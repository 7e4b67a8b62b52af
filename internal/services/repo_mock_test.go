package services

import (
	"context"
	"strings"
	"time"

	"accountd/internal/models"

	"github.com/jackc/pgx/v5"
)

// Мок-репозиторий (заглушка) — общий для тестов сервисов.
type mockUserRepo struct {
	users  map[int64]*models.User
	nextID int64
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[int64]*models.User)}
}

func (m *mockUserRepo) CreateUser(_ context.Context, user *models.User) error {
	m.nextID++
	user.ID = m.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *mockUserRepo) IsEmailTaken(_ context.Context, email string) (bool, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockUserRepo) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockUserRepo) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *u
	return &copied, nil
}

func (m *mockUserRepo) GetAllUsers(_ context.Context) ([]*models.User, error) {
	var out []*models.User
	for _, u := range m.users {
		copied := *u
		out = append(out, &copied)
	}
	return out, nil
}

func (m *mockUserRepo) UpdateUserFields(_ context.Context, id int64, input *models.UpdateUserRequest) error {
	u, ok := m.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	if input.Name != nil {
		u.Name = *input.Name
	}
	if input.Email != nil {
		u.Email = *input.Email
	}
	if input.DateOfBirth != nil {
		u.DateOfBirth = input.DateOfBirth
	}
	if input.Gender != nil {
		u.Gender = *input.Gender
	}
	if input.Bio != nil {
		u.Bio = *input.Bio
	}
	u.UpdatedAt = time.Now()
	return nil
}

func (m *mockUserRepo) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
	u, ok := m.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = time.Now()
	return nil
}

func (m *mockUserRepo) SetResetToken(_ context.Context, id int64, tokenHash string, expiresAt time.Time) error {
	u, ok := m.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	u.ResetTokenHash = &tokenHash
	exp := expiresAt
	u.ResetTokenExpiresAt = &exp
	return nil
}

func (m *mockUserRepo) ClearResetToken(_ context.Context, id int64) error {
	u, ok := m.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	u.ResetTokenHash = nil
	u.ResetTokenExpiresAt = nil
	return nil
}

func (m *mockUserRepo) GetByValidResetToken(_ context.Context, tokenHash string) (*models.User, error) {
	for _, u := range m.users {
		if u.ResetTokenHash != nil && *u.ResetTokenHash == tokenHash &&
			u.ResetTokenExpiresAt != nil && u.ResetTokenExpiresAt.After(time.Now()) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockUserRepo) ConsumeResetToken(_ context.Context, id int64, tokenHash, passwordHash string) (bool, error) {
	u, ok := m.users[id]
	if !ok {
		return false, nil
	}
	if u.ResetTokenHash == nil || *u.ResetTokenHash != tokenHash ||
		u.ResetTokenExpiresAt == nil || !u.ResetTokenExpiresAt.After(time.Now()) {
		return false, nil
	}
	u.PasswordHash = passwordHash
	u.ResetTokenHash = nil
	u.ResetTokenExpiresAt = nil
	u.UpdatedAt = time.Now()
	return true, nil
}

func (m *mockUserRepo) DeleteUserByID(_ context.Context, id int64) (bool, error) {
	if _, ok := m.users[id]; !ok {
		return false, nil
	}
	delete(m.users, id)
	return true, nil
}
