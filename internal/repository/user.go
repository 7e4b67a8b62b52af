package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"accountd/internal/logger"
	"accountd/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, name, date_of_birth, gender, bio, password_hash, reset_token_hash, reset_token_expires_at, created_at, updated_at`

func scanUser(row interface{ Scan(dest ...any) error }) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.DateOfBirth,
		&user.Gender,
		&user.Bio,
		&user.PasswordHash,
		&user.ResetTokenHash,
		&user.ResetTokenExpiresAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	logger.Log.Info("Создание пользователя (repo)", zap.String("email", user.Email))
	query := `
	INSERT INTO users (email, name, date_of_birth, gender, bio, password_hash)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		user.Email,
		user.Name,
		user.DateOfBirth,
		user.Gender,
		user.Bio,
		user.PasswordHash,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		logger.Log.Error("Ошибка создания пользователя (repo)", zap.Error(err))
	}
	return err
}

func (r *UserRepository) IsEmailTaken(ctx context.Context, email string) (bool, error) {
	logger.Log.Debug("Проверка email на уникальность (repo)", zap.String("email", email))
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE lower(email) = lower($1))`
	var exists bool
	err := r.db.QueryRow(ctx, query, email).Scan(&exists)
	if err != nil {
		logger.Log.Error("Ошибка проверки email (repo)", zap.Error(err))
	}
	return exists, err
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	logger.Log.Debug("Получение пользователя по email (repo)", zap.String("email", email))
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	user, err := scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		logger.Log.Warn("Пользователь по email не найден (repo)", zap.String("email", email), zap.Error(err))
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	logger.Log.Debug("Получение пользователя по ID (repo)", zap.Int64("user_id", id))
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		logger.Log.Warn("Пользователь по ID не найден (repo)", zap.Int64("user_id", id), zap.Error(err))
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	logger.Log.Debug("Получение списка пользователей (repo)")
	query := `SELECT ` + userColumns + ` FROM users ORDER BY id`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		logger.Log.Error("Ошибка выборки пользователей (repo)", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			logger.Log.Error("Ошибка чтения строки пользователя (repo)", zap.Error(err))
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *UserRepository) UpdateUserFields(ctx context.Context, id int64, input *models.UpdateUserRequest) error {
	logger.Log.Info("Обновление полей пользователя (repo)", zap.Int64("user_id", id))

	set := []string{}
	args := []any{}
	i := 1

	add := func(col string, val any) {
		set = append(set, fmt.Sprintf("%s = $%d", col, i))
		args = append(args, val)
		i++
	}

	if input.Name != nil {
		add("name", *input.Name)
	}
	if input.Email != nil {
		add("email", *input.Email)
	}
	if input.DateOfBirth != nil {
		add("date_of_birth", *input.DateOfBirth)
	}
	if input.Gender != nil {
		add("gender", *input.Gender)
	}
	if input.Bio != nil {
		add("bio", *input.Bio)
	}

	if len(set) == 0 {
		return nil
	}

	set = append(set, "updated_at = now()")
	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d`, strings.Join(set, ", "), i)
	args = append(args, id)

	_, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		logger.Log.Error("Ошибка обновления пользователя (repo)", zap.Error(err), zap.Int64("user_id", id))
	}
	return err
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	logger.Log.Info("Обновление пароля (repo)", zap.Int64("user_id", id))
	query := `UPDATE users SET password_hash = $1, updated_at = now() WHERE id = $2`
	_, err := r.db.Exec(ctx, query, passwordHash, id)
	if err != nil {
		logger.Log.Error("Ошибка обновления пароля (repo)", zap.Error(err), zap.Int64("user_id", id))
	}
	return err
}

// SetResetToken сохраняет хеш токена сброса и срок его действия. Оба поля пишутся одним запросом.
func (r *UserRepository) SetResetToken(ctx context.Context, id int64, tokenHash string, expiresAt time.Time) error {
	logger.Log.Debug("Сохранение токена сброса (repo)", zap.Int64("user_id", id))
	query := `UPDATE users SET reset_token_hash = $1, reset_token_expires_at = $2, updated_at = now() WHERE id = $3`
	_, err := r.db.Exec(ctx, query, tokenHash, expiresAt, id)
	if err != nil {
		logger.Log.Error("Ошибка сохранения токена сброса (repo)", zap.Error(err), zap.Int64("user_id", id))
	}
	return err
}

// ClearResetToken сбрасывает оба поля токена разом (откат выдачи).
func (r *UserRepository) ClearResetToken(ctx context.Context, id int64) error {
	logger.Log.Debug("Очистка токена сброса (repo)", zap.Int64("user_id", id))
	query := `UPDATE users SET reset_token_hash = NULL, reset_token_expires_at = NULL, updated_at = now() WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id)
	if err != nil {
		logger.Log.Error("Ошибка очистки токена сброса (repo)", zap.Error(err), zap.Int64("user_id", id))
	}
	return err
}

// GetByValidResetToken ищет пользователя по хешу токена со строгой проверкой срока.
// Просроченный и отсутствующий токен неразличимы для вызывающего.
func (r *UserRepository) GetByValidResetToken(ctx context.Context, tokenHash string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE reset_token_hash = $1 AND reset_token_expires_at > now()`
	user, err := scanUser(r.db.QueryRow(ctx, query, tokenHash))
	if err != nil {
		return nil, err
	}
	return user, nil
}

// ConsumeResetToken одним условным UPDATE ставит новый пароль и очищает оба поля токена.
// Возвращает false, если токен к этому моменту уже израсходован или истёк.
func (r *UserRepository) ConsumeResetToken(ctx context.Context, id int64, tokenHash, passwordHash string) (bool, error) {
	query := `
	UPDATE users
	SET password_hash = $1, reset_token_hash = NULL, reset_token_expires_at = NULL, updated_at = now()
	WHERE id = $2 AND reset_token_hash = $3 AND reset_token_expires_at > now()`
	tag, err := r.db.Exec(ctx, query, passwordHash, id, tokenHash)
	if err != nil {
		logger.Log.Error("Ошибка применения токена сброса (repo)", zap.Error(err), zap.Int64("user_id", id))
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *UserRepository) DeleteUserByID(ctx context.Context, id int64) (bool, error) {
	logger.Log.Info("Удаление пользователя (repo)", zap.Int64("user_id", id))
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		logger.Log.Error("Ошибка удаления пользователя (repo)", zap.Error(err), zap.Int64("user_id", id))
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
